package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/imgmirror/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists every image, not only the failed ones.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every image attempt instead of failures only.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run in human-readable format.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder
	s := NewSummary(run)

	w.writeHeader(&sb, run)
	w.writeSummary(&sb, s)
	w.writeImages(&sb, run)
	w.writeFindings(&sb, run)

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the run properties.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	if run.ID != 0 {
		fmt.Fprintf(sb, "Run:         #%d\n", run.ID)
	}
	fmt.Fprintf(sb, "Root:        %s\n", run.RootDir)
	fmt.Fprintf(sb, "Image root:  %s\n", run.ImageRoot)
	fmt.Fprintf(sb, "Host prefix: %s\n", run.HostPrefix)
	fmt.Fprintf(sb, "Started:     %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if run.Error != "" {
		fmt.Fprintf(sb, "Status:      ERROR - %s\n", run.Error)
	} else {
		fmt.Fprintf(sb, "Status:      %s\n", status(run))
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// writeSummary writes the totals.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, s *Summary) {
	fmt.Fprintf(sb, "  Pages:          %d\n", s.Pages)
	fmt.Fprintf(sb, "  Image tags:     %d\n", s.ImageTags)
	fmt.Fprintf(sb, "  Rewritten:      %d\n", s.Rewritten)
	fmt.Fprintf(sb, "  Downloaded:     %d\n", s.Downloaded)
	fmt.Fprintf(sb, "  Failed:         %d\n", s.Failed())
	fmt.Fprintf(sb, "  Left untouched: %d\n", s.Skipped)
	sb.WriteString("\n")
}

// writeImages lists image attempts grouped by page.
func (w *SimpleWriter) writeImages(sb *strings.Builder, run *model.Run) {
	for _, page := range run.Pages {
		var lines []string
		for _, img := range page.Images {
			if img.OK() && !w.verbose {
				continue
			}
			lines = append(lines, fmt.Sprintf("  [%s] %s -> %s", outcomeLabel(img), img.Ref.RemoteURL, img.Ref.Src))
		}
		if len(lines) == 0 {
			continue
		}
		sb.WriteString(page.Path)
		sb.WriteString("\n")
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n\n")
	}
}

// outcomeLabel returns a short label for a fetch outcome.
func outcomeLabel(img model.ImageResult) string {
	switch img.Outcome {
	case model.OutcomeDownloaded:
		return "ok"
	case model.OutcomeHTTPStatus:
		return fmt.Sprintf("%d", img.StatusCode)
	default:
		return "error"
	}
}

// writeFindings lists EXIF findings, most severe first.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, run *model.Run) {
	findings := run.Findings()
	if len(findings) == 0 {
		return
	}

	sb.WriteString("FINDINGS\n")
	for sev := model.SeverityCritical; sev >= model.SeverityInfo; sev-- {
		for _, f := range findings {
			if f.Severity != sev {
				continue
			}
			fmt.Fprintf(sb, "  [%s] %s: %s (%s)\n", sev, f.Tag, f.Value, f.Image)
		}
	}
}
