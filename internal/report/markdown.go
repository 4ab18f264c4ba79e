package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/imgmirror/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// The output fits a pull request description for the commit that adds the
// localized images.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := NewSummary(run)

	w.writeHeader(md, run)
	w.writeSummary(md, run, summary)
	w.writePages(md, run)
	w.writeFindings(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run properties.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("imgmirror Report")
	md.PlainText("")

	rows := [][]string{
		{"Root Directory", "`" + run.RootDir + "`"},
		{"Image Root", "`" + run.ImageRoot + "`"},
		{"Host Prefix", "`" + run.HostPrefix + "`"},
	}
	if run.BaseURL != "" {
		rows = append(rows, []string{"Site URL", run.BaseURL})
	}
	rows = append(rows,
		[]string{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Duration", run.Duration().Round(time.Millisecond).String()},
		[]string{"Status", statusText(run)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the status cell of the header table.
func statusText(run *model.Run) string {
	switch status(run) {
	case "failed":
		return "❌ Failed - " + run.Error
	case "incomplete":
		return "⚠️ Incomplete"
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the totals table, a chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, run *model.Run, s *Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages processed", strconv.Itoa(s.Pages)},
			{"Image tags", strconv.Itoa(s.ImageTags)},
			{"Sources rewritten", strconv.Itoa(s.Rewritten)},
			{"Downloaded", strconv.Itoa(s.Downloaded)},
			{"HTTP failures", strconv.Itoa(s.HTTPFailures)},
			{"Errors", strconv.Itoa(s.Errors)},
			{"Left untouched", strconv.Itoa(s.Skipped)},
			{"Bytes written", strconv.FormatInt(s.Bytes, 10)},
		},
	})
	md.PlainText("")

	if s.Rewritten > 0 {
		w.writePieChart(md, s)
	}

	switch {
	case run.Error != "":
		md.Cautionf("The run stopped early: %s. Pages after the failing one were not processed.", run.Error)
	case s.Failed() > 0:
		md.Warningf(
			"%d image(s) could not be downloaded. Their src attributes point at local files that do not exist.",
			s.Failed(),
		)
	case s.Rewritten == 0:
		md.Note("No image matched the host prefix.")
	default:
		md.Tip("All matching images were downloaded.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of fetch outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Image Fetch Outcomes"),
		piechart.WithShowData(true),
	)

	if s.Downloaded > 0 {
		chart.LabelAndIntValue("Downloaded", uint64(s.Downloaded))
	}
	if s.HTTPFailures > 0 {
		chart.LabelAndIntValue("HTTP failure", uint64(s.HTTPFailures))
	}
	if s.Errors > 0 {
		chart.LabelAndIntValue("Error", uint64(s.Errors))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePages writes one table per page that had matching images.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, run *model.Run) {
	md.H2("Pages")
	md.PlainText("")

	written := 0
	for _, page := range run.Pages {
		if len(page.Images) == 0 {
			continue
		}
		written++

		md.H3(page.Path)
		md.PlainText("")

		rows := make([][]string, len(page.Images))
		for i, img := range page.Images {
			rows[i] = []string{
				truncateString(img.Ref.RemoteURL, 60),
				"`" + img.Ref.Src + "`",
				outcomeText(img),
				strconv.FormatInt(img.Bytes, 10),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Remote URL", "Local Source", "Outcome", "Bytes"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if written == 0 {
		md.PlainText("No page referenced the media host.")
		md.PlainText("")
	}
}

// outcomeText describes a fetch outcome for a table cell.
func outcomeText(img model.ImageResult) string {
	switch img.Outcome {
	case model.OutcomeDownloaded:
		return "✅ downloaded"
	case model.OutcomeHTTPStatus:
		return "❌ HTTP " + strconv.Itoa(img.StatusCode)
	default:
		return "❌ " + truncateString(img.Error, 40)
	}
}

// writeFindings writes the EXIF audit findings, if any.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, run *model.Run) {
	findings := run.Findings()
	if len(findings) == 0 {
		return
	}

	md.H2("Image Metadata Findings")
	md.PlainText("")

	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			f.Severity.String(),
			f.Title,
			truncateString(f.Tag+": "+f.Value, 50),
			"`" + f.Image + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Title", "Value", "Image"},
		Rows:   rows,
	})
	md.PlainText("")
	md.Importantf("%d metadata finding(s). Strip EXIF data before publishing if it is not meant to be public.", len(findings))
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [imgmirror](https://github.com/nao1215/imgmirror)*")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
