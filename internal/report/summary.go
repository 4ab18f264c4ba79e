package report

import (
	"time"

	"github.com/nao1215/imgmirror/internal/model"
)

// Summary holds the totals of a run.
type Summary struct {
	Pages        int            `json:"pages"`
	ImageTags    int            `json:"image_tags"`
	Rewritten    int            `json:"rewritten"`
	Downloaded   int            `json:"downloaded"`
	HTTPFailures int            `json:"http_failures"`
	Errors       int            `json:"errors"`
	Skipped      int            `json:"skipped"`
	Bytes        int64          `json:"bytes"`
	Findings     map[string]int `json:"findings,omitempty"`
	Duration     time.Duration  `json:"duration_ns"`
}

// NewSummary computes the totals of run.
func NewSummary(run *model.Run) *Summary {
	s := &Summary{
		Pages:    len(run.Pages),
		Duration: run.Duration(),
	}
	for _, page := range run.Pages {
		s.ImageTags += page.ImageTags
		s.Skipped += page.Skipped()
		for _, img := range page.Images {
			s.Rewritten++
			s.Bytes += img.Bytes
			switch img.Outcome {
			case model.OutcomeDownloaded:
				s.Downloaded++
			case model.OutcomeHTTPStatus:
				s.HTTPFailures++
			case model.OutcomeError:
				s.Errors++
			}
		}
	}
	for _, f := range run.Findings() {
		if s.Findings == nil {
			s.Findings = make(map[string]int)
		}
		s.Findings[f.Severity.String()]++
	}
	return s
}

// Failed returns the number of rewritten images that were not downloaded.
func (s *Summary) Failed() int {
	return s.HTTPFailures + s.Errors
}

// FindingCount returns the number of findings of the given severity.
func (s *Summary) FindingCount(sev model.Severity) int {
	return s.Findings[sev.String()]
}

// TotalFindings returns the number of findings of all severities.
func (s *Summary) TotalFindings() int {
	total := 0
	for _, n := range s.Findings {
		total += n
	}
	return total
}

// status returns a one-word status for a run.
func status(run *model.Run) string {
	switch {
	case run.Error != "":
		return "failed"
	case run.FinishedAt.IsZero():
		return "incomplete"
	default:
		return "complete"
	}
}
