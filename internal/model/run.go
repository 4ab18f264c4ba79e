package model

import (
	"sync"
	"time"
)

// Run is one invocation of the pipeline over a root directory.
// Pages may be appended from several goroutines, so all mutation goes
// through AddPage.
type Run struct {
	// ID is assigned by the manifest database when the run is saved.
	ID int64 `json:"id,omitempty"`

	// RootDir is the directory that was searched for HTML files.
	RootDir string `json:"root_dir"`

	// ImageRoot is the image root used in src attributes.
	ImageRoot string `json:"image_root"`

	// HostPrefix is the recognized media host prefix.
	HostPrefix string `json:"host_prefix"`

	// BaseURL is the public URL of the site, for reference only.
	BaseURL string `json:"base_url,omitempty"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// Files are the discovered HTML files in traversal order.
	Files []string `json:"files"`

	// Pages are the processed pages in completion order.
	Pages []*PageResult `json:"pages"`

	// Error is the message of the error that aborted the run, if any.
	Error string `json:"error,omitempty"`

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	mu sync.Mutex
}

// NewRun creates a Run for the given directory and settings.
func NewRun(rootDir, imageRoot, hostPrefix string) *Run {
	return &Run{
		RootDir:    rootDir,
		ImageRoot:  imageRoot,
		HostPrefix: hostPrefix,
		StartedAt:  time.Now(),
		Files:      make([]string, 0),
		Pages:      make([]*PageResult, 0),
	}
}

// AddPage records a processed page. It is safe for concurrent use.
func (r *Run) AddPage(p *PageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Pages = append(r.Pages, p)
}

// Finish stamps the end time and records err, if any.
func (r *Run) Finish(err error) {
	r.FinishedAt = time.Now()
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration returns the elapsed time of a finished run, or zero.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Downloaded returns the number of images downloaded across all pages.
func (r *Run) Downloaded() int {
	n := 0
	for _, p := range r.Pages {
		n += p.Downloaded()
	}
	return n
}

// Failed returns the number of failed image fetches across all pages.
func (r *Run) Failed() int {
	n := 0
	for _, p := range r.Pages {
		n += p.Failed()
	}
	return n
}

// Rewritten returns the number of src attributes rewritten across all pages.
func (r *Run) Rewritten() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Images)
	}
	return n
}

// Findings returns every audit finding with the image it belongs to.
func (r *Run) Findings() []ImageFinding {
	out := make([]ImageFinding, 0)
	for _, p := range r.Pages {
		for _, img := range p.Images {
			if img.Meta == nil {
				continue
			}
			for _, f := range img.Meta.Findings {
				out = append(out, ImageFinding{Page: p.Path, Image: img.Ref.LocalPath, Finding: f})
			}
		}
	}
	return out
}

// ImageFinding ties a Finding to the page and file it was found in.
type ImageFinding struct {
	Page  string `json:"page"`
	Image string `json:"image"`
	Finding
}
