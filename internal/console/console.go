// Package console prints the human-readable run transcript: one line per
// image attempt and one line per processed page.
//
// The transcript is not a log. It goes to stdout without levels or
// timestamps, while diagnostics go through slog to stderr.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Printer writes transcript lines. It is safe for concurrent use so that
// lines from several page workers never interleave mid-line.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// New returns a Printer writing to out. A nil out means os.Stdout.
func New(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{out: out}
}

// Discard returns a Printer that drops every line.
func Discard() *Printer {
	return &Printer{out: io.Discard}
}

// Downloaded reports a successful image download.
func (p *Printer) Downloaded(remoteURL, localPath string) {
	p.printf("Downloaded: %s -> %s\n", remoteURL, localPath)
}

// FailedStatus reports an image request answered with a status other than 200.
func (p *Printer) FailedStatus(remoteURL string, status int) {
	p.printf("Failed to download: %s (Status code: %d)\n", remoteURL, status)
}

// Errored reports an image attempt that failed with an error.
func (p *Printer) Errored(remoteURL string, err error) {
	p.printf("Error downloading %s: %v\n", remoteURL, err)
}

// Processed reports that a page was rewritten.
func (p *Printer) Processed(filePath string) {
	p.printf("Processed: %s\n", filePath)
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}
