package console

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrinter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		print func(p *Printer)
		want  string
	}{
		{
			name:  "downloaded",
			print: func(p *Printer) { p.Downloaded("https://h/media/a.png", "assets/images/x/a.png") },
			want:  "Downloaded: https://h/media/a.png -> assets/images/x/a.png\n",
		},
		{
			name:  "failed status",
			print: func(p *Printer) { p.FailedStatus("https://h/media/a.png", 404) },
			want:  "Failed to download: https://h/media/a.png (Status code: 404)\n",
		},
		{
			name:  "errored",
			print: func(p *Printer) { p.Errored("https://h/media/a.png", errors.New("connection refused")) },
			want:  "Error downloading https://h/media/a.png: connection refused\n",
		},
		{
			name:  "processed",
			print: func(p *Printer) { p.Processed("site/index.html") },
			want:  "Processed: site/index.html\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.print(New(&buf))
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	// Must not panic.
	p := Discard()
	p.Processed("a.html")
}
