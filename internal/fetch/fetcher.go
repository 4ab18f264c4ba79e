package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nao1215/imgmirror/internal/console"
	"github.com/nao1215/imgmirror/internal/model"
)

// DefaultChunkSize is the number of bytes copied per write.
const DefaultChunkSize = 1024

// Fetcher downloads images over HTTP.
type Fetcher struct {
	client    *http.Client
	chunkSize int
	printer   *console.Printer
	logger    *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithChunkSize sets the write chunk size. Non-positive values are ignored.
func WithChunkSize(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.chunkSize = n
		}
	}
}

// WithPrinter sets the transcript printer.
func WithPrinter(p *console.Printer) Option {
	return func(f *Fetcher) {
		if p != nil {
			f.printer = p
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a Fetcher using client. A nil client means
// http.DefaultClient.
func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{
		client:    client,
		chunkSize: DefaultChunkSize,
		printer:   console.New(nil),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads remoteURL to localPath.
//
// The result always carries a Ref with RemoteURL and LocalPath set; callers
// that built a full model.ImageRef should overwrite Ref with their own.
func (f *Fetcher) Fetch(ctx context.Context, remoteURL, localPath string) model.ImageResult {
	result := model.ImageResult{
		Ref: model.ImageRef{
			RemoteURL: remoteURL,
			FileName:  filepath.Base(localPath),
			LocalPath: localPath,
		},
	}

	status, written, err := f.download(ctx, remoteURL, localPath)
	result.StatusCode = status
	result.Bytes = written

	switch {
	case err != nil:
		result.Outcome = model.OutcomeError
		result.Error = err.Error()
		f.printer.Errored(remoteURL, err)
		f.logger.Debug("image download failed",
			"url", remoteURL,
			"path", localPath,
			"bytes", written,
			"error", err)
	case status != http.StatusOK:
		result.Outcome = model.OutcomeHTTPStatus
		f.printer.FailedStatus(remoteURL, status)
		f.logger.Debug("image request rejected", "url", remoteURL, "status", status)
	default:
		result.Outcome = model.OutcomeDownloaded
		f.printer.Downloaded(remoteURL, localPath)
		f.logger.Debug("image downloaded", "url", remoteURL, "path", localPath, "bytes", written)
	}

	return result
}

// download performs the request. A non-200 status is not an error: it is
// returned with a nil error and nothing is written.
func (f *Fetcher) download(ctx context.Context, remoteURL, localPath string) (int, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		return resp.StatusCode, 0, fmt.Errorf("failed to create image directory: %w", err)
	}

	file, err := os.Create(localPath) //nolint:gosec // path is derived from the page key and URL
	if err != nil {
		return resp.StatusCode, 0, fmt.Errorf("failed to create image file: %w", err)
	}

	written, copyErr := copyChunks(file, resp.Body, f.chunkSize)
	closeErr := file.Close()
	if copyErr != nil {
		return resp.StatusCode, written, copyErr
	}
	if closeErr != nil {
		return resp.StatusCode, written, fmt.Errorf("failed to close image file: %w", closeErr)
	}
	return resp.StatusCode, written, nil
}

// copyChunks copies src to dst reading at most size bytes at a time.
// Every chunk read is written before the next read.
func copyChunks(dst io.Writer, src io.Reader, size int) (int64, error) {
	if size <= 0 {
		return 0, ErrInvalidChunkSize
	}
	buf := make([]byte, size)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			w, err := dst.Write(buf[:n])
			written += int64(w)
			if err != nil {
				return written, fmt.Errorf("failed to write image file: %w", err)
			}
			if w != n {
				return written, fmt.Errorf("failed to write image file: %w", io.ErrShortWrite)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, fmt.Errorf("failed to read response body: %w", readErr)
		}
	}
}
