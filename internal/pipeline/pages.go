package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/imgmirror/internal/model"
	"golang.org/x/sync/errgroup"
)

// PageRewriter processes one HTML page. *rewrite.Rewriter implements it.
type PageRewriter interface {
	Process(ctx context.Context, filePath string) (*model.PageResult, error)
}

// PageProcessor runs a PageRewriter over a list of files.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup cancels the remaining pages on the
// first fatal page error.
type PageProcessor struct {
	// rewriter processes each page.
	rewriter PageRewriter

	// workers is the maximum number of pages processed at once.
	workers int

	// logger is used for progress logging.
	logger *slog.Logger
}

// PageOption configures a PageProcessor.
type PageOption func(*PageProcessor)

// WithWorkers sets the maximum number of concurrently processed pages.
// Default is 1; non-positive values are ignored.
func WithWorkers(n int) PageOption {
	return func(pp *PageProcessor) {
		if n > 0 {
			pp.workers = n
		}
	}
}

// WithPageLogger sets a custom logger for page processing.
func WithPageLogger(logger *slog.Logger) PageOption {
	return func(pp *PageProcessor) {
		pp.logger = logger
	}
}

// NewPageProcessor creates a PageProcessor.
func NewPageProcessor(rewriter PageRewriter, opts ...PageOption) *PageProcessor {
	pp := &PageProcessor{
		rewriter: rewriter,
		workers:  1,
	}

	for _, opt := range opts {
		opt(pp)
	}

	if pp.logger == nil {
		pp.logger = slog.Default()
	}

	return pp
}

// ProcessPages rewrites every file and passes each result to callback as
// soon as the page is done. The callback may be called from several
// goroutines when more than one worker is configured.
//
// With one worker, files are processed strictly in the given order. The
// first page error stops the scheduling of further pages and is returned;
// pages already rewritten stay rewritten.
func (pp *PageProcessor) ProcessPages(
	ctx context.Context,
	files []string,
	callback func(*model.PageResult),
) error {
	pp.logger.Debug("processing pages",
		"total_pages", len(files),
		"workers", pp.workers,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(pp.workers)

	for i, file := range files {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			pp.logger.Debug("processing page",
				"path", file,
				"index", i+1,
				"total", len(files),
			)

			result, err := pp.rewriter.Process(ctx, file)
			if err != nil {
				return err
			}
			if callback != nil {
				callback(result)
			}
			return nil
		})
	}

	err := g.Wait()

	pp.logger.Debug("page processing complete",
		"total_pages", len(files),
		"elapsed", time.Since(startTime),
	)

	return err
}
