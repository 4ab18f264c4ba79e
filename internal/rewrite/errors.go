package rewrite

import "errors"

var (
	// ErrInvalidEncoding is returned when a page is not valid UTF-8.
	ErrInvalidEncoding = errors.New("page is not valid UTF-8")

	// ErrNilFetcher is returned by Process when the Rewriter has no fetcher.
	ErrNilFetcher = errors.New("rewriter has no image fetcher")
)
