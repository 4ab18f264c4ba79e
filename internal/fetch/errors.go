package fetch

import "errors"

var (
	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrInvalidChunkSize is returned when a Fetcher is configured with a
	// non-positive chunk size.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
)
