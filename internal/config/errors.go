package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrEmptyImageRoot is returned when no image root directory is configured.
	ErrEmptyImageRoot = errors.New("invalid image root: must not be empty")

	// ErrInvalidHostPrefix is returned when the host prefix is not an absolute
	// http or https URL.
	ErrInvalidHostPrefix = errors.New("invalid host prefix: must be an absolute http(s) URL")

	// ErrEmptyExtension is returned when the HTML file extension is empty.
	// An empty extension would match every file in the tree.
	ErrEmptyExtension = errors.New("invalid extension: must not be empty")

	// ErrInvalidChunkSize is returned when the write chunk size is not positive.
	ErrInvalidChunkSize = errors.New("invalid chunk size: must be positive")

	// ErrInvalidTimeout is returned when the HTTP timeout is negative.
	// Zero means no timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidWorkers is returned when the number of page workers is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
