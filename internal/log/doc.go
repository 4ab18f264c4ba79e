// Package log provides the slog setup used by imgmirror.
//
// Diagnostics go to stderr through slog so that stdout keeps only the
// human-readable transcript (one line per page and per image attempt).
// The SecureHandler wraps any slog.Handler and masks:
//   - attributes whose key names a credential (authorization, cookie, token, ...)
//   - user info and signature-like query parameters inside URL values
//
// Configured request headers often carry credentials for private media hosts,
// and signed CDN URLs embed them in the query string, so both are masked even
// in verbose mode.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//	logger.Debug("fetching image", "url", remoteURL)
package log
