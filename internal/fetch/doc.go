// Package fetch downloads remote images to local paths.
//
// A Fetcher issues one streaming GET per image. Only HTTP 200 counts as
// success: the parent directories of the target are created and the body is
// written in fixed-size chunks, overwriting any existing file. Any other
// status, and any network or file system error, is reported on the console
// transcript and returned as a value in model.ImageResult. Fetch never
// returns a Go error, so one broken image cannot stop a page.
//
// There is no retry and no integrity check. A write error in the middle of
// a body can leave a truncated file behind.
package fetch
