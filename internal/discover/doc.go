// Package discover finds the HTML pages of a static site export.
//
// Discovery is a plain recursive walk: every non-directory entry whose name
// ends with the configured extension is returned. There is no content check
// and no exclusion list. Entries are visited in directory order, which is
// whatever the file system yields, so callers must not rely on ordering.
//
// Design decision: We use github.com/karrick/godirwalk instead of
// filepath.WalkDir because it can skip unreadable subdirectories through an
// error callback and does not sort directory entries, which keeps the walk
// cheap on large exports.
package discover
