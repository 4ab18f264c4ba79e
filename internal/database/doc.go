// Package database provides the SQLite manifest of imgmirror runs.
//
// The manifest records every run and every image attempt of that run:
// where the image came from, where it was written, and how the fetch
// ended. It is written after a run completes and is read by the history
// command. It never influences processing: a re-run downloads everything
// again whether or not the manifest knows the file.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. The database is a single file under the XDG data directory
// 2. CGO-free implementation allows easy cross-compilation
// 3. Plain SQL makes the manifest easy to query by hand
package database
