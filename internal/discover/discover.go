package discover

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/karrick/godirwalk"
)

// ErrNotDirectory is returned when the root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// HTMLFiles returns the paths of all files under root whose name ends with ext.
// Paths are root joined with the relative path of each file.
//
// Unreadable subdirectories are skipped silently. Symbolic links to
// directories are not followed; symbolic links to files are returned like
// regular files. A root that cannot be read is an error.
func HTMLFiles(root, ext string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	files := make([]string, 0)
	err = godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if !strings.HasSuffix(de.Name(), ext) {
				return nil
			}
			if de.IsSymlink() {
				isDir, err := de.IsDirOrSymlinkToDir()
				if err != nil || isDir {
					return nil
				}
			}
			files = append(files, osPathname)
			return nil
		},
		ErrorCallback: func(_ string, _ error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return files, nil
}
