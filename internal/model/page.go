package model

import (
	"path/filepath"
	"strings"
	"time"
)

// ImageRef is an <img> tag whose src matched the recognized host prefix.
// All fields except RemoteURL are derived from the page key and the URL,
// so the same inputs always produce the same paths.
type ImageRef struct {
	// RemoteURL is the original src attribute value.
	RemoteURL string `json:"remote_url"`

	// FileName is the final path segment of RemoteURL.
	FileName string `json:"file_name"`

	// Src is the value written back into the src attribute
	// (<image-root>/<page key>/<file name>, slash separated).
	Src string `json:"src"`

	// LocalPath is where the image is stored on disk.
	// It is Src resolved against the root directory of the run.
	LocalPath string `json:"local_path"`
}

// FileNameFromURL returns the final path segment of a URL: everything after
// the last slash. Query strings and fragments are kept as-is.
func FileNameFromURL(remoteURL string) string {
	if i := strings.LastIndex(remoteURL, "/"); i >= 0 {
		return remoteURL[i+1:]
	}
	return remoteURL
}

// PageKey returns the file name of path without its extension.
// It names the directory that holds the page's images.
// Leading dots do not start an extension, so ".html" is its own key.
func PageKey(filePath string) string {
	base := filepath.Base(filePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.Trim(stem, ".") == "" {
		return base
	}
	return stem
}

// NewImageRef derives the reference for remoteURL on the page identified by
// pageKey. imageRoot is the value used in src attributes; rootDir is the
// directory imageRoot is relative to on disk.
func NewImageRef(rootDir, imageRoot, pageKey, remoteURL string) ImageRef {
	name := FileNameFromURL(remoteURL)
	src := strings.TrimSuffix(filepath.ToSlash(imageRoot), "/") + "/" + pageKey + "/" + name
	local := filepath.Join(filepath.FromSlash(imageRoot), pageKey)
	if rootDir != "" && !filepath.IsAbs(local) {
		local = filepath.Join(rootDir, local)
	}
	// Join would clean away an empty, "." or ".." name and point the
	// path at the page directory or above it. Keeping the raw separator
	// leaves a path that names a directory and can never be written.
	local += string(filepath.Separator) + name
	return ImageRef{
		RemoteURL: remoteURL,
		FileName:  name,
		Src:       src,
		LocalPath: local,
	}
}

// PageResult records the processing of one HTML page.
type PageResult struct {
	// Path is the HTML file path as discovered.
	Path string `json:"path"`

	// Key is the page key (file name without extension).
	Key string `json:"key"`

	// Images contains one entry per qualifying <img> tag, in document order.
	Images []ImageResult `json:"images"`

	// ImageTags is the total number of <img> tags on the page,
	// qualifying or not.
	ImageTags int `json:"image_tags"`

	// ProcessedAt is when the page was written back.
	ProcessedAt time.Time `json:"processed_at"`
}

// NewPageResult creates an empty PageResult for the file at filePath.
func NewPageResult(filePath string) *PageResult {
	return &PageResult{
		Path:   filePath,
		Key:    PageKey(filePath),
		Images: make([]ImageResult, 0),
	}
}

// Downloaded returns the number of images fetched successfully.
func (p *PageResult) Downloaded() int {
	n := 0
	for _, img := range p.Images {
		if img.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of images whose fetch did not succeed.
// Their src attributes were rewritten all the same.
func (p *PageResult) Failed() int {
	return len(p.Images) - p.Downloaded()
}

// Skipped returns the number of <img> tags left untouched.
func (p *PageResult) Skipped() int {
	return p.ImageTags - len(p.Images)
}
