// Package main provides the entry point for the imgmirror CLI.
//
// imgmirror migrates a static site away from a hosted media CDN. It walks a
// directory of HTML pages, downloads every image served from the media host
// into a local per-page directory and rewrites the <img> tags to point at
// the local copies.
//
// Usage:
//
//	imgmirror run [dir]
//	imgmirror history --list
//
// See --help for all available options.
package main

// main is the entry point for imgmirror.
func main() {
	Execute()
}
