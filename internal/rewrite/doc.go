// Package rewrite localizes the images of a single HTML page.
//
// A Rewriter reads a page, parses it with golang.org/x/net/html and visits
// every <img> element in document order. Elements whose src starts with the
// configured host prefix are downloaded through an ImageFetcher and get
// their src replaced by the local path:
//
//	<image-root>/<page key>/<file name>
//
// The replacement happens whatever the outcome of the download, so a page
// always ends up pointing at local paths even if some images are missing.
// The page is then rendered and written back in place. Rendering normalizes
// the markup (quoting, implied tags, entity forms); the document content is
// otherwise unchanged.
//
// Pages must be valid UTF-8. A page that cannot be read or decoded is an
// error for the caller, unlike an image failure.
package rewrite
