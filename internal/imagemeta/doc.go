// Package imagemeta inspects downloaded image files.
//
// Inspect reports the format and pixel dimensions of a file and lists EXIF
// tags that disclose something about the photographer: GPS position, camera
// and serial numbers, author, software and host computer names, timestamps.
// Images exported from a CMS often still carry the metadata of the original
// upload, which is easy to miss once the files live in a public repository.
//
// Formats are detected with image.DecodeConfig. GIF, JPEG and PNG come from
// the standard library; BMP, TIFF and WebP decoders are registered from
// golang.org/x/image. EXIF is extracted with github.com/dsoprea/go-exif/v3,
// which searches the raw bytes and so works for any container.
//
// Files are only read, never modified.
package imagemeta
