package imagemeta

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	exif "github.com/dsoprea/go-exif/v3"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/nao1215/imgmirror/internal/model"
)

// DefaultMaxImageSize limits how many bytes of a file are inspected.
const DefaultMaxImageSize int64 = 32 << 20

// ErrTooLarge is returned when a file exceeds the inspector's size limit.
var ErrTooLarge = errors.New("image file exceeds inspection size limit")

// Inspector reads image files and reports their metadata.
type Inspector struct {
	maxImageSize int64
}

// NewInspector creates an Inspector. A non-positive maxImageSize means
// DefaultMaxImageSize.
func NewInspector(maxImageSize int64) *Inspector {
	if maxImageSize <= 0 {
		maxImageSize = DefaultMaxImageSize
	}
	return &Inspector{maxImageSize: maxImageSize}
}

// Inspect reads the file at path. An unknown format is not an error: the
// returned meta has an empty Format and zero dimensions, and EXIF is still
// searched.
func (i *Inspector) Inspect(path string) (*model.ImageMeta, error) {
	f, err := os.Open(path) //nolint:gosec // path is a file this run downloaded
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(f, i.maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > i.maxImageSize {
		return nil, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}

	return InspectBytes(data), nil
}

// InspectBytes reports the metadata of an in-memory image.
func InspectBytes(data []byte) *model.ImageMeta {
	meta := &model.ImageMeta{}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		meta.Format = format
		meta.Width = cfg.Width
		meta.Height = cfg.Height
	}
	meta.Findings = ExifFindings(data)
	return meta
}

// tagRule classifies one group of EXIF tags.
type tagRule struct {
	findingType string
	title       string
	severity    model.Severity
}

var (
	ruleGPS      = tagRule{"exif_gps", "GPS Coordinates in Image EXIF", model.SeverityCritical}
	ruleCamera   = tagRule{"exif_camera", "Camera Information in Image EXIF", model.SeverityMedium}
	ruleSerial   = tagRule{"exif_serial", "Device Serial Number in Image EXIF", model.SeverityHigh}
	ruleSoftware = tagRule{"exif_software", "Software Information in Image EXIF", model.SeverityLow}
	ruleAuthor   = tagRule{"exif_author", "Author/Copyright Information in Image EXIF", model.SeverityHigh}
	ruleDateTime = tagRule{"exif_datetime", "Timestamp in Image EXIF", model.SeverityLow}
	ruleComputer = tagRule{"exif_computer", "Host Computer in Image EXIF", model.SeverityMedium}
)

// tagRules maps EXIF tag names to their classification.
var tagRules = map[string]tagRule{
	"GPSLatitude":        ruleGPS,
	"GPSLongitude":       ruleGPS,
	"GPSLatitudeRef":     ruleGPS,
	"GPSLongitudeRef":    ruleGPS,
	"Make":               ruleCamera,
	"Model":              ruleCamera,
	"SerialNumber":       ruleSerial,
	"CameraSerialNumber": ruleSerial,
	"BodySerialNumber":   ruleSerial,
	"LensSerialNumber":   ruleSerial,
	"Software":           ruleSoftware,
	"ProcessingSoftware": ruleSoftware,
	"Artist":             ruleAuthor,
	"Author":             ruleAuthor,
	"Copyright":          ruleAuthor,
	"XPAuthor":           ruleAuthor,
	"DateTimeOriginal":   ruleDateTime,
	"DateTimeDigitized":  ruleDateTime,
	"DateTime":           ruleDateTime,
	"HostComputer":       ruleComputer,
}

// ExifFindings returns the privacy-relevant EXIF tags in data, in the order
// they appear. Data without EXIF yields an empty slice.
func ExifFindings(data []byte) []model.Finding {
	findings := make([]model.Finding, 0)

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return findings
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return findings
	}

	for _, entry := range entries {
		rule, ok := tagRules[entry.TagName]
		if !ok {
			continue
		}
		findings = append(findings, model.Finding{
			Type:     rule.findingType,
			Title:    rule.title,
			Severity: rule.severity,
			Tag:      entry.TagName,
			Value:    entry.Formatted,
		})
	}
	return findings
}

// HasGPS reports whether any finding is a GPS tag.
func HasGPS(meta *model.ImageMeta) bool {
	if meta == nil {
		return false
	}
	for _, f := range meta.Findings {
		if f.Type == ruleGPS.findingType {
			return true
		}
	}
	return false
}
