package model

// FetchOutcome describes how an image fetch attempt ended.
type FetchOutcome string

const (
	// OutcomeDownloaded means the server answered 200 and the body was written.
	OutcomeDownloaded FetchOutcome = "downloaded"

	// OutcomeHTTPStatus means the server answered with a status other than 200.
	// Nothing was written to disk.
	OutcomeHTTPStatus FetchOutcome = "http_status"

	// OutcomeError means the request or the file write failed.
	// A partially written file may remain.
	OutcomeError FetchOutcome = "error"
)

// ImageResult is the outcome of fetching one ImageRef.
type ImageResult struct {
	// Ref is the reference that was fetched.
	Ref ImageRef `json:"ref"`

	// Outcome classifies the attempt.
	Outcome FetchOutcome `json:"outcome"`

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Bytes is the number of body bytes written to Ref.LocalPath.
	Bytes int64 `json:"bytes"`

	// Error is the error message for OutcomeError.
	Error string `json:"error,omitempty"`

	// Meta holds audit results for downloaded images, if auditing ran.
	Meta *ImageMeta `json:"meta,omitempty"`
}

// OK reports whether the image was downloaded.
func (r ImageResult) OK() bool {
	return r.Outcome == OutcomeDownloaded
}

// ImageMeta describes a downloaded image file.
type ImageMeta struct {
	// Format is the decoder name reported by image.DecodeConfig
	// ("png", "jpeg", "webp", ...). Empty if the format is unknown.
	Format string `json:"format,omitempty"`

	// Width and Height are the pixel dimensions, 0 if unknown.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Findings are privacy-relevant EXIF tags found in the file.
	Findings []Finding `json:"findings,omitempty"`
}

// HighestSeverity returns the most severe finding level, or SeverityInfo
// when there are no findings.
func (m *ImageMeta) HighestSeverity() Severity {
	highest := SeverityInfo
	if m == nil {
		return highest
	}
	for _, f := range m.Findings {
		if f.Severity > highest {
			highest = f.Severity
		}
	}
	return highest
}

// Finding is one EXIF tag worth reporting before publishing an image.
type Finding struct {
	// Type is a stable identifier such as "exif_gps".
	Type string `json:"type"`

	// Title is a short human-readable label.
	Title string `json:"title"`

	// Severity ranks how much the tag discloses.
	Severity Severity `json:"severity"`

	// Tag is the EXIF tag name.
	Tag string `json:"tag"`

	// Value is the formatted tag value.
	Value string `json:"value"`
}
