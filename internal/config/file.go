package config

import "time"

// File represents the structure of the .imgmirror configuration file.
// Every field is optional; unset fields keep their defaults.
type File struct {
	// ImageRoot overrides the image output directory.
	ImageRoot string `yaml:"imageRoot,omitempty"`

	// HostPrefix overrides the recognized media host prefix.
	HostPrefix string `yaml:"hostPrefix,omitempty"`

	// BaseURL is the public URL of the site.
	BaseURL string `yaml:"baseURL,omitempty"`

	// Extension overrides the HTML file extension.
	Extension string `yaml:"extension,omitempty"`

	// ChunkSize overrides the write chunk size in bytes.
	ChunkSize int `yaml:"chunkSize,omitempty"`

	// Timeout is the HTTP timeout, e.g. "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Proxy is a SOCKS5 proxy address in "host:port" format.
	Proxy string `yaml:"proxy,omitempty"`

	// Headers are extra HTTP headers for image requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Workers is the number of pages processed concurrently.
	Workers int `yaml:"workers,omitempty"`
}
