package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Without flags or a configuration file, imgmirror behaves exactly like the
// migration script it replaces: HTML files under the current directory,
// images from the Wix media host, stored under assets/images.
const (
	// DefaultRootDir is the directory searched for HTML files.
	DefaultRootDir = "."

	// DefaultImageRoot is the directory, relative to the root directory,
	// that receives one subdirectory of images per page. The same value is
	// written into rewritten src attributes.
	DefaultImageRoot = "assets/images"

	// DefaultHostPrefix identifies the third-party media host whose images
	// are downloaded. Only <img> tags whose src starts with this prefix are
	// touched.
	DefaultHostPrefix = "https://static.wixstatic.com/media/"

	// DefaultBaseURL is the public URL of the migrated site.
	// It is recorded in reports and never changes rewritten src values.
	DefaultBaseURL = "https://sourabhdhalia.github.io/www.manidveep.com/"

	// DefaultExtension selects the files treated as HTML pages.
	DefaultExtension = ".html"

	// DefaultChunkSize is the number of bytes written to disk per chunk
	// while streaming an image body.
	DefaultChunkSize = 1024

	// DefaultTimeout of zero means the HTTP client never times out,
	// which matches the behavior of a plain client.
	DefaultTimeout time.Duration = 0

	// DefaultWorkers of one processes pages strictly one at a time.
	DefaultWorkers = 1

	// DefaultUserAgent identifies imgmirror in HTTP requests.
	DefaultUserAgent = "imgmirror/1.0 (+https://github.com/nao1215/imgmirror)"

	// AppName is the application name used for XDG directory paths.
	AppName = "imgmirror"
)

// Config holds all configuration options for imgmirror.
// It is populated from defaults, the optional configuration file and CLI
// flags, in that order, and passed through the application explicitly
// rather than living in global state.
//
// Design decision: We keep a single flat struct, which is all the number of options
// warrants. Tests construct it directly to point runs at temporary
// directories and httptest servers.
type Config struct {
	// RootDir is the directory that is searched recursively for HTML files.
	// The image root is resolved relative to it on disk.
	RootDir string

	// ImageRoot is the output directory for downloaded images.
	// Rewritten src attributes take the form <ImageRoot>/<page key>/<file name>.
	ImageRoot string

	// HostPrefix is the recognized media host URL prefix.
	HostPrefix string

	// BaseURL is the public URL of the site, recorded in reports.
	BaseURL string

	// Extension is the file name suffix of HTML pages.
	Extension string

	// ChunkSize is the write chunk size in bytes for image bodies.
	ChunkSize int

	// Timeout is the HTTP client timeout per request. Zero disables it.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with image requests.
	UserAgent string

	// Proxy is an optional SOCKS5 proxy address in "host:port" format.
	Proxy string

	// Headers are extra HTTP headers sent with every image request.
	Headers map[string]string

	// Workers is the number of pages processed concurrently.
	// One keeps the pipeline fully sequential.
	Workers int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string

	// AuditEXIF inspects every downloaded image for format, dimensions and
	// privacy-relevant EXIF metadata.
	AuditEXIF bool

	// SaveToDB records the run in the manifest database.
	SaveToDB bool

	// DBDir is the directory holding the manifest database.
	// Defaults to the XDG data directory.
	DBDir string

	// JSONReport writes a JSON run report after the run.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport writes a Markdown run report after the run.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output path of the run report. Empty means stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		RootDir:    DefaultRootDir,
		ImageRoot:  DefaultImageRoot,
		HostPrefix: DefaultHostPrefix,
		BaseURL:    DefaultBaseURL,
		Extension:  DefaultExtension,
		ChunkSize:  DefaultChunkSize,
		Timeout:    DefaultTimeout,
		UserAgent:  DefaultUserAgent,
		Workers:    DefaultWorkers,
		DBDir:      XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for imgmirror.
// On Linux: ~/.local/share/imgmirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for imgmirror.
// On Linux: ~/.config/imgmirror
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.ImageRoot == "" {
		return ErrEmptyImageRoot
	}

	u, err := url.Parse(c.HostPrefix)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidHostPrefix
	}

	if c.Extension == "" {
		return ErrEmptyExtension
	}

	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// ApplyFile copies every value set in f onto c.
// Zero values in the file leave the current setting untouched.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.ImageRoot != "" {
		c.ImageRoot = f.ImageRoot
	}
	if f.HostPrefix != "" {
		c.HostPrefix = f.HostPrefix
	}
	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	if f.Extension != "" {
		c.Extension = f.Extension
	}
	if f.ChunkSize != 0 {
		c.ChunkSize = f.ChunkSize
	}
	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Proxy != "" {
		c.Proxy = f.Proxy
	}
	if f.Workers != 0 {
		c.Workers = f.Workers
	}
	if len(f.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(f.Headers))
		}
		for k, v := range f.Headers {
			c.Headers[k] = v
		}
	}
}
