package rewrite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nao1215/imgmirror/internal/config"
	"github.com/nao1215/imgmirror/internal/console"
	"github.com/nao1215/imgmirror/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ImageFetcher downloads one image. Implementations report failures in the
// returned result rather than as errors.
type ImageFetcher interface {
	Fetch(ctx context.Context, remoteURL, localPath string) model.ImageResult
}

// Rewriter processes HTML pages one at a time. It holds no per-page state,
// so one Rewriter can serve several goroutines.
type Rewriter struct {
	fetcher    ImageFetcher
	rootDir    string
	imageRoot  string
	hostPrefix string
	printer    *console.Printer
	logger     *slog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithRootDir sets the directory the image root is resolved against on disk.
// The src values written into pages are not affected.
func WithRootDir(dir string) Option {
	return func(r *Rewriter) {
		r.rootDir = dir
	}
}

// WithImageRoot sets the image root used in src values.
func WithImageRoot(root string) Option {
	return func(r *Rewriter) {
		if root != "" {
			r.imageRoot = root
		}
	}
}

// WithHostPrefix sets the URL prefix of images to localize.
func WithHostPrefix(prefix string) Option {
	return func(r *Rewriter) {
		if prefix != "" {
			r.hostPrefix = prefix
		}
	}
}

// WithPrinter sets the transcript printer.
func WithPrinter(p *console.Printer) Option {
	return func(r *Rewriter) {
		if p != nil {
			r.printer = p
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rewriter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRewriter creates a Rewriter that downloads images with fetcher.
func NewRewriter(fetcher ImageFetcher, opts ...Option) *Rewriter {
	r := &Rewriter{
		fetcher:    fetcher,
		rootDir:    config.DefaultRootDir,
		imageRoot:  config.DefaultImageRoot,
		hostPrefix: config.DefaultHostPrefix,
		printer:    console.New(nil),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process localizes the images of the page at filePath and overwrites it.
//
// The returned error is non-nil only when the page itself cannot be read,
// decoded, parsed or written. Image failures are recorded in the result.
func (r *Rewriter) Process(ctx context.Context, filePath string) (*model.PageResult, error) {
	if r.fetcher == nil {
		return nil, ErrNilFetcher
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat page %s: %w", filePath, err)
	}

	content, err := readUTF8(filePath)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", filePath, err)
	}

	result := model.NewPageResult(filePath)
	for _, img := range imageElements(doc) {
		result.ImageTags++

		attr := srcAttr(img)
		if attr == nil || !strings.HasPrefix(attr.Val, r.hostPrefix) {
			continue
		}

		ref := model.NewImageRef(r.rootDir, r.imageRoot, result.Key, attr.Val)
		image := r.fetcher.Fetch(ctx, ref.RemoteURL, ref.LocalPath)
		image.Ref = ref
		result.Images = append(result.Images, image)

		attr.Val = ref.Src
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render page %s: %w", filePath, err)
	}
	if err := os.WriteFile(filePath, buf.Bytes(), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("failed to write page %s: %w", filePath, err)
	}

	result.ProcessedAt = time.Now()
	r.printer.Processed(filePath)
	r.logger.Debug("page processed",
		"path", filePath,
		"img_tags", result.ImageTags,
		"localized", len(result.Images),
		"failed", result.Failed(),
	)

	return result, nil
}

// readUTF8 reads the whole file and rejects invalid UTF-8.
func readUTF8(filePath string) ([]byte, error) {
	f, err := os.Open(filePath) //nolint:gosec // path comes from directory discovery
	if err != nil {
		return nil, fmt.Errorf("failed to open page %s: %w", filePath, err)
	}
	defer func() {
		_ = f.Close()
	}()

	content, err := io.ReadAll(transform.NewReader(f, encoding.UTF8Validator))
	if err != nil {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return nil, fmt.Errorf("%s: %w", filePath, ErrInvalidEncoding)
		}
		return nil, fmt.Errorf("failed to read page %s: %w", filePath, err)
	}
	return content, nil
}

// imageElements returns all <img> element nodes in document order.
func imageElements(doc *html.Node) []*html.Node {
	var images []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			images = append(images, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return images
}

// srcAttr returns a pointer to the src attribute of n, or nil.
// Repeated src attributes are collapsed into the first one, holding the
// value of the last, so that the rewritten value is the one browsers load.
func srcAttr(n *html.Node) *html.Attribute {
	first := -1
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace != "" || a.Key != "src" {
			attrs = append(attrs, a)
			continue
		}
		if first < 0 {
			first = len(attrs)
			attrs = append(attrs, a)
			continue
		}
		attrs[first].Val = a.Val
	}
	n.Attr = attrs
	if first < 0 {
		return nil
	}
	return &n.Attr[first]
}
