package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/imgmirror/internal/config"
	"github.com/nao1215/imgmirror/internal/database"
	"github.com/nao1215/imgmirror/internal/discover"
	"github.com/nao1215/imgmirror/internal/imagemeta"
	"github.com/nao1215/imgmirror/internal/model"
)

// DiscoverStep creates the image root and lists the HTML files of the run.
type DiscoverStep struct {
	// extension is the file name suffix of HTML pages.
	extension string

	// logger for structured logging.
	logger *slog.Logger
}

// DiscoverStepOption configures a DiscoverStep.
type DiscoverStepOption func(*DiscoverStep)

// WithExtension sets the page file suffix. Empty values are ignored.
func WithExtension(ext string) DiscoverStepOption {
	return func(s *DiscoverStep) {
		if ext != "" {
			s.extension = ext
		}
	}
}

// WithDiscoverLogger sets a custom logger for the discover step.
func WithDiscoverLogger(logger *slog.Logger) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.logger = logger
	}
}

// NewDiscoverStep creates a new discovery step.
func NewDiscoverStep(opts ...DiscoverStepOption) *DiscoverStep {
	s := &DiscoverStep{
		extension: config.DefaultExtension,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover"
}

// Do creates <root>/<image-root> and fills run.Files.
// The image root is created first, even when no page turns up, but never
// for a root directory that does not exist.
func (s *DiscoverStep) Do(_ context.Context, run *model.Run) error {
	info, err := os.Stat(run.RootDir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", run.RootDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", run.RootDir, discover.ErrNotDirectory)
	}

	imageDir := ImageDir(run.RootDir, run.ImageRoot)
	if err := os.MkdirAll(imageDir, 0o750); err != nil {
		return fmt.Errorf("failed to create image root: %w", err)
	}

	files, err := discover.HTMLFiles(run.RootDir, s.extension)
	if err != nil {
		return err
	}
	run.Files = files

	s.logger.Debug("pages discovered",
		"root", run.RootDir,
		"pages", len(files),
		"image_dir", imageDir,
	)
	return nil
}

// ImageDir returns the on-disk directory of the image root.
// A relative imageRoot is resolved against rootDir.
func ImageDir(rootDir, imageRoot string) string {
	dir := filepath.FromSlash(imageRoot)
	if filepath.IsAbs(dir) || rootDir == "" {
		return dir
	}
	return filepath.Join(rootDir, dir)
}

// RewriteStep rewrites every discovered page.
type RewriteStep struct {
	processor *PageProcessor
}

// NewRewriteStep creates a rewrite step backed by processor.
func NewRewriteStep(processor *PageProcessor) *RewriteStep {
	return &RewriteStep{processor: processor}
}

// Name returns the step name.
func (s *RewriteStep) Name() string {
	return "rewrite"
}

// Do processes run.Files and records each page in the run.
func (s *RewriteStep) Do(ctx context.Context, run *model.Run) error {
	return s.processor.ProcessPages(ctx, run.Files, run.AddPage)
}

// AuditStep inspects every downloaded image and attaches its metadata.
type AuditStep struct {
	// inspector reads the image files.
	inspector *imagemeta.Inspector

	// logger for structured logging.
	logger *slog.Logger
}

// AuditStepOption configures an AuditStep.
type AuditStepOption func(*AuditStep)

// WithAuditLogger sets a custom logger for the audit step.
func WithAuditLogger(logger *slog.Logger) AuditStepOption {
	return func(s *AuditStep) {
		s.logger = logger
	}
}

// WithMaxImageSize sets the largest file the audit step reads.
func WithMaxImageSize(size int64) AuditStepOption {
	return func(s *AuditStep) {
		s.inspector = imagemeta.NewInspector(size)
	}
}

// NewAuditStep creates a new audit step.
func NewAuditStep(opts ...AuditStepOption) *AuditStep {
	s := &AuditStep{
		inspector: imagemeta.NewInspector(imagemeta.DefaultMaxImageSize),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AuditStep) Name() string {
	return "audit"
}

// Do inspects the downloaded images of every page. Files that cannot be
// inspected are logged and skipped.
func (s *AuditStep) Do(ctx context.Context, run *model.Run) error {
	for _, page := range run.Pages {
		for i := range page.Images {
			if err := ctx.Err(); err != nil {
				return err
			}

			img := &page.Images[i]
			if !img.OK() {
				continue
			}

			meta, err := s.inspector.Inspect(img.Ref.LocalPath)
			if err != nil {
				s.logger.Warn("failed to inspect image",
					"path", img.Ref.LocalPath,
					"error", err,
				)
				continue
			}
			img.Meta = meta

			if imagemeta.HasGPS(meta) {
				s.logger.Warn("image contains GPS coordinates",
					"path", img.Ref.LocalPath,
					"page", page.Path,
				)
			}
		}
	}
	return nil
}

// SaveStep stores the run in the manifest database.
type SaveStep struct {
	// dbDir is the directory of the manifest database.
	dbDir string

	// logger for structured logging.
	logger *slog.Logger
}

// SaveStepOption configures a SaveStep.
type SaveStepOption func(*SaveStep)

// WithSaveLogger sets a custom logger for the save step.
func WithSaveLogger(logger *slog.Logger) SaveStepOption {
	return func(s *SaveStep) {
		s.logger = logger
	}
}

// NewSaveStep creates a step that saves runs to the database in dbDir.
func NewSaveStep(dbDir string, opts ...SaveStepOption) *SaveStep {
	s := &SaveStep{
		dbDir:  dbDir,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return "save"
}

// Do saves run and sets run.ID.
func (s *SaveStep) Do(ctx context.Context, run *model.Run) error {
	db, err := database.Open(s.dbDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	id, err := db.SaveRun(ctx, run)
	if err != nil {
		return err
	}

	s.logger.Debug("run saved", "id", id, "db", db.Path())
	return nil
}
