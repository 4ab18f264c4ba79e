package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/imgmirror/internal/config"
	"github.com/nao1215/imgmirror/internal/console"
	"github.com/nao1215/imgmirror/internal/fetch"
	imglog "github.com/nao1215/imgmirror/internal/log"
	"github.com/nao1215/imgmirror/internal/model"
	"github.com/nao1215/imgmirror/internal/pipeline"
	"github.com/nao1215/imgmirror/internal/report"
	"github.com/nao1215/imgmirror/internal/rewrite"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Download hosted images and rewrite HTML pages",
		Long: `Run walks dir (default: the current directory) for HTML pages and, for
every <img> whose src starts with the media host prefix:

- downloads the image to <image-root>/<page>/<file name>
- rewrites the src attribute to that local path

Pages are rewritten in place. A failed download is reported on the console
and does not stop the run; the src attribute is rewritten regardless.

Examples:
  # Mirror images of the site in the current directory
  imgmirror run

  # Mirror a site in another directory with four page workers
  imgmirror run --workers 4 ./site

  # Inspect downloaded images for EXIF metadata and save a Markdown report
  imgmirror run --audit-exif --markdown -o report.md

  # Record the run in the manifest database
  imgmirror run --save-db

Configuration file (.imgmirror) example:
  imageRoot: assets/images
  hostPrefix: https://static.wixstatic.com/media/
  timeout: 30s
  headers:
    Referer: "https://www.example.com/"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRunCmd,
	}

	// Rewrite flags
	cmd.Flags().String("image-root", config.DefaultImageRoot,
		"Directory, relative to dir, that receives downloaded images")
	cmd.Flags().String("host-prefix", config.DefaultHostPrefix,
		"Only images whose src starts with this prefix are downloaded")
	cmd.Flags().String("ext", config.DefaultExtension,
		"File extension of HTML pages")

	// HTTP flags
	cmd.Flags().Int("chunk-size", config.DefaultChunkSize,
		"Bytes written to disk per chunk while downloading")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout per image request (0 disables the timeout)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for image requests")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address for image requests (e.g., 127.0.0.1:1080)")

	// Concurrency flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of pages processed concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .imgmirror in current or home directory)")

	// Optional stages
	cmd.Flags().Bool("audit-exif", false,
		"Inspect downloaded images for format, dimensions and EXIF metadata")
	cmd.Flags().Bool("save-db", false,
		"Record the run in the manifest database")
	cmd.Flags().String("db-dir", "",
		"Directory of the manifest database (default: XDG data directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := imglog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = runMirror(ctx, cfg, cmd.OutOrStdout(), logger)
	return err
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file and
// command flags. Only flags the user actually set override file values.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	if len(args) > 0 {
		cfg.RootDir = args[0]
	}

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// Otherwise a missing file silently leaves the defaults in place.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("image-root") {
		if cfg.ImageRoot, err = flags.GetString("image-root"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("host-prefix") {
		if cfg.HostPrefix, err = flags.GetString("host-prefix"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("ext") {
		if cfg.Extension, err = flags.GetString("ext"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("chunk-size") {
		if cfg.ChunkSize, err = flags.GetInt("chunk-size"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	if cfg.AuditEXIF, err = flags.GetBool("audit-exif"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save-db"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// runMirror wires the pipeline for cfg and executes it. Console lines go to
// out. The returned run is populated even when err is non-nil.
func runMirror(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*model.Run, error) {
	client, err := fetch.NewHTTPClient(fetch.ClientOptions{
		Timeout:      cfg.Timeout,
		ProxyAddress: cfg.Proxy,
		UserAgent:    cfg.UserAgent,
		Headers:      cfg.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	printer := console.New(out)
	fetcher := fetch.NewFetcher(client,
		fetch.WithChunkSize(cfg.ChunkSize),
		fetch.WithPrinter(printer),
		fetch.WithLogger(logger),
	)
	rewriter := rewrite.NewRewriter(fetcher,
		rewrite.WithRootDir(cfg.RootDir),
		rewrite.WithImageRoot(cfg.ImageRoot),
		rewrite.WithHostPrefix(cfg.HostPrefix),
		rewrite.WithPrinter(printer),
		rewrite.WithLogger(logger),
	)

	// Later steps still see the pages finished before a fatal page error,
	// so downloaded images are audited and reported for failed runs too.
	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddSteps(
		pipeline.NewDiscoverStep(
			pipeline.WithExtension(cfg.Extension),
			pipeline.WithDiscoverLogger(logger),
		),
		pipeline.NewRewriteStep(pipeline.NewPageProcessor(rewriter,
			pipeline.WithWorkers(cfg.Workers),
			pipeline.WithPageLogger(logger),
		)),
	)
	if cfg.AuditEXIF {
		p.AddStep(pipeline.NewAuditStep(pipeline.WithAuditLogger(logger)))
	}

	run := model.NewRun(cfg.RootDir, cfg.ImageRoot, cfg.HostPrefix)
	run.BaseURL = cfg.BaseURL

	logger.Debug("starting run",
		"root", cfg.RootDir,
		"image_root", cfg.ImageRoot,
		"workers", cfg.Workers,
		"steps", p.StepNames(),
	)

	runErr := p.Execute(ctx, run)
	run.Finish(runErr)

	// Failed and interrupted runs are recorded as well, so the save must
	// not inherit the cancellation.
	if cfg.SaveToDB {
		save := pipeline.NewSaveStep(cfg.DBDir, pipeline.WithSaveLogger(logger))
		if err := save.Do(context.WithoutCancel(ctx), run); err != nil {
			logger.Error("failed to save run", "error", err)
			if runErr == nil {
				runErr = fmt.Errorf("failed to save run: %w", err)
			}
		}
	}

	if cfg.JSONReport || cfg.MarkdownReport {
		if err := outputReport(cfg, run, out); err != nil {
			logger.Error("failed to write report", "error", err)
			if runErr == nil {
				runErr = fmt.Errorf("failed to write report: %w", err)
			}
		}
	}

	return run, runErr
}

// outputReport writes the run report to cfg.ReportFile, or to stdout when
// no file is configured. With a report file, a plain text summary is also
// printed to stdout.
func outputReport(cfg *config.Config, run *model.Run, stdout io.Writer) error {
	if cfg.ReportFile == "" {
		_, err := newReportWriter(cfg, stdout).Write(run)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports list local paths and remote URLs, so only the owner may read them.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	return writeAndClose(f, func(w io.Writer) error {
		writer := report.NewMultiWriter(
			newReportWriter(cfg, w),
			report.NewSimpleWriter(stdout),
		)
		_, err := writer.Write(run)
		return err
	})
}

// newReportWriter returns the JSON or Markdown writer selected by cfg.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	if cfg.JSONReport {
		return report.NewJSONWriter(output,
			report.WithPrettyPrint(),
			report.WithVersion(getVersion()),
		)
	}
	return report.NewMarkdownWriter(output)
}

// writeAndClose passes wc to write and closes it. A failed close is
// reported like a failed write.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if closeErr := wc.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", closeErr)
		}
	}()
	return write(wc)
}
