package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/nao1215/imgmirror/internal/config"
	"github.com/nao1215/imgmirror/internal/database"
	"github.com/nao1215/imgmirror/internal/report"
	"github.com/spf13/cobra"
)

// noRunsMessage is printed when the manifest database holds no runs.
const noRunsMessage = "No runs recorded. Use 'imgmirror run --save-db' to record runs."

// NewHistoryCmd creates the history command.
// This command reads runs stored in the manifest database by 'run --save-db'.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show runs recorded in the manifest database",
		Long: `History displays runs recorded with 'imgmirror run --save-db'.

Without flags the most recent runs are listed. A single run can be shown
as a report, or as the list of image attempts stored for it.

Examples:
  # List recorded runs
  imgmirror history --list

  # Show run 3 as a text report (add -v to list every image)
  imgmirror history --run-id 3

  # Show run 3 as a Markdown report
  imgmirror history --run-id 3 --markdown

  # List the image attempts of run 3 in JSON format
  imgmirror history --run-id 3 --images --json

  # Delete run 3
  imgmirror history --delete 3`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List recorded runs, most recent first (default action)")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().Int64P("run-id", "i", 0,
		"Show a single run by ID (use --list to see available IDs)")
	cmd.Flags().Bool("images", false,
		"With --run-id, list the stored image attempts instead of the report")
	cmd.Flags().Int64("delete", 0,
		"Delete a run and its image attempts by ID")
	cmd.Flags().String("db-dir", "",
		"Directory of the manifest database (default: XDG data directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the run report in Markdown format (mutually exclusive with --json)")

	return cmd
}

// historyOptions holds the parsed flags of the history command.
type historyOptions struct {
	limit    int
	runID    int64
	images   bool
	deleteID int64
	dbDir    string
	json     bool
	markdown bool
	verbose  bool
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	opts, err := parseHistoryFlags(cmd)
	if err != nil {
		return err
	}

	// Validate before opening the database so a bad invocation never
	// touches it.
	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}
	if opts.images && opts.runID == 0 {
		return errors.New("--images requires --run-id")
	}

	db, err := database.Open(opts.dbDir, database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), noRunsMessage)
			return nil
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.deleteID != 0:
		if err := db.DeleteRun(ctx, opts.deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run #%d\n", opts.deleteID)
		return nil
	case opts.runID != 0 && opts.images:
		return showRunImages(ctx, out, db, opts)
	case opts.runID != 0:
		return showRun(ctx, out, db, opts)
	default:
		return listRuns(ctx, out, db, opts)
	}
}

// parseHistoryFlags reads the history command flags.
func parseHistoryFlags(cmd *cobra.Command) (*historyOptions, error) {
	flags := cmd.Flags()
	opts := &historyOptions{verbose: getVerboseFlag(cmd)}

	var err error
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if opts.runID, err = flags.GetInt64("run-id"); err != nil {
		return nil, err
	}
	if opts.images, err = flags.GetBool("images"); err != nil {
		return nil, err
	}
	if opts.deleteID, err = flags.GetInt64("delete"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}

	return opts, nil
}

// listRuns prints the recorded runs as a plain table or JSON.
func listRuns(ctx context.Context, out io.Writer, db *database.ManifestDB, opts *historyOptions) error {
	runs, err := db.ListRuns(ctx, opts.limit)
	if err != nil {
		return err
	}

	if opts.json {
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, noRunsMessage)
		return nil
	}

	fmt.Fprintf(out, "Recorded runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-6s  %-7s  %-10s  %-7s  %s\n",
		"ID", "Date", "Pages", "Images", "Downloaded", "Failed", "Root")
	for _, r := range runs {
		root := r.RootDir
		if r.Error != "" {
			root += " (error)"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-6d  %-7d  %-10d  %-7d  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Pages,
			r.Images,
			r.Downloaded,
			r.Failed,
			root,
		)
	}

	return nil
}

// showRun prints one stored run as a report.
func showRun(ctx context.Context, out io.Writer, db *database.ManifestDB, opts *historyOptions) error {
	run, err := db.GetRun(ctx, opts.runID)
	if err != nil {
		return err
	}

	var writer report.Writer
	switch {
	case opts.json:
		writer = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case opts.markdown:
		writer = report.NewMarkdownWriter(out)
	default:
		writer = report.NewSimpleWriter(out, report.WithVerbose(opts.verbose))
	}

	_, err = writer.Write(run)
	return err
}

// showRunImages prints the image rows stored for one run.
func showRunImages(ctx context.Context, out io.Writer, db *database.ManifestDB, opts *historyOptions) error {
	// GetRun distinguishes a missing run from a run without images.
	if _, err := db.GetRun(ctx, opts.runID); err != nil {
		return err
	}

	images, err := db.ListImages(ctx, opts.runID)
	if err != nil {
		return err
	}

	if opts.json {
		return writeJSON(out, images)
	}

	fmt.Fprintf(out, "Images of run #%d (%d):\n\n", opts.runID, len(images))
	for _, img := range images {
		outcome := string(img.Outcome)
		if img.StatusCode != 0 {
			outcome = fmt.Sprintf("%s %d", outcome, img.StatusCode)
		}
		fmt.Fprintf(out, "  [%s] %s -> %s\n", outcome, img.RemoteURL, img.Src)
		if img.Error != "" {
			fmt.Fprintf(out, "      error: %s\n", img.Error)
		}
		if img.Format != "" {
			fmt.Fprintf(out, "      %s %dx%d\n", img.Format, img.Width, img.Height)
		}
	}

	return nil
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
