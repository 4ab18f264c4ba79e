package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/imgmirror/internal/model"
)

// FileName is the name of the manifest database file.
const FileName = "imgmirror.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// ManifestDB stores runs and image attempts in SQLite.
type ManifestDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ManifestDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the manifest in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error
// wrapping os.ErrNotExist is returned.
func Open(dbDir string, opts Options) (*ManifestDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("failed to open database at %s: %w", dbPath, err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	mdb := &ManifestDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := mdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return mdb, nil
}

// Close closes the database connection.
func (mdb *ManifestDB) Close() error {
	return mdb.db.Close()
}

// Path returns the database file path.
func (mdb *ManifestDB) Path() string {
	return mdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (mdb *ManifestDB) createTables() error {
	schema := `
	-- One row per invocation of the pipeline
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root_dir TEXT NOT NULL,
		image_root TEXT NOT NULL,
		host_prefix TEXT NOT NULL,
		base_url TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		pages INTEGER DEFAULT 0,
		images INTEGER DEFAULT 0,
		downloaded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		error TEXT,
		run_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per qualifying <img> tag of a run
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		page_path TEXT NOT NULL,
		page_key TEXT NOT NULL,
		remote_url TEXT NOT NULL,
		src TEXT NOT NULL,
		local_path TEXT NOT NULL,
		outcome TEXT NOT NULL,
		status_code INTEGER,
		bytes INTEGER DEFAULT 0,
		error TEXT,
		format TEXT,
		width INTEGER,
		height INTEGER,
		max_severity TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_images_run ON images(run_id);
	CREATE INDEX IF NOT EXISTS idx_images_url ON images(remote_url);
	`

	_, err := mdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores run and all its image attempts in one transaction and
// sets run.ID to the new row ID.
func (mdb *ManifestDB) SaveRun(ctx context.Context, run *model.Run) (int64, error) {
	runJSON, err := json.Marshal(run)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run: %w", err)
	}

	tx, err := mdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (root_dir, image_root, host_prefix, base_url, started_at, finished_at,
		pages, images, downloaded, failed, error, run_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RootDir,
		run.ImageRoot,
		run.HostPrefix,
		run.BaseURL,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		len(run.Pages),
		run.Rewritten(),
		run.Downloaded(),
		run.Failed(),
		run.Error,
		string(runJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO images (run_id, page_path, page_key, remote_url, src, local_path,
		outcome, status_code, bytes, error, format, width, height, max_severity)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare image insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, page := range run.Pages {
		for _, img := range page.Images {
			var format, severity sql.NullString
			var width, height sql.NullInt64
			if img.Meta != nil {
				format = sql.NullString{String: img.Meta.Format, Valid: img.Meta.Format != ""}
				width = sql.NullInt64{Int64: int64(img.Meta.Width), Valid: true}
				height = sql.NullInt64{Int64: int64(img.Meta.Height), Valid: true}
				severity = sql.NullString{String: img.Meta.HighestSeverity().String(), Valid: true}
			}

			if _, err := stmt.ExecContext(ctx,
				id,
				page.Path,
				page.Key,
				img.Ref.RemoteURL,
				img.Ref.Src,
				img.Ref.LocalPath,
				string(img.Outcome),
				img.StatusCode,
				img.Bytes,
				img.Error,
				format,
				width,
				height,
				severity,
			); err != nil {
				return 0, fmt.Errorf("failed to insert image %s: %w", img.Ref.RemoteURL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = id
	return id, nil
}

// RunSummary is one row of the runs table, without the full run document.
type RunSummary struct {
	ID         int64     `json:"id"`
	RootDir    string    `json:"root_dir"`
	ImageRoot  string    `json:"image_root"`
	HostPrefix string    `json:"host_prefix"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Pages      int       `json:"pages"`
	Images     int       `json:"images"`
	Downloaded int       `json:"downloaded"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

// ListRuns returns the most recent runs first. A non-positive limit
// returns all runs.
func (mdb *ManifestDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, root_dir, image_root, host_prefix, started_at, finished_at,
		pages, images, downloaded, failed, error
	FROM runs
	ORDER BY id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := mdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var s RunSummary
		var started string
		var finished, runErr sql.NullString

		if err := rows.Scan(
			&s.ID,
			&s.RootDir,
			&s.ImageRoot,
			&s.HostPrefix,
			&started,
			&finished,
			&s.Pages,
			&s.Images,
			&s.Downloaded,
			&s.Failed,
			&runErr,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		s.StartedAt = parseTimestamp(started)
		s.FinishedAt = parseTimestamp(finished.String)
		s.Error = runErr.String
		runs = append(runs, s)
	}

	return runs, rows.Err()
}

// GetRun returns the full run document stored for id.
func (mdb *ManifestDB) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	var runJSON string
	err := mdb.db.QueryRowContext(ctx, "SELECT run_json FROM runs WHERE id = ?", id).Scan(&runJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run model.Run
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	run.ID = id

	return &run, nil
}

// ImageRecord is one row of the images table.
type ImageRecord struct {
	ID          int64              `json:"id"`
	RunID       int64              `json:"run_id"`
	PagePath    string             `json:"page_path"`
	PageKey     string             `json:"page_key"`
	RemoteURL   string             `json:"remote_url"`
	Src         string             `json:"src"`
	LocalPath   string             `json:"local_path"`
	Outcome     model.FetchOutcome `json:"outcome"`
	StatusCode  int                `json:"status_code,omitempty"`
	Bytes       int64              `json:"bytes"`
	Error       string             `json:"error,omitempty"`
	Format      string             `json:"format,omitempty"`
	Width       int                `json:"width,omitempty"`
	Height      int                `json:"height,omitempty"`
	MaxSeverity string             `json:"max_severity,omitempty"`
}

// ListImages returns the image attempts of a run in insertion order.
func (mdb *ManifestDB) ListImages(ctx context.Context, runID int64) ([]ImageRecord, error) {
	rows, err := mdb.db.QueryContext(ctx, `
	SELECT id, run_id, page_path, page_key, remote_url, src, local_path,
		outcome, status_code, bytes, error, format, width, height, max_severity
	FROM images
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	images := make([]ImageRecord, 0)
	for rows.Next() {
		var rec ImageRecord
		var outcome string
		var status, width, height sql.NullInt64
		var imgErr, format, severity sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.PagePath,
			&rec.PageKey,
			&rec.RemoteURL,
			&rec.Src,
			&rec.LocalPath,
			&outcome,
			&status,
			&rec.Bytes,
			&imgErr,
			&format,
			&width,
			&height,
			&severity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}

		rec.Outcome = model.FetchOutcome(outcome)
		rec.StatusCode = int(status.Int64)
		rec.Error = imgErr.String
		rec.Format = format.String
		rec.Width = int(width.Int64)
		rec.Height = int(height.Int64)
		rec.MaxSeverity = severity.String
		images = append(images, rec)
	}

	return images, rows.Err()
}

// DeleteRun removes a run and its image rows.
func (mdb *ManifestDB) DeleteRun(ctx context.Context, id int64) error {
	tx, err := mdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM images WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}

	return tx.Commit()
}

// formatTimestamp stores times as RFC 3339 text in UTC. The zero time is
// stored as an empty string.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // written by formatTimestamp
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
