package main

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/imgmirror/internal/config"
	"github.com/nao1215/imgmirror/internal/database"
	"github.com/nao1215/imgmirror/internal/model"
)

// seedHistory stores two runs in a new manifest database and returns its
// directory.
func seedHistory(t *testing.T) string {
	t.Helper()

	dbDir := t.TempDir()
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	const prefix = "https://static.wixstatic.com/media/"
	for _, root := range []string{"site-one", "site-two"} {
		run := model.NewRun(root, "assets/images", prefix)
		page := model.NewPageResult(filepath.Join(root, "index.html"))
		page.ImageTags = 2
		page.Images = []model.ImageResult{
			{
				Ref:     model.NewImageRef(root, "assets/images", "index", prefix+"a.jpg"),
				Outcome: model.OutcomeDownloaded,
				Bytes:   10,
			},
			{
				Ref:        model.NewImageRef(root, "assets/images", "index", prefix+"gone.jpg"),
				Outcome:    model.OutcomeHTTPStatus,
				StatusCode: 404,
			},
		}
		run.AddPage(page)
		run.Finish(nil)

		if _, err := db.SaveRun(context.Background(), run); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	return dbDir
}

// TestHistoryCmd_List tests listing recorded runs.
func TestHistoryCmd_List(t *testing.T) {
	t.Parallel()

	dbDir := seedHistory(t)

	t.Run("table", func(t *testing.T) {
		t.Parallel()

		out, _, err := runCLI(t, "history", "--list", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Recorded runs (2)") {
			t.Errorf("expected two runs, got:\n%s", out)
		}
		if strings.Index(out, "site-two") > strings.Index(out, "site-one") {
			t.Errorf("expected most recent run first, got:\n%s", out)
		}
	})

	t.Run("default action is list", func(t *testing.T) {
		t.Parallel()

		out, _, err := runCLI(t, "history", "--db-dir", dbDir, "--limit", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Recorded runs (1)") || !strings.Contains(out, "site-two") {
			t.Errorf("expected only the latest run, got:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		out, _, err := runCLI(t, "history", "--db-dir", dbDir, "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var runs []database.RunSummary
		if err := json.Unmarshal([]byte(out), &runs); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(runs) != 2 || runs[0].Downloaded != 1 || runs[0].Failed != 1 {
			t.Errorf("runs = %+v", runs)
		}
	})
}

// TestHistoryCmd_Show tests showing a single run.
func TestHistoryCmd_Show(t *testing.T) {
	t.Parallel()

	dbDir := seedHistory(t)

	t.Run("text report", func(t *testing.T) {
		t.Parallel()

		out, _, err := runCLI(t, "history", "--db-dir", dbDir, "--run-id", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Run:         #1", "site-one", "gone.jpg"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
		if strings.Contains(out, "a.jpg ->") {
			t.Errorf("downloaded images are listed only with --verbose, got:\n%s", out)
		}
	})

	t.Run("verbose text report lists every image", func(t *testing.T) {
		t.Parallel()

		out, _, err := runCLI(t, "history", "-v", "--db-dir", dbDir, "--run-id", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "a.jpg ->") {
			t.Errorf("expected downloaded image in verbose output, got:\n%s", out)
		}
	})

	t.Run("markdown report", func(t *testing.T) {
		t.Parallel()

		out, _, err := runCLI(t, "history", "--db-dir", dbDir, "--run-id", "2", "--markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "# imgmirror Report") {
			t.Errorf("expected Markdown report, got:\n%s", out)
		}
	})

	t.Run("images as json", func(t *testing.T) {
		t.Parallel()

		out, _, err := runCLI(t, "history", "--db-dir", dbDir, "--run-id", "2", "--images", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var images []database.ImageRecord
		if err := json.Unmarshal([]byte(out), &images); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(images) != 2 {
			t.Fatalf("expected 2 images, got %d", len(images))
		}
		if images[0].Src != "assets/images/index/a.jpg" || images[1].StatusCode != 404 {
			t.Errorf("images = %+v", images)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		_, _, err := runCLI(t, "history", "--db-dir", dbDir, "--run-id", "99")
		if !errors.Is(err, database.ErrRunNotFound) {
			t.Errorf("error = %v, want ErrRunNotFound", err)
		}
	})
}

// TestHistoryCmd_Delete tests deleting a run.
func TestHistoryCmd_Delete(t *testing.T) {
	t.Parallel()

	dbDir := seedHistory(t)

	out, _, err := runCLI(t, "history", "--db-dir", dbDir, "--delete", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Deleted run #1") {
		t.Errorf("unexpected output: %q", out)
	}

	out, _, err = runCLI(t, "history", "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Recorded runs (1)") || strings.Contains(out, "site-one") {
		t.Errorf("expected only site-two to remain, got:\n%s", out)
	}

	_, _, err = runCLI(t, "history", "--db-dir", dbDir, "--delete", "1")
	if !errors.Is(err, database.ErrRunNotFound) {
		t.Errorf("error = %v, want ErrRunNotFound", err)
	}
}

// TestHistoryCmd_Errors tests invalid invocations and a missing database.
func TestHistoryCmd_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "none")
		out, _, err := runCLI(t, "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, noRunsMessage) {
			t.Errorf("expected %q, got %q", noRunsMessage, out)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()

		_, _, err := runCLI(t, "history", "--db-dir", t.TempDir(), "--json", "--markdown")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("error = %v, want ErrConflictingReportFormats", err)
		}
	})

	t.Run("images without run id", func(t *testing.T) {
		t.Parallel()

		if _, _, err := runCLI(t, "history", "--db-dir", t.TempDir(), "--images"); err == nil {
			t.Error("expected error for --images without --run-id")
		}
	})
}
