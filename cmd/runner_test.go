package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/repositories"
	"github.com/tunemerge/tunemerge/internal/services"
	"github.com/tunemerge/tunemerge/internal/shared"
	"github.com/tunemerge/tunemerge/internal/tasks"
	tu "github.com/tunemerge/tunemerge/internal/testing"
	"github.com/urfave/cli/v3"
)

// fakeEngine is a canned-response tasks.SyncEngine for command tests.
type fakeEngine struct {
	report  *models.SyncReport
	compare *tasks.CompareResult
	err     error
}

func (f *fakeEngine) SyncPlaylist(ctx context.Context, progress chan<- tasks.ProgressUpdate, userID, sourcePlaylistID, sourceProvider, targetProvider string) (*models.SyncReport, error) {
	return f.report, f.err
}

func (f *fakeEngine) Compare(ctx context.Context, progress chan<- tasks.ProgressUpdate, userID, sourceProvider, sourcePlaylistID, targetProvider, targetPlaylistID string) (*tasks.CompareResult, error) {
	return f.compare, f.err
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func runApp(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name:     "tunemerge",
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"tunemerge"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			spotify := &tu.MockService{Provider: "spotify"}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Providers:  map[string]services.Service{"spotify": spotify},
				UserID:     "alice",
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.userID != "alice" {
				t.Errorf("expected userID alice, got %s", runner.userID)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with empty userID uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.userID != "default" {
				t.Errorf("expected default userID, got %s", runner.userID)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), `"key": "value"`) {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("propagates writer failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected error from failing writer")
			}
		})
	})

	t.Run("writePlainHeader", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.writePlainHeader("Title")
		if !strings.Contains(output.String(), "Title") {
			t.Error("expected title in header")
		}
	})

	t.Run("resolveProvider", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{
			Providers: map[string]services.Service{"spotify": &tu.MockService{Provider: "spotify"}},
		})

		if _, err := runner.resolveProvider("spotify"); err != nil {
			t.Errorf("expected spotify to resolve, got %v", err)
		}
		if _, err := runner.resolveProvider("tidal"); !errors.Is(err, shared.ErrUnknownProvider) {
			t.Errorf("expected ErrUnknownProvider, got %v", err)
		}
	})

	t.Run("exchanger", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		if _, err := runner.exchanger("spotify"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestSyncRunCommand(t *testing.T) {
	report := &models.SyncReport{
		SourceName:       "Road Trip",
		TargetPlaylistID: "yt-playlist-1",
		Matched: []models.CandidateMatch{
			{ProviderTrackID: "y1", Name: "Nightcall", Artist: "Kavinsky", Similarity: 0.92},
		},
		Unmatched: []string{"Nobody Ever - Obscure B-Side"},
	}

	t.Run("records a completed run", func(t *testing.T) {
		db := newTestDB(t)
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Output: output,
			DB:     db,
			Engine: &fakeEngine{report: report},
		})

		err := runApp(t, runner, "sync", "run", "--from", "spotify", "--to", "youtube", "--playlist", "pl-1")
		if err != nil {
			t.Fatalf("expected run to succeed, got %v", err)
		}

		if !strings.Contains(output.String(), "Sync Complete!") {
			t.Error("expected completion banner")
		}
		if !strings.Contains(output.String(), "Matched: 1/2") {
			t.Errorf("expected match summary, got:\n%s", output.String())
		}

		run, err := repositories.NewSyncRunRepository(db).Latest("default")
		if err != nil {
			t.Fatalf("failed to load run: %v", err)
		}
		if run == nil {
			t.Fatal("expected a recorded sync run")
		}
		if run.Status() != models.RunStatusCompleted {
			t.Errorf("expected completed status, got %s", run.Status())
		}
		if run.TargetPlaylistID() != "yt-playlist-1" {
			t.Errorf("unexpected target playlist %s", run.TargetPlaylistID())
		}
		if run.TracksMatched() != 1 || run.TracksFailed() != 1 {
			t.Errorf("unexpected counts %d/%d", run.TracksMatched(), run.TracksFailed())
		}
	})

	t.Run("records a failed run", func(t *testing.T) {
		db := newTestDB(t)
		runner := NewRunner(RunnerOpts{
			Output: &bytes.Buffer{},
			DB:     db,
			Engine: &fakeEngine{err: shared.ErrExportFailed},
		})

		err := runApp(t, runner, "sync", "run", "--from", "spotify", "--to", "youtube", "--playlist", "pl-1")
		if !errors.Is(err, shared.ErrExportFailed) {
			t.Fatalf("expected ErrExportFailed, got %v", err)
		}

		run, err := repositories.NewSyncRunRepository(db).Latest("default")
		if err != nil {
			t.Fatalf("failed to load run: %v", err)
		}
		if run == nil || run.Status() != models.RunStatusFailed {
			t.Fatalf("expected a failed run record, got %+v", run)
		}
		if run.ErrorMessage() == "" {
			t.Error("expected the failure message to be recorded")
		}
	})
}

func TestSyncReportCommand(t *testing.T) {
	seedRun := func(t *testing.T, db *sql.DB, report *models.SyncReport) {
		t.Helper()
		runs := repositories.NewSyncRunRepository(db)
		sequence, err := repositories.NextSequence(db, "sync_runs")
		if err != nil {
			t.Fatalf("failed to allocate sequence: %v", err)
		}
		run := models.NewStoredSyncRun(sequence, "default", "spotify", "pl-1", "youtube")
		reportJSON, err := shared.MarshalJSON(report, false)
		if err != nil {
			t.Fatalf("failed to marshal report: %v", err)
		}
		total := len(report.Matched) + len(report.Unmatched)
		run.Complete(report.TargetPlaylistID, string(reportJSON), total, len(report.Matched), len(report.Unmatched))
		if err := runs.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
	}

	t.Run("renders the stored report", func(t *testing.T) {
		db := newTestDB(t)
		seedRun(t, db, &models.SyncReport{
			SourceName:       "Road Trip",
			TargetPlaylistID: "yt-1",
			Matched: []models.CandidateMatch{
				{ProviderTrackID: "y1", Name: "Nightcall", Artist: "Kavinsky", Similarity: 0.92},
			},
			Unmatched: []string{"Nobody Ever - Obscure B-Side"},
		})

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, DB: db})

		if err := runApp(t, runner, "sync", "report", "--format", "text"); err != nil {
			t.Fatalf("expected report to render, got %v", err)
		}
		if !strings.Contains(output.String(), "Matched: 1") {
			t.Errorf("expected match count, got:\n%s", output.String())
		}
		if !strings.Contains(output.String(), "✗ 1. Nobody Ever - Obscure B-Side") {
			t.Errorf("expected unmatched line, got:\n%s", output.String())
		}
	})

	t.Run("reports when no runs exist", func(t *testing.T) {
		db := newTestDB(t)
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, DB: db})

		if err := runApp(t, runner, "sync", "report"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "No sync runs recorded") {
			t.Errorf("expected empty-history message, got:\n%s", output.String())
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		db := newTestDB(t)
		seedRun(t, db, &models.SyncReport{Matched: []models.CandidateMatch{}, Unmatched: []string{}})
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, DB: db})

		err := runApp(t, runner, "sync", "report", "--format", "yaml")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}
