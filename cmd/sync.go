package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tunemerge/tunemerge/internal/formatter"
	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/repositories"
	"github.com/tunemerge/tunemerge/internal/shared"
	"github.com/tunemerge/tunemerge/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun copies a playlist from one provider to the other, recording the
// run so 'sync report' can re-render it later.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	sourceProvider := cmd.String("from")
	targetProvider := cmd.String("to")
	playlistID := cmd.String("playlist")
	reportFormat := cmd.String("report")
	reportPath := cmd.String("output")

	engine, err := r.syncEngine()
	if err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return err
	}

	runs := repositories.NewSyncRunRepository(db)
	sequence, err := repositories.NextSequence(db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to allocate run sequence: %w", err)
	}
	run := models.NewStoredSyncRun(sequence, r.userID, sourceProvider, playlistID, targetProvider)
	if err := runs.Create(run); err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}

	r.logger.Info("starting sync", "from", sourceProvider, "to", targetProvider, "playlist", playlistID)
	r.writePlain("Starting playlist sync...\n")
	r.writePlain("Source: %s (%s)\n", playlistID, sourceProvider)
	r.writePlain("Target: %s\n\n", targetProvider)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.MatchTracks:
				if update.Step == 1 {
					r.writePlain("\n🔍 Matching tracks...\n")
				}
				r.writePlain("   %s\n", update.Message)
			case tasks.CreateTarget:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.AddTracks:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	report, err := engine.SyncPlaylist(ctx, progressCh, r.userID, playlistID, sourceProvider, targetProvider)
	close(progressCh)
	<-done

	if err != nil {
		run.Fail(err.Error())
		if updateErr := runs.Update(run); updateErr != nil {
			r.logger.Warn("failed to record sync failure", "error", updateErr)
		}
		return err
	}

	total := len(report.Matched) + len(report.Unmatched)
	reportJSON, marshalErr := shared.MarshalJSON(report, false)
	if marshalErr != nil {
		r.logger.Warn("failed to serialize report", "error", marshalErr)
	}
	run.Complete(report.TargetPlaylistID, string(reportJSON), total, len(report.Matched), len(report.Unmatched))
	if err := runs.Update(run); err != nil {
		r.logger.Warn("failed to record sync completion", "error", err)
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete!")
	r.writePlain("Source: %s (%d tracks)\n", report.SourceName, total)
	r.writePlain("Target playlist: %s\n", report.TargetPlaylistID)
	if total > 0 {
		r.writePlain("Matched: %d/%d (%.1f%%)\n", len(report.Matched), total, float64(len(report.Matched))/float64(total)*100)
	}

	if len(report.Unmatched) > 0 {
		r.writePlain("\nUnmatched tracks:\n")
		for _, entry := range report.Unmatched {
			r.writePlain("  - %s\n", entry)
		}
	}

	if reportFormat != "" {
		written, err := formatter.WriteReport(report, reportFormat, reportPath)
		if err != nil {
			return err
		}
		r.writePlain("\nReport written to %s\n", written)
	}

	return nil
}

// SyncCompare diffs two playlists across providers.
func (r *Runner) SyncCompare(ctx context.Context, cmd *cli.Command) error {
	sourceProvider := cmd.String("source-provider")
	targetProvider := cmd.String("target-provider")
	sourceID := cmd.String("source-id")
	targetID := cmd.String("target-id")

	engine, err := r.syncEngine()
	if err != nil {
		return err
	}

	r.logger.Info("comparing playlists", "source", sourceID, "target", targetID)
	r.writePlain("Comparing playlists...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("📥 %s\n", update.Message)
		}
	}()

	result, err := engine.Compare(ctx, progressCh, r.userID, sourceProvider, sourceID, targetProvider, targetID)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n✓ Source: %s\n", result.SourcePlaylist.Name)
	r.writePlain("✓ Target: %s\n\n", result.TargetPlaylist.Name)

	r.writePlainHeader("Comparison Results")
	r.writePlain("Matched: %d tracks\n", result.MatchedCount)
	r.writePlain("Missing from target: %d tracks\n", len(result.MissingInDest))
	r.writePlain("Extra in target: %d tracks\n\n", len(result.ExtraInDest))

	if len(result.MissingInDest) > 0 {
		r.writePlain("Missing from target:\n")
		for i, entry := range result.MissingInDest {
			r.writePlain("  %d. %s\n", i+1, entryLine(entry))
		}
		r.writePlain("\n")
	}

	if len(result.ExtraInDest) > 0 {
		r.writePlain("Extra in target (not in source):\n")
		for i, entry := range result.ExtraInDest {
			r.writePlain("  %d. %s\n", i+1, entryLine(entry))
		}
	}

	return nil
}

func entryLine(entry models.PlaylistEntry) string {
	if entry.Artist != "" {
		return entry.Artist + " - " + entry.Title
	}
	return entry.Title
}

// SyncReport re-renders the most recent sync run from its stored report.
func (r *Runner) SyncReport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	db, err := r.database()
	if err != nil {
		return err
	}

	run, err := repositories.NewSyncRunRepository(db).Latest(r.userID)
	if err != nil {
		return fmt.Errorf("failed to load sync history: %w", err)
	}
	if run == nil {
		return r.writePlain("No sync runs recorded. Run 'tunemerge sync run' first.\n")
	}

	if run.Status() == models.RunStatusFailed {
		r.writePlain("Last run failed: %s\n", run.ErrorMessage())
		return nil
	}
	if run.ReportJSON() == "" {
		return fmt.Errorf("%w: last run has no stored report", shared.ErrInvalidInput)
	}

	var report models.SyncReport
	if err := json.Unmarshal([]byte(run.ReportJSON()), &report); err != nil {
		return fmt.Errorf("failed to parse stored report: %w", err)
	}

	if output != "" {
		written, err := formatter.WriteReport(&report, format, output)
		if err != nil {
			return err
		}
		return r.writePlain("Report written to %s\n", written)
	}

	var rendered []byte
	switch format {
	case "csv":
		rendered, err = formatter.ReportToCSV(&report)
	case "markdown", "md":
		rendered, err = formatter.ReportToMarkdown(&report, report.SourceName)
	case "json":
		rendered, err = formatter.ReportToJSON(&report)
	case "text", "":
		rendered, err = formatter.ReportToText(&report)
	default:
		return fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return err
	}

	if _, err := r.output.Write(rendered); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
