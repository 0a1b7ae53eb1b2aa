package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/tunemerge/tunemerge/internal/models"
	"github.com/tunemerge/tunemerge/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func testCredential(userID, provider string) *models.Credential {
	return &models.Credential{
		UserID:       userID,
		Provider:     provider,
		AccessToken:  "access-" + provider,
		RefreshToken: "refresh-" + provider,
		ExpiresAt:    time.Now().Add(time.Hour).UTC(),
	}
}

func TestCredentialRepository(t *testing.T) {
	t.Run("Load returns nil for missing record", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		cred, err := repo.Load("nobody", "spotify")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cred != nil {
			t.Errorf("expected nil credential, got %+v", cred)
		}
	})

	t.Run("Save then Load round-trips", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		cred := testCredential("user-1", "spotify")

		if err := repo.Save(cred); err != nil {
			t.Fatalf("failed to save credential: %v", err)
		}

		loaded, err := repo.Load("user-1", "spotify")
		if err != nil {
			t.Fatalf("failed to load credential: %v", err)
		}
		if loaded == nil {
			t.Fatal("expected credential, got nil")
		}
		if loaded.AccessToken != cred.AccessToken || loaded.RefreshToken != cred.RefreshToken {
			t.Errorf("unexpected tokens %+v", loaded)
		}
	})

	t.Run("Save upserts on (user, provider)", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		if err := repo.Save(testCredential("user-1", "spotify")); err != nil {
			t.Fatalf("failed to save credential: %v", err)
		}

		updated := testCredential("user-1", "spotify")
		updated.AccessToken = "rotated-access"
		if err := repo.Save(updated); err != nil {
			t.Fatalf("failed to upsert credential: %v", err)
		}

		loaded, err := repo.Load("user-1", "spotify")
		if err != nil {
			t.Fatalf("failed to load credential: %v", err)
		}
		if loaded.AccessToken != "rotated-access" {
			t.Errorf("expected updated access token, got %s", loaded.AccessToken)
		}

		var count int
		db := repo.db
		if err := db.QueryRow("SELECT COUNT(*) FROM credentials WHERE user_id = ? AND provider = ?", "user-1", "spotify").Scan(&count); err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 row after upsert, got %d", count)
		}
	})

	t.Run("credentials are isolated per provider", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		if err := repo.Save(testCredential("user-1", "spotify")); err != nil {
			t.Fatalf("failed to save spotify credential: %v", err)
		}
		if err := repo.Save(testCredential("user-1", "youtube")); err != nil {
			t.Fatalf("failed to save youtube credential: %v", err)
		}

		spotify, err := repo.Load("user-1", "spotify")
		if err != nil || spotify == nil {
			t.Fatalf("failed to load spotify credential: %v", err)
		}
		if spotify.AccessToken != "access-spotify" {
			t.Errorf("expected spotify token, got %s", spotify.AccessToken)
		}

		providers, err := repo.ListProviders("user-1")
		if err != nil {
			t.Fatalf("failed to list providers: %v", err)
		}
		if len(providers) != 2 {
			t.Errorf("expected 2 providers, got %v", providers)
		}
	})

	t.Run("Delete soft-deletes the record", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		if err := repo.Save(testCredential("user-1", "spotify")); err != nil {
			t.Fatalf("failed to save credential: %v", err)
		}
		if err := repo.Delete("user-1", "spotify"); err != nil {
			t.Fatalf("failed to delete credential: %v", err)
		}

		cred, err := repo.Load("user-1", "spotify")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cred != nil {
			t.Errorf("expected nil after delete, got %+v", cred)
		}

		// A fresh save revives the key
		if err := repo.Save(testCredential("user-1", "spotify")); err != nil {
			t.Fatalf("failed to re-save credential: %v", err)
		}
		if cred, _ := repo.Load("user-1", "spotify"); cred == nil {
			t.Error("expected credential after re-save")
		}
	})
}

func TestPlaylistRepository(t *testing.T) {
	dto := models.Playlist{ID: "PL1", Name: "Road Trip", Description: "Driving songs", TrackCount: 12, Public: true}

	t.Run("Create and Get", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		playlist := models.NewStoredPlaylist(0, "user-1", "spotify", "PL1", dto)

		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if playlist.ID() == "" {
			t.Error("playlist ID should be set after creation")
		}

		retrieved, err := repo.Get(playlist.ID())
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if retrieved.Name() != "Road Trip" || retrieved.TrackCount() != 12 {
			t.Errorf("unexpected playlist %+v", retrieved.Playlist())
		}
	})

	t.Run("GetByProviderID", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		if err := repo.Create(models.NewStoredPlaylist(0, "user-1", "spotify", "PL1", dto)); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		retrieved, err := repo.GetByProviderID("spotify", "PL1")
		if err != nil {
			t.Fatalf("failed to get playlist by provider id: %v", err)
		}
		if retrieved.ProviderPlaylistID() != "PL1" {
			t.Errorf("expected provider playlist id PL1, got %s", retrieved.ProviderPlaylistID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		playlist := models.NewStoredPlaylist(0, "user-1", "spotify", "PL1", dto)
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		playlist.SetName("Road Trip 2")
		playlist.SetTrackCount(15)
		if err := repo.Update(playlist); err != nil {
			t.Fatalf("failed to update playlist: %v", err)
		}

		retrieved, err := repo.Get(playlist.ID())
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if retrieved.Name() != "Road Trip 2" || retrieved.TrackCount() != 15 {
			t.Errorf("unexpected playlist after update %+v", retrieved.Playlist())
		}
	})

	t.Run("Delete and List", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))

		first := models.NewStoredPlaylist(0, "user-1", "spotify", "PL1", dto)
		second := models.NewStoredPlaylist(0, "user-1", "youtube", "PLyt", dto)
		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create first playlist: %v", err)
		}
		if err := repo.Create(second); err != nil {
			t.Fatalf("failed to create second playlist: %v", err)
		}

		if err := repo.Delete(first.ID()); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}

		remaining, err := repo.List(map[string]any{"user_id": "user-1"})
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(remaining) != 1 || remaining[0].Provider() != "youtube" {
			t.Errorf("expected only youtube playlist, got %d entries", len(remaining))
		}

		byProvider, err := repo.List(map[string]any{"provider": "youtube"})
		if err != nil {
			t.Fatalf("failed to list by provider: %v", err)
		}
		if len(byProvider) != 1 {
			t.Errorf("expected 1 youtube playlist, got %d", len(byProvider))
		}
	})
}

func TestTrackRepository(t *testing.T) {
	t.Run("Create and GetByProviderID", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := models.NewStoredTrack(0, "youtube", "vid1", "Nightcall", "Kavinsky", "OutRun", 258)

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		retrieved, err := repo.GetByProviderID("youtube", "vid1")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if retrieved.Title() != "Nightcall" || retrieved.Artist() != "Kavinsky" {
			t.Errorf("unexpected track %s by %s", retrieved.Title(), retrieved.Artist())
		}
	})

	t.Run("duplicate provider track id rejected", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		if err := repo.Create(models.NewStoredTrack(0, "youtube", "vid1", "Nightcall", "Kavinsky", "", 0)); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		err := repo.Create(models.NewStoredTrack(0, "youtube", "vid1", "Nightcall", "Kavinsky", "", 0))
		if err == nil {
			t.Fatal("expected UNIQUE constraint error for duplicate track")
		}
	})

	t.Run("List filters by provider", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		if err := repo.Create(models.NewStoredTrack(0, "youtube", "vid1", "Nightcall", "Kavinsky", "", 0)); err != nil {
			t.Fatalf("failed to create youtube track: %v", err)
		}
		if err := repo.Create(models.NewStoredTrack(0, "spotify", "t1", "Nightcall", "Kavinsky", "", 0)); err != nil {
			t.Fatalf("failed to create spotify track: %v", err)
		}

		tracks, err := repo.List(map[string]any{"provider": "spotify"})
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 1 || tracks[0].Provider() != "spotify" {
			t.Errorf("expected 1 spotify track, got %d", len(tracks))
		}
	})
}

func TestTrackCacheAdapter(t *testing.T) {
	db := setupTestDB(t)
	adapter := NewTrackCacheAdapter(NewTrackRepository(db))

	match := models.CandidateMatch{ProviderTrackID: "vid1", Name: "Nightcall", Artist: "Kavinsky", Similarity: 0.95}

	if err := adapter.CacheMatch("youtube", match); err != nil {
		t.Fatalf("failed to cache match: %v", err)
	}

	// Second write for the same track is a silent no-op
	if err := adapter.CacheMatch("youtube", match); err != nil {
		t.Fatalf("expected duplicate cache write to succeed, got %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count); err != nil {
		t.Fatalf("failed to count tracks: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 cached track, got %d", count)
	}
}

func TestSyncRunRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))
		run := models.NewStoredSyncRun(0, "user-1", "spotify", "PL1", "youtube")

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get sync run: %v", err)
		}
		if retrieved.Status() != models.RunStatusRunning {
			t.Errorf("expected running status, got %s", retrieved.Status())
		}
		if retrieved.SourceProvider() != "spotify" || retrieved.TargetProvider() != "youtube" {
			t.Errorf("unexpected providers %s → %s", retrieved.SourceProvider(), retrieved.TargetProvider())
		}
	})

	t.Run("Complete round-trips report JSON", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))
		run := models.NewStoredSyncRun(0, "user-1", "spotify", "PL1", "youtube")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		run.Complete("PLnew", `{"matched":[],"unmatched":["a"]}`, 3, 2, 1)
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update sync run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get sync run: %v", err)
		}
		if retrieved.Status() != models.RunStatusCompleted {
			t.Errorf("expected completed status, got %s", retrieved.Status())
		}
		if retrieved.TargetPlaylistID() != "PLnew" {
			t.Errorf("expected target playlist PLnew, got %s", retrieved.TargetPlaylistID())
		}
		if retrieved.TracksTotal() != 3 || retrieved.TracksMatched() != 2 || retrieved.TracksFailed() != 1 {
			t.Errorf("unexpected counts %d/%d/%d", retrieved.TracksTotal(), retrieved.TracksMatched(), retrieved.TracksFailed())
		}
		if retrieved.ReportJSON() == "" {
			t.Error("expected report json to round-trip")
		}
		if retrieved.CompletedAt() == nil {
			t.Error("expected completed_at to be set")
		}
	})

	t.Run("Latest returns most recent run", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))

		first := models.NewStoredSyncRun(0, "user-1", "spotify", "PL1", "youtube")
		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create first run: %v", err)
		}
		second := models.NewStoredSyncRun(0, "user-1", "youtube", "PLyt", "spotify")
		if err := repo.Create(second); err != nil {
			t.Fatalf("failed to create second run: %v", err)
		}

		latest, err := repo.Latest("user-1")
		if err != nil {
			t.Fatalf("failed to get latest run: %v", err)
		}
		if latest == nil || latest.ID() != second.ID() {
			t.Error("expected the second run to be latest")
		}

		none, err := repo.Latest("somebody-else")
		if err != nil {
			t.Fatalf("expected no error for user without runs, got %v", err)
		}
		if none != nil {
			t.Errorf("expected nil for user without runs, got %+v", none)
		}
	})

	t.Run("failed run stores error message", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))
		run := models.NewStoredSyncRun(0, "user-1", "spotify", "PL1", "youtube")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		run.Fail("playlist export failed: quota exceeded")
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update sync run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get sync run: %v", err)
		}
		if retrieved.Status() != models.RunStatusFailed {
			t.Errorf("expected failed status, got %s", retrieved.Status())
		}
		if retrieved.ErrorMessage() == "" {
			t.Error("expected error message to persist")
		}
	})

	t.Run("List filters by status", func(t *testing.T) {
		repo := NewSyncRunRepository(setupTestDB(t))

		running := models.NewStoredSyncRun(0, "user-1", "spotify", "PL1", "youtube")
		if err := repo.Create(running); err != nil {
			t.Fatalf("failed to create running run: %v", err)
		}

		failed := models.NewStoredSyncRun(0, "user-1", "spotify", "PL2", "youtube")
		if err := repo.Create(failed); err != nil {
			t.Fatalf("failed to create second run: %v", err)
		}
		failed.Fail("boom")
		if err := repo.Update(failed); err != nil {
			t.Fatalf("failed to update second run: %v", err)
		}

		runs, err := repo.List(map[string]any{"user_id": "user-1", "status": models.RunStatusFailed})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 || runs[0].ID() != failed.ID() {
			t.Errorf("expected only the failed run, got %d entries", len(runs))
		}
	})
}
