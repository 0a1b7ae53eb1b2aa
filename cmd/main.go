package main

import (
	"context"
	"os"

	"github.com/tunemerge/tunemerge/internal/services"
	"github.com/tunemerge/tunemerge/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	providers := map[string]services.Service{
		"spotify": services.NewSpotifyService(services.SpotifyOpts{
			PaginateSource: config.Sync.PaginateSource,
		}),
		"youtube": services.NewYouTubeService(services.YouTubeOpts{
			PaginateSource: config.Sync.PaginateSource,
		}),
	}

	exchangers := map[string]*services.ProviderExchanger{}
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		exchangers["spotify"] = services.NewSpotifyExchanger(config.Credentials.Spotify)
	}
	if config.Credentials.YouTube.ClientID != "" && config.Credentials.YouTube.ClientSecret != "" {
		exchangers["youtube"] = services.NewYouTubeExchanger(config.Credentials.YouTube)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Providers:  providers,
		Exchangers: exchangers,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "tunemerge",
		Usage:    "Sync playlists between Spotify & YouTube",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
