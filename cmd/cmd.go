// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func providerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "provider",
		Aliases:  []string{"p"},
		Usage:    "Provider name (spotify or youtube)",
		Required: true,
	}
}

// setupCommand handles database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file, initialize the database, and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles credential operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage provider authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize a provider via OAuth in the browser",
				Flags: []cli.Flag{
					providerFlag(),
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the OAuth callback",
						Value: defaultCallbackWait,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show stored credentials and their expiry",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove a provider's stored credential",
				Flags:  []cli.Flag{providerFlag()},
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand handles read-only playlist operations
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Browse and export provider playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the authenticated user's playlists",
				Flags: []cli.Flag{
					providerFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "tracks",
				Usage: "List the entries of a playlist",
				Flags: []cli.Flag{
					providerFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistsTracks,
			},
			{
				Name:  "export",
				Usage: "Export a playlist to CSV with a metadata sidecar",
				Flags: []cli.Flag{
					providerFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Base path for the output files",
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// syncCommand handles playlist sync operations
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync playlists between providers",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Copy a playlist from one provider to the other",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "from",
						Usage:    "Source provider (spotify or youtube)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Target provider (spotify or youtube)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "playlist",
						Usage:    "Source playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write the report to a file (csv, markdown, json, or text)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Report file path",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:  "compare",
				Usage: "Diff two playlists across providers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source-id",
						Usage:    "Source playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "target-id",
						Usage:    "Target playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source-provider",
						Usage: "Source provider (spotify or youtube)",
						Value: "spotify",
					},
					&cli.StringFlag{
						Name:  "target-provider",
						Usage: "Target provider (spotify or youtube)",
						Value: "youtube",
					},
				},
				Action: r.SyncCompare,
			},
			{
				Name:  "report",
				Usage: "Re-render the most recent sync run's report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Report format (csv, markdown, json, or text)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.SyncReport,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist syncing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for playlist syncing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "Source provider (spotify or youtube)",
				Value: "spotify",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Target provider (spotify or youtube)",
				Value: "youtube",
			},
		},
		Action: r.TUI,
	}
}
