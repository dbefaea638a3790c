// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles Spotify authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Spotify using OAuth2 (PKCE)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Action: r.AuthStatus,
			},
			{
				Name:  "logout",
				Usage: "Discard stored tokens",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand lists the user's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List your Spotify playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to return",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Playlists,
	}
}

// gameCommand handles game sessions
func gameCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "game",
		Usage: "Play or simulate a game",
		Commands: []*cli.Command{
			{
				Name:    "tui",
				Aliases: []string{"play", "ui"},
				Usage:   "Launch the interactive game",
				Action:  r.GameTUI,
			},
			{
				Name:  "simulate",
				Usage: "Run a non-interactive game with scripted guesses",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to build the deck from",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "players",
						Usage: "Number of simulated players",
						Value: 2,
					},
					&cli.IntFlag{
						Name:  "turns",
						Usage: "Maximum turns to play (0 = until game over)",
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "Write final standings to this file",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv, markdown, txt)",
						Value: "txt",
					},
				},
				Action: r.GameSimulate,
			},
		},
	}
}

// cacheCommand inspects and clears the local track cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local track cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cached playlist and track counts",
				Action: r.CacheStats,
			},
			{
				Name:  "clear",
				Usage: "Remove cached tracks for a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to clear",
						Required: true,
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// exportCommand dumps cached decks for inspection
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a cached playlist deck as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID to export",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (defaults to stdout)",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.ExportDeck,
	}
}
