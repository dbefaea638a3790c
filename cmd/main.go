package main

import (
	"context"
	"os"

	"github.com/desertthunder/tuneline/internal/services"
	"github.com/desertthunder/tuneline/internal/shared"
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

	var spotifyService *services.SpotifyService
	if config.Credentials.Spotify.ClientID != "" {
		if svc, err := services.NewSpotifyService(
			config.Credentials.Spotify.ClientID,
			config.Credentials.Spotify.RedirectURI,
		); err == nil {
			spotifyService = svc
			if config.Credentials.Spotify.AccessToken != "" {
				if err := svc.OAuthenticate(context.Background(), config.Credentials.Spotify.Token()); err != nil {
					logger.Warn("stored token rejected, run 'tuneline auth login'", "error", err)
				}
			}
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: spotifyService,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "tuneline",
		Usage:    "Guess the song and place it on your timeline",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
