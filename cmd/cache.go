package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tuneline/internal/repositories"
	"github.com/desertthunder/tuneline/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheStats reports how many playlists and tracks are cached locally.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewTrackCacheRepository(db)
	playlists, tracks, err := repo.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	r.writePlain("Cached playlists: %d\n", playlists)
	r.writePlain("Cached tracks: %d\n", tracks)
	return nil
}

// CacheClear removes cached tracks for a playlist.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewTrackCacheRepository(db)
	removed, err := repo.Clear(playlistID)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	r.logger.Infof("cleared %d cached tracks for playlist %s", removed, playlistID)
	r.writePlain("✓ Removed %d cached tracks\n", removed)
	return nil
}

// ExportDeck writes the cached normalized tracks for a playlist as JSON.
func (r *Runner) ExportDeck(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	outputFile := cmd.String("output")
	pretty := cmd.Bool("pretty")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewTrackCacheRepository(db)
	tracks, err := repo.TracksForPlaylist(playlistID)
	if err != nil {
		return fmt.Errorf("failed to read cached tracks: %w", err)
	}

	if len(tracks) == 0 {
		return fmt.Errorf("%w: no cached tracks for playlist %s, play a game first", shared.ErrPlaylistNotFound, playlistID)
	}

	if outputFile == "" {
		return r.writeJSON(tracks, pretty)
	}

	data, err := shared.MarshalJSON(tracks, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal tracks: %w", err)
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), outputFile)
	return nil
}
