package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tuneline/internal/formatter"
	"github.com/desertthunder/tuneline/internal/game"
	"github.com/desertthunder/tuneline/internal/repositories"
	"github.com/desertthunder/tuneline/internal/shared"
	"github.com/desertthunder/tuneline/internal/tasks"
	"github.com/desertthunder/tuneline/internal/ui"
	"github.com/urfave/cli/v3"
)

// GameTUI launches the interactive terminal game.
func (r *Runner) GameTUI(ctx context.Context, cmd *cli.Command) error {
	if r.catalog == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'tuneline auth login'", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tuneline-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	builder, cleanup := r.cachedBuilder()
	defer cleanup()

	engine := r.newEngine(builder)
	model := ui.NewModel(ctx, engine, builder)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// GameSimulate plays a full game without interaction, guessing the correct
// title every turn, the correct artist every other turn, and picking the
// placement option that contains the track's year.
func (r *Runner) GameSimulate(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	playerCount := cmd.Int("players")
	maxTurns := cmd.Int("turns")
	exportPath := cmd.String("export")
	format := cmd.String("format")

	if r.catalog == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'tuneline auth login'", shared.ErrServiceUnavailable)
	}
	if playerCount < 1 {
		playerCount = 1
	}

	builder, cleanup := r.cachedBuilder()
	defer cleanup()

	engine := r.newEngine(builder)
	for i := 1; i <= playerCount; i++ {
		if err := engine.AddPlayer(fmt.Sprintf("Player %d", i)); err != nil {
			return fmt.Errorf("failed to add player: %w", err)
		}
	}

	if err := engine.SelectPlaylist(playlistID); err != nil {
		return err
	}

	r.writePlain("Building deck from playlist %s...\n", playlistID)
	if err := engine.StartGame(ctx); err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}

	turn := 0
	for engine.State() == game.StatePlaying {
		if maxTurns > 0 && turn >= maxTurns {
			break
		}

		snap := engine.Snapshot()
		if snap.CurrentSong == nil {
			break
		}

		sub := game.GuessSubmission{
			Title:      snap.CurrentSong.Title,
			RangeValue: pickOption(snap.PlacementOptions, snap.CurrentSong.Year),
			PlayCount:  1,
		}
		if turn%2 == 0 {
			sub.Artist = snap.CurrentSong.Artist
		}

		result, err := engine.SubmitGuess(ctx, sub)
		if err != nil {
			return fmt.Errorf("failed to submit guess: %w", err)
		}

		r.writePlain("Turn %d: %s guessed '%s' (%d) for %d points\n",
			turn+1, result.Player, result.Track.Title, result.Track.Year, result.Points)
		if result.TimelineFull {
			r.writePlain("         timeline full, card not added\n")
		}

		if err := engine.AdvanceTurn(); err != nil {
			return fmt.Errorf("failed to advance turn: %w", err)
		}
		turn++
	}

	snap := engine.Snapshot()
	r.writePlainln("Final standings:")
	for i, p := range formatter.Standings(snap.Players) {
		r.writePlain("%d. %s: %d points, %d cards\n", i+1, p.Name, p.Score, len(p.Timeline))
	}

	if exportPath != "" {
		data, err := formatter.ExportResults(snap.Players, format)
		if err != nil {
			return fmt.Errorf("failed to format results: %w", err)
		}
		if err := os.WriteFile(exportPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		r.writePlain("\n✓ Results written to %s\n", exportPath)
	}

	return nil
}

// cachedBuilder returns a deck builder backed by the sqlite track cache when
// the database is available, falling back to an uncached builder.
func (r *Runner) cachedBuilder() (*tasks.DeckBuilder, func()) {
	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("track cache unavailable", "error", err)
		return r.builder, func() {}
	}

	repo := repositories.NewTrackCacheRepository(db)
	return r.newBuilder(repo), func() { db.Close() }
}

// pickOption returns the Value of the first placement option containing the
// year, or the last option when none match.
func pickOption(options []game.PlacementRange, year int) string {
	if len(options) == 0 {
		return ""
	}
	for _, opt := range options {
		if opt.Contains(year) {
			return opt.Value
		}
	}
	return options[len(options)-1].Value
}
