package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tuneline/internal/game"
	"github.com/desertthunder/tuneline/internal/services"
	"github.com/desertthunder/tuneline/internal/shared"
	"github.com/desertthunder/tuneline/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	spotify *services.SpotifyService
	catalog services.Catalog
	builder *tasks.DeckBuilder
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Spotify *services.SpotifyService
	Catalog services.Catalog
	Cache   tasks.TrackCacher
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Catalog == nil && opts.Spotify != nil {
		opts.Catalog = opts.Spotify
	}

	builder := tasks.NewDeckBuilder(tasks.DeckBuilderOpts{
		Catalog:  opts.Catalog,
		Cache:    opts.Cache,
		Logger:   opts.Logger,
		FetchCap: opts.Config.Game.FetchCap,
	})

	return &Runner{
		config:  opts.Config,
		spotify: opts.Spotify,
		catalog: opts.Catalog,
		builder: builder,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. to a file logger while a TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, gameCommand, cacheCommand, exportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// newBuilder builds a deck builder with a write-through cache attached.
// The runner's default builder has no cache because the database is only
// opened once a game command runs.
func (r *Runner) newBuilder(cache tasks.TrackCacher) *tasks.DeckBuilder {
	return tasks.NewDeckBuilder(tasks.DeckBuilderOpts{
		Catalog:  r.catalog,
		Cache:    cache,
		Logger:   r.logger,
		FetchCap: r.config.Game.FetchCap,
	})
}

// newEngine builds a game engine wired to the runner's catalog and the given deck source.
func (r *Runner) newEngine(deck game.DeckSource) *game.Engine {
	return game.NewEngine(game.EngineOpts{
		Deck:     deck,
		Playback: r.catalog,
		Logger:   r.logger,
		Config:   r.gameConfig(),
		OnSessionExpired: func(err error) {
			r.logger.Warn("session expired, run 'tuneline auth login' to reauthenticate", "error", err)
		},
	})
}

// gameConfig converts the TOML rule tunables into engine configuration.
func (r *Runner) gameConfig() game.Config {
	cfg := game.DefaultEngineConfig()
	g := r.config.Game
	if g.MaxPlayers > 0 {
		cfg.MaxPlayers = g.MaxPlayers
	}
	if g.MaxTimelineLength > 0 {
		cfg.MaxTimelineLength = g.MaxTimelineLength
	}
	if g.SnippetDurationMS > 0 {
		cfg.SnippetDuration = time.Duration(g.SnippetDurationMS) * time.Millisecond
	}
	if g.ReplayPenalty > 0 {
		cfg.ReplayPenalty = g.ReplayPenalty
	}
	if g.MatchTolerance > 0 {
		cfg.MatchTolerance = g.MatchTolerance
	}
	return cfg
}

// openDatabase opens the configured sqlite database and runs pending migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
