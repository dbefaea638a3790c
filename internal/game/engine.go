package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tuneline/internal/services"
	"github.com/desertthunder/tuneline/internal/shared"
)

// State enumerates the game lifecycle phases.
type State int

const (
	StateSetup State = iota
	StatePlaying
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StatePlaying:
		return "playing"
	case StateGameOver:
		return "gameover"
	default:
		return ""
	}
}

// MaxPlayerNameLength bounds player names at setup.
const MaxPlayerNameLength = 25

// Player is one participant's mutable state. The timeline is kept sorted
// ascending by year and only the engine mutates it.
type Player struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	Timeline []Track `json:"timeline"`
}

func (p *Player) clone() Player {
	timeline := make([]Track, len(p.Timeline))
	copy(timeline, p.Timeline)
	return Player{Name: p.Name, Score: p.Score, Timeline: timeline}
}

// TurnResult reports the outcome of a scored guess back to the caller so a
// UI can present feedback before the turn advances.
type TurnResult struct {
	Player           string `json:"player"`
	Track            Track  `json:"track"`
	Points           int    `json:"points"`
	TitleCorrect     bool   `json:"title_correct"`
	ArtistCorrect    bool   `json:"artist_correct"`
	PlacementCorrect bool   `json:"placement_correct"`
	Perfect          bool   `json:"perfect"`
	Inserted         bool   `json:"inserted"`
	TimelineFull     bool   `json:"timeline_full"`
}

// Snapshot is an observable copy of the engine state for consumers.
type Snapshot struct {
	State              State
	Players            []Player
	CurrentPlayerIndex int
	CurrentSongIndex   int
	CurrentSong        *Track
	PlacementOptions   []PlacementRange
	SongsRemaining     int
	PlaylistID         string
}

// DeckSource builds a shuffled-ready deck of normalized tracks for a playlist.
type DeckSource interface {
	BuildDeck(ctx context.Context, playlistID string) ([]Track, error)
}

// Playback is the transport-control slice of the catalog service.
type Playback interface {
	Play(ctx context.Context, spec services.PlaySpec) error
	Pause(ctx context.Context) error
}

// Config carries the engine's rule tunables.
type Config struct {
	MaxPlayers        int
	MaxTimelineLength int
	SnippetDuration   time.Duration
	ReplayPenalty     int
	MatchTolerance    int
}

// DefaultEngineConfig returns the standard rules.
func DefaultEngineConfig() Config {
	return Config{
		MaxPlayers:        DefaultMaxPlayers,
		MaxTimelineLength: DefaultMaxTimelineLength,
		SnippetDuration:   DefaultSnippetDuration,
		ReplayPenalty:     DefaultReplayPenalty,
		MatchTolerance:    DefaultTolerance,
	}
}

// EngineOpts contains dependencies and configuration for creating an Engine.
type EngineOpts struct {
	Deck      DeckSource
	Playback  Playback
	Logger    *log.Logger
	Scheduler Scheduler
	Config    Config

	// OnSessionExpired is invoked when any catalog or playback call reports
	// an expired session. The game cannot continue; the host should log out.
	OnSessionExpired func(error)

	// Shuffle overrides the deck shuffle, for deterministic tests.
	Shuffle func([]Track)
}

// Engine is the turn/game state machine. All exported methods are safe for
// concurrent use; a busy flag additionally serializes the two long-running
// mutating operations (start-game fetch and guess scoring) so at most one
// is in flight at a time.
type Engine struct {
	mu sync.Mutex

	cfg      Config
	deck     DeckSource
	playback Playback
	logger   *log.Logger
	sched    Scheduler
	onExpiry func(error)
	shuffle  func([]Track)

	state      State
	players    []*Player
	cards      []Track
	playlistID string
	curPlayer  int
	curSong    int

	busy            bool
	awaitingAdvance bool
	snippet         snippetSession
	lastErr         error
}

// NewEngine creates an Engine in the Setup state.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewTimerScheduler()
	}
	if opts.Config.MaxPlayers <= 0 {
		opts.Config = DefaultEngineConfig()
	}
	if opts.Shuffle == nil {
		opts.Shuffle = func(tracks []Track) {
			rand.Shuffle(len(tracks), func(i, j int) {
				tracks[i], tracks[j] = tracks[j], tracks[i]
			})
		}
	}

	return &Engine{
		cfg:      opts.Config,
		deck:     opts.Deck,
		playback: opts.Playback,
		logger:   opts.Logger,
		sched:    opts.Scheduler,
		onExpiry: opts.OnSessionExpired,
		shuffle:  opts.Shuffle,
		state:    StateSetup,
	}
}

// State returns the current lifecycle phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the last fatal error recorded by a forced reset, if any.
// It persists until ClearError or PlayAgain.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// ClearError acknowledges a recorded fatal error.
func (e *Engine) ClearError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = nil
}

// AddPlayer registers a player during setup. Names are trimmed, must be
// non-empty, at most 25 characters, and unique case-insensitively.
func (e *Engine) AddPlayer(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateSetup {
		return fmt.Errorf("%w: players can only be added during setup", shared.ErrGameState)
	}
	if len(e.players) >= e.cfg.MaxPlayers {
		return fmt.Errorf("%w: maximum %d players", shared.ErrMaxPlayers, e.cfg.MaxPlayers)
	}

	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxPlayerNameLength {
		return fmt.Errorf("%w: name must be 1-%d characters", shared.ErrInvalidName, MaxPlayerNameLength)
	}

	for _, p := range e.players {
		if strings.EqualFold(p.Name, name) {
			return fmt.Errorf("%w: %s", shared.ErrDuplicateName, name)
		}
	}

	e.players = append(e.players, &Player{Name: name})
	e.logger.Debug("player added", "name", name, "count", len(e.players))
	return nil
}

// SelectPlaylist records the playlist to draw the deck from.
func (e *Engine) SelectPlaylist(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateSetup {
		return fmt.Errorf("%w: playlist can only be selected during setup", shared.ErrGameState)
	}
	e.playlistID = id
	return nil
}

// StartGame transitions Setup to Playing: it fetches and normalizes the
// playlist's tracks, shuffles them, deals one starting card per player, and
// resets scores and indices. On any failure the state remains Setup.
func (e *Engine) StartGame(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateSetup {
		e.mu.Unlock()
		return fmt.Errorf("%w: game already started", shared.ErrGameState)
	}
	if e.busy {
		e.mu.Unlock()
		return shared.ErrBusy
	}
	if len(e.players) == 0 {
		e.mu.Unlock()
		return shared.ErrNoPlayers
	}
	if e.playlistID == "" {
		e.mu.Unlock()
		return shared.ErrNoPlaylist
	}

	e.busy = true
	playlistID := e.playlistID
	playerCount := len(e.players)
	e.mu.Unlock()

	// Fetch happens outside the lock; the busy flag keeps other mutating
	// operations out while it is in flight.
	tracks, err := e.deck.BuildDeck(ctx, playlistID)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false

	if err != nil {
		e.notifyIfExpired(err)
		return fmt.Errorf("failed to build deck: %w", err)
	}

	if len(tracks) < playerCount+1 {
		return fmt.Errorf("%w: %d playable tracks for %d players (need at least %d)",
			shared.ErrInsufficientTracks, len(tracks), playerCount, playerCount+1)
	}

	e.shuffle(tracks)

	// Deal one starting card per player, in player order, off the end of
	// the shuffled pool.
	for _, p := range e.players {
		p.Score = 0
		card := tracks[len(tracks)-1]
		tracks = tracks[:len(tracks)-1]
		p.Timeline = []Track{card}
	}

	e.cards = tracks
	e.curSong = 0
	e.curPlayer = 0
	e.awaitingAdvance = false
	e.snippet.reset()
	e.lastErr = nil
	e.state = StatePlaying

	e.logger.Info("game started", "players", playerCount, "deck", len(e.cards), "playlist", playlistID)
	return nil
}

// PlaySnippet starts (or replays) the current song's snippet on the user's
// active device and schedules the auto-pause. It returns the play count for
// this turn; every play after the first costs points at scoring time.
//
// Transient playback failures (no device, restricted account) do not
// increment the play count and leave the turn intact.
func (e *Engine) PlaySnippet(ctx context.Context) (int, error) {
	e.mu.Lock()

	if e.state != StatePlaying {
		e.mu.Unlock()
		return 0, fmt.Errorf("%w: no song to play", shared.ErrGameState)
	}

	track, err := e.currentTrackLocked()
	if err != nil {
		e.forceResetLocked(err)
		e.mu.Unlock()
		return 0, err
	}

	// A replay cancels the previous snippet's auto-pause so a stale timer
	// cannot fire mid-snippet.
	e.snippet.cancelTimer()
	uri := track.URI
	e.mu.Unlock()

	if err := e.playback.Play(ctx, services.PlaySpec{TrackRef: uri}); err != nil {
		e.notifyIfExpired(err)
		return e.snippetCount(), err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.snippet.playCount++
	e.snippet.playing = true
	e.snippet.cancel = e.sched.AfterFunc(e.cfg.SnippetDuration, e.autoPause)

	e.logger.Debug("snippet playing", "track", track.Title, "count", e.snippet.playCount)
	return e.snippet.playCount, nil
}

// autoPause is the scheduled end of a snippet.
func (e *Engine) autoPause() {
	e.mu.Lock()
	if !e.snippet.playing {
		e.mu.Unlock()
		return
	}
	e.snippet.playing = false
	e.snippet.cancel = nil
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.playback.Pause(ctx); err != nil {
		e.logger.Warn("auto-pause failed", "error", err)
	}
}

// SubmitGuess cancels any pending snippet, pauses playback, scores the
// guess, and applies the result to the acting player. The turn does not
// advance until AdvanceTurn is called, so callers can present feedback
// against a stable state.
func (e *Engine) SubmitGuess(ctx context.Context, sub GuessSubmission) (*TurnResult, error) {
	e.mu.Lock()

	if e.state != StatePlaying {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: no turn in progress", shared.ErrGameState)
	}
	if e.busy {
		e.mu.Unlock()
		return nil, shared.ErrBusy
	}
	if e.awaitingAdvance {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: advance the turn before guessing again", shared.ErrGameState)
	}

	track, err := e.currentTrackLocked()
	if err != nil {
		e.forceResetLocked(err)
		e.mu.Unlock()
		return nil, err
	}

	e.busy = true
	e.snippet.cancelTimer()
	wasPlaying := e.snippet.playing
	e.snippet.playing = false
	if sub.PlayCount == 0 {
		sub.PlayCount = e.snippet.playCount
	}
	player := e.players[e.curPlayer]
	timeline := player.Timeline
	e.mu.Unlock()

	// Stop the snippet before scoring so playback never bleeds into the
	// next player's turn. Transient pause failures are non-fatal.
	if wasPlaying {
		if err := e.playback.Pause(ctx); err != nil {
			e.notifyIfExpired(err)
			e.logger.Warn("failed to pause before scoring", "error", err)
		}
	}

	score := ScoreTurn(sub, track, timeline, ScoreRules{
		Tolerance:         e.cfg.MatchTolerance,
		ReplayPenalty:     e.cfg.ReplayPenalty,
		MaxTimelineLength: e.cfg.MaxTimelineLength,
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false

	player.Score += score.Points
	if score.Insert {
		player.Timeline = sortedByYear(append(player.Timeline, track))
	}
	e.awaitingAdvance = true

	result := &TurnResult{
		Player:           player.Name,
		Track:            track,
		Points:           score.Points,
		TitleCorrect:     score.TitleCorrect,
		ArtistCorrect:    score.ArtistCorrect,
		PlacementCorrect: score.PlacementCorrect,
		Perfect:          score.Perfect,
		Inserted:         score.Insert,
		TimelineFull:     score.TimelineFull,
	}

	e.logger.Info("guess scored",
		"player", player.Name, "points", score.Points,
		"title", score.TitleCorrect, "artist", score.ArtistCorrect,
		"placement", score.PlacementCorrect, "replays", sub.PlayCount-1)

	return result, nil
}

// AdvanceTurn moves to the next player and song after a scored guess, then
// evaluates the game-over condition. Without an intervening SubmitGuess it
// is a no-op, so repeated calls cannot double-advance.
func (e *Engine) AdvanceTurn() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePlaying {
		return fmt.Errorf("%w: no game in progress", shared.ErrGameState)
	}
	if !e.awaitingAdvance {
		return nil
	}

	e.awaitingAdvance = false
	e.snippet.reset()
	e.curPlayer = (e.curPlayer + 1) % len(e.players)
	e.curSong++

	if e.gameOverLocked() {
		e.state = StateGameOver
		e.logger.Info("game over", "songs_played", e.curSong)
	}

	return nil
}

// gameOverLocked reports whether the match has ended: the deck is exhausted
// or any player's timeline reached capacity.
func (e *Engine) gameOverLocked() bool {
	if e.curSong >= len(e.cards) {
		return true
	}
	for _, p := range e.players {
		if len(p.Timeline) >= e.cfg.MaxTimelineLength {
			return true
		}
	}
	return false
}

// PlayAgain resets everything back to Setup.
func (e *Engine) PlayAgain() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.snippet.reset()
	e.players = nil
	e.cards = nil
	e.playlistID = ""
	e.curPlayer = 0
	e.curSong = 0
	e.awaitingAdvance = false
	e.busy = false
	e.lastErr = nil
	e.state = StateSetup
}

// forceResetLocked handles internal consistency failures: record the error,
// log it, and return to Setup rather than leaving Playing inconsistent.
func (e *Engine) forceResetLocked(err error) {
	e.logger.Error("forcing reset to setup", "error", err)
	e.resetLocked()
	e.lastErr = err
}

// currentTrackLocked returns the track for the current turn, or an
// ErrInternal if the indices are out of bounds while Playing.
func (e *Engine) currentTrackLocked() (Track, error) {
	if e.curPlayer >= len(e.players) || e.curSong >= len(e.cards) {
		return Track{}, fmt.Errorf("%w: player %d/%d song %d/%d",
			shared.ErrInternal, e.curPlayer, len(e.players), e.curSong, len(e.cards))
	}
	return e.cards[e.curSong], nil
}

func (e *Engine) snippetCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snippet.playCount
}

func (e *Engine) notifyIfExpired(err error) {
	if e.onExpiry != nil && errors.Is(err, shared.ErrSessionExpired) {
		e.onExpiry(err)
	}
}

// Snapshot returns an observable copy of the game state, including the
// acting player's placement options while a game is in progress.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		State:              e.state,
		CurrentPlayerIndex: e.curPlayer,
		CurrentSongIndex:   e.curSong,
		PlaylistID:         e.playlistID,
	}

	for _, p := range e.players {
		snap.Players = append(snap.Players, p.clone())
	}

	if e.state == StatePlaying && e.curSong < len(e.cards) && e.curPlayer < len(e.players) {
		track := e.cards[e.curSong]
		snap.CurrentSong = &track
		snap.PlacementOptions = OptionsFor(e.players[e.curPlayer].Timeline)
		snap.SongsRemaining = len(e.cards) - e.curSong
	}

	return snap
}
