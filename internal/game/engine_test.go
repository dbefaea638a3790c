package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/desertthunder/tuneline/internal/services"
	"github.com/desertthunder/tuneline/internal/shared"
	tu "github.com/desertthunder/tuneline/internal/testing"
)

// deckSourceFunc adapts a function to the DeckSource interface.
type deckSourceFunc func(ctx context.Context, playlistID string) ([]Track, error)

func (f deckSourceFunc) BuildDeck(ctx context.Context, playlistID string) ([]Track, error) {
	return f(ctx, playlistID)
}

func deckOf(years ...int) []Track {
	tracks := make([]Track, len(years))
	for i, year := range years {
		tracks[i] = Track{
			ID:     fmt.Sprintf("id-%d", i),
			Title:  fmt.Sprintf("Track %d", i),
			Artist: fmt.Sprintf("Artist %d", i),
			Year:   year,
			URI:    fmt.Sprintf("spotify:track:%d", i),
		}
	}
	return tracks
}

type testEngine struct {
	engine   *Engine
	catalog  *tu.MockCatalog
	sched    *tu.FakeScheduler
	expired  []error
	deckErr  error
	deck     []Track
	buildCnt int
}

// newTestEngine wires an engine with a static deck, a recording playback
// double, a manual scheduler, and shuffling disabled for determinism.
func newTestEngine(deck []Track) *testEngine {
	te := &testEngine{
		catalog: &tu.MockCatalog{},
		sched:   &tu.FakeScheduler{},
		deck:    deck,
	}

	te.engine = NewEngine(EngineOpts{
		Deck: deckSourceFunc(func(ctx context.Context, playlistID string) ([]Track, error) {
			te.buildCnt++
			if te.deckErr != nil {
				return nil, te.deckErr
			}
			tracks := make([]Track, len(te.deck))
			copy(tracks, te.deck)
			return tracks, nil
		}),
		Playback:         te.catalog,
		Scheduler:        te.sched,
		OnSessionExpired: func(err error) { te.expired = append(te.expired, err) },
		Shuffle:          func([]Track) {},
	})

	return te
}

// startGame adds players, selects a playlist, and starts a game.
func (te *testEngine) startGame(t *testing.T, players ...string) {
	t.Helper()
	for _, name := range players {
		if err := te.engine.AddPlayer(name); err != nil {
			t.Fatalf("failed to add player %s: %v", name, err)
		}
	}
	if err := te.engine.SelectPlaylist("playlist-1"); err != nil {
		t.Fatalf("failed to select playlist: %v", err)
	}
	if err := te.engine.StartGame(context.Background()); err != nil {
		t.Fatalf("failed to start game: %v", err)
	}
}

func TestEngineSetup(t *testing.T) {
	t.Run("AddPlayer", func(t *testing.T) {
		t.Run("registers trimmed names", func(t *testing.T) {
			te := newTestEngine(nil)
			if err := te.engine.AddPlayer("  Alice  "); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			snap := te.engine.Snapshot()
			if len(snap.Players) != 1 || snap.Players[0].Name != "Alice" {
				t.Errorf("expected trimmed player 'Alice', got %+v", snap.Players)
			}
		})

		t.Run("rejects empty and whitespace names", func(t *testing.T) {
			te := newTestEngine(nil)
			for _, name := range []string{"", "   ", "\t"} {
				if err := te.engine.AddPlayer(name); !errors.Is(err, shared.ErrInvalidName) {
					t.Errorf("name %q: expected ErrInvalidName, got %v", name, err)
				}
			}
		})

		t.Run("rejects names over the length limit", func(t *testing.T) {
			te := newTestEngine(nil)
			long := strings.Repeat("x", MaxPlayerNameLength+1)
			if err := te.engine.AddPlayer(long); !errors.Is(err, shared.ErrInvalidName) {
				t.Errorf("expected ErrInvalidName, got %v", err)
			}
			if err := te.engine.AddPlayer(strings.Repeat("x", MaxPlayerNameLength)); err != nil {
				t.Errorf("exact-length name should be accepted, got %v", err)
			}
		})

		t.Run("rejects duplicates case-insensitively", func(t *testing.T) {
			te := newTestEngine(nil)
			if err := te.engine.AddPlayer("Alice"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := te.engine.AddPlayer("ALICE"); !errors.Is(err, shared.ErrDuplicateName) {
				t.Errorf("expected ErrDuplicateName, got %v", err)
			}
		})

		t.Run("enforces the player cap", func(t *testing.T) {
			te := newTestEngine(nil)
			for i := 0; i < DefaultMaxPlayers; i++ {
				if err := te.engine.AddPlayer(fmt.Sprintf("Player %d", i)); err != nil {
					t.Fatalf("player %d: unexpected error %v", i, err)
				}
			}
			if err := te.engine.AddPlayer("One Too Many"); !errors.Is(err, shared.ErrMaxPlayers) {
				t.Errorf("expected ErrMaxPlayers, got %v", err)
			}
		})

		t.Run("rejected once the game started", func(t *testing.T) {
			te := newTestEngine(deckOf(1970, 1980, 1990, 2000))
			te.startGame(t, "Alice")
			if err := te.engine.AddPlayer("Bob"); !errors.Is(err, shared.ErrGameState) {
				t.Errorf("expected ErrGameState, got %v", err)
			}
		})
	})

	t.Run("StartGame", func(t *testing.T) {
		t.Run("requires players", func(t *testing.T) {
			te := newTestEngine(deckOf(1970, 1980))
			te.engine.SelectPlaylist("playlist-1")
			if err := te.engine.StartGame(context.Background()); !errors.Is(err, shared.ErrNoPlayers) {
				t.Errorf("expected ErrNoPlayers, got %v", err)
			}
		})

		t.Run("requires a playlist", func(t *testing.T) {
			te := newTestEngine(deckOf(1970, 1980))
			te.engine.AddPlayer("Alice")
			if err := te.engine.StartGame(context.Background()); !errors.Is(err, shared.ErrNoPlaylist) {
				t.Errorf("expected ErrNoPlaylist, got %v", err)
			}
		})

		t.Run("requires players+1 normalized tracks", func(t *testing.T) {
			te := newTestEngine(deckOf(1970, 1980))
			te.engine.AddPlayer("Alice")
			te.engine.AddPlayer("Bob")
			te.engine.SelectPlaylist("playlist-1")

			err := te.engine.StartGame(context.Background())
			if !errors.Is(err, shared.ErrInsufficientTracks) {
				t.Errorf("expected ErrInsufficientTracks, got %v", err)
			}
			if te.engine.State() != StateSetup {
				t.Error("failed start must leave the engine in setup")
			}
		})

		t.Run("deals one starting card per player", func(t *testing.T) {
			te := newTestEngine(deckOf(1970, 1980, 1990, 2000, 2010))
			te.startGame(t, "Alice", "Bob")

			snap := te.engine.Snapshot()
			if snap.State != StatePlaying {
				t.Fatalf("expected playing state, got %v", snap.State)
			}
			for _, p := range snap.Players {
				if len(p.Timeline) != 1 {
					t.Errorf("player %s: expected 1 starting card, got %d", p.Name, len(p.Timeline))
				}
				if p.Score != 0 {
					t.Errorf("player %s: expected score 0, got %d", p.Name, p.Score)
				}
			}
			// Shuffle is disabled, so cards are dealt off the end of the deck.
			if snap.Players[0].Timeline[0].Year != 2010 || snap.Players[1].Timeline[0].Year != 2000 {
				t.Errorf("unexpected starting cards: %+v", snap.Players)
			}
			if snap.SongsRemaining != 3 {
				t.Errorf("expected 3 songs remaining, got %d", snap.SongsRemaining)
			}
			if snap.CurrentSong == nil || snap.CurrentSong.Year != 1970 {
				t.Errorf("expected first deck card as current song, got %+v", snap.CurrentSong)
			}
		})

		t.Run("propagates deck build failures", func(t *testing.T) {
			te := newTestEngine(nil)
			te.deckErr = fmt.Errorf("%w: upstream down", shared.ErrAPIRequest)
			te.engine.AddPlayer("Alice")
			te.engine.SelectPlaylist("playlist-1")

			err := te.engine.StartGame(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected wrapped ErrAPIRequest, got %v", err)
			}
			if te.engine.State() != StateSetup {
				t.Error("failed start must leave the engine in setup")
			}
		})

		t.Run("notifies the expiry hook on expired sessions", func(t *testing.T) {
			te := newTestEngine(nil)
			te.deckErr = fmt.Errorf("%w: token expired", shared.ErrSessionExpired)
			te.engine.AddPlayer("Alice")
			te.engine.SelectPlaylist("playlist-1")

			te.engine.StartGame(context.Background())
			if len(te.expired) != 1 {
				t.Fatalf("expected 1 expiry notification, got %d", len(te.expired))
			}
			if !errors.Is(te.expired[0], shared.ErrSessionExpired) {
				t.Errorf("expected ErrSessionExpired, got %v", te.expired[0])
			}
		})

		t.Run("rejected while already playing", func(t *testing.T) {
			te := newTestEngine(deckOf(1970, 1980, 1990))
			te.startGame(t, "Alice")
			if err := te.engine.StartGame(context.Background()); !errors.Is(err, shared.ErrGameState) {
				t.Errorf("expected ErrGameState, got %v", err)
			}
		})
	})
}

func TestEngineSnippet(t *testing.T) {
	t.Run("playing increments the count and schedules auto-pause", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990))
		te.startGame(t, "Alice")

		count, err := te.engine.PlaySnippet(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 1 {
			t.Errorf("expected play count 1, got %d", count)
		}
		if len(te.catalog.PlayCalls) != 1 {
			t.Fatalf("expected 1 play call, got %d", len(te.catalog.PlayCalls))
		}
		if te.catalog.PlayCalls[0].TrackRef != "spotify:track:0" {
			t.Errorf("expected the current song's URI, got %q", te.catalog.PlayCalls[0].TrackRef)
		}
		if te.sched.Scheduled != 1 {
			t.Errorf("expected 1 scheduled auto-pause, got %d", te.sched.Scheduled)
		}
		if te.sched.Duration != DefaultSnippetDuration {
			t.Errorf("expected snippet duration %v, got %v", DefaultSnippetDuration, te.sched.Duration)
		}
	})

	t.Run("auto-pause pauses playback once", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990))
		te.startGame(t, "Alice")

		te.engine.PlaySnippet(context.Background())
		te.sched.Fire()
		if te.catalog.PauseCalls != 1 {
			t.Errorf("expected 1 pause call, got %d", te.catalog.PauseCalls)
		}

		// A stale fire after the snippet ended must not pause again.
		te.sched.Fire()
		if te.catalog.PauseCalls != 1 {
			t.Errorf("expected no extra pause, got %d", te.catalog.PauseCalls)
		}
	})

	t.Run("replays cancel the previous timer", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990))
		te.startGame(t, "Alice")

		te.engine.PlaySnippet(context.Background())
		count, err := te.engine.PlaySnippet(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 2 {
			t.Errorf("expected play count 2, got %d", count)
		}
		if te.sched.Scheduled != 2 {
			t.Errorf("expected 2 scheduled pauses, got %d", te.sched.Scheduled)
		}
	})

	t.Run("playback failure leaves the count unchanged", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990))
		te.startGame(t, "Alice")

		te.catalog.PlayFn = func(ctx context.Context, _ services.PlaySpec) error {
			return fmt.Errorf("%w: no active device", shared.ErrNoActiveDevice)
		}

		count, err := te.engine.PlaySnippet(context.Background())
		if !errors.Is(err, shared.ErrNoActiveDevice) {
			t.Fatalf("expected ErrNoActiveDevice, got %v", err)
		}
		if count != 0 {
			t.Errorf("expected unchanged count 0, got %d", count)
		}
	})

	t.Run("rejected outside a game", func(t *testing.T) {
		te := newTestEngine(nil)
		if _, err := te.engine.PlaySnippet(context.Background()); !errors.Is(err, shared.ErrGameState) {
			t.Errorf("expected ErrGameState, got %v", err)
		}
	})
}

func TestEngineTurns(t *testing.T) {
	correctGuess := func(snap Snapshot) GuessSubmission {
		var rangeValue string
		for _, opt := range snap.PlacementOptions {
			if opt.Contains(snap.CurrentSong.Year) {
				rangeValue = opt.Value
				break
			}
		}
		return GuessSubmission{
			Title:      snap.CurrentSong.Title,
			Artist:     snap.CurrentSong.Artist,
			RangeValue: rangeValue,
			PlayCount:  1,
		}
	}

	t.Run("a correct guess scores and inserts", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990, 2000))
		te.startGame(t, "Alice")

		snap := te.engine.Snapshot()
		result, err := te.engine.SubmitGuess(context.Background(), correctGuess(snap))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.Perfect || result.Points != PerfectPoints {
			t.Errorf("expected perfect 5, got %+v", result)
		}
		if !result.Inserted {
			t.Error("expected the card to be inserted")
		}

		after := te.engine.Snapshot()
		if after.Players[0].Score != PerfectPoints {
			t.Errorf("expected score %d, got %d", PerfectPoints, after.Players[0].Score)
		}
		if len(after.Players[0].Timeline) != 2 {
			t.Errorf("expected 2 timeline cards, got %d", len(after.Players[0].Timeline))
		}
	})

	t.Run("timeline stays sorted after insert", func(t *testing.T) {
		te := newTestEngine(deckOf(1995, 1955, 1975, 2005, 1985))
		te.startGame(t, "Alice")

		for te.engine.State() == StatePlaying {
			snap := te.engine.Snapshot()
			if snap.CurrentSong == nil {
				break
			}
			if _, err := te.engine.SubmitGuess(context.Background(), correctGuess(snap)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := te.engine.AdvanceTurn(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		timeline := te.engine.Snapshot().Players[0].Timeline
		for i := 1; i < len(timeline); i++ {
			if timeline[i-1].Year > timeline[i].Year {
				t.Fatalf("timeline out of order at %d: %+v", i, timeline)
			}
		}
	})

	t.Run("submitting pauses an active snippet", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990))
		te.startGame(t, "Alice")

		te.engine.PlaySnippet(context.Background())
		snap := te.engine.Snapshot()
		if _, err := te.engine.SubmitGuess(context.Background(), correctGuess(snap)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if te.catalog.PauseCalls != 1 {
			t.Errorf("expected 1 pause call, got %d", te.catalog.PauseCalls)
		}

		// The cancelled timer must not fire a second pause.
		te.sched.Fire()
		if te.catalog.PauseCalls != 1 {
			t.Errorf("expected no extra pause, got %d", te.catalog.PauseCalls)
		}
	})

	t.Run("play count defaults to the snippet session", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990))
		te.startGame(t, "Alice")

		te.engine.PlaySnippet(context.Background())
		te.engine.PlaySnippet(context.Background())

		snap := te.engine.Snapshot()
		sub := correctGuess(snap)
		sub.PlayCount = 0

		result, err := te.engine.SubmitGuess(context.Background(), sub)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Points != PerfectPoints-DefaultReplayPenalty {
			t.Errorf("expected %d points after one replay, got %d", PerfectPoints-DefaultReplayPenalty, result.Points)
		}
	})

	t.Run("no second guess before advancing", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990))
		te.startGame(t, "Alice")

		snap := te.engine.Snapshot()
		if _, err := te.engine.SubmitGuess(context.Background(), correctGuess(snap)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := te.engine.SubmitGuess(context.Background(), correctGuess(snap)); !errors.Is(err, shared.ErrGameState) {
			t.Errorf("expected ErrGameState, got %v", err)
		}
	})

	t.Run("advance without a guess is a no-op", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990))
		te.startGame(t, "Alice")

		before := te.engine.Snapshot()
		if err := te.engine.AdvanceTurn(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		after := te.engine.Snapshot()
		if before.CurrentSongIndex != after.CurrentSongIndex {
			t.Error("advance without a scored guess must not move the song index")
		}
	})

	t.Run("advance rotates players and songs", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990, 2000, 2010))
		te.startGame(t, "Alice", "Bob")

		snap := te.engine.Snapshot()
		te.engine.SubmitGuess(context.Background(), correctGuess(snap))
		te.engine.AdvanceTurn()

		after := te.engine.Snapshot()
		if after.CurrentPlayerIndex != 1 {
			t.Errorf("expected player index 1, got %d", after.CurrentPlayerIndex)
		}
		if after.CurrentSongIndex != 1 {
			t.Errorf("expected song index 1, got %d", after.CurrentSongIndex)
		}

		snap = te.engine.Snapshot()
		te.engine.SubmitGuess(context.Background(), correctGuess(snap))
		te.engine.AdvanceTurn()

		after = te.engine.Snapshot()
		if after.CurrentPlayerIndex != 0 {
			t.Errorf("player index should wrap to 0, got %d", after.CurrentPlayerIndex)
		}
	})

	t.Run("game ends when the deck is exhausted", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990))
		te.startGame(t, "Alice")
		// One starting card dealt, two cards left to play.

		for i := 0; i < 2; i++ {
			snap := te.engine.Snapshot()
			if _, err := te.engine.SubmitGuess(context.Background(), correctGuess(snap)); err != nil {
				t.Fatalf("turn %d: unexpected error %v", i, err)
			}
			if err := te.engine.AdvanceTurn(); err != nil {
				t.Fatalf("turn %d: unexpected error %v", i, err)
			}
		}

		if te.engine.State() != StateGameOver {
			t.Errorf("expected game over, got %v", te.engine.State())
		}
	})

	t.Run("game ends when a timeline reaches capacity", func(t *testing.T) {
		years := make([]int, 0, 16)
		for y := 1950; y < 2110; y += 10 {
			years = append(years, y)
		}
		te := newTestEngine(deckOf(years...))
		te.startGame(t, "Alice")

		for te.engine.State() == StatePlaying {
			snap := te.engine.Snapshot()
			if snap.CurrentSong == nil {
				break
			}
			te.engine.SubmitGuess(context.Background(), correctGuess(snap))
			te.engine.AdvanceTurn()
		}

		snap := te.engine.Snapshot()
		if snap.State != StateGameOver {
			t.Fatalf("expected game over, got %v", snap.State)
		}
		if got := len(snap.Players[0].Timeline); got != DefaultMaxTimelineLength {
			t.Errorf("expected timeline capped at %d, got %d", DefaultMaxTimelineLength, got)
		}
	})

	t.Run("PlayAgain returns to setup", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990))
		te.startGame(t, "Alice")

		te.engine.PlayAgain()
		if te.engine.State() != StateSetup {
			t.Errorf("expected setup state, got %v", te.engine.State())
		}
		if len(te.engine.Snapshot().Players) != 0 {
			t.Error("expected players to be cleared")
		}
	})

	t.Run("snapshots are isolated copies", func(t *testing.T) {
		te := newTestEngine(deckOf(1970, 1980, 1990))
		te.startGame(t, "Alice")

		snap := te.engine.Snapshot()
		snap.Players[0].Score = 999
		snap.Players[0].Timeline[0].Year = 1

		fresh := te.engine.Snapshot()
		if fresh.Players[0].Score == 999 {
			t.Error("mutating a snapshot must not affect the engine")
		}
		if fresh.Players[0].Timeline[0].Year == 1 {
			t.Error("mutating a snapshot timeline must not affect the engine")
		}
	})
}
