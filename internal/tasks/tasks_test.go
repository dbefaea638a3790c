package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/tuneline/internal/game"
	"github.com/desertthunder/tuneline/internal/services"
	"github.com/desertthunder/tuneline/internal/shared"
	tu "github.com/desertthunder/tuneline/internal/testing"
)

func pageItem(i int) services.PlaylistItem {
	return services.PlaylistItem{
		Track: &services.RawTrack{
			ID:      fmt.Sprintf("t%d", i),
			Name:    fmt.Sprintf("Track %d", i),
			URI:     fmt.Sprintf("spotify:track:%d", i),
			Artists: []services.RawArtist{{Name: "Artist"}},
			Album:   services.RawAlbum{ReleaseDate: fmt.Sprintf("%d", 1960+i%60)},
		},
	}
}

// pagedCatalog serves a fixed number of items through the mock in pages.
func pagedCatalog(totalItems int) *tu.MockCatalog {
	return &tu.MockCatalog{
		ListTracksFn: func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
			page := &services.TrackPage{Total: totalItems}
			for i := offset; i < offset+limit && i < totalItems; i++ {
				page.Items = append(page.Items, pageItem(i))
			}
			return page, nil
		},
	}
}

// recordingCacher captures CacheTracks calls.
type recordingCacher struct {
	playlistIDs []string
	tracks      [][]game.Track
	err         error
}

func (c *recordingCacher) CacheTracks(playlistID string, tracks []game.Track) error {
	c.playlistIDs = append(c.playlistIDs, playlistID)
	c.tracks = append(c.tracks, tracks)
	return c.err
}

func TestDeckBuilder(t *testing.T) {
	t.Run("BuildDeck", func(t *testing.T) {
		t.Run("paginates to the reported total", func(t *testing.T) {
			catalog := pagedCatalog(120)
			builder := NewDeckBuilder(DeckBuilderOpts{Catalog: catalog, Rate: 1000})

			tracks, err := builder.BuildDeck(context.Background(), "p1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tracks) != 120 {
				t.Errorf("expected 120 tracks, got %d", len(tracks))
			}
		})

		t.Run("stops at the fetch cap", func(t *testing.T) {
			catalog := pagedCatalog(10_000)
			builder := NewDeckBuilder(DeckBuilderOpts{Catalog: catalog, Rate: 1000})

			tracks, err := builder.BuildDeck(context.Background(), "p1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tracks) != DefaultFetchCap {
				t.Errorf("expected %d tracks at the cap, got %d", DefaultFetchCap, len(tracks))
			}
		})

		t.Run("drops unplayable items during normalization", func(t *testing.T) {
			catalog := &tu.MockCatalog{
				ListTracksFn: func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
					return &services.TrackPage{
						Total: 3,
						Items: []services.PlaylistItem{
							pageItem(0),
							{Track: nil},
							{Track: &services.RawTrack{ID: "bad", Name: "No Date", URI: "spotify:track:bad"}},
						},
					}, nil
				},
			}
			builder := NewDeckBuilder(DeckBuilderOpts{Catalog: catalog, Rate: 1000})

			tracks, err := builder.BuildDeck(context.Background(), "p1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tracks) != 1 {
				t.Errorf("expected 1 playable track, got %d", len(tracks))
			}
		})

		t.Run("propagates fetch errors", func(t *testing.T) {
			catalog := &tu.MockCatalog{
				ListTracksFn: func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
					return nil, fmt.Errorf("%w: boom", shared.ErrAPIRequest)
				},
			}
			builder := NewDeckBuilder(DeckBuilderOpts{Catalog: catalog, Rate: 1000})

			if _, err := builder.BuildDeck(context.Background(), "p1"); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected wrapped ErrAPIRequest, got %v", err)
			}
		})

		t.Run("requires a playlist ID", func(t *testing.T) {
			builder := NewDeckBuilder(DeckBuilderOpts{Catalog: pagedCatalog(1), Rate: 1000})
			if _, err := builder.BuildDeck(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("requires a catalog", func(t *testing.T) {
			builder := NewDeckBuilder(DeckBuilderOpts{Rate: 1000})
			if _, err := builder.BuildDeck(context.Background(), "p1"); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("writes tracks through the cache", func(t *testing.T) {
			cache := &recordingCacher{}
			builder := NewDeckBuilder(DeckBuilderOpts{Catalog: pagedCatalog(5), Cache: cache, Rate: 1000})

			tracks, err := builder.BuildDeck(context.Background(), "p1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(cache.playlistIDs) != 1 || cache.playlistIDs[0] != "p1" {
				t.Fatalf("expected one cache write for p1, got %v", cache.playlistIDs)
			}
			if len(cache.tracks[0]) != len(tracks) {
				t.Errorf("expected %d cached tracks, got %d", len(tracks), len(cache.tracks[0]))
			}
		})

		t.Run("cache failures do not block the deck", func(t *testing.T) {
			cache := &recordingCacher{err: errors.New("disk full")}
			builder := NewDeckBuilder(DeckBuilderOpts{Catalog: pagedCatalog(5), Cache: cache, Rate: 1000})

			tracks, err := builder.BuildDeck(context.Background(), "p1")
			if err != nil {
				t.Fatalf("expected deck despite cache failure, got %v", err)
			}
			if len(tracks) != 5 {
				t.Errorf("expected 5 tracks, got %d", len(tracks))
			}
		})

		t.Run("reports progress without blocking", func(t *testing.T) {
			progress := make(chan ProgressUpdate, 100)
			builder := NewDeckBuilder(DeckBuilderOpts{Catalog: pagedCatalog(120), Rate: 1000}).WithProgress(progress)

			if _, err := builder.BuildDeck(context.Background(), "p1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			close(progress)

			var fetches, normalized int
			for update := range progress {
				switch update.Phase {
				case FetchTracks:
					fetches++
				case NormalizeTracks:
					normalized++
				}
			}
			if fetches < 2 {
				t.Errorf("expected multiple fetch updates, got %d", fetches)
			}
			if normalized != 1 {
				t.Errorf("expected one normalize update, got %d", normalized)
			}
		})

		t.Run("a full unbuffered channel drops updates instead of blocking", func(t *testing.T) {
			progress := make(chan ProgressUpdate)
			builder := NewDeckBuilder(DeckBuilderOpts{Catalog: pagedCatalog(10), Rate: 1000}).WithProgress(progress)

			// No reader on the channel; BuildDeck must still return.
			if _, err := builder.BuildDeck(context.Background(), "p1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	})

	t.Run("ListAllPlaylists", func(t *testing.T) {
		t.Run("pages through everything", func(t *testing.T) {
			totalPlaylists := 75
			catalog := &tu.MockCatalog{
				ListPlaylistsFn: func(ctx context.Context, limit, offset int) (*services.PlaylistPage, error) {
					page := &services.PlaylistPage{Total: totalPlaylists}
					for i := offset; i < offset+limit && i < totalPlaylists; i++ {
						page.Items = append(page.Items, services.Playlist{ID: fmt.Sprintf("p%d", i)})
					}
					return page, nil
				},
			}
			builder := NewDeckBuilder(DeckBuilderOpts{Catalog: catalog, Rate: 1000})

			playlists, err := builder.ListAllPlaylists(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(playlists) != totalPlaylists {
				t.Errorf("expected %d playlists, got %d", totalPlaylists, len(playlists))
			}
		})

		t.Run("propagates errors", func(t *testing.T) {
			catalog := &tu.MockCatalog{
				ListPlaylistsFn: func(ctx context.Context, limit, offset int) (*services.PlaylistPage, error) {
					return nil, fmt.Errorf("%w: boom", shared.ErrAPIRequest)
				},
			}
			builder := NewDeckBuilder(DeckBuilderOpts{Catalog: catalog, Rate: 1000})

			if _, err := builder.ListAllPlaylists(context.Background()); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected wrapped ErrAPIRequest, got %v", err)
			}
		})
	})
}

func TestProgressPhases(t *testing.T) {
	cases := map[Phase]string{
		FetchPlaylists:  "fetch_playlists",
		FetchTracks:     "fetch_tracks",
		NormalizeTracks: "normalize_tracks",
		CacheTracks:     "cache_tracks",
	}
	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Errorf("phase %d: expected %q, got %q", phase, want, got)
		}
	}
}
