// package tasks implements the long-running catalog operations behind the
// game: paginated playlist listing and deck building.
//
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers, and respect the provider's rate limits.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tuneline/internal/game"
	"github.com/desertthunder/tuneline/internal/services"
	"github.com/desertthunder/tuneline/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultFetchCap bounds how many raw playlist items the deck fetch will
// accumulate, regardless of playlist size.
const DefaultFetchCap = 500

// defaultPageSize is the provider page size for track listings.
const defaultPageSize = 50

// TrackCacher persists normalized tracks so repeat games on the same
// playlist can be inspected without refetching.
type TrackCacher interface {
	// CacheTracks stores normalized tracks for a playlist. Duplicates are
	// silently ignored.
	CacheTracks(playlistID string, tracks []game.Track) error
}

// DeckBuilderOpts configures a DeckBuilder.
type DeckBuilderOpts struct {
	Catalog  services.Catalog
	Cache    TrackCacher // optional write-through cache
	Logger   *log.Logger
	FetchCap int     // maximum raw items to accumulate (default 500)
	PageSize int     // provider page size (default 50)
	Rate     float64 // page requests per second (default 5)
}

// DeckBuilder fetches, normalizes, and caches the tracks for a playlist.
// It implements [game.DeckSource].
type DeckBuilder struct {
	catalog  services.Catalog
	cache    TrackCacher
	logger   *log.Logger
	limiter  *rate.Limiter
	fetchCap int
	pageSize int
	progress chan<- ProgressUpdate
}

// NewDeckBuilder creates a DeckBuilder with the provided catalog service.
func NewDeckBuilder(opts DeckBuilderOpts) *DeckBuilder {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.FetchCap <= 0 {
		opts.FetchCap = DefaultFetchCap
	}
	if opts.PageSize <= 0 || opts.PageSize > defaultPageSize {
		opts.PageSize = defaultPageSize
	}
	if opts.Rate <= 0 {
		opts.Rate = 5.0
	}

	return &DeckBuilder{
		catalog:  opts.Catalog,
		cache:    opts.Cache,
		logger:   opts.Logger,
		limiter:  rate.NewLimiter(rate.Limit(opts.Rate), 1),
		fetchCap: opts.FetchCap,
		pageSize: opts.PageSize,
	}
}

// WithProgress sets the channel progress updates are sent to. Sends never
// block; updates are dropped when the channel is full.
func (b *DeckBuilder) WithProgress(progress chan<- ProgressUpdate) *DeckBuilder {
	b.progress = progress
	return b
}

func (b *DeckBuilder) sendProgress(update ProgressUpdate) {
	if b.progress == nil {
		return
	}
	select {
	case b.progress <- update:
	default:
	}
}

// BuildDeck fetches all raw items for the playlist (looping offset until the
// reported total is reached or the safety cap is hit), normalizes them into
// game tracks, and writes them through to the cache when one is configured.
func (b *DeckBuilder) BuildDeck(ctx context.Context, playlistID string) ([]game.Track, error) {
	if b.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist ID required", shared.ErrMissingArgument)
	}

	var items []services.PlaylistItem
	offset := 0
	total := 0

	for {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter interrupted: %w", err)
		}

		page, err := b.catalog.ListTracks(ctx, playlistID, b.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist items at offset %d: %w", offset, err)
		}

		items = append(items, page.Items...)
		total = page.Total
		offset += len(page.Items)

		b.sendProgress(fetchTracksUpdate(offset, total))

		if len(page.Items) == 0 || offset >= total || len(items) >= b.fetchCap {
			break
		}
	}

	tracks := game.NormalizeTracks(items)
	b.sendProgress(normalizedUpdate(len(tracks), len(items)))
	b.logger.Info("deck built", "playlist", playlistID, "raw", len(items), "playable", len(tracks))

	if b.cache != nil && len(tracks) > 0 {
		if err := b.cache.CacheTracks(playlistID, tracks); err != nil {
			// Cache failures never block a game from starting.
			b.logger.Warn("failed to cache tracks", "playlist", playlistID, "error", err)
		} else {
			b.sendProgress(cachedUpdate(len(tracks)))
		}
	}

	return tracks, nil
}

// ListAllPlaylists pages through the user's playlists until the provider
// reports no more items.
func (b *DeckBuilder) ListAllPlaylists(ctx context.Context) ([]services.Playlist, error) {
	if b.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	var all []services.Playlist
	offset := 0

	for {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter interrupted: %w", err)
		}

		page, err := b.catalog.ListPlaylists(ctx, defaultPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlists at offset %d: %w", offset, err)
		}

		all = append(all, page.Items...)
		offset += len(page.Items)

		b.sendProgress(fetchPlaylistsUpdate(offset, page.Total))

		if len(page.Items) == 0 || offset >= page.Total {
			break
		}
	}

	return all, nil
}
