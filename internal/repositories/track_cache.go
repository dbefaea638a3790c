// package repositories provides the persistence layer for cached tracks.
//
// The cache exists so repeated games on the same playlist can be inspected
// and audited without refetching from the provider; gameplay never depends
// on it.
package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tuneline/internal/game"
	"github.com/desertthunder/tuneline/internal/shared"
)

// CachedTrack is a normalized track as stored in the cache.
type CachedTrack struct {
	ID         string
	PlaylistID string
	Track      game.Track
	CreatedAt  time.Time
}

// TrackCacheRepository stores normalized tracks keyed by (playlist, track).
// It implements tasks.TrackCacher.
type TrackCacheRepository struct {
	db *sql.DB
}

// NewTrackCacheRepository creates a repository backed by the given database.
func NewTrackCacheRepository(db *sql.DB) *TrackCacheRepository {
	return &TrackCacheRepository{db: db}
}

// CacheTracks inserts the tracks for a playlist, ignoring duplicates via
// the (playlist_id, track_id) UNIQUE constraint.
func (r *TrackCacheRepository) CacheTracks(playlistID string, tracks []game.Track) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID required", shared.ErrMissingArgument)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO cached_tracks (id, playlist_id, track_id, title, artist, year, uri, album_art, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	for _, track := range tracks {
		_, err := tx.Exec(query,
			shared.GenerateID(),
			playlistID,
			track.ID,
			track.Title,
			track.Artist,
			track.Year,
			track.URI,
			track.AlbumArt,
			now,
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				continue
			}
			return fmt.Errorf("failed to cache track %s: %w", track.ID, err)
		}
	}

	return tx.Commit()
}

// TracksForPlaylist returns the cached tracks for a playlist in insertion order.
func (r *TrackCacheRepository) TracksForPlaylist(playlistID string) ([]game.Track, error) {
	query := `
		SELECT track_id, title, artist, year, uri, COALESCE(album_art, '')
		FROM cached_tracks
		WHERE playlist_id = ?
		ORDER BY created_at, rowid
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached tracks: %w", err)
	}
	defer rows.Close()

	var tracks []game.Track
	for rows.Next() {
		var t game.Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Year, &t.URI, &t.AlbumArt); err != nil {
			return nil, fmt.Errorf("failed to scan cached track: %w", err)
		}
		tracks = append(tracks, t)
	}

	return tracks, rows.Err()
}

// Stats reports cached playlist and track counts.
func (r *TrackCacheRepository) Stats() (playlists int, tracks int, err error) {
	if err = r.db.QueryRow("SELECT COUNT(DISTINCT playlist_id), COUNT(*) FROM cached_tracks").Scan(&playlists, &tracks); err != nil {
		return 0, 0, fmt.Errorf("failed to query cache stats: %w", err)
	}
	return playlists, tracks, nil
}

// Clear removes every cached track, or only one playlist's tracks when
// playlistID is non-empty.
func (r *TrackCacheRepository) Clear(playlistID string) (int64, error) {
	var res sql.Result
	var err error

	if playlistID == "" {
		res, err = r.db.Exec("DELETE FROM cached_tracks")
	} else {
		res, err = r.db.Exec("DELETE FROM cached_tracks WHERE playlist_id = ?", playlistID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}

	return res.RowsAffected()
}
