// package game implements the music-timeline guessing game: track
// normalization, fuzzy guess matching, placement options, scoring, and the
// turn state machine.
package game

import (
	"regexp"
	"strconv"

	"github.com/desertthunder/tuneline/internal/services"
)

// Track is an immutable playable card: a song with a known release year.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Year     int    `json:"year"`
	URI      string `json:"uri"`
	AlbumArt string `json:"album_art,omitempty"`
}

// releaseDatePattern accepts YYYY, YYYY-MM, and YYYY-MM-DD.
var releaseDatePattern = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)

// NormalizeTracks converts raw playlist items into game tracks, dropping
// items with a missing track, missing or malformed release date, missing
// playable URI, or an unparseable release year. Input order is preserved
// for surviving items.
func NormalizeTracks(items []services.PlaylistItem) []Track {
	var tracks []Track

	for _, item := range items {
		raw := item.Track
		if raw == nil || raw.URI == "" {
			continue
		}
		if !releaseDatePattern.MatchString(raw.Album.ReleaseDate) {
			continue
		}

		year, err := strconv.Atoi(raw.Album.ReleaseDate[:4])
		if err != nil {
			continue
		}

		track := Track{
			ID:     raw.ID,
			Title:  raw.Name,
			Artist: "Unknown Artist",
			Year:   year,
			URI:    raw.URI,
		}
		if len(raw.Artists) > 0 {
			track.Artist = raw.Artists[0].Name
		}
		if len(raw.Album.Images) > 0 {
			track.AlbumArt = raw.Album.Images[0].URL
		}

		tracks = append(tracks, track)
	}

	return tracks
}
