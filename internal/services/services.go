// package services defines the Catalog interface for streaming providers
//
// Spotify is the only provider implemented today.
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Catalog defines the music catalog and playback transport operations the
// game engine consumes. Both track listings and playlist listings are
// paginated; callers advance offset until Total is reached.
type Catalog interface {
	// ListPlaylists retrieves a page of the authenticated user's playlists.
	ListPlaylists(ctx context.Context, limit, offset int) (*PlaylistPage, error)

	// ListTracks retrieves a page of raw playlist items for a playlist.
	ListTracks(ctx context.Context, playlistID string, limit, offset int) (*TrackPage, error)

	// Play starts or resumes playback on the user's active device.
	Play(ctx context.Context, spec PlaySpec) error

	// Pause pauses playback on the user's active device.
	Pause(ctx context.Context) error

	// Name returns the provider name (e.g., "Spotify")
	Name() string
}

// OAuthService is implemented by providers that authenticate via an OAuth2
// authorization-code flow with PKCE.
type OAuthService interface {
	// GetAuthURL returns the provider authorization URL for the given CSRF state.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth2 config for callback handling.
	GetOAuthConfig() *oauth2.Config

	// ExchangeOptions returns the options (code verifier) required to redeem an auth code.
	ExchangeOptions() []oauth2.AuthCodeOption

	// OAuthenticate installs a previously obtained token on the service.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}

// Playlist represents a playlist summary from the provider
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Public      bool
}

// PlaylistPage is one page of a paginated playlist listing.
type PlaylistPage struct {
	Items []Playlist
	Total int
}

// PlaylistItem wraps a raw track within a playlist context.
// The track pointer may be nil for items the provider can no longer resolve.
type PlaylistItem struct {
	AddedAt string
	Track   *RawTrack
}

// TrackPage is one page of a paginated playlist-item listing.
type TrackPage struct {
	Items []PlaylistItem
	Total int
}

// RawTrack is provider track metadata before game normalization.
type RawTrack struct {
	ID      string
	Name    string
	Artists []RawArtist
	Album   RawAlbum
	URI     string
}

// RawArtist is provider artist metadata.
type RawArtist struct {
	Name string
}

// RawAlbum is provider album metadata. ReleaseDate is the provider's
// string form (YYYY, YYYY-MM, or YYYY-MM-DD).
type RawAlbum struct {
	Name        string
	ReleaseDate string
	Images      []Image
}

// Image represents an image resource.
type Image struct {
	URL    string
	Height int
	Width  int
}

// PlaySpec identifies what to play: a single track reference or a context
// (album/playlist) reference. Exactly one should be set.
type PlaySpec struct {
	TrackRef   string
	ContextRef string
}
