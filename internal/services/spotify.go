// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/tuneline/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyPlaylistItem represents a track within a playlist context.
//
// Track is a pointer because Spotify returns null entries for removed or
// region-locked tracks.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedItems represents a paginated response of playlist items.
type SpotifyPaginatedItems struct {
	Items    []SpotifyPlaylistItem `json:"items"`
	Total    int                   `json:"total"`
	Limit    int                   `json:"limit"`
	Offset   int                   `json:"offset"`
	Next     *string               `json:"next"`
	Previous *string               `json:"previous"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       owner               `json:"owner"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	Images      []SpotifyImage      `json:"images"`
	URI         string              `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

// SpotifyService implements [Catalog] against the Spotify Web API.
//
// Authentication uses the PKCE authorization-code flow via [oauth2]; the
// token is held by the service instance, never in package-level state.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	verifier   string
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given client ID
// and redirect URI. A fresh PKCE code verifier is generated per instance.
func NewSpotifyService(clientID, redirectURI string) (*SpotifyService, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-read-private",
			"playlist-read-collaborative",
			"user-modify-playback-state",
			"user-read-playback-state",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		verifier:   oauth2.GenerateVerifier(),
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login,
// carrying the S256 code challenge derived from this instance's verifier.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(s.verifier))
}

// GetOAuthConfig returns the OAuth2 config for callback handling.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// ExchangeOptions returns the PKCE verifier option required to redeem an auth code.
func (s *SpotifyService) ExchangeOptions() []oauth2.AuthCodeOption {
	return []oauth2.AuthCodeOption{oauth2.VerifierOption(s.verifier)}
}

// OAuthenticate installs a previously obtained token on the service.
//
// The token source handles refresh transparently; a refresh failure surfaces
// as [shared.ErrSessionExpired] from the next request.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrMissingCredentials)
	}
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
	return nil
}

// statusError carries the HTTP status of a failed Spotify response so call
// sites can classify it. Player endpoints reuse 403/404 for device problems,
// so classification differs between catalog and transport calls.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("spotify returned status %d", e.status)
}

// classifyCatalog maps catalog-endpoint failures onto sentinels. 401/403
// wrap [shared.ErrSessionExpired] so callers force a session reset instead
// of retrying.
func classifyCatalog(err error) error {
	var se *statusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}

// classifyTransport maps player-endpoint failures onto playback sentinels.
// Spotify uses 404 for "no active device" and 403 for restricted accounts.
func classifyTransport(err error) error {
	var se *statusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", shared.ErrNoActiveDevice, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %v", shared.ErrPlaybackForbidden, err)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}

// doRequest performs an authenticated HTTP request to the Spotify API.
// Non-2xx responses come back as a *statusError for classification.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call OAuthenticate first", shared.ErrAuthFailed)
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{status: resp.StatusCode}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, classifyCatalog(err)
	}
	return &user, nil
}

// ListPlaylists retrieves a page of the user's playlists.
func (s *SpotifyService) ListPlaylists(ctx context.Context, limit, offset int) (*PlaylistPage, error) {
	limit = clampLimit(limit)

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, classifyCatalog(err)
	}

	page := &PlaylistPage{Total: response.Total}
	for _, sp := range response.Items {
		page.Items = append(page.Items, Playlist{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			TrackCount:  sp.Tracks.Total,
			Public:      sp.Public,
		})
	}

	return page, nil
}

// ListTracks retrieves a page of raw playlist items for a playlist.
func (s *SpotifyService) ListTracks(ctx context.Context, playlistID string, limit, offset int) (*TrackPage, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist ID required", shared.ErrMissingArgument)
	}
	limit = clampLimit(limit)

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)

	var response SpotifyPaginatedItems
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, classifyCatalog(err)
	}

	page := &TrackPage{Total: response.Total}
	for _, item := range response.Items {
		page.Items = append(page.Items, convertItem(item))
	}

	return page, nil
}

// Play starts or resumes playback on the user's active device.
//
// A 404 means no active device; 403 means the account cannot be controlled
// (e.g., not premium). Both are transient playback errors.
func (s *SpotifyService) Play(ctx context.Context, spec PlaySpec) error {
	payload := map[string]any{}
	switch {
	case spec.TrackRef != "":
		payload["uris"] = []string{spec.TrackRef}
	case spec.ContextRef != "":
		payload["context_uri"] = spec.ContextRef
	default:
		return fmt.Errorf("%w: play spec requires a track or context ref", shared.ErrInvalidArgument)
	}

	err := s.doRequest(ctx, http.MethodPut, "/me/player/play", payload, nil)
	return classifyTransport(err)
}

// Pause pauses playback on the user's active device.
func (s *SpotifyService) Pause(ctx context.Context) error {
	err := s.doRequest(ctx, http.MethodPut, "/me/player/pause", nil, nil)
	return classifyTransport(err)
}

func convertItem(item SpotifyPlaylistItem) PlaylistItem {
	converted := PlaylistItem{AddedAt: item.AddedAt}
	if item.Track == nil {
		return converted
	}

	raw := &RawTrack{
		ID:   item.Track.ID,
		Name: item.Track.Name,
		URI:  item.Track.URI,
		Album: RawAlbum{
			Name:        item.Track.Album.Name,
			ReleaseDate: item.Track.Album.ReleaseDate,
		},
	}
	for _, artist := range item.Track.Artists {
		raw.Artists = append(raw.Artists, RawArtist{Name: artist.Name})
	}
	for _, img := range item.Track.Album.Images {
		raw.Album.Images = append(raw.Album.Images, Image{URL: img.URL, Height: img.Height, Width: img.Width})
	}

	converted.Track = raw
	return converted
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}
