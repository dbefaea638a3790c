package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrSessionExpired = fmt.Errorf("session expired")
	ErrTimeout        = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Playback errors, surfaced to the player but never fatal to a turn
	ErrNoActiveDevice    = fmt.Errorf("no active playback device")
	ErrPlaybackForbidden = fmt.Errorf("playback not permitted")

	// Game setup validation errors
	ErrInvalidName        = fmt.Errorf("invalid player name")
	ErrDuplicateName      = fmt.Errorf("player name already exists")
	ErrMaxPlayers         = fmt.Errorf("maximum players reached")
	ErrNoPlayers          = fmt.Errorf("no players added")
	ErrNoPlaylist         = fmt.Errorf("no playlist selected")
	ErrInsufficientTracks = fmt.Errorf("not enough playable tracks")

	// Game state errors
	ErrGameState = fmt.Errorf("operation not valid in current game state")
	ErrBusy      = fmt.Errorf("another operation is in progress")
	ErrInternal  = fmt.Errorf("internal game state inconsistency")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
