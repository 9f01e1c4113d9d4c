package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed        = fmt.Errorf("authentication failed")
	ErrNotAuthenticated  = fmt.Errorf("not authenticated")
	ErrPermissionDenied  = fmt.Errorf("permission denied")
	ErrTimeout           = fmt.Errorf("operation timed out")
	ErrInvalidAuthState  = fmt.Errorf("invalid oauth state")
	ErrAuthorizationDeny = fmt.Errorf("authorization denied")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Action outcomes
	ErrNoValidTracks  = fmt.Errorf("no valid tracks found in input")
	ErrCreatePlaylist = fmt.Errorf("failed to create playlist")
	ErrMutation       = fmt.Errorf("failed to apply track changes")
	ErrPagination     = fmt.Errorf("failed to fetch playlist tracks")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrUnknownTarget   = fmt.Errorf("unknown target")
)
