package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/services"
	"github.com/desertthunder/textify/internal/shared"
	"github.com/desertthunder/textify/internal/tasks"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// Backend is everything the API needs from a provider for one caller.
type Backend interface {
	services.Catalog
	services.Account
}

// BackendFunc binds a provider client to a caller's bearer token.
type BackendFunc func(ctx context.Context, accessToken string) (Backend, error)

// API serves the JSON action endpoints.
type API struct {
	backend BackendFunc
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewAPI creates an API. The limiter is shared by all requests; nil disables throttling.
func NewAPI(backend BackendFunc, limiter *rate.Limiter, logger *log.Logger) *API {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &API{backend: backend, limiter: limiter, logger: logger}
}

// ActionRequest is the body accepted by the mutation endpoints.
type ActionRequest struct {
	Text       string `json:"text"`
	PlaylistID string `json:"playlist_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// TracksResponse is returned by GET /playlist-tracks.
type TracksResponse struct {
	PlaylistID string              `json:"playlist_id"`
	Total      int                 `json:"total"`
	Tracks     models.TrackListing `json:"tracks"`
}

type errorBody struct {
	Error   string               `json:"error"`
	Summary *tasks.ActionSummary `json:"summary,omitempty"`
}

// Register adds the API routes to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodPost, "/liked/add", a.action(func(ctx context.Context, e *tasks.Engine, req ActionRequest) (*tasks.ActionSummary, error) {
		return e.AddToLiked(ctx, req.Text, nil)
	}))
	r.Handle(http.MethodPost, "/liked/remove", a.action(func(ctx context.Context, e *tasks.Engine, req ActionRequest) (*tasks.ActionSummary, error) {
		return e.RemoveFromLiked(ctx, req.Text, nil)
	}))
	r.Handle(http.MethodPost, "/playlist/add", a.action(func(ctx context.Context, e *tasks.Engine, req ActionRequest) (*tasks.ActionSummary, error) {
		return e.AddToPlaylist(ctx, req.Text, tasks.PlaylistSelection{ID: req.PlaylistID, NewName: req.Name}, nil)
	}))
	r.Handle(http.MethodPost, "/playlist/remove", a.action(func(ctx context.Context, e *tasks.Engine, req ActionRequest) (*tasks.ActionSummary, error) {
		return e.RemoveFromPlaylist(ctx, req.Text, req.PlaylistID, nil)
	}))
	r.Handle(http.MethodGet, "/playlist-tracks", http.HandlerFunc(a.playlistTracks))
	r.Handle(http.MethodGet, "/playlists", http.HandlerFunc(a.playlists))
	r.Handle(http.MethodGet, "/profile", http.HandlerFunc(a.profile))
}

type actionFunc func(ctx context.Context, e *tasks.Engine, req ActionRequest) (*tasks.ActionSummary, error)

func (a *API) action(fn actionFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backend, logger, err := a.bind(r)
		if err != nil {
			writeError(w, err, nil)
			return
		}

		var req ActionRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, fmt.Errorf("%w: request body: %v", shared.ErrInvalidInput, err), nil)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, fmt.Errorf("%w: text", shared.ErrMissingArgument), nil)
			return
		}

		engine := tasks.NewEngine(backend, tasks.EngineOpts{Logger: logger, Limiter: a.limiter})
		summary, err := fn(r.Context(), engine, req)
		if err != nil {
			logger.Warn("action failed", "path", r.URL.Path, "err", err)
			writeError(w, err, summary)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	})
}

func (a *API) playlistTracks(w http.ResponseWriter, r *http.Request) {
	backend, logger, err := a.bind(r)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	playlistID := r.URL.Query().Get("playlist_id")
	engine := tasks.NewEngine(backend, tasks.EngineOpts{Logger: logger, Limiter: a.limiter})
	listing, err := engine.PlaylistTracks(r.Context(), playlistID, nil)
	if err != nil {
		logger.Warn("fetch failed", "playlist_id", playlistID, "err", err)
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, TracksResponse{PlaylistID: playlistID, Total: len(listing), Tracks: listing})
}

func (a *API) playlists(w http.ResponseWriter, r *http.Request) {
	backend, _, err := a.bind(r)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	playlists, err := backend.Playlists(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

func (a *API) profile(w http.ResponseWriter, r *http.Request) {
	backend, _, err := a.bind(r)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	user, err := backend.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) bind(r *http.Request) (Backend, *log.Logger, error) {
	token := BearerToken(r)
	if token == "" {
		return nil, nil, fmt.Errorf("%w: missing bearer token", shared.ErrNotAuthenticated)
	}
	backend, err := a.backend(r.Context(), token)
	if err != nil {
		return nil, nil, err
	}
	return backend, LoggerFrom(r.Context(), a.logger), nil
}

// BearerToken extracts the caller's token from the Authorization header or the access_token query parameter.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

// StatusFor maps a wrapped sentinel error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrMissingCredentials),
		errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrPlaylistNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrNoValidTracks):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrUnknownTarget),
		errors.Is(err, shared.ErrInvalidAuthState), errors.Is(err, shared.ErrAuthorizationDeny):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error, summary *tasks.ActionSummary) {
	writeJSON(w, StatusFor(err), errorBody{Error: err.Error(), Summary: summary})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
