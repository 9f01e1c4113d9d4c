package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/services"
	"github.com/desertthunder/textify/internal/shared"
	"golang.org/x/time/rate"
)

// Engine runs the caller-facing actions against a catalog.
type Engine struct {
	catalog  services.Catalog
	resolver *Resolver
	logger   *log.Logger
}

// EngineOpts configures optional engine collaborators.
type EngineOpts struct {
	Logger  *log.Logger
	Limiter *rate.Limiter
}

// NewEngine creates an Engine bound to catalog.
func NewEngine(catalog services.Catalog, opts EngineOpts) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		catalog:  catalog,
		resolver: NewResolver(catalog, opts.Limiter),
		logger:   logger,
	}
}

// NewLimiter builds the search limiter from resolver settings. A non-positive rate disables limiting.
func NewLimiter(cfg shared.ResolverConfig) *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
}

// ActionSummary is the result of a resolve-and-mutate action.
type ActionSummary struct {
	Operation      Operation        `json:"-"`
	Target         string           `json:"target"`
	PlaylistID     string           `json:"playlist_id,omitempty"`
	Resolved       int              `json:"resolved"`
	Unmatched      int              `json:"unmatched"`
	UnmatchedLines []string         `json:"unmatched_lines"`
	Requested      int              `json:"requested"`
	Applied        int              `json:"applied"`
	Skipped        int              `json:"skipped"`
	Created        *models.Playlist `json:"created_playlist,omitempty"`
}

// PlaylistSelection is either an existing playlist id or a name for a playlist to create.
// The id wins when both are set.
type PlaylistSelection struct {
	ID      string
	NewName string
}

func (s PlaylistSelection) target() Target {
	if strings.TrimSpace(s.ID) != "" {
		return Playlist(strings.TrimSpace(s.ID))
	}
	return CreatePlaylistNamed(strings.TrimSpace(s.NewName))
}

// AddToLiked resolves text and saves the matches to liked songs.
func (e *Engine) AddToLiked(ctx context.Context, text string, progress chan<- ProgressUpdate) (*ActionSummary, error) {
	return e.run(ctx, text, Liked(), Add, progress)
}

// RemoveFromLiked resolves text and removes the matches from liked songs.
func (e *Engine) RemoveFromLiked(ctx context.Context, text string, progress chan<- ProgressUpdate) (*ActionSummary, error) {
	return e.run(ctx, text, Liked(), Remove, progress)
}

// AddToPlaylist resolves text and adds the matches to the selected playlist, creating it when only a name is given.
func (e *Engine) AddToPlaylist(ctx context.Context, text string, sel PlaylistSelection, progress chan<- ProgressUpdate) (*ActionSummary, error) {
	return e.run(ctx, text, sel.target(), Add, progress)
}

// RemoveFromPlaylist resolves text and removes the matches from a playlist.
func (e *Engine) RemoveFromPlaylist(ctx context.Context, text, playlistID string, progress chan<- ProgressUpdate) (*ActionSummary, error) {
	return e.run(ctx, text, Playlist(strings.TrimSpace(playlistID)), Remove, progress)
}

// PlaylistTracks fetches the full listing of a playlist.
func (e *Engine) PlaylistTracks(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) (models.TrackListing, error) {
	playlistID = strings.TrimSpace(playlistID)
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	return e.fetchAll(ctx, playlistID, progress)
}

// run validates the target, reconciles text, and mutates only when something resolved.
//
// When nothing resolves the summary is still returned alongside [shared.ErrNoValidTracks].
func (e *Engine) run(ctx context.Context, text string, target Target, op Operation, progress chan<- ProgressUpdate) (*ActionSummary, error) {
	if err := target.Validate(op); err != nil {
		return nil, err
	}

	outcome := e.Reconcile(ctx, text, progress)
	summary := &ActionSummary{
		Operation:      op,
		Target:         target.String(),
		PlaylistID:     target.PlaylistID,
		Resolved:       len(outcome.ResolvedIDs),
		Unmatched:      len(outcome.UnmatchedLines),
		UnmatchedLines: append([]string{}, outcome.UnmatchedLines...),
	}

	if outcome.Empty() {
		return summary, fmt.Errorf("%w: %d of %d lines matched", shared.ErrNoValidTracks, 0, outcome.Total())
	}

	result, err := e.mutate(ctx, target, op, outcome.ResolvedIDs, progress)
	if err != nil {
		return summary, err
	}

	summary.Target = result.Target.String()
	summary.PlaylistID = result.Target.PlaylistID
	summary.Requested = result.Requested
	summary.Applied = result.Applied
	summary.Skipped = result.Skipped
	summary.Created = result.Created
	return summary, nil
}
