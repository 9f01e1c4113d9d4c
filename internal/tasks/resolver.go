package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/services"
	"github.com/desertthunder/textify/internal/shared"
	"golang.org/x/time/rate"
)

// Resolver reduces a parsed line to at most one catalog identifier.
type Resolver struct {
	searcher services.Searcher
	limiter  *rate.Limiter
}

// NewResolver creates a resolver. A nil limiter disables throttling.
func NewResolver(searcher services.Searcher, limiter *rate.Limiter) *Resolver {
	return &Resolver{searcher: searcher, limiter: limiter}
}

// Resolve issues exactly one ranked search for q and accepts the top candidate.
//
// Every failure, including throttling and transport errors, is reported as [shared.ErrTrackNotFound]
// with the underlying cause attached as text only.
func (r *Resolver) Resolve(ctx context.Context, q models.ParsedQuery) (models.ResolvedTrack, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return models.ResolvedTrack{}, fmt.Errorf("%w: %q: %v", shared.ErrTrackNotFound, q.RawLine, err)
		}
	}

	tracks, err := r.searcher.SearchTracks(ctx, q.SearchText, 1)
	if err != nil {
		return models.ResolvedTrack{}, fmt.Errorf("%w: %q: %v", shared.ErrTrackNotFound, q.RawLine, err)
	}
	if len(tracks) == 0 || tracks[0].ID == "" {
		return models.ResolvedTrack{}, fmt.Errorf("%w: %q: no results", shared.ErrTrackNotFound, q.RawLine)
	}
	return models.ResolvedTrack{ID: tracks[0].ID}, nil
}
