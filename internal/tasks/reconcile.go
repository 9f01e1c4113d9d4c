package tasks

import (
	"context"

	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/parser"
)

type resolveFunc func(step int, q models.ParsedQuery) (models.ResolvedTrack, error)

// Reconcile resolves every non-blank line of raw, one at a time and in input order.
//
// It never fails: lines that do not resolve are kept verbatim in the outcome's unmatched lines.
func (e *Engine) Reconcile(ctx context.Context, raw string, progress chan<- ProgressUpdate) models.ResolutionOutcome {
	queries := parser.ParseAll(raw)
	total := len(queries)
	sendProgress(progress, resolveStartUpdate(total))

	outcome := foldOutcome(queries, func(step int, q models.ParsedQuery) (models.ResolvedTrack, error) {
		sendProgress(progress, resolveLineUpdate(step, total, q.RawLine))
		track, err := e.resolver.Resolve(ctx, q)
		if err != nil {
			e.logger.Debug("line unmatched", "line", q.RawLine, "split", q.HasParts(), "cause", err)
		}
		return track, err
	})

	e.logger.Info("lines resolved", "resolved", len(outcome.ResolvedIDs), "unmatched", len(outcome.UnmatchedLines))
	return outcome
}

// foldOutcome accumulates per-line results into a [models.ResolutionOutcome].
func foldOutcome(queries []models.ParsedQuery, resolve resolveFunc) models.ResolutionOutcome {
	var outcome models.ResolutionOutcome
	for i, q := range queries {
		if track, err := resolve(i+1, q); err == nil {
			outcome = outcome.Resolved(track.ID)
		} else {
			outcome = outcome.Unmatched(q.RawLine)
		}
	}
	return outcome
}
