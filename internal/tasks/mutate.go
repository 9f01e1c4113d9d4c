package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/shared"
)

// TargetKind identifies the collection a mutation applies to.
type TargetKind int

const (
	LikedSongs TargetKind = iota
	ExistingPlaylist
	NewPlaylist
)

// Target is liked songs, an existing playlist, or a playlist to create by name.
type Target struct {
	Kind       TargetKind
	PlaylistID string
	Name       string
}

// Liked targets the user's liked songs.
func Liked() Target { return Target{Kind: LikedSongs} }

// Playlist targets an existing playlist.
func Playlist(id string) Target { return Target{Kind: ExistingPlaylist, PlaylistID: id} }

// CreatePlaylistNamed targets a playlist that is created before the mutation.
func CreatePlaylistNamed(name string) Target { return Target{Kind: NewPlaylist, Name: name} }

func (t Target) String() string {
	switch t.Kind {
	case LikedSongs:
		return "liked songs"
	case ExistingPlaylist:
		return "playlist " + t.PlaylistID
	case NewPlaylist:
		return fmt.Sprintf("new playlist %q", t.Name)
	default:
		return "unknown target"
	}
}

// Validate checks that t names a usable collection for op.
func (t Target) Validate(op Operation) error {
	switch t.Kind {
	case LikedSongs:
		return nil
	case ExistingPlaylist:
		if strings.TrimSpace(t.PlaylistID) == "" {
			return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
		}
		return nil
	case NewPlaylist:
		if op == Remove {
			return fmt.Errorf("%w: cannot remove tracks from a playlist that does not exist yet", shared.ErrInvalidArgument)
		}
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: playlist id or name", shared.ErrMissingArgument)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", shared.ErrUnknownTarget, t.Kind)
	}
}

// Operation is add or remove.
type Operation int

const (
	Add Operation = iota
	Remove
)

func (o Operation) String() string {
	if o == Remove {
		return "remove"
	}
	return "add"
}

// MutationResult describes what a mutation did.
type MutationResult struct {
	Target    Target // Effective target; a created playlist becomes an ExistingPlaylist target
	Operation Operation
	Requested int              // Distinct ids asked for; identical across repeated calls
	Applied   int              // Distinct ids sent to the provider
	Skipped   int              // Distinct ids already present (add to existing playlist only)
	Created   *models.Playlist // Playlist created for this mutation, if any
}

// Mutate applies op for ids against target.
//
// A NewPlaylist target is created first and replaced by the created playlist's id; creation
// failure aborts before any track is touched. The id set is de-duplicated and sent as one
// bulk capability call, so re-applying the same ids leaves the target unchanged.
//
// Repeating an add to an existing playlist reports the same Requested count, but the ids
// already present move from Applied to Skipped.
func (e *Engine) Mutate(ctx context.Context, target Target, op Operation, ids []string) (*MutationResult, error) {
	return e.mutate(ctx, target, op, ids, nil)
}

func (e *Engine) mutate(ctx context.Context, target Target, op Operation, ids []string, progress chan<- ProgressUpdate) (*MutationResult, error) {
	if err := target.Validate(op); err != nil {
		return nil, err
	}

	result := &MutationResult{Target: target, Operation: op}
	unique := dedupe(ids)
	result.Requested = len(unique)

	if target.Kind == NewPlaylist {
		sendProgress(progress, createPlaylistUpdate(target.Name))
		pl, err := e.catalog.CreatePlaylist(ctx, target.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", shared.ErrCreatePlaylist, target.Name, err)
		}
		sendProgress(progress, playlistCreatedUpdate(pl))
		e.logger.Info("playlist created", "playlist_id", pl.ID, "name", pl.Name)

		result.Created = pl
		result.Target = Playlist(pl.ID)
		result.Target.Name = pl.Name
	} else if target.Kind == ExistingPlaylist && op == Add {
		existing, err := e.fetchAll(ctx, target.PlaylistID, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", shared.ErrMutation, target, err)
		}
		missing := without(unique, existing.IDs())
		result.Skipped = len(unique) - len(missing)
		unique = missing
	}

	result.Applied = len(unique)
	if len(unique) == 0 && result.Target.Kind == ExistingPlaylist {
		e.logger.Info("nothing to apply", "target", result.Target.String(), "skipped", result.Skipped)
		return result, nil
	}

	sendProgress(progress, mutationUpdate(result.Target, op, len(unique)))
	if err := e.apply(ctx, result.Target, op, unique); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrMutation, op, result.Target, err)
	}

	e.logger.Info("mutation applied", "target", result.Target.String(), "operation", op.String(), "applied", result.Applied, "skipped", result.Skipped)
	return result, nil
}

func (e *Engine) apply(ctx context.Context, target Target, op Operation, ids []string) error {
	switch {
	case target.Kind == LikedSongs && op == Add:
		return e.catalog.AddToLiked(ctx, ids)
	case target.Kind == LikedSongs && op == Remove:
		return e.catalog.RemoveFromLiked(ctx, ids)
	case op == Add:
		return e.catalog.AddToPlaylist(ctx, target.PlaylistID, ids)
	default:
		return e.catalog.RemoveFromPlaylist(ctx, target.PlaylistID, ids)
	}
}

// dedupe keeps the first occurrence of each id.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func without(ids, present []string) []string {
	have := make(map[string]bool, len(present))
	for _, id := range present {
		have[id] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !have[id] {
			out = append(out, id)
		}
	}
	return out
}
