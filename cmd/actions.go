package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/textify/internal/formatter"
	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/shared"
	"github.com/desertthunder/textify/internal/tasks"
	"github.com/desertthunder/textify/internal/ui"
	"github.com/urfave/cli/v3"
)

// LikedAdd resolves the pasted lines and saves the matches to liked songs.
func (r *Runner) LikedAdd(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, "Paste songs to like", func(text string, progress chan<- tasks.ProgressUpdate) (*tasks.ActionSummary, error) {
		return r.engine.AddToLiked(ctx, text, progress)
	})
}

// LikedRemove resolves the pasted lines and removes the matches from liked songs.
func (r *Runner) LikedRemove(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, "Paste songs to unlike", func(text string, progress chan<- tasks.ProgressUpdate) (*tasks.ActionSummary, error) {
		return r.engine.RemoveFromLiked(ctx, text, progress)
	})
}

// PlaylistAdd resolves the pasted lines and adds the matches to a playlist.
//
// --id selects an existing playlist; --name creates a new one.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	sel := tasks.PlaylistSelection{ID: cmd.String("id"), NewName: cmd.String("name")}
	if strings.TrimSpace(sel.ID) == "" && strings.TrimSpace(sel.NewName) == "" {
		return fmt.Errorf("%w: --id or --name is required", shared.ErrMissingArgument)
	}

	return r.runAction(ctx, cmd, "Paste songs to add", func(text string, progress chan<- tasks.ProgressUpdate) (*tasks.ActionSummary, error) {
		return r.engine.AddToPlaylist(ctx, text, sel, progress)
	})
}

// PlaylistRemove resolves the pasted lines and removes the matches from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String("id")
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: --id is required", shared.ErrMissingArgument)
	}

	return r.runAction(ctx, cmd, "Paste songs to remove", func(text string, progress chan<- tasks.ProgressUpdate) (*tasks.ActionSummary, error) {
		return r.engine.RemoveFromPlaylist(ctx, text, id, progress)
	})
}

// PlaylistTracks fetches every track of a playlist and renders it.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	id := cmd.String("id")
	if id == "" {
		id = cmd.StringArg("playlist")
	}

	var listing models.TrackListing
	err = r.withProgress(ctx, func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		listing, err = r.engine.PlaylistTracks(ctx, id, progress)
		return err
	})
	if err != nil {
		return err
	}

	title := cmd.String("title")
	if title == "" {
		title = id
	}

	if out := cmd.String("output"); out != "" {
		if err := formatter.WriteFile(out, format, title, listing); err != nil {
			return err
		}
		r.logger.Info("listing saved", "file", out, "tracks", len(listing))
		return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("✓ Saved %d tracks to %s", len(listing), out)))
	}
	return formatter.Write(r.output, format, title, listing)
}

// Playlists lists the current user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	playlists, err := r.service.Playlists(ctx)
	if err != nil {
		return err
	}

	if limit := cmd.Int("limit"); limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", ui.Styles.Title(fmt.Sprintf("Found %d playlists", len(playlists))))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
	}
	return nil
}

type actionFunc func(text string, progress chan<- tasks.ProgressUpdate) (*tasks.ActionSummary, error)

// runAction reads the pasted block, runs fn with progress rendering, and reports the summary.
func (r *Runner) runAction(ctx context.Context, cmd *cli.Command, title string, fn actionFunc) error {
	if err := r.requireService(); err != nil {
		return err
	}

	text, err := r.readInput(ctx, cmd, title)
	if err != nil {
		return err
	}

	var summary *tasks.ActionSummary
	err = r.withProgress(ctx, func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		summary, err = fn(text, progress)
		return err
	})
	return r.report(summary, err, cmd.Bool("json"))
}

// report prints summary (when present) and passes err through.
func (r *Runner) report(summary *tasks.ActionSummary, err error, asJSON bool) error {
	if summary == nil {
		return err
	}
	if asJSON {
		if werr := r.writeJSON(summary, true); werr != nil {
			return werr
		}
		return err
	}

	if err == nil {
		r.writePlain("%s\n", ui.Styles.OK("✓ "+ui.SummaryLine(summary)))
	} else if errors.Is(err, shared.ErrNoValidTracks) {
		r.writePlain("%s\n", ui.Styles.Warn("No lines matched a track; nothing was changed."))
	}

	if len(summary.UnmatchedLines) > 0 {
		r.writePlain("%s\n", ui.Styles.Warn(fmt.Sprintf("Unmatched (%d):", len(summary.UnmatchedLines))))
		for _, line := range summary.UnmatchedLines {
			r.writePlain("  • %s\n", line)
		}
	}
	return err
}
