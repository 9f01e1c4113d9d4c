package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/shared"
)

const (
	pageSize = 100
	// Spotify caps playlists at 10,000 items.
	maxPages = 110
)

// FetchAll retrieves the complete track listing of a playlist.
func (e *Engine) FetchAll(ctx context.Context, playlistID string) (models.TrackListing, error) {
	return e.fetchAll(ctx, playlistID, nil)
}

// fetchAll requests page N+1 only after page N returned its continuation reference.
// Any failure discards what was fetched so far.
func (e *Engine) fetchAll(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) (models.TrackListing, error) {
	listing := models.TrackListing{}
	seen := map[string]bool{}
	cursor := ""

	for page := 1; page <= maxPages; page++ {
		p, err := e.catalog.ListTracks(ctx, playlistID, cursor, pageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d of playlist %s: %w", shared.ErrPagination, page, playlistID, err)
		}

		listing = append(listing, p.Items...)
		sendProgress(progress, fetchPageUpdate(page, len(listing), p.Total))

		if p.Next == "" {
			e.logger.Debug("playlist fetched", "playlist_id", playlistID, "pages", page, "tracks", len(listing))
			return listing, nil
		}
		if seen[p.Next] {
			return nil, fmt.Errorf("%w: playlist %s repeated continuation reference on page %d", shared.ErrPagination, playlistID, page)
		}
		seen[p.Next] = true
		cursor = p.Next
	}

	return nil, fmt.Errorf("%w: playlist %s exceeds %d pages", shared.ErrPagination, playlistID, maxPages)
}
