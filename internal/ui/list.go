package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/shared"
)

var (
	_ list.Item = actionItem{}
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// Action is a user-facing operation offered by the TUI.
type Action int

const (
	AddToLiked Action = iota
	RemoveFromLiked
	AddToPlaylist
	RemoveFromPlaylist
	ShowPlaylist
)

// Actions lists the TUI actions in menu order.
var Actions = []Action{AddToLiked, RemoveFromLiked, AddToPlaylist, RemoveFromPlaylist, ShowPlaylist}

func (a Action) String() string {
	switch a {
	case AddToLiked:
		return "Add to Liked Songs"
	case RemoveFromLiked:
		return "Remove from Liked Songs"
	case AddToPlaylist:
		return "Add to playlist"
	case RemoveFromPlaylist:
		return "Remove from playlist"
	case ShowPlaylist:
		return "Show playlist tracks"
	default:
		return ""
	}
}

// NeedsText reports whether the action resolves pasted lines.
func (a Action) NeedsText() bool { return a != ShowPlaylist }

// NeedsPlaylist reports whether the action targets a playlist.
func (a Action) NeedsPlaylist() bool {
	return a == AddToPlaylist || a == RemoveFromPlaylist || a == ShowPlaylist
}

// actionItem wraps [Action] to implement [list.Item].
type actionItem struct {
	action Action
}

func (i actionItem) FilterValue() string { return i.action.String() }
func (i actionItem) Title() string       { return i.action.String() }
func (i actionItem) Description() string {
	switch i.action {
	case AddToLiked, RemoveFromLiked:
		return "Paste songs, one per line"
	case AddToPlaylist:
		return "Paste songs, then pick or create a playlist"
	case RemoveFromPlaylist:
		return "Paste songs, then pick a playlist"
	default:
		return "List every track in a playlist"
	}
}

// playlistItem wraps [models.Playlist] to implement [list.Item]. The zero ID is the "new playlist" entry.
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) isNew() bool         { return i.playlist.ID == "" }
func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string {
	if i.isNew() {
		return "+ New playlist"
	}
	return i.playlist.Name
}
func (i playlistItem) Description() string {
	if i.isNew() {
		return "Create a playlist and add the matches to it"
	}
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Owner != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Owner)
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.track.DurationMS))
}
