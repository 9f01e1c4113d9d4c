package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgProgressUpdate
	MsgActionComplete
)

type playlistsFetched struct {
	playlists []models.Playlist
	err       error
}

type actionComplete struct {
	summary *tasks.ActionSummary
	listing models.TrackListing
	err     error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsFetched{playlists, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// actionCompleteMsg is the constructor for [MsgActionComplete]
func actionCompleteMsg(summary *tasks.ActionSummary, listing models.TrackListing, err error) Msg {
	return Msg{kind: MsgActionComplete, data: actionComplete{summary, listing, err}}
}
