package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/services"
	"github.com/desertthunder/textify/internal/shared"
	"github.com/desertthunder/textify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ActionView ViewState = iota
	PasteView
	PlaylistView
	NameView
	RunView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	account services.Account
	engine  *tasks.Engine
	width   int
	height  int

	actionList   list.Model
	editor       textarea.Model
	playlistList list.Model
	nameInput    textinput.Model

	action       Action
	text         string
	progressChan chan tasks.ProgressUpdate
	finished     chan actionComplete
	progress     tasks.ProgressUpdate
	done         *actionComplete
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, account services.Account, engine *tasks.Engine) *Model {
	items := make([]list.Item, len(Actions))
	for i, a := range Actions {
		items[i] = actionItem{action: a}
	}
	actions := list.New(items, list.NewDefaultDelegate(), 60, 20)
	actions.Title = "textify"

	name := textinput.New()
	name.Placeholder = "New playlist name"
	name.CharLimit = 100

	return &Model{
		ctx:          ctx,
		view:         ActionView,
		account:      account,
		engine:       engine,
		actionList:   actions,
		playlistList: list.New(nil, list.NewDefaultDelegate(), 60, 20),
		editor:       newTextArea(""),
		nameInput:    name,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init does nothing until an action is picked.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.actionList.SetSize(msg.Width-4, msg.Height-8)
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.editor.SetWidth(msg.Width - 4)
		m.editor.SetHeight(max(msg.Height-10, 3))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case ActionView:
			return m.handleActionKeys(msg)
		case PasteView:
			return m.handlePasteKeys(msg)
		case PlaylistView:
			return m.handlePlaylistKeys(msg)
		case NameView:
			return m.handleNameKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.err = data.err
			m.view = ResultView
			return m, nil
		}
		var items []list.Item
		if m.action == AddToPlaylist {
			items = append(items, playlistItem{})
		}
		for _, pl := range data.playlists {
			items = append(items, playlistItem{playlist: pl})
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), max(m.width-4, 40), max(m.height-8, 10))
		m.playlistList.Title = "Pick a playlist"
		m.view = PlaylistView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgActionComplete:
		data := msg.data.(actionComplete)
		m.done = &data
		m.err = data.err
		m.progressChan = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleActionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.actionList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.actionList.SelectedItem().(actionItem); ok {
				m.action = item.action
				if m.action.NeedsText() {
					m.view = PasteView
					return m, m.editor.Focus()
				}
				return m, m.fetchPlaylists()
			}
		}
	}

	var cmd tea.Cmd
	m.actionList, cmd = m.actionList.Update(msg)
	return m, cmd
}

func (m *Model) handlePasteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = ActionView
		return m, nil
	case key.Matches(msg, m.keys.submit):
		m.text = m.editor.Value()
		if strings.TrimSpace(m.text) == "" {
			return m, nil
		}
		if m.action.NeedsPlaylist() {
			return m, m.fetchPlaylists()
		}
		return m, m.start(tasks.PlaylistSelection{})
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			if m.action.NeedsText() {
				m.view = PasteView
			} else {
				m.view = ActionView
			}
			return m, nil
		case key.Matches(msg, m.keys.enter):
			item, ok := m.playlistList.SelectedItem().(playlistItem)
			if !ok {
				return m, nil
			}
			if item.isNew() {
				m.view = NameView
				return m, m.nameInput.Focus()
			}
			return m, m.start(tasks.PlaylistSelection{ID: item.playlist.ID})
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleNameKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			return m, nil
		}
		return m, m.start(tasks.PlaylistSelection{NewName: name})
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.reset()
		return m, nil
	}
	return m, nil
}

func (m *Model) reset() {
	m.view = ActionView
	m.text = ""
	m.done = nil
	m.err = nil
	m.progress = tasks.ProgressUpdate{}
	m.editor.Reset()
	m.nameInput.SetValue("")
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ActionView:
		m.actionList, cmd = m.actionList.Update(msg)
	case PasteView:
		m.editor, cmd = m.editor.Update(msg)
	case PlaylistView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case NameView:
		m.nameInput, cmd = m.nameInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.account.Playlists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

// start runs the chosen action in the background and subscribes to its progress.
func (m *Model) start(sel tasks.PlaylistSelection) tea.Cmd {
	m.view = RunView
	progress := make(chan tasks.ProgressUpdate, 50)
	m.progressChan = progress
	action, text := m.action, m.text

	done := make(chan actionComplete, 1)
	go func() {
		var res actionComplete
		switch action {
		case AddToLiked:
			res.summary, res.err = m.engine.AddToLiked(m.ctx, text, progress)
		case RemoveFromLiked:
			res.summary, res.err = m.engine.RemoveFromLiked(m.ctx, text, progress)
		case AddToPlaylist:
			res.summary, res.err = m.engine.AddToPlaylist(m.ctx, text, sel, progress)
		case RemoveFromPlaylist:
			res.summary, res.err = m.engine.RemoveFromPlaylist(m.ctx, text, sel.ID, progress)
		case ShowPlaylist:
			res.listing, res.err = m.engine.PlaylistTracks(m.ctx, sel.ID, progress)
		}
		done <- res
		close(progress)
	}()

	m.finished = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, finished := m.progressChan, m.finished
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		res := <-finished
		return actionCompleteMsg(res.summary, res.listing, res.err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ActionView:
		return fmt.Sprintf("%s\n\n%s", m.actionList.View(), m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit}))
	case PasteView:
		return m.renderPaste()
	case PlaylistView:
		return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit}))
	case NameView:
		return fmt.Sprintf("%s\n%s\n\n%s", Styles.Title("Name the new playlist"), m.nameInput.View(),
			m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back}))
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderPaste() string {
	title := Styles.Title(m.action.String())
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.back})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.editor.View(), helpView)
}

func (m *Model) renderRun() string {
	title := Styles.Title(m.action.String())

	var phase string
	switch m.progress.Phase {
	case tasks.ResolveLines:
		phase = fmt.Sprintf("Resolving lines (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CreatePlaylist:
		phase = "Creating playlist..."
	case tasks.ApplyMutation:
		phase = "Updating library..."
	case tasks.FetchTracks:
		phase = fmt.Sprintf("Fetching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Working..."
	}
	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, Styles.Help(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.done != nil && m.done.listing != nil && m.err == nil {
		return fmt.Sprintf("%s\n%s\n\n%s",
			Styles.Title(fmt.Sprintf("%d tracks", len(m.done.listing))),
			renderListing(m.done.listing, max(m.height-8, 5)),
			helpView)
	}

	var summary *tasks.ActionSummary
	if m.done != nil {
		summary = m.done.summary
	}

	var b strings.Builder
	switch {
	case errors.Is(m.err, shared.ErrNoValidTracks):
		b.WriteString(Styles.Warn("No valid tracks found. Nothing to do."))
	case m.err != nil:
		b.WriteString(Styles.Err(fmt.Sprintf("Failed: %v", m.err)))
	default:
		b.WriteString(Styles.OK(SummaryLine(summary)))
	}
	if summary != nil && len(summary.UnmatchedLines) > 0 {
		b.WriteString("\n\n" + Styles.Warn(fmt.Sprintf("Could not match %d lines:", len(summary.UnmatchedLines))))
		for _, line := range summary.UnmatchedLines {
			b.WriteString("\n  • " + line)
		}
	}
	return fmt.Sprintf("%s\n\n%s", b.String(), helpView)
}

// SummaryLine describes a successful action in one sentence.
func SummaryLine(s *tasks.ActionSummary) string {
	if s == nil {
		return "Done."
	}
	verb := "Added"
	prep := "to"
	if s.Operation == tasks.Remove {
		verb, prep = "Removed", "from"
	}
	line := fmt.Sprintf("%s %d of %d tracks %s %s", verb, s.Resolved, s.Resolved+s.Unmatched, prep, s.Target)
	if s.Created != nil {
		line = fmt.Sprintf("Created playlist %q. %s", s.Created.Name, line)
	}
	if s.Skipped > 0 {
		line += fmt.Sprintf(" (%d already present)", s.Skipped)
	}
	return line
}

func renderListing(listing models.TrackListing, limit int) string {
	var b strings.Builder
	for i, t := range listing {
		if i == limit {
			fmt.Fprintf(&b, "  … %d more\n", len(listing)-limit)
			break
		}
		item := trackItem{track: t}
		fmt.Fprintf(&b, "%3d. %s %s\n", i+1, item.Title(), Styles.Help(item.Description()))
	}
	return b.String()
}
