package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/textify/internal/shared"
)

// Editor is a full-screen paste area. ctrl+s submits, esc or ctrl+c cancels.
type Editor struct {
	title     string
	area      textarea.Model
	keys      keyMap
	help      help.Model
	cancelled bool
}

var _ tea.Model = (*Editor)(nil)

// NewEditor creates an editor pre-filled with initial.
func NewEditor(title, initial string) *Editor {
	return &Editor{
		title: title,
		area:  newTextArea(initial),
		keys:  newKeyMap(),
		help:  help.New(),
	}
}

func newTextArea(initial string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Paste songs here, one per line\nBlinding Lights by The Weeknd\nShape of You - Ed Sheeran"
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = true
	ta.SetWidth(80)
	ta.SetHeight(15)
	ta.SetValue(initial)
	ta.Focus()
	return ta
}

func (e *Editor) Init() tea.Cmd {
	return textarea.Blink
}

func (e *Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.area.SetWidth(msg.Width - 4)
		e.area.SetHeight(max(msg.Height-8, 3))
		return e, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, e.keys.submit):
			return e, tea.Quit
		case key.Matches(msg, e.keys.back), msg.String() == "ctrl+c":
			e.cancelled = true
			return e, tea.Quit
		}
	}

	var cmd tea.Cmd
	e.area, cmd = e.area.Update(msg)
	return e, cmd
}

func (e *Editor) View() string {
	helpView := e.help.ShortHelpView([]key.Binding{e.keys.submit, e.keys.back})
	return fmt.Sprintf("%s\n%s\n\n%s", Styles.Title(e.title), e.area.View(), helpView)
}

// Value returns the current text.
func (e *Editor) Value() string { return e.area.Value() }

// Cancelled reports whether the user left without submitting.
func (e *Editor) Cancelled() bool { return e.cancelled }

// Edit runs an [Editor] on in/out and returns the submitted text.
func Edit(ctx context.Context, title, initial string, in io.Reader, out io.Writer) (string, error) {
	editor := NewEditor(title, initial)
	p := tea.NewProgram(editor, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return "", fmt.Errorf("editor failed: %w", err)
	}
	if editor.Cancelled() {
		return "", fmt.Errorf("%w: edit cancelled", shared.ErrInvalidInput)
	}
	return editor.Value(), nil
}
