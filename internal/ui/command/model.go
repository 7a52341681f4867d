package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/theme"
)

// CommandMsg carries a validated command out of the palette.
type CommandMsg Command

// CancelMsg is emitted when the palette is dismissed with esc.
type CancelMsg struct{}

// Model is the command palette. Only input that Parse accepts leaves the
// palette; anything else is reported inline and the palette stays open.
type Model struct {
	input  textinput.Model
	err    string
	width  int
	height int
}

// New creates a command palette that completes the inbox command names.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = strings.Join(Names(), ", ")
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Names())
	ti.Width = width - 6

	return Model{input: ti, width: width, height: height}
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			raw := m.input.Value()
			if strings.TrimSpace(raw) == "" {
				return m, nil
			}
			c, err := Parse(raw)
			if err != nil {
				m.err = err.Error()
				m.input.SetValue(strings.TrimSpace(raw))
				m.input.CursorEnd()
				return m, nil
			}
			m.reset()
			return m, func() tea.Msg { return CommandMsg(c) }
		case "esc":
			m.reset()
			return m, func() tea.Msg { return CancelMsg{} }
		}
		m.err = ""
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) reset() {
	m.input.Reset()
	m.err = ""
}

// Err returns the inline error for the last rejected input.
func (m Model) Err() string { return m.err }

// Value returns the current palette input.
func (m Model) Value() string { return m.input.Value() }

// View renders the palette: the input, then either the rejection or the
// command that would run.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var hint string
	switch {
	case m.err != "":
		hint = theme.ErrorStyle.Render(m.err)
	default:
		if c, err := Parse(m.input.Value()); err == nil {
			hint = theme.HelpStyle.Render(string(c) + ": " + c.Summary())
		} else {
			hint = theme.HelpStyle.Render("tab completes, enter runs, esc closes")
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Command Palette"),
		m.input.View(),
		"",
		hint)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
