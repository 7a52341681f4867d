// Package login is the sign-in form shown when no identity is stored.
package login

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/theme"
)

// SubmitMsg is dispatched when the form is completed.
type SubmitMsg struct {
	Identity string
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	identity string
}

// Model is the Bubble Tea model for the sign-in form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	err    string
	width  int
	height int
}

// New creates a sign-in form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start resets the form. errMsg, when set, is shown above it.
func (m *Model) Start(errMsg string) tea.Cmd {
	m.fb.identity = ""
	m.err = errMsg
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Identity").
				Description("The account this device receives notifications for.").
				Placeholder("user id").
				Value(&m.fb.identity).
				Validate(validateIdentity),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		id := strings.TrimSpace(m.fb.identity)
		m.form = nil
		return m, func() tea.Msg { return SubmitMsg{Identity: id} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Sign in")
	if m.err != "" {
		content += "\n" + theme.ErrorStyle.Render(m.err)
	}
	content += "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func validateIdentity(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("identity is required")
	}
	return nil
}
