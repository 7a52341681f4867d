// Package app wires the inbox views into the root Bubble Tea model.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inbox/internal/identity"
	"github.com/nhle/inbox/internal/ingest"
	"github.com/nhle/inbox/internal/keys"
	"github.com/nhle/inbox/internal/ui"
	"github.com/nhle/inbox/internal/ui/command"
	helpview "github.com/nhle/inbox/internal/ui/help"
	"github.com/nhle/inbox/internal/ui/inbox"
	"github.com/nhle/inbox/internal/ui/login"
)

// Session is the identity provider the UI can also sign in and out of.
type Session interface {
	identity.Provider
	SignIn(id string) error
	SignOut() error
}

// Clearer removes every stored notification of an identity.
type Clearer interface {
	ClearAll(ctx context.Context, identity string) error
}

// PushListener delivers ingest.ReceivedMsg as new notifications arrive.
type PushListener interface {
	Start(identity string) error
	Stop()
	WaitForNext() tea.Cmd
}

// Options holds the collaborators of the root model. Listener may be nil
// when push delivery is disabled.
type Options struct {
	Loader   inbox.Loader
	Session  Session
	Store    Clearer
	Listener PushListener
	Logger   *slog.Logger
}

// identityMsg reports the signed-in identity after startup, sign-in or
// sign-out.
type identityMsg struct {
	id  string
	ok  bool
	err error
}

// clearedMsg is sent after the stored notifications were removed.
type clearedMsg struct {
	err error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewHelp
	ViewCommand
	ViewLogin
)


// Model is the root Bubble Tea model that manages view routing and layout.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	opts         Options
	logger       *slog.Logger

	inboxView   inbox.Model
	helpView    helpview.Model
	commandView command.Model
	loginView   login.Model

	identity  string
	listening bool
	status    string
	ready     bool
}

// New creates the root application model.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return Model{
		currentView: ViewInbox,
		keys:        k,
		opts:        opts,
		logger:      logger,
		inboxView:   inbox.New(opts.Loader, 80, 22),
		helpView:    helpview.New(k, command.Names(), 80, 22),
		commandView: command.New(80, 22),
		loginView:   login.New(80, 22),
	}
}

// Init looks up the signed-in identity.
func (m Model) Init() tea.Cmd {
	return m.checkIdentity()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.inboxView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.loginView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case identityMsg:
		return m.handleIdentity(msg)

	case ingest.ReceivedMsg:
		cmds := []tea.Cmd{m.opts.Listener.WaitForNext()}
		if msg.Identity == m.identity && m.identity != "" {
			cmds = append(cmds, m.inboxView.Reload())
		}
		return m, tea.Batch(cmds...)

	case inbox.LoadedMsg:
		var cmd tea.Cmd
		m.inboxView, cmd = m.inboxView.Update(msg)
		return m, cmd

	case clearedMsg:
		if msg.err != nil {
			m.status = "clear failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "inbox cleared"
		return m, m.inboxView.Reload()

	case login.SubmitMsg:
		return m, m.signIn(msg.Identity)

	case login.CancelMsg:
		return m.quit()

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(command.Command(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		// The login form owns every other key.
		if m.currentView == ViewLogin {
			break
		}
		if m.currentView == ViewCommand {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.currentView == ViewInbox {
				return m.quit()
			}

		case key.Matches(msg, m.keys.Back):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Command):
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()

		case key.Matches(msg, m.keys.Refresh):
			if m.currentView == ViewInbox {
				m.status = ""
				return m, m.inboxView.Reload()
			}

		case key.Matches(msg, m.keys.ClearAll):
			if m.currentView == ViewInbox {
				return m, m.clearAll()
			}

		case key.Matches(msg, m.keys.SignOut):
			if m.currentView == ViewInbox {
				return m, m.signOut()
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

func (m Model) handleIdentity(msg identityMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("identity unavailable", slog.String("error", msg.err.Error()))
	}

	if !msg.ok {
		m.identity = ""
		if m.opts.Listener != nil {
			m.opts.Listener.Stop()
		}
		m.inboxView.Reset()
		m.currentView = ViewLogin
		errText := ""
		if msg.err != nil {
			errText = msg.err.Error()
		}
		return m, m.loginView.Start(errText)
	}

	m.identity = msg.id
	m.currentView = ViewInbox
	m.status = ""

	cmds := []tea.Cmd{m.inboxView.Reload()}
	if m.opts.Listener != nil {
		if err := m.opts.Listener.Start(msg.id); err != nil {
			m.logger.Warn("push listener unavailable", slog.String("error", err.Error()))
			m.status = "push unavailable"
		} else if !m.listening {
			m.listening = true
			cmds = append(cmds, m.opts.Listener.WaitForNext())
		}
	}
	return m, tea.Batch(cmds...)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Inbox"
	if n := m.inboxView.Count(); n > 0 && m.currentView != ViewLogin {
		title = fmt.Sprintf("Inbox [%d]", n)
	}
	header := m.layout.RenderHeader(title, m.identity)
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.status)

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return m.inboxView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewLogin:
		return m.loginView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewLogin:
		return "enter sign in | ctrl+c quit"
	default:
		return "q quit | ? help | r reload | x clear | L sign out | j/k scroll"
	}
}

// executeCommand runs a command accepted by the command palette.
func (m Model) executeCommand(c command.Command) (tea.Model, tea.Cmd) {
	switch c {
	case command.Refresh:
		if m.identity == "" {
			return m, nil
		}
		return m, m.inboxView.Reload()
	case command.Clear:
		return m, m.clearAll()
	case command.Logout:
		return m, m.signOut()
	case command.Help:
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	case command.Quit:
		return m.quit()
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.inboxView.Reset()
	if m.opts.Listener != nil {
		m.opts.Listener.Stop()
	}
	return m, tea.Quit
}

// checkIdentity returns a command that reads the current identity.
func (m Model) checkIdentity() tea.Cmd {
	s := m.opts.Session
	return func() tea.Msg {
		id, ok, err := s.Current(context.Background())
		return identityMsg{id: id, ok: ok, err: err}
	}
}

func (m Model) signIn(id string) tea.Cmd {
	s := m.opts.Session
	return func() tea.Msg {
		if err := s.SignIn(id); err != nil {
			return identityMsg{err: err}
		}
		id, ok, err := s.Current(context.Background())
		return identityMsg{id: id, ok: ok, err: err}
	}
}

func (m Model) signOut() tea.Cmd {
	s := m.opts.Session
	return func() tea.Msg {
		if err := s.SignOut(); err != nil {
			return identityMsg{err: fmt.Errorf("signing out: %w", err)}
		}
		return identityMsg{}
	}
}

func (m Model) clearAll() tea.Cmd {
	if m.identity == "" {
		return nil
	}
	s, id := m.opts.Store, m.identity
	return func() tea.Msg {
		return clearedMsg{err: s.ClearAll(context.Background(), id)}
	}
}
