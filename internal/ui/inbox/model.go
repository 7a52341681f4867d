// Package inbox renders the bucketed notification list.
package inbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/theme"
)

// Loader produces the bucketed inbox. *feed.Aggregator satisfies it.
type Loader interface {
	Load(ctx context.Context) ([]model.Bucket, error)
}

// LoadedMsg carries the result of a load started by Reload.
type LoadedMsg struct {
	Seq     int
	Buckets []model.Bucket
}

type row struct {
	key  string
	text string
}

// Model is the inbox view: one section per bucket, scrolled with a
// viewport.
type Model struct {
	loader   Loader
	viewport viewport.Model
	spinner  spinner.Model
	now      func() time.Time

	buckets []model.Bucket
	rows    []row
	loading bool
	seq     int
	cancel  context.CancelFunc

	width  int
	height int
}

// New creates an inbox view reading from l.
func New(l Loader, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		loader:   l,
		viewport: viewport.New(width, height),
		spinner:  sp,
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// WithClock replaces time.Now for relative times.
func (m Model) WithClock(now func() time.Time) Model {
	m.now = now
	return m
}

// Reload starts a fresh load. A load still in flight is cancelled and its
// result ignored.
func (m *Model) Reload() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.seq++
	m.loading = true

	seq, l := m.seq, m.loader
	load := func() tea.Msg {
		buckets, err := l.Load(ctx)
		if err != nil {
			// Only cancellation; the view that asked is gone.
			return nil
		}
		return LoadedMsg{Seq: seq, Buckets: buckets}
	}
	return tea.Batch(m.spinner.Tick, load)
}

// Reset cancels any load and empties the view.
func (m *Model) Reset() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.seq++
	m.loading = false
	m.buckets = nil
	m.rows = nil
	m.viewport.SetContent("")
	m.viewport.GotoTop()
}

// Loading reports whether a load is in flight.
func (m Model) Loading() bool { return m.loading }

// Buckets returns the buckets on screen.
func (m Model) Buckets() []model.Bucket { return m.buckets }

// Count returns the number of notifications on screen.
func (m Model) Count() int { return model.CountNotifications(m.buckets) }

// RowKeys returns the rendering key of every row, top to bottom.
func (m Model) RowKeys() []string {
	keys := make([]string, len(m.rows))
	for i, r := range m.rows {
		keys[i] = r.key
	}
	return keys
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Seq != m.seq {
			return m, nil
		}
		m.loading = false
		m.cancel = nil
		m.buckets = msg.Buckets
		m.rows = m.buildRows()
		m.viewport.SetContent(m.renderRows())
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the inbox.
func (m Model) View() string {
	if m.loading && len(m.buckets) == 0 {
		return m.centered(m.spinner.View() + " Loading notifications...")
	}
	if len(m.buckets) == 0 {
		return m.centered("No notifications yet.\n\nNew activity shows up here.")
	}
	return m.viewport.View()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	if len(m.rows) > 0 {
		m.viewport.SetContent(m.renderRows())
	}
}

func (m Model) centered(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(s)
}

func (m Model) buildRows() []row {
	now := m.now()
	var rows []row
	for _, b := range m.buckets {
		rows = append(rows, row{
			key:  b.Title,
			text: theme.BucketHeaderStyle.Render(fmt.Sprintf("%s (%d)", b.Title, len(b.Notifications))),
		})
		for i, n := range b.Notifications {
			rows = append(rows, row{key: b.RowKey(i), text: renderNotification(n, now)})
		}
	}
	return rows
}

func (m Model) renderRows() string {
	lines := make([]string, len(m.rows))
	for i, r := range m.rows {
		lines[i] = r.text
	}
	return strings.Join(lines, "\n")
}

// renderNotification formats one row through the category table.
func renderNotification(n model.Notification, now time.Time) string {
	info := n.Category.Info()
	badge := theme.CategoryStyle(info.Color).Render(info.Label)

	when := ""
	if t, err := n.Time(); err == nil {
		when = theme.TimeStyle.Render(humanize.RelTime(t, now, "ago", "from now"))
	}

	return theme.RowStyle.Render(badge + " " + n.Summary() + "  " + when)
}
