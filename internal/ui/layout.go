package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the title bar with the signed-in identity on the
// right.
func (l Layout) RenderHeader(title, right string) string {
	return fill(theme.HeaderStyle, l.Width, title, right)
}

// RenderStatusBar renders the bottom bar with keyboard hints and an
// optional message on the right.
func (l Layout) RenderStatusBar(hints, message string) string {
	return fill(theme.StatusBarStyle, l.Width, hints, message)
}

// RenderWithFrame vertically joins header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// fill renders left and right in style, padding between them to width.
func fill(style lipgloss.Style, width int, left, right string) string {
	l := style.Render(left)
	r := ""
	if right != "" {
		r = style.Render(right)
	}

	gap := width - lipgloss.Width(l) - lipgloss.Width(r)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, l, filler, r)
}
