package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/model"
)

// Palette is the set of colors every style is built from.
type Palette struct {
	Blue, Green, Yellow, Red, Magenta, Gray, White, Subtle, Border lipgloss.TerminalColor
}

// Adaptive color pairs (dark terminal value, light terminal value).
var defaultPalette = Palette{
	Blue:    lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"},
	Green:   lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"},
	Yellow:  lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"},
	Red:     lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"},
	Magenta: lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"},
	Gray:    lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"},
	White:   lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"},
	Subtle:  lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"},
	Border:  lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"},
}

// fixed pins every adaptive color of p to one side.
func fixed(p Palette, dark bool) Palette {
	pick := func(c lipgloss.TerminalColor) lipgloss.TerminalColor {
		a, ok := c.(lipgloss.AdaptiveColor)
		if !ok {
			return c
		}
		if dark {
			return lipgloss.Color(a.Dark)
		}
		return lipgloss.Color(a.Light)
	}
	return Palette{
		Blue: pick(p.Blue), Green: pick(p.Green), Yellow: pick(p.Yellow),
		Red: pick(p.Red), Magenta: pick(p.Magenta), Gray: pick(p.Gray),
		White: pick(p.White), Subtle: pick(p.Subtle), Border: pick(p.Border),
	}
}

// Categories stay distinguishable by label alone, so mono only keeps
// brightness.
var monoPalette = Palette{
	Blue:    lipgloss.AdaptiveColor{Dark: "#E9ECEF", Light: "#212529"},
	Green:   lipgloss.AdaptiveColor{Dark: "#CED4DA", Light: "#343A40"},
	Yellow:  lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#000000"},
	Red:     lipgloss.AdaptiveColor{Dark: "#FFFFFF", Light: "#000000"},
	Magenta: lipgloss.AdaptiveColor{Dark: "#ADB5BD", Light: "#495057"},
	Gray:    lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#6C757D"},
	White:   lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"},
	Subtle:  lipgloss.AdaptiveColor{Dark: "#343A40", Light: "#DEE2E6"},
	Border:  lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CED4DA"},
}

var palettes = map[string]Palette{
	model.ThemeDefault: defaultPalette,
	model.ThemeDark:    fixed(defaultPalette, true),
	model.ThemeLight:   fixed(defaultPalette, false),
	model.ThemeMono:    monoPalette,
}

// Colors of the active palette.
var (
	ColorBlue    lipgloss.TerminalColor
	ColorGreen   lipgloss.TerminalColor
	ColorYellow  lipgloss.TerminalColor
	ColorRed     lipgloss.TerminalColor
	ColorMagenta lipgloss.TerminalColor
	ColorGray    lipgloss.TerminalColor
	ColorWhite   lipgloss.TerminalColor
	ColorSubtle  lipgloss.TerminalColor
	ColorBorder  lipgloss.TerminalColor
)

var (
	// HeaderStyle is used for the application title bar.
	HeaderStyle lipgloss.Style

	// StatusBarStyle is used for the bottom status bar.
	StatusBarStyle lipgloss.Style

	// PanelStyle wraps overlay content such as help and the command palette.
	PanelStyle lipgloss.Style

	// BucketHeaderStyle renders an inbox section title.
	BucketHeaderStyle lipgloss.Style

	// RowStyle is the base style for a notification row.
	RowStyle lipgloss.Style

	// TimeStyle renders the relative receive time of a row.
	TimeStyle lipgloss.Style

	// HelpStyle is used for keyboard shortcut hints and help text.
	HelpStyle lipgloss.Style

	// ErrorStyle renders status-bar errors.
	ErrorStyle lipgloss.Style
)

var current string

func init() {
	use(model.ThemeDefault, defaultPalette)
}

// Apply switches every color and style to the named theme. An empty name
// selects the default theme. Call it before the program starts rendering.
func Apply(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = model.ThemeDefault
	}
	p, ok := palettes[name]
	if !ok {
		return fmt.Errorf("unknown theme %q (want one of %s)", name, strings.Join(model.Themes, ", "))
	}
	use(name, p)
	return nil
}

// Current returns the name of the active theme.
func Current() string { return current }

func use(name string, p Palette) {
	current = name

	ColorBlue = p.Blue
	ColorGreen = p.Green
	ColorYellow = p.Yellow
	ColorRed = p.Red
	ColorMagenta = p.Magenta
	ColorGray = p.Gray
	ColorWhite = p.White
	ColorSubtle = p.Subtle
	ColorBorder = p.Border

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Background(ColorBlue).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(ColorWhite).
		Background(ColorSubtle).
		Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	BucketHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorYellow).
		MarginTop(1).
		PaddingLeft(1)

	RowStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	TimeStyle = lipgloss.NewStyle().
		Foreground(ColorGray)

	HelpStyle = lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(ColorRed).
		Bold(true)
}

// CategoryStyle returns the badge style for a category color name from the
// category table.
func CategoryStyle(color string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch color {
	case "blue":
		return base.Foreground(ColorBlue)
	case "red":
		return base.Foreground(ColorRed)
	case "green":
		return base.Foreground(ColorGreen)
	case "magenta":
		return base.Foreground(ColorMagenta)
	case "yellow":
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}
