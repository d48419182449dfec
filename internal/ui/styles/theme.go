package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tasktrack/internal/models"
)

// Theme represents a color scheme for the board
type Theme struct {
	Name string

	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Background:    lipgloss.Color("#1a1b26"),
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7aa2f7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
}

// Current holds the active theme
var Current = TokyoNight

// MaxWidth is the widest the board grows
const MaxWidth = 100

// ContentWidth caps the terminal width at MaxWidth
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView centers content horizontally when the terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Clamp returns val clamped between lo and hi
func Clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Styles holds the pre-computed styles for the board
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	Panel lipgloss.Style

	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	Badge lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style
	InputEditing lipgloss.Style

	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	StatusBar lipgloss.Style
	ErrorText lipgloss.Style
	Bar       lipgloss.Style
}

// boxed is a rounded, padded frame; focus and editing states differ only in
// border color
func boxed(fg, border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(fg).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current
	dim := lipgloss.NewStyle().Foreground(t.ForegroundDim)
	key := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	row := lipgloss.NewStyle().Padding(0, 1)

	return &Styles{
		Title:      key,
		TitleMuted: dim,

		ListItem:     row.Foreground(t.Foreground),
		ListSelected: row.Foreground(t.Primary).Background(t.Selection).Bold(true),

		Panel: boxed(t.Foreground, t.Border),

		Button:        boxed(t.Foreground, t.Border),
		ButtonFocused: boxed(t.Primary, t.BorderFocus).Bold(true),
		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		Badge: row.MarginRight(1),

		Input:        boxed(t.Foreground, t.Border),
		InputFocused: boxed(t.Foreground, t.BorderFocus),
		InputEditing: boxed(t.Foreground, t.Warning),

		Help:     dim.Padding(1, 1),
		HelpKey:  key,
		HelpDesc: dim,

		StatusBar: row.Foreground(t.ForegroundDim),
		ErrorText: row.Foreground(t.Error),
		Bar:       lipgloss.NewStyle().Foreground(t.Accent),
	}
}

// StatusColor maps a task status to a theme color
func StatusColor(s models.Status) lipgloss.Color {
	switch s {
	case models.StatusCompleted:
		return Current.Success
	case models.StatusInProgress:
		return Current.Info
	case models.StatusOnHold:
		return Current.Warning
	}
	return Current.ForegroundDim
}

// PriorityColor maps a task priority to a theme color
func PriorityColor(p models.Priority) lipgloss.Color {
	switch p {
	case models.PriorityHigh:
		return Current.Error
	case models.PriorityMedium:
		return Current.Warning
	}
	return Current.ForegroundDim
}

// RenderBar draws a horizontal bar of n out of total cells scaled to width
func (s *Styles) RenderBar(n, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	filled := n * width / total
	if n > 0 && filled == 0 {
		filled = 1
	}
	return s.Bar.Render(strings.Repeat("█", filled)) + s.TitleMuted.Render(strings.Repeat("·", width-filled))
}
