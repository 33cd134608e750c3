package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Adaptive colors that work on light and dark terminals.
var (
	colorTeal   = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#FF4672"}
	colorAmber  = lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FFA500"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
	colorSubtle = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	colorFg     = lipgloss.AdaptiveColor{Light: "#1A1A2E", Dark: "#FFFDF5"}
	colorDimFg  = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	colorBorder = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	colorSelBg  = lipgloss.AdaptiveColor{Light: "#DDF3F0", Dark: "#123B37"}
)

// Header styles.
var (
	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTeal).
			PaddingRight(2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTeal).
			Underline(true).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorDimFg).
				Padding(0, 2)
)

// Connection status pill styles.
var (
	connectedPillStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorGreen).
				Padding(0, 1)

	disconnectedPillStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorRed).
				Padding(0, 1)

	connectingPillStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorAmber).
				Padding(0, 1)
)

// Footer / help bar styles.
var (
	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDimFg).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTeal)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorDimFg)

	helpSepStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)
)

// General content styles.
var (
	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorAmber)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDimFg)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTeal)

	cardLabelStyle = lipgloss.NewStyle().
			Foreground(colorDimFg).
			Width(14)

	cardValueStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	bigValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)
)

// Form styles.
var (
	formLabelStyle = lipgloss.NewStyle().
			Foreground(colorDimFg).
			Width(18)

	formFocusLabelStyle = lipgloss.NewStyle().
				Foreground(colorTeal).
				Bold(true).
				Width(18)

	formErrorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			PaddingLeft(18)

	choiceStyle = lipgloss.NewStyle().
			Foreground(colorBlue)
)

// Usage color coding for CPU, memory and disk percentages.
func usageStyle(pct float64) lipgloss.Style {
	switch {
	case pct < 60:
		return lipgloss.NewStyle().Foreground(colorGreen)
	case pct < 85:
		return lipgloss.NewStyle().Foreground(colorAmber)
	default:
		return lipgloss.NewStyle().Foreground(colorRed)
	}
}

// logStatusStyle colors a hotspot log status cell.
func logStatusStyle(status string) lipgloss.Style {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "success"):
		return lipgloss.NewStyle().Foreground(colorGreen)
	case strings.Contains(s, "fail"):
		return lipgloss.NewStyle().Foreground(colorRed)
	case strings.Contains(s, "logout"):
		return lipgloss.NewStyle().Foreground(colorAmber)
	default:
		return lipgloss.NewStyle().Foreground(colorDimFg)
	}
}

// tableStyles is shared by every tabular view.
func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(colorTeal)
	s.Selected = s.Selected.
		Foreground(colorFg).
		Background(colorSelBg).
		Bold(true)
	return s
}

// Spinner style.
var spinnerStyle = lipgloss.NewStyle().Foreground(colorTeal)

// Notification styles.
var (
	notifSuccessStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true).
				Padding(0, 1)

	notifErrorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true).
			Padding(0, 1)

	confirmStyle = lipgloss.NewStyle().
			Foreground(colorAmber).
			Bold(true).
			Padding(0, 1)
)
