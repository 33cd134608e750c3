package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var tabNames = []string{"Dashboard", "Hotspot", "Logs", "Report", "Routers"}

// tabIDs are the values persisted in the active_tab setting.
var tabIDs = []string{"dashboard", "hotspot", "logs", "report", "routers"}

func tabIndex(id string) (int, bool) {
	for i, t := range tabIDs {
		if t == id {
			return i, true
		}
	}
	return 0, false
}

func renderHeader(activeTab int, connected, connecting bool, routerName, busy string, width int) string {
	logo := logoStyle.Render("MIKRODESK")

	var pill string
	switch {
	case connecting:
		pill = connectingPillStyle.Render(" CONNECTING ")
	case connected:
		label := " CONNECTED "
		if routerName != "" {
			label = fmt.Sprintf(" %s ", routerName)
		}
		pill = connectedPillStyle.Render(label)
	default:
		pill = disconnectedPillStyle.Render(" DISCONNECTED ")
	}
	if busy != "" {
		pill = busy + " " + pill
	}

	var tabs []string
	for i, name := range tabNames {
		if i == activeTab {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(pill)
	if gap < 1 {
		gap = 1
	}
	topRow := logo + strings.Repeat(" ", gap) + pill

	return lipgloss.JoinVertical(lipgloss.Left, topRow, tabBar, separator(width))
}

func separator(width int) string {
	return lipgloss.NewStyle().
		Foreground(colorBorder).
		Render(strings.Repeat("─", max(width, 0)))
}

func renderFooter(helpText string, width int) string {
	return lipgloss.JoinVertical(lipgloss.Left, separator(width), helpBarStyle.Render(helpText))
}

func renderHelpBar(showFull bool, tabBindings []key.Binding) string {
	if showFull {
		return renderFullHelp()
	}
	return renderBindings(append(tabBindings, keys.ShortHelp()...), " | ")
}

func renderBindings(bindings []key.Binding, sep string) string {
	var parts []string
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		k := helpKeyStyle.Render(b.Help().Key)
		d := helpDescStyle.Render(b.Help().Desc)
		parts = append(parts, k+" "+d)
	}
	return strings.Join(parts, helpSepStyle.Render(sep))
}

func renderFullHelp() string {
	var lines []string
	for _, group := range keys.FullHelp() {
		lines = append(lines, renderBindings(group, "  "))
	}
	return strings.Join(lines, "\n")
}
