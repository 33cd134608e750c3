package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mikrodesk/internal/api"
	"mikrodesk/internal/report"
	"mikrodesk/internal/storage"
	"mikrodesk/internal/traffic"
)

const recentLogLines = 5

type dashboardModel struct {
	width  int
	height int

	status      *api.RouterStatus
	system      *api.SystemInfo
	systemLogs  []api.LogEntry
	hotspotLogs []api.HotspotLog
	report      *api.Report
	userCount   int
	dnsName     string

	history    *traffic.History
	interfaces []string
}

func newDashboardModel() dashboardModel {
	return dashboardModel{history: traffic.NewHistory()}
}

func (dm *dashboardModel) setSize(w, h int) {
	dm.width = w
	dm.height = h
}

func (dm *dashboardModel) reset() {
	*dm = dashboardModel{width: dm.width, height: dm.height, history: traffic.NewHistory()}
}

func (dm *dashboardModel) observeTraffic(samples []api.InterfaceTraffic, at time.Time) {
	dm.interfaces = traffic.Interfaces(samples)
	if at.IsZero() {
		at = time.Now()
	}
	dm.history.Observe(samples, at)
}

func (dm *dashboardModel) bindings() []key.Binding {
	return []key.Binding{keys.Interface, keys.Disconnect}
}

func (dm *dashboardModel) Update(msg tea.Msg, root *Model) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !key.Matches(km, keys.Interface) || len(dm.interfaces) == 0 {
		return nil
	}

	next := dm.interfaces[0]
	for i, name := range dm.interfaces {
		if name == dm.history.Selected() {
			next = dm.interfaces[(i+1)%len(dm.interfaces)]
			break
		}
	}
	dm.history.Select(next)
	root.setNotification("Traffic interface: "+next, false)
	return saveSetting(root.store, storage.SettingTrafficInterface, next)
}

func (dm *dashboardModel) View() string {
	w := dm.width - 2
	if w < 40 {
		w = 40
	}
	col := (w - 4) / 3

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Width(col).Render(dm.routerCard()),
		cardStyle.Width(col).Render(dm.resourcesCard()),
		cardStyle.Width(col).Render(dm.hotspotCard()),
	)
	trafficCard := cardStyle.Width(w - 2).Render(dm.trafficCard(w - 6))

	half := (w - 2) / 2
	logs := lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Width(half).Render(dm.systemLogCard(half-4)),
		cardStyle.Width(half).Render(dm.hotspotLogCard(half-4)),
	)

	return forceHeight(lipgloss.JoinVertical(lipgloss.Left, top, trafficCard, logs), dm.width, dm.height)
}

func (dm *dashboardModel) row(label, value string) string {
	if value == "" {
		value = "-"
	}
	return cardLabelStyle.Render(label) + cardValueStyle.Render(value)
}

func (dm *dashboardModel) routerCard() string {
	rows := []string{cardTitleStyle.Render("Router")}
	if dm.system == nil {
		return strings.Join(append(rows, dimStyle.Render("loading...")), "\n")
	}
	s := dm.system
	rows = append(rows,
		dm.row("Identity", s.Identity),
		dm.row("Model", s.Model),
		dm.row("RouterOS", s.RouterOS.Version),
		dm.row("Uptime", s.Uptime),
		dm.row("Arch", s.Architecture),
		dm.row("Login DNS", dm.dnsName),
	)
	return strings.Join(rows, "\n")
}

func (dm *dashboardModel) resourcesCard() string {
	rows := []string{cardTitleStyle.Render("Resources")}
	if dm.status == nil {
		return strings.Join(append(rows, dimStyle.Render("loading...")), "\n")
	}
	r := dm.status.Resources
	rows = append(rows,
		dm.row("CPU", percent(r.CPU.LoadPercentage)),
		dm.row("Memory", percent(r.Memory.UsedPercentage)+dimStyle.Render(" of "+r.Memory.Total)),
		dm.row("Disk", percent(r.Disk.UsedPercentage)+dimStyle.Render(" of "+r.Disk.Total)),
		dm.row("Board", r.BoardName),
		dm.row("Version", r.Version),
	)
	return strings.Join(rows, "\n")
}

func (dm *dashboardModel) hotspotCard() string {
	rows := []string{cardTitleStyle.Render("Hotspot")}
	active := "-"
	if dm.status != nil {
		active = strconv.Itoa(dm.status.ActiveUsers.Total)
	}
	rows = append(rows,
		dm.row("Active users", active),
		dm.row("Total users", strconv.Itoa(dm.userCount)),
	)
	if dm.report != nil {
		rows = append(rows,
			dm.row("Today", report.FormatCurrency(dm.report.TodayRevenue, dm.report.Currency)),
			dm.row("This month", report.FormatCurrency(dm.report.ThisMonthRevenue, dm.report.Currency)),
			dm.row("Vouchers", strconv.Itoa(dm.report.Total)),
		)
	}
	return strings.Join(rows, "\n")
}

func (dm *dashboardModel) trafficCard(width int) string {
	iface := dm.history.Selected()
	title := cardTitleStyle.Render("Traffic")
	if iface != "" {
		title += dimStyle.Render("  " + iface + " (i to switch)")
	}
	points := dm.history.Points()
	if len(points) == 0 {
		return title + "\n" + dimStyle.Render("waiting for samples...")
	}

	tx := make([]float64, len(points))
	rx := make([]float64, len(points))
	for i, p := range points {
		tx[i] = p.TxKbps
		rx[i] = p.RxKbps
	}
	last := points[len(points)-1]
	return strings.Join([]string{
		title,
		cardLabelStyle.Render("TX") + lipgloss.NewStyle().Foreground(colorBlue).Render(sparkline(tx, width-30)) +
			"  " + formatKbps(last.TxKbps),
		cardLabelStyle.Render("RX") + lipgloss.NewStyle().Foreground(colorGreen).Render(sparkline(rx, width-30)) +
			"  " + formatKbps(last.RxKbps),
	}, "\n")
}

func (dm *dashboardModel) systemLogCard(width int) string {
	rows := []string{cardTitleStyle.Render("System log")}
	logs := dm.systemLogs
	if len(logs) > recentLogLines {
		logs = logs[:recentLogLines]
	}
	for _, l := range logs {
		rows = append(rows, truncate(fmt.Sprintf("%s [%s] %s", l.Time, l.Type, l.Description), width))
	}
	if len(logs) == 0 {
		rows = append(rows, dimStyle.Render("no entries"))
	}
	return strings.Join(rows, "\n")
}

func (dm *dashboardModel) hotspotLogCard(width int) string {
	rows := []string{cardTitleStyle.Render("Hotspot activity")}
	logs := dm.hotspotLogs
	if len(logs) > recentLogLines {
		logs = logs[:recentLogLines]
	}
	for _, l := range logs {
		status := truncate(l.Status, 12)
		line := truncate(fmt.Sprintf("%s %s", l.Time, l.User), width-len(status)-1)
		rows = append(rows, line+" "+logStatusStyle(l.Status).Render(status))
	}
	if len(logs) == 0 {
		rows = append(rows, dimStyle.Render("no entries"))
	}
	return strings.Join(rows, "\n")
}

// percent renders a backend percentage string ("12", "12%") colored by load.
func percent(s string) string {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return "-"
	}
	return usageStyle(v).Render(fmt.Sprintf("%.0f%%", v))
}

func formatKbps(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.1f Mbps", v/1000)
	}
	return fmt.Sprintf("%.1f Kbps", v)
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws values scaled to their maximum, keeping the newest that
// fit in width.
func sparkline(values []float64, width int) string {
	if width < 1 {
		width = 1
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if peak > 0 {
			idx = int(v / peak * float64(len(sparkBlocks)-1))
		}
		if idx < 0 {
			idx = 0
		}
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}

// truncate shortens s to maxLen runes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen < 2 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "~"
}
