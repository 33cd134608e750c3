package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"mikrodesk/internal/api"
	"mikrodesk/internal/app"
	"mikrodesk/internal/listing"
	"mikrodesk/internal/query"
	"mikrodesk/internal/session"
	"mikrodesk/internal/storage"
	pkgerrors "mikrodesk/pkg/errors"
)

// Tab indices.
const (
	tabDashboard = 0
	tabHotspot   = 1
	tabLogs      = 2
	tabReport    = 3
	tabRouters   = 4
	tabCount     = 5
)

// Model is the root BubbleTea model.
type Model struct {
	// Dependencies.
	store     storage.Storage
	client    *api.Client
	session   *session.Session
	cache     *query.Cache
	log       logrus.FieldLogger
	exportDir string

	updates     <-chan query.Update
	unsubscribe func()

	// Dimensions.
	width  int
	height int

	// Navigation.
	activeTab int
	showHelp  bool

	// Async state.
	connecting bool
	refreshing bool
	failing    map[string]bool

	// Tab models.
	dashboardTab dashboardModel
	hotspotTab   hotspotModel
	logsTab      logsModel
	reportTab    reportModel
	routersTab   routersModel

	// Pending yes/no question.
	confirm *confirmPrompt

	// Notification.
	notification    string
	notificationErr bool
	notifVersion    int

	// Spinner for async operations.
	spinner spinner.Model
}

type confirmPrompt struct {
	question string
	onYes    tea.Cmd
}

// Deps holds all dependencies injected into the TUI.
type Deps struct {
	Storage   storage.Storage
	Client    *api.Client
	Session   *session.Session
	Cache     *query.Cache
	Log       logrus.FieldLogger
	PageSize  int
	ExportDir string
}

// FromApp builds the TUI dependencies from an application context.
func FromApp(a *app.App, exportDir string) Deps {
	return Deps{
		Storage:   a.Storage,
		Client:    a.Client,
		Session:   a.Session,
		Cache:     a.Cache,
		Log:       a.Log.WithField("component", "tui"),
		PageSize:  a.Config.PageSize,
		ExportDir: exportDir,
	}
}

// NewModel creates a new root Model.
func NewModel(deps Deps) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = listing.DefaultPageSize
	}
	exportDir := deps.ExportDir
	if exportDir == "" {
		exportDir = "."
	}
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	updates, unsubscribe := deps.Cache.Subscribe(256)

	m := &Model{
		store:        deps.Storage,
		client:       deps.Client,
		session:      deps.Session,
		cache:        deps.Cache,
		log:          log,
		exportDir:    exportDir,
		updates:      updates,
		unsubscribe:  unsubscribe,
		activeTab:    tabDashboard,
		failing:      make(map[string]bool),
		spinner:      s,
		dashboardTab: newDashboardModel(),
		hotspotTab:   newHotspotModel(),
		logsTab:      newLogsModel(pageSize),
		reportTab:    newReportModel(pageSize),
		routersTab:   newRoutersModel(),
	}
	if !m.connected() {
		m.activeTab = tabRouters
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		loadSettings(m.store),
		loadRouters(m.client),
		waitForUpdate(m.updates),
		m.spinner.Tick,
	}
	if m.connected() {
		m.refreshing = true
		cmds = append(cmds, refreshAll(m.cache))
	}
	return tea.Batch(cmds...)
}

func (m *Model) connected() bool {
	return m.session.Connected()
}

func (m *Model) routerName() string {
	if cur := m.session.Current(); cur != nil {
		return cur.RouterName
	}
	return ""
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	prevNotifVersion := m.notifVersion

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.confirm != nil {
			return m, m.answerConfirm(msg)
		}
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}

	// Data loading.
	case settingsLoadedMsg:
		if msg.err == nil {
			cmds = append(cmds, m.applySettings(msg.settings))
		}
	case routersLoadedMsg:
		if msg.err != nil {
			m.setNotification("Failed to load routers: "+pkgerrors.UserMessage(msg.err), true)
		} else {
			m.routersTab.setRouters(msg.routers)
		}
	case cacheUpdateMsg:
		cmds = append(cmds, waitForUpdate(m.updates))
		m.applyUpdate(msg.update)
	case refreshDoneMsg:
		m.refreshing = false
		switch {
		case msg.err == nil:
		case errors.Is(msg.err, pkgerrors.ErrNoConnection):
		default:
			m.log.WithError(msg.err).Warn("refresh failed")
			m.setNotification("Refresh failed: "+pkgerrors.UserMessage(msg.err), true)
		}

	// Connection.
	case connectResultMsg:
		m.connecting = false
		if msg.err != nil {
			m.setNotification("Connect failed: "+pkgerrors.UserMessage(msg.err), true)
			break
		}
		m.resetData()
		m.routersTab.closeForm()
		m.setNotification(fmt.Sprintf("Connected to %s", msg.session.RouterName), false)
		m.activeTab = tabDashboard
		m.refreshing = true
		cmds = append(cmds, refreshAll(m.cache), loadRouters(m.client))
	case disconnectResultMsg:
		if msg.err != nil {
			m.setNotification("Disconnect failed: "+pkgerrors.UserMessage(msg.err), true)
		} else {
			m.resetData()
			m.activeTab = tabRouters
			m.setNotification("Disconnected", false)
		}
	case routerDeletedMsg:
		if msg.err != nil {
			m.setNotification("Delete failed: "+pkgerrors.UserMessage(msg.err), true)
			break
		}
		m.setNotification(fmt.Sprintf("Deleted router %s", msg.name), false)
		if !m.connected() {
			m.resetData()
			m.activeTab = tabRouters
		}
		cmds = append(cmds, loadRouters(m.client))

	case mutationDoneMsg:
		if msg.err != nil {
			m.setNotification(pkgerrors.UserMessage(msg.err), true)
		} else {
			m.setNotification(msg.label, false)
		}
	case vouchersGeneratedMsg:
		switch {
		case msg.err != nil:
			m.setNotification("Voucher generation failed: "+pkgerrors.UserMessage(msg.err), true)
		case msg.warn != nil:
			m.log.WithError(msg.warn).Warn("failed to keep voucher batch")
			m.setNotification(fmt.Sprintf("Generated %d vouchers; sheet not saved: %s",
				len(msg.sheet.Vouchers), pkgerrors.UserMessage(msg.warn)), true)
		default:
			m.setNotification(fmt.Sprintf("Generated %d vouchers, print sheet at %s", len(msg.sheet.Vouchers), msg.path), false)
		}
	case exportDoneMsg:
		if msg.err != nil {
			m.setNotification("Export failed: "+pkgerrors.UserMessage(msg.err), true)
		} else {
			m.setNotification("Exported to "+msg.path, false)
		}

	// Settings.
	case settingSavedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("key", msg.key).Warn("failed to save setting")
		}

	// Notification.
	case clearNotificationMsg:
		if msg.version == m.notifVersion {
			m.notification = ""
			m.notificationErr = false
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Schedule notification auto-clear when a new notification was set.
	if m.notifVersion > prevNotifVersion && m.notification != "" {
		cmds = append(cmds, clearNotification(4*time.Second, m.notifVersion))
	}

	// Delegate to active tab.
	switch m.activeTab {
	case tabDashboard:
		cmds = append(cmds, m.dashboardTab.Update(msg, m))
	case tabHotspot:
		cmds = append(cmds, m.hotspotTab.Update(msg, m))
	case tabLogs:
		cmds = append(cmds, m.logsTab.Update(msg, m))
	case tabReport:
		cmds = append(cmds, m.reportTab.Update(msg, m))
	case tabRouters:
		cmds = append(cmds, m.routersTab.Update(msg, m))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	busy := ""
	if m.connecting || m.refreshing {
		busy = m.spinner.View()
	}
	header := renderHeader(m.activeTab, m.connected(), m.connecting, m.routerName(), busy, m.width)

	var content string
	var bindings []key.Binding
	switch m.activeTab {
	case tabDashboard:
		content, bindings = m.dashboardTab.View(), m.dashboardTab.bindings()
	case tabHotspot:
		content, bindings = m.hotspotTab.View(), m.hotspotTab.bindings()
	case tabLogs:
		content, bindings = m.logsTab.View(), m.logsTab.bindings()
	case tabReport:
		content, bindings = m.reportTab.View(), m.reportTab.bindings()
	case tabRouters:
		content, bindings = m.routersTab.View(), m.routersTab.bindings()
	}

	var notif string
	switch {
	case m.confirm != nil:
		notif = confirmStyle.Render("? " + m.confirm.question + " [y/N]")
	case m.notification != "" && m.notificationErr:
		notif = notifErrorStyle.Render("! " + m.notification)
	case m.notification != "":
		notif = notifSuccessStyle.Render("* " + m.notification)
	}

	footer := renderFooter(renderHelpBar(m.showHelp, bindings), m.width)

	output := lipgloss.JoinVertical(lipgloss.Left, header, notif, content, footer)

	// Force exactly m.height lines to prevent BubbleTea rendering drift.
	return forceHeight(output, m.width, m.height)
}

// forceHeight ensures the string has exactly `height` lines, each padded to `width`.
// This prevents BubbleTea from leaving ghost lines when switching tabs.
func forceHeight(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	blank := strings.Repeat(" ", width)
	for len(lines) < height {
		lines = append(lines, blank)
	}
	return strings.Join(lines, "\n")
}

// contentHeight is what is left after the header (3 lines), the
// notification line and the footer.
func (m *Model) contentHeight() int {
	overhead := 6
	if m.showHelp {
		overhead += 3
	}
	h := m.height - overhead
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) resize() {
	ch := m.contentHeight()
	m.dashboardTab.setSize(m.width, ch)
	m.hotspotTab.setSize(m.width, ch)
	m.logsTab.setSize(m.width, ch)
	m.reportTab.setSize(m.width, ch)
	m.routersTab.setSize(m.width, ch)
}

// capturing reports whether the active tab owns the keyboard, e.g. while
// a form or search box is open.
func (m *Model) capturing() bool {
	switch m.activeTab {
	case tabHotspot:
		return m.hotspotTab.capturing()
	case tabLogs:
		return m.logsTab.capturing()
	case tabReport:
		return m.reportTab.capturing()
	case tabRouters:
		return m.routersTab.capturing()
	}
	return false
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if m.capturing() {
		return nil, false
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		m.resize()
		return nil, true

	case key.Matches(msg, keys.TabNext):
		return m.switchTab((m.activeTab + 1) % tabCount), true

	case key.Matches(msg, keys.TabPrev):
		return m.switchTab((m.activeTab - 1 + tabCount) % tabCount), true

	case key.Matches(msg, keys.Disconnect):
		if m.connected() {
			m.askConfirm(fmt.Sprintf("Disconnect from %s?", m.routerName()), disconnect(m.session))
		}
		return nil, true

	case key.Matches(msg, keys.Refresh):
		cmds := []tea.Cmd{loadRouters(m.client)}
		if m.connected() && !m.refreshing {
			m.refreshing = true
			cmds = append(cmds, refreshAll(m.cache))
		}
		return tea.Batch(cmds...), true
	}

	return nil, false
}

// switchTab moves to tab i. Data tabs need a session; without one the
// Routers tab is shown instead.
func (m *Model) switchTab(i int) tea.Cmd {
	if i != tabRouters && !m.connected() {
		m.activeTab = tabRouters
		m.setNotification("Connect to a router first", true)
		return nil
	}
	m.activeTab = i
	return saveSetting(m.store, storage.SettingActiveTab, tabIDs[i])
}

func (m *Model) applySettings(settings map[string]string) tea.Cmd {
	if i, ok := tabIndex(settings[storage.SettingActiveTab]); ok && m.connected() {
		m.activeTab = i
	}
	m.hotspotTab.setView(settings[storage.SettingHotspotView])
	m.dashboardTab.history.Select(settings[storage.SettingTrafficInterface])
	m.reportTab.setFormat(settings[storage.SettingExportFormat])
	return nil
}

// applyUpdate routes a cache entry to the views that show it. Entries of
// another connection are late answers for a previous session and dropped.
func (m *Model) applyUpdate(u query.Update) {
	if u.Key.ConnectionID != m.session.ID() || u.Entry.Fetching {
		return
	}
	res := u.Key.Resource
	if err := u.Entry.Err; err != nil {
		if !m.failing[res] && !errors.Is(err, context.Canceled) {
			m.failing[res] = true
			m.log.WithError(err).WithField("resource", res).Warn("query failed")
			m.setNotification(fmt.Sprintf("%s: %s", res, pkgerrors.UserMessage(err)), true)
		}
		return
	}
	delete(m.failing, res)

	switch data := u.Entry.Data.(type) {
	case *api.RouterStatus:
		m.dashboardTab.status = data
	case *api.SystemInfo:
		m.dashboardTab.system = data
	case *api.SystemLogs:
		m.dashboardTab.systemLogs = data.Logs
	case *api.HotspotLogs:
		m.dashboardTab.hotspotLogs = data.Logs
		m.logsTab.setLogs(data.Logs)
	case []api.InterfaceTraffic:
		m.dashboardTab.observeTraffic(data, u.Entry.UpdatedAt)
	case int:
		if res == app.ResUserCount {
			m.dashboardTab.userCount = data
		}
	case *api.Report:
		m.dashboardTab.report = data
		m.reportTab.setReport(data)
	case []api.HotspotUser:
		m.hotspotTab.setUsers(data)
	case []api.HotspotProfile:
		m.hotspotTab.setProfiles(data)
	case []api.ActiveUser:
		m.hotspotTab.setActive(data)
	case []api.HotspotHost:
		m.hotspotTab.setHosts(data)
	case []api.HotspotServer:
		m.hotspotTab.servers = data
	case []api.IPPool:
		m.hotspotTab.pools = data
	case string:
		if res == app.ResDNSName {
			m.dashboardTab.dnsName = data
		}
	}
}

// resetData forgets everything shown for the previous connection.
func (m *Model) resetData() {
	selected := m.dashboardTab.history.Selected()
	m.dashboardTab.reset()
	m.dashboardTab.history.Select(selected)
	m.hotspotTab.reset()
	m.logsTab.setLogs(nil)
	m.reportTab.setReport(nil)
	m.failing = make(map[string]bool)
	m.resize()
}

func (m *Model) askConfirm(question string, onYes tea.Cmd) {
	m.confirm = &confirmPrompt{question: question, onYes: onYes}
}

func (m *Model) answerConfirm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Confirm):
		cmd := m.confirm.onYes
		m.confirm = nil
		return cmd
	case key.Matches(msg, keys.Cancel), msg.String() == "enter":
		m.confirm = nil
	}
	return nil
}

func (m *Model) setNotification(text string, isErr bool) {
	m.notification = text
	m.notificationErr = isErr
	m.notifVersion++
}

// Close releases the cache subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// NewProgram creates a bubbletea program with alt screen.
func NewProgram(deps Deps) (*tea.Program, *Model) {
	m := NewModel(deps)
	return tea.NewProgram(m, tea.WithAltScreen()), m
}
