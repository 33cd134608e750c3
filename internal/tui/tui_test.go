package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikrodesk/internal/api"
	"mikrodesk/internal/app"
	"mikrodesk/internal/form"
	"mikrodesk/internal/listing"
	"mikrodesk/internal/query"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	return newBackendModel(t, mux.NewRouter(), "")
}

// newBackendModel builds a model against routes. An empty exportDir means
// the test's temp dir.
func newBackendModel(t *testing.T, routes *mux.Router, exportDir string) *Model {
	t.Helper()
	srv := httptest.NewServer(routes)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	if exportDir == "" {
		exportDir = dir
	}
	t.Setenv("MIKRODESK_HOME", dir)
	t.Setenv("MIKRODESK_API_URL", srv.URL+"/api")

	a, err := app.New(app.Options{
		ConfigPath: filepath.Join(dir, "config.yaml"),
		DBPath:     filepath.Join(dir, "state.db"),
		LogLevel:   "error",
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	m := NewModel(FromApp(a, exportDir))
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestForceHeight(t *testing.T) {
	out := forceHeight("a\nb", 3, 4)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "a", lines[0])
	assert.Equal(t, "   ", lines[3])

	assert.Equal(t, "a", forceHeight("a\nb\nc", 3, 1))
}

func TestSparkline(t *testing.T) {
	s := []rune(sparkline([]float64{0, 5, 10}, 10))
	require.Len(t, s, 3)
	assert.Equal(t, '▁', s[0])
	assert.Equal(t, '█', s[2])

	// Only the newest values that fit are drawn.
	assert.Len(t, []rune(sparkline([]float64{1, 2, 3, 4}, 2)), 2)
	assert.Equal(t, "▁▁", sparkline([]float64{0, 0}, 5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "hotsp~", truncate("hotspot-user", 6))
	assert.Equal(t, "ñandú~", truncate("ñandúes", 6))
}

func TestNextOf(t *testing.T) {
	list := []string{"a", "b", "c"}
	assert.Equal(t, "b", nextOf(list, "a"))
	assert.Equal(t, "a", nextOf(list, "c"))
	assert.Equal(t, "a", nextOf(list, "zzz"))
}

func TestPercent(t *testing.T) {
	assert.Contains(t, percent("12"), "12%")
	assert.Contains(t, percent("87.4%"), "87%")
	assert.Equal(t, "-", percent("n/a"))
}

func TestInputFormNavigation(t *testing.T) {
	f := newInputForm("test",
		newField("name", "Name", ""),
		choiceField("mode", "Mode", "", []string{"one", "two"}),
	)
	assert.Equal(t, "name", f.focusedKey())
	assert.Equal(t, "one", f.value("mode"))

	action, _, _ := f.Update(keyPress("x"))
	assert.Equal(t, formIdle, action)
	assert.Equal(t, "x", f.value("name"))

	action, left, _ := f.Update(keyPress("enter"))
	assert.Equal(t, formMoved, action)
	assert.Equal(t, "name", left)
	assert.Equal(t, "mode", f.focusedKey())

	f.Update(keyPress("right"))
	assert.Equal(t, "two", f.value("mode"))
	f.Update(keyPress("right"))
	assert.Equal(t, "one", f.value("mode"))

	action, _, _ = f.Update(keyPress("enter"))
	assert.Equal(t, formSubmitted, action)

	action, _, _ = f.Update(keyPress("esc"))
	assert.Equal(t, formCancelled, action)
}

func TestInputFormIntValue(t *testing.T) {
	f := newInputForm("test", newField("count", "Count", "abc"))
	errs := map[string]string{}
	f.intValue("count", "Count", errs)
	assert.Equal(t, "Count must be a whole number", errs["count"])
}

func TestSearchBox(t *testing.T) {
	s := newSearchBox("find")
	s.open()
	require.True(t, s.active)
	s.Update(keyPress("a"))
	s.Update(keyPress("enter"))
	assert.False(t, s.active)
	assert.Equal(t, "a", s.value())

	s.open()
	s.Update(keyPress("esc"))
	assert.Equal(t, "", s.value())
}

func TestLogsFiltering(t *testing.T) {
	lm := newLogsModel(2)
	lm.setSize(100, 20)
	lm.setLogs([]api.HotspotLog{
		{User: "alice", Status: "success"},
		{User: "bob", Status: "failure"},
		{User: "carol", Status: "success"},
		{User: "dave", Status: "logout"},
	})
	assert.Equal(t, 4, lm.pager.Total())
	assert.Equal(t, 2, lm.pager.TotalPages())

	lm.Update(keyPress("s"), nil)
	assert.Equal(t, listing.StatusSuccess, lm.status)
	assert.Equal(t, 2, lm.pager.Total())

	lm.Update(keyPress("esc"), nil)
	assert.Equal(t, listing.StatusAll, lm.status)
	assert.Equal(t, 4, lm.pager.Total())
}

func TestReportFormat(t *testing.T) {
	rm := newReportModel(10)
	assert.Equal(t, "csv", rm.format)
	rm.setFormat("excel")
	assert.Equal(t, "xlsx", rm.format)
	rm.setFormat("pdf")
	assert.Equal(t, "xlsx", rm.format)
}

func TestReportDateFilter(t *testing.T) {
	rm := newReportModel(10)
	rm.setSize(120, 30)
	rm.setReport(&api.Report{Transactions: []api.Transaction{
		{VoucherName: "v1", FirstLoginDate: "2024-03-01"},
		{VoucherName: "v2", FirstLoginDate: "2024-03-02"},
	}})
	assert.Equal(t, 2, rm.pager.Total())

	rm.date.SetValue("2024-03-02")
	rm.applyFilter()
	assert.Equal(t, 1, rm.pager.Total())
	assert.Equal(t, "v2", rm.pager.Filtered()[0].VoucherName)

	rm.date.SetValue("not a date")
	rm.applyFilter()
	assert.True(t, rm.dateErr)
	assert.Equal(t, 2, rm.pager.Total())
}

func TestModelStartsOnRoutersWhenDisconnected(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, tabRouters, m.activeTab)

	m.switchTab(tabDashboard)
	assert.Equal(t, tabRouters, m.activeTab)
	assert.Equal(t, "Connect to a router first", m.notification)
	assert.True(t, m.notificationErr)
}

func TestModelDropsForeignUpdates(t *testing.T) {
	m := newTestModel(t)

	m.applyUpdate(query.Update{
		Key:   query.Key{Resource: app.ResUserCount, ConnectionID: "someone-else"},
		Entry: query.Entry{Data: 7, UpdatedAt: time.Now()},
	})
	assert.Zero(t, m.dashboardTab.userCount)
}

func TestModelConfirmPrompt(t *testing.T) {
	m := newTestModel(t)
	ran := false
	m.askConfirm("Delete?", func() tea.Msg { ran = true; return nil })

	_, cmd := m.Update(keyPress("n"))
	assert.Nil(t, m.confirm)
	assert.Nil(t, cmd)
	assert.False(t, ran)

	m.askConfirm("Delete?", func() tea.Msg { ran = true; return nil })
	_, cmd = m.Update(keyPress("y"))
	require.NotNil(t, cmd)
	cmd()
	assert.True(t, ran)
}

func TestViewFitsWindow(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < tabCount; i++ {
		m.activeTab = i
		assert.Len(t, strings.Split(m.View(), "\n"), 40)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// voucherBackend accepts any connect request as connection c1 and answers
// voucher requests with count generated users.
func voucherBackend(t *testing.T, calls *int32) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/router/connect", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]interface{}{"success": true, "connectionId": "c1"})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/router/c1/hotspot-vouchers", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(calls, 1)
		var vr api.VoucherRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&vr))
		vouchers := make([]api.Voucher, vr.Count)
		for i := range vouchers {
			vouchers[i] = api.Voucher{Username: "USER" + string(rune('A'+i)), Password: "PW" + string(rune('A'+i)), Profile: vr.Profile}
		}
		writeJSON(w, map[string]interface{}{
			"success": true,
			"data":    api.VoucherBatch{Vouchers: vouchers, Price: "25"},
		})
	}).Methods(http.MethodPost)
	return r
}

func connectTestRouter(t *testing.T, m *Model) {
	t.Helper()
	_, err := m.session.Connect(context.Background(), form.FromRouter(&api.Router{
		Name: "shop", Host: "192.168.88.1", Username: "admin", Password: "pw",
		HotspotName: "hs1", DNSName: "hot.spot", Currency: "LRD", SessionTimeout: "1h",
	}))
	require.NoError(t, err)
}

// submitVouchers fills the voucher form with count and runs the generation.
func submitVouchers(t *testing.T, m *Model, count string) {
	t.Helper()
	m.activeTab = tabHotspot
	hm := &m.hotspotTab
	hm.profiles = []api.HotspotProfile{{Name: "1hour"}}
	hm.openVoucherForm(form.NewVoucherForm())
	for i := range hm.form.fields {
		if hm.form.fields[i].key == "count" {
			hm.form.fields[i].input.SetValue(count)
		}
	}

	cmd := hm.submit(m)
	require.NotNil(t, cmd)
	require.True(t, hm.saving)
	m.Update(cmd())
}

func TestGeneratedVouchersShownOnScreen(t *testing.T) {
	var calls int32
	m := newBackendModel(t, voucherBackend(t, &calls), "")
	connectTestRouter(t, m)

	submitVouchers(t, m, "5")

	hm := &m.hotspotTab
	assert.Nil(t, hm.form)
	require.NotNil(t, hm.result)
	assert.Len(t, hm.resultTable.Rows(), 5)
	assert.False(t, m.notificationErr)
	assert.Contains(t, m.notification, "Generated 5 vouchers")

	view := m.View()
	for _, name := range []string{"USERA", "USERB", "USERC", "USERD", "USERE"} {
		assert.Contains(t, view, name)
	}
	assert.NotContains(t, view, "USERF")

	m.Update(keyPress("esc"))
	assert.Nil(t, hm.result)

	batches, err := m.store.ListVoucherBatches(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 5, batches[0].Count)
}

func TestGeneratedVouchersSurviveSheetFailure(t *testing.T) {
	var calls int32
	missing := filepath.Join(t.TempDir(), "missing-dir")
	m := newBackendModel(t, voucherBackend(t, &calls), missing)
	connectTestRouter(t, m)

	submitVouchers(t, m, "2")

	hm := &m.hotspotTab
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Nil(t, hm.form)
	assert.False(t, hm.saving)
	require.NotNil(t, hm.result)
	assert.Len(t, hm.resultTable.Rows(), 2)
	assert.True(t, m.notificationErr)
	assert.Contains(t, m.notification, "Generated 2 vouchers; sheet not saved")
	assert.NotContains(t, m.notification, "generation failed")
}
