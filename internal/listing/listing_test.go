package listing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikrodesk/internal/api"
)

func makeLogs(n int) []api.HotspotLog {
	logs := make([]api.HotspotLog, n)
	for i := range logs {
		status := "login-success"
		if i%3 == 0 {
			status = "login-failure"
		}
		logs[i] = api.HotspotLog{User: fmt.Sprintf("user%02d", i), IP: fmt.Sprintf("10.5.50.%d", i), Message: "logged in", Status: status}
	}
	return logs
}

func TestLogFilter(t *testing.T) {
	l := api.HotspotLog{User: "Alice", IP: "10.5.50.7", Message: "login failed: bad password", Status: "login-failure"}
	tests := []struct {
		name   string
		filter LogFilter
		want   bool
	}{
		{"empty", LogFilter{}, true},
		{"all status", LogFilter{Status: StatusAll}, true},
		{"user case insensitive", LogFilter{Search: "alice"}, true},
		{"ip", LogFilter{Search: "50.7"}, true},
		{"message", LogFilter{Search: "BAD"}, true},
		{"no match", LogFilter{Search: "bob"}, false},
		{"status match", LogFilter{Status: StatusFailure}, true},
		{"status mismatch", LogFilter{Status: StatusSuccess}, false},
		{"both", LogFilter{Search: "alice", Status: StatusLogout}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(l))
		})
	}
}

func TestTransactionFilter(t *testing.T) {
	tx := api.Transaction{VoucherName: "AB12CD", Profile: "1hour", BatchName: "vc-march", FirstLoginDate: "2026-03-15"}
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local)

	assert.True(t, TransactionFilter{Search: "ab12"}.Match(tx))
	assert.True(t, TransactionFilter{Search: "MARCH"}.Match(tx))
	assert.False(t, TransactionFilter{Search: "day"}.Match(tx))
	assert.True(t, TransactionFilter{Date: day}.Match(tx))
	assert.False(t, TransactionFilter{Date: day.AddDate(0, 0, 1)}.Match(tx))
	assert.False(t, TransactionFilter{Date: day}.Match(api.Transaction{FirstLoginDate: "never"}))
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2026-03-15", "2026-03-15T08:00:00Z", "2026-03-15 08:00:00", "Mar/15/2026", "mar/15/2026"} {
		d, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, 15, d.Day(), s)
	}
	_, ok := ParseDate("")
	assert.False(t, ok)
}

func TestHotspotFilters(t *testing.T) {
	assert.True(t, UserFilter{Search: "vip"}.Match(api.HotspotUser{Name: "a", Comment: "VIP guest"}))
	assert.True(t, ProfileFilter{Search: "HOUR"}.Match(api.HotspotProfile{Name: "1hour"}))
	assert.True(t, ActiveUserFilter{Search: "aa:bb"}.Match(api.ActiveUser{MacAddress: "AA:BB:CC:DD:EE:FF"}))
	assert.True(t, HostFilter{Search: "hs1"}.Match(api.HotspotHost{Server: "hs1"}))
	assert.False(t, HostFilter{Search: "zzz"}.Match(api.HotspotHost{Server: "hs1"}))
}

func TestPagerFilterResetsPage(t *testing.T) {
	p := NewPager[api.HotspotLog](0)
	p.SetItems(makeLogs(35))
	assert.Equal(t, 4, p.TotalPages())
	assert.Len(t, p.Page(), DefaultPageSize)

	p.Goto(3)
	assert.Equal(t, 3, p.Current())

	f := LogFilter{Status: StatusFailure}
	p.SetFilter("failure", f.Match)
	assert.Equal(t, 1, p.Current())
	assert.Equal(t, 12, p.Total())
	assert.Len(t, p.Page(), 10, "min(pageSize, filtered)")

	p.Next()
	assert.Len(t, p.Page(), 2)

	// Same filter state re-applied on a data refresh keeps the page.
	p.SetFilter("failure", f.Match)
	assert.Equal(t, 2, p.Current())

	f = LogFilter{Search: "user01"}
	p.SetFilter("search:user01", f.Match)
	assert.Equal(t, 1, p.Current())
	assert.Len(t, p.Page(), 1)
}

func TestPagerClamps(t *testing.T) {
	p := NewPager[int](10)
	assert.Equal(t, 1, p.TotalPages())
	assert.Empty(t, p.Page())
	first, last := p.Range()
	assert.Zero(t, first)
	assert.Zero(t, last)

	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}
	p.SetItems(items)
	p.Goto(99)
	assert.Equal(t, 3, p.Current())
	p.Goto(-1)
	assert.Equal(t, 1, p.Current())
	p.Prev()
	assert.Equal(t, 1, p.Current())

	p.Goto(3)
	first, last = p.Range()
	assert.Equal(t, 21, first)
	assert.Equal(t, 25, last)

	p.SetItems(items[:5])
	assert.Equal(t, 1, p.Current())
	assert.Len(t, p.Filtered(), 5)
}
