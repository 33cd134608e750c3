package listing

import (
	"strings"
	"time"

	"mikrodesk/internal/api"
)

// Log status filter values.
const (
	StatusAll     = "all"
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusLogout  = "logout"
)

// LogStatuses lists the status filter choices in display order.
var LogStatuses = []string{StatusAll, StatusSuccess, StatusFailure, StatusLogout}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func anyContains(needle string, fields ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if containsFold(f, needle) {
			return true
		}
	}
	return false
}

// LogFilter narrows hotspot log lines.
type LogFilter struct {
	Search string
	Status string
}

// Match reports whether l passes the filter.
func (f LogFilter) Match(l api.HotspotLog) bool {
	if !anyContains(f.Search, l.User, l.IP, l.Message) {
		return false
	}
	status := strings.ToLower(strings.TrimSpace(f.Status))
	if status == "" || status == StatusAll {
		return true
	}
	return containsFold(l.Status, status)
}

// TransactionFilter narrows report rows by text and first-login day.
type TransactionFilter struct {
	Search string
	Date   time.Time // zero means any day
}

// Match reports whether t passes the filter.
func (f TransactionFilter) Match(t api.Transaction) bool {
	if !anyContains(f.Search, t.VoucherName, t.Profile, t.BatchName) {
		return false
	}
	if f.Date.IsZero() {
		return true
	}
	day, ok := ParseDate(t.FirstLoginDate)
	if !ok {
		return false
	}
	y1, m1, d1 := day.Date()
	y2, m2, d2 := f.Date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan/02/2006",
	"01/02/2006",
}

// ParseDate accepts the date formats the backend and RouterOS emit.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UserFilter matches hotspot users by name, profile or comment.
type UserFilter struct{ Search string }

func (f UserFilter) Match(u api.HotspotUser) bool {
	return anyContains(f.Search, u.Name, u.Profile, u.Comment)
}

// ProfileFilter matches profiles by name.
type ProfileFilter struct{ Search string }

func (f ProfileFilter) Match(p api.HotspotProfile) bool {
	return anyContains(f.Search, p.Name)
}

// ActiveUserFilter matches live sessions by user, address, MAC or comment.
type ActiveUserFilter struct{ Search string }

func (f ActiveUserFilter) Match(u api.ActiveUser) bool {
	return anyContains(f.Search, u.User, u.Address, u.MacAddress, u.Comment)
}

// HostFilter matches hotspot hosts on any displayed column.
type HostFilter struct{ Search string }

func (f HostFilter) Match(h api.HotspotHost) bool {
	return anyContains(f.Search, h.MacAddress, h.Address, h.ToAddress, h.Server, h.RxRate, h.TxRate)
}
