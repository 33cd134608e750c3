package report

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mikrodesk/internal/listing"
)

// DefaultCurrency is shown when the backend does not name one.
const DefaultCurrency = "LRD"

// FormatCurrency renders amount with thousands separators followed by the
// currency code, e.g. "1,250.5 LRD".
func FormatCurrency(amount float64, currency string) string {
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	return humanize.CommafWithDigits(amount, 2) + " " + currency
}

// Chart views.
const (
	ViewDaily   = "daily"
	ViewMonthly = "monthly"
)

// FormatChartDate renders a revenue bucket label. Unparseable input is
// returned unchanged.
func FormatChartDate(s, view string) string {
	if view == ViewMonthly {
		if t, err := time.Parse("2006-01", s); err == nil {
			return t.Format("January 2006")
		}
		return s
	}
	if t, ok := listing.ParseDate(s); ok {
		return t.Format("January 2, 2006")
	}
	return s
}
