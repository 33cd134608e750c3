package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mikrodesk/internal/api"
	"mikrodesk/internal/listing"
	"mikrodesk/internal/report"
	"mikrodesk/internal/storage"
)

const chartBars = 7

type reportModel struct {
	width  int
	height int

	data   *api.Report
	pager  *listing.Pager[api.Transaction]
	table  table.Model
	search searchBox

	date        textinput.Model
	editingDate bool
	dateErr     bool

	chart  string
	format string
}

func newReportModel(pageSize int) reportModel {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(pageSize+1),
	)
	t.SetStyles(tableStyles())

	di := textinput.New()
	di.Prompt = "date: "
	di.Placeholder = "YYYY-MM-DD"
	di.CharLimit = 10
	di.PromptStyle = lipgloss.NewStyle().Foreground(colorTeal)

	rm := reportModel{
		pager:  listing.NewPager[api.Transaction](pageSize),
		table:  t,
		search: newSearchBox("voucher, profile or batch"),
		date:   di,
		chart:  report.ViewDaily,
		format: report.FormatCSV,
	}
	rm.applyFilter()
	return rm
}

func (rm *reportModel) setSize(w, h int) {
	rm.width = w
	rm.height = h
	avail := w - 20
	if avail < 60 {
		avail = 60
	}
	rm.table.SetRows(nil)
	rm.table.SetColumns([]table.Column{
		{Title: "Voucher", Width: avail * 2 / 12},
		{Title: "Profile", Width: avail * 2 / 12},
		{Title: "First login", Width: avail * 2 / 12},
		{Title: "IP", Width: avail * 2 / 12},
		{Title: "Price", Width: avail / 12},
		{Title: "Usage", Width: avail * 2 / 12},
		{Title: "Logins", Width: 6},
	})
	rm.refreshRows()
}

func (rm *reportModel) setReport(r *api.Report) {
	rm.data = r
	if r == nil {
		rm.pager.SetItems(nil)
	} else {
		rm.pager.SetItems(r.Transactions)
	}
	rm.refreshRows()
}

func (rm *reportModel) setFormat(kind string) {
	if k, err := report.NormalizeFormat(kind); err == nil {
		rm.format = k
	}
}

func (rm *reportModel) capturing() bool {
	return rm.search.active || rm.editingDate
}

func (rm *reportModel) bindings() []key.Binding {
	return []key.Binding{keys.Search, keys.Date, keys.PrevPage, keys.NextPage, keys.Chart, keys.Export, keys.Format}
}

func (rm *reportModel) applyFilter() {
	f := listing.TransactionFilter{Search: rm.search.value()}
	dateText := strings.TrimSpace(rm.date.Value())
	rm.dateErr = false
	if dateText != "" {
		if d, ok := listing.ParseDate(dateText); ok {
			f.Date = d
		} else {
			rm.dateErr = true
		}
	}
	rm.pager.SetFilter(f.Search+"\x00"+f.Date.Format("2006-01-02"), f.Match)
	rm.refreshRows()
}

func (rm *reportModel) refreshRows() {
	page := rm.pager.Page()
	rows := make([]table.Row, len(page))
	for i, t := range page {
		rows[i] = table.Row{
			t.VoucherName, t.Profile, strings.TrimSpace(t.FirstLoginDate + " " + t.FirstLoginTime),
			t.IPAddress, t.Price, t.UsageDurationFormatted, fmt.Sprintf("%d", t.LoginCount),
		}
	}
	rm.table.SetRows(rows)
	if rm.table.Cursor() >= len(rows) {
		rm.table.GotoTop()
	}
}

func (rm *reportModel) Update(msg tea.Msg, root *Model) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if rm.search.active {
		cmd := rm.search.Update(km)
		rm.applyFilter()
		return cmd
	}
	if rm.editingDate {
		switch km.String() {
		case "enter":
			rm.editingDate = false
			rm.date.Blur()
		case "esc":
			rm.editingDate = false
			rm.date.Blur()
			rm.date.SetValue("")
		default:
			var cmd tea.Cmd
			rm.date, cmd = rm.date.Update(km)
			rm.applyFilter()
			return cmd
		}
		rm.applyFilter()
		return nil
	}

	switch {
	case key.Matches(km, keys.Search):
		return rm.search.open()
	case key.Matches(km, keys.Date):
		rm.editingDate = true
		return rm.date.Focus()
	case key.Matches(km, keys.NextPage):
		rm.pager.Next()
		rm.refreshRows()
		return nil
	case key.Matches(km, keys.PrevPage):
		rm.pager.Prev()
		rm.refreshRows()
		return nil
	case key.Matches(km, keys.Chart):
		if rm.chart == report.ViewDaily {
			rm.chart = report.ViewMonthly
		} else {
			rm.chart = report.ViewDaily
		}
		return nil
	case key.Matches(km, keys.Format):
		if rm.format == report.FormatCSV {
			rm.format = report.FormatXLSX
		} else {
			rm.format = report.FormatCSV
		}
		return saveSetting(root.store, storage.SettingExportFormat, rm.format)
	case key.Matches(km, keys.Export):
		return exportReport(root.exportDir, rm.format, rm.pager.Filtered())
	case key.Matches(km, keys.Back):
		rm.search.input.SetValue("")
		rm.date.SetValue("")
		rm.applyFilter()
		return nil
	}

	var cmd tea.Cmd
	rm.table, cmd = rm.table.Update(msg)
	return cmd
}

func (rm *reportModel) currency() string {
	if rm.data == nil {
		return ""
	}
	return rm.data.Currency
}

func (rm *reportModel) summary() string {
	if rm.data == nil {
		return dimStyle.Render("loading report...")
	}
	cur := rm.currency()
	stat := func(label string, value string) string {
		return lipgloss.JoinVertical(lipgloss.Left, dimStyle.Render(label), bigValueStyle.Render(value))
	}
	cells := []string{
		stat("Total revenue", report.FormatCurrency(rm.data.TotalRevenue, cur)),
		stat("Today", report.FormatCurrency(rm.data.TodayRevenue, cur)),
		stat("This month", report.FormatCurrency(rm.data.ThisMonthRevenue, cur)),
		stat("Average", report.FormatCurrency(rm.data.AverageRevenue, cur)),
		stat("Vouchers", fmt.Sprintf("%d", rm.data.Total)),
		stat("Logins/voucher", fmt.Sprintf("%.1f", rm.data.AverageLoginsPerVoucher)),
	}
	for i := range cells {
		cells[i] = lipgloss.NewStyle().PaddingRight(4).Render(cells[i])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

type bar struct {
	label string
	value float64
}

func (rm *reportModel) bars() []bar {
	if rm.data == nil {
		return nil
	}
	var out []bar
	if rm.chart == report.ViewMonthly {
		for _, m := range rm.data.RevenueStats.Monthly {
			out = append(out, bar{report.FormatChartDate(m.Month, report.ViewMonthly), m.Revenue})
		}
	} else {
		for _, d := range rm.data.RevenueStats.Daily {
			out = append(out, bar{report.FormatChartDate(d.Date, report.ViewDaily), d.Revenue})
		}
	}
	if len(out) > chartBars {
		out = out[len(out)-chartBars:]
	}
	return out
}

// chartView draws the latest revenue buckets as horizontal bars.
func (rm *reportModel) chartView() string {
	title := cardTitleStyle.Render("Revenue (" + rm.chart + ")")
	bars := rm.bars()
	if len(bars) == 0 {
		return title + "\n" + dimStyle.Render("no revenue yet")
	}
	peak := 0.0
	for _, b := range bars {
		if b.value > peak {
			peak = b.value
		}
	}
	width := rm.width - 50
	if width < 10 {
		width = 10
	}
	lines := []string{title}
	for _, b := range bars {
		n := 0
		if peak > 0 {
			n = int(b.value / peak * float64(width))
		}
		lines = append(lines, fmt.Sprintf("%-20s %s %s",
			truncate(b.label, 20),
			lipgloss.NewStyle().Foreground(colorTeal).Render(strings.Repeat("█", n)),
			report.FormatCurrency(b.value, rm.currency())))
	}
	return strings.Join(lines, "\n")
}

func (rm *reportModel) View() string {
	filters := rm.search.View() + "   "
	if rm.editingDate || rm.date.Value() != "" {
		filters += rm.date.View()
		if rm.dateErr {
			filters += errorStyle.Render("  invalid date")
		}
	} else {
		filters += dimStyle.Render("t to filter by date")
	}
	filters += dimStyle.Render("   export: " + rm.format)

	return forceHeight(lipgloss.JoinVertical(lipgloss.Left,
		rm.summary(),
		"",
		rm.chartView(),
		"",
		filters,
		rm.table.View(),
		pageFooter(rm.pager.Range, rm.pager.Total(), rm.pager.Current(), rm.pager.TotalPages()),
	), rm.width, rm.height)
}
