package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"mikrodesk/internal/api"
	"mikrodesk/internal/listing"
)

type logsModel struct {
	width  int
	height int

	pager  *listing.Pager[api.HotspotLog]
	table  table.Model
	search searchBox
	status string
}

func newLogsModel(pageSize int) logsModel {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(pageSize+1),
	)
	t.SetStyles(tableStyles())
	lm := logsModel{
		pager:  listing.NewPager[api.HotspotLog](pageSize),
		table:  t,
		search: newSearchBox("user, IP or message"),
		status: listing.StatusAll,
	}
	lm.applyFilter()
	return lm
}

func (lm *logsModel) setSize(w, h int) {
	lm.width = w
	lm.height = h
	avail := w - 16
	if avail < 40 {
		avail = 40
	}
	lm.table.SetRows(nil)
	lm.table.SetColumns([]table.Column{
		{Title: "Time", Width: 10},
		{Title: "User", Width: avail * 2 / 10},
		{Title: "IP", Width: avail * 2 / 10},
		{Title: "Status", Width: avail / 10},
		{Title: "Message", Width: avail * 5 / 10},
	})
	lm.refreshRows()
}

func (lm *logsModel) setLogs(logs []api.HotspotLog) {
	lm.pager.SetItems(logs)
	lm.refreshRows()
}

func (lm *logsModel) capturing() bool {
	return lm.search.active
}

func (lm *logsModel) bindings() []key.Binding {
	return []key.Binding{keys.Search, keys.Status, keys.PrevPage, keys.NextPage}
}

// applyFilter installs the current search and status. Changing either
// returns to page 1.
func (lm *logsModel) applyFilter() {
	f := listing.LogFilter{Search: lm.search.value(), Status: lm.status}
	lm.pager.SetFilter(f.Search+"\x00"+f.Status, f.Match)
	lm.refreshRows()
}

func (lm *logsModel) refreshRows() {
	page := lm.pager.Page()
	rows := make([]table.Row, len(page))
	for i, l := range page {
		rows[i] = table.Row{l.Time, l.User, l.IP, l.Status, l.Message}
	}
	lm.table.SetRows(rows)
	if lm.table.Cursor() >= len(rows) {
		lm.table.GotoTop()
	}
}

func (lm *logsModel) Update(msg tea.Msg, root *Model) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if lm.search.active {
		cmd := lm.search.Update(km)
		lm.applyFilter()
		return cmd
	}

	switch {
	case key.Matches(km, keys.Search):
		return lm.search.open()
	case key.Matches(km, keys.Status):
		lm.status = nextOf(listing.LogStatuses, lm.status)
		lm.applyFilter()
		return nil
	case key.Matches(km, keys.NextPage):
		lm.pager.Next()
		lm.refreshRows()
		return nil
	case key.Matches(km, keys.PrevPage):
		lm.pager.Prev()
		lm.refreshRows()
		return nil
	case key.Matches(km, keys.Back):
		lm.search.input.SetValue("")
		lm.status = listing.StatusAll
		lm.applyFilter()
		return nil
	}

	var cmd tea.Cmd
	lm.table, cmd = lm.table.Update(msg)
	return cmd
}

func (lm *logsModel) View() string {
	top := lm.search.View() + dimStyle.Render("   status: ") + logStatusStyle(lm.status).Render(lm.status)
	return forceHeight(top+"\n"+lm.table.View()+"\n"+pageFooter(lm.pager.Range, lm.pager.Total(), lm.pager.Current(), lm.pager.TotalPages()),
		lm.width, lm.height)
}

// pageFooter renders "Showing x to y of z" with the page position.
func pageFooter(rng func() (int, int), total, page, pages int) string {
	from, to := rng()
	return dimStyle.Render(fmt.Sprintf("Showing %d to %d of %d  ·  page %d/%d", from, to, total, page, pages))
}

// nextOf returns the element after cur in list, wrapping around.
func nextOf(list []string, cur string) string {
	for i, v := range list {
		if v == cur {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}
