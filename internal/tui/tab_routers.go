package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"mikrodesk/internal/api"
	"mikrodesk/internal/form"
)

const (
	liveReportField = "liveReport"
	liveReportOn    = "on"
	liveReportOff   = "off"
)

type routersModel struct {
	width  int
	height int

	routers []api.Router
	table   table.Model

	form    *inputForm
	connect *form.ConnectForm
	editing *api.Router // nil while the connect form is open
	saving  bool
}

func newRoutersModel() routersModel {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())
	return routersModel{table: t}
}

func (rm *routersModel) setSize(w, h int) {
	rm.width = w
	rm.height = h
	th := h - 2
	if th < 1 {
		th = 1
	}
	rm.table.SetHeight(th)

	avail := w - 16
	if avail < 50 {
		avail = 50
	}
	rm.table.SetRows(nil)
	rm.table.SetColumns([]table.Column{
		{Title: "Name", Width: avail * 3 / 14},
		{Title: "Host", Width: avail * 3 / 14},
		{Title: "Hotspot", Width: avail * 2 / 14},
		{Title: "DNS name", Width: avail * 3 / 14},
		{Title: "Currency", Width: avail / 14},
		{Title: "Last connected", Width: avail * 2 / 14},
	})
	rm.refreshRows()
}

func (rm *routersModel) setRouters(routers []api.Router) {
	rm.routers = routers
	rm.refreshRows()
}

func (rm *routersModel) refreshRows() {
	rows := make([]table.Row, len(rm.routers))
	for i, r := range rm.routers {
		last := r.LastConnected
		if last == "" {
			last = "never"
		}
		rows[i] = table.Row{r.Name, r.Host, r.HotspotName, r.DNSName, r.Currency, last}
	}
	rm.table.SetRows(rows)
	if rm.table.Cursor() >= len(rows) {
		rm.table.GotoTop()
	}
}

func (rm *routersModel) selected() *api.Router {
	i := rm.table.Cursor()
	if i < 0 || i >= len(rm.routers) {
		return nil
	}
	r := rm.routers[i]
	return &r
}

func (rm *routersModel) capturing() bool {
	return rm.form != nil
}

func (rm *routersModel) closeForm() {
	rm.form = nil
	rm.connect = nil
	rm.editing = nil
	rm.saving = false
}

func (rm *routersModel) bindings() []key.Binding {
	if rm.form != nil {
		return nil
	}
	return []key.Binding{keys.Enter, keys.New, keys.Edit, keys.Delete, keys.Refresh}
}

// openForm shows the router fields seeded from cf. Pass a router to edit
// it instead of connecting.
func (rm *routersModel) openForm(cf *form.ConnectForm, editing *api.Router) {
	title := "Connect to a router"
	if editing != nil {
		title = "Edit router " + editing.Name
	}
	fields := make([]formField, 0, len(form.ConnectFields)+1)
	for _, field := range form.ConnectFields {
		if field == form.FieldPassword {
			fields = append(fields, secretField(field, form.Label(field), cf.Get(field)))
		} else {
			fields = append(fields, newField(field, form.Label(field), cf.Get(field)))
		}
	}
	live := liveReportOff
	if cf.LiveReport {
		live = liveReportOn
	}
	fields = append(fields, choiceField(liveReportField, "Live report", live, []string{liveReportOn, liveReportOff}))

	rm.form = newInputForm(title, fields...)
	rm.connect = cf
	rm.editing = editing
	rm.saving = false
}

// sync copies the inputs into the connect form.
func (rm *routersModel) sync() {
	for _, field := range form.ConnectFields {
		_ = rm.connect.Set(field, rm.form.value(field))
	}
	rm.connect.LiveReport = rm.form.value(liveReportField) == liveReportOn
}

func (rm *routersModel) Update(msg tea.Msg, root *Model) tea.Cmd {
	switch msg := msg.(type) {
	case mutationDoneMsg:
		if !rm.saving {
			return nil
		}
		rm.saving = false
		if msg.err != nil {
			rm.form.setError(msg.err)
			return nil
		}
		rm.closeForm()
		return loadRouters(root.client)

	case connectResultMsg:
		rm.saving = false
		return nil

	case tea.KeyMsg:
		if rm.form != nil {
			return rm.updateForm(msg, root)
		}
		return rm.handleKey(msg, root)
	}
	return nil
}

func (rm *routersModel) handleKey(msg tea.KeyMsg, root *Model) tea.Cmd {
	switch {
	case key.Matches(msg, keys.New):
		rm.openForm(form.NewConnectForm(), nil)
		return nil

	case key.Matches(msg, keys.Enter):
		r := rm.selected()
		if r == nil || root.connecting {
			return nil
		}
		cf := form.FromRouter(r)
		if _, err := cf.Submit(); err != nil {
			// Incomplete inventory entries open the form to fill the gaps.
			rm.openForm(cf, nil)
			rm.form.setErrors(cf.Errors())
			return nil
		}
		root.connecting = true
		root.setNotification("Connecting to "+r.Name+"...", false)
		return connectRouter(root.session, cf)

	case key.Matches(msg, keys.Edit):
		if r := rm.selected(); r != nil {
			rm.openForm(form.FromRouter(r), r)
		}
		return nil

	case key.Matches(msg, keys.Delete):
		if r := rm.selected(); r != nil {
			router := *r
			root.askConfirm(fmt.Sprintf("Delete router %s?", router.Name), deleteRouter(root.session, router))
		}
		return nil
	}

	var cmd tea.Cmd
	rm.table, cmd = rm.table.Update(msg)
	return cmd
}

func (rm *routersModel) updateForm(msg tea.KeyMsg, root *Model) tea.Cmd {
	if rm.saving || root.connecting {
		return nil
	}
	action, left, cmd := rm.form.Update(msg)
	switch action {
	case formCancelled:
		rm.closeForm()
		return nil
	case formMoved:
		rm.sync()
		rm.connect.Touch(left)
		rm.form.setErrors(rm.connect.Errors())
		return cmd
	case formSubmitted:
		return rm.submit(root)
	}
	return cmd
}

func (rm *routersModel) submit(root *Model) tea.Cmd {
	rm.sync()
	params, err := rm.connect.Submit()
	if err != nil {
		rm.form.setError(err)
		return nil
	}

	if rm.editing == nil {
		root.connecting = true
		root.setNotification("Connecting to "+params.Name+"...", false)
		return connectRouter(root.session, rm.connect)
	}

	id, client := rm.editing.ID, root.client
	update := api.RouterUpdate{
		Name:           params.Name,
		Host:           params.Host,
		Username:       params.User,
		Password:       params.Password,
		HotspotName:    params.HotspotName,
		DNSName:        params.DNSName,
		Currency:       params.Currency,
		SessionTimeout: params.SessionTimeout,
		LiveReport:     params.LiveReport,
	}
	rm.saving = true
	return mutate(root.cache, "Router updated", func(ctx context.Context) error {
		return client.UpdateRouter(ctx, id, update)
	})
}

func (rm *routersModel) View() string {
	if rm.form != nil {
		view := rm.form.View(rm.width)
		if rm.saving {
			view += "\n" + dimStyle.Render("saving...")
		}
		return forceHeight(view, rm.width, rm.height)
	}

	top := cardTitleStyle.Render("Saved routers") + dimStyle.Render(fmt.Sprintf("  %d", len(rm.routers)))
	if len(rm.routers) == 0 {
		return forceHeight(top+"\n\n"+dimStyle.Render("No routers yet. Press n to connect to one."), rm.width, rm.height)
	}
	return forceHeight(top+"\n"+rm.table.View(), rm.width, rm.height)
}
