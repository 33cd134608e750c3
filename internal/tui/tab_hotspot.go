package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mikrodesk/internal/api"
	"mikrodesk/internal/app"
	"mikrodesk/internal/form"
	"mikrodesk/internal/listing"
	"mikrodesk/internal/storage"
	"mikrodesk/internal/voucher"
	pkgerrors "mikrodesk/pkg/errors"
)

// Hotspot sub-views, persisted in the hotspot_view setting.
const (
	viewUsers    = "users"
	viewProfiles = "profiles"
	viewActive   = "active"
	viewHosts    = "hosts"
)

var hotspotViews = []string{viewUsers, viewProfiles, viewActive, viewHosts}

type hotspotForm int

const (
	noForm hotspotForm = iota
	userCreateForm
	userEditForm
	profileCreateForm
	profileEditForm
	voucherForm
)

type hotspotModel struct {
	width  int
	height int

	view   string
	table  table.Model
	search searchBox

	users    []api.HotspotUser
	profiles []api.HotspotProfile
	active   []api.ActiveUser
	hosts    []api.HotspotHost
	servers  []api.HotspotServer
	pools    []api.IPPool

	// Rows currently in the table, so the cursor maps back to a record.
	shownUsers    []api.HotspotUser
	shownProfiles []api.HotspotProfile
	shown         int
	total         int

	form     *inputForm
	formKind hotspotForm
	editing  string
	saving   bool

	// Last generated batch, shown until dismissed.
	result      *voucher.Sheet
	resultTable table.Model
}

func newHotspotModel() hotspotModel {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())
	rt := table.New(table.WithFocused(true), table.WithHeight(10))
	rt.SetStyles(tableStyles())
	hm := hotspotModel{
		view:        viewUsers,
		table:       t,
		resultTable: rt,
		search:      newSearchBox("name, profile, address..."),
	}
	hm.rebuild()
	return hm
}

func (hm *hotspotModel) setSize(w, h int) {
	hm.width = w
	hm.height = h
	th := h - 2
	if th < 1 {
		th = 1
	}
	hm.table.SetHeight(th)
	rh := h - 4
	if rh < 1 {
		rh = 1
	}
	hm.resultTable.SetHeight(rh)
	hm.rebuild()
	if hm.result != nil {
		hm.showResult(hm.result)
	}
}

func (hm *hotspotModel) setView(v string) {
	for _, known := range hotspotViews {
		if v == known {
			hm.view = v
			hm.rebuild()
			return
		}
	}
}

func (hm *hotspotModel) reset() {
	hm.users, hm.profiles, hm.active, hm.hosts = nil, nil, nil, nil
	hm.servers, hm.pools = nil, nil
	hm.result = nil
	hm.closeForm()
	hm.rebuild()
}

func (hm *hotspotModel) setUsers(u []api.HotspotUser) {
	hm.users = u
	if hm.view == viewUsers {
		hm.rebuild()
	}
}

func (hm *hotspotModel) setProfiles(p []api.HotspotProfile) {
	hm.profiles = p
	if hm.view == viewProfiles {
		hm.rebuild()
	}
}

func (hm *hotspotModel) setActive(a []api.ActiveUser) {
	hm.active = a
	if hm.view == viewActive {
		hm.rebuild()
	}
}

func (hm *hotspotModel) setHosts(h []api.HotspotHost) {
	hm.hosts = h
	if hm.view == viewHosts {
		hm.rebuild()
	}
}

func (hm *hotspotModel) capturing() bool {
	return hm.form != nil || hm.search.active
}

func (hm *hotspotModel) closeForm() {
	hm.form = nil
	hm.formKind = noForm
	hm.editing = ""
	hm.saving = false
}

func (hm *hotspotModel) bindings() []key.Binding {
	if hm.form != nil {
		return nil
	}
	if hm.result != nil {
		return []key.Binding{keys.Back}
	}
	b := []key.Binding{keys.View, keys.Search}
	if hm.view == viewUsers || hm.view == viewProfiles {
		b = append(b, keys.New, keys.Edit, keys.Delete)
	}
	return append(b, keys.Generate)
}

// columns splits the available width over the given titles by weight.
func (hm *hotspotModel) columns(titles []string, weights []int) []table.Column {
	total := 0
	for _, w := range weights {
		total += w
	}
	avail := hm.width - 2*len(titles) - 2
	if avail < len(titles)*6 {
		avail = len(titles) * 6
	}
	cols := make([]table.Column, len(titles))
	for i, t := range titles {
		cols[i] = table.Column{Title: t, Width: avail * weights[i] / total}
	}
	return cols
}

// rebuild reapplies the search to the current view and refreshes the table.
func (hm *hotspotModel) rebuild() {
	q := hm.search.value()
	var cols []table.Column
	var rows []table.Row

	switch hm.view {
	case viewUsers:
		f := listing.UserFilter{Search: q}
		hm.shownUsers = hm.shownUsers[:0]
		for _, u := range hm.users {
			if f.Match(u) {
				hm.shownUsers = append(hm.shownUsers, u)
				rows = append(rows, table.Row{u.Name, u.Profile, u.Server, u.Uptime, u.BytesIn, u.BytesOut, u.Comment})
			}
		}
		hm.total = len(hm.users)
		cols = hm.columns(
			[]string{"Name", "Profile", "Server", "Uptime", "Bytes in", "Bytes out", "Comment"},
			[]int{3, 2, 2, 2, 2, 2, 3})

	case viewProfiles:
		f := listing.ProfileFilter{Search: q}
		hm.shownProfiles = hm.shownProfiles[:0]
		for _, p := range hm.profiles {
			if f.Match(p) {
				hm.shownProfiles = append(hm.shownProfiles, p)
				rows = append(rows, table.Row{
					p.Name, p.RateLimit, strconv.Itoa(p.SharedUsers), p.Validity,
					formatPrice(p.Price.Float()), formatPrice(p.SellingPrice.Float()), p.AddressPool,
				})
			}
		}
		hm.total = len(hm.profiles)
		cols = hm.columns(
			[]string{"Name", "Rate limit", "Shared", "Validity", "Price", "Selling", "Pool"},
			[]int{3, 2, 1, 2, 2, 2, 2})

	case viewActive:
		f := listing.ActiveUserFilter{Search: q}
		for _, a := range hm.active {
			if f.Match(a) {
				rows = append(rows, table.Row{a.User, a.Address, a.MacAddress, a.Uptime, a.TimeLeft, a.BytesIn + "/" + a.BytesOut, a.Server})
			}
		}
		hm.total = len(hm.active)
		cols = hm.columns(
			[]string{"User", "Address", "MAC", "Uptime", "Time left", "In/Out", "Server"},
			[]int{2, 2, 3, 2, 2, 3, 2})

	case viewHosts:
		f := listing.HostFilter{Search: q}
		for _, h := range hm.hosts {
			if f.Match(h) {
				rows = append(rows, table.Row{h.MacAddress, h.Address, h.ToAddress, h.Server, h.RxRate, h.TxRate, h.Comment})
			}
		}
		hm.total = len(hm.hosts)
		cols = hm.columns(
			[]string{"MAC", "Address", "To address", "Server", "RX rate", "TX rate", "Comment"},
			[]int{3, 2, 2, 2, 2, 2, 2})
	}

	hm.shown = len(rows)
	// Rows must be cleared first: the table renders every column of each row.
	hm.table.SetRows(nil)
	hm.table.SetColumns(cols)
	hm.table.SetRows(rows)
	if hm.table.Cursor() >= len(rows) {
		hm.table.GotoTop()
	}
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (hm *hotspotModel) selectedUser() *api.HotspotUser {
	i := hm.table.Cursor()
	if hm.view != viewUsers || i < 0 || i >= len(hm.shownUsers) {
		return nil
	}
	return &hm.shownUsers[i]
}

func (hm *hotspotModel) selectedProfile() *api.HotspotProfile {
	i := hm.table.Cursor()
	if hm.view != viewProfiles || i < 0 || i >= len(hm.shownProfiles) {
		return nil
	}
	return &hm.shownProfiles[i]
}

func (hm *hotspotModel) profileNames() []string {
	names := make([]string, 0, len(hm.profiles))
	for _, p := range hm.profiles {
		names = append(names, p.Name)
	}
	return names
}

func (hm *hotspotModel) serverNames() []string {
	names := []string{"all"}
	for _, s := range hm.servers {
		names = append(names, s.Name)
	}
	return names
}

func (hm *hotspotModel) poolNames() []string {
	names := []string{"none"}
	for _, p := range hm.pools {
		names = append(names, p.Name)
	}
	return names
}

func (hm *hotspotModel) Update(msg tea.Msg, root *Model) tea.Cmd {
	switch msg := msg.(type) {
	case mutationDoneMsg, vouchersGeneratedMsg:
		if !hm.saving {
			return nil
		}
		hm.saving = false
		var err error
		switch m := msg.(type) {
		case mutationDoneMsg:
			err = m.err
		case vouchersGeneratedMsg:
			err = m.err
			if err == nil {
				hm.showResult(m.sheet)
			}
		}
		if err == nil {
			hm.closeForm()
		} else if hm.form != nil {
			hm.form.setError(err)
		}
		return nil

	case tea.KeyMsg:
		if hm.form != nil {
			return hm.updateForm(msg, root)
		}
		if hm.result != nil {
			if key.Matches(msg, keys.Back) {
				hm.result = nil
				return nil
			}
			var cmd tea.Cmd
			hm.resultTable, cmd = hm.resultTable.Update(msg)
			return cmd
		}
		if hm.search.active {
			cmd := hm.search.Update(msg)
			hm.rebuild()
			return cmd
		}
		return hm.handleKey(msg, root)
	}
	return nil
}

func (hm *hotspotModel) handleKey(msg tea.KeyMsg, root *Model) tea.Cmd {
	switch {
	case key.Matches(msg, keys.View):
		next := hotspotViews[0]
		for i, v := range hotspotViews {
			if v == hm.view {
				next = hotspotViews[(i+1)%len(hotspotViews)]
			}
		}
		hm.view = next
		hm.table.GotoTop()
		hm.rebuild()
		return saveSetting(root.store, storage.SettingHotspotView, next)

	case key.Matches(msg, keys.Search):
		return hm.search.open()

	case key.Matches(msg, keys.Back):
		if hm.search.value() != "" {
			hm.search.input.SetValue("")
			hm.rebuild()
		}
		return nil

	case key.Matches(msg, keys.New):
		switch hm.view {
		case viewUsers:
			hm.openUserForm(form.NewUserForm(), userCreateForm)
		case viewProfiles:
			hm.openProfileForm(form.NewProfileForm(), profileCreateForm)
		}
		return nil

	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		if u := hm.selectedUser(); u != nil {
			hm.openUserForm(form.UserFormFrom(u), userEditForm)
			hm.editing = u.Name
		} else if p := hm.selectedProfile(); p != nil {
			hm.openProfileForm(form.ProfileFormFrom(p), profileEditForm)
			hm.editing = p.Name
		}
		return nil

	case key.Matches(msg, keys.Delete):
		client, sess := root.client, root.session
		if u := hm.selectedUser(); u != nil {
			name := u.Name
			root.askConfirm(fmt.Sprintf("Delete user %s?", name), mutate(root.cache, "User deleted",
				scoped(sess, func(ctx context.Context, id string) error {
					return client.DeleteUser(ctx, id, name)
				}), app.ResUsers, app.ResUserCount))
		} else if p := hm.selectedProfile(); p != nil {
			name := p.Name
			root.askConfirm(fmt.Sprintf("Delete profile %s?", name), mutate(root.cache, "Profile deleted",
				scoped(sess, func(ctx context.Context, id string) error {
					return client.DeleteProfile(ctx, id, name)
				}), app.ResProfiles))
		}
		return nil

	case key.Matches(msg, keys.Generate):
		hm.openVoucherForm(form.NewVoucherForm())
		return nil
	}

	var cmd tea.Cmd
	hm.table, cmd = hm.table.Update(msg)
	return cmd
}

func (hm *hotspotModel) openUserForm(f *form.UserForm, kind hotspotForm) {
	title := "New hotspot user"
	fields := []formField{choiceField("server", "Server", f.Server, hm.serverNames())}
	if kind == userCreateForm {
		fields = append(fields,
			newField("name", "Name", f.Name),
			secretField("password", "Password", f.Password),
		)
	} else {
		title = "Edit user " + f.Name
		fields = append(fields, secretField("password", "New password", ""))
	}
	fields = append(fields,
		choiceField("profile", "Profile", f.Profile, hm.profileNames()),
		newField("macAddress", "MAC address", f.MacAddress),
		newField("timeLimit", "Time limit", f.TimeLimit),
		newField("dataLimit", "Data limit", f.DataLimit),
		newField("comment", "Comment", f.Comment),
	)
	hm.form = newInputForm(title, fields...)
	hm.formKind = kind
}

func (hm *hotspotModel) openProfileForm(f *form.ProfileForm, kind hotspotForm) {
	title := "New user profile"
	if kind == profileEditForm {
		title = "Edit profile " + f.Name
	}
	hm.form = newInputForm(title,
		newField("name", "Name", f.Name),
		choiceField("addressPool", "Address pool", f.AddressPool, hm.poolNames()),
		newField("sharedUsers", "Shared users", strconv.Itoa(f.SharedUsers)),
		newField("rateLimit", "Rate limit", f.RateLimit),
		newField("parentQueue", "Parent queue", f.ParentQueue),
		choiceField("expiredMode", "Expire mode", f.ExpiredMode, form.ExpireModes),
		newField("validity", "Validity", f.Validity),
		newField("price", "Price", f.Price),
		newField("sellingPrice", "Selling price", f.SellingPrice),
		choiceField("lockUser", "Lock user", f.LockUser, []string{form.LockDisabled, form.LockEnabled}),
		choiceField("lockServer", "Lock server", f.LockServer, []string{form.LockDisabled, form.LockEnabled}),
	)
	hm.formKind = kind
}

func (hm *hotspotModel) openVoucherForm(f *form.VoucherForm) {
	hm.form = newInputForm("Generate vouchers",
		newField("count", "Count", strconv.Itoa(f.Count)),
		choiceField("profile", "Profile", f.Profile, hm.profileNames()),
		choiceField("server", "Server", f.Server, hm.serverNames()),
		newField("timeLimit", "Time limit", f.TimeLimit),
		newField("dataLimit", "Data limit", f.DataLimit),
		newField("nameLength", "Username length", strconv.Itoa(f.NameLength)),
		newField("passwordLength", "Password length", strconv.Itoa(f.PasswordLength)),
		choiceField("characters", "Characters", f.Characters, form.CharacterSets),
		choiceField("userMode", "User mode", f.UserMode, form.UserModes),
		newField("prefixUsername", "Username prefix", f.PrefixUsername),
		newField("comment", "Comment", f.Comment),
	)
	hm.formKind = voucherForm
}

func (hm *hotspotModel) updateForm(msg tea.KeyMsg, root *Model) tea.Cmd {
	if hm.saving {
		return nil
	}
	action, _, cmd := hm.form.Update(msg)
	switch action {
	case formCancelled:
		hm.closeForm()
		return nil
	case formSubmitted:
		return hm.submit(root)
	}
	return cmd
}

// submit validates the open form and issues the matching backend call.
func (hm *hotspotModel) submit(root *Model) tea.Cmd {
	client, sess, v := root.client, root.session, hm.form.values()

	switch hm.formKind {
	case userCreateForm, userEditForm:
		uf := &form.UserForm{
			Server: v["server"], Name: v["name"], Password: v["password"], Profile: v["profile"],
			MacAddress: v["macAddress"], TimeLimit: v["timeLimit"], DataLimit: v["dataLimit"], Comment: v["comment"],
		}
		if hm.formKind == userCreateForm {
			if err := uf.ValidateCreate(); err != nil {
				hm.form.setError(err)
				return nil
			}
			payload := uf.Payload()
			hm.saving = true
			return mutate(root.cache, "User created", scoped(sess, func(ctx context.Context, id string) error {
				return client.CreateUser(ctx, id, payload)
			}), app.ResUsers, app.ResUserCount)
		}
		if err := uf.ValidateEdit(); err != nil {
			hm.form.setError(err)
			return nil
		}
		name, payload := hm.editing, uf.Payload()
		hm.saving = true
		return mutate(root.cache, "User updated", scoped(sess, func(ctx context.Context, id string) error {
			return client.UpdateUser(ctx, id, name, payload)
		}), app.ResUsers)

	case profileCreateForm, profileEditForm:
		errs := map[string]string{}
		pf := &form.ProfileForm{
			Name: v["name"], AddressPool: v["addressPool"], RateLimit: v["rateLimit"],
			ParentQueue: v["parentQueue"], ExpiredMode: v["expiredMode"], Validity: v["validity"],
			Price: v["price"], SellingPrice: v["sellingPrice"], LockUser: v["lockUser"], LockServer: v["lockServer"],
		}
		pf.SharedUsers = hm.form.intValue("sharedUsers", "Shared users", errs)
		if !mergeErrors(errs, pf.Validate()) {
			hm.form.setErrors(errs)
			return nil
		}
		payload := pf.Payload()
		hm.saving = true
		if hm.formKind == profileCreateForm {
			return mutate(root.cache, "Profile created", scoped(sess, func(ctx context.Context, id string) error {
				return client.CreateProfile(ctx, id, payload)
			}), app.ResProfiles)
		}
		name := hm.editing
		return mutate(root.cache, "Profile updated", scoped(sess, func(ctx context.Context, id string) error {
			return client.UpdateProfile(ctx, id, name, payload)
		}), app.ResProfiles)

	case voucherForm:
		errs := map[string]string{}
		vf := &form.VoucherForm{
			Profile: v["profile"], Server: v["server"], TimeLimit: v["timeLimit"], DataLimit: v["dataLimit"],
			Characters: v["characters"], UserMode: v["userMode"], PrefixUsername: v["prefixUsername"], Comment: v["comment"],
		}
		vf.Count = hm.form.intValue("count", "Count", errs)
		vf.NameLength = hm.form.intValue("nameLength", "Username length", errs)
		vf.PasswordLength = hm.form.intValue("passwordLength", "Password length", errs)
		if !mergeErrors(errs, vf.Validate()) {
			hm.form.setErrors(errs)
			return nil
		}
		hm.saving = true
		return generateVouchers(root, vf.Request())
	}
	return nil
}

// showResult lists the credentials of a generated batch.
func (hm *hotspotModel) showResult(sheet *voucher.Sheet) {
	hm.result = sheet
	rows := make([]table.Row, 0, len(sheet.Vouchers))
	for i, v := range sheet.Vouchers {
		rows = append(rows, table.Row{strconv.Itoa(i + 1), v.Username, v.Password, v.Profile})
	}
	hm.resultTable.SetRows(nil)
	hm.resultTable.SetColumns(hm.columns(
		[]string{"#", "Username", "Password", "Profile"},
		[]int{1, 3, 3, 3}))
	hm.resultTable.SetRows(rows)
	hm.resultTable.GotoTop()
}

func (hm *hotspotModel) resultView() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Generated %d vouchers", len(hm.result.Vouchers)))

	var footer []string
	if p := hm.result.PriceLabel(); p != "" {
		footer = append(footer, "Price: "+p)
	}
	if hm.result.DNSName != "" {
		footer = append(footer, "Connect at: "+hm.result.DNSName)
	}
	footer = append(footer, "esc to close")

	return title + "\n" + hm.resultTable.View() + "\n\n" + dimStyle.Render(strings.Join(footer, "   "))
}

// mergeErrors folds a validation error into errs and reports whether the
// result is clean.
func mergeErrors(errs map[string]string, err error) bool {
	var ve *pkgerrors.ValidationError
	if errors.As(err, &ve) {
		for k, msg := range ve.Fields {
			if _, exists := errs[k]; !exists {
				errs[k] = msg
			}
		}
	}
	return len(errs) == 0
}

func (hm *hotspotModel) View() string {
	if hm.form != nil {
		view := hm.form.View(hm.width)
		if hm.saving {
			view += "\n" + dimStyle.Render("saving...")
		}
		return forceHeight(view, hm.width, hm.height)
	}
	if hm.result != nil {
		return forceHeight(hm.resultView(), hm.width, hm.height)
	}

	var tabs []string
	for _, v := range hotspotViews {
		label := strings.ToUpper(v[:1]) + v[1:]
		if v == hm.view {
			tabs = append(tabs, activeTabStyle.Padding(0, 1).Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Padding(0, 1).Render(label))
		}
	}
	count := dimStyle.Render(fmt.Sprintf("  %d of %d  ", hm.shown, hm.total))
	top := lipgloss.JoinHorizontal(lipgloss.Bottom, append(tabs, count, hm.search.View())...)

	return forceHeight(top+"\n"+hm.table.View(), hm.width, hm.height)
}
