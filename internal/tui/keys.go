package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	TabNext    key.Binding
	TabPrev    key.Binding
	Enter      key.Binding
	Back       key.Binding
	Refresh    key.Binding
	Disconnect key.Binding
	Search     key.Binding
	New        key.Binding
	Edit       key.Binding
	Delete     key.Binding
	View       key.Binding
	Generate   key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	Status     key.Binding
	Date       key.Binding
	Export     key.Binding
	Format     key.Binding
	Chart      key.Binding
	Interface  key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	TabNext: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next tab"),
	),
	TabPrev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev tab"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Disconnect: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "disconnect"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x", "delete"),
		key.WithHelp("x", "delete"),
	),
	View: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "switch view"),
	),
	Generate: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "vouchers"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("right", "l", "]"),
		key.WithHelp("→", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("left", "h", "["),
		key.WithHelp("←", "prev page"),
	),
	Status: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "status"),
	),
	Date: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "date"),
	),
	Export: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "export"),
	),
	Format: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "format"),
	),
	Chart: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "daily/monthly"),
	),
	Interface: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "interface"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "yes"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n", "no"),
	),
}

// ShortHelp returns the global part of the help bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.TabNext, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns grouped bindings for the expanded help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TabNext, k.TabPrev, k.Enter, k.Back, k.Refresh, k.Disconnect},
		{k.Search, k.New, k.Edit, k.Delete, k.View, k.Generate},
		{k.PrevPage, k.NextPage, k.Status, k.Date, k.Export, k.Format, k.Chart, k.Interface},
		{k.Help, k.Quit},
	}
}
