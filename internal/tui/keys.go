package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	NextTab     key.Binding
	PrevTab     key.Binding
	TabHome     key.Binding
	TabSearch   key.Binding
	TabList     key.Binding
	TabStats    key.Binding
	NextSection key.Binding
	PrevSection key.Binding

	// Actions
	Quit        key.Binding
	Help        key.Binding
	Escape      key.Binding
	Filter      key.Binding
	Search      key.Binding
	Refresh     key.Binding
	Increment   key.Binding
	Add         key.Binding
	CycleStatus key.Binding
	ScoreUp     key.Binding
	ScoreDown   key.Binding
	Edit        key.Binding
	Delete      key.Binding
	OpenPage    key.Binding

	// Confirmations
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "previous tab"),
		),
		TabHome: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "home"),
		),
		TabSearch: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "search"),
		),
		TabList: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "my list"),
		),
		TabStats: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "stats"),
		),
		NextSection: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next section"),
		),
		PrevSection: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous section"),
		),

		// Actions
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Search: key.NewBinding(
			key.WithKeys("s", "ctrl+f"),
			key.WithHelp("s", "search catalog"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Increment: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "watched next episode"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add to list"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cycle status"),
		),
		ScoreUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "score up"),
		),
		ScoreDown: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "score down"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e/enter", "edit entry"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "remove from list"),
		),
		OpenPage: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),

		// Confirmations
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Increment, k.Add, k.CycleStatus, k.Edit, k.Delete, k.Filter, k.Help, k.Quit}
}

// FullHelp returns every binding grouped for the help screen
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.TabHome, k.TabSearch, k.TabList, k.TabStats, k.NextSection, k.PrevSection},
		{k.Increment, k.Add, k.CycleStatus, k.ScoreUp, k.ScoreDown, k.Edit, k.Delete, k.OpenPage},
		{k.Filter, k.Search, k.Refresh, k.Escape, k.Help, k.Quit},
	}
}
