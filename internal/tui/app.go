package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/kanshi/internal/catalog"
	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/mylist"
	"github.com/mmcdole/kanshi/internal/recommend"
	"github.com/mmcdole/kanshi/internal/stats"
	"github.com/mmcdole/kanshi/internal/store"
	"github.com/mmcdole/kanshi/internal/tui/components"
	"github.com/mmcdole/kanshi/internal/tui/styles"
)

// ApplicationState represents the current input mode
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateSearching
	StateFiltering
	StateEditing
	StateConfirmDelete
	StateHelp
)

// Tab is a top-level screen
type Tab int

const (
	TabHome Tab = iota
	TabSearch
	TabList
	TabStats
	tabCount
)

var tabNames = [tabCount]string{"Home", "Search", "My List", "Stats"}

// Home screen sections, top to bottom
const (
	sectionContinue = iota
	sectionRecommended
	sectionTrending
	sectionCount
)

// Toast lifetimes
const (
	statusDuration = 3 * time.Second
	errorDuration  = 5 * time.Second
)

// PageOpener opens a URL outside the terminal
type PageOpener interface {
	Open(url string) error
}

// Services bundles the application layer the UI drives
type Services struct {
	Commands *mylist.Commands
	Queries  *mylist.Queries
	Catalog  *catalog.Service
	Store    *store.ListStore
	Notifier *ChannelNotifier
	Browser  PageOpener // Optional
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Tab   Tab
	Ready bool

	// Services
	commands *mylist.Commands
	queries  *mylist.Queries
	catalog  *catalog.Service
	browser  PageOpener
	notices  <-chan domain.Notification
	changes  <-chan struct{}

	keys KeyMap
	help help.Model

	// Home
	Feeds       catalog.Feeds
	HomeLoading bool
	home        [sectionCount]components.CardList
	homeFocus   int

	// Search
	SearchInput   textinput.Model
	SearchQuery   string
	SearchResults []domain.CatalogItem
	SearchFilter  catalog.Filter
	Searching     bool
	searchList    components.CardList

	// My List
	ListStatus int // 0 = all, otherwise index+1 into domain.Statuses
	ListFilter string
	list       components.CardList

	// Stats
	Summary stats.Summary

	// Modals
	FilterInput   textinput.Model
	Form          components.EntryForm
	confirmID     int
	confirmTitle  string
	filterRestore string // Filter text before the prompt opened, restored on esc

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	statusSeq    int
	SpinnerFrame int
	InFlight     int // Mutations not yet settled
}

// NewModel creates a new application model
func NewModel(svc Services) Model {
	search := textinput.New()
	search.Placeholder = "Search anime (3+ characters)..."
	search.CharLimit = 100
	search.Width = 40
	search.Prompt = "⌕ "
	search.PromptStyle = styles.AccentStyle
	search.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	search.PlaceholderStyle = styles.DimStyle

	filter := textinput.New()
	filter.Placeholder = "type to filter..."
	filter.CharLimit = 100
	filter.Prompt = "/ "
	filter.PromptStyle = styles.FilterPromptStyle
	filter.TextStyle = styles.FilterStyle

	m := Model{
		State:       StateBrowsing,
		Tab:         TabHome,
		commands:    svc.Commands,
		queries:     svc.Queries,
		catalog:     svc.Catalog,
		browser:     svc.Browser,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		HomeLoading: true,
		SearchInput: search,
		FilterInput: filter,
		Form:        components.NewEntryForm(),
		searchList:  components.NewCardList("Results", "Press s to search the catalog"),
		list:        components.NewCardList("My List", "Nothing here yet"),
	}
	m.home[sectionContinue] = components.NewCardList("Continue Watching", "Nothing in progress")
	m.home[sectionRecommended] = components.NewCardList("Recommended for You", "Complete or watch a few titles to get recommendations")
	m.home[sectionTrending] = components.NewCardList("Trending Now", "No trending titles")
	m.home[sectionTrending].SetLoading(true)
	m.home[sectionRecommended].SetLoading(true)

	if svc.Notifier != nil {
		m.notices = svc.Notifier.C()
	}
	if svc.Store != nil {
		m.changes = watchStore(svc.Store)
	}
	m.rebuild()
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		LoadHomeCmd(m.catalog),
		TickCmd(100 * time.Millisecond),
	}
	if m.notices != nil {
		cmds = append(cmds, listenNotificationsCmd(m.notices))
	}
	if m.changes != nil {
		cmds = append(cmds, listenStoreCmd(m.changes))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.help.Width = msg.Width
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		for i := range m.home {
			m.home[i].SetSpinnerFrame(m.SpinnerFrame)
		}
		m.searchList.SetSpinnerFrame(m.SpinnerFrame)
		return m, TickCmd(100 * time.Millisecond)

	case HomeLoadedMsg:
		m.HomeLoading = false
		m.Feeds = msg.Feeds
		m.home[sectionTrending].SetLoading(false)
		m.home[sectionRecommended].SetLoading(false)
		m.rebuild()
		if msg.Err != nil {
			slog.Error("failed to load home feeds", "error", msg.Err)
			return m.setStatus(ErrMsg{Err: msg.Err, Context: "loading home"}.Error(), true)
		}
		return m, nil

	case SearchResultsMsg:
		if msg.Query != m.SearchQuery {
			return m, nil // Superseded by a newer search
		}
		m.Searching = false
		m.searchList.SetLoading(false)
		if msg.Err != nil {
			slog.Error("catalog search failed", "query", msg.Query, "error", msg.Err)
			return m.setStatus(ErrMsg{Err: msg.Err, Context: "searching"}.Error(), true)
		}
		m.SearchResults = msg.Results
		m.SearchFilter.Type = ""
		m.searchList.SetTitle(fmt.Sprintf("Results for %q", msg.Query))
		m.rebuild()
		return m, nil

	case ListRefreshedMsg:
		if msg.Err != nil {
			return m.setStatus(ErrMsg{Err: msg.Err, Context: "loading your list"}.Error(), true)
		}
		return m, nil

	case ListChangedMsg:
		m.rebuild()
		return m, listenStoreCmd(m.changes)

	case NotificationMsg:
		model, cmd := m.setStatus(msg.Notification.Text, msg.Notification.Error)
		return model, tea.Batch(cmd, listenNotificationsCmd(m.notices))

	case MutationSettledMsg:
		m.InFlight = max(m.InFlight-1, 0)
		return m, nil

	case ErrMsg:
		return m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil
	}

	return m, nil
}

func (m Model) setStatus(text string, isErr bool) (Model, tea.Cmd) {
	m.statusSeq++
	m.StatusMsg = text
	m.StatusIsErr = isErr
	d := statusDuration
	if isErr {
		d = errorDuration
	}
	return m, ClearStatusCmd(m.statusSeq, d)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.State {
	case StateEditing:
		return m.handleFormKey(msg)
	case StateConfirmDelete:
		return m.handleConfirmKey(msg)
	case StateSearching:
		return m.handleSearchKey(msg)
	case StateFiltering:
		return m.handleFilterKey(msg)
	case StateHelp:
		m.State = StateBrowsing
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.State = StateHelp
		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		return m.switchTab((m.Tab + 1) % tabCount)
	case key.Matches(msg, m.keys.PrevTab):
		return m.switchTab((m.Tab + tabCount - 1) % tabCount)
	case key.Matches(msg, m.keys.TabHome):
		return m.switchTab(TabHome)
	case key.Matches(msg, m.keys.TabSearch):
		return m.switchTab(TabSearch)
	case key.Matches(msg, m.keys.TabList):
		return m.switchTab(TabList)
	case key.Matches(msg, m.keys.TabStats):
		return m.switchTab(TabStats)
	case key.Matches(msg, m.keys.Search):
		model, _ := m.switchTab(TabSearch)
		m = model.(Model)
		m.State = StateSearching
		cmd := m.SearchInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		m.HomeLoading = true
		m.home[sectionTrending].SetLoading(true)
		return m, tea.Batch(RefreshListCmd(m.commands), LoadHomeCmd(m.catalog))
	case key.Matches(msg, m.keys.Filter):
		return m.openFilter()
	case key.Matches(msg, m.keys.NextSection):
		m.moveSection(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevSection):
		m.moveSection(-1)
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		return m.clearFilter(), nil
	}

	card, ok := m.selectedCard()
	if ok {
		switch {
		case key.Matches(msg, m.keys.Increment):
			return m.submit(m.commands.QuickIncrement(context.Background(), card.CatalogItem))
		case key.Matches(msg, m.keys.Add):
			return m.addCard(card)
		case key.Matches(msg, m.keys.CycleStatus):
			return m.cycleStatus(card)
		case key.Matches(msg, m.keys.ScoreUp):
			return m.bumpScore(card, 1)
		case key.Matches(msg, m.keys.ScoreDown):
			return m.bumpScore(card, -1)
		case key.Matches(msg, m.keys.Edit):
			m.Form.Show(card.CatalogItem, m.queries.Entry(card.CatalogItem))
			m.State = StateEditing
			return m, nil
		case key.Matches(msg, m.keys.OpenPage):
			if m.browser == nil {
				return m, nil
			}
			return m, OpenPageCmd(m.browser, card.CatalogItem)
		case key.Matches(msg, m.keys.Delete):
			if !card.OnList() {
				return m.setStatus("Not on your list", false)
			}
			m.confirmID = card.ID
			m.confirmTitle = card.Title
			m.State = StateConfirmDelete
			return m, nil
		}
	}

	if list := m.activeList(); list != nil {
		var cmd tea.Cmd
		*list, cmd = list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var submitted bool
	m.Form, cmd, submitted = m.Form.Update(msg)
	if !m.Form.IsVisible() {
		m.State = StateBrowsing
		return m, cmd
	}
	if !submitted {
		return m, cmd
	}

	form, err := m.Form.Form()
	if err != nil {
		m.Form.SetError(err.Error())
		return m, nil
	}
	item := m.Form.Item()
	m.Form.Hide()
	m.State = StateBrowsing
	return m.submit(m.commands.Save(context.Background(), item, form))
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.State = StateBrowsing
		return m.submit(m.commands.Remove(context.Background(), m.confirmID))
	case key.Matches(msg, m.keys.Deny):
		m.State = StateBrowsing
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.SearchInput.Blur()
		m.State = StateBrowsing
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.SearchInput.Value())
		m.SearchInput.Blur()
		m.State = StateBrowsing
		if len([]rune(query)) < catalog.MinQueryLength {
			return m.setStatus(fmt.Sprintf("Type at least %d characters to search", catalog.MinQueryLength), false)
		}
		m.SearchQuery = query
		m.Searching = true
		m.searchList.SetLoading(true)
		return m, SearchCmd(m.catalog, query)
	}

	var cmd tea.Cmd
	m.SearchInput, cmd = m.SearchInput.Update(msg)
	return m, cmd
}

func (m Model) openFilter() (tea.Model, tea.Cmd) {
	switch m.Tab {
	case TabSearch:
		m.filterRestore = m.SearchFilter.Title
	case TabList:
		m.filterRestore = m.ListFilter
	default:
		return m, nil
	}
	m.FilterInput.SetValue(m.filterRestore)
	m.FilterInput.CursorEnd()
	m.State = StateFiltering
	cmd := m.FilterInput.Focus()
	return m, cmd
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.FilterInput.Blur()
		m.State = StateBrowsing
		m.setFilterText(m.filterRestore)
		m.rebuild()
		return m, nil
	case "enter":
		m.FilterInput.Blur()
		m.State = StateBrowsing
		return m, nil
	}

	var cmd tea.Cmd
	m.FilterInput, cmd = m.FilterInput.Update(msg)
	m.setFilterText(m.FilterInput.Value())
	m.rebuild()
	return m, cmd
}

func (m *Model) setFilterText(text string) {
	switch m.Tab {
	case TabSearch:
		m.SearchFilter.Title = text
	case TabList:
		m.ListFilter = text
	}
}

func (m Model) clearFilter() Model {
	switch m.Tab {
	case TabSearch:
		m.SearchFilter = catalog.Filter{}
	case TabList:
		m.ListFilter = ""
	}
	m.rebuild()
	return m
}

func (m Model) switchTab(tab Tab) (tea.Model, tea.Cmd) {
	m.Tab = tab
	m.updateFocus()
	return m, nil
}

// moveSection changes the home section, the list status tab, or the
// search type filter
func (m *Model) moveSection(delta int) {
	switch m.Tab {
	case TabHome:
		m.homeFocus = (m.homeFocus + delta + sectionCount) % sectionCount
		m.updateFocus()
	case TabList:
		n := len(domain.Statuses) + 1
		m.ListStatus = (m.ListStatus + delta + n) % n
		m.rebuild()
	case TabSearch:
		types := append([]string{""}, catalog.OptionsFor(m.SearchResults).Types...)
		idx := 0
		for i, t := range types {
			if t == m.SearchFilter.Type {
				idx = i
			}
		}
		m.SearchFilter.Type = types[(idx+delta+len(types))%len(types)]
		m.rebuild()
	}
}

func (m *Model) activeList() *components.CardList {
	switch m.Tab {
	case TabHome:
		return &m.home[m.homeFocus]
	case TabSearch:
		return &m.searchList
	case TabList:
		return &m.list
	}
	return nil
}

func (m Model) selectedCard() (domain.Card, bool) {
	list := m.activeList()
	if list == nil {
		return domain.Card{}, false
	}
	return list.Selected()
}

func (m Model) submit(p *mylist.Pending) (tea.Model, tea.Cmd) {
	m.InFlight++
	return m, AwaitMutationCmd(p)
}

func (m Model) addCard(card domain.Card) (tea.Model, tea.Cmd) {
	if card.OnList() {
		return m.setStatus(fmt.Sprintf("%s is already on your list", card.Title), false)
	}
	return m.submit(m.commands.Mutate(context.Background(), domain.Mutation{
		Kind:      domain.MutationCreate,
		CatalogID: card.ID,
		Entry:     card.ToEntry(),
	}))
}

func (m Model) cycleStatus(card domain.Card) (tea.Model, tea.Cmd) {
	if !card.OnList() {
		return m.submit(m.commands.Save(context.Background(), card.CatalogItem, domain.Form{Status: domain.StatusWatching}))
	}
	next := card.Entry.Status.Next()
	return m.submit(m.commands.Mutate(context.Background(), domain.Mutation{
		Kind:      domain.MutationUpdate,
		CatalogID: card.ID,
		Patch:     domain.EntryPatch{Status: &next},
	}))
}

func (m Model) bumpScore(card domain.Card, delta int) (tea.Model, tea.Cmd) {
	if !card.OnList() {
		return m.setStatus("Add the title to your list before scoring it", false)
	}
	score := max(0, min(card.Entry.UserScore+delta, domain.MaxUserScore))
	if score == card.Entry.UserScore {
		return m, nil
	}
	return m.submit(m.commands.Mutate(context.Background(), domain.Mutation{
		Kind:      domain.MutationUpdate,
		CatalogID: card.ID,
		Patch:     domain.EntryPatch{UserScore: &score},
	}))
}

// rebuild recomputes every derived view from the list and loaded feeds
func (m *Model) rebuild() {
	if m.queries == nil {
		return
	}
	entries := m.queries.All()

	continuing := m.queries.ContinueWatching()
	m.home[sectionContinue].SetCards(entryCards(continuing))
	if !m.HomeLoading {
		m.home[sectionRecommended].SetCards(m.queries.Cards(recommend.Recommend(entries, catalog.CandidatePool(m.Feeds))))
		m.home[sectionTrending].SetCards(m.queries.Cards(m.Feeds.Trending))
	}

	m.searchList.SetCards(m.queries.Cards(m.SearchFilter.Apply(m.SearchResults)))

	scoped := entries
	title := "All"
	if m.ListStatus > 0 {
		st := domain.Statuses[m.ListStatus-1]
		scoped = m.queries.ByStatus(st)
		title = st.String()
	}
	m.list.SetTitle(title)
	m.list.SetCards(entryCards(m.queries.Filter(scoped, m.ListFilter)))

	m.Summary = stats.Compute(entries)
	m.updateFocus()
}

func entryCards(entries []domain.ListEntry) []domain.Card {
	cards := make([]domain.Card, len(entries))
	for i, e := range entries {
		cards[i] = domain.CardFromEntry(e)
	}
	return cards
}

func (m *Model) updateFocus() {
	for i := range m.home {
		m.home[i].SetFocused(m.Tab == TabHome && i == m.homeFocus)
	}
	m.searchList.SetFocused(m.Tab == TabSearch)
	m.list.SetFocused(m.Tab == TabList)
}
