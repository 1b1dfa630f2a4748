package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/tui/styles"
)

// Layout
const (
	// Tab bar, blank line and footer
	ChromeHeight = 3

	// Detail pane is shown at or above this terminal width
	DetailMinWidth    = 100
	DetailPanePercent = 40

	// Lines above the list on the Search and My List tabs
	searchHeaderLines = 2
	listHeaderLines   = 2
)

// updateLayout sizes every list for the current terminal
func (m *Model) updateLayout() {
	bodyHeight := max(m.Height-ChromeHeight, 3)
	listWidth := m.listWidth()

	per := max(bodyHeight/sectionCount, 3)
	for i := range m.home {
		m.home[i].SetSize(listWidth, per)
	}
	m.searchList.SetSize(listWidth, max(bodyHeight-searchHeaderLines, 3))
	m.list.SetSize(listWidth, max(bodyHeight-listHeaderLines, 3))
	m.SearchInput.Width = max(listWidth-6, 10)
}

func (m Model) listWidth() int {
	if m.Width >= DetailMinWidth {
		return m.Width - m.Width*DetailPanePercent/100
	}
	return m.Width
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	var body string
	switch m.Tab {
	case TabHome:
		body = m.renderHome()
	case TabSearch:
		body = m.renderSearch()
	case TabList:
		body = m.renderList()
	case TabStats:
		body = m.renderStats()
	}

	if m.Tab != TabStats && m.Width >= DetailMinWidth {
		card, _ := m.selectedCard()
		detail := renderDetail(card, m.Width-m.listWidth()-2, m.Height-ChromeHeight)
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", detail)
	}

	bodyStyle := lipgloss.NewStyle().Height(max(m.Height-ChromeHeight, 1)).MaxHeight(max(m.Height-ChromeHeight, 1))
	view := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		"",
		bodyStyle.Render(body),
		m.renderFooter(),
	)

	switch m.State {
	case StateEditing:
		return m.overlay(m.Form.View())
	case StateConfirmDelete:
		return m.overlay(m.renderConfirm())
	case StateHelp:
		return m.overlay(styles.ModalStyle.Render(m.help.FullHelpView(m.keys.FullHelp())))
	}
	return view
}

func (m Model) overlay(modal string) string {
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, modal)
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, tabCount+1)
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == m.Tab {
			parts = append(parts, styles.ActiveTabStyle.Render(label))
		} else {
			parts = append(parts, styles.TabStyle.Render(label))
		}
	}
	if m.InFlight > 0 {
		frame := styles.SpinnerFrames[m.SpinnerFrame%len(styles.SpinnerFrames)]
		parts = append(parts, styles.AccentStyle.Render(fmt.Sprintf(" %s syncing %d", frame, m.InFlight)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderHome() string {
	sections := make([]string, len(m.home))
	for i := range m.home {
		sections[i] = m.home[i].View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderSearch() string {
	input := m.SearchInput.View()
	if m.State != StateSearching && m.SearchInput.Value() == "" {
		input = styles.DimStyle.Render("Press s to search the catalog")
	}

	var filters []string
	if m.SearchFilter.Type != "" {
		filters = append(filters, styles.BadgeStyle.Render(m.SearchFilter.Type))
	} else if len(m.SearchResults) > 0 {
		filters = append(filters, styles.DimBadgeStyle.Render("All types"))
	}
	filters = append(filters, m.renderFilterPrompt(m.SearchFilter.Title))

	return lipgloss.JoinVertical(lipgloss.Left,
		input,
		strings.Join(filters, " "),
		m.searchList.View(),
	)
}

func (m Model) renderList() string {
	counts := m.queries.Counts()
	total := 0
	for _, n := range counts {
		total += n
	}

	tabs := []string{statusTab("All", total, m.ListStatus == 0, styles.Accent)}
	for i, st := range domain.Statuses {
		tabs = append(tabs, statusTab(st.String(), counts[st], m.ListStatus == i+1, styles.StatusColor(st)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(tabs, " "),
		m.renderFilterPrompt(m.ListFilter),
		m.list.View(),
	)
}

func statusTab(label string, n int, active bool, color lipgloss.Color) string {
	text := fmt.Sprintf("%s %d", label, n)
	if active {
		return lipgloss.NewStyle().Foreground(styles.SlateDark).Background(color).Bold(true).Padding(0, 1).Render(text)
	}
	return lipgloss.NewStyle().Foreground(color).Padding(0, 1).Render(text)
}

func (m Model) renderFilterPrompt(active string) string {
	if m.State == StateFiltering {
		return m.FilterInput.View()
	}
	if active != "" {
		return styles.FilterPromptStyle.Render("/ ") + styles.FilterStyle.Render(active) + styles.DimStyle.Render("  (esc to clear)")
	}
	return ""
}

func (m Model) renderStats() string {
	s := m.Summary
	if s.Total == 0 {
		return styles.DimStyle.Render("  Your list is empty. Add titles from Home or Search.")
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Overview") + "\n")
	b.WriteString(fmt.Sprintf("  Titles          %d\n", s.Total))
	b.WriteString(fmt.Sprintf("  Episodes seen   %d\n", s.EpisodesSeen))
	if s.ScoredEntries > 0 {
		b.WriteString(fmt.Sprintf("  Average score   %.1f (%d scored)\n", s.AverageScore, s.ScoredEntries))
	} else {
		b.WriteString("  Average score   -\n")
	}

	b.WriteString("\n" + styles.TitleStyle.Render("By status") + "\n")
	barWidth := max(min(m.Width-30, 40), 10)
	for _, st := range domain.Statuses {
		n := s.ByStatus[st]
		pct := float64(n) * 100 / float64(s.Total)
		b.WriteString(fmt.Sprintf("  %s %s %d\n", styles.Pad(st.String(), 14), styles.RenderProgressBar(pct, barWidth), n))
	}

	if len(s.TopGenres) > 0 {
		b.WriteString("\n" + styles.TitleStyle.Render("Top genres") + "\n")
		top := s.TopGenres[0].Count
		for _, g := range s.TopGenres {
			pct := float64(g.Count) * 100 / float64(top)
			b.WriteString(fmt.Sprintf("  %s %s %d\n", styles.Pad(styles.Truncate(g.Name, 14), 14), styles.RenderProgressBar(pct, barWidth), g.Count))
		}
	}

	if len(s.Years) > 0 {
		b.WriteString("\n" + styles.TitleStyle.Render("By release year") + "\n")
		for _, y := range s.Years {
			b.WriteString(fmt.Sprintf("  %d  %s\n", y.Year, strings.Repeat("▪", y.Count)))
		}
	}
	return b.String()
}

// renderDetail renders the selected card's synopsis and metadata
func renderDetail(card domain.Card, width, height int) string {
	if width < 10 {
		return ""
	}
	style := styles.InactiveBorder.Width(width - 2).Height(max(height-2, 1)).Padding(0, 1)
	if card.ID == 0 {
		return style.Render(styles.DimStyle.Render("Nothing selected"))
	}

	inner := width - 4
	lines := []string{styles.TitleStyle.Render(styles.Truncate(card.Title, inner))}

	var meta []string
	if card.Type != "" {
		meta = append(meta, card.Type)
	}
	if card.Episodes > 0 {
		meta = append(meta, fmt.Sprintf("%d eps", card.Episodes))
	}
	if card.Score > 0 {
		meta = append(meta, fmt.Sprintf("★ %.2f", card.Score))
	}
	if len(meta) > 0 {
		lines = append(lines, styles.SubtitleStyle.Render(strings.Join(meta, " • ")))
	}
	if card.Aired != "" {
		lines = append(lines, styles.DimStyle.Render(card.Aired))
	}
	if len(card.Genres) > 0 {
		lines = append(lines, styles.AccentStyle.Render(styles.Truncate(strings.Join(card.Genres, ", "), inner)))
	}
	if len(card.Studios) > 0 {
		lines = append(lines, styles.DimStyle.Render(styles.Truncate(strings.Join(card.Studios, ", "), inner)))
	}

	if e := card.Entry; e != nil {
		lines = append(lines, "", styles.StatusBadge(e.Status)+" "+progressText(card))
		if card.Episodes > 0 {
			pct := float64(e.EpisodesWatched) * 100 / float64(card.Episodes)
			lines = append(lines, styles.RenderProgressBar(pct, min(inner, 30)))
		}
		if e.UserScore > 0 {
			lines = append(lines, fmt.Sprintf("Your score: %d/%d", e.UserScore, domain.MaxUserScore))
		}
		if e.Tags != "" {
			lines = append(lines, styles.DimStyle.Render("Tags: "+e.Tags))
		}
		if e.Notes != "" {
			lines = append(lines, styles.DimStyle.Render("Notes: "+e.Notes))
		}
	} else {
		lines = append(lines, "", styles.DimStyle.Render("Not on your list • a to add"))
	}

	if card.Synopsis != "" {
		lines = append(lines, "", lipgloss.NewStyle().Width(inner).Foreground(styles.LightGray).Render(card.Synopsis))
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func progressText(card domain.Card) string {
	if card.Episodes > 0 {
		return fmt.Sprintf("%d/%d episodes", card.Entry.EpisodesWatched, card.Episodes)
	}
	return fmt.Sprintf("%d episodes", card.Entry.EpisodesWatched)
}

func (m Model) renderConfirm() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Remove from list?"),
		styles.Truncate(m.confirmTitle, 40),
		"",
		styles.HelpKeyStyle.Render("y")+styles.HelpDescStyle.Render(" remove  ")+
			styles.HelpKeyStyle.Render("n")+styles.HelpDescStyle.Render(" cancel"),
	)
	return styles.ModalStyle.Render(content)
}

func (m Model) renderFooter() string {
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			return styles.ToastErrorStyle.Render(m.StatusMsg)
		}
		return styles.ToastStyle.Render(m.StatusMsg)
	}
	return m.help.ShortHelpView(m.keys.ShortHelp())
}
