package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/tui/styles"
)

// Layout constants for card lists
const (
	// Header line plus the "↓ more" indicator
	listChromeLines = 2
)

// CardList is a scrollable list of cards with a title header
type CardList struct {
	title string
	cards []domain.Card
	empty string // Shown when there are no cards

	cursor int
	offset int

	width   int
	height  int
	focused bool

	loading      bool
	spinnerFrame int

	keys ListKeyMap
}

// NewCardList creates an empty list with the given title
func NewCardList(title, empty string) CardList {
	return CardList{
		title: title,
		empty: empty,
		keys:  DefaultListKeyMap(),
	}
}

// SetCards replaces the list contents, keeping the cursor on the same
// catalog id when it is still present
func (c *CardList) SetCards(cards []domain.Card) {
	selectedID := 0
	if sel, ok := c.Selected(); ok {
		selectedID = sel.ID
	}
	c.cards = cards
	c.loading = false

	if selectedID != 0 {
		for i, card := range cards {
			if card.ID == selectedID {
				c.cursor = i
				c.clampOffset()
				return
			}
		}
	}
	c.cursor = min(c.cursor, max(len(cards)-1, 0))
	c.clampOffset()
}

// Cards returns the current contents
func (c CardList) Cards() []domain.Card {
	return c.cards
}

// SetTitle changes the header text
func (c *CardList) SetTitle(title string) {
	c.title = title
}

// SetSize sets the list dimensions
func (c *CardList) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.clampOffset()
}

// SetFocused toggles the focus highlight
func (c *CardList) SetFocused(focused bool) {
	c.focused = focused
}

// SetLoading shows the spinner in the header
func (c *CardList) SetLoading(loading bool) {
	c.loading = loading
}

// SetSpinnerFrame advances the loading animation
func (c *CardList) SetSpinnerFrame(frame int) {
	c.spinnerFrame = frame
}

// Selected returns the card under the cursor
func (c CardList) Selected() (domain.Card, bool) {
	if c.cursor < 0 || c.cursor >= len(c.cards) {
		return domain.Card{}, false
	}
	return c.cards[c.cursor], true
}

// Len returns the number of cards
func (c CardList) Len() int {
	return len(c.cards)
}

// Update handles navigation keys
func (c CardList) Update(msg tea.Msg) (CardList, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || len(c.cards) == 0 {
		return c, nil
	}

	half := max(c.visibleRows()/2, 1)
	switch {
	case key.Matches(keyMsg, c.keys.Up):
		c.cursor--
	case key.Matches(keyMsg, c.keys.Down):
		c.cursor++
	case key.Matches(keyMsg, c.keys.Home):
		c.cursor = 0
	case key.Matches(keyMsg, c.keys.End):
		c.cursor = len(c.cards) - 1
	case key.Matches(keyMsg, c.keys.HalfUp):
		c.cursor -= half
	case key.Matches(keyMsg, c.keys.HalfDown):
		c.cursor += half
	}
	c.cursor = max(0, min(c.cursor, len(c.cards)-1))
	c.clampOffset()
	return c, nil
}

func (c CardList) visibleRows() int {
	return max(c.height-listChromeLines, 1)
}

func (c *CardList) clampOffset() {
	rows := c.visibleRows()
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+rows {
		c.offset = c.cursor - rows + 1
	}
	c.offset = max(0, min(c.offset, max(len(c.cards)-rows, 0)))
}

// View renders the list
func (c CardList) View() string {
	var b strings.Builder

	header := c.title
	if c.loading {
		header += " " + styles.AccentStyle.Render(styles.SpinnerFrames[c.spinnerFrame%len(styles.SpinnerFrames)])
	} else if len(c.cards) > 0 {
		header += styles.DimStyle.Render(fmt.Sprintf(" (%d)", len(c.cards)))
	}
	if c.focused {
		b.WriteString(styles.AccentStyle.Bold(true).Render("▌") + styles.TitleStyle.Render(header))
	} else {
		b.WriteString(" " + styles.SubtitleStyle.Render(header))
	}
	b.WriteString("\n")

	if len(c.cards) == 0 {
		if !c.loading {
			b.WriteString(styles.DimStyle.Render("  " + c.empty))
		}
		return lipgloss.NewStyle().Width(c.width).Height(c.height).Render(b.String())
	}

	rows := c.visibleRows()
	end := min(c.offset+rows, len(c.cards))
	for i := c.offset; i < end; i++ {
		b.WriteString(RenderCardRow(c.cards[i], c.focused && i == c.cursor, c.width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	if end < len(c.cards) {
		b.WriteString("\n" + styles.DimStyle.Render("  ↓ more"))
	}

	return lipgloss.NewStyle().Width(c.width).Height(c.height).Render(b.String())
}

// RenderCardRow renders one card as a list row: list marker, title,
// progress and score
func RenderCardRow(card domain.Card, selected bool, width int) string {
	marker := "○"
	markerColor := styles.DimGray
	detail := ""
	if card.Entry != nil {
		marker = "●"
		markerColor = styles.StatusColor(card.Entry.Status)
		detail = progressLabel(card)
		if card.Entry.UserScore > 0 {
			detail += fmt.Sprintf("  ★%d", card.Entry.UserScore)
		}
	} else if card.Score > 0 {
		detail = fmt.Sprintf("%.2f", card.Score)
	}

	// marker + spaces + margins
	titleWidth := max(width-lipgloss.Width(detail)-6, 4)
	title := styles.Pad(styles.Truncate(card.Title, titleWidth), titleWidth)

	dim := styles.DimGray
	return styles.RenderListRow([]styles.RowPart{
		{Text: marker + " ", Foreground: &markerColor},
		{Text: title + " "},
		{Text: detail, Foreground: &dim},
	}, selected, width)
}

func progressLabel(card domain.Card) string {
	if card.Episodes > 0 {
		return fmt.Sprintf("%d/%d", card.Entry.EpisodesWatched, card.Episodes)
	}
	return fmt.Sprintf("%d/?", card.Entry.EpisodesWatched)
}
