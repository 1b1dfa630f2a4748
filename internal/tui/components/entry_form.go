package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/tui/styles"
)

// Form field order; status is a selector, the rest are text inputs
const (
	fieldStatus = iota
	fieldEpisodes
	fieldScore
	fieldNotes
	fieldTags
	fieldCount
)

var fieldLabels = [fieldCount]string{"Status", "Episodes", "Score", "Notes", "Tags"}

// EntryForm is the modal editor for a title's list entry
type EntryForm struct {
	visible bool
	item    domain.CatalogItem
	status  domain.Status
	inputs  [fieldCount]textinput.Model // fieldStatus slot unused
	focus   int
	err     string
}

// NewEntryForm creates a hidden entry form
func NewEntryForm() EntryForm {
	var f EntryForm
	for i := fieldEpisodes; i < fieldCount; i++ {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Width = 30
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		f.inputs[i] = ti
	}
	f.inputs[fieldEpisodes].CharLimit = 4
	f.inputs[fieldScore].CharLimit = 2
	f.inputs[fieldScore].Placeholder = "0-10"
	f.inputs[fieldNotes].CharLimit = 500
	f.inputs[fieldTags].CharLimit = 200
	f.inputs[fieldTags].Placeholder = "comma separated"
	return f
}

// Show opens the form for an item, prefilled from its entry when listed
func (f *EntryForm) Show(item domain.CatalogItem, entry *domain.ListEntry) {
	form := domain.Form{Status: domain.StatusPlanToWatch}
	if entry != nil {
		form = domain.FormFor(*entry)
	}

	f.visible = true
	f.item = item
	f.status = form.Status
	f.err = ""
	f.inputs[fieldEpisodes].SetValue(strconv.Itoa(form.EpisodesWatched))
	f.inputs[fieldScore].SetValue(strconv.Itoa(form.UserScore))
	f.inputs[fieldNotes].SetValue(form.Notes)
	f.inputs[fieldTags].SetValue(form.Tags)
	f.setFocus(fieldStatus)
}

// Hide dismisses the form
func (f *EntryForm) Hide() {
	f.visible = false
	f.setFocus(fieldStatus)
}

// IsVisible returns whether the form is shown
func (f EntryForm) IsVisible() bool {
	return f.visible
}

// Item returns the title being edited
func (f EntryForm) Item() domain.CatalogItem {
	return f.item
}

// Form parses the inputs into a domain form
func (f EntryForm) Form() (domain.Form, error) {
	episodes, err := parseCount(f.inputs[fieldEpisodes].Value())
	if err != nil {
		return domain.Form{}, fmt.Errorf("episodes: %w", err)
	}
	score, err := parseCount(f.inputs[fieldScore].Value())
	if err != nil {
		return domain.Form{}, fmt.Errorf("score: %w", err)
	}
	return domain.Form{
		Status:          f.status,
		EpisodesWatched: episodes,
		UserScore:       score,
		Notes:           strings.TrimSpace(f.inputs[fieldNotes].Value()),
		Tags:            strings.TrimSpace(f.inputs[fieldTags].Value()),
	}, nil
}

// SetError shows a validation message under the fields
func (f *EntryForm) SetError(msg string) {
	f.err = msg
}

func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return n, nil
}

func (f *EntryForm) setFocus(field int) {
	f.focus = field
	for i := fieldEpisodes; i < fieldCount; i++ {
		if i == field {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

// Update handles input events, returns (form, cmd, submitted)
func (f EntryForm) Update(msg tea.Msg) (EntryForm, tea.Cmd, bool) {
	if !f.visible {
		return f, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			return f, nil, true
		case "esc":
			f.Hide()
			return f, nil, false
		case "tab", "down":
			f.setFocus((f.focus + 1) % fieldCount)
			return f, nil, false
		case "shift+tab", "up":
			f.setFocus((f.focus + fieldCount - 1) % fieldCount)
			return f, nil, false
		}
		if f.focus == fieldStatus {
			switch keyMsg.String() {
			case "right", "l", " ":
				f.status = f.status.Next()
			case "left", "h":
				f.status = prevStatus(f.status)
			}
			return f, nil, false
		}
	}

	if f.focus == fieldStatus {
		return f, nil, false
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

func prevStatus(s domain.Status) domain.Status {
	for i, st := range domain.Statuses {
		if st == s {
			return domain.Statuses[(i+len(domain.Statuses)-1)%len(domain.Statuses)]
		}
	}
	return domain.StatusPlanToWatch
}

// View renders the form modal
func (f EntryForm) View() string {
	if !f.visible {
		return ""
	}

	const labelWidth = 10

	lines := []string{styles.ModalTitleStyle.Render(styles.Truncate(f.item.Title, 40))}
	for i := 0; i < fieldCount; i++ {
		label := styles.Pad(fieldLabels[i], labelWidth)
		if i == f.focus {
			label = styles.AccentStyle.Render(label)
		} else {
			label = styles.DimStyle.Render(label)
		}

		var value string
		if i == fieldStatus {
			value = "‹ " + styles.StatusBadge(f.status) + " ›"
		} else {
			value = f.inputs[i].View()
			if i == fieldEpisodes && f.item.Episodes > 0 {
				value += styles.DimStyle.Render(fmt.Sprintf(" / %d", f.item.Episodes))
			}
		}
		lines = append(lines, label+value)
	}

	if f.err != "" {
		lines = append(lines, "", styles.ErrorStyle.Render(f.err))
	}
	lines = append(lines, "", styles.DimStyle.Render("tab next • ←/→ status • enter save • esc cancel"))

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
