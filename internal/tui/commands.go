package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/kanshi/internal/catalog"
	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/mylist"
)

// Command factories for async operations

// LoadHomeCmd loads the trending, seasonal and top feeds
func LoadHomeCmd(svc *catalog.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second) // Three gated requests
		defer cancel()

		feeds, err := svc.Home(ctx)
		return HomeLoadedMsg{Feeds: feeds, Err: err}
	}
}

// SearchCmd queries the catalog
func SearchCmd(svc *catalog.Service, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		results, err := svc.Search(ctx, query)
		return SearchResultsMsg{Results: results, Query: query, Err: err}
	}
}

// RefreshListCmd reloads the list from the backend
func RefreshListCmd(cmds *mylist.Commands) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return ListRefreshedMsg{Err: cmds.Refresh(ctx)}
	}
}

// AwaitMutationCmd reports when a submitted mutation settles
func AwaitMutationCmd(p *mylist.Pending) tea.Cmd {
	return func() tea.Msg {
		<-p.Done()
		return MutationSettledMsg{CatalogID: p.CatalogID, Result: p.Result()}
	}
}

// OpenPageCmd opens a title's page in the browser
func OpenPageCmd(opener PageOpener, item domain.CatalogItem) tea.Cmd {
	return func() tea.Msg {
		if err := opener.Open(item.PageURL()); err != nil {
			return ErrMsg{Err: err, Context: "opening " + item.Title}
		}
		return StatusMsg{Message: "Opened " + item.Title + " in your browser"}
	}
}

// listenNotificationsCmd returns a command that reads the next toast
func listenNotificationsCmd(ch <-chan domain.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NotificationMsg{Notification: n}
	}
}

// listenStoreCmd returns a command that waits for the next list change
func listenStoreCmd(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return ListChangedMsg{}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
