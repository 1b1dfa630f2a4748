package tui

import (
	"github.com/mmcdole/kanshi/internal/catalog"
	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/mylist"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// HomeLoadedMsg carries the home feeds. Err is set when at least one feed
// failed; the others are still populated.
type HomeLoadedMsg struct {
	Feeds catalog.Feeds
	Err   error
}

// SearchResultsMsg signals that catalog search results are ready
type SearchResultsMsg struct {
	Results []domain.CatalogItem
	Query   string
	Err     error
}

// ListRefreshedMsg signals that a list reload from the backend finished
type ListRefreshedMsg struct {
	Err error
}

// ListChangedMsg signals that the ListStore changed
type ListChangedMsg struct{}

// NotificationMsg carries a toast from the mutation coordinator
type NotificationMsg struct {
	Notification domain.Notification
}

// MutationSettledMsg signals that a submitted mutation committed or rolled back
type MutationSettledMsg struct {
	CatalogID int
	Result    mylist.Result
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct {
	Seq int // Only clears the toast it was scheduled for
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
