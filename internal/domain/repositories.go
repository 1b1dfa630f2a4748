package domain

import (
	"context"
)

// EntryRepository is the authoritative store of the user's list entries
type EntryRepository interface {
	// List returns every entry the user owns
	List(ctx context.Context) ([]ListEntry, error)

	// Create persists a new entry and returns it with its assigned id
	Create(ctx context.Context, entry ListEntry) (ListEntry, error)

	// Update replaces the entry with the given id and returns the stored record
	Update(ctx context.Context, id string, entry ListEntry) (ListEntry, error)

	// Delete removes the entry with the given id
	Delete(ctx context.Context, id string) error
}

// Endpoint is a catalog path with its query parameters
type Endpoint struct {
	Path  string
	Query map[string]string
}

// CatalogClient fetches read-only titles from the external catalog
type CatalogClient interface {
	// Fetch retrieves the titles behind an endpoint
	Fetch(ctx context.Context, endpoint Endpoint) ([]CatalogItem, error)

	// Search returns titles matching a keyword query
	Search(ctx context.Context, query string) ([]CatalogItem, error)

	// TopAiring returns the currently airing top list
	TopAiring(ctx context.Context) ([]CatalogItem, error)

	// Top returns the all-time top list
	Top(ctx context.Context) ([]CatalogItem, error)

	// SeasonNow returns the current season's titles
	SeasonNow(ctx context.Context) ([]CatalogItem, error)
}

// Notifier receives user-facing messages for finished mutations
type Notifier interface {
	Notify(msg Notification)
}

// NotifyFunc adapts a function to Notifier
type NotifyFunc func(Notification)

func (f NotifyFunc) Notify(msg Notification) { f(msg) }

// Notification is a short message about a finished mutation
type Notification struct {
	Text  string
	Error bool
}
