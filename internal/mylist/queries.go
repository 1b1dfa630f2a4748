package mylist

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/store"
)

// MaxContinueWatching caps the continue-watching row
const MaxContinueWatching = 12

// Queries provides synchronous, cache-only reads of the list.
type Queries struct {
	store *store.ListStore
}

// NewQueries creates a new Queries instance.
func NewQueries(st *store.ListStore) *Queries {
	return &Queries{store: st}
}

func (q *Queries) Get(catalogID int) (domain.ListEntry, bool) {
	return q.store.Get(catalogID)
}

func (q *Queries) All() []domain.ListEntry {
	return q.store.All()
}

// Entry returns the list entry for a catalog item, or nil when not listed
func (q *Queries) Entry(item domain.CatalogItem) *domain.ListEntry {
	e, ok := q.store.Get(item.ID)
	if !ok {
		return nil
	}
	return &e
}

// Cards pairs catalog items with their list entries for display
func (q *Queries) Cards(items []domain.CatalogItem) []domain.Card {
	cards := make([]domain.Card, len(items))
	for i, item := range items {
		cards[i] = domain.CardFromItem(item, q.Entry(item))
	}
	return cards
}

// ByStatus returns the entries on one status tab
func (q *Queries) ByStatus(status domain.Status) []domain.ListEntry {
	var out []domain.ListEntry
	for _, e := range q.store.All() {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns the number of entries per status
func (q *Queries) Counts() map[domain.Status]int {
	counts := make(map[domain.Status]int, len(domain.Statuses))
	for _, st := range domain.Statuses {
		counts[st] = 0
	}
	for _, e := range q.store.All() {
		counts[e.Status]++
	}
	return counts
}

// ContinueWatching returns unfinished watching entries, most recently updated first
func (q *Queries) ContinueWatching() []domain.ListEntry {
	var out []domain.ListEntry
	for _, e := range q.store.All() {
		if e.Status == domain.StatusWatching && e.EpisodesWatched < e.EpisodeCap() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if len(out) > MaxContinueWatching {
		out = out[:MaxContinueWatching]
	}
	return out
}

// Filter fuzzy-matches titles; best matches first. An empty query returns everything.
func (q *Queries) Filter(entries []domain.ListEntry, query string) []domain.ListEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}
	matches := fuzzy.FindFrom(query, titleSource(entries))
	out := make([]domain.ListEntry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}

// titleSource adapts entries to fuzzy.Source
type titleSource []domain.ListEntry

func (s titleSource) String(i int) string { return s[i].Title }
func (s titleSource) Len() int            { return len(s) }
