// Package recommend ranks catalog titles against the genres a user watches.
package recommend

import (
	"sort"
	"strings"

	"github.com/mmcdole/kanshi/internal/domain"
)

const (
	// AffinitySize is how many top genres form the affinity set
	AffinitySize = 3

	// MaxResults caps the recommendation list
	MaxResults = 12
)

// GenreCount is one row of a genre tally
type GenreCount struct {
	Name  string
	Count int
}

// TallyGenres counts genre names across entries that pass keep, ordered by
// descending count with ties in first-seen order
func TallyGenres(entries []domain.ListEntry, keep func(domain.ListEntry) bool) []GenreCount {
	index := make(map[string]int)
	var tally []GenreCount
	for _, e := range entries {
		if keep != nil && !keep(e) {
			continue
		}
		for _, g := range e.GenreList() {
			if i, ok := index[g]; ok {
				tally[i].Count++
				continue
			}
			index[g] = len(tally)
			tally = append(tally, GenreCount{Name: g, Count: 1})
		}
	}
	sort.SliceStable(tally, func(i, j int) bool {
		return tally[i].Count > tally[j].Count
	})
	return tally
}

// AffinitySet returns the lower-cased top genres of completed and watching entries
func AffinitySet(entries []domain.ListEntry) map[string]struct{} {
	tally := TallyGenres(entries, func(e domain.ListEntry) bool {
		return e.Status == domain.StatusCompleted || e.Status == domain.StatusWatching
	})
	if len(tally) > AffinitySize {
		tally = tally[:AffinitySize]
	}
	set := make(map[string]struct{}, len(tally))
	for _, g := range tally {
		set[strings.ToLower(g.Name)] = struct{}{}
	}
	return set
}

// Recommend returns up to MaxResults candidates sharing a genre with the
// affinity set, excluding titles already on the list. Pool order is kept.
// Without any affinity the result is empty.
func Recommend(entries []domain.ListEntry, pool []domain.CatalogItem) []domain.CatalogItem {
	affinity := AffinitySet(entries)
	if len(affinity) == 0 {
		return nil
	}

	listed := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		listed[e.CatalogID] = struct{}{}
	}

	var out []domain.CatalogItem
	for _, item := range pool {
		if _, ok := listed[item.ID]; ok {
			continue
		}
		if !matches(item, affinity) {
			continue
		}
		out = append(out, item)
		if len(out) == MaxResults {
			break
		}
	}
	return out
}

func matches(item domain.CatalogItem, affinity map[string]struct{}) bool {
	for _, g := range item.Genres {
		if _, ok := affinity[strings.ToLower(g)]; ok {
			return true
		}
	}
	return false
}
