package catalog

import (
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/kanshi/internal/domain"
)

// Filter narrows already-fetched results. Zero values match everything.
type Filter struct {
	Type     string  // Exact media type, e.g. "TV"
	Year     int     // Air-date string contains the year
	Genre    string  // Exact genre name
	Studio   string  // Exact studio name
	MinScore float64 // Score at least this, when positive
	Title    string  // Fuzzy, case-insensitive title match
}

// IsZero reports whether the filter matches everything
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Match reports whether an item passes every set predicate
func (f Filter) Match(item domain.CatalogItem) bool {
	if f.Type != "" && item.Type != f.Type {
		return false
	}
	if f.Year > 0 && !strings.Contains(item.Aired, strconv.Itoa(f.Year)) {
		return false
	}
	if f.Genre != "" && !item.HasGenre(f.Genre) {
		return false
	}
	if f.Studio != "" && !item.HasStudio(f.Studio) {
		return false
	}
	if f.MinScore > 0 && item.Score < f.MinScore {
		return false
	}
	if t := strings.TrimSpace(f.Title); t != "" && !fuzzy.MatchNormalizedFold(t, item.Title) {
		return false
	}
	return true
}

// Apply returns the matching items in their original order
func (f Filter) Apply(items []domain.CatalogItem) []domain.CatalogItem {
	if f.IsZero() {
		return items
	}
	out := make([]domain.CatalogItem, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// Options lists the distinct filter values present in items, for pickers
type Options struct {
	Types   []string
	Genres  []string
	Studios []string
}

// OptionsFor collects filter choices in first-seen order
func OptionsFor(items []domain.CatalogItem) Options {
	var opts Options
	seen := make(map[string]struct{})
	add := func(list *[]string, kind, v string) {
		if v == "" {
			return
		}
		key := kind + "\x00" + v
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		*list = append(*list, v)
	}
	for _, item := range items {
		add(&opts.Types, "type", item.Type)
		for _, g := range item.Genres {
			add(&opts.Genres, "genre", g)
		}
		for _, s := range item.Studios {
			add(&opts.Studios, "studio", s)
		}
	}
	return opts
}
