package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmcdole/kanshi/internal/domain"
)

var filterItems = []domain.CatalogItem{
	{ID: 1, Title: "Cowboy Bebop", Type: "TV", Aired: "Apr 3, 1998 to Apr 24, 1999", Genres: []string{"Action", "Sci-Fi"}, Studios: []string{"Sunrise"}, Score: 8.75},
	{ID: 2, Title: "Cowboy Bebop: The Movie", Type: "Movie", Aired: "Sep 1, 2001", Genres: []string{"Action"}, Studios: []string{"Bones"}, Score: 8.38},
	{ID: 3, Title: "Mushishi", Type: "TV", Aired: "Oct 23, 2005 to Jun 19, 2006", Genres: []string{"Mystery", "Slice of Life"}, Studios: []string{"Artland"}, Score: 8.6},
	{ID: 4, Title: "Unrated Thing", Type: "OVA", Genres: nil},
}

func ids(items []domain.CatalogItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"zero matches all", Filter{}, []int{1, 2, 3, 4}},
		{"type", Filter{Type: "TV"}, []int{1, 3}},
		{"year in aired string", Filter{Year: 1999}, []int{1}},
		{"genre", Filter{Genre: "Action"}, []int{1, 2}},
		{"studio", Filter{Studio: "Bones"}, []int{2}},
		{"min score", Filter{MinScore: 8.5}, []int{1, 3}},
		{"fuzzy title", Filter{Title: "bebop"}, []int{1, 2}},
		{"combined", Filter{Title: "bebop", Type: "Movie"}, []int{2}},
		{"no match", Filter{Genre: "Horror"}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(filterItems)))
		})
	}
}

func TestOptionsFor(t *testing.T) {
	t.Parallel()

	opts := OptionsFor(filterItems)
	assert.Equal(t, []string{"TV", "Movie", "OVA"}, opts.Types)
	assert.Equal(t, []string{"Action", "Sci-Fi", "Mystery", "Slice of Life"}, opts.Genres)
	assert.Equal(t, []string{"Sunrise", "Bones", "Artland"}, opts.Studios)
}
