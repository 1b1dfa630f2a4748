package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		aired string
		want  int
	}{
		{"Apr 3, 2013 to Sep 28, 2013", 2013},
		{"2006", 2006},
		{"Fall 1998", 1998},
		{"Not available", 0},
		{"", 0},
		{"Ep 123", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReleaseYear(tt.aired), "aired=%q", tt.aired)
	}
}

func TestListEntry_Normalize(t *testing.T) {
	t.Parallel()

	t.Run("clamps watched to known total", func(t *testing.T) {
		e := ListEntry{EpisodesTotal: 12, EpisodesWatched: 15, Status: StatusWatching}
		e.Normalize()
		assert.Equal(t, 12, e.EpisodesWatched)
	})

	t.Run("unbounded when total unknown", func(t *testing.T) {
		e := ListEntry{EpisodesWatched: 1500, Status: StatusWatching}
		e.Normalize()
		assert.Equal(t, 1500, e.EpisodesWatched)
	})

	t.Run("negative values floor at zero", func(t *testing.T) {
		e := ListEntry{EpisodesWatched: -2, UserScore: -1, Status: StatusDropped}
		e.Normalize()
		assert.Equal(t, 0, e.EpisodesWatched)
		assert.Equal(t, 0, e.UserScore)
	})

	t.Run("score capped at ten", func(t *testing.T) {
		e := ListEntry{UserScore: 14, Status: StatusCompleted}
		e.Normalize()
		assert.Equal(t, 10, e.UserScore)
	})

	t.Run("unknown status falls back to plan to watch", func(t *testing.T) {
		e := ListEntry{Status: "paused"}
		e.Normalize()
		assert.Equal(t, StatusPlanToWatch, e.Status)
	})

	t.Run("derives year", func(t *testing.T) {
		e := ListEntry{Aired: "Oct 2, 2021 to ?", Status: StatusWatching}
		e.Normalize()
		assert.Equal(t, 2021, e.Year)
	})
}

func TestListEntry_NextEpisode(t *testing.T) {
	t.Parallel()

	e := ListEntry{EpisodesWatched: 3, EpisodesTotal: 12}
	for i := 0; i < 20; i++ {
		e.EpisodesWatched = e.NextEpisode()
	}
	assert.Equal(t, 12, e.EpisodesWatched)

	unknown := ListEntry{EpisodesWatched: 998}
	unknown.EpisodesWatched = unknown.NextEpisode()
	unknown.EpisodesWatched = unknown.NextEpisode()
	assert.Equal(t, UnknownEpisodeCap, unknown.EpisodesWatched)
}

func TestNewEntryFromCatalog(t *testing.T) {
	t.Parallel()

	item := CatalogItem{
		ID:       42,
		Title:    "X",
		Score:    8.1,
		Episodes: 24,
		Genres:   []string{"Action", "Drama"},
		Studios:  []string{"Bones"},
		Type:     "TV",
		Aired:    "Apr 5, 2009 to Jul 4, 2010",
		Synopsis: strings.Repeat("a", 2500),
	}

	e := NewEntryFromCatalog(item)
	assert.Empty(t, e.ID)
	assert.Equal(t, 42, e.CatalogID)
	assert.Equal(t, StatusPlanToWatch, e.Status)
	assert.Equal(t, 0, e.EpisodesWatched)
	assert.Equal(t, 24, e.EpisodesTotal)
	assert.Equal(t, "Action, Drama", e.Genres)
	assert.Equal(t, "Bones", e.Studios)
	assert.Equal(t, 2009, e.Year)
	assert.Len(t, e.Synopsis, MaxSynopsisLength)
}

func TestEntryPatch_Apply(t *testing.T) {
	t.Parallel()

	base := ListEntry{CatalogID: 5, EpisodesTotal: 12, EpisodesWatched: 3, Status: StatusWatching, Notes: "keep"}
	got := EntryPatch{EpisodesWatched: Ptr(40), Status: Ptr(StatusCompleted)}.Apply(base)

	assert.Equal(t, 12, got.EpisodesWatched)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "keep", got.Notes)
	assert.Equal(t, 3, base.EpisodesWatched, "original must not change")
	assert.True(t, EntryPatch{}.IsEmpty())
}

func TestPlaceholderID(t *testing.T) {
	t.Parallel()

	id := NewPlaceholderID()
	assert.True(t, IsPlaceholderID(id))
	assert.NotEqual(t, id, NewPlaceholderID())
	assert.False(t, IsPlaceholderID("17"))
	assert.True(t, ListEntry{}.IsPlaceholder())
}

func TestCard_RoundTrip(t *testing.T) {
	t.Parallel()

	original := ListEntry{
		ID:              "7",
		CatalogID:       5114,
		Title:           "Fullmetal Alchemist: Brotherhood",
		ImageURL:        "https://cdn.example/5114.jpg",
		Synopsis:        "Two brothers.",
		Score:           9.1,
		EpisodesTotal:   64,
		Genres:          "Action, Adventure, Drama",
		Studios:         "Bones",
		Type:            "TV",
		Aired:           "Apr 5, 2009 to Jul 4, 2010",
		Year:            2009,
		EpisodesWatched: 30,
		UserScore:       10,
		Status:          StatusWatching,
		Notes:           "rewatch",
		Tags:            "classic, favorite",
		UpdatedAt:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	card := CardFromEntry(original)
	require.True(t, card.OnList())
	assert.Equal(t, []string{"Action", "Adventure", "Drama"}, card.Genres)
	assert.Equal(t, 64, card.Episodes)

	assert.Equal(t, original, card.ToEntry())
}

func TestCard_ToEntryKeepsStoredSeparators(t *testing.T) {
	t.Parallel()

	original := ListEntry{
		ID:        "9",
		CatalogID: 30,
		Title:     "Monster",
		Genres:    "Drama,Mystery , Suspense",
		Studios:   "Madhouse",
		Status:    StatusCompleted,
	}

	card := CardFromEntry(original)
	assert.Equal(t, []string{"Drama", "Mystery", "Suspense"}, card.Genres)
	assert.Equal(t, original, card.ToEntry())

	// A card whose catalog data differs from the snapshot writes the shown list
	card.Genres = []string{"Drama"}
	assert.Equal(t, "Drama", card.ToEntry().Genres)
}

func TestCard_ToEntryWithoutState(t *testing.T) {
	t.Parallel()

	card := CardFromItem(CatalogItem{ID: 1, Title: "Y", Genres: []string{"Comedy"}}, nil)
	assert.False(t, card.OnList())

	e := card.ToEntry()
	assert.Equal(t, 1, e.CatalogID)
	assert.Equal(t, StatusPlanToWatch, e.Status)
	assert.Equal(t, "Comedy", e.Genres)
}

func TestStatusError_Unwrap(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, &StatusError{Code: 429}, ErrRateLimited)
	assert.ErrorIs(t, &StatusError{Code: 404}, ErrEntryNotFound)
	assert.ErrorIs(t, &StatusError{Code: 409}, ErrDuplicateEntry)
	assert.NotErrorIs(t, &StatusError{Code: 500}, ErrRateLimited)
}
