package domain

import (
	"slices"
	"time"
)

// Card is the display shape shared by catalog results and list entries.
// Entry is nil for titles that are not on the user's list.
type Card struct {
	CatalogItem
	Entry *EntryState
}

// EntryState is the user-owned part of a list entry shown on a card
type EntryState struct {
	ID              string
	EpisodesWatched int
	UserScore       int
	Status          Status
	Notes           string
	Tags            string
	Year            int
	UpdatedAt       time.Time

	// Stored genre and studio strings, kept verbatim for ToEntry
	genres  string
	studios string
}

// OnList reports whether the card represents a list entry
func (c Card) OnList() bool {
	return c.Entry != nil
}

// CardFromItem builds a card for a catalog item, attaching the entry if one exists
func CardFromItem(item CatalogItem, entry *ListEntry) Card {
	card := Card{CatalogItem: item}
	if entry != nil {
		card.Entry = stateOf(*entry)
	}
	return card
}

// CardFromEntry builds a card from a list entry's snapshot and user state
func CardFromEntry(e ListEntry) Card {
	return Card{
		CatalogItem: CatalogItem{
			ID:       e.CatalogID,
			Title:    e.Title,
			ImageURL: e.ImageURL,
			Score:    e.Score,
			Episodes: e.EpisodesTotal,
			Genres:   e.GenreList(),
			Studios:  e.StudioList(),
			Type:     e.Type,
			Aired:    e.Aired,
			Synopsis: e.Synopsis,
		},
		Entry: stateOf(e),
	}
}

// ToEntry maps a card back to a list entry. Cards without entry state
// become a fresh plan-to-watch entry.
func (c Card) ToEntry() ListEntry {
	if c.Entry == nil {
		return NewEntryFromCatalog(c.CatalogItem)
	}
	return ListEntry{
		ID:              c.Entry.ID,
		CatalogID:       c.ID,
		Title:           c.Title,
		ImageURL:        c.ImageURL,
		Synopsis:        c.Synopsis,
		Score:           c.Score,
		EpisodesTotal:   c.Episodes,
		Genres:          keepStored(c.Entry.genres, c.Genres),
		Studios:         keepStored(c.Entry.studios, c.Studios),
		Type:            c.Type,
		Aired:           c.Aired,
		Year:            c.Entry.Year,
		EpisodesWatched: c.Entry.EpisodesWatched,
		UserScore:       c.Entry.UserScore,
		Status:          c.Entry.Status,
		Notes:           c.Entry.Notes,
		Tags:            c.Entry.Tags,
		UpdatedAt:       c.Entry.UpdatedAt,
	}
}

func stateOf(e ListEntry) *EntryState {
	return &EntryState{
		ID:              e.ID,
		EpisodesWatched: e.EpisodesWatched,
		UserScore:       e.UserScore,
		Status:          e.Status,
		Notes:           e.Notes,
		Tags:            e.Tags,
		Year:            e.Year,
		UpdatedAt:       e.UpdatedAt,
		genres:          e.Genres,
		studios:         e.Studios,
	}
}

// keepStored returns the stored string unless the card's list no longer matches it
func keepStored(stored string, shown []string) string {
	if slices.Equal(splitList(stored), shown) {
		return stored
	}
	return joinList(shown)
}
