package jikan

import (
	"strconv"

	"github.com/mmcdole/kanshi/internal/domain"
)

// MapAnime converts a Jikan anime record to a domain catalog item
func MapAnime(a animeDTO) domain.CatalogItem {
	item := domain.CatalogItem{
		ID:       a.MalID,
		Title:    a.Title,
		ImageURL: a.Images.JPG.LargeImageURL,
		Type:     a.Type,
		Aired:    a.Aired.String,
		Synopsis: a.Synopsis,
		URL:      a.URL,
		Genres:   names(a.Genres),
		Studios:  names(a.Studios),
	}
	if item.Title == "" {
		item.Title = a.TitleEnglish
	}
	if item.ImageURL == "" {
		item.ImageURL = a.Images.JPG.ImageURL
	}
	if a.Score != nil {
		item.Score = *a.Score
	}
	if a.Episodes != nil {
		item.Episodes = *a.Episodes
	}
	// Some records only carry the year
	if item.Aired == "" && a.Year != nil && *a.Year > 0 {
		item.Aired = strconv.Itoa(*a.Year)
	}
	return item
}

// MapAnimeList converts a page of records, dropping entries without an id
func MapAnimeList(list []animeDTO) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(list))
	for _, a := range list {
		if a.MalID == 0 {
			continue
		}
		items = append(items, MapAnime(a))
	}
	return items
}

func names(list []namedDTO) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, n := range list {
		if n.Name != "" {
			out = append(out, n.Name)
		}
	}
	return out
}
