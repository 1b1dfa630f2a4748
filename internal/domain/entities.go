package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxSynopsisLength is the longest synopsis copied into a list entry snapshot
	MaxSynopsisLength = 2000

	// UnknownEpisodeCap bounds episodes watched when the total is unknown
	UnknownEpisodeCap = 999

	// MaxUserScore is the top of the 0-10 user score scale (0 = unscored)
	MaxUserScore = 10

	pageURLFormat = "https://myanimelist.net/anime/%d"
)

// CatalogItem is a read-only title from the external catalog service.
// It is never mutated locally and only lives as long as the response that carried it.
type CatalogItem struct {
	ID       int      // Catalog identifier (stable, primary key for matching)
	Title    string   // Display title
	ImageURL string   // Cover image URL
	Score    float64  // Mean community score (0-10, 0 = unrated)
	Episodes int      // Total episode count (0 = unknown/ongoing)
	Genres   []string // Ordered genre names
	Studios  []string // Ordered studio names
	Type     string   // "TV", "Movie", "OVA", ...
	Aired    string   // Air-date string as reported by the catalog
	Synopsis string   // Plot synopsis
	URL      string   // Public page for the title, when the catalog reports one
}

// PageURL returns the title's public page. Catalog ids are MyAnimeList ids.
func (c CatalogItem) PageURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(pageURLFormat, c.ID)
}

// HasGenre reports whether the item lists the named genre (exact match)
func (c CatalogItem) HasGenre(name string) bool {
	for _, g := range c.Genres {
		if g == name {
			return true
		}
	}
	return false
}

// HasStudio reports whether the item lists the named studio (exact match)
func (c CatalogItem) HasStudio(name string) bool {
	for _, s := range c.Studios {
		if s == name {
			return true
		}
	}
	return false
}

// Status is the watch state of a list entry
type Status string

const (
	StatusWatching    Status = "watching"
	StatusCompleted   Status = "completed"
	StatusPlanToWatch Status = "plan_to_watch"
	StatusDropped     Status = "dropped"
)

// Statuses lists every status in tab order
var Statuses = []Status{StatusWatching, StatusCompleted, StatusPlanToWatch, StatusDropped}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusWatching, StatusCompleted, StatusPlanToWatch, StatusDropped:
		return true
	}
	return false
}

// String returns a human-readable label
func (s Status) String() string {
	switch s {
	case StatusWatching:
		return "Watching"
	case StatusCompleted:
		return "Completed"
	case StatusPlanToWatch:
		return "Plan to Watch"
	case StatusDropped:
		return "Dropped"
	default:
		return "Unknown"
	}
}

// Next cycles through statuses in tab order
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusPlanToWatch
}

// ListEntry is the user's tracking record for one catalog title.
// The catalog fields are a snapshot taken at add time and are not kept in sync.
type ListEntry struct {
	ID        string `json:"id"`     // Assigned by the backend; placeholder until the create commits
	CatalogID int    `json:"mal_id"` // Foreign key to CatalogItem.ID, unique per user

	// Snapshot of the catalog item
	Title         string  `json:"title"`
	ImageURL      string  `json:"image_url"`
	Synopsis      string  `json:"synopsis"`
	Score         float64 `json:"score"`
	EpisodesTotal int     `json:"episodes_total"`
	Genres        string  `json:"genres"`  // Comma-separated, e.g. "Action, Drama"
	Studios       string  `json:"studios"` // Comma-separated
	Type          string  `json:"type"`
	Aired         string  `json:"aired"`
	Year          int     `json:"year,omitempty"` // Derived from Aired (0 = none found)

	// User-owned state
	EpisodesWatched int       `json:"episodes_watched"`
	UserScore       int       `json:"user_score"`
	Status          Status    `json:"status"`
	Notes           string    `json:"notes"`
	Tags            string    `json:"tags"`
	UpdatedAt       time.Time `json:"updated_date"`
}

// GenreList splits the genre snapshot into trimmed names, skipping blanks
func (e ListEntry) GenreList() []string {
	return splitList(e.Genres)
}

// StudioList splits the studio snapshot into trimmed names, skipping blanks
func (e ListEntry) StudioList() []string {
	return splitList(e.Studios)
}

// TagList splits the free-text tags into trimmed names, skipping blanks
func (e ListEntry) TagList() []string {
	return splitList(e.Tags)
}

// EpisodeCap returns the upper bound for episodes watched
func (e ListEntry) EpisodeCap() int {
	if e.EpisodesTotal > 0 {
		return e.EpisodesTotal
	}
	return UnknownEpisodeCap
}

// NextEpisode returns the watched count after one more episode, clamped to the cap
func (e ListEntry) NextEpisode() int {
	return min(e.EpisodesWatched+1, e.EpisodeCap())
}

// IsPlaceholder reports whether the entry still carries a temporary id
func (e ListEntry) IsPlaceholder() bool {
	return e.ID == "" || IsPlaceholderID(e.ID)
}

// Normalize clamps user-editable values into their allowed ranges and
// derives the release year from the air-date string.
func (e *ListEntry) Normalize() {
	if e.EpisodesWatched < 0 {
		e.EpisodesWatched = 0
	}
	if e.EpisodesTotal < 0 {
		e.EpisodesTotal = 0
	}
	if e.EpisodesTotal > 0 && e.EpisodesWatched > e.EpisodesTotal {
		e.EpisodesWatched = e.EpisodesTotal
	}
	e.UserScore = max(0, min(e.UserScore, MaxUserScore))
	if !e.Status.Valid() {
		e.Status = StatusPlanToWatch
	}
	e.Year = ReleaseYear(e.Aired)
}

// Progress returns a "watched/total" label ("3/?" when the total is unknown)
func (e ListEntry) Progress() string {
	if e.EpisodesTotal > 0 {
		return fmt.Sprintf("%d/%d", e.EpisodesWatched, e.EpisodesTotal)
	}
	return fmt.Sprintf("%d/?", e.EpisodesWatched)
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// ReleaseYear extracts the first 4-digit run from an air-date string.
// Returns 0 when none is found.
func ReleaseYear(aired string) int {
	match := yearPattern.FindString(aired)
	if match == "" {
		return 0
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return year
}

// NewEntryFromCatalog snapshots a catalog item into a plan-to-watch entry
// with no episodes watched. The id is left empty for the caller to assign.
func NewEntryFromCatalog(item CatalogItem) ListEntry {
	e := ListEntry{
		CatalogID:     item.ID,
		Title:         item.Title,
		ImageURL:      item.ImageURL,
		Synopsis:      truncateRunes(item.Synopsis, MaxSynopsisLength),
		Score:         item.Score,
		EpisodesTotal: item.Episodes,
		Genres:        joinList(item.Genres),
		Studios:       joinList(item.Studios),
		Type:          item.Type,
		Aired:         item.Aired,
		Status:        StatusPlanToWatch,
	}
	e.Normalize()
	return e
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
