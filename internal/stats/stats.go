package stats

import (
	"sort"

	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/recommend"
)

// TopGenreCount is how many genres the summary lists
const TopGenreCount = 8

// YearCount is the number of entries released in one year
type YearCount struct {
	Year  int
	Count int
}

// Summary aggregates the user's list
type Summary struct {
	Total         int
	ByStatus      map[domain.Status]int
	EpisodesSeen  int
	AverageScore  float64 // Mean over scored entries, 0 when none
	ScoredEntries int
	TopGenres     []recommend.GenreCount
	Years         []YearCount // Ascending by year
}

// Compute builds a Summary over every entry
func Compute(entries []domain.ListEntry) Summary {
	s := Summary{
		Total:    len(entries),
		ByStatus: make(map[domain.Status]int, len(domain.Statuses)),
	}
	for _, st := range domain.Statuses {
		s.ByStatus[st] = 0
	}

	scoreSum := 0
	years := make(map[int]int)
	for _, e := range entries {
		s.ByStatus[e.Status]++
		s.EpisodesSeen += e.EpisodesWatched
		if e.UserScore > 0 {
			scoreSum += e.UserScore
			s.ScoredEntries++
		}
		if e.Year > 0 {
			years[e.Year]++
		}
	}
	if s.ScoredEntries > 0 {
		s.AverageScore = float64(scoreSum) / float64(s.ScoredEntries)
	}

	s.TopGenres = recommend.TallyGenres(entries, nil)
	if len(s.TopGenres) > TopGenreCount {
		s.TopGenres = s.TopGenres[:TopGenreCount]
	}

	for y, n := range years {
		s.Years = append(s.Years, YearCount{Year: y, Count: n})
	}
	sort.Slice(s.Years, func(i, j int) bool { return s.Years[i].Year < s.Years[j].Year })

	return s
}
