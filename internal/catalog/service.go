package catalog

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/kanshi/internal/domain"
)

// MinQueryLength is the shortest query that triggers a catalog search
const MinQueryLength = 3

// Feeds holds the home screen lists
type Feeds struct {
	Trending []domain.CatalogItem // Top currently airing
	Seasonal []domain.CatalogItem // Current season
	Top      []domain.CatalogItem // All-time top
}

// Service orchestrates catalog reads for the browsing screens.
type Service struct {
	client domain.CatalogClient
	logger *slog.Logger
}

// NewService creates a new catalog service.
func NewService(client domain.CatalogClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger}
}

// Search queries the catalog. Queries shorter than MinQueryLength return
// nothing without a request.
func (s *Service) Search(ctx context.Context, query string) ([]domain.CatalogItem, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, nil
	}
	items, err := s.client.Search(ctx, query)
	if err != nil {
		s.logger.Error("catalog search failed", "error", err, "query", query)
		return nil, err
	}
	s.logger.Debug("catalog search", "query", query, "count", len(items))
	return items, nil
}

// Home loads every home feed concurrently. The client's gate still spaces
// the requests. Feeds that loaded are returned alongside the first error.
func (s *Service) Home(ctx context.Context) (Feeds, error) {
	var feeds Feeds
	var g errgroup.Group

	g.Go(func() error {
		items, err := s.client.TopAiring(ctx)
		if err != nil {
			s.logger.Error("failed to fetch trending", "error", err)
			return err
		}
		feeds.Trending = items
		return nil
	})
	g.Go(func() error {
		items, err := s.client.SeasonNow(ctx)
		if err != nil {
			s.logger.Error("failed to fetch seasonal", "error", err)
			return err
		}
		feeds.Seasonal = items
		return nil
	})
	g.Go(func() error {
		items, err := s.client.Top(ctx)
		if err != nil {
			s.logger.Error("failed to fetch top", "error", err)
			return err
		}
		feeds.Top = items
		return nil
	})

	err := g.Wait()
	return feeds, err
}

// CandidatePool is the recommendation input: trending then seasonal, first
// occurrence of each catalog id kept
func CandidatePool(f Feeds) []domain.CatalogItem {
	seen := make(map[int]struct{}, len(f.Trending)+len(f.Seasonal))
	pool := make([]domain.CatalogItem, 0, len(f.Trending)+len(f.Seasonal))
	for _, list := range [][]domain.CatalogItem{f.Trending, f.Seasonal} {
		for _, item := range list {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			pool = append(pool, item)
		}
	}
	return pool
}
