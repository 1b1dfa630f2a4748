// Package backend selects the list persistence implementation.
package backend

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/mmcdole/kanshi/internal/adapter"
	"github.com/mmcdole/kanshi/internal/adapter/backend/bolt"
	"github.com/mmcdole/kanshi/internal/adapter/backend/rest"
	"github.com/mmcdole/kanshi/internal/domain"
)

// Open returns the repository named by cfg and a closer for its resources
func Open(cfg adapter.BackendConfig, clock clockwork.Clock, logger *slog.Logger) (domain.EntryRepository, io.Closer, error) {
	switch cfg.Type {
	case adapter.BackendTypeLocal, "":
		repo, err := bolt.Open(cfg.Path, clock, logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case adapter.BackendTypeREST:
		return rest.NewClient(cfg.URL, cfg.Token, cfg.Timeout, logger), io.NopCloser(nil), nil
	default:
		return nil, nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
}
