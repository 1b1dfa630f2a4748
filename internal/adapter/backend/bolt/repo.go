package bolt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/kanshi/internal/domain"
)

// Bucket names
var (
	bucketEntries = []byte("entries")
	bucketCatalog = []byte("catalog") // catalog id -> entry key
)

// Repository implements domain.EntryRepository on a local BoltDB file.
type Repository struct {
	db     *bolt.DB
	clock  clockwork.Clock
	logger *slog.Logger

	mu    sync.RWMutex // Protects cache
	cache map[string]domain.ListEntry
}

var _ domain.EntryRepository = (*Repository)(nil)

// Open opens (or creates) the database at path
func Open(path string, clock clockwork.Clock, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEntries, bucketCatalog} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{
		db:     db,
		clock:  clock,
		logger: logger.With("adapter", "bolt"),
	}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) List(ctx context.Context) ([]domain.ListEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	if r.cache != nil {
		out := make([]domain.ListEntry, 0, len(r.cache))
		for _, e := range r.cache {
			out = append(out, e)
		}
		r.mu.RUnlock()
		return out, nil
	}
	r.mu.RUnlock()

	var out []domain.ListEntry
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			var e domain.ListEntry
			if err := json.Unmarshal(v, &e); err != nil {
				r.logger.Error("skipping unreadable entry", "key", string(k), "error", err)
				return nil
			}
			out = append(out, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Promote to memory cache
	r.mu.Lock()
	r.cache = make(map[string]domain.ListEntry, len(out))
	for _, e := range out {
		r.cache[e.ID] = e
	}
	r.mu.Unlock()

	return out, nil
}

func (r *Repository) Create(ctx context.Context, entry domain.ListEntry) (domain.ListEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.ListEntry{}, err
	}

	err := r.db.Update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bucketCatalog)
		catalogKey := []byte(strconv.Itoa(entry.CatalogID))
		if idx.Get(catalogKey) != nil {
			return domain.ErrDuplicateEntry
		}

		entries := tx.Bucket(bucketEntries)
		seq, err := entries.NextSequence()
		if err != nil {
			return err
		}
		entry.ID = strconv.FormatUint(seq, 10)
		entry.UpdatedAt = r.clock.Now()
		entry.Normalize()

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		key := entryKey(seq)
		if err := entries.Put(key, data); err != nil {
			return err
		}
		return idx.Put(catalogKey, key)
	})
	if err != nil {
		return domain.ListEntry{}, err
	}

	r.cachePut(entry)
	r.logger.Debug("entry created", "id", entry.ID, "catalogID", entry.CatalogID)
	return entry, nil
}

func (r *Repository) Update(ctx context.Context, id string, entry domain.ListEntry) (domain.ListEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.ListEntry{}, err
	}
	key, ok := parseID(id)
	if !ok {
		return domain.ListEntry{}, domain.ErrEntryNotFound
	}

	var stored domain.ListEntry
	err := r.db.Update(func(tx *bolt.Tx) error {
		entries := tx.Bucket(bucketEntries)
		v := entries.Get(key)
		if v == nil {
			return domain.ErrEntryNotFound
		}
		var existing domain.ListEntry
		if err := json.Unmarshal(v, &existing); err != nil {
			return err
		}

		// Identity fields are owned by the store
		stored = entry
		stored.ID = existing.ID
		stored.CatalogID = existing.CatalogID
		stored.UpdatedAt = r.clock.Now()
		stored.Normalize()

		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return entries.Put(key, data)
	})
	if err != nil {
		return domain.ListEntry{}, err
	}

	r.cachePut(stored)
	return stored, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, ok := parseID(id)
	if !ok {
		return domain.ErrEntryNotFound
	}

	err := r.db.Update(func(tx *bolt.Tx) error {
		entries := tx.Bucket(bucketEntries)
		v := entries.Get(key)
		if v == nil {
			return domain.ErrEntryNotFound
		}
		var existing domain.ListEntry
		if err := json.Unmarshal(v, &existing); err != nil {
			return err
		}
		if err := tx.Bucket(bucketCatalog).Delete([]byte(strconv.Itoa(existing.CatalogID))); err != nil {
			return err
		}
		return entries.Delete(key)
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.cache != nil {
		delete(r.cache, id)
	}
	r.mu.Unlock()
	return nil
}

func (r *Repository) cachePut(e domain.ListEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache != nil {
		r.cache[e.ID] = e
	}
}

// entryKey zero-pads the sequence so keys sort numerically
func entryKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%020d", seq))
}

func parseID(id string) ([]byte, bool) {
	seq, err := strconv.ParseUint(id, 10, 64)
	if err != nil || seq == 0 {
		return nil, false
	}
	return entryKey(seq), true
}
