package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mmcdole/kanshi/internal/domain"
)

// PatchOp identifies a ListStore change
type PatchOp int

const (
	OpUpsert PatchOp = iota
	OpRemove
)

// Patch is a single insert/update or removal keyed by catalog id
type Patch struct {
	Op        PatchOp
	CatalogID int
	Entry     domain.ListEntry // OpUpsert only
}

// Upsert returns a patch that inserts or replaces the entry for its catalog id
func Upsert(e domain.ListEntry) Patch {
	return Patch{Op: OpUpsert, CatalogID: e.CatalogID, Entry: e}
}

// Remove returns a patch that drops the entry for a catalog id
func Remove(catalogID int) Patch {
	return Patch{Op: OpRemove, CatalogID: catalogID}
}

// ListStore is the in-memory view of the user's list, keyed by catalog id.
// It does no I/O. Writers are expected to be the mutation coordinator; every
// other caller treats it as read-only.
type ListStore struct {
	mu sync.RWMutex

	entries map[int]domain.ListEntry // catalogID -> entry
	byID    map[string]int           // entry id -> catalogID

	// Insertion positions survive removal so a restored entry keeps its place
	positions map[int]uint64
	nextPos   uint64

	version   uint64
	listeners []func()
}

// New creates an empty ListStore
func New() *ListStore {
	return &ListStore{
		entries:   make(map[int]domain.ListEntry),
		byID:      make(map[string]int),
		positions: make(map[int]uint64),
	}
}

// Get returns the entry for a catalog id
func (s *ListStore) Get(catalogID int) (domain.ListEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[catalogID]
	return e, ok
}

// GetByID returns the entry with the given local id
func (s *ListStore) GetByID(id string) (domain.ListEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	catalogID, ok := s.byID[id]
	if !ok {
		return domain.ListEntry{}, false
	}
	e, ok := s.entries[catalogID]
	return e, ok
}

// All returns every entry, most recently updated first. Entries with equal
// timestamps keep insertion order.
func (s *ListStore) All() []domain.ListEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ListEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return s.positions[out[i].CatalogID] < s.positions[out[j].CatalogID]
	})
	return out
}

// Len returns the number of entries
func (s *ListStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Version increases on every applied change
func (s *ListStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Apply performs one or more patches atomically.
// An upsert whose id is already held by a different catalog id is rejected
// and nothing is applied.
func (s *ListStore) Apply(patches ...Patch) error {
	if len(patches) == 0 {
		return nil
	}

	s.mu.Lock()
	for _, p := range patches {
		if p.Op != OpUpsert || p.Entry.ID == "" {
			continue
		}
		if owner, ok := s.byID[p.Entry.ID]; ok && owner != p.Entry.CatalogID && !removedIn(patches, owner) {
			s.mu.Unlock()
			return fmt.Errorf("entry %s already held by catalog id %d: %w", p.Entry.ID, owner, domain.ErrDuplicateEntry)
		}
	}
	for _, p := range patches {
		s.applyLocked(p)
	}
	s.version++
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// Replace swaps the whole contents for an authoritative list.
// Entries keep their previous position when already known.
func (s *ListStore) Replace(entries []domain.ListEntry) error {
	patches := make([]Patch, 0, len(entries)+s.Len())
	incoming := make(map[int]bool, len(entries))
	for _, e := range entries {
		if incoming[e.CatalogID] {
			return fmt.Errorf("catalog id %d listed twice: %w", e.CatalogID, domain.ErrDuplicateEntry)
		}
		incoming[e.CatalogID] = true
	}
	for _, e := range s.All() {
		if !incoming[e.CatalogID] {
			patches = append(patches, Remove(e.CatalogID))
		}
	}
	for _, e := range entries {
		patches = append(patches, Upsert(e))
	}
	return s.Apply(patches...)
}

// Subscribe registers fn to run after every applied change
func (s *ListStore) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *ListStore) applyLocked(p Patch) {
	switch p.Op {
	case OpUpsert:
		if old, ok := s.entries[p.CatalogID]; ok && old.ID != p.Entry.ID {
			s.unindexLocked(old)
		}
		s.entries[p.CatalogID] = p.Entry
		if p.Entry.ID != "" {
			s.byID[p.Entry.ID] = p.CatalogID
		}
		if _, ok := s.positions[p.CatalogID]; !ok {
			s.nextPos++
			s.positions[p.CatalogID] = s.nextPos
		}
	case OpRemove:
		if old, ok := s.entries[p.CatalogID]; ok {
			s.unindexLocked(old)
			delete(s.entries, p.CatalogID)
		}
	}
}

func (s *ListStore) unindexLocked(e domain.ListEntry) {
	if s.byID[e.ID] == e.CatalogID {
		delete(s.byID, e.ID)
	}
}

func removedIn(patches []Patch, catalogID int) bool {
	for _, p := range patches {
		if p.Op == OpRemove && p.CatalogID == catalogID {
			return true
		}
	}
	return false
}
