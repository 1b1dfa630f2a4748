package optimistic

import "sync"

// Token identifies one in-flight operation in a Ledger
type Token[K comparable] struct {
	Key K
	id  uint64
}

// ApplyFunc computes the next value from the current one. A nil result
// means the key is absent.
type ApplyFunc[V any] func(cur *V) *V

// SinkFunc receives the visible value of a key every time it changes.
// It is called with the ledger lock held, so calls for one key arrive in order.
type SinkFunc[K comparable, V any] func(key K, visible *V)

type op[V any] struct {
	id    uint64
	apply ApplyFunc[V]
}

type slot[V any] struct {
	confirmed   *V
	pending     []op[V]
	committedAt uint64
}

// Ledger tracks, per key, the last value confirmed by the authoritative
// store and the ordered operations still awaiting confirmation. The visible
// value is the confirmed value with every pending operation replayed on
// top, so dropping a failed operation never disturbs the ones queued after it.
type Ledger[K comparable, V any] struct {
	mu     sync.Mutex
	slots  map[K]*slot[V]
	nextID uint64
	epoch  uint64
	sink   SinkFunc[K, V]
}

// NewLedger creates a ledger publishing visible values to sink
func NewLedger[K comparable, V any](sink SinkFunc[K, V]) *Ledger[K, V] {
	if sink == nil {
		sink = func(K, *V) {}
	}
	return &Ledger[K, V]{
		slots: make(map[K]*slot[V]),
		sink:  sink,
	}
}

// Begin records a pending operation and publishes its effect immediately
func (l *Ledger[K, V]) Begin(key K, apply ApplyFunc[V]) (Token[K], *V) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	s := l.slotLocked(key)
	s.pending = append(s.pending, op[V]{id: l.nextID, apply: apply})

	visible := s.visible()
	l.sink(key, visible)
	return Token[K]{Key: key, id: l.nextID}, visible
}

// Commit resolves an operation with the authoritative value it produced
func (l *Ledger[K, V]) Commit(tok Token[K], confirmed *V) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.slotLocked(tok.Key)
	s.remove(tok.id)
	l.epoch++
	s.confirmed = clone(confirmed)
	s.committedAt = l.epoch
	l.publishLocked(tok.Key, s)
}

// Rollback drops an operation; the visible value reverts to the confirmed
// value with the remaining operations replayed
func (l *Ledger[K, V]) Rollback(tok Token[K]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.slotLocked(tok.Key)
	s.remove(tok.id)
	l.publishLocked(tok.Key, s)
}

// Epoch returns a counter that advances on every commit
func (l *Ledger[K, V]) Epoch() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epoch
}

// Rebase replaces confirmed values with an authoritative snapshot taken
// after epoch. Keys committed after epoch are left alone because the
// snapshot may predate their commit. Keys missing from the snapshot become
// absent unless they were committed after epoch.
func (l *Ledger[K, V]) Rebase(epoch uint64, snapshot map[K]V) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range snapshot {
		s := l.slotLocked(key)
		if s.committedAt > epoch {
			continue
		}
		s.confirmed = clone(&v)
		l.publishLocked(key, s)
	}
	for key, s := range l.slots {
		if _, ok := snapshot[key]; ok || s.committedAt > epoch || s.confirmed == nil {
			continue
		}
		s.confirmed = nil
		l.publishLocked(key, s)
	}
}

// Confirmed returns the last authoritative value of a key
func (l *Ledger[K, V]) Confirmed(key K) *V {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.slots[key]; ok {
		return clone(s.confirmed)
	}
	return nil
}

// Visible returns the value the UI should see for a key
func (l *Ledger[K, V]) Visible(key K) *V {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.slots[key]; ok {
		return s.visible()
	}
	return nil
}

// Pending returns the number of unresolved operations for a key
func (l *Ledger[K, V]) Pending(key K) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.slots[key]; ok {
		return len(s.pending)
	}
	return 0
}

func (l *Ledger[K, V]) slotLocked(key K) *slot[V] {
	s, ok := l.slots[key]
	if !ok {
		s = &slot[V]{}
		l.slots[key] = s
	}
	return s
}

func (l *Ledger[K, V]) publishLocked(key K, s *slot[V]) {
	l.sink(key, s.visible())
	if s.confirmed == nil && len(s.pending) == 0 && s.committedAt == 0 {
		delete(l.slots, key)
	}
}

func (s *slot[V]) visible() *V {
	cur := clone(s.confirmed)
	for _, o := range s.pending {
		cur = o.apply(clone(cur))
	}
	return cur
}

func (s *slot[V]) remove(id uint64) {
	for i, o := range s.pending {
		if o.id == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

func clone[V any](v *V) *V {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
