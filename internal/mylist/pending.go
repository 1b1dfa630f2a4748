package mylist

import (
	"context"
	"sync"

	"github.com/mmcdole/kanshi/internal/domain"
)

// State is the lifecycle stage of a mutation
type State int

const (
	StatePending State = iota
	StateInFlight
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in-flight"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

// Terminal reports whether the mutation has finished
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateRolledBack
}

// Result is the outcome of a mutation
type Result struct {
	State State
	Entry *domain.ListEntry // Authoritative entry after commit (nil after a delete)
	Err   error             // Cause of a rollback
}

// Pending tracks one submitted mutation
type Pending struct {
	Kind      domain.MutationKind
	CatalogID int

	mu     sync.Mutex
	result Result
	done   chan struct{}
}

func newPending(kind domain.MutationKind, catalogID int) *Pending {
	return &Pending{Kind: kind, CatalogID: catalogID, done: make(chan struct{})}
}

// Done is closed once the mutation is committed or rolled back
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the current state; Entry and Err are set once Done is closed
func (p *Pending) Result() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Wait blocks until the mutation finishes or ctx is done
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.Result(), nil
	case <-ctx.Done():
		return p.Result(), ctx.Err()
	}
}

func (p *Pending) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result.State = s
}

func (p *Pending) finish(r Result) {
	p.mu.Lock()
	p.result = r
	p.mu.Unlock()
	close(p.done)
}
