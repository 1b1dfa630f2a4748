package mylist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/optimistic"
	"github.com/mmcdole/kanshi/internal/store"
)

const (
	defaultRequestTimeout = 15 * time.Second

	noticeAdded   = "Added to your list!"
	noticeUpdated = "Entry updated!"
	noticeRemoved = "Removed from list"
)

// Options configures the mutation coordinator
type Options struct {
	RequestTimeout  time.Duration // Per persistence call
	RefreshOnCommit bool          // Reload the list after every commit
	Clock           clockwork.Clock
	Notifier        domain.Notifier
}

// Commands coordinates optimistic list mutations.
// Every mutation is applied to the ListStore before its persistence call is
// issued, then committed or rolled back when the call returns. Mutations on
// one catalog id reach the backend in submission order.
type Commands struct {
	repo   domain.EntryRepository
	store  *store.ListStore
	ledger *optimistic.Ledger[int, domain.ListEntry]
	lanes  *optimistic.Lanes[int]
	opts   Options
	logger *slog.Logger

	refreshes singleflight.Group
	bg        sync.WaitGroup
}

// NewCommands creates a coordinator that owns writes to st
func NewCommands(repo domain.EntryRepository, st *store.ListStore, opts Options, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	c := &Commands{
		repo:   repo,
		store:  st,
		lanes:  optimistic.NewLanes[int](),
		opts:   opts,
		logger: logger,
	}
	c.ledger = optimistic.NewLedger(c.publish)
	return c
}

// Mutate applies a create, update or delete intent
func (c *Commands) Mutate(ctx context.Context, m domain.Mutation) *Pending {
	notice := noticeUpdated
	switch m.Kind {
	case domain.MutationCreate:
		notice = noticeAdded
	case domain.MutationDelete:
		notice = noticeRemoved
	}
	return c.submit(ctx, m, notice)
}

// QuickIncrement marks one more episode watched on a listed title, or adds
// an unlisted title as plan to watch
func (c *Commands) QuickIncrement(ctx context.Context, item domain.CatalogItem) *Pending {
	if cur := c.ledger.Visible(item.ID); cur != nil {
		next := cur.NextEpisode()
		return c.submit(ctx, domain.Mutation{
			Kind:      domain.MutationUpdate,
			CatalogID: item.ID,
			Patch:     domain.EntryPatch{EpisodesWatched: &next},
		}, fmt.Sprintf("Episode %d watched!", next))
	}
	return c.submit(ctx, domain.Mutation{
		Kind:      domain.MutationCreate,
		CatalogID: item.ID,
		Entry:     domain.NewEntryFromCatalog(item),
	}, noticeAdded)
}

// Save stores the detail form for a title, updating its entry when listed
// and creating one otherwise
func (c *Commands) Save(ctx context.Context, item domain.CatalogItem, form domain.Form) *Pending {
	if c.ledger.Visible(item.ID) != nil {
		return c.submit(ctx, domain.Mutation{
			Kind:      domain.MutationUpdate,
			CatalogID: item.ID,
			Patch:     form.Patch(),
		}, noticeUpdated)
	}
	return c.submit(ctx, domain.Mutation{
		Kind:      domain.MutationCreate,
		CatalogID: item.ID,
		Entry:     form.Patch().Apply(domain.NewEntryFromCatalog(item)),
	}, noticeAdded)
}

// Remove deletes the entry for a catalog id
func (c *Commands) Remove(ctx context.Context, catalogID int) *Pending {
	return c.submit(ctx, domain.Mutation{Kind: domain.MutationDelete, CatalogID: catalogID}, noticeRemoved)
}

// Refresh reloads the list from the backend and replays pending mutations
// on top. Concurrent calls share one request.
func (c *Commands) Refresh(ctx context.Context) error {
	_, err, _ := c.refreshes.Do("list", func() (interface{}, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

// Wait blocks until every queued mutation and background refresh has finished
func (c *Commands) Wait() {
	c.lanes.Wait()
	c.bg.Wait()
}

func (c *Commands) submit(ctx context.Context, m domain.Mutation, notice string) *Pending {
	key := m.CatalogID
	visible := c.ledger.Visible(key)

	switch m.Kind {
	case domain.MutationCreate:
		m.Entry.CatalogID = key
		if visible != nil {
			// One entry per catalog id: a second add only bumps progress and
			// leaves the user's fields alone
			next := visible.NextEpisode()
			c.logger.Debug("create for listed title, incrementing instead", "catalogID", key)
			m = domain.Mutation{
				Kind:      domain.MutationUpdate,
				CatalogID: key,
				Patch:     domain.EntryPatch{EpisodesWatched: &next},
			}
			notice = fmt.Sprintf("Episode %d watched!", next)
		}
	case domain.MutationUpdate:
		if visible == nil {
			return c.resolved(m, Result{State: StateRolledBack, Err: domain.ErrEntryNotFound})
		}
	case domain.MutationDelete:
		if visible == nil {
			return c.resolved(m, Result{State: StateCommitted})
		}
	}

	p := newPending(m.Kind, key)
	tok, _ := c.ledger.Begin(key, c.applyFunc(m))
	c.logger.Debug("mutation applied", "kind", m.Kind, "catalogID", key)

	c.lanes.Go(key, func() {
		p.setState(StateInFlight)

		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.RequestTimeout)
		defer cancel()

		confirmed, err := c.persist(reqCtx, m)
		if err != nil {
			c.ledger.Rollback(tok)
			c.logger.Warn("mutation rolled back", "kind", m.Kind, "catalogID", key, "error", err)
			p.finish(Result{State: StateRolledBack, Err: err})
			c.notify(domain.Notification{Text: failureText(m.Kind, err), Error: true})
			return
		}

		c.ledger.Commit(tok, confirmed)
		c.logger.Info("mutation committed", "kind", m.Kind, "catalogID", key)
		p.finish(Result{State: StateCommitted, Entry: confirmed})
		c.notify(domain.Notification{Text: notice})

		if c.opts.RefreshOnCommit {
			c.refreshAsync(ctx)
		}
	})
	return p
}

// applyFunc builds the local effect of a mutation
func (c *Commands) applyFunc(m domain.Mutation) optimistic.ApplyFunc[domain.ListEntry] {
	now := c.opts.Clock.Now()
	switch m.Kind {
	case domain.MutationCreate:
		entry := m.Entry
		entry.ID = domain.NewPlaceholderID()
		entry.UpdatedAt = now
		entry.Normalize()
		return func(*domain.ListEntry) *domain.ListEntry {
			e := entry
			return &e
		}
	case domain.MutationUpdate:
		return func(cur *domain.ListEntry) *domain.ListEntry {
			if cur == nil {
				return nil
			}
			e := m.Patch.Apply(*cur)
			e.UpdatedAt = now
			return &e
		}
	default:
		return func(*domain.ListEntry) *domain.ListEntry { return nil }
	}
}

// persist issues the backend write. Ids are resolved here rather than at
// submission, so a mutation queued behind a create uses the server id.
func (c *Commands) persist(ctx context.Context, m domain.Mutation) (*domain.ListEntry, error) {
	switch m.Kind {
	case domain.MutationCreate:
		entry := m.Entry
		entry.ID = ""
		entry.Normalize()
		created, err := c.repo.Create(ctx, entry)
		if err != nil {
			return nil, err
		}
		return &created, nil

	case domain.MutationUpdate:
		conf := c.ledger.Confirmed(m.CatalogID)
		if conf == nil {
			return nil, domain.ErrEntryNotFound
		}
		updated, err := c.repo.Update(ctx, conf.ID, m.Patch.Apply(*conf))
		if err != nil {
			return nil, err
		}
		return &updated, nil

	case domain.MutationDelete:
		conf := c.ledger.Confirmed(m.CatalogID)
		if conf == nil {
			// Never reached the backend
			return nil, nil
		}
		return nil, c.repo.Delete(ctx, conf.ID)
	}
	return nil, fmt.Errorf("unknown mutation kind %d", m.Kind)
}

func (c *Commands) refresh(ctx context.Context) error {
	epoch := c.ledger.Epoch()
	entries, err := c.repo.List(ctx)
	if err != nil {
		c.logger.Error("failed to fetch list", "error", err)
		return err
	}

	snapshot := make(map[int]domain.ListEntry, len(entries))
	for _, e := range entries {
		if _, dup := snapshot[e.CatalogID]; dup {
			c.logger.Warn("duplicate entry in backend list", "catalogID", e.CatalogID, "id", e.ID)
			continue
		}
		snapshot[e.CatalogID] = e
	}
	c.ledger.Rebase(epoch, snapshot)
	c.logger.Info("list refreshed", "count", len(snapshot))
	return nil
}

func (c *Commands) refreshAsync(ctx context.Context) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.RequestTimeout)
		defer cancel()
		_ = c.Refresh(reqCtx)
	}()
}

// publish mirrors a visible value into the ListStore
func (c *Commands) publish(catalogID int, visible *domain.ListEntry) {
	patch := store.Remove(catalogID)
	if visible != nil {
		patch = store.Upsert(*visible)
	}
	if err := c.store.Apply(patch); err != nil {
		c.logger.Error("failed to apply list patch", "error", err, "catalogID", catalogID)
	}
}

func (c *Commands) resolved(m domain.Mutation, r Result) *Pending {
	p := newPending(m.Kind, m.CatalogID)
	if r.Err != nil {
		c.logger.Warn("mutation rejected", "kind", m.Kind, "catalogID", m.CatalogID, "error", r.Err)
	}
	p.finish(r)
	return p
}

func (c *Commands) notify(n domain.Notification) {
	if c.opts.Notifier != nil {
		c.opts.Notifier.Notify(n)
	}
}

func failureText(kind domain.MutationKind, err error) string {
	switch kind {
	case domain.MutationCreate:
		return fmt.Sprintf("Could not add to your list: %v", err)
	case domain.MutationDelete:
		return fmt.Sprintf("Could not remove from list: %v", err)
	default:
		return fmt.Sprintf("Could not update entry: %v", err)
	}
}
