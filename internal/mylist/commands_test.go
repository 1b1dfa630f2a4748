package mylist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/store"
)

var errBackendDown = errors.New("backend down")

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRepo is an in-memory EntryRepository with scripted failures
type fakeRepo struct {
	mu      sync.Mutex
	entries map[string]domain.ListEntry
	nextID  int
	gate    chan struct{}
	calls   []string

	createErrs []error
	updateErrs []error
	deleteErrs []error
	listCalls  int
}

func newFakeRepo(seed ...domain.ListEntry) *fakeRepo {
	r := &fakeRepo{entries: make(map[string]domain.ListEntry)}
	for _, e := range seed {
		r.nextID++
		e.ID = strconv.Itoa(r.nextID)
		r.entries[e.ID] = e
	}
	return r
}

func (r *fakeRepo) hold() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = make(chan struct{})
}

func (r *fakeRepo) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	close(r.gate)
}

func (r *fakeRepo) wait() {
	r.mu.Lock()
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func popErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (r *fakeRepo) List(ctx context.Context) ([]domain.ListEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	out := make([]domain.ListEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeRepo) Create(ctx context.Context, e domain.ListEntry) (domain.ListEntry, error) {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "create")
	if err := popErr(&r.createErrs); err != nil {
		return domain.ListEntry{}, err
	}
	for _, existing := range r.entries {
		if existing.CatalogID == e.CatalogID {
			return domain.ListEntry{}, domain.ErrDuplicateEntry
		}
	}
	r.nextID++
	e.ID = strconv.Itoa(r.nextID)
	r.entries[e.ID] = e
	return e, nil
}

func (r *fakeRepo) Update(ctx context.Context, id string, e domain.ListEntry) (domain.ListEntry, error) {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "update:"+id)
	if err := popErr(&r.updateErrs); err != nil {
		return domain.ListEntry{}, err
	}
	if _, ok := r.entries[id]; !ok {
		return domain.ListEntry{}, domain.ErrEntryNotFound
	}
	e.ID = id
	r.entries[id] = e
	return e, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "delete:"+id)
	if err := popErr(&r.deleteErrs); err != nil {
		return err
	}
	if _, ok := r.entries[id]; !ok {
		return domain.ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *fakeRepo) snapshot() []domain.ListEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ListEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

type noticeLog struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (n *noticeLog) Notify(msg domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, msg)
}

func (n *noticeLog) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.items...)
}

type harness struct {
	repo    *fakeRepo
	store   *store.ListStore
	cmds    *Commands
	notices *noticeLog
}

func newHarness(t *testing.T, refreshOnCommit bool, seed ...domain.ListEntry) *harness {
	t.Helper()
	h := &harness{repo: newFakeRepo(seed...), store: store.New(), notices: &noticeLog{}}
	h.cmds = NewCommands(h.repo, h.store, Options{
		RequestTimeout:  time.Second,
		RefreshOnCommit: refreshOnCommit,
		Notifier:        h.notices,
	}, newTestLogger())
	require.NoError(t, h.cmds.Refresh(context.Background()))
	return h
}

func waitResult(t *testing.T, p *Pending) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r, err := p.Wait(ctx)
	require.NoError(t, err, "mutation did not finish")
	return r
}

func catalogItem(id int, title string, episodes int, genres ...string) domain.CatalogItem {
	return domain.CatalogItem{ID: id, Title: title, Episodes: episodes, Genres: genres, Type: "TV"}
}

func TestCommands_CreateRollsBackToEmpty(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)
	h.repo.createErrs = []error{errBackendDown}
	h.repo.hold()

	before := h.store.All()
	p := h.cmds.QuickIncrement(context.Background(), catalogItem(42, "X", 12))

	// Visible before the backend answers
	got, ok := h.store.Get(42)
	require.True(t, ok)
	assert.Equal(t, "X", got.Title)
	assert.True(t, got.IsPlaceholder())

	h.repo.release()
	r := waitResult(t, p)

	assert.Equal(t, StateRolledBack, r.State)
	assert.ErrorIs(t, r.Err, errBackendDown)
	assert.Equal(t, before, h.store.All())
	assert.Equal(t, 0, h.store.Len())

	notices := h.notices.all()
	require.Len(t, notices, 1)
	assert.True(t, notices[0].Error)
}

func TestCommands_CreateCommitsServerID(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)
	p := h.cmds.QuickIncrement(context.Background(), catalogItem(42, "X", 12, "Action"))
	r := waitResult(t, p)

	require.Equal(t, StateCommitted, r.State)
	require.NotNil(t, r.Entry)

	got, ok := h.store.Get(42)
	require.True(t, ok)
	assert.Equal(t, r.Entry.ID, got.ID)
	assert.False(t, got.IsPlaceholder())
	assert.Equal(t, domain.StatusPlanToWatch, got.Status)
	assert.Equal(t, 0, got.EpisodesWatched)
	assert.Equal(t, "Action", got.Genres)

	assert.Equal(t, []domain.Notification{{Text: "Added to your list!"}}, h.notices.all())
}

func TestCommands_QuickIncrementClampsAtTotal(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, domain.ListEntry{
		CatalogID: 5, Title: "Five", EpisodesWatched: 3, EpisodesTotal: 12, Status: domain.StatusWatching,
	})
	item := catalogItem(5, "Five", 12)
	ctx := context.Background()

	waitResult(t, h.cmds.QuickIncrement(ctx, item))
	got, _ := h.store.Get(5)
	assert.Equal(t, 4, got.EpisodesWatched)

	for i := 0; i < 8; i++ {
		h.cmds.QuickIncrement(ctx, item)
		cur, _ := h.store.Get(5)
		assert.LessOrEqual(t, cur.EpisodesWatched, 12)
	}
	h.cmds.Wait()

	got, _ = h.store.Get(5)
	assert.Equal(t, 12, got.EpisodesWatched)

	persisted := h.repo.snapshot()
	require.Len(t, persisted, 1)
	assert.Equal(t, 12, persisted[0].EpisodesWatched)

	notices := h.notices.all()
	assert.Equal(t, "Episode 4 watched!", notices[0].Text)
}

func TestCommands_QuickIncrementUnknownTotalCapsAt999(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, domain.ListEntry{
		CatalogID: 9, Title: "Long", EpisodesWatched: 998, Status: domain.StatusWatching,
	})
	item := catalogItem(9, "Long", 0)

	h.cmds.QuickIncrement(context.Background(), item)
	h.cmds.QuickIncrement(context.Background(), item)
	h.cmds.Wait()

	got, _ := h.store.Get(9)
	assert.Equal(t, 999, got.EpisodesWatched)
}

func TestCommands_RollbackKeepsLaterMutation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, domain.ListEntry{
		CatalogID: 7, Title: "Seven", EpisodesWatched: 3, EpisodesTotal: 24, Status: domain.StatusWatching, Notes: "orig",
	})
	h.repo.updateErrs = []error{errBackendDown}
	h.repo.hold()
	ctx := context.Background()

	first := h.cmds.Mutate(ctx, domain.Mutation{
		Kind: domain.MutationUpdate, CatalogID: 7, Patch: domain.EntryPatch{Notes: domain.Ptr("changed")},
	})
	second := h.cmds.Mutate(ctx, domain.Mutation{
		Kind: domain.MutationUpdate, CatalogID: 7, Patch: domain.EntryPatch{EpisodesWatched: domain.Ptr(5)},
	})

	visible, _ := h.store.Get(7)
	assert.Equal(t, "changed", visible.Notes)
	assert.Equal(t, 5, visible.EpisodesWatched)

	h.repo.release()
	assert.Equal(t, StateRolledBack, waitResult(t, first).State)
	assert.Equal(t, StateCommitted, waitResult(t, second).State)

	got, _ := h.store.Get(7)
	assert.Equal(t, "orig", got.Notes, "failed mutation reverted")
	assert.Equal(t, 5, got.EpisodesWatched, "later mutation kept")

	persisted := h.repo.snapshot()
	require.Len(t, persisted, 1)
	assert.Equal(t, persisted[0].EpisodesWatched, got.EpisodesWatched)
	assert.Equal(t, persisted[0].Notes, got.Notes)
}

func TestCommands_DeleteBeforeCreateCommits(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)
	h.repo.hold()
	ctx := context.Background()

	created := h.cmds.QuickIncrement(ctx, catalogItem(11, "Eleven", 13))
	removed := h.cmds.Remove(ctx, 11)
	assert.Equal(t, 0, h.store.Len())

	h.repo.release()
	assert.Equal(t, StateCommitted, waitResult(t, created).State)
	assert.Equal(t, StateCommitted, waitResult(t, removed).State)

	assert.Equal(t, 0, h.store.Len(), "late create must not resurrect a deleted entry")
	assert.Empty(t, h.repo.snapshot())
	assert.Equal(t, []string{"create", "delete:1"}, h.repo.calls)
}

func TestCommands_UpdateAfterFailedCreateRollsBack(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)
	h.repo.createErrs = []error{errBackendDown}
	h.repo.hold()
	ctx := context.Background()

	created := h.cmds.QuickIncrement(ctx, catalogItem(3, "Three", 10))
	bumped := h.cmds.QuickIncrement(ctx, catalogItem(3, "Three", 10))
	assert.Equal(t, domain.MutationUpdate, bumped.Kind)

	h.repo.release()
	assert.Equal(t, StateRolledBack, waitResult(t, created).State)
	r := waitResult(t, bumped)
	assert.Equal(t, StateRolledBack, r.State)
	assert.ErrorIs(t, r.Err, domain.ErrEntryNotFound)
	assert.Equal(t, 0, h.store.Len())
}

func TestCommands_CreateForListedTitleIncrements(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, domain.ListEntry{
		CatalogID:       42,
		Title:           "X",
		EpisodesTotal:   12,
		EpisodesWatched: 5,
		UserScore:       8,
		Notes:           "favourite",
		Tags:            "rewatch",
		Status:          domain.StatusWatching,
	})

	p := h.cmds.Mutate(context.Background(), domain.Mutation{
		Kind:      domain.MutationCreate,
		CatalogID: 42,
		Entry:     domain.NewEntryFromCatalog(catalogItem(42, "X", 12)),
	})

	assert.Equal(t, domain.MutationUpdate, p.Kind)
	assert.Equal(t, StateCommitted, waitResult(t, p).State)
	assert.Equal(t, 1, h.store.Len())
	assert.Len(t, h.repo.snapshot(), 1)
	assert.NotContains(t, h.repo.calls, "create")

	got, _ := h.store.Get(42)
	assert.Equal(t, 6, got.EpisodesWatched)
	assert.Equal(t, 8, got.UserScore)
	assert.Equal(t, "favourite", got.Notes)
	assert.Equal(t, "rewatch", got.Tags)
	assert.Equal(t, domain.StatusWatching, got.Status)
}

func TestCommands_CreateForListedTitleCapsAtTotal(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, domain.ListEntry{
		CatalogID: 7, Title: "Done", EpisodesTotal: 12, EpisodesWatched: 12, UserScore: 9, Status: domain.StatusCompleted,
	})

	p := h.cmds.Mutate(context.Background(), domain.Mutation{
		Kind:      domain.MutationCreate,
		CatalogID: 7,
		Entry:     domain.NewEntryFromCatalog(catalogItem(7, "Done", 12)),
	})
	assert.Equal(t, StateCommitted, waitResult(t, p).State)

	got, _ := h.store.Get(7)
	assert.Equal(t, 12, got.EpisodesWatched)
	assert.Equal(t, 9, got.UserScore)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestCommands_UpdateUnknownEntry(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)
	p := h.cmds.Mutate(context.Background(), domain.Mutation{
		Kind: domain.MutationUpdate, CatalogID: 1, Patch: domain.EntryPatch{UserScore: domain.Ptr(8)},
	})

	select {
	case <-p.Done():
	default:
		t.Fatal("update of an unknown entry should resolve immediately")
	}
	r := p.Result()
	assert.Equal(t, StateRolledBack, r.State)
	assert.ErrorIs(t, r.Err, domain.ErrEntryNotFound)
	assert.Empty(t, h.repo.calls)
}

func TestCommands_DeleteRollsBackToSamePosition(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false,
		domain.ListEntry{CatalogID: 1, Title: "A", Status: domain.StatusWatching},
		domain.ListEntry{CatalogID: 2, Title: "B", Status: domain.StatusWatching},
		domain.ListEntry{CatalogID: 3, Title: "C", Status: domain.StatusWatching},
	)
	h.repo.deleteErrs = []error{errBackendDown}
	before := h.store.All()

	r := waitResult(t, h.cmds.Remove(context.Background(), 2))
	assert.Equal(t, StateRolledBack, r.State)
	assert.Equal(t, before, h.store.All())
}

func TestCommands_SaveCreatesThenUpdates(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false)
	item := catalogItem(20, "Twenty", 12, "Drama")
	item.Aired = "Jan 7, 2016 to Mar 31, 2016"
	ctx := context.Background()

	form := domain.Form{Status: domain.StatusWatching, EpisodesWatched: 30, UserScore: 8, Notes: "good", Tags: "winter"}
	r := waitResult(t, h.cmds.Save(ctx, item, form))
	require.Equal(t, StateCommitted, r.State)

	got, _ := h.store.Get(20)
	assert.Equal(t, 12, got.EpisodesWatched, "watched clamped to total")
	assert.Equal(t, 2016, got.Year)
	assert.Equal(t, "good", got.Notes)

	form.Status = domain.StatusCompleted
	r = waitResult(t, h.cmds.Save(ctx, item, form))
	require.Equal(t, StateCommitted, r.State)

	got, _ = h.store.Get(20)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 1, h.store.Len())

	notices := h.notices.all()
	require.Len(t, notices, 2)
	assert.Equal(t, "Added to your list!", notices[0].Text)
	assert.Equal(t, "Entry updated!", notices[1].Text)
}

func TestCommands_RefreshOnCommitMatchesBackend(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	ctx := context.Background()

	h.cmds.QuickIncrement(ctx, catalogItem(1, "One", 12))
	h.cmds.QuickIncrement(ctx, catalogItem(2, "Two", 12))
	h.cmds.Wait()

	assert.GreaterOrEqual(t, h.repo.listCalls, 2)

	persisted := h.repo.snapshot()
	require.Len(t, persisted, 2)
	for _, e := range persisted {
		got, ok := h.store.Get(e.CatalogID)
		require.True(t, ok)
		assert.Equal(t, e.ID, got.ID)
		assert.Equal(t, e.EpisodesWatched, got.EpisodesWatched)
	}
}

func TestCommands_RefreshLoadsBackend(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false,
		domain.ListEntry{CatalogID: 1, Title: "A", Status: domain.StatusWatching},
		domain.ListEntry{CatalogID: 2, Title: "B", Status: domain.StatusCompleted},
	)

	assert.Equal(t, 2, h.store.Len())
	a, ok := h.store.Get(1)
	require.True(t, ok)
	assert.NotEmpty(t, a.ID)
}
