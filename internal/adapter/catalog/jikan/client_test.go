package jikan

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/kanshi/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(baseURL string, minInterval, retryDelay time.Duration) *Client {
	return NewClient(Config{
		BaseURL:     baseURL,
		MinInterval: minInterval,
		RetryDelay:  retryDelay,
		PageLimit:   24,
		SFW:         true,
	}, nil, newTestLogger())
}

const searchBody = `{
	"pagination": {"last_visible_page": 1, "has_next_page": false},
	"data": [
		{
			"mal_id": 5114,
			"title": "Fullmetal Alchemist: Brotherhood",
			"type": "TV",
			"episodes": 64,
			"score": 9.1,
			"synopsis": "Two brothers.",
			"year": 2009,
			"images": {"jpg": {"image_url": "https://cdn.example/s.jpg", "large_image_url": "https://cdn.example/l.jpg"}},
			"aired": {"string": "Apr 5, 2009 to Jul 4, 2010"},
			"genres": [{"mal_id": 1, "name": "Action"}, {"mal_id": 8, "name": "Drama"}],
			"studios": [{"mal_id": 4, "name": "Bones"}]
		},
		{
			"mal_id": 52991,
			"title": "Sousou no Frieren",
			"type": "TV",
			"episodes": null,
			"score": null,
			"images": {"jpg": {"image_url": "https://cdn.example/f.jpg"}},
			"aired": {"string": ""},
			"year": 2023,
			"genres": [],
			"studios": []
		}
	]
}`

func TestClient_Search_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/anime", r.URL.Path)
		assert.Equal(t, "fullmetal", r.URL.Query().Get("q"))
		assert.Equal(t, "24", r.URL.Query().Get("limit"))
		assert.Equal(t, "true", r.URL.Query().Get("sfw"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL, time.Millisecond, 0).Search(context.Background(), "fullmetal")
	require.NoError(t, err)
	require.Len(t, items, 2)

	fma := items[0]
	assert.Equal(t, 5114, fma.ID)
	assert.Equal(t, "https://cdn.example/l.jpg", fma.ImageURL)
	assert.Equal(t, 64, fma.Episodes)
	assert.InDelta(t, 9.1, fma.Score, 0.001)
	assert.Equal(t, []string{"Action", "Drama"}, fma.Genres)
	assert.Equal(t, []string{"Bones"}, fma.Studios)
	assert.Equal(t, "Apr 5, 2009 to Jul 4, 2010", fma.Aired)

	frieren := items[1]
	assert.Equal(t, 0, frieren.Episodes)
	assert.Equal(t, 0.0, frieren.Score)
	assert.Equal(t, "https://cdn.example/f.jpg", frieren.ImageURL)
	assert.Equal(t, "2023", frieren.Aired)
	assert.Empty(t, frieren.Genres)
}

func TestClient_FeedEndpoints(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.RequestURI())
		mu.Unlock()
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Millisecond, 0)
	ctx := context.Background()
	_, err := c.TopAiring(ctx)
	require.NoError(t, err)
	_, err = c.Top(ctx)
	require.NoError(t, err)
	_, err = c.SeasonNow(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/top/anime?filter=airing&limit=24&sfw=true",
		"/top/anime?limit=24&sfw=true",
		"/seasons/now?limit=24&sfw=true",
	}, seen)
}

func TestClient_RetriesOnceOnThrottle(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL, time.Millisecond, 10*time.Millisecond).TopAiring(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_RetryWaitsFixedBackoff(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	clock := clockwork.NewFakeClockAt(gateEpoch)
	c := NewClient(Config{BaseURL: srv.URL}, clock, newTestLogger())
	require.Equal(t, DefaultRetryDelay, c.cfg.RetryDelay)
	require.Equal(t, DefaultMinInterval, c.cfg.MinInterval, "the gate is never disabled")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		items []domain.CatalogItem
		err   error
	}
	done := make(chan result, 1)
	go func() {
		items, err := c.TopAiring(ctx)
		done <- result{items, err}
	}()

	// Parked on the backoff timer after the 429
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(DefaultRetryDelay - time.Millisecond)
	assert.Never(t, func() bool { return calls.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond,
		"retried before the backoff elapsed")

	clock.Advance(time.Millisecond)
	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Len(t, r.items, 2)
	case <-ctx.Done():
		t.Fatal("retry did not run after the backoff")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_SecondThrottleIsTerminal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Millisecond, 10*time.Millisecond).TopAiring(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(2), calls.Load(), "no third request after the retry")
}

func TestClient_OtherStatusNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Millisecond, 10*time.Millisecond).SeasonNow(context.Background())
	require.Error(t, err)

	var se *domain.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.NotErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, time.Millisecond, 0).Top(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestClient_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Millisecond, 0).Top(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestClient_ConcurrentCallsShareGate(t *testing.T) {
	t.Parallel()

	const interval = 60 * time.Millisecond

	var mu sync.Mutex
	var starts []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, interval, 0)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.TopAiring(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, starts, 3)
	// Arrival jitter on loopback is well under the slack allowed here
	assert.GreaterOrEqual(t, starts[2].Sub(starts[0]), 2*interval-20*time.Millisecond)
}

func TestClient_RetryPassesThroughGate(t *testing.T) {
	t.Parallel()

	const interval = 80 * time.Millisecond

	var mu sync.Mutex
	var starts []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		starts = append(starts, time.Now())
		n := len(starts)
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, interval, 0).Top(context.Background())
	require.NoError(t, err)
	require.Len(t, starts, 2)
	assert.GreaterOrEqual(t, starts[1].Sub(starts[0]), interval-20*time.Millisecond)
}
