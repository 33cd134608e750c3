package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikrodesk/internal/logger"
	pkgerrors "mikrodesk/pkg/errors"
)

type staticID struct {
	mu sync.Mutex
	id string
}

func (s *staticID) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *staticID) set(id string) {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

func counting(calls *int64, v interface{}, err error) FetchFunc {
	return func(ctx context.Context, connID string) (interface{}, error) {
		atomic.AddInt64(calls, 1)
		return v, err
	}
}

func TestFetchDisabledWithoutConnection(t *testing.T) {
	ids := &staticID{}
	c := NewCache(ids, logger.Discard())
	var calls int64
	c.Register(Query{Resource: "status", Fetch: counting(&calls, 1, nil), Interval: time.Second})

	_, err := c.Fetch(context.Background(), "status")
	assert.ErrorIs(t, err, pkgerrors.ErrQueryDisabled)
	assert.ErrorIs(t, err, pkgerrors.ErrNoConnection)
	assert.Zero(t, atomic.LoadInt64(&calls))

	err = c.RefreshAll(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrNoConnection)
	assert.Zero(t, atomic.LoadInt64(&calls))
}

func TestFetchUnknown(t *testing.T) {
	c := NewCache(&staticID{id: "c1"}, logger.Discard())
	_, err := c.Fetch(context.Background(), "nope")
	assert.ErrorIs(t, err, pkgerrors.ErrQueryUnknown)
}

func TestFetchKeepsDataOnError(t *testing.T) {
	c := NewCache(&staticID{id: "c1"}, logger.Discard())
	fail := false
	c.Register(Query{Resource: "logs", Fetch: func(ctx context.Context, connID string) (interface{}, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return "payload-" + connID, nil
	}})

	e, err := c.Fetch(context.Background(), "logs")
	require.NoError(t, err)
	assert.Equal(t, "payload-c1", e.Data)
	assert.False(t, e.Fetching)

	fail = true
	e, err = c.Fetch(context.Background(), "logs")
	require.Error(t, err)
	assert.Equal(t, "payload-c1", e.Data)
	assert.EqualError(t, e.Err, "boom")
}

func TestFetchDeduplicatesInFlight(t *testing.T) {
	c := NewCache(&staticID{id: "c1"}, logger.Discard())
	var calls int64
	release := make(chan struct{})
	c.Register(Query{Resource: "traffic", Fetch: func(ctx context.Context, connID string) (interface{}, error) {
		atomic.AddInt64(&calls, 1)
		<-release
		return 42, nil
	}})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := c.Fetch(context.Background(), "traffic")
			assert.NoError(t, err)
			assert.Equal(t, 42, e.Data)
		}()
	}
	// Give the goroutines time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestEntriesAreScopedByConnection(t *testing.T) {
	ids := &staticID{id: "a"}
	c := NewCache(ids, logger.Discard())
	c.Register(Query{Resource: "status", Fetch: func(ctx context.Context, connID string) (interface{}, error) {
		return connID, nil
	}})

	_, err := c.Fetch(context.Background(), "status")
	require.NoError(t, err)

	ids.set("b")
	_, ok := c.Get("status")
	assert.False(t, ok, "entry of connection a must not leak into b")

	ids.set("a")
	e, ok := c.Get("status")
	require.True(t, ok)
	assert.Equal(t, "a", e.Data)

	c.Reset()
	_, ok = c.Get("status")
	assert.False(t, ok)
}

func TestRefreshAllRunsEveryQuery(t *testing.T) {
	c := NewCache(&staticID{id: "c1"}, logger.Discard())
	var a, b, d int64
	c.Register(Query{Resource: "a", Fetch: counting(&a, 1, nil)})
	c.Register(Query{Resource: "b", Fetch: counting(&b, nil, errors.New("down"))})
	c.Register(Query{Resource: "d", Fetch: counting(&d, 3, nil)})

	err := c.RefreshAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: down")
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(1), b)
	assert.Equal(t, int64(1), d, "failure of b must not cancel d")

	e, ok := c.Get("d")
	require.True(t, ok)
	assert.Equal(t, 3, e.Data)
}

func TestInvalidateRefetches(t *testing.T) {
	c := NewCache(&staticID{id: "c1"}, logger.Discard())
	var calls int64
	c.Register(Query{Resource: "profiles", Fetch: counting(&calls, "p", nil)})

	_, err := c.Fetch(context.Background(), "profiles")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(context.Background(), "profiles"))
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))

	e, _ := c.Get("profiles")
	assert.False(t, e.Stale)
}

func TestSubscribe(t *testing.T) {
	c := NewCache(&staticID{id: "c1"}, logger.Discard())
	c.Register(Query{Resource: "status", Fetch: func(ctx context.Context, connID string) (interface{}, error) {
		return "ok", nil
	}})

	updates, cancel := c.Subscribe(8)
	_, err := c.Fetch(context.Background(), "status")
	require.NoError(t, err)

	first := <-updates
	assert.True(t, first.Entry.Fetching)
	second := <-updates
	assert.Equal(t, "ok", second.Entry.Data)
	assert.Equal(t, Key{Resource: "status", ConnectionID: "c1"}, second.Key)

	cancel()
	cancel()
	_, open := <-updates
	assert.False(t, open)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, 0},
		{1, 0},
		{2, 5 * time.Second},
		{3, 10 * time.Second},
		{4, 20 * time.Second},
		{10, time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(5*time.Second, tt.failures, time.Minute), "failures=%d", tt.failures)
	}
}

func TestTickBacksOff(t *testing.T) {
	c := NewCache(&staticID{id: "c1"}, logger.Discard())
	var calls int64
	c.Register(Query{Resource: "status", Fetch: counting(&calls, nil, errors.New("down")), Interval: 5 * time.Second})

	var reported []string
	p, err := NewPoller(c, PollerConfig{
		MaxBackoff: time.Minute,
		OnError:    func(resource string, err error) { reported = append(reported, resource) },
	}, logger.Discard())
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }
	ctx := context.Background()

	p.tick(ctx, "status") // failure 1, retry next tick
	p.tick(ctx, "status") // failure 2, pause 5s
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))

	p.tick(ctx, "status") // still paused
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))

	now = now.Add(6 * time.Second)
	p.tick(ctx, "status")
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
	assert.Equal(t, 3, p.Failures("status"))
	assert.Equal(t, []string{"status", "status", "status"}, reported)
}

func TestPollerRunsJobs(t *testing.T) {
	c := NewCache(&staticID{id: "c1"}, logger.Discard())
	var calls int64
	c.Register(Query{Resource: "status", Fetch: counting(&calls, 1, nil), Interval: 20 * time.Millisecond})

	p, err := NewPoller(c, PollerConfig{Stagger: 50 * time.Millisecond}, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()))

	assert.Eventually(t, func() bool { return atomic.LoadInt64(&calls) >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
}
