package latency

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikrodesk/internal/api"
)

func listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return ln.Addr().String()
}

// closedAddr returns an address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "10.0.0.1:8728", address("10.0.0.1", APIPort))
	assert.Equal(t, "10.0.0.1:9000", address("10.0.0.1:9000", APIPort))
	assert.Equal(t, "[fe80::1]:8728", address("fe80::1", APIPort))
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy("")
	require.NoError(t, err)
	assert.Equal(t, "tcp", s.Name())

	s, err = NewStrategy("http")
	require.NoError(t, err)
	assert.Equal(t, "http", s.Name())

	_, err = NewStrategy("icmp")
	assert.Error(t, err)
}

func TestTCPStrategy(t *testing.T) {
	s := &TCPStrategy{}

	_, err := s.Probe(context.Background(), &api.Router{Host: listen(t)})
	assert.NoError(t, err)

	_, err = s.Probe(context.Background(), &api.Router{Host: closedAddr(t)})
	assert.Error(t, err)
}

func TestHTTPStrategy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	}))
	defer srv.Close()

	s := NewHTTPStrategy()
	_, err := s.Probe(context.Background(), &api.Router{Host: strings.TrimPrefix(srv.URL, "http://")})
	assert.NoError(t, err)
}

type fakeStrategy struct {
	delays map[string]time.Duration
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) Probe(ctx context.Context, r *api.Router) (time.Duration, error) {
	d, ok := f.delays[r.Name]
	if !ok {
		return 0, assert.AnError
	}
	return d, nil
}

func TestProbeAllSortsAndCounts(t *testing.T) {
	tester := NewTester(TesterConfig{
		Workers: 2,
		Strategy: &fakeStrategy{delays: map[string]time.Duration{
			"slow": 80 * time.Millisecond,
			"fast": 5 * time.Millisecond,
		}},
	}, nil)

	routers := []*api.Router{{Name: "down"}, {Name: "slow"}, {Name: "fast"}}

	var mu sync.Mutex
	var seen []int
	batch := tester.ProbeAll(context.Background(), routers, func(res *Result, current, total int) {
		mu.Lock()
		seen = append(seen, current)
		mu.Unlock()
		assert.Equal(t, 3, total)
	})

	require.Len(t, batch.Results, 3)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, "fast", batch.Results[0].Router.Name)
	assert.Equal(t, "slow", batch.Results[1].Router.Name)
	assert.Equal(t, "down", batch.Results[2].Router.Name)
	assert.False(t, batch.Results[2].OK())
	assert.ElementsMatch(t, []int{1, 2, 3}, seen)
}

func TestProbeOneTimeout(t *testing.T) {
	blocking := strategyFunc(func(ctx context.Context, r *api.Router) (time.Duration, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	tester := NewTester(TesterConfig{Timeout: 20 * time.Millisecond, Strategy: blocking}, nil)

	res := tester.ProbeOne(context.Background(), &api.Router{Name: "r1"})
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

type strategyFunc func(ctx context.Context, r *api.Router) (time.Duration, error)

func (f strategyFunc) Name() string { return "func" }

func (f strategyFunc) Probe(ctx context.Context, r *api.Router) (time.Duration, error) {
	return f(ctx, r)
}
