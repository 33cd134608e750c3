package latency

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"mikrodesk/internal/api"
	"mikrodesk/internal/logger"
)

// Result holds the outcome of probing one router.
type Result struct {
	Router  *api.Router
	Latency time.Duration
	Err     error
}

// OK reports whether the router answered.
func (r *Result) OK() bool { return r.Err == nil }

// BatchResult holds the outcome of probing several routers.
type BatchResult struct {
	Results   []*Result
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// ProgressFunc is called each time a single probe completes.
type ProgressFunc func(result *Result, current, total int)

type TesterConfig struct {
	Workers  int64
	Timeout  time.Duration
	Strategy Strategy
}

// Tester probes routers concurrently.
type Tester struct {
	config TesterConfig
	log    logrus.FieldLogger
}

// NewTester creates a new Tester. A nil strategy means TCP.
func NewTester(cfg TesterConfig, log logrus.FieldLogger) *Tester {
	if cfg.Workers <= 0 {
		cfg.Workers = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Strategy == nil {
		cfg.Strategy = &TCPStrategy{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Tester{config: cfg, log: log}
}

// ProbeOne probes a single router within the configured timeout.
func (t *Tester) ProbeOne(ctx context.Context, router *api.Router) *Result {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	d, err := t.config.Strategy.Probe(ctx, router)
	entry := t.log.WithFields(logrus.Fields{
		"router":   router.Name,
		"host":     router.Host,
		"strategy": t.config.Strategy.Name(),
	})
	if err != nil {
		entry.WithError(err).Debug("router unreachable")
	} else {
		entry.WithField("latency", d).Debug("router reachable")
	}
	return &Result{Router: router, Latency: d, Err: err}
}

// ProbeAll probes routers through a semaphore bounded worker pool.
// Reachable routers come first, fastest first.
func (t *Tester) ProbeAll(ctx context.Context, routers []*api.Router, progress ProgressFunc) *BatchResult {
	start := time.Now()

	batch := &BatchResult{}
	results := make([]*Result, len(routers))
	var mu sync.Mutex
	var completed int

	sem := semaphore.NewWeighted(t.config.Workers)
	var wg sync.WaitGroup

	for i, r := range routers {
		i, r := i, r
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			res := t.ProbeOne(ctx, r)
			results[i] = res

			mu.Lock()
			completed++
			current := completed
			if res.OK() {
				batch.Succeeded++
			} else {
				batch.Failed++
			}
			mu.Unlock()

			if progress != nil {
				progress(res, current, len(routers))
			}
		}()
	}
	wg.Wait()

	for _, r := range results {
		if r != nil {
			batch.Results = append(batch.Results, r)
		}
	}

	sort.SliceStable(batch.Results, func(i, j int) bool {
		ri, rj := batch.Results[i], batch.Results[j]
		if ri.OK() != rj.OK() {
			return ri.OK()
		}
		return ri.OK() && ri.Latency < rj.Latency
	})

	batch.Duration = time.Since(start)
	return batch
}
