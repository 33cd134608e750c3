package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// PollerConfig controls scheduling of background refreshes.
type PollerConfig struct {
	// Stagger spaces out the first run of each job.
	Stagger time.Duration
	// MaxBackoff caps the pause after repeated failures.
	MaxBackoff time.Duration
	// OnError is called for every failed poll. It may be nil.
	OnError func(resource string, err error)
}

// Poller refreshes every registered query on its own interval.
type Poller struct {
	cache     *Cache
	scheduler gocron.Scheduler
	cfg       PollerConfig
	log       logrus.FieldLogger
	now       func() time.Time

	mu       sync.Mutex
	failures map[string]int
	resumeAt map[string]time.Time
	running  bool
}

// NewPoller creates a poller for cache. Jobs are added by Start.
func NewPoller(cache *Cache, cfg PollerConfig, log logrus.FieldLogger) (*Poller, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Poller{
		cache:     cache,
		scheduler: scheduler,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		failures:  make(map[string]int),
		resumeAt:  make(map[string]time.Time),
	}, nil
}

// Start schedules one job per registered query and starts the scheduler.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("poller is already running")
	}

	for i, resource := range p.cache.Resources() {
		q, _ := p.cache.Lookup(resource)
		if q.Interval <= 0 {
			continue
		}

		start := gocron.WithStartImmediately()
		if p.cfg.Stagger > 0 {
			start = gocron.WithStartDateTime(time.Now().Add(time.Duration(i+1) * p.cfg.Stagger))
		}

		_, err := p.scheduler.NewJob(
			gocron.DurationJob(q.Interval),
			gocron.NewTask(func() {
				p.tick(ctx, resource)
			}),
			gocron.WithName(resource),
			gocron.WithStartAt(start),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", resource, err)
		}
	}

	p.scheduler.Start()
	p.running = true
	return nil
}

// Stop shuts the scheduler down and waits for running jobs.
func (p *Poller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil
	}
	if err := p.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop poller: %w", err)
	}
	p.running = false
	return nil
}

// tick runs one poll of resource unless it is disabled or backing off.
func (p *Poller) tick(ctx context.Context, resource string) {
	if !p.cache.Enabled() || ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	resume := p.resumeAt[resource]
	p.mu.Unlock()
	if p.now().Before(resume) {
		return
	}

	_, err := p.cache.Fetch(ctx, resource)

	p.mu.Lock()
	if err == nil {
		if p.failures[resource] > 0 {
			p.log.WithField("resource", resource).Info("poll recovered")
		}
		delete(p.failures, resource)
		delete(p.resumeAt, resource)
		p.mu.Unlock()
		return
	}
	p.failures[resource]++
	n := p.failures[resource]
	q, _ := p.cache.Lookup(resource)
	pause := Backoff(q.Interval, n, p.cfg.MaxBackoff)
	if pause > 0 {
		p.resumeAt[resource] = p.now().Add(pause)
	}
	p.mu.Unlock()

	p.log.WithError(err).WithFields(logrus.Fields{
		"resource": resource,
		"failures": n,
		"pause":    pause,
	}).Warn("poll failed")
	if p.cfg.OnError != nil {
		p.cfg.OnError(resource, err)
	}
}

// Failures returns the consecutive failure count of resource.
func (p *Poller) Failures(resource string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures[resource]
}

// Backoff is the extra pause after the given number of consecutive
// failures. The first failure retries on the next tick; each further one
// doubles the pause, capped at max.
func Backoff(interval time.Duration, failures int, max time.Duration) time.Duration {
	if failures <= 1 || interval <= 0 {
		return 0
	}
	pause := interval
	for i := 2; i < failures; i++ {
		pause *= 2
		if max > 0 && pause >= max {
			return max
		}
	}
	if max > 0 && pause > max {
		return max
	}
	return pause
}
