package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	pkgerrors "mikrodesk/pkg/errors"
)

// Key identifies one cached resource for one router connection.
type Key struct {
	Resource     string
	ConnectionID string
}

func (k Key) String() string {
	return k.Resource + "@" + k.ConnectionID
}

// FetchFunc loads a resource for the given connection id.
type FetchFunc func(ctx context.Context, connID string) (interface{}, error)

// Query describes a resource the cache can load and keep fresh.
type Query struct {
	Resource string
	Fetch    FetchFunc
	Interval time.Duration
}

// Entry is the cached state of one key. Data keeps the last good value
// when a later fetch fails.
type Entry struct {
	Data      interface{}
	Err       error
	UpdatedAt time.Time
	Fetching  bool
	Stale     bool
}

// Update is published to subscribers whenever an entry changes.
type Update struct {
	Key   Key
	Entry Entry
}

// IDSource supplies the active connection id. Queries are disabled while
// it returns "".
type IDSource interface {
	ID() string
}

// Cache holds the latest response of every registered query.
type Cache struct {
	ids IDSource
	log logrus.FieldLogger

	mu      sync.RWMutex
	queries map[string]Query
	entries map[Key]*Entry
	flight  singleflight.Group

	subMu  sync.Mutex
	subs   map[int]chan Update
	nextID int
}

// NewCache creates an empty cache bound to ids.
func NewCache(ids IDSource, log logrus.FieldLogger) *Cache {
	return &Cache{
		ids:     ids,
		log:     log,
		queries: make(map[string]Query),
		entries: make(map[Key]*Entry),
		subs:    make(map[int]chan Update),
	}
}

// Register adds or replaces a query.
func (c *Cache) Register(q Query) {
	c.mu.Lock()
	c.queries[q.Resource] = q
	c.mu.Unlock()
}

// Resources returns registered resource names, sorted.
func (c *Cache) Resources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.queries))
	for r := range c.queries {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the registered query for resource.
func (c *Cache) Lookup(resource string) (Query, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.queries[resource]
	return q, ok
}

// Enabled reports whether queries may run, i.e. a connection is held.
func (c *Cache) Enabled() bool {
	return c.ids.ID() != ""
}

// Get returns the entry of resource for the active connection.
func (c *Cache) Get(resource string) (Entry, bool) {
	key := Key{Resource: resource, ConnectionID: c.ids.ID()}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Fetch loads resource for the active connection. Concurrent fetches of the
// same key share one backend call.
func (c *Cache) Fetch(ctx context.Context, resource string) (Entry, error) {
	q, ok := c.Lookup(resource)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", pkgerrors.ErrQueryUnknown, resource)
	}
	connID := c.ids.ID()
	if connID == "" {
		return Entry{}, fmt.Errorf("%w: %w", pkgerrors.ErrQueryDisabled, pkgerrors.ErrNoConnection)
	}
	key := Key{Resource: resource, ConnectionID: connID}

	c.update(key, func(e *Entry) { e.Fetching = true })

	v, err, _ := c.flight.Do(key.String(), func() (interface{}, error) {
		return q.Fetch(ctx, connID)
	})

	entry := c.update(key, func(e *Entry) {
		e.Fetching = false
		e.Err = err
		if err == nil {
			e.Data = v
			e.UpdatedAt = time.Now()
			e.Stale = false
		}
	})
	if err != nil {
		c.log.WithError(err).WithField("resource", resource).Debug("fetch failed")
	}
	return entry, err
}

func (c *Cache) update(key Key, fn func(e *Entry)) Entry {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &Entry{}
		c.entries[key] = e
	}
	fn(e)
	snapshot := *e
	c.mu.Unlock()

	c.publish(Update{Key: key, Entry: snapshot})
	return snapshot
}

// Invalidate marks every entry of resource stale and refetches it for the
// active connection.
func (c *Cache) Invalidate(ctx context.Context, resource string) error {
	c.mu.Lock()
	for k, e := range c.entries {
		if k.Resource == resource {
			e.Stale = true
		}
	}
	c.mu.Unlock()

	if !c.Enabled() {
		return nil
	}
	_, err := c.Fetch(ctx, resource)
	return err
}

// RefreshAll refetches every registered query in parallel. A failing query
// does not cancel the others; all failures are joined.
func (c *Cache) RefreshAll(ctx context.Context) error {
	if !c.Enabled() {
		return fmt.Errorf("%w: %w", pkgerrors.ErrQueryDisabled, pkgerrors.ErrNoConnection)
	}

	resources := c.Resources()
	errs := make([]error, len(resources))
	var g errgroup.Group
	for i, resource := range resources {
		i, resource := i, resource
		g.Go(func() error {
			if _, err := c.Fetch(ctx, resource); err != nil {
				errs[i] = fmt.Errorf("%s: %w", resource, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Reset drops every cached entry, e.g. after the connection changes.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[Key]*Entry)
	c.mu.Unlock()
}

// Subscribe returns a channel of entry updates and a function that cancels
// the subscription. Slow subscribers miss updates rather than block fetches.
func (c *Cache) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Update, buffer)

	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
			close(ch)
		})
	}
}

func (c *Cache) publish(u Update) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- u:
		default:
		}
	}
}
