package querycache

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// ErrStale is returned by Fetch when the context changed or the scope was cleared while the
// fetch was in flight. The response is dropped, never stored.
var ErrStale = errors.New("query result fetched under a superseded context")

type Fetcher func(ctx context.Context) ([]byte, error)

type inflight struct {
	key     string
	scope   Scope
	cancel  context.CancelFunc
	dropped bool
}

// Cache is safe for concurrent use. Writes and clears are serialized, so a clear returns only
// after every in-flight fetch of its scope has been cancelled and every stored entry removed.
type Cache struct {
	backend   Backend
	partition *Partition
	now       func() time.Time

	mu       sync.Mutex
	stamp    string
	nextID   uint64
	inflight map[uint64]*inflight
}

func New(backend Backend, partition *Partition) *Cache {
	if partition == nil {
		partition = DefaultPartition()
	}
	return &Cache{
		backend:   backend,
		partition: partition,
		now:       time.Now,
		inflight:  map[uint64]*inflight{},
	}
}

func (c *Cache) Partition() *Partition {
	return c.partition
}

// SetContext sets the token tenant-scoped entries are stamped with and checked against.
func (c *Cache) SetContext(stamp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stamp = stamp
}

func (c *Cache) Context() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stamp
}

func (c *Cache) stampFor(scope Scope) string {
	if scope == ScopePlatform {
		return ""
	}
	return c.stamp
}

// Get returns a stored value only if it was fetched under the active context.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	scope := c.partition.ScopeOf(key)
	c.mu.Lock()
	want := c.stampFor(scope)
	c.mu.Unlock()

	e, ok, err := c.backend.Get(ctx, scope, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if e.Scope != scope || e.Stamp != want {
		return nil, false, nil
	}
	return e.Value, true, nil
}

// Fetch returns the cached value for key or runs fetch and stores its result.
func (c *Cache) Fetch(ctx context.Context, key string, fetch Fetcher) ([]byte, error) {
	if v, ok, err := c.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return v, nil
	}

	scope := c.partition.ScopeOf(key)
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	stamp := c.stampFor(scope)
	c.nextID++
	id := c.nextID
	rec := &inflight{key: key, scope: scope, cancel: cancel}
	c.inflight[id] = rec
	c.mu.Unlock()

	value, err := fetch(fctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, id)
	if rec.dropped || c.stampFor(scope) != stamp {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	if err := c.backend.Set(ctx, Entry{
		Key:       key,
		Scope:     scope,
		Stamp:     stamp,
		Value:     value,
		FetchedAt: c.now(),
	}); err != nil {
		return nil, errors.Wrap(err, "failed to store query result")
	}
	return value, nil
}

func (c *Cache) ClearTenantScoped(ctx context.Context) (int, error) {
	return c.clear(ctx, ScopeTenant)
}

func (c *Cache) ClearPlatformScoped(ctx context.Context) (int, error) {
	return c.clear(ctx, ScopePlatform)
}

func (c *Cache) clear(ctx context.Context, scope Scope) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.inflight {
		if rec.scope == scope {
			rec.dropped = true
			rec.cancel()
		}
	}
	n, err := c.backend.DeleteScope(ctx, scope)
	if err != nil {
		return n, errors.Wrapf(err, "failed to clear %s-scoped entries", scope)
	}
	return n, nil
}

// Invalidate drops one key and any in-flight fetch of it so the next read refetches.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	scope := c.partition.ScopeOf(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.inflight {
		if rec.key == key {
			rec.dropped = true
			rec.cancel()
		}
	}
	return c.backend.Delete(ctx, scope, key)
}
