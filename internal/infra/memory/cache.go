package memory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-studio/internal/persist"
)

// CachedStore fronts a slower persist.Store (Redis, disk) with a TTL read
// cache. Writes go through to the backend and refresh the cache; concurrent
// misses for one key share a single backend read.
type CachedStore struct {
	backend persist.Store
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedValue
}

type cachedValue struct {
	value     string
	missing   bool
	expiresAt time.Time
}

func NewCachedStore(backend persist.Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		backend: backend,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedValue),
	}
}

func (c *CachedStore) Get(ctx context.Context, key string) (string, error) {
	if v, ok := c.lookup(key, c.clock()); ok {
		return v.result()
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		if v, ok := c.lookup(key, now); ok {
			return v, nil
		}

		value, err := c.backend.Get(ctx, key)
		switch {
		case errors.Is(err, persist.ErrNotFound):
			v := cachedValue{missing: true}
			c.store(key, v, now)
			return v, nil
		case err != nil:
			return cachedValue{}, err
		}
		v := cachedValue{value: value}
		c.store(key, v, now)
		return v, nil
	})
	if err != nil {
		return "", err
	}
	return result.(cachedValue).result()
}

func (c *CachedStore) Set(ctx context.Context, key, value string) error {
	if err := c.backend.Set(ctx, key, value); err != nil {
		c.invalidate(key)
		return err
	}
	c.store(key, cachedValue{value: value}, c.clock())
	return nil
}

func (c *CachedStore) Remove(ctx context.Context, key string) error {
	c.invalidate(key)
	return c.backend.Remove(ctx, key)
}

func (c *CachedStore) lookup(key string, now time.Time) (cachedValue, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.cache[key]
	if !ok || !v.expiresAt.After(now) {
		return cachedValue{}, false
	}
	return v, true
}

func (c *CachedStore) store(key string, v cachedValue, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v.expiresAt = now.Add(c.ttlWithJitter())
	c.cache[key] = v
}

func (c *CachedStore) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, key)
}

// ttlWithJitter must be called with mu held; rand.Rand is not safe for
// concurrent use.
func (c *CachedStore) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func (v cachedValue) result() (string, error) {
	if v.missing {
		return "", persist.ErrNotFound
	}
	return v.value, nil
}
