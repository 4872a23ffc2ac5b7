package catalog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// entry wraps a cached Model with the TTL bookkeeping needed to serve it
// stale for up to one additional TTL window while a refresh is underway,
// per spec §5's read-through/stale-while-revalidate cache contract.
type entry struct {
	model     *Model
	expiresAt time.Time
}

func (e entry) fresh(now time.Time) bool      { return now.Before(e.expiresAt) }
func (e entry) withinStaleWindow(now time.Time, ttl time.Duration) bool {
	return now.Before(e.expiresAt.Add(ttl))
}

// modelCache is a read-through TTL cache in front of the store, adapted
// from db/repository/redis.go's SetCache/GetCache pair: an in-process LRU
// tier (hashicorp/golang-lru/v2) backs every instance, with an optional
// Redis tier shared across instances for multi-replica deployments.
type modelCache struct {
	mu    sync.RWMutex
	lru   *lru.Cache[string, entry]
	ttl   time.Duration
	redis *redis.Client // nil when disabled
}

func newModelCache(maxEntries int, ttl time.Duration, redisClient *redis.Client) (*modelCache, error) {
	l, err := lru.New[string, entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &modelCache{lru: l, ttl: ttl, redis: redisClient}, nil
}

// get returns a cached model for dtmi. ok is true when a usable (fresh or
// within-stale-window) entry was found; stale reports whether the caller
// should trigger a background refresh even though it got a usable value.
func (c *modelCache) get(ctx context.Context, dtmi string) (model *Model, ok bool, stale bool) {
	now := time.Now()

	c.mu.RLock()
	e, found := c.lru.Get(dtmi)
	c.mu.RUnlock()

	if found {
		if e.fresh(now) {
			return e.model, true, false
		}
		if e.withinStaleWindow(now, c.ttl) {
			return e.model, true, true
		}
	}

	if c.redis == nil {
		return nil, false, false
	}
	raw, err := c.redis.Get(ctx, redisCacheKey(dtmi)).Bytes()
	if err != nil {
		return nil, false, false
	}
	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, false
	}
	c.put(dtmi, &m)
	return &m, true, false
}

func (c *modelCache) put(dtmi string, model *Model) {
	c.mu.Lock()
	c.lru.Add(dtmi, entry{model: model, expiresAt: time.Now().Add(c.ttl)})
	c.mu.Unlock()

	if c.redis == nil {
		return
	}
	if raw, err := json.Marshal(model); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.redis.Set(ctx, redisCacheKey(dtmi), raw, c.ttl*2).Err()
	}
}

func (c *modelCache) invalidate(dtmi string) {
	c.mu.Lock()
	c.lru.Remove(dtmi)
	c.mu.Unlock()

	if c.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = c.redis.Del(ctx, redisCacheKey(dtmi)).Err()
}

func redisCacheKey(dtmi string) string {
	return "catalog:model:" + dtmi
}
