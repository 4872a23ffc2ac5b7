package catalog

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/evalgo/digitaltwins/internal/store"
)

// Catalog is the model catalog for one graph. It holds a reference to the
// shared store.Adapter (stateless apart from its pool, per C1) plus its
// own read-through cache.
type Catalog struct {
	store *store.Adapter
	graph string
	cache *modelCache
	log   *logrus.Entry
}

// Config configures cache sizing for a Catalog.
type Config struct {
	CacheTTL        time.Duration
	CacheMaxEntries int
	RedisClient     *redis.Client // nil disables the shared cache tier
}

// New constructs a Catalog over adapter for the given graph name.
func New(adapter *store.Adapter, graph string, cfg Config, log *logrus.Entry) (*Catalog, error) {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.CacheMaxEntries <= 0 {
		cfg.CacheMaxEntries = 2048
	}
	cache, err := newModelCache(cfg.CacheMaxEntries, cfg.CacheTTL, cfg.RedisClient)
	if err != nil {
		return nil, err
	}
	return &Catalog{store: adapter, graph: graph, cache: cache, log: log}, nil
}
