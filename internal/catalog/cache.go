package catalog

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/common/metrics"
	"matchpet-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const managersKey = "managers:all"

type managerReader interface {
	ListManagers(ctx context.Context) ([]*models.Manager, error)
}

// CachedStore is a cache-aside layer over the manager list. Senior profiles are
// not cached: consent and address must be read fresh on every request.
// Redis failures degrade to the underlying store.
type CachedStore struct {
	managers   managerReader
	redis      *redis.Client
	managerTTL time.Duration
	logger     logger.Logger
}

func NewCachedStore(managers managerReader, rdb *redis.Client, managerTTL time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		managers:   managers,
		redis:      rdb,
		managerTTL: managerTTL,
		logger:     log.WithFields(map[string]interface{}{"component": "catalog.cache"}),
	}
}

func (c *CachedStore) ListManagers(ctx context.Context) ([]*models.Manager, error) {
	var cached []*models.Manager
	if c.lookup(ctx, "managers", managersKey, &cached) {
		return cached, nil
	}

	managers, err := c.managers.ListManagers(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, managersKey, managers, c.managerTTL)
	return managers, nil
}

func (c *CachedStore) lookup(ctx context.Context, kind, key string, dst interface{}) bool {
	val, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(val, dst); jsonErr != nil {
			c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{"key": key, "error": jsonErr})
			metrics.CacheLookups.WithLabelValues(kind, "corrupt").Inc()
			return false
		}
		metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
		return true
	case stderrors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
	default:
		c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err})
		metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
	}
	return false
}

func (c *CachedStore) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err})
	}
}
