// Package cache provides a Redis-backed read-through decorator for the
// load repository. The decorator keeps the hot admin/API read path cheap
// while leaving a store-bypassing path for the convergence consumer, whose
// correctness depends on never trusting a possibly stale cached copy.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/stocklift/picking-orchestrator/internal/core"
	"github.com/stocklift/picking-orchestrator/internal/observability"
)

const defaultTTL = 30 * time.Second

// LoadStoreReader is the system-of-record read the decorator wraps.
type LoadStoreReader interface {
	FindByPickingList(ctx context.Context, tenantID uuid.UUID, listID uuid.UUID) ([]core.Load, error)
}

// RedisCommands is the slice of the go-redis API the decorator uses.
// *redis.Client and redis.UniversalClient both satisfy it.
type RedisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LoadCache decorates a LoadStoreReader with a Redis read-through cache.
//
// A Redis failure never fails the read: the decorator degrades to the
// store and logs a warning.
type LoadCache struct {
	store  LoadStoreReader
	client RedisCommands
	ttl    time.Duration
	logger observability.Logger
}

// CacheOption configures a LoadCache.
type CacheOption func(*LoadCache)

// WithTTL overrides the default expiration of cached entries.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *LoadCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewLoadCache creates the decorator.
func NewLoadCache(store LoadStoreReader, client RedisCommands, logger observability.Logger, options ...CacheOption) *LoadCache {
	cache := &LoadCache{
		store:  store,
		client: client,
		ttl:    defaultTTL,
		logger: logger,
	}

	for _, option := range options {
		option(cache)
	}

	return cache
}

// FindByPickingList serves from Redis when possible, falling back to the
// store and populating the cache on a miss.
func (c *LoadCache) FindByPickingList(ctx context.Context, tenantID uuid.UUID, listID uuid.UUID) ([]core.Load, error) {
	key := cacheKey(tenantID, listID)

	cached, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var loads []core.Load
		if unmarshalErr := jsoniter.ConfigFastest.Unmarshal(cached, &loads); unmarshalErr == nil {
			return loads, nil
		}

		// Unreadable entry, treat as a miss and overwrite below.
		c.logger.Warn("dropping unreadable cache entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed, falling back to store", "key", key, "error", err)
	}

	loads, err := c.store.FindByPickingList(ctx, tenantID, listID)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := jsoniter.ConfigFastest.Marshal(loads); marshalErr == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("cache write failed", "key", key, "error", setErr)
		}
	}

	return loads, nil
}

// FindByPickingListFromStore bypasses the cache entirely and reads the
// system of record. The convergence consumer must use this path: a cached
// copy may not yet reflect the load write that produced the event being
// handled.
func (c *LoadCache) FindByPickingListFromStore(ctx context.Context, tenantID uuid.UUID, listID uuid.UUID) ([]core.Load, error) {
	return c.store.FindByPickingList(ctx, tenantID, listID)
}

// Invalidate removes the cached entry for one picking list.
func (c *LoadCache) Invalidate(ctx context.Context, tenantID uuid.UUID, listID uuid.UUID) error {
	return c.client.Del(ctx, cacheKey(tenantID, listID)).Err()
}

func cacheKey(tenantID uuid.UUID, listID uuid.UUID) string {
	return fmt.Sprintf("picking:loads:%s:%s", tenantID, listID)
}
