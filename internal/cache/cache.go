// Package cache holds a short-lived read-through cache for per-owner history
// fetches. Correctness never depends on it: every mutation invalidates the
// owner's entry, and a miss simply falls through to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/pneumoscan/pneumoscan/internal/domain/record"
	"github.com/pneumoscan/pneumoscan/internal/tenant"
)

// ErrMiss signals that the key is absent.
var ErrMiss = errors.New("cache miss")

// KVStore abstracts the key-value backend so tests can swap Redis for a fake.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// HistoryCache caches the full descending record list per owner. A nil
// *HistoryCache is valid and disables caching entirely.
type HistoryCache struct {
	kv  KVStore
	ttl time.Duration
	log *zap.Logger
}

func NewHistoryCache(kv KVStore, ttl time.Duration, log *zap.Logger) *HistoryCache {
	return &HistoryCache{kv: kv, ttl: ttl, log: log}
}

func key(owner tenant.Owner) string {
	return "pneumoscan:history:" + owner.String()
}

// Get returns the cached list for the owner, or ok=false on miss or backend
// trouble. Backend errors are logged, never surfaced.
func (c *HistoryCache) Get(ctx context.Context, owner tenant.Owner) ([]*record.ScanRecord, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.kv.Get(ctx, key(owner))
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.Warn("history cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var records []*record.ScanRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		c.log.Warn("history cache entry corrupt, dropping", zap.Error(err))
		_ = c.kv.Del(ctx, key(owner))
		return nil, false
	}
	// The owner column is excluded from JSON; restore it from the cache key.
	for _, r := range records {
		r.Owner = owner.String()
	}
	return records, true
}

// Set stores the list for the owner. Best effort.
func (c *HistoryCache) Set(ctx context.Context, owner tenant.Owner, records []*record.ScanRecord) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := c.kv.Set(ctx, key(owner), string(raw), c.ttl); err != nil {
		c.log.Warn("history cache write failed", zap.Error(err))
	}
}

// Invalidate drops the owner's entry. Called after every mutation.
func (c *HistoryCache) Invalidate(ctx context.Context, owner tenant.Owner) {
	if c == nil {
		return
	}
	if err := c.kv.Del(ctx, key(owner)); err != nil {
		c.log.Warn("history cache invalidation failed", zap.Error(err))
	}
}
