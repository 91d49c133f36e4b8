package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache stores JSON-encoded values with a TTL. A nil *Cache is a valid no-op
// cache, so callers can skip the nil checks when Redis is not configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// New creates a cache backed by Redis. Returns nil when addr is empty.
func New(addr, password string, ttl time.Duration, log *logrus.Logger) *Cache {
	if addr == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = logrus.New()
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
		log: log,
	}
}

// Get loads the cached value for key into dest. Returns false on miss or
// decode failure.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.log.WithError(err).Warn("Cache read failed")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.WithError(err).Error("Wrong cached value")
		return false
	}
	return true
}

// Set stores value under key with the configured TTL. Best-effort.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.WithError(err).Error("Cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("Cache write failed")
	}
}

// Delete removes a key. Best-effort.
func (c *Cache) Delete(ctx context.Context, key string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.WithError(err).Warn("Cache delete failed")
	}
}

// Close releases the Redis connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
