// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/refresolve/pkg/types"
)

const cachePrefix = "refresolve:validation:"

// Cache stores validation results in Redis across runs. Results expire
// after the configured TTL so a page that changes is eventually re-checked.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a cache backed by client.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// DialCache connects to the Redis server at redisURL
// (e.g. "redis://localhost:6379/0") and verifies it responds.
func DialCache(ctx context.Context, redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewCache(client, ttl), nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error { return c.client.Close() }

// The content match depends on the reference and on the matcher, so the
// key covers the matcher kind, the URL and the reference metadata.
func cacheKey(kind, url string, ref *types.Reference) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write([]byte(ref.Title))
	h.Write([]byte{0})
	h.Write([]byte(ref.Authors))
	return cachePrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached result. Misses and Redis errors both report false.
func (c *Cache) Get(ctx context.Context, kind, url string, ref *types.Reference) (types.ValidationResult, bool) {
	data, err := c.client.Get(ctx, cacheKey(kind, url, ref)).Bytes()
	if err != nil {
		return types.ValidationResult{}, false
	}
	var res types.ValidationResult
	if err := json.Unmarshal(data, &res); err != nil {
		return types.ValidationResult{}, false
	}
	return res, true
}

// Put stores a result. Fetch failures (no HTTP status) are not cached since
// they are usually transient.
func (c *Cache) Put(ctx context.Context, kind, url string, ref *types.Reference, res types.ValidationResult) error {
	if res.StatusCode == 0 {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling validation result: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(kind, url, ref), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching validation result: %w", err)
	}
	return nil
}
