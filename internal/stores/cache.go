package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores serialized settings in Redis with a TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(storeID int64) string {
	return fmt.Sprintf("stores:settings:%d", storeID)
}

// Get returns the cached settings, or nil on a miss.
func (c *Cache) Get(ctx context.Context, storeID int64) (*Settings, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, cacheKey(storeID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, nil
	}
	return &s, nil
}

// Set writes the settings with the configured TTL.
func (c *Cache) Set(ctx context.Context, s *Settings) error {
	if c == nil || c.client == nil || s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(s.StoreID), raw, c.ttl).Err()
}

// Invalidate drops the cached entry after a settings write.
func (c *Cache) Invalidate(ctx context.Context, storeID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey(storeID)).Err()
}
