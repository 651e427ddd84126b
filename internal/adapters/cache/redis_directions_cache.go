package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"heritage-route-service/internal/platform/obs"
	"heritage-route-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

const directionsPrefix = "directions:"

// RedisDirectionsCache memoizes walking directions by waypoint chain key.
// Entries expire after the configured TTL.
type RedisDirectionsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDirectionsCache(client *redis.Client, ttl time.Duration) *RedisDirectionsCache {
	return &RedisDirectionsCache{client: client, ttl: ttl}
}

// Get returns the cached directions for key. The bool is false on a miss.
func (c *RedisDirectionsCache) Get(ctx context.Context, key string) (_ ports.Directions, _ bool, err error) {
	defer obs.Time(ctx, "directions.cache.Get")(&err)

	if c.client == nil {
		return ports.Directions{}, false, errors.New("directions cache: client is nil")
	}

	raw, err := c.client.Get(ctx, directionsPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		obs.CacheLookups.WithLabelValues("directions", "miss").Inc()
		return ports.Directions{}, false, nil
	}
	if err != nil {
		obs.CacheLookups.WithLabelValues("directions", "error").Inc()
		return ports.Directions{}, false, fmt.Errorf("get directions cache key=%q: %w", key, err)
	}

	var d ports.Directions
	if err := json.Unmarshal(raw, &d); err != nil {
		obs.CacheLookups.WithLabelValues("directions", "error").Inc()
		return ports.Directions{}, false, fmt.Errorf("get directions cache: decode key=%q: %w", key, err)
	}

	obs.CacheLookups.WithLabelValues("directions", "hit").Inc()
	return d, true, nil
}

func (c *RedisDirectionsCache) Put(ctx context.Context, key string, d ports.Directions) error {
	if c.client == nil {
		return errors.New("directions cache: client is nil")
	}
	if key == "" {
		return errors.New("put directions cache: empty key")
	}

	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("put directions cache: encode: %w", err)
	}
	if err := c.client.Set(ctx, directionsPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("put directions cache key=%q: %w", key, err)
	}
	return nil
}
