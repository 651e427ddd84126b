package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/platform/obs"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const geocodePrefix = "geocode:"

// RedisGeocodeCache maps normalized addresses to coordinates.
type RedisGeocodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	return &RedisGeocodeCache{client: client, ttl: ttl}
}

// Fetch cached coordinates for the given addresses. Misses are absent from
// the returned map.
func (c *RedisGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if c.client == nil {
		return nil, errors.New("geocode cache: client is nil")
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		uniq = append(uniq, a)
	}

	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	keys := make([]string, 0, len(uniq))
	for _, a := range uniq {
		keys = append(keys, geocodePrefix+a)
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		obs.CacheLookups.WithLabelValues("geocode", "error").Inc()
		return nil, fmt.Errorf("get geocode cache: mget: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			obs.CacheLookups.WithLabelValues("geocode", "miss").Inc()
			continue
		}

		var coord domain.Coordinates
		if err := json.Unmarshal([]byte(s), &coord); err != nil {
			return nil, fmt.Errorf("get geocode cache: decode %q: %w", uniq[i], err)
		}
		obs.CacheLookups.WithLabelValues("geocode", "hit").Inc()
		out[uniq[i]] = coord
	}

	return out, nil
}

// Store address -> coordinate mappings in the cache.
func (c *RedisGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if c.client == nil {
		return errors.New("geocode cache: client is nil")
	}

	if len(results) == 0 {
		return nil
	}

	pipe := c.client.TxPipeline()
	for addr, coord := range results {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}

		raw, err := json.Marshal(coord)
		if err != nil {
			return fmt.Errorf("insert geocode cache coord=%q: %w", addr, err)
		}
		pipe.Set(ctx, geocodePrefix+addr, raw, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode cache exec: %w", err)
	}
	return nil
}
