package cache

import (
	"context"
	"heritage-route-service/internal/domain"
	"heritage-route-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestDirectionsCacheRoundTrip(t *testing.T) {
	_, client := newRedis(t)
	c := NewRedisDirectionsCache(client, time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "chain-a")
	require.NoError(t, err)
	assert.False(t, ok)

	want := ports.Directions{
		Polyline:        []domain.Coordinates{{Lat: 41.0058, Lon: 28.9768}, {Lat: 41.0086, Lon: 28.9802}},
		DistanceMeters:  430.5,
		DurationSeconds: 310,
	}
	require.NoError(t, c.Put(ctx, "chain-a", want))

	got, ok, err := c.Get(ctx, "chain-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestDirectionsCacheExpires(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisDirectionsCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "chain-a", ports.Directions{DistanceMeters: 1}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "chain-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirectionsCacheRejectsEmptyKey(t *testing.T) {
	_, client := newRedis(t)
	c := NewRedisDirectionsCache(client, time.Minute)

	assert.Error(t, c.Put(context.Background(), "", ports.Directions{}))
}

func TestDirectionsCacheCorruptEntry(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisDirectionsCache(client, time.Minute)
	require.NoError(t, mr.Set(directionsPrefix+"bad", "{not json"))

	_, _, err := c.Get(context.Background(), "bad")
	assert.Error(t, err)
}

func TestGeocodeCacheGetManyReturnsOnlyHits(t *testing.T) {
	_, client := newRedis(t)
	c := NewRedisGeocodeCache(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"Sultanahmet Square, Istanbul": {Lat: 41.0058, Lon: 28.9768},
	}))

	got, err := c.GetMany(ctx, []string{
		"Sultanahmet Square, Istanbul",
		"  Sultanahmet Square, Istanbul ",
		"Galata Tower, Istanbul",
		"",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{
		"Sultanahmet Square, Istanbul": {Lat: 41.0058, Lon: 28.9768},
	}, got)
}

func TestGeocodeCacheEmptyInput(t *testing.T) {
	_, client := newRedis(t)
	c := NewRedisGeocodeCache(client, time.Hour)

	got, err := c.GetMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, c.PutMany(context.Background(), nil))
}

func TestGeocodeCacheRejectsBlankAddress(t *testing.T) {
	_, client := newRedis(t)
	c := NewRedisGeocodeCache(client, time.Hour)

	err := c.PutMany(context.Background(), map[string]domain.Coordinates{" ": {}})
	assert.Error(t, err)
}

func TestCacheSurfacesConnectionErrors(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	_, _, err := NewRedisDirectionsCache(client, time.Minute).Get(context.Background(), "k")
	assert.Error(t, err)

	_, err = NewRedisGeocodeCache(client, time.Minute).GetMany(context.Background(), []string{"a"})
	assert.Error(t, err)
}
