package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSearchCache_RoundTrip(t *testing.T) {
	server := miniredis.RunT(t)
	cache, err := NewRedisSearchCache("redis://"+server.Addr(), time.Minute, quietLogger())
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	_, ok := cache.Get(ctx, "missing")
	assert.False(t, ok)

	service := NewSearchService(loadedCatalog(t), nil, defaultSettings(), quietLogger())
	resp, err := service.Search(ctx, &models.SearchRequest{From: "Berlin", To: "Vienna"})
	require.NoError(t, err)

	cache.Set(ctx, "k1", resp)
	assert.True(t, server.Exists("rail:search:k1"))
	assert.Equal(t, time.Minute, server.TTL("rail:search:k1"))

	cached, ok := cache.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, resultKeys(resp), resultKeys(cached))
	assert.Equal(t, resp.Results[0].DepartureTime, cached.Results[0].DepartureTime)
	assert.Equal(t, resp.Results[0].Legs[0].OperatingDays, cached.Results[0].Legs[0].OperatingDays)

	server.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, "k1")
	assert.False(t, ok)
}

func TestRedisSearchCache_CorruptEntry(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	cache := NewRedisSearchCacheWithClient(client, time.Minute, quietLogger())
	defer cache.Close()

	require.NoError(t, server.Set("rail:search:bad", "{not json"))
	_, ok := cache.Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestRedisSearchCache_ServerDown(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	cache := NewRedisSearchCacheWithClient(client, time.Minute, quietLogger())
	defer cache.Close()

	server.Close()

	ctx := context.Background()
	cache.Set(ctx, "k", &models.SearchResponse{Status: "success"})
	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNewRedisSearchCache_BadURL(t *testing.T) {
	_, err := NewRedisSearchCache("not a url", time.Minute, quietLogger())
	assert.Error(t, err)
}

func TestNoopSearchCache(t *testing.T) {
	var cache SearchCache = NoopSearchCache{}
	cache.Set(context.Background(), "k", &models.SearchResponse{})
	_, ok := cache.Get(context.Background(), "k")
	assert.False(t, ok)
}
