package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*StatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStatsCache(rdb, ttl), mr
}

func TestStatsCache_RoundTrip(t *testing.T) {
	cache, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	in := &Stats{
		Counters:    PipelineCounters{Total: 10, New: 4, Process: 3, Hired: 2, Rejected: 1},
		Charts:      Charts{Gender: GenderSplit{Male: 6, Female: 4}},
		GeneratedAt: time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.Set(ctx, in))
	assert.Equal(t, 30*time.Second, mr.TTL(statsCacheKey))

	out, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.Counters, out.Counters)
	assert.Equal(t, in.Charts.Gender, out.Charts.Gender)
	assert.True(t, in.GeneratedAt.Equal(out.GeneratedAt))
}

func TestStatsCache_ExpiresAfterTTL(t *testing.T) {
	cache, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &Stats{}))
	mr.FastForward(31 * time.Second)

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatsCache_Invalidate(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &Stats{}))
	require.NoError(t, cache.Invalidate(ctx))
	assert.False(t, mr.Exists(statsCacheKey))

	gen, err := mr.Get(statsGenerationKey)
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
}

func TestStatsCache_SetIfGeneration(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, cache.Invalidate(ctx))

	stored, err := cache.SetIfGeneration(ctx, &Stats{Counters: PipelineCounters{Total: 1}}, gen)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists(statsCacheKey))

	gen, err = cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	stored, err = cache.SetIfGeneration(ctx, &Stats{Counters: PipelineCounters{Total: 2}}, gen)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, time.Minute, mr.TTL(statsCacheKey))

	out, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), out.Counters.Total)
}

func TestStatsCache_GenerationReadError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(statsGenerationKey).SetErr(errors.New("connection refused"))

	_, err := NewStatsCache(rdb, time.Minute).Generation(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read stats generation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsCache_CorruptPayload(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set(statsCacheKey, "{not json"))

	_, ok, err := cache.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestStatsCache_ReadError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(statsCacheKey).SetErr(errors.New("connection refused"))

	cache := NewStatsCache(rdb, time.Minute)
	_, ok, err := cache.Get(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read stats cache")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
