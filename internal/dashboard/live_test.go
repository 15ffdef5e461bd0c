package dashboard

import (
	"context"
	"testing"
	"time"

	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/realtime"
	"recruitment-portal/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *realtime.Bus {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return realtime.NewBus(rdb, logger.NewTestLogger(t))
}

func nextUpdate(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "update channel closed")
		return u
	case <-time.After(timeout):
		t.Fatal("no update received")
		return Update{}
	}
}

func TestWatch_InitialAndChangeDrivenRefresh(t *testing.T) {
	bus := newTestBus(t)
	reader := pipelineFixture()
	svc := NewService(reader, nil, nil, 20, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := svc.Watch(ctx, bus, NewViewState(), 20*time.Millisecond)
	require.NoError(t, err)

	first := nextUpdate(t, updates)
	assert.Equal(t, UpdateView, first.Kind)
	require.NotNil(t, first.View)
	assert.Equal(t, int64(2), first.View.Total)
	require.NotNil(t, first.Stats)

	bus.Notify(ctx, realtime.TableApplicants, realtime.OpInsert, 7)
	bus.Notify(ctx, realtime.TableApplicants, realtime.OpUpdate, 7)

	second := nextUpdate(t, updates)
	assert.Equal(t, UpdateView, second.Kind)

	bus.Notify(ctx, realtime.TablePlacements, realtime.OpDelete, 3)
	third := nextUpdate(t, updates)
	assert.Equal(t, UpdateMaster, third.Kind)
}

func TestWatch_ApplicantChangePushesCurrentStats(t *testing.T) {
	bus := newTestBus(t)
	reader := pipelineFixture()
	cache, _ := newTestCache(t, time.Minute)
	svc := NewService(reader, cache, nil, 20, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := svc.Watch(ctx, bus, NewViewState(), 20*time.Millisecond)
	require.NoError(t, err)

	first := nextUpdate(t, updates)
	require.NotNil(t, first.Stats)
	assert.Equal(t, int64(6), first.Stats.Counters.Total)

	// No invalidator runs here; the cached stats stay in Redis.
	reader.add(models.Applicant{ID: 7, Status: models.StatusNone})
	bus.Notify(ctx, realtime.TableApplicants, realtime.OpInsert, 7)

	second := nextUpdate(t, updates)
	require.NotNil(t, second.Stats)
	assert.Equal(t, int64(7), second.Stats.Counters.Total)
	assert.Equal(t, int64(3), second.View.Total)
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	bus := newTestBus(t)
	svc := NewService(pipelineFixture(), nil, nil, 20, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	updates, err := svc.Watch(ctx, bus, NewViewState(), 10*time.Millisecond)
	require.NoError(t, err)

	nextUpdate(t, updates)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, timeout, tick)
}

func TestRunInvalidator(t *testing.T) {
	bus := newTestBus(t)
	cache, mr := newTestCache(t, time.Minute)
	svc := NewService(pipelineFixture(), cache, nil, 20, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, cache.Set(ctx, &Stats{}))
	require.True(t, mr.Exists(statsCacheKey))

	done := make(chan error, 1)
	go func() { done <- svc.RunInvalidator(ctx, bus) }()

	assert.Eventually(t, func() bool {
		bus.Notify(ctx, realtime.TableApplicants, realtime.OpUpdate, 1)
		return !mr.Exists(statsCacheKey)
	}, timeout, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
