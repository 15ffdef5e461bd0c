package realtime

import (
	"context"
	"testing"
	"time"

	"recruitment-portal/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBus(t *testing.T) (*Bus, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewBus(rdb, logger.NewTestLogger(t)), mr
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus, _ := setupBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, TableApplicants)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bus.Publish(ctx, ChangeEvent{Table: TableApplicants, Op: OpUpdate, IDs: []int64{4, 7}}))

	select {
	case ev := <-sub.Events():
		assert.Equal(t, TableApplicants, ev.Table)
		assert.Equal(t, OpUpdate, ev.Op)
		assert.Equal(t, []int64{4, 7}, ev.IDs)
		assert.False(t, ev.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for change event")
	}
}

func TestBus_OnlyWatchedTables(t *testing.T) {
	bus, _ := setupBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, TableClients, TablePositions)
	require.NoError(t, err)
	defer sub.Close()

	bus.Notify(ctx, TableApplicants, OpInsert, 1)
	bus.Notify(ctx, TablePositions, OpDelete, 9)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, TablePositions, ev.Table)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for change event")
	}
}

func TestBus_InvalidPayloadGoesToErrors(t *testing.T) {
	bus, mr := setupBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, TableApplicants)
	require.NoError(t, err)
	defer sub.Close()

	mr.Publish(ChannelFor(TableApplicants), "not-json")

	select {
	case err := <-sub.Errors():
		assert.Contains(t, err.Error(), "decode change event")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for decode error")
	}
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	bus, _ := setupBus(t)

	sub, err := bus.Subscribe(context.Background(), TableApplicants)
	require.NoError(t, err)

	assert.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Events():
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
