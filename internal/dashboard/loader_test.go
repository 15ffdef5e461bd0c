package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesLatest(t *testing.T) {
	var l Loader
	var got string

	applied, err := Load(context.Background(), &l, func(context.Context) (string, error) {
		return "first", nil
	}, func(v string) { got = v })

	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "first", got)
	assert.Equal(t, uint64(1), l.Generation())
}

func TestLoad_DiscardsSupersededResponse(t *testing.T) {
	var l Loader
	var got []string

	release := make(chan struct{})
	slowDone := make(chan bool)

	go func() {
		applied, _ := Load(context.Background(), &l, func(ctx context.Context) (string, error) {
			<-release
			return "slow", nil
		}, func(v string) { got = append(got, v) })
		slowDone <- applied
	}()

	require.Eventually(t, func() bool { return l.Generation() == 1 }, timeout, tick)

	applied, err := Load(context.Background(), &l, func(context.Context) (string, error) {
		return "fast", nil
	}, func(v string) { got = append(got, v) })
	require.NoError(t, err)
	assert.True(t, applied)

	close(release)
	assert.False(t, <-slowDone)
	assert.Equal(t, []string{"fast"}, got)
}

func TestLoad_CancelsSupersededFetch(t *testing.T) {
	var l Loader
	errCh := make(chan error)

	go func() {
		_, err := Load(context.Background(), &l, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		}, func(int) {})
		errCh <- err
	}()

	require.Eventually(t, func() bool { return l.Generation() == 1 }, timeout, tick)

	_, err := Load(context.Background(), &l, func(context.Context) (int, error) { return 1, nil }, func(int) {})
	require.NoError(t, err)

	assert.NoError(t, <-errCh)
}

func TestLoad_ReturnsCurrentError(t *testing.T) {
	var l Loader
	boom := errors.New("boom")

	applied, err := Load(context.Background(), &l, func(context.Context) (int, error) { return 0, boom }, func(int) {})

	assert.False(t, applied)
	assert.ErrorIs(t, err, boom)
}
