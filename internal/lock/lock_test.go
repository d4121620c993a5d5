package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"salesledger/internal/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializes(t *testing.T) {
	l := NewLocalLocker(time.Second)
	key := CustomerKey(uuid.New())

	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

func TestLocalLockerTimesOut(t *testing.T) {
	l := NewLocalLocker(20 * time.Millisecond)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	_, err = l.Acquire(context.Background(), "k")
	assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)

	other, err := l.Acquire(context.Background(), "other")
	require.NoError(t, err)
	other()
}

func TestLocalLockerReleaseIsIdempotent(t *testing.T) {
	l := NewLocalLocker(20 * time.Millisecond)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	release()
	release()

	again, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	again()
}

func TestLocalLockerDropsIdleSlots(t *testing.T) {
	l := NewLocalLocker(20 * time.Millisecond)
	for i := 0; i < 100; i++ {
		release, err := l.Acquire(context.Background(), CustomerKey(uuid.New()))
		require.NoError(t, err)
		release()
	}
	assert.Zero(t, l.size())

	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	_, err = l.Acquire(context.Background(), "k")
	require.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "k")
	require.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
	assert.Equal(t, 1, l.size())

	release()
	release()
	assert.Zero(t, l.size())
}
