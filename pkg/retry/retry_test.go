package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gunvolt24/ordersync/pkg/retry"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterRetries(t *testing.T) {
	p := retry.Policy{Attempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	p := retry.Policy{Attempts: 2, Initial: time.Millisecond}
	boom := errors.New("boom")

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	p := retry.Policy{Attempts: 5, Initial: time.Millisecond}
	boom := errors.New("bad input")

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return retry.Permanent(boom)
	})
	require.Equal(t, boom, err)
	require.Equal(t, 1, calls)
}

func TestDo_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	_ = retry.Policy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("x")
	})
	require.Equal(t, 1, calls)
}

func TestDo_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Policy{Attempts: 10, Initial: time.Hour}

	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("x")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestNextAndJitter(t *testing.T) {
	require.Equal(t, 2*time.Second, retry.Next(time.Second, 10*time.Second))
	require.Equal(t, 3*time.Second, retry.Next(2*time.Second, 3*time.Second))
	require.Equal(t, 4*time.Second, retry.Next(2*time.Second, 0))

	for i := 0; i < 100; i++ {
		d := retry.EqualJitter(time.Second)
		require.GreaterOrEqual(t, d, 500*time.Millisecond)
		require.LessOrEqual(t, d, time.Second)
	}
	require.Zero(t, retry.EqualJitter(0))
}

func TestUntilTimeout(t *testing.T) {
	calls := 0
	err := retry.UntilTimeout(context.Background(), 0, func(context.Context) error {
		calls++
		return errors.New("down")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls, "без таймаута попытка одна")

	calls = 0
	err = retry.UntilTimeout(context.Background(), 5*time.Second, func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("starting")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	start := time.Now()
	err = retry.UntilTimeout(context.Background(), 300*time.Millisecond, func(context.Context) error {
		return errors.New("never up")
	})
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}
