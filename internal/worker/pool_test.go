package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllBlocks(t *testing.T) {
	p := New(4, 64)

	var count atomic.Int64

	err := p.Run(context.Background(), 100, func(blockIndex int, scratch []byte) error {
		require.Len(t, scratch, 64)
		count.Add(1)

		return nil
	})

	require.NoError(t, err)
	require.Equal(t, int64(100), count.Load())
}

func TestPoolPropagatesFirstError(t *testing.T) {
	p := New(4, 16)
	boom := errors.New("boom")

	var calls atomic.Int64

	err := p.Run(context.Background(), 50, func(blockIndex int, scratch []byte) error {
		calls.Add(1)
		if blockIndex == 5 {
			return boom
		}

		return nil
	})

	require.ErrorIs(t, err, boom)
}

func TestPoolZeroBlocks(t *testing.T) {
	p := New(4, 16)

	err := p.Run(context.Background(), 0, func(int, []byte) error {
		t.Fatal("job must not run for zero blocks")
		return nil
	})
	require.NoError(t, err)
}

func TestPoolSequentialFallback(t *testing.T) {
	p := New(0, 8)
	require.Equal(t, 1, p.NumThreads())

	err := p.Run(context.Background(), 10, func(int, []byte) error { return nil })
	require.NoError(t, err)
}
