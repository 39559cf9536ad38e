package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_ExecutePreservesOrder(t *testing.T) {
	t.Parallel()

	pool := NewPool[int, int](4, func(_ context.Context, in int) (int, error) {
		time.Sleep(time.Duration(10-in) * time.Millisecond)
		return in * in, nil
	})

	inputs := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	results := pool.Execute(context.Background(), inputs)

	require.Len(t, results, len(inputs))
	for i, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, inputs[i], r.Input)
		assert.Equal(t, inputs[i]*inputs[i], r.Result)
	}
}

func TestPool_ErrorsStayPerTask(t *testing.T) {
	t.Parallel()

	errOdd := errors.New("odd input")
	pool := NewPool[int, int](2, func(_ context.Context, in int) (int, error) {
		if in%2 == 1 {
			return 0, errOdd
		}
		return in, nil
	})

	results := pool.Execute(context.Background(), []int{1, 2, 3, 4})
	assert.ErrorIs(t, results[0].Err, errOdd)
	assert.NoError(t, results[1].Err)
	assert.ErrorIs(t, results[2].Err, errOdd)
	assert.Equal(t, 4, results[3].Result)
}

func TestPool_RespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	pool := NewPool[int, struct{}](3, func(_ context.Context, _ int) (struct{}, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	})

	pool.Execute(context.Background(), make([]int, 20))
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestPool_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	pool := NewPool[int, int](2, func(_ context.Context, in int) (int, error) {
		calls.Add(1)
		return in, nil
	})

	results := pool.Execute(ctx, []int{1, 2, 3})
	assert.Equal(t, int32(0), calls.Load())
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestNewPool_MinimumOneWorker(t *testing.T) {
	t.Parallel()

	pool := NewPool[int, int](0, func(_ context.Context, in int) (int, error) { return in, nil })
	results := pool.Execute(context.Background(), []int{7})
	assert.Equal(t, 7, results[0].Result)
}

func TestBatch(t *testing.T) {
	t.Parallel()

	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Batch([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1}, {2}}, Batch([]int{1, 2}, 0))
	assert.Nil(t, Batch([]int{}, 3))
}
