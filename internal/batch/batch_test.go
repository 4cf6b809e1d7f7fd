package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessN_OrderPreserved(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	// Earlier items sleep longer so completion order is the reverse of launch
	// order within each batch.
	double := func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(11-n) * time.Millisecond)
		return n * 2, nil
	}

	got, err := ProcessN(context.Background(), items, double, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}, got)
}

func TestProcessN_ConcurrencyBound(t *testing.T) {
	items := make([]int, 17)
	for i := range items {
		items[i] = i
	}

	var inFlight, peak atomic.Int32
	transform := func(_ context.Context, n int) (int, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return n, nil
	}

	_, err := ProcessN(context.Background(), items, transform, 4)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(4), "more than batchSize transforms in flight")
}

func TestProcessN_BatchRunsConcurrently(t *testing.T) {
	// Every transform in the batch blocks until all three have started. If the
	// processor serialized them, this would deadlock and the test would time
	// out rather than pass.
	var barrier sync.WaitGroup
	barrier.Add(3)

	transform := func(_ context.Context, n int) (int, error) {
		barrier.Done()
		barrier.Wait()
		return n, nil
	}

	done := make(chan struct{})
	var got []int
	var err error
	go func() {
		got, err = ProcessN(context.Background(), []int{1, 2, 3}, transform, 3)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("batch members waited on each other to start")
	}
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestProcess_Empty(t *testing.T) {
	transform := func(_ context.Context, n int) (int, error) {
		t.Error("transform invoked for empty input")
		return n, nil
	}

	got, err := Process(context.Background(), nil, transform)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProcess_Singleton(t *testing.T) {
	got, err := Process(context.Background(), []string{"x"}, func(_ context.Context, s string) (string, error) {
		return s + "!", nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x!"}, got)
}

func TestProcess_DefaultSize(t *testing.T) {
	items := make([]int, 12)
	for i := range items {
		items[i] = i
	}

	var inFlight, peak atomic.Int32
	transform := func(_ context.Context, n int) (int, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return n + 1, nil
	}

	got, err := Process(context.Background(), items, transform)
	require.NoError(t, err)
	assert.Len(t, got, 12)
	assert.LessOrEqual(t, peak.Load(), int32(DefaultSize))
}

func TestProcessN_OversizedBatch(t *testing.T) {
	// A batch size far beyond len(items) means one batch: all three items must
	// start without waiting on each other.
	var barrier sync.WaitGroup
	barrier.Add(3)

	got, err := ProcessN(context.Background(), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		barrier.Done()
		barrier.Wait()
		return n * 2, nil
	}, 100)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, got)
}

func TestProcessN_FailurePropagation(t *testing.T) {
	errBoom := errors.New("boom")

	got, err := ProcessN(context.Background(), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errBoom
		}
		return n, nil
	}, 3)

	require.ErrorIs(t, err, errBoom)
	assert.EqualError(t, err, "boom")
	assert.Nil(t, got, "partial results must not be returned")
}

func TestProcessN_NoBatchesAfterFailure(t *testing.T) {
	errBoom := errors.New("boom")

	var calls atomic.Int32
	_, err := ProcessN(context.Background(), []int{1, 2, 3, 4, 5, 6}, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		if n == 2 {
			return 0, errBoom
		}
		return n, nil
	}, 2)

	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, int32(2), calls.Load(), "batches after the failing one must not run")
}

func TestProcessN_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1, -100} {
		_, err := ProcessN(context.Background(), []int{1}, func(_ context.Context, n int) (int, error) {
			return n, nil
		}, size)
		assert.ErrorIs(t, err, ErrInvalidBatchSize, "size %d", size)
	}
}

func TestProcessN_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessN(ctx, []int{1, 2, 3}, func(ctx context.Context, n int) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return n, nil
		}
	}, 3)

	require.ErrorIs(t, err, context.Canceled)
}
