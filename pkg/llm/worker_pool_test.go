package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorkerPool_ProcessAll(t *testing.T) {
	pool := NewWorkerPool[int](4, zap.NewNop())

	items := make([]WorkItem[int], 20)
	for i := range items {
		n := i
		items[i] = WorkItem[int]{
			ID:      string(rune('a' + i)),
			Execute: func(ctx context.Context) (int, error) { return n * 2, nil },
		}
	}

	results := pool.Process(context.Background(), items)
	require.Len(t, results, 20)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}

func TestWorkerPool_RespectsConcurrencyLimit(t *testing.T) {
	pool := NewWorkerPool[struct{}](2, zap.NewNop())

	var current, peak atomic.Int32
	items := make([]WorkItem[struct{}], 10)
	for i := range items {
		items[i] = WorkItem[struct{}]{
			ID: "item",
			Execute: func(ctx context.Context) (struct{}, error) {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				current.Add(-1)
				return struct{}{}, nil
			},
		}
	}

	pool.Process(context.Background(), items)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestWorkerPool_FailuresAreIsolated(t *testing.T) {
	pool := NewWorkerPool[string](4, zap.NewNop())

	items := []WorkItem[string]{
		{ID: "ok", Execute: func(ctx context.Context) (string, error) { return "fine", nil }},
		{ID: "bad", Execute: func(ctx context.Context) (string, error) { return "", errors.New("boom") }},
	}

	results := pool.Process(context.Background(), items)
	require.Len(t, results, 2)

	byID := map[string]WorkResult[string]{}
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.NoError(t, byID["ok"].Err)
	assert.Equal(t, "fine", byID["ok"].Result)
	assert.Error(t, byID["bad"].Err)
}

func TestWorkerPool_ContextCancellation(t *testing.T) {
	pool := NewWorkerPool[int](1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []WorkItem[int]{
		{ID: "a", Execute: func(ctx context.Context) (int, error) { return 1, nil }},
	}

	results := pool.Process(ctx, items)
	require.Len(t, results, 1)
	// The item either ran (the semaphore slot was free) or was cancelled;
	// either way exactly one result comes back.
}

func TestWorkerPool_EmptyInput(t *testing.T) {
	pool := NewWorkerPool[int](4, zap.NewNop())
	assert.Empty(t, pool.Process(context.Background(), nil))
}
