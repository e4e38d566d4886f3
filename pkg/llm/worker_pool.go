package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxConcurrent is the default worker pool concurrency limit.
const DefaultMaxConcurrent = 8

// WorkItem is a unit of work with an identifier for result correlation.
type WorkItem[T any] struct {
	ID      string
	Execute func(ctx context.Context) (T, error)
}

// WorkResult pairs a work item's output with its identifier.
type WorkResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// WorkerPool runs work items concurrently with a bounded number of workers.
type WorkerPool[T any] struct {
	maxConcurrent int
	logger        *zap.Logger
}

// NewWorkerPool creates a pool with the given concurrency limit.
// Non-positive limits fall back to DefaultMaxConcurrent.
func NewWorkerPool[T any](maxConcurrent int, logger *zap.Logger) *WorkerPool[T] {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &WorkerPool[T]{
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("worker_pool"),
	}
}

// Process executes all items and returns results in completion order. Every
// item produces exactly one result; failures are recorded per-item rather
// than aborting the batch. Context cancellation stops unstarted items.
func (p *WorkerPool[T]) Process(ctx context.Context, items []WorkItem[T]) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	sem := make(chan struct{}, p.maxConcurrent)
	results := make(chan WorkResult[T], len(items))
	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(item WorkItem[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- WorkResult[T]{ID: item.ID, Err: ctx.Err()}
				return
			}

			r, err := item.Execute(ctx)
			if err != nil {
				p.logger.Debug("work item failed",
					zap.String("id", item.ID),
					zap.Error(err))
			}
			results <- WorkResult[T]{ID: item.ID, Result: r, Err: err}
		}(item)
	}

	wg.Wait()
	close(results)

	out := make([]WorkResult[T], 0, len(items))
	for r := range results {
		out = append(out, r)
	}
	return out
}
