// Package worker provides a bounded worker pool for running batches of
// tasks concurrently while preserving whole-batch semantics: Run returns
// only after every task has finished, and the first task error cancels the
// rest and is reported to the caller.
//
// The index rebuild path uses it to embed corpus batches in parallel
// without giving up the "an embedding failure fails the rebuild" contract.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

var defaultNumWorkers uint = 3

// Task is a unit of work for the worker pool to execute.
type Task func(ctx context.Context) error

// Config is the configuration options for the worker pool.
type Config struct {
	// NumWorkers is the number of concurrent workers in the pool.
	NumWorkers uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool runs batches of tasks across a fixed number of workers.
type Pool struct {
	numWorkers uint
	logger     *zap.Logger
}

// NewPool creates a new Pool.
func NewPool(c *Config) (*Pool, error) {
	numWorkers := c.NumWorkers
	if numWorkers == 0 {
		numWorkers = defaultNumWorkers
	}

	if numWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", numWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool{
		numWorkers: numWorkers,
		logger:     logger,
	}, nil
}

// Run executes all tasks and waits for them to finish. The first error
// cancels the remaining tasks' context and is returned; tasks already
// running are allowed to complete.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan Task)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	workers := p.numWorkers
	if uint(len(tasks)) < workers {
		workers = uint(len(tasks))
	}

	wg.Add(int(workers))
	for i := range workers {
		go func(id uint) {
			defer wg.Done()
			p.logger.Debug("worker started", zap.Uint("worker_id", id))

			for task := range queue {
				if ctx.Err() != nil {
					continue
				}
				if err := task(ctx); err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
				}
			}

			p.logger.Debug("worker stopped", zap.Uint("worker_id", id))
		}(i)
	}

	for _, task := range tasks {
		queue <- task
	}
	close(queue)
	wg.Wait()

	return firstErr
}
