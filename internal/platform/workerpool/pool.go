package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

const DefaultSize = 8

// Pool bounds fan-out work over a shared ants pool.
type Pool struct {
	pool *ants.Pool
}

func New(size int) (*Pool, error) {
	if size < 1 {
		size = DefaultSize
	}
	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(any) {}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Pool{pool: pool}, nil
}

func (p *Pool) Release() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Release()
}

// ForEach runs fn for every item on the pool and waits for all of them.
// Errors are joined. Items not yet started when ctx is done are skipped and
// reported with ctx.Err().
func ForEach[T any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) error) error {
	if len(items) == 0 {
		return nil
	}
	if p == nil || p.pool == nil {
		return runSequential(ctx, items, fn)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, item := range items {
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				record(err)
				return
			}
			if err := safeCall(ctx, item, fn); err != nil {
				record(err)
			}
		})
		if submitErr != nil {
			wg.Done()
			record(fmt.Errorf("submit task to worker pool: %w", submitErr))
		}
	}
	wg.Wait()

	return errors.Join(errs...)
}

func runSequential[T any](ctx context.Context, items []T, fn func(context.Context, T) error) error {
	var errs []error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := safeCall(ctx, item, fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func safeCall[T any](ctx context.Context, item T, fn func(context.Context, T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return fn(ctx, item)
}
