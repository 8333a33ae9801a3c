package lookup

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultFanoutLimit is the number of static lookups allowed in flight.
const DefaultFanoutLimit = 5

// FanoutObserver is told how many operations are in flight after every change.
type FanoutObserver interface {
	SetFanoutInFlight(n int)
}

// Fanout caps concurrently executing operations. Waiting callers are
// admitted in the order they asked for a slot.
type Fanout struct {
	limit    int64
	sem      *semaphore.Weighted
	observer FanoutObserver
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewFanout builds a limiter with the given degree. A limit below one falls
// back to DefaultFanoutLimit.
func NewFanout(limit int, observer FanoutObserver) *Fanout {
	if limit < 1 {
		limit = DefaultFanoutLimit
	}
	return &Fanout{
		limit:    int64(limit),
		sem:      semaphore.NewWeighted(int64(limit)),
		observer: observer,
	}
}

func (f *Fanout) Limit() int {
	return int(f.limit)
}

// Peak is the highest number of operations seen in flight at once.
func (f *Fanout) Peak() int {
	return int(f.peak.Load())
}

func (f *Fanout) acquire(ctx context.Context) error {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	n := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.observer != nil {
		f.observer.SetFanoutInFlight(int(n))
	}
	return nil
}

func (f *Fanout) release() {
	n := f.inFlight.Add(-1)
	f.sem.Release(1)
	if f.observer != nil {
		f.observer.SetFanoutInFlight(int(n))
	}
}

// Do runs fn once a slot is free.
func (f *Fanout) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := f.acquire(ctx); err != nil {
		return err
	}
	defer f.release()
	return fn(ctx)
}

// Result pairs a value with the error that produced it.
type Result[R any] struct {
	Value R
	Err   error
}

// Map applies fn to every item through f. Slots are requested in input order
// and results keep input order. A failed item does not stop the others; when
// ctx ends, items still waiting for a slot fail with ctx's error.
func Map[T, R any](ctx context.Context, f *Fanout, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		if err := f.acquire(ctx); err != nil {
			for j := i; j < len(items); j++ {
				results[j].Err = err
			}
			break
		}
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			defer f.release()
			v, err := fn(ctx, item)
			results[i] = Result[R]{Value: v, Err: err}
		}(i, item)
	}
	wg.Wait()
	return results
}
