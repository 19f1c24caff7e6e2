package main

import (
	"errors"
	"sync"
	"sync/atomic"
)

type PoolResult[R any] struct {
	// one slot per claimed item, at the item's original index.
	// unclaimed and skipped slots hold R's zero value.
	Results []R
	// a worker saw err_rate_limited and the remaining work was abandoned.
	RateLimited bool
	// the run stopped at `max_items` rather than the end of the list.
	// distinct from RateLimited: this one is not an error.
	Truncated bool
}

// runs `concurrency` workers over `item_list`, each repeatedly claiming the
// next unclaimed index from a shared cursor and calling `process` on it.
//
// results are written positionally so output order always matches input
// order, whatever order items actually complete in.
//
// an error wrapping err_rate_limited stops the pool: every worker exits at
// its next claim attempt, items already in flight are allowed to finish.
// any other error from `process` becomes `placeholder(item, err)` at that
// item's position and the run carries on.
//
// the cursor is an atomic rather than a bare int: goroutines are preemptive,
// so a plain increment could double-claim an index.
func run_pool[T any, R any](item_list []T, concurrency int, max_items int, process func(T) (R, error), placeholder func(T, error) R) PoolResult[R] {
	ensure(concurrency > 0, "concurrency must be positive")

	limit := int64(len(item_list))
	truncated := false
	if max_items > 0 && int64(max_items) < limit {
		limit = int64(max_items)
		truncated = true
	}

	result_list := make([]R, limit)
	var cursor atomic.Int64
	var stopped atomic.Bool
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if stopped.Load() {
					return
				}
				idx := cursor.Add(1) - 1
				if idx >= limit {
					return
				}
				result, err := process(item_list[idx])
				if err != nil {
					if errors.Is(err, err_rate_limited) {
						stopped.Store(true)
						return
					}
					result_list[idx] = placeholder(item_list[idx], err)
					continue
				}
				result_list[idx] = result
			}
		}()
	}
	wg.Wait()

	return PoolResult[R]{
		Results:     result_list,
		RateLimited: stopped.Load(),
		Truncated:   truncated,
	}
}
