// Package parallel splits index ranges across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// ParallelizeN divides items into contiguous ranges, one per worker, and
// runs fn on each range concurrently. fn must only write to its own range.
// A workers value below 1 means one worker per CPU core.
func ParallelizeN(items, workers int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}
	if workers == 1 {
		fn(0, items)
		return
	}

	// ceiling division
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for _, r := range Ranges(items, chunkSize) {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(r[0], r[1])
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over the whole range when
// items does not exceed threshold, and across workers otherwise.
func ParallelizeWithThreshold(items, threshold, workers int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	ParallelizeN(items, workers, fn)
}

// Ranges splits [0, items) into consecutive half-open ranges of at most size
// elements. The batched label-issue finder uses it to enumerate batches.
func Ranges(items, size int) [][2]int {
	if items <= 0 || size <= 0 {
		return nil
	}
	out := make([][2]int, 0, (items+size-1)/size)
	for start := 0; start < items; start += size {
		end := start + size
		if end > items {
			end = items
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
