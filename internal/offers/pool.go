package offers

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// BatchResult holds the outcome of running every configured script.
type BatchResult struct {
	Results []Result // in Banks() order
	Errs    []error  // parallel to Results; nil on success
	Failed  int
}

// ProgressFunc is called as scripts finish.
// current is the number of scripts finished so far, total is the total count.
type ProgressFunc func(current, total int, res Result, err error)

// RunAll runs every configured script with a bounded worker pool. A failing
// script does not stop the others.
func (r *Runner) RunAll(ctx context.Context, progressFn ProgressFunc) BatchResult {
	banks := r.Banks()
	out := BatchResult{
		Results: make([]Result, len(banks)),
		Errs:    make([]error, len(banks)),
	}
	if len(banks) == 0 {
		return out
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(banks) {
		numWorkers = len(banks)
	}

	work := make(chan int, len(banks))
	for i := range banks {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	var finished atomic.Int64
	var mu sync.Mutex // serializes progressFn

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				res, err := r.Run(ctx, banks[idx])
				out.Results[idx] = res
				out.Errs[idx] = err
				n := finished.Add(1)
				if progressFn != nil {
					mu.Lock()
					progressFn(int(n), len(banks), res, err)
					mu.Unlock()
				}
			}
		}()
	}

	wg.Wait()

	for _, err := range out.Errs {
		if err != nil {
			out.Failed++
		}
	}
	return out
}
