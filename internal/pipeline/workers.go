package pipeline

import (
	"context"
	"sync"
)

// MonthError pairs a failed month with its cause.
type MonthError struct {
	Month Month
	Err   error
}

// runMonths executes fn for every month on a bounded worker pool. A failing
// month never stops the others; all failures are collected and returned.
func runMonths(ctx context.Context, months []Month, workers int, fn func(context.Context, Month) error) []MonthError {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan Month)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var failures []MonthError

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				if err := ctx.Err(); err != nil {
					mu.Lock()
					failures = append(failures, MonthError{Month: m, Err: err})
					mu.Unlock()
					continue
				}
				if err := fn(ctx, m); err != nil {
					mu.Lock()
					failures = append(failures, MonthError{Month: m, Err: err})
					mu.Unlock()
				}
			}
		}()
	}

	for _, m := range months {
		jobs <- m
	}
	close(jobs)
	wg.Wait()

	return failures
}
