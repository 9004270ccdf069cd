package frame

import (
	"context"
	"runtime"
	"sync"
)

// ForEach runs fn(i) for i in [0, n) on a bounded worker pool. The first
// error stops scheduling of new work and is returned; workers finish the
// frame they are on, so cancellation takes effect between frames, never
// mid-frame. A nil context or workers <= 0 fall back to sane defaults.
func ForEach(ctx context.Context, n, workers int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	indices := make(chan int)
	errOnce := sync.Once{}
	var firstErr error
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				if err := fn(i); err != nil {
					errOnce.Do(func() {
						firstErr = err
						close(done)
					})
					return
				}
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case indices <- i:
		case <-ctx.Done():
			errOnce.Do(func() {
				firstErr = ctx.Err()
				close(done)
			})
			break feed
		case <-done:
			break feed
		}
	}
	close(indices)
	wg.Wait()

	return firstErr
}
