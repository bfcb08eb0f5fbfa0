package search

import (
	"context"
	"math"
	"runtime"
	"sync"
)

// evaluate scores every point with at most workers goroutines. Results
// are stored by index, so the output does not depend on scheduling.
// Points not reached before ctx is done keep a +Inf violation.
func evaluate(ctx context.Context, p Problem, xs [][]float64, workers int) []Solution {
	out := make([]Solution, len(xs))
	for i, x := range xs {
		out[i] = Solution{X: x, Cost: math.Inf(1), Violation: math.Inf(1)}
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(xs) {
		workers = len(xs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = score(p, xs[i])
			}
		}()
	}

feed:
	for i := range xs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return out
}

func score(p Problem, x []float64) Solution {
	s := Solution{X: x, Cost: p.Objective(x)}
	if p.Constraint != nil {
		s.Violation = math.Max(0, p.Constraint(x))
	}
	if math.IsNaN(s.Cost) {
		s.Cost = math.Inf(1)
	}
	if math.IsNaN(s.Violation) {
		s.Violation = math.Inf(1)
	}
	return s
}
