package sizing

import (
	"context"
	"fmt"
	"log"
	"time"

	"microgrid-sizer/internal/metrics"
	"microgrid-sizer/internal/search"
)

// Solution is the outcome of a sizing search: the optimizer's record
// plus a full re-evaluation of the best point.
type Solution struct {
	Search   *search.Result
	Best     *Evaluation
	Duration time.Duration
}

// Solve runs opt over p. When ctx is cancelled after at least one
// generation, the best design so far is still evaluated and returned
// alongside the context error.
func Solve(ctx context.Context, p *Problem, opt search.Optimizer) (*Solution, error) {
	start := time.Now()
	log.Printf("[Sizing] %s search over %d steps started", opt.Name(), len(p.series))

	res, runErr := opt.Optimize(ctx, p.SearchProblem())
	if res == nil {
		return nil, runErr
	}
	dur := time.Since(start)
	metrics.SearchDuration.WithLabelValues(opt.Name()).Observe(dur.Seconds())

	if res.Best.X == nil {
		if runErr == nil {
			runErr = fmt.Errorf("%s search produced no candidate", opt.Name())
		}
		return &Solution{Search: res, Duration: dur}, runErr
	}

	best, err := p.Evaluate(p.Decode(res.Best.X))
	if err != nil {
		return nil, fmt.Errorf("re-evaluating best design: %w", err)
	}
	metrics.BestCost.WithLabelValues(opt.Name()).Set(best.Cost.Total)
	metrics.BestUnmetKWh.WithLabelValues(opt.Name()).Set(best.Cost.AnnualUnmetKWh)

	log.Printf("[Sizing] %s done in %s: %s cost=%.2f feasible=%t evaluations=%d",
		opt.Name(), dur.Round(time.Millisecond), best.Decision, best.Cost.Total, best.Feasible(), res.Evaluations)
	return &Solution{Search: res, Best: best, Duration: dur}, runErr
}
