package search

import (
	"context"
	"fmt"
	"math"
)

// Grid enumerates every point of a regular lattice over the bounds.
// It is exhaustive on that lattice and therefore only as good as Steps.
type Grid struct {
	// Steps is the spacing per dimension. A missing or zero step means 1
	// for integer variables and a tenth of the width for real ones.
	Steps          []float64 `yaml:"steps" json:"steps"`
	MaxEvaluations int       `yaml:"max_evaluations" json:"max_evaluations"`
	// BatchSize is the number of points per reported generation.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	Workers   int `yaml:"workers" json:"workers"`

	Progress ProgressFunc `yaml:"-" json:"-"`
}

const defaultGridBatch = 256

func (g Grid) Name() string { return "grid" }

func (g Grid) Optimize(ctx context.Context, p Problem) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	axes := g.axes(p.Bounds)

	total := 1
	for _, a := range axes {
		total *= len(a)
		if g.MaxEvaluations > 0 && total > g.MaxEvaluations {
			return nil, fmt.Errorf("grid exceeds max_evaluations %d; widen steps or narrow bounds", g.MaxEvaluations)
		}
	}

	batch := g.BatchSize
	if batch <= 0 {
		batch = defaultGridBatch
	}

	res := &Result{Optimizer: g.Name()}
	idx := make([]int, len(axes))
	for gen, done := 0, 0; done < total; gen++ {
		n := batch
		if total-done < n {
			n = total - done
		}
		xs := make([][]float64, n)
		for i := range xs {
			x := make([]float64, len(axes))
			for d, a := range axes {
				x[d] = a[idx[d]]
			}
			xs[i] = x
			advance(idx, axes)
		}

		pop := evaluate(ctx, p, xs, g.Workers)
		if err := ctx.Err(); err != nil {
			res.Stopped = true
			return res, err
		}
		done += n
		res.Evaluations = done

		summary := summarize(gen, pop, done)
		if gen == 0 || Better(summary.Best, res.Best) {
			res.Best = summary.Best
		}
		summary.Best = res.Best
		res.History = append(res.History, summary)
		if g.Progress != nil {
			g.Progress(summary)
		}
	}
	return res, nil
}

func (g Grid) axes(bounds []Bound) [][]float64 {
	axes := make([][]float64, len(bounds))
	for d, b := range bounds {
		step := 0.0
		if d < len(g.Steps) {
			step = g.Steps[d]
		}
		if step <= 0 {
			step = 1
			if !b.Integer {
				step = b.Width() / 10
			}
		}
		lo := b.Min
		if b.Integer {
			lo = math.Ceil(b.Min)
			step = math.Max(1, math.Round(step))
		}

		var axis []float64
		if step == 0 || b.Width() == 0 {
			axis = []float64{b.Clamp(lo)}
		} else {
			for k := 0; ; k++ {
				v := lo + float64(k)*step
				if v > b.Max+1e-9 {
					break
				}
				axis = append(axis, b.Clamp(v))
			}
			// Always include the upper edge of a real range.
			if !b.Integer && axis[len(axis)-1] < b.Max {
				axis = append(axis, b.Max)
			}
		}
		axes[d] = axis
	}
	return axes
}

// advance steps a mixed-radix counter, last dimension fastest.
func advance(idx []int, axes [][]float64) {
	for d := len(idx) - 1; d >= 0; d-- {
		idx[d]++
		if idx[d] < len(axes[d]) {
			return
		}
		idx[d] = 0
	}
}
