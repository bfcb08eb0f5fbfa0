package search

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bowl has its minimum at (3, 1.5) with cost 0.
func bowl() Problem {
	return Problem{
		Bounds: []Bound{
			{Min: 0, Max: 10, Integer: true},
			{Min: 0, Max: 5},
		},
		Objective: func(x []float64) float64 {
			return (x[0]-3)*(x[0]-3) + (x[1]-1.5)*(x[1]-1.5)
		},
	}
}

// atLeastFour is minimise x subject to x >= 4.
func atLeastFour() Problem {
	return Problem{
		Bounds:     []Bound{{Min: 0, Max: 10, Integer: true}},
		Objective:  func(x []float64) float64 { return x[0] },
		Constraint: func(x []float64) float64 { return math.Max(0, 4-x[0]) },
	}
}

func TestBoundClamp(t *testing.T) {
	b := Bound{Min: 0, Max: 4, Integer: true}
	assert.Equal(t, 0.0, b.Clamp(-3))
	assert.Equal(t, 4.0, b.Clamp(9))
	assert.Equal(t, 2.0, b.Clamp(2.4))
	assert.Equal(t, 3.0, b.Clamp(2.5))

	r := Bound{Min: 0.2, Max: 0.9}
	assert.Equal(t, 0.5, r.Clamp(0.5))
	assert.Equal(t, 0.9, r.Clamp(1))
}

func TestBetter(t *testing.T) {
	feasCheap := Solution{Cost: 1}
	feasDear := Solution{Cost: 5}
	infeasSmall := Solution{Cost: 0, Violation: 0.1}
	infeasBig := Solution{Cost: 0, Violation: 2}

	assert.True(t, Better(feasCheap, feasDear))
	assert.False(t, Better(feasDear, feasCheap))
	assert.True(t, Better(feasDear, infeasSmall), "feasible beats any infeasible")
	assert.False(t, Better(infeasSmall, feasDear))
	assert.True(t, Better(infeasSmall, infeasBig))
	assert.False(t, Better(feasCheap, feasCheap))
}

func TestProblemValidate(t *testing.T) {
	obj := func([]float64) float64 { return 0 }
	tests := []struct {
		name string
		p    Problem
		want string
	}{
		{"no bounds", Problem{Objective: obj}, "no decision variables"},
		{"no objective", Problem{Bounds: []Bound{{Max: 1}}}, "no objective"},
		{"inverted", Problem{Bounds: []Bound{{Min: 2, Max: 1}}, Objective: obj}, "invalid range"},
		{"no integer", Problem{Bounds: []Bound{{Min: 0.2, Max: 0.8, Integer: true}}, Objective: obj}, "no integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenetic_FindsBowlMinimum(t *testing.T) {
	res, err := DefaultGenetic().Optimize(context.Background(), bowl())
	require.NoError(t, err)

	assert.Equal(t, 3.0, res.Best.X[0])
	assert.InDelta(t, 1.5, res.Best.X[1], 0.25)
	assert.True(t, res.Best.Feasible())
	assert.Equal(t, 40*60, res.Evaluations)
	assert.Len(t, res.History, 60)
	assert.False(t, res.Stopped)
}

func TestGenetic_RespectsConstraint(t *testing.T) {
	g := DefaultGenetic()
	g.Generations = 20
	res, err := g.Optimize(context.Background(), atLeastFour())
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, res.Best.X)
	assert.True(t, res.Best.Feasible())
}

func TestGenetic_SameSeedSameResultForAnyWorkerCount(t *testing.T) {
	serial := DefaultGenetic()
	serial.Generations = 15
	serial.Workers = 1
	parallel := serial
	parallel.Workers = 8

	a, err := serial.Optimize(context.Background(), bowl())
	require.NoError(t, err)
	b, err := parallel.Optimize(context.Background(), bowl())
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("worker count changed the result (-serial +parallel):\n%s", diff)
	}
}

func TestGenetic_ProgressIsMonotone(t *testing.T) {
	g := DefaultGenetic()
	g.Generations = 10

	var seen []Generation
	g.Progress = func(gen Generation) { seen = append(seen, gen) }
	res, err := g.Optimize(context.Background(), bowl())
	require.NoError(t, err)

	require.Len(t, seen, 10)
	for i := range seen {
		assert.Equal(t, i, seen[i].Index)
		assert.Equal(t, (i+1)*g.Population, seen[i].Evaluations)
		if i > 0 {
			assert.LessOrEqual(t, seen[i].Best.Cost, seen[i-1].Best.Cost)
		}
	}
	assert.Equal(t, res.Best, seen[len(seen)-1].Best)
}

func TestGenetic_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := DefaultGenetic().Optimize(ctx, bowl())
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Stopped)
}

func TestGenetic_CancelMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := DefaultGenetic()
	g.Progress = func(gen Generation) {
		if gen.Index == 2 {
			cancel()
		}
	}
	res, err := g.Optimize(ctx, bowl())
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Stopped)
	assert.Len(t, res.History, 3)
	assert.NotNil(t, res.Best.X)
}

func TestGenetic_InvalidSettings(t *testing.T) {
	g := DefaultGenetic()
	g.Elite = g.Population
	_, err := g.Optimize(context.Background(), bowl())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "elite")
}

func TestGrid_Exhaustive(t *testing.T) {
	var calls atomic.Int64
	p := bowl()
	obj := p.Objective
	p.Objective = func(x []float64) float64 {
		calls.Add(1)
		return obj(x)
	}

	g := Grid{Steps: []float64{1, 0.5}, BatchSize: 7}
	res, err := g.Optimize(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 11*11, res.Evaluations)
	assert.Equal(t, int64(11*11), calls.Load())
	assert.Equal(t, []float64{3, 1.5}, res.Best.X)
	assert.Equal(t, 0.0, res.Best.Cost)
	assert.Len(t, res.History, (121+6)/7)
}

func TestGrid_RespectsConstraint(t *testing.T) {
	res, err := Grid{}.Optimize(context.Background(), atLeastFour())
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, res.Best.X)
}

func TestGrid_TooLarge(t *testing.T) {
	_, err := Grid{MaxEvaluations: 50}.Optimize(context.Background(), bowl())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_evaluations 50")
}

func TestGrid_Axes(t *testing.T) {
	g := Grid{Steps: []float64{2, 0.3}}
	axes := g.axes([]Bound{
		{Min: 0, Max: 5, Integer: true},
		{Min: 0.2, Max: 0.9},
		{Min: 1, Max: 1, Integer: true},
	})
	assert.Equal(t, []float64{0, 2, 4}, axes[0])
	require.Len(t, axes[1], 4)
	assert.InDelta(t, 0.2, axes[1][0], 1e-12)
	assert.InDelta(t, 0.8, axes[1][2], 1e-12)
	assert.Equal(t, 0.9, axes[1][3])
	assert.Equal(t, []float64{1}, axes[2])
}
