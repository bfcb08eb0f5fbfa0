package search

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
)

// Genetic is a real-coded genetic algorithm with tournament selection,
// blend crossover, gaussian mutation and elitism. Integer variables are
// rounded after every variation step.
//
// All randomness comes from one generator seeded with Seed and used only
// on the calling goroutine, so a run is reproducible for any Workers.
type Genetic struct {
	Population     int     `yaml:"population" json:"population"`
	Generations    int     `yaml:"generations" json:"generations"`
	CrossoverRate  float64 `yaml:"crossover_rate" json:"crossover_rate"`
	MutationRate   float64 `yaml:"mutation_rate" json:"mutation_rate"`
	MutationScale  float64 `yaml:"mutation_scale" json:"mutation_scale"` // sigma as a fraction of the bound width
	TournamentSize int     `yaml:"tournament_size" json:"tournament_size"`
	Elite          int     `yaml:"elite" json:"elite"`
	Seed           int64   `yaml:"seed" json:"seed"`
	Workers        int     `yaml:"workers" json:"workers"`

	Progress ProgressFunc `yaml:"-" json:"-"`
}

// blendAlpha widens the crossover interval beyond the parents (BLX-0.5).
const blendAlpha = 0.5

func DefaultGenetic() Genetic {
	return Genetic{
		Population:     40,
		Generations:    60,
		CrossoverRate:  0.9,
		MutationRate:   0.2,
		MutationScale:  0.1,
		TournamentSize: 3,
		Elite:          2,
		Seed:           1,
	}
}

func (g Genetic) Name() string { return "genetic" }

func (g Genetic) Validate() error {
	if g.Population < 2 {
		return errors.New("genetic.population must be >= 2")
	}
	if g.Generations < 1 {
		return errors.New("genetic.generations must be >= 1")
	}
	if g.CrossoverRate < 0 || g.CrossoverRate > 1 || g.MutationRate < 0 || g.MutationRate > 1 {
		return errors.New("genetic crossover_rate and mutation_rate must be in [0, 1]")
	}
	if g.MutationScale < 0 {
		return errors.New("genetic.mutation_scale must be >= 0")
	}
	if g.TournamentSize < 1 {
		return errors.New("genetic.tournament_size must be >= 1")
	}
	if g.Elite < 0 || g.Elite >= g.Population {
		return errors.New("genetic.elite must be in [0, population)")
	}
	return nil
}

func (g Genetic) Optimize(ctx context.Context, p Problem) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(g.Seed))
	res := &Result{Optimizer: g.Name()}

	xs := make([][]float64, g.Population)
	for i := range xs {
		xs[i] = g.randomPoint(rng, p.Bounds)
	}

	for gen := 0; gen < g.Generations; gen++ {
		pop := evaluate(ctx, p, xs, g.Workers)
		if err := ctx.Err(); err != nil {
			res.Stopped = true
			return res, err
		}
		res.Evaluations += len(pop)

		summary := summarize(gen, pop, res.Evaluations)
		if gen == 0 || Better(summary.Best, res.Best) {
			res.Best = summary.Best
		}
		summary.Best = res.Best
		res.History = append(res.History, summary)
		if g.Progress != nil {
			g.Progress(summary)
		}

		if gen == g.Generations-1 {
			break
		}
		xs = g.nextGeneration(rng, p.Bounds, pop)
	}
	return res, nil
}

func (g Genetic) nextGeneration(rng *rand.Rand, bounds []Bound, pop []Solution) [][]float64 {
	ranked := append([]Solution(nil), pop...)
	sort.SliceStable(ranked, func(i, j int) bool { return Better(ranked[i], ranked[j]) })

	next := make([][]float64, 0, g.Population)
	for i := 0; i < g.Elite; i++ {
		next = append(next, append([]float64(nil), ranked[i].X...))
	}

	for len(next) < g.Population {
		a := g.tournament(rng, pop)
		b := g.tournament(rng, pop)
		c1, c2 := append([]float64(nil), a.X...), append([]float64(nil), b.X...)
		if rng.Float64() < g.CrossoverRate {
			c1, c2 = blend(rng, bounds, a.X, b.X)
		}
		g.mutate(rng, bounds, c1)
		g.mutate(rng, bounds, c2)
		next = append(next, c1)
		if len(next) < g.Population {
			next = append(next, c2)
		}
	}
	return next
}

func (g Genetic) tournament(rng *rand.Rand, pop []Solution) Solution {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < g.TournamentSize; i++ {
		if c := pop[rng.Intn(len(pop))]; Better(c, best) {
			best = c
		}
	}
	return best
}

func blend(rng *rand.Rand, bounds []Bound, a, b []float64) ([]float64, []float64) {
	c1 := make([]float64, len(a))
	c2 := make([]float64, len(a))
	for i, bd := range bounds {
		lo, hi := math.Min(a[i], b[i]), math.Max(a[i], b[i])
		d := hi - lo
		lo, hi = lo-blendAlpha*d, hi+blendAlpha*d
		c1[i] = bd.Clamp(lo + rng.Float64()*(hi-lo))
		c2[i] = bd.Clamp(lo + rng.Float64()*(hi-lo))
	}
	return c1, c2
}

func (g Genetic) mutate(rng *rand.Rand, bounds []Bound, x []float64) {
	for i, bd := range bounds {
		if rng.Float64() >= g.MutationRate || bd.Width() == 0 {
			continue
		}
		v := bd.Clamp(x[i] + rng.NormFloat64()*g.MutationScale*bd.Width())
		if bd.Integer && v == x[i] {
			// Nudge by one so small sigmas still move integer genes.
			if rng.Intn(2) == 0 {
				v = bd.Clamp(x[i] - 1)
			} else {
				v = bd.Clamp(x[i] + 1)
			}
		}
		x[i] = v
	}
}

func (g Genetic) randomPoint(rng *rand.Rand, bounds []Bound) []float64 {
	x := make([]float64, len(bounds))
	for i, bd := range bounds {
		if bd.Integer {
			lo, hi := int(math.Ceil(bd.Min)), int(math.Floor(bd.Max))
			x[i] = float64(lo + rng.Intn(hi-lo+1))
			continue
		}
		x[i] = bd.Min + rng.Float64()*bd.Width()
	}
	return x
}
