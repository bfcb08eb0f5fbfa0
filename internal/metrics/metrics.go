// Package metrics exposes process-wide prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SimulationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microgrid_simulations_total",
		Help: "Simulation runs completed, across all callers.",
	})

	SearchEvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microgrid_search_evaluations_total",
		Help: "Objective evaluations requested by optimizers.",
	})

	BestCost = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "microgrid_best_cost",
		Help: "Equivalent annual cost of the last best design per optimizer.",
	}, []string{"optimizer"})

	BestUnmetKWh = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "microgrid_best_unmet_kwh",
		Help: "Annualised unmet energy of the last best design per optimizer.",
	}, []string{"optimizer"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "microgrid_search_duration_seconds",
		Help:    "Wall time of sizing searches.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"optimizer"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
