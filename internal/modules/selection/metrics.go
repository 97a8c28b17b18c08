package selection

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	evaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quantpick",
		Name:      "circuit_evaluations_total",
		Help:      "Circuits built and sampled by the grid search.",
	})

	selectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quantpick",
		Name:      "selections_total",
		Help:      "Portfolio selections by result source (sampled, fallback, error).",
	}, []string{"source"})

	selectionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quantpick",
		Name:      "selection_duration_seconds",
		Help:      "Wall time of complete portfolio selections.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 10),
	})
)

func init() {
	prometheus.MustRegister(evaluationsTotal, selectionsTotal, selectionDuration)
}
