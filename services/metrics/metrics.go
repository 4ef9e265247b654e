// Package metricsvc exposes the reordering outcomes as Prometheus metrics.
package metricsvc

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

// ReorderMetrics counts the outcome of every move, per collection.
type ReorderMetrics struct {
	outcomes  *prometheus.CounterVec
	groupSize *prometheus.HistogramVec
}

var _ ordering.Notifier = (*ReorderMetrics)(nil) // interface compliance check

// NewReorderMetrics registers the metrics on registerer (the default one when nil).
func NewReorderMetrics(registerer prometheus.Registerer) *ReorderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &ReorderMetrics{
		outcomes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "qrcodile_reorder_moves_total",
			Help: "Total number of drag & drop moves by collection and outcome",
		}, []string{"collection", "outcome"}),
		groupSize: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "qrcodile_reorder_group_size",
			Help:    "Number of entities in the reordered group",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		}, []string{"collection"}),
	}
}

// Notify records n.
func (m *ReorderMetrics) Notify(n ordering.Notification) {
	m.outcomes.WithLabelValues(n.Collection, n.Kind.String()).Inc()
	if n.Kind == ordering.MovePersisted {
		m.groupSize.WithLabelValues(n.Collection).Observe(float64(len(n.Sequence)))
	}
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
