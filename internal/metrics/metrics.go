// Package metrics exposes the engine's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters the dispatcher reports on.
type Metrics struct {
	Ticks           prometheus.Counter
	Dispatches      prometheus.Counter
	DispatchErrors  prometheus.Counter
	DedupSuppressed prometheus.Counter
	TickErrors      prometheus.Counter
}

// New registers the engine counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "medibuddy_scheduler_ticks_total",
			Help: "Number of completed poll-loop ticks.",
		}),
		Dispatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "medibuddy_dispatches_total",
			Help: "Number of reminder notifications handed to the transport.",
		}),
		DispatchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "medibuddy_dispatch_errors_total",
			Help: "Number of reminder notifications the transport failed to send.",
		}),
		DedupSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "medibuddy_dispatches_suppressed_total",
			Help: "Number of dispatches suppressed because the same alarm minute was already sent.",
		}),
		TickErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "medibuddy_scheduler_tick_errors_total",
			Help: "Number of ticks aborted because the store could not be read.",
		}),
	}
}
