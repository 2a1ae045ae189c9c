package coinbasepro

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	o := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cbpro",
				Name:      "requests_total",
				Help:      "Total number of Coinbase Pro REST requests by endpoint and outcome",
			},
			[]string{"endpoint", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cbpro",
				Name:      "request_duration_seconds",
				Help:      "Duration of Coinbase Pro REST requests in seconds",
				Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"endpoint"},
		),
	}

	if reg == nil {
		return o
	}

	//
	// Register the collectors. If another client already registered them against the same registry,
	// share the existing ones instead.
	//
	o.requests = register(reg, o.requests)
	o.duration = register(reg, o.duration)

	return o
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}

	return c
}
