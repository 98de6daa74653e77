package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics fed by the load harness.
type Metrics struct {
	calls           *prometheus.CounterVec
	acquireDuration prometheus.Histogram
}

// NewMetrics creates the harness collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Total number of calls that asked the rate limiter for a ticket",
			},
			[]string{"result"},
		),

		acquireDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "acquire_duration_seconds",
				Help:      "Time spent waiting for the rate limiter admission decision",
				Buckets:   []float64{.000001, .000005, .00001, .00005, .0001, .0005, .001, .005, .01},
			},
		),
	}
}

func (m *Metrics) observe(admitted bool, took time.Duration) {
	result := "rejected"
	if admitted {
		result = "admitted"
	}
	m.calls.WithLabelValues(result).Inc()
	m.acquireDuration.Observe(took.Seconds())
}
