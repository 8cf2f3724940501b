package worker

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	published  prometheus.Counter
	publishErr prometheus.Counter
	swept      prometheus.Counter
}

// NewMetrics registers the worker collectors on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockcheckout",
			Subsystem: "outbox",
			Name:      "events_published_total",
			Help:      "Order events relayed to the broker.",
		}),
		publishErr: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockcheckout",
			Subsystem: "outbox",
			Name:      "publish_failures_total",
			Help:      "Relay passes that failed to publish or mark a batch.",
		}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockcheckout",
			Subsystem: "carts",
			Name:      "expired_deleted_total",
			Help:      "Carts removed after their retention period.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.published, m.publishErr, m.swept)
	}

	return m
}
