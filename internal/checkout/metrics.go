package checkout

import (
	"errors"

	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	reservationReserved     = "reserved"
	reservationInsufficient = "insufficient_stock"
	reservationNotFound     = "not_found"
	reservationError        = "error"

	compensationReleaseStock = "release_stock"
	compensationCancelIntent = "cancel_intent"

	webhookPaid             = "paid"
	webhookCancelled        = "cancelled"
	webhookNoop             = "noop"
	webhookUncorrelated     = "uncorrelated"
	webhookIgnored          = "ignored"
	webhookInvalidSignature = "invalid_signature"
	webhookError            = "error"
)

type Metrics struct {
	checkouts     *prometheus.CounterVec
	reservations  *prometheus.CounterVec
	compensations *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
}

// NewMetrics registers the checkout collectors on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockcheckout",
			Subsystem: "checkout",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockcheckout",
			Subsystem: "checkout",
			Name:      "stock_reservations_total",
			Help:      "Conditional stock decrements by result.",
		}, []string{"result"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockcheckout",
			Subsystem: "checkout",
			Name:      "compensations_total",
			Help:      "Compensating actions by action and whether they succeeded.",
		}, []string{"action", "ok"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockcheckout",
			Subsystem: "reconciliation",
			Name:      "webhook_events_total",
			Help:      "Payment webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.checkouts, m.reservations, m.compensations, m.webhookEvents)
	}

	return m
}

func (m *Metrics) observeCheckout(err error) {
	outcome := "success"
	if err != nil {
		outcome = domain.KindOf(err).String()
	}
	m.checkouts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeReservation(err error) {
	var result string
	switch {
	case err == nil:
		result = reservationReserved
	case errors.Is(err, domain.ErrInsufficientStock):
		result = reservationInsufficient
	case errors.Is(err, domain.ErrVariantNotFound), errors.Is(err, domain.ErrProductNotFound):
		result = reservationNotFound
	default:
		result = reservationError
	}
	m.reservations.WithLabelValues(result).Inc()
}

func (m *Metrics) observeCompensation(action string, err error) {
	ok := "true"
	if err != nil {
		ok = "false"
	}
	m.compensations.WithLabelValues(action, ok).Inc()
}

func (m *Metrics) observeWebhook(eventType domain.PaymentEventType, outcome string) {
	m.webhookEvents.WithLabelValues(string(eventType), outcome).Inc()
}
