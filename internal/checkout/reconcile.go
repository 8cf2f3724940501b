package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/port"
	"go.opentelemetry.io/otel/attribute"
)

// Reconciler applies verified payment gateway events to orders. Handling is idempotent:
// redelivered events leave the order and stock as the first delivery did.
type Reconciler struct {
	store   port.Store
	gateway port.PaymentGateway
	secret  string
	logger  *slog.Logger
	metrics *Metrics
}

func NewReconciler(store port.Store, gateway port.PaymentGateway, cfg Config, logger *slog.Logger, metrics *Metrics) *Reconciler {
	return &Reconciler{
		store:   store,
		gateway: gateway,
		secret:  cfg.WebhookSecret,
		logger:  logger,
		metrics: metrics,
	}
}

// HandlePaymentEvent verifies and applies one webhook delivery. A nil error acknowledges the
// delivery; store failures are returned so the gateway redelivers.
func (r *Reconciler) HandlePaymentEvent(ctx context.Context, payload []byte, signatureHeader string) (err error) {
	ctx, span := tracer.Start(ctx, "checkout.HandlePaymentEvent")
	defer func() { endSpan(span, err) }()

	event, err := r.gateway.VerifyWebhook(payload, signatureHeader, r.secret)
	if err != nil {
		r.metrics.observeWebhook("", webhookInvalidSignature)
		return fmt.Errorf("gateway.VerifyWebhook: %w", err)
	}

	span.SetAttributes(
		attribute.String("event.id", event.ID),
		attribute.String("event.type", string(event.Type)),
		attribute.String("payment_intent.id", event.IntentID),
	)

	logger := r.logger.With(
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
		slog.String("payment_intent_id", event.IntentID))

	if event.Type != domain.PaymentEventSucceeded && event.Type != domain.PaymentEventFailed {
		logger.WarnContext(ctx, "ignoring payment event")
		r.metrics.observeWebhook(event.Type, webhookIgnored)
		return nil
	}

	order, found, err := r.correlate(ctx, event)
	if err != nil {
		r.metrics.observeWebhook(event.Type, webhookError)
		return fmt.Errorf("correlate: %w", err)
	}
	if !found {
		logger.WarnContext(ctx, "no order for payment event")
		r.metrics.observeWebhook(event.Type, webhookUncorrelated)
		return nil
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	logger = logger.With(slog.String("order_id", order.ID.String()))

	var outcome string
	switch event.Type {
	case domain.PaymentEventSucceeded:
		outcome, err = r.markPaid(ctx, logger, order)
	case domain.PaymentEventFailed:
		outcome, err = r.cancel(ctx, logger, order)
	}
	if err != nil {
		r.metrics.observeWebhook(event.Type, webhookError)
		return err
	}

	r.metrics.observeWebhook(event.Type, outcome)
	return nil
}

// correlate finds the order by the order_id metadata first, then by payment intent id.
func (r *Reconciler) correlate(ctx context.Context, event domain.PaymentEvent) (domain.Order, bool, error) {
	if raw, ok := event.Metadata[domain.MetadataOrderID]; ok {
		orderID, err := uuid.Parse(raw)
		if err == nil {
			order, err := r.store.Orders().GetOrder(ctx, orderID)
			switch {
			case err == nil:
				if order.PaymentIntentID != event.IntentID {
					r.logger.ErrorContext(ctx, "order references another payment intent",
						slog.String("order_id", orderID.String()),
						slog.String("order_payment_intent_id", order.PaymentIntentID),
						slog.String("payment_intent_id", event.IntentID))
					return domain.Order{}, false, nil
				}
				return order, true, nil
			case !errors.Is(err, domain.ErrOrderNotFound):
				return domain.Order{}, false, fmt.Errorf("orders.GetOrder: %w", err)
			}
		}
	}

	if event.IntentID == "" {
		return domain.Order{}, false, nil
	}

	orders, err := r.store.Orders().SearchOrders(ctx, domain.OrderFilter{
		PaymentIntentIDs: []string{event.IntentID},
	})
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("orders.SearchOrders: %w", err)
	}
	if len(orders) == 0 {
		return domain.Order{}, false, nil
	}

	return orders[0], true, nil
}

func (r *Reconciler) markPaid(ctx context.Context, logger *slog.Logger, order domain.Order) (string, error) {
	changed, err := r.store.Orders().TransitionStatus(ctx, order.ID, domain.OrderStatusPaid)
	if err != nil {
		return "", fmt.Errorf("orders.TransitionStatus: %w", err)
	}
	if changed {
		logger.InfoContext(ctx, "order paid")
		return webhookPaid, nil
	}

	current, err := r.store.Orders().GetOrder(ctx, order.ID)
	if err != nil {
		return "", fmt.Errorf("orders.GetOrder: %w", err)
	}

	if current.Status == domain.OrderStatusCancelled {
		// captured money for an order whose stock was already released; needs a refund
		logger.ErrorContext(ctx, "payment succeeded for cancelled order")
	}

	return webhookNoop, nil
}

// cancel moves the order to CANCELLED and releases its stock. The release only happens on the
// delivery whose transition changed the order, so duplicates never release twice.
func (r *Reconciler) cancel(ctx context.Context, logger *slog.Logger, order domain.Order) (string, error) {
	var (
		changed  bool
		released int
	)

	err := r.store.WithinTx(ctx, func(tx port.Store) error {
		var err error
		changed, err = tx.Orders().TransitionStatus(ctx, order.ID, domain.OrderStatusCancelled)
		if err != nil {
			return fmt.Errorf("orders.TransitionStatus: %w", err)
		}
		if !changed {
			return nil
		}

		for _, item := range order.Items {
			if err := tx.Catalog().ReleaseStock(ctx, item.ProductID, item.VariantSKU, item.Quantity); err != nil {
				return fmt.Errorf("catalog.ReleaseStock[%s/%s]: %w", item.ProductID, item.VariantSKU, err)
			}
			released++
		}

		return nil
	})
	if err != nil {
		if changed && !r.store.Transactional() {
			// the status write stuck, a redelivery will not release again
			logger.ErrorContext(ctx, "stock release incomplete for cancelled order",
				slog.Int("released_items", released),
				slog.Int("total_items", len(order.Items)),
				slog.Any("error", err))
		}
		return "", fmt.Errorf("store.WithinTx: %w", err)
	}

	if !changed {
		return webhookNoop, nil
	}

	logger.InfoContext(ctx, "order cancelled, stock released", slog.Int("items", released))

	if order.PaymentIntentID != "" {
		err := r.gateway.CancelIntent(context.WithoutCancel(ctx), order.PaymentIntentID)
		r.metrics.observeCompensation(compensationCancelIntent, err)
		if err != nil {
			logger.WarnContext(ctx, "gateway.CancelIntent", slog.Any("error", err))
		}
	}

	return webhookCancelled, nil
}
