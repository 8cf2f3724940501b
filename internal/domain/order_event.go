package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order.created"
	OrderEventPaid      OrderEventType = "order.paid"
	OrderEventCancelled OrderEventType = "order.cancelled"
	OrderEventShipped   OrderEventType = "order.shipped"
	OrderEventRefunded  OrderEventType = "order.refunded"
)

var statusEvents = map[OrderStatus]OrderEventType{
	OrderStatusPending:   OrderEventCreated,
	OrderStatusPaid:      OrderEventPaid,
	OrderStatusCancelled: OrderEventCancelled,
	OrderStatusShipped:   OrderEventShipped,
	OrderStatusRefunded:  OrderEventRefunded,
}

// OrderEvent is an outbox record, relayed to the message broker after the order write commits.
type OrderEvent struct {
	ID        int64
	OrderID   uuid.UUID
	Type      OrderEventType
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}

type orderEventPayload struct {
	OrderID         uuid.UUID   `json:"order_id"`
	UserID          string      `json:"user_id"`
	Status          OrderStatus `json:"status"`
	TotalAmount     string      `json:"total_amount"`
	Currency        string      `json:"currency"`
	PaymentIntentID string      `json:"payment_intent_id,omitempty"`
	OccurredAt      time.Time   `json:"occurred_at"`
}

// NewOrderEvent builds the outbox record announcing that o reached status.
func NewOrderEvent(o Order, status OrderStatus, at time.Time) (OrderEvent, error) {
	payload, err := json.Marshal(orderEventPayload{
		OrderID:         o.ID,
		UserID:          o.OwnerID,
		Status:          status,
		TotalAmount:     o.Total.Amount.String(),
		Currency:        o.Total.Currency.String(),
		PaymentIntentID: o.PaymentIntentID,
		OccurredAt:      at.UTC(),
	})
	if err != nil {
		return OrderEvent{}, err
	}

	return OrderEvent{
		OrderID:   o.ID,
		Type:      statusEvents[status],
		Payload:   payload,
		CreatedAt: at,
	}, nil
}
