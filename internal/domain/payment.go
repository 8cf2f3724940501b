package domain

import "golang.org/x/text/currency"

const (
	MetadataOrderID = "order_id"
	MetadataUserID  = "user_id"
)

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64 // minor units
	Currency     currency.Unit
}

type PaymentEventType string

const (
	PaymentEventSucceeded PaymentEventType = "payment_intent.succeeded"
	PaymentEventFailed    PaymentEventType = "payment_intent.payment_failed"
)

// PaymentEvent is a verified gateway notification about a payment intent.
type PaymentEvent struct {
	ID       string
	Type     PaymentEventType
	IntentID string
	Metadata map[string]string
}
