package domain

import "errors"

var (
	// precondition
	ErrEmptyCart              = errors.New("cart is empty")
	ErrProductNotFound        = errors.New("product not found")
	ErrVariantNotFound        = errors.New("variant not found")
	ErrInvalidShippingAddress = errors.New("invalid shipping address")

	// contention
	ErrInsufficientStock = errors.New("insufficient stock")

	// external
	ErrPaymentGateway   = errors.New("payment gateway error")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed payment event")

	// persistence
	ErrOrderPersistence = errors.New("order persistence failed")

	ErrCartNotFound      = errors.New("cart not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal order status transition")
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindPrecondition
	KindContention
	KindExternal
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindContention:
		return "contention"
	case KindExternal:
		return "external"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// KindOf classifies err for callers that map failures onto a transport, e.g. HTTP status codes.
// A failed step may be joined with compensation errors, so persistence and external failures
// win over the kinds a release error can carry.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrOrderPersistence):
		return KindPersistence
	case errors.Is(err, ErrPaymentGateway),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrMalformedEvent):
		return KindExternal
	case errors.Is(err, ErrInsufficientStock):
		return KindContention
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrVariantNotFound),
		errors.Is(err, ErrInvalidShippingAddress):
		return KindPrecondition
	default:
		return KindUnknown
	}
}
