package port

import (
	"context"

	"github.com/nikolayk812/stockcheckout/internal/domain"
	"golang.org/x/text/currency"
)

type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, unit currency.Unit, metadata map[string]string) (domain.PaymentIntent, error)

	UpdateIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) error

	CancelIntent(ctx context.Context, intentID string) error

	// VerifyWebhook checks the signature header of the raw body against secret and decodes
	// the event. ErrInvalidSignature on mismatch.
	VerifyWebhook(payload []byte, signatureHeader, secret string) (domain.PaymentEvent, error)
}
