package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nikolayk812/stockcheckout/internal/domain"
)

const maxWebhookBodyBytes = int64(65536)

type paymentEventHandler interface {
	HandlePaymentEvent(ctx context.Context, payload []byte, signatureHeader string) error
}

// webhookHandler acknowledges a delivery with 200 once it is applied, rejects unverifiable
// deliveries with 400 and asks the gateway to redeliver with 500.
func webhookHandler(h paymentEventHandler, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
		if err != nil {
			logger.WarnContext(r.Context(), "webhook body", slog.Any("error", err))
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}

		err = h.HandlePaymentEvent(r.Context(), body, r.Header.Get("Stripe-Signature"))
		switch {
		case err == nil:
			w.WriteHeader(http.StatusOK)
		case errors.Is(err, domain.ErrInvalidSignature), errors.Is(err, domain.ErrMalformedEvent):
			logger.WarnContext(r.Context(), "webhook rejected", slog.Any("error", err))
			http.Error(w, "invalid event", http.StatusBadRequest)
		default:
			logger.ErrorContext(r.Context(), "webhook failed", slog.Any("error", err))
			http.Error(w, "retry later", http.StatusInternalServerError)
		}
	}
}
