package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/port"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/text/currency"
)

type BreakerConfig struct {
	Name string

	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// HalfOpenRequests is how many probes are let through while half-open.
	HalfOpenRequests uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "payment-gateway",
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

// BreakerGateway fails fast with ErrPaymentGateway while the wrapped gateway keeps failing.
// Webhook verification is local and bypasses the breaker.
type BreakerGateway struct {
	next port.PaymentGateway
	cb   *gobreaker.CircuitBreaker[domain.PaymentIntent]
}

func NewBreakerGateway(next port.PaymentGateway, cfg BreakerConfig, logger *slog.Logger) *BreakerGateway {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &BreakerGateway{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[domain.PaymentIntent](settings),
	}
}

func (g *BreakerGateway) CreateIntent(ctx context.Context, amount int64, unit currency.Unit, metadata map[string]string) (domain.PaymentIntent, error) {
	return g.execute(func() (domain.PaymentIntent, error) {
		return g.next.CreateIntent(ctx, amount, unit, metadata)
	})
}

func (g *BreakerGateway) UpdateIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) error {
	_, err := g.execute(func() (domain.PaymentIntent, error) {
		return domain.PaymentIntent{}, g.next.UpdateIntentMetadata(ctx, intentID, metadata)
	})
	return err
}

func (g *BreakerGateway) CancelIntent(ctx context.Context, intentID string) error {
	_, err := g.execute(func() (domain.PaymentIntent, error) {
		return domain.PaymentIntent{}, g.next.CancelIntent(ctx, intentID)
	})
	return err
}

func (g *BreakerGateway) VerifyWebhook(payload []byte, signatureHeader, secret string) (domain.PaymentEvent, error) {
	return g.next.VerifyWebhook(payload, signatureHeader, secret)
}

func (g *BreakerGateway) State() gobreaker.State {
	return g.cb.State()
}

func (g *BreakerGateway) execute(fn func() (domain.PaymentIntent, error)) (domain.PaymentIntent, error) {
	result, err := g.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return result, fmt.Errorf("cb.Execute: %w: %w", domain.ErrPaymentGateway, err)
	}
	return result, err
}
