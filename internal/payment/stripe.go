package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
	"golang.org/x/text/currency"
)

const DefaultWebhookTolerance = webhook.DefaultTolerance

type StripeConfig struct {
	SecretKey string

	// BackendURL overrides the Stripe API endpoint, e.g. for a local stub.
	BackendURL string
	HTTPClient *http.Client

	// Timeout bounds each gateway call; zero leaves the caller's deadline alone.
	Timeout           time.Duration
	MaxNetworkRetries int64
	WebhookTolerance  time.Duration
}

// StripeGateway implements port.PaymentGateway with Stripe payment intents.
type StripeGateway struct {
	intents   *paymentintent.Client
	timeout   time.Duration
	tolerance time.Duration
}

func NewStripeGateway(cfg StripeConfig, logger *slog.Logger) *StripeGateway {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     &leveledLogger{logger: logger},
	}
	if cfg.BackendURL != "" {
		backendCfg.URL = stripe.String(cfg.BackendURL)
	}

	tolerance := cfg.WebhookTolerance
	if tolerance <= 0 {
		tolerance = DefaultWebhookTolerance
	}

	return &StripeGateway{
		intents: &paymentintent.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		timeout:   cfg.Timeout,
		tolerance: tolerance,
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, unit currency.Unit, metadata map[string]string) (domain.PaymentIntent, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(unit.String())),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.intents.New(params)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("intents.New: %w: %w", domain.ErrPaymentGateway, err)
	}

	return domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     unit,
	}, nil
}

func (g *StripeGateway) UpdateIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	if _, err := g.intents.Update(intentID, params); err != nil {
		return fmt.Errorf("intents.Update: %w: %w", domain.ErrPaymentGateway, err)
	}

	return nil
}

func (g *StripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := g.intents.Cancel(intentID, params); err != nil {
		return fmt.Errorf("intents.Cancel: %w: %w", domain.ErrPaymentGateway, err)
	}

	return nil
}

// VerifyWebhook authenticates payload against the Stripe-Signature header and decodes the
// payment intent the event refers to. Event types other than payment intents decode with an
// empty IntentID.
func (g *StripeGateway) VerifyWebhook(payload []byte, signatureHeader, secret string) (domain.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		Tolerance:                g.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("webhook.ConstructEventWithOptions: %w: %w", domain.ErrInvalidSignature, err)
	}

	result := domain.PaymentEvent{
		ID:   event.ID,
		Type: domain.PaymentEventType(event.Type),
	}

	if !strings.HasPrefix(string(event.Type), "payment_intent.") {
		return result, nil
	}

	if event.Data == nil {
		return domain.PaymentEvent{}, fmt.Errorf("event[%s] has no data: %w", event.ID, domain.ErrMalformedEvent)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("json.Unmarshal: %w: %w", domain.ErrMalformedEvent, err)
	}

	if pi.ID == "" {
		return domain.PaymentEvent{}, fmt.Errorf("event[%s] has no intent id: %w", event.ID, domain.ErrMalformedEvent)
	}

	result.IntentID = pi.ID
	result.Metadata = pi.Metadata

	return result, nil
}

func (g *StripeGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

// isClientError reports whether Stripe answered with a 4xx, e.g. a declined card or an
// intent in an unexpected state. Such answers prove the gateway is healthy.
func isClientError(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500
	}
	return false
}

// leveledLogger routes stripe-go's internal logging into slog.
type leveledLogger struct {
	logger *slog.Logger
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *leveledLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *leveledLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *leveledLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}
