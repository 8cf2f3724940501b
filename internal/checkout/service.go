package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/currency"
)

const compensationTimeout = 30 * time.Second

type Config struct {
	Currency      currency.Unit
	WebhookSecret string
}

type CheckoutResult struct {
	Order        domain.Order
	ClientSecret string
}

type Service struct {
	store   port.Store
	gateway port.PaymentGateway
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

func NewService(store port.Store, gateway port.PaymentGateway, cfg Config, logger *slog.Logger, metrics *Metrics) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

type reservation struct {
	productID uuid.UUID
	sku       string
	quantity  int
}

// Checkout turns the caller's cart into a PENDING order backed by a payment intent.
// Every failure after a reservation succeeded releases what was reserved.
func (s *Service) Checkout(ctx context.Context, caller domain.Caller, address domain.ShippingAddress) (_ CheckoutResult, err error) {
	ctx, span := tracer.Start(ctx, "checkout.Checkout", trace.WithAttributes(attribute.String("caller.id", caller.ID)))
	defer func() {
		s.metrics.observeCheckout(err)
		endSpan(span, err)
	}()

	if caller.ID == "" {
		return CheckoutResult{}, errors.New("caller id is empty")
	}

	if err := address.Validate(); err != nil {
		return CheckoutResult{}, fmt.Errorf("address.Validate: %w: %w", domain.ErrInvalidShippingAddress, err)
	}

	cart, err := ReadCartSnapshot(ctx, s.store.Carts(), caller.ID)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("ReadCartSnapshot: %w", err)
	}

	var (
		items        []domain.OrderItem
		reservations []reservation
	)

	err = s.store.WithinTx(ctx, func(tx port.Store) error {
		var txErr error
		items, reservations, txErr = s.reserveAll(ctx, tx.Catalog(), caller, cart)
		return txErr
	})
	if err != nil {
		// a transactional store already rolled the decrements back
		if !s.store.Transactional() {
			err = errors.Join(err, s.releaseAll(ctx, reservations))
		}
		return CheckoutResult{}, fmt.Errorf("store.WithinTx: %w", err)
	}

	total := OrderTotal(items, s.cfg.Currency)
	span.SetAttributes(attribute.String("order.total", total.String()))

	intent, err := s.gateway.CreateIntent(ctx, total.MinorUnits(), total.Currency, map[string]string{
		domain.MetadataUserID: caller.ID,
	})
	if err != nil {
		err = fmt.Errorf("gateway.CreateIntent: %w", err)
		return CheckoutResult{}, errors.Join(err, s.releaseAll(ctx, reservations))
	}

	order := domain.Order{
		OwnerID:         caller.ID,
		Items:           items,
		Total:           total,
		ShippingAddress: address,
		Status:          domain.OrderStatusPending,
		PaymentIntentID: intent.ID,
	}

	orderID, err := s.store.Orders().InsertOrder(ctx, order)
	if err != nil {
		err = fmt.Errorf("orders.InsertOrder: %w: %w", domain.ErrOrderPersistence, err)
		err = errors.Join(err, s.releaseAll(ctx, reservations))
		s.cancelIntent(ctx, intent.ID)
		return CheckoutResult{}, err
	}

	now := s.now().UTC()
	order.ID = orderID
	order.CreatedAt = now
	order.UpdatedAt = now

	logger := s.logger.With(slog.String("order_id", orderID.String()), slog.String("payment_intent_id", intent.ID))

	if err := s.gateway.UpdateIntentMetadata(ctx, intent.ID, map[string]string{
		domain.MetadataOrderID: orderID.String(),
	}); err != nil {
		logger.WarnContext(ctx, "gateway.UpdateIntentMetadata", slog.Any("error", err))
	}

	if err := s.store.Carts().DeleteCart(ctx, caller.ID); err != nil {
		logger.WarnContext(ctx, "carts.DeleteCart", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "order placed", slog.String("total", total.String()))

	return CheckoutResult{
		Order:        order,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// reserveAll resolves and decrements every cart line in cart order. On failure it returns the
// reservations made so far alongside the error.
func (s *Service) reserveAll(ctx context.Context, catalog port.CatalogRepository, caller domain.Caller, cart domain.Cart) ([]domain.OrderItem, []reservation, error) {
	items := make([]domain.OrderItem, 0, len(cart.Items))
	reservations := make([]reservation, 0, len(cart.Items))

	for _, line := range cart.Items {
		product, err := catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			s.metrics.observeReservation(err)
			return nil, reservations, fmt.Errorf("catalog.GetProduct: %w", err)
		}

		if !product.VisibleTo(caller) {
			err := fmt.Errorf("product[%s]: %w", product.ID, domain.ErrProductNotFound)
			s.metrics.observeReservation(err)
			return nil, reservations, err
		}

		variant, ok := product.Variant(line.VariantSKU)
		if !ok {
			err := fmt.Errorf("product[%s] sku[%s]: %w", product.ID, line.VariantSKU, domain.ErrVariantNotFound)
			s.metrics.observeReservation(err)
			return nil, reservations, err
		}

		err = catalog.ReserveStock(ctx, product.ID, variant.SKU, line.Quantity)
		s.metrics.observeReservation(err)
		if err != nil {
			return nil, reservations, fmt.Errorf("catalog.ReserveStock: %w", err)
		}

		reservations = append(reservations, reservation{productID: product.ID, sku: variant.SKU, quantity: line.Quantity})
		items = append(items, snapshotItem(product, variant, line.Quantity))
	}

	return items, reservations, nil
}

// releaseAll returns every reservation to stock once. It runs detached from the caller's
// cancellation so an abandoned request still restores stock.
func (s *Service) releaseAll(ctx context.Context, reservations []reservation) error {
	if len(reservations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var errs []error
	for _, r := range reservations {
		err := s.store.Catalog().ReleaseStock(ctx, r.productID, r.sku, r.quantity)
		s.metrics.observeCompensation(compensationReleaseStock, err)
		if err != nil {
			s.logger.ErrorContext(ctx, "catalog.ReleaseStock",
				slog.String("product_id", r.productID.String()),
				slog.String("sku", r.sku),
				slog.Int("quantity", r.quantity),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("catalog.ReleaseStock[%s/%s]: %w", r.productID, r.sku, err))
		}
	}

	return errors.Join(errs...)
}

func (s *Service) cancelIntent(ctx context.Context, intentID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	err := s.gateway.CancelIntent(ctx, intentID)
	s.metrics.observeCompensation(compensationCancelIntent, err)
	if err != nil {
		s.logger.WarnContext(ctx, "gateway.CancelIntent",
			slog.String("payment_intent_id", intentID),
			slog.Any("error", err))
	}
}

// ListOrders returns the caller's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, caller domain.Caller) ([]domain.Order, error) {
	if caller.ID == "" {
		return nil, errors.New("caller id is empty")
	}

	orders, err := s.store.Orders().SearchOrders(ctx, domain.OrderFilter{
		OwnerIDs: []string{caller.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("orders.SearchOrders: %w", err)
	}

	return orders, nil
}

// GetOrder returns one order of the caller. Orders of other owners are reported as not found
// unless the caller is an admin.
func (s *Service) GetOrder(ctx context.Context, caller domain.Caller, orderID uuid.UUID) (domain.Order, error) {
	order, err := s.store.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if order.OwnerID != caller.ID && !caller.IsAdmin() {
		return domain.Order{}, fmt.Errorf("order[%s]: %w", orderID, domain.ErrOrderNotFound)
	}

	return order, nil
}
