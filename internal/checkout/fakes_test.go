package checkout_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/port"
	"golang.org/x/text/currency"
)

// memStore keeps everything in maps. With transactional set, WithinTx restores the state it
// saw on entry when fn fails; otherwise partial writes stay, as with the Mongo store.
type memStore struct {
	mu            sync.Mutex
	transactional bool

	products map[uuid.UUID]domain.Product
	carts    map[string]domain.Cart
	orders   map[uuid.UUID]domain.Order
	events   []domain.OrderEvent
	clock    time.Time

	reserveErr    map[string]error
	releaseErr    error
	insertErr     error
	deleteCartErr error
	transitionErr error
	getOrderErr   error

	releaseCalls int
}

var _ port.Store = (*memStore)(nil)

func newMemStore(transactional bool) *memStore {
	return &memStore{
		transactional: transactional,
		products:      map[uuid.UUID]domain.Product{},
		carts:         map[string]domain.Cart{},
		orders:        map[uuid.UUID]domain.Order{},
		clock:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		reserveErr:    map[string]error{},
	}
}

func (s *memStore) Catalog() port.CatalogRepository { return memCatalog{s} }
func (s *memStore) Carts() port.CartRepository      { return memCarts{s} }
func (s *memStore) Orders() port.OrderRepository    { return memOrders{s} }
func (s *memStore) Outbox() port.OutboxRepository   { return memOutbox{s} }
func (s *memStore) Transactional() bool             { return s.transactional }

func (s *memStore) WithinTx(_ context.Context, fn func(port.Store) error) error {
	if !s.transactional {
		return fn(s)
	}

	saved := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

type memState struct {
	products map[uuid.UUID]domain.Product
	carts    map[string]domain.Cart
	orders   map[uuid.UUID]domain.Order
	events   []domain.OrderEvent
}

func (s *memStore) snapshot() memState {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make(map[uuid.UUID]domain.Product, len(s.products))
	for id, p := range s.products {
		p.Variants = slices.Clone(p.Variants)
		products[id] = p
	}

	return memState{
		products: products,
		carts:    maps.Clone(s.carts),
		orders:   maps.Clone(s.orders),
		events:   slices.Clone(s.events),
	}
}

func (s *memStore) restore(state memState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = state.products
	s.carts = state.carts
	s.orders = state.orders
	s.events = state.events
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) stock(productID uuid.UUID, sku string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	variant, _ := s.products[productID].Variant(sku)
	return variant.StockQuantity
}

func (s *memStore) order(id uuid.UUID) domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.orders[id]
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.orders)
}

func (s *memStore) eventTypes(orderID uuid.UUID) []domain.OrderEventType {
	s.mu.Lock()
	defer s.mu.Unlock()

	var types []domain.OrderEventType
	for _, e := range s.events {
		if e.OrderID == orderID {
			types = append(types, e.Type)
		}
	}
	return types
}

func (s *memStore) hasCart(ownerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.carts[ownerID]
	return ok
}

type memCatalog struct{ s *memStore }

func (c memCatalog) GetProduct(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	p, ok := c.s.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	p.Variants = slices.Clone(p.Variants)
	return p, nil
}

func (c memCatalog) SaveProduct(_ context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	product.Variants = slices.Clone(product.Variants)
	c.s.products[product.ID] = product
	return nil
}

func (c memCatalog) ReserveStock(_ context.Context, productID uuid.UUID, sku string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if err := c.s.reserveErr[sku]; err != nil {
		return err
	}

	p, ok := c.s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	i := slices.IndexFunc(p.Variants, func(v domain.Variant) bool { return v.SKU == sku })
	if i < 0 {
		return domain.ErrVariantNotFound
	}
	if p.Variants[i].StockQuantity < quantity {
		return domain.ErrInsufficientStock
	}

	p.Variants = slices.Clone(p.Variants)
	p.Variants[i].StockQuantity -= quantity
	c.s.products[productID] = p
	return nil
}

func (c memCatalog) ReleaseStock(ctx context.Context, productID uuid.UUID, sku string, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	c.s.releaseCalls++
	if c.s.releaseErr != nil {
		return c.s.releaseErr
	}

	p, ok := c.s.products[productID]
	if !ok {
		return domain.ErrVariantNotFound
	}
	i := slices.IndexFunc(p.Variants, func(v domain.Variant) bool { return v.SKU == sku })
	if i < 0 {
		return domain.ErrVariantNotFound
	}

	p.Variants = slices.Clone(p.Variants)
	p.Variants[i].StockQuantity += quantity
	c.s.products[productID] = p
	return nil
}

type memCarts struct{ s *memStore }

func (c memCarts) GetCart(_ context.Context, ownerID string) (domain.Cart, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	cart, ok := c.s.carts[ownerID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cart.Snapshot(), nil
}

func (c memCarts) SaveCart(_ context.Context, cart domain.Cart) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	c.s.carts[cart.OwnerID] = cart.Snapshot()
	return nil
}

func (c memCarts) DeleteCart(_ context.Context, ownerID string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if c.s.deleteCartErr != nil {
		return c.s.deleteCartErr
	}
	if _, ok := c.s.carts[ownerID]; !ok {
		return domain.ErrCartNotFound
	}
	delete(c.s.carts, ownerID)
	return nil
}

func (c memCarts) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	var n int64
	for owner, cart := range c.s.carts {
		if cart.UpdatedAt.Before(before) {
			delete(c.s.carts, owner)
			n++
		}
	}
	return n, nil
}

type memOrders struct{ s *memStore }

func (o memOrders) GetOrder(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	if o.s.getOrderErr != nil {
		return domain.Order{}, o.s.getOrderErr
	}

	order, ok := o.s.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

func (o memOrders) SearchOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	var result []domain.Order
	for _, order := range o.s.orders {
		if filter.Matches(order) {
			result = append(result, order)
		}
	}

	slices.SortFunc(result, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result, nil
}

func (o memOrders) InsertOrder(_ context.Context, order domain.Order) (uuid.UUID, error) {
	if err := order.Validate(); err != nil {
		return uuid.Nil, err
	}

	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	if o.s.insertErr != nil {
		return uuid.Nil, o.s.insertErr
	}

	for _, existing := range o.s.orders {
		if order.PaymentIntentID != "" && existing.PaymentIntentID == order.PaymentIntentID {
			return uuid.Nil, errors.New("duplicate payment intent id")
		}
	}

	now := o.s.tick()
	order.ID = uuid.New()
	order.CreatedAt = now
	order.UpdatedAt = now
	o.s.orders[order.ID] = order

	return order.ID, o.s.appendEvent(order, domain.OrderStatusPending, now)
}

func (o memOrders) TransitionStatus(_ context.Context, orderID uuid.UUID, status domain.OrderStatus) (bool, error) {
	if len(status.Predecessors()) == 0 {
		return false, domain.ErrIllegalTransition
	}

	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	if o.s.transitionErr != nil {
		return false, o.s.transitionErr
	}

	order, ok := o.s.orders[orderID]
	if !ok {
		return false, domain.ErrOrderNotFound
	}
	if !order.Status.CanTransitionTo(status) {
		return false, nil
	}

	now := o.s.tick()
	order.Status = status
	order.UpdatedAt = now
	o.s.orders[orderID] = order

	return true, o.s.appendEvent(order, status, now)
}

func (s *memStore) appendEvent(order domain.Order, status domain.OrderStatus, at time.Time) error {
	event, err := domain.NewOrderEvent(order, status, at)
	if err != nil {
		return err
	}
	event.ID = int64(len(s.events) + 1)
	s.events = append(s.events, event)
	return nil
}

type memOutbox struct{ s *memStore }

func (o memOutbox) FetchPending(_ context.Context, limit int) ([]domain.OrderEvent, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	var pending []domain.OrderEvent
	for _, e := range o.s.events {
		if e.SentAt == nil && len(pending) < limit {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

func (o memOutbox) MarkSent(_ context.Context, eventID int64) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	for i := range o.s.events {
		if o.s.events[i].ID == eventID && o.s.events[i].SentAt == nil {
			now := o.s.tick()
			o.s.events[i].SentAt = &now
		}
	}
	return nil
}

type createdIntent struct {
	ID       string
	Amount   int64
	Currency currency.Unit
	Metadata map[string]string
}

type fakeGateway struct {
	mu sync.Mutex

	createErr error
	updateErr error
	cancelErr error
	// onCreate runs before CreateIntent returns, e.g. to cancel the caller's context
	onCreate func()

	created   []createdIntent
	metadata  map[string]map[string]string
	cancelled []string
}

var _ port.PaymentGateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{metadata: map[string]map[string]string{}}
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, unit currency.Unit, metadata map[string]string) (domain.PaymentIntent, error) {
	if g.onCreate != nil {
		g.onCreate()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return domain.PaymentIntent{}, g.createErr
	}

	id := fmt.Sprintf("pi_%d", len(g.created)+1)
	g.created = append(g.created, createdIntent{ID: id, Amount: amount, Currency: unit, Metadata: maps.Clone(metadata)})
	g.metadata[id] = maps.Clone(metadata)

	return domain.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       amount,
		Currency:     unit,
	}, nil
}

func (g *fakeGateway) UpdateIntentMetadata(_ context.Context, intentID string, metadata map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.updateErr != nil {
		return g.updateErr
	}
	maps.Copy(g.metadata[intentID], metadata)
	return nil
}

func (g *fakeGateway) CancelIntent(_ context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancelled = append(g.cancelled, intentID)
	return nil
}

// VerifyWebhook accepts a payload whose header is the secret itself and decodes it as a
// domain.PaymentEvent.
func (g *fakeGateway) VerifyWebhook(payload []byte, signatureHeader, secret string) (domain.PaymentEvent, error) {
	if signatureHeader != secret {
		return domain.PaymentEvent{}, domain.ErrInvalidSignature
	}

	var event domain.PaymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("%w: %w", domain.ErrMalformedEvent, err)
	}
	return event, nil
}

func (g *fakeGateway) intentMetadata(intentID string) map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return maps.Clone(g.metadata[intentID])
}
