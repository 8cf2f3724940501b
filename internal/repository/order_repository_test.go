package repository_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/port"
	"github.com/nikolayk812/stockcheckout/internal/repository"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

type orderRepositorySuite struct {
	suite.Suite

	repo      port.OrderRepository
	outbox    port.OutboxRepository
	pool      *pgxpool.Pool
	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestOrderRepositorySuite(t *testing.T) {
	suite.Run(t, new(orderRepositorySuite))
}

// before all tests in the suite
func (suite *orderRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var (
		connStr string
		err     error
	)

	suite.container, connStr, err = startPostgres(ctx)
	suite.Require().NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.Require().NoError(err)

	suite.repo = repository.NewOrder(suite.pool)
	suite.outbox = repository.NewOutbox(suite.pool)
}

// after all tests in the suite
func (suite *orderRepositorySuite) TearDownSuite() {
	ctx := suite.T().Context()

	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

func (suite *orderRepositorySuite) TestInsertOrder() {
	defer suite.deleteAll()

	tests := []struct {
		name      string
		orderFunc func() domain.Order
		wantError bool
	}{
		{
			name:      "valid order with all fields: ok",
			orderFunc: fakeOrder,
		},
		{
			name: "valid order, no second address line, no intent: ok",
			orderFunc: func() domain.Order {
				o := fakeOrder()
				o.ShippingAddress.AddressLine2 = nil
				o.PaymentIntentID = ""
				return o
			},
		},
		{
			name: "no items: fail",
			orderFunc: func() domain.Order {
				o := fakeOrder()
				o.Items = nil
				return o
			},
			wantError: true,
		},
		{
			name: "total does not match items: fail",
			orderFunc: func() domain.Order {
				o := fakeOrder()
				o.Total.Amount = o.Total.Amount.Add(o.Total.Amount)
				return o
			},
			wantError: true,
		},
		{
			name: "missing city: fail",
			orderFunc: func() domain.Order {
				o := fakeOrder()
				o.ShippingAddress.City = ""
				return o
			},
			wantError: true,
		},
		{
			name: "not pending: fail",
			orderFunc: func() domain.Order {
				o := fakeOrder()
				o.Status = domain.OrderStatusPaid
				return o
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			order := tt.orderFunc()

			orderID, err := suite.repo.InsertOrder(ctx, order)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			actual, err := suite.repo.GetOrder(ctx, orderID)
			require.NoError(t, err)

			expected := order
			expected.ID = orderID

			assertOrder(t, expected, actual)

			events := suite.pendingEvents(orderID)
			require.Len(t, events, 1)
			assert.Equal(t, domain.OrderEventCreated, events[0].Type)
		})
	}
}

func (suite *orderRepositorySuite) TestInsertOrder_DuplicatePaymentIntent() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	first := fakeOrder()
	_, err := suite.repo.InsertOrder(ctx, first)
	require.NoError(t, err)

	second := fakeOrder()
	second.PaymentIntentID = first.PaymentIntentID
	_, err = suite.repo.InsertOrder(ctx, second)
	require.Error(t, err)

	// the failed insert must leave neither the order nor its event behind
	orders, err := suite.repo.SearchOrders(ctx, domain.OrderFilter{OwnerIDs: []string{second.OwnerID}})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func (suite *orderRepositorySuite) TestGetOrder_NotFound() {
	_, err := suite.repo.GetOrder(suite.T().Context(), uuid.New())
	suite.ErrorIs(err, domain.ErrOrderNotFound)
}

func (suite *orderRepositorySuite) TestTransitionStatus() {
	tests := []struct {
		name        string
		path        []domain.OrderStatus // applied before the transition under test
		target      domain.OrderStatus
		wantChanged bool
		wantStatus  domain.OrderStatus
		wantError   error
	}{
		{
			name:        "pending to paid: ok",
			target:      domain.OrderStatusPaid,
			wantChanged: true,
			wantStatus:  domain.OrderStatusPaid,
		},
		{
			name:        "pending to cancelled: ok",
			target:      domain.OrderStatusCancelled,
			wantChanged: true,
			wantStatus:  domain.OrderStatusCancelled,
		},
		{
			name:        "paid to paid: unchanged",
			path:        []domain.OrderStatus{domain.OrderStatusPaid},
			target:      domain.OrderStatusPaid,
			wantChanged: false,
			wantStatus:  domain.OrderStatusPaid,
		},
		{
			name:        "cancelled to paid: unchanged",
			path:        []domain.OrderStatus{domain.OrderStatusCancelled},
			target:      domain.OrderStatusPaid,
			wantChanged: false,
			wantStatus:  domain.OrderStatusCancelled,
		},
		{
			name:        "paid to cancelled: unchanged",
			path:        []domain.OrderStatus{domain.OrderStatusPaid},
			target:      domain.OrderStatusCancelled,
			wantChanged: false,
			wantStatus:  domain.OrderStatusPaid,
		},
		{
			name:        "shipped to refunded: ok",
			path:        []domain.OrderStatus{domain.OrderStatusPaid, domain.OrderStatusShipped},
			target:      domain.OrderStatusRefunded,
			wantChanged: true,
			wantStatus:  domain.OrderStatusRefunded,
		},
		{
			name:       "back to pending: illegal",
			target:     domain.OrderStatusPending,
			wantStatus: domain.OrderStatusPending,
			wantError:  domain.ErrIllegalTransition,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			defer suite.deleteAll()

			t := suite.T()
			ctx := t.Context()

			orderID, err := suite.repo.InsertOrder(ctx, fakeOrder())
			require.NoError(t, err)

			for _, status := range tt.path {
				changed, err := suite.repo.TransitionStatus(ctx, orderID, status)
				require.NoError(t, err)
				require.True(t, changed)
			}

			changed, err := suite.repo.TransitionStatus(ctx, orderID, tt.target)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantChanged, changed)
			}

			actual, err := suite.repo.GetOrder(ctx, orderID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, actual.Status)

			// one event per applied transition plus order.created
			wantEvents := 1 + len(tt.path) + lo.Ternary(changed, 1, 0)
			assert.Len(t, suite.pendingEvents(orderID), wantEvents)
		})
	}
}

func (suite *orderRepositorySuite) TestTransitionStatus_NotFound() {
	_, err := suite.repo.TransitionStatus(suite.T().Context(), uuid.New(), domain.OrderStatusPaid)
	suite.ErrorIs(err, domain.ErrOrderNotFound)
}

func (suite *orderRepositorySuite) TestTransitionStatus_EventPayload() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	order := fakeOrder()
	orderID, err := suite.repo.InsertOrder(ctx, order)
	require.NoError(t, err)

	changed, err := suite.repo.TransitionStatus(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)
	require.True(t, changed)

	events := suite.pendingEvents(orderID)
	require.Len(t, events, 2)

	paid := events[1]
	assert.Equal(t, domain.OrderEventPaid, paid.Type)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(paid.Payload, &payload))
	assert.Equal(t, orderID.String(), payload["order_id"])
	assert.Equal(t, order.OwnerID, payload["user_id"])
	assert.Equal(t, "PAID", payload["status"])
	assert.Equal(t, order.PaymentIntentID, payload["payment_intent_id"])
	assert.Equal(t, "USD", payload["currency"])
}

func (suite *orderRepositorySuite) TestSearchOrders() {
	defer suite.deleteAll()

	ctx := suite.T().Context()

	ownerID := gofakeit.UUID()

	older := fakeOrder()
	older.OwnerID = ownerID
	newer := fakeOrder()
	newer.OwnerID = ownerID
	other := fakeOrder()

	olderID := suite.insertOrder(older)
	time.Sleep(10 * time.Millisecond)
	newerID := suite.insertOrder(newer)
	otherID := suite.insertOrder(other)

	_, err := suite.repo.TransitionStatus(ctx, otherID, domain.OrderStatusPaid)
	suite.Require().NoError(err)

	now := time.Now()

	tests := []struct {
		name      string
		filter    domain.OrderFilter
		wantIDs   []uuid.UUID
		wantError bool
	}{
		{
			name:    "by owner, newest first",
			filter:  domain.OrderFilter{OwnerIDs: []string{ownerID}},
			wantIDs: []uuid.UUID{newerID, olderID},
		},
		{
			name:    "by id",
			filter:  domain.OrderFilter{IDs: []uuid.UUID{olderID}},
			wantIDs: []uuid.UUID{olderID},
		},
		{
			name:    "by payment intent",
			filter:  domain.OrderFilter{PaymentIntentIDs: []string{other.PaymentIntentID}},
			wantIDs: []uuid.UUID{otherID},
		},
		{
			name:    "by status",
			filter:  domain.OrderFilter{Statuses: []domain.OrderStatus{domain.OrderStatusPaid}},
			wantIDs: []uuid.UUID{otherID},
		},
		{
			name:    "owner and status, no match",
			filter:  domain.OrderFilter{OwnerIDs: []string{ownerID}, Statuses: []domain.OrderStatus{domain.OrderStatusPaid}},
			wantIDs: nil,
		},
		{
			name:    "created in the future, no match",
			filter:  domain.OrderFilter{OwnerIDs: []string{ownerID}, CreatedAt: &domain.TimeRange{After: lo.ToPtr(now.Add(time.Hour))}},
			wantIDs: nil,
		},
		{
			name:      "empty filter: fail",
			filter:    domain.OrderFilter{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			orders, err := suite.repo.SearchOrders(t.Context(), tt.filter)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			actualIDs := lo.Map(orders, func(o domain.Order, _ int) uuid.UUID { return o.ID })
			assert.Equal(t, tt.wantIDs, nilSliceIfEmpty(actualIDs))

			for _, o := range orders {
				assert.NotEmpty(t, o.Items)
			}
		})
	}
}

func (suite *orderRepositorySuite) TestMarkSent() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	orderID := suite.insertOrder(fakeOrder())

	events := suite.pendingEvents(orderID)
	require.Len(t, events, 1)

	require.NoError(t, suite.outbox.MarkSent(ctx, events[0].ID))
	require.NoError(t, suite.outbox.MarkSent(ctx, events[0].ID))

	assert.Empty(t, suite.pendingEvents(orderID))
}

func (suite *orderRepositorySuite) insertOrder(order domain.Order) uuid.UUID {
	id, err := suite.repo.InsertOrder(suite.T().Context(), order)
	suite.Require().NoError(err)
	return id
}

func (suite *orderRepositorySuite) pendingEvents(orderID uuid.UUID) []domain.OrderEvent {
	events, err := suite.outbox.FetchPending(suite.T().Context(), 1000)
	suite.Require().NoError(err)

	return lo.Filter(events, func(e domain.OrderEvent, _ int) bool { return e.OrderID == orderID })
}

func (suite *orderRepositorySuite) deleteAll() {
	_, err := suite.pool.Exec(suite.T().Context(), "TRUNCATE TABLE orders, order_items, order_outbox CASCADE")
	suite.NoError(err)
}

func nilSliceIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
