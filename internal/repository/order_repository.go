package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/stockcheckout/internal/db"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/port"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

type orderRepository struct {
	dbtx db.DBTX
	q    *db.Queries
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{
		dbtx: pool,
		q:    db.New(pool),
	}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var o domain.Order

	order, err := withTxQueries(ctx, r.dbtx, func(q *db.Queries) (domain.Order, error) {
		dbOrder, err := q.GetOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return o, fmt.Errorf("q.GetOrder: %w", domain.ErrOrderNotFound)
			}
			return o, fmt.Errorf("q.GetOrder: %w", err)
		}

		dbItems, err := q.GetOrderItems(ctx, []uuid.UUID{orderID})
		if err != nil {
			return o, fmt.Errorf("q.GetOrderItems: %w", err)
		}

		domainOrder, err := mapDBOrderToDomain(dbOrder, dbItems)
		if err != nil {
			return o, fmt.Errorf("mapDBOrderToDomain: %w", err)
		}

		return domainOrder, nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	dbOrders, err := r.q.SearchOrders(ctx, mapDomainOrderFilterToDBFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("q.SearchOrders: %w", err)
	}

	if len(dbOrders) == 0 {
		return nil, nil
	}

	ids := lo.Map(dbOrders, func(o db.Order, _ int) uuid.UUID { return o.ID })

	dbItems, err := r.q.GetOrderItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("q.GetOrderItems: %w", err)
	}

	itemsByOrder := lo.GroupBy(dbItems, func(item db.OrderItem) uuid.UUID { return item.OrderID })

	orders := make([]domain.Order, 0, len(dbOrders))
	for _, dbOrder := range dbOrders {
		order, err := mapDBOrderToDomain(dbOrder, itemsByOrder[dbOrder.ID])
		if err != nil {
			return nil, fmt.Errorf("mapDBOrderToDomain[%s]: %w", dbOrder.ID, err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error) {
	if err := order.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("order.Validate: %w", err)
	}

	if order.Status != domain.OrderStatusPending {
		return uuid.Nil, fmt.Errorf("status[%s]: %w", order.Status, domain.ErrIllegalTransition)
	}

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return uuid.Nil, fmt.Errorf("json.Marshal: %w", err)
	}

	orderID, err := withTxQueries(ctx, r.dbtx, func(q *db.Queries) (uuid.UUID, error) {
		row, err := q.InsertOrder(ctx, db.InsertOrderParams{
			OwnerID:         order.OwnerID,
			Status:          string(order.Status),
			TotalAmount:     order.Total.Amount,
			Currency:        order.Total.Currency.String(),
			ShippingAddress: address,
			PaymentIntentID: lo.EmptyableToPtr(order.PaymentIntentID),
		})
		if err != nil {
			return uuid.Nil, fmt.Errorf("q.InsertOrder: %w", err)
		}

		for i, item := range order.Items {
			if err := q.InsertOrderItem(ctx, db.InsertOrderItemParams{
				OrderID:    row.ID,
				Position:   int32(i),
				ProductID:  item.ProductID,
				VariantSku: item.VariantSKU,
				Title:      item.Title,
				Size:       string(item.Size),
				Color:      item.Color,
				UnitPrice:  item.UnitPrice,
				Quantity:   int32(item.Quantity),
			}); err != nil {
				return uuid.Nil, fmt.Errorf("q.InsertOrderItem: %w", err)
			}
		}

		order.ID = row.ID
		if err := insertOutboxEvent(ctx, q, order, domain.OrderStatusPending, row.CreatedAt); err != nil {
			return uuid.Nil, err
		}

		return row.ID, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("withTx: %w", err)
	}

	return orderID, nil
}

func (r *orderRepository) TransitionStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (bool, error) {
	if orderID == uuid.Nil {
		return false, errors.New("orderID is empty")
	}

	predecessors := status.Predecessors()
	if len(predecessors) == 0 {
		return false, fmt.Errorf("status[%s]: %w", status, domain.ErrIllegalTransition)
	}

	changed, err := withTxQueries(ctx, r.dbtx, func(q *db.Queries) (bool, error) {
		dbOrder, err := q.TransitionOrderStatus(ctx, db.TransitionOrderStatusParams{
			Status:       string(status),
			ID:           orderID,
			FromStatuses: lo.Map(predecessors, func(s domain.OrderStatus, _ int) string { return string(s) }),
		})
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return false, fmt.Errorf("q.TransitionOrderStatus: %w", err)
			}

			// nothing matched the guard: tell a missing order apart from one in another status
			if _, err := q.GetOrder(ctx, orderID); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return false, fmt.Errorf("q.GetOrder: %w", domain.ErrOrderNotFound)
				}
				return false, fmt.Errorf("q.GetOrder: %w", err)
			}

			return false, nil
		}

		dbItems, err := q.GetOrderItems(ctx, []uuid.UUID{orderID})
		if err != nil {
			return false, fmt.Errorf("q.GetOrderItems: %w", err)
		}

		order, err := mapDBOrderToDomain(dbOrder, dbItems)
		if err != nil {
			return false, fmt.Errorf("mapDBOrderToDomain: %w", err)
		}

		if err := insertOutboxEvent(ctx, q, order, status, dbOrder.UpdatedAt); err != nil {
			return false, err
		}

		return true, nil
	})
	if err != nil {
		return false, fmt.Errorf("withTx: %w", err)
	}

	return changed, nil
}

func insertOutboxEvent(ctx context.Context, q *db.Queries, order domain.Order, status domain.OrderStatus, at time.Time) error {
	event, err := domain.NewOrderEvent(order, status, at)
	if err != nil {
		return fmt.Errorf("domain.NewOrderEvent: %w", err)
	}

	if _, err := q.InsertOutboxEvent(ctx, db.InsertOutboxEventParams{
		OrderID:   event.OrderID,
		EventType: string(event.Type),
		Payload:   event.Payload,
		CreatedAt: event.CreatedAt,
	}); err != nil {
		return fmt.Errorf("q.InsertOutboxEvent: %w", err)
	}

	return nil
}

func mapDomainOrderFilterToDBFilter(filter domain.OrderFilter) db.SearchOrdersParams {
	statuses := lo.Map(filter.Statuses, func(s domain.OrderStatus, _ int) string { return string(s) })

	var createdAfter, createdBefore *time.Time
	if filter.CreatedAt != nil {
		createdAfter = filter.CreatedAt.After
		createdBefore = filter.CreatedAt.Before
	}

	return db.SearchOrdersParams{
		Ids:              nilSliceIfEmpty(filter.IDs),
		OwnerIds:         nilSliceIfEmpty(filter.OwnerIDs),
		PaymentIntentIds: nilSliceIfEmpty(filter.PaymentIntentIDs),
		Statuses:         nilSliceIfEmpty(statuses),
		CreatedAfter:     createdAfter,
		CreatedBefore:    createdBefore,
	}
}

func mapDBOrderToDomain(dbOrder db.Order, dbItems []db.OrderItem) (domain.Order, error) {
	var o domain.Order

	status, err := domain.ToOrderStatus(dbOrder.Status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", dbOrder.Status, err)
	}

	unit, err := currency.ParseISO(dbOrder.Currency)
	if err != nil {
		return o, fmt.Errorf("currency[%s] is not valid: %w", dbOrder.Currency, err)
	}

	var address domain.ShippingAddress
	if err := json.Unmarshal(dbOrder.ShippingAddress, &address); err != nil {
		return o, fmt.Errorf("json.Unmarshal: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(dbItems))
	for _, item := range dbItems {
		items = append(items, domain.OrderItem{
			ProductID:  item.ProductID,
			VariantSKU: item.VariantSku,
			Title:      item.Title,
			Size:       domain.Size(item.Size),
			Color:      item.Color,
			UnitPrice:  item.UnitPrice,
			Quantity:   int(item.Quantity),
		})
	}

	o = domain.Order{
		ID:              dbOrder.ID,
		OwnerID:         dbOrder.OwnerID,
		Items:           items,
		Total:           domain.NewMoney(dbOrder.TotalAmount, unit),
		ShippingAddress: address,
		Status:          status,
		PaymentIntentID: lo.FromPtr(dbOrder.PaymentIntentID),
		CreatedAt:       dbOrder.CreatedAt,
		UpdatedAt:       dbOrder.UpdatedAt,
	}

	if err := o.Validate(); err != nil {
		return domain.Order{}, fmt.Errorf("order[%s].Validate: %w", dbOrder.ID, err)
	}

	return o, nil
}

func nilSliceIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
