package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/stockcheckout/internal/domain"
)

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)

	// SearchOrders returns matching orders, newest first.
	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)

	// InsertOrder persists a PENDING order together with its order.created outbox event.
	InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error)

	// TransitionStatus moves the order to status only if its current status is an allowed
	// predecessor, recording the outbox event in the same write. It reports whether the order
	// changed; ErrOrderNotFound if it does not exist.
	TransitionStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (bool, error)
}
