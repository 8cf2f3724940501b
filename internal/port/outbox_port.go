package port

import (
	"context"

	"github.com/nikolayk812/stockcheckout/internal/domain"
)

type OutboxRepository interface {
	FetchPending(ctx context.Context, limit int) ([]domain.OrderEvent, error)

	MarkSent(ctx context.Context, eventID int64) error
}
