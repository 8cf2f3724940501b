package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/stockcheckout/internal/db"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/port"
)

type outboxRepository struct {
	q *db.Queries
}

func NewOutbox(pool *pgxpool.Pool) port.OutboxRepository {
	return &outboxRepository{q: db.New(pool)}
}

// FetchPending returns unsent events in insertion order.
func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]domain.OrderEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit[%d] must be positive", limit)
	}

	rows, err := r.q.FetchPendingOutboxEvents(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("q.FetchPendingOutboxEvents: %w", err)
	}

	events := make([]domain.OrderEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, domain.OrderEvent{
			ID:        row.ID,
			OrderID:   row.OrderID,
			Type:      domain.OrderEventType(row.EventType),
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt,
			SentAt:    row.SentAt,
		})
	}

	return events, nil
}

// MarkSent is idempotent: marking an already sent event is not an error.
func (r *outboxRepository) MarkSent(ctx context.Context, eventID int64) error {
	if _, err := r.q.MarkOutboxEventSent(ctx, eventID); err != nil {
		return fmt.Errorf("q.MarkOutboxEventSent: %w", err)
	}

	return nil
}
