package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/port"
	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
)

const (
	headerEventType = "event_type"
	headerEventID   = "event_id"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type RelayConfig struct {
	Interval  time.Duration
	BatchSize int
}

// OutboxRelay publishes committed order events to Kafka and marks them sent. Delivery is
// at-least-once: a crash between publish and mark resends the batch.
type OutboxRelay struct {
	outbox  port.OutboxRepository
	writer  MessageWriter
	cfg     RelayConfig
	logger  *slog.Logger
	metrics *Metrics
}

// NewKafkaWriter keys messages by order id, so events of one order stay on one partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewOutboxRelay(outbox port.OutboxRepository, writer MessageWriter, cfg RelayConfig, logger *slog.Logger, metrics *Metrics) *OutboxRelay {
	return &OutboxRelay{
		outbox:  outbox,
		writer:  writer,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "outbox relay", slog.Any("error", err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// RelayOnce publishes one batch of pending events in id order and returns how many were
// marked sent.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	events, err := r.outbox.FetchPending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("outbox.FetchPending: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	msgs := lo.Map(events, func(e domain.OrderEvent, _ int) kafka.Message {
		return toMessage(e)
	})

	if err := r.writer.WriteMessages(ctx, msgs...); err != nil {
		r.metrics.publishErr.Inc()
		return 0, fmt.Errorf("writer.WriteMessages: %w", err)
	}

	for i, e := range events {
		if err := r.outbox.MarkSent(ctx, e.ID); err != nil {
			r.metrics.publishErr.Inc()
			return i, fmt.Errorf("outbox.MarkSent[%d]: %w", e.ID, err)
		}
		r.metrics.published.Inc()
	}

	r.logger.DebugContext(ctx, "outbox events relayed", slog.Int("count", len(events)))

	return len(events), nil
}

func toMessage(e domain.OrderEvent) kafka.Message {
	return kafka.Message{
		Key:   []byte(e.OrderID.String()),
		Value: e.Payload,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(e.Type)},
			{Key: headerEventID, Value: []byte(strconv.FormatInt(e.ID, 10))},
		},
		Time: e.CreatedAt,
	}
}
