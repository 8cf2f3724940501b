package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// outboxRepository reads the events embedded in order documents.
type outboxRepository struct {
	collection *mongo.Collection
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]domain.OrderEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit[%d] must be positive", limit)
	}

	unsent := bson.M{"events.sent_at": nil}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"events": bson.M{"$elemMatch": bson.M{"sent_at": nil}}}}},
		{{Key: "$project", Value: bson.M{"events": 1}}},
		{{Key: "$unwind", Value: "$events"}},
		{{Key: "$match", Value: unsent}},
		{{Key: "$sort", Value: bson.M{"events.id": 1}}},
		{{Key: "$limit", Value: int64(limit)}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("collection.Aggregate: %w", err)
	}

	var rows []struct {
		OrderID string   `bson:"_id"`
		Event   eventDoc `bson:"events"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("cursor.All: %w", err)
	}

	events := make([]domain.OrderEvent, 0, len(rows))
	for _, row := range rows {
		orderID, err := uuid.Parse(row.OrderID)
		if err != nil {
			return nil, fmt.Errorf("uuid.Parse[%s]: %w", row.OrderID, err)
		}
		events = append(events, row.Event.toDomain(orderID))
	}

	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, eventID int64) error {
	filter := bson.M{
		"events": bson.M{"$elemMatch": bson.M{"id": eventID, "sent_at": nil}},
	}
	update := bson.M{"$set": bson.M{"events.$.sent_at": time.Now().UTC()}}

	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("collection.UpdateOne: %w", err)
	}

	return nil
}
