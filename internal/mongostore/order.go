package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const orderEventsCounter = "order_events"

type orderRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	doc, err := r.findOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := doc.toDomain()
	if err != nil {
		return domain.Order{}, fmt.Errorf("doc.toDomain: %w", err)
	}

	return order, nil
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"events": 0})

	cursor, err := r.collection.Find(ctx, toOrderQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("collection.Find: %w", err)
	}

	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cursor.All: %w", err)
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.toDomain()
		if err != nil {
			return nil, fmt.Errorf("doc.toDomain[%s]: %w", doc.ID, err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// InsertOrder writes the order and its order.created event in one document insert.
func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error) {
	if err := order.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("order.Validate: %w", err)
	}

	if order.Status != domain.OrderStatusPending {
		return uuid.Nil, fmt.Errorf("status[%s]: %w", order.Status, domain.ErrIllegalTransition)
	}

	now := time.Now().UTC()

	order.ID = uuid.New()
	order.CreatedAt = now
	order.UpdatedAt = now

	event, err := r.newEvent(ctx, order, domain.OrderStatusPending, now)
	if err != nil {
		return uuid.Nil, err
	}

	doc := toOrderDoc(order)
	doc.Events = []eventDoc{toEventDoc(event)}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return uuid.Nil, fmt.Errorf("collection.InsertOne: %w", err)
	}

	return order.ID, nil
}

// TransitionStatus sets the status and appends the event in one conditional update, guarded
// on the current status being an allowed predecessor.
func (r *orderRepository) TransitionStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (bool, error) {
	if orderID == uuid.Nil {
		return false, errors.New("orderID is empty")
	}

	predecessors := status.Predecessors()
	if len(predecessors) == 0 {
		return false, fmt.Errorf("status[%s]: %w", status, domain.ErrIllegalTransition)
	}

	doc, err := r.findOrder(ctx, orderID)
	if err != nil {
		return false, err
	}

	if !lo.Contains(predecessors, domain.OrderStatus(doc.Status)) {
		return false, nil
	}

	order, err := doc.toDomain()
	if err != nil {
		return false, fmt.Errorf("doc.toDomain: %w", err)
	}

	now := time.Now().UTC()

	event, err := r.newEvent(ctx, order, status, now)
	if err != nil {
		return false, err
	}

	filter := bson.M{
		"_id":    doc.ID,
		"status": bson.M{"$in": lo.Map(predecessors, func(s domain.OrderStatus, _ int) string { return string(s) })},
	}
	update := bson.M{
		"$set":  bson.M{"status": string(status), "updated_at": now},
		"$push": bson.M{"events": toEventDoc(event)},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("collection.UpdateOne: %w", err)
	}

	// a concurrent transition won the race between the read and the guarded update
	return result.ModifiedCount > 0, nil
}

func (r *orderRepository) findOrder(ctx context.Context, orderID uuid.UUID) (orderDoc, error) {
	var doc orderDoc

	opts := options.FindOne().SetProjection(bson.M{"events": 0})
	if err := r.collection.FindOne(ctx, bson.M{"_id": orderID.String()}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return doc, fmt.Errorf("collection.FindOne: %w", domain.ErrOrderNotFound)
		}
		return doc, fmt.Errorf("collection.FindOne: %w", err)
	}

	return doc, nil
}

func (r *orderRepository) newEvent(ctx context.Context, order domain.Order, status domain.OrderStatus, at time.Time) (domain.OrderEvent, error) {
	event, err := domain.NewOrderEvent(order, status, at)
	if err != nil {
		return event, fmt.Errorf("domain.NewOrderEvent: %w", err)
	}

	event.ID, err = r.nextEventID(ctx)
	if err != nil {
		return event, err
	}

	return event, nil
}

// nextEventID allocates from a counter document; ids are increasing but may have gaps.
func (r *orderRepository) nextEventID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	if err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": orderEventsCounter},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter); err != nil {
		return 0, fmt.Errorf("counters.FindOneAndUpdate: %w", err)
	}

	return counter.Seq, nil
}

func toOrderQuery(filter domain.OrderFilter) bson.M {
	query := bson.M{}

	if len(filter.IDs) > 0 {
		query["_id"] = bson.M{"$in": lo.Map(filter.IDs, func(id uuid.UUID, _ int) string { return id.String() })}
	}
	if len(filter.OwnerIDs) > 0 {
		query["owner_id"] = bson.M{"$in": filter.OwnerIDs}
	}
	if len(filter.PaymentIntentIDs) > 0 {
		query["payment_intent_id"] = bson.M{"$in": filter.PaymentIntentIDs}
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": lo.Map(filter.Statuses, func(s domain.OrderStatus, _ int) string { return string(s) })}
	}
	if filter.CreatedAt != nil {
		createdAt := bson.M{}
		if filter.CreatedAt.After != nil {
			createdAt["$gt"] = *filter.CreatedAt.After
		}
		if filter.CreatedAt.Before != nil {
			createdAt["$lt"] = *filter.CreatedAt.Before
		}
		query["created_at"] = createdAt
	}

	return query
}
