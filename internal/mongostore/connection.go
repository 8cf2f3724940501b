package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection = "products"
	cartsCollection    = "carts"
	ordersCollection   = "orders"
	countersCollection = "counters"
)

func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		disconnectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if disconnectErr := client.Disconnect(disconnectCtx); disconnectErr != nil {
			err = errors.Join(err, fmt.Errorf("client.Disconnect: %w", disconnectErr))
		}
		return nil, fmt.Errorf("client.Ping: %w", err)
	}

	return client.Database(database), nil
}

// EnsureIndexes creates the unique and TTL indexes the store relies on.
// Carts untouched for cartTTL are expired by the server.
func EnsureIndexes(ctx context.Context, db *mongo.Database, cartTTL time.Duration) error {
	if _, err := db.Collection(productsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		return fmt.Errorf("products.CreateMany: %w", err)
	}

	if _, err := db.Collection(cartsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(cartTTL.Seconds())),
		},
	}); err != nil {
		return fmt.Errorf("carts.CreateMany: %w", err)
	}

	if _, err := db.Collection(ordersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "payment_intent_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"payment_intent_id": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "events.id", Value: 1}},
		},
	}); err != nil {
		return fmt.Errorf("orders.CreateMany: %w", err)
	}

	return nil
}
