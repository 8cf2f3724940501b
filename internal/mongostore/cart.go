package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/stockcheckout/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartRepository struct {
	collection *mongo.Collection
}

func (r *cartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	var doc cartDoc

	if err := r.collection.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Cart{}, fmt.Errorf("collection.FindOne: %w", domain.ErrCartNotFound)
		}
		return domain.Cart{}, fmt.Errorf("collection.FindOne: %w", err)
	}

	cart, err := doc.toDomain()
	if err != nil {
		return domain.Cart{}, fmt.Errorf("doc.toDomain: %w", err)
	}

	return cart, nil
}

// SaveCart replaces the whole cart document, which also resets its TTL clock.
func (r *cartRepository) SaveCart(ctx context.Context, cart domain.Cart) error {
	if err := cart.Validate(); err != nil {
		return fmt.Errorf("cart.Validate: %w", err)
	}

	if cart.UpdatedAt.IsZero() {
		cart.UpdatedAt = time.Now()
	}

	doc := toCartDoc(cart)

	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.OwnerID}, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("collection.ReplaceOne: %w", err)
	}

	return nil
}

func (r *cartRepository) DeleteCart(ctx context.Context, ownerID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": ownerID})
	if err != nil {
		return fmt.Errorf("collection.DeleteOne: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("collection.DeleteOne: %w", domain.ErrCartNotFound)
	}

	return nil
}

// DeleteExpired removes carts the TTL monitor has not reaped yet; it runs only once a minute.
func (r *cartRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"updated_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("collection.DeleteMany: %w", err)
	}

	return result.DeletedCount, nil
}
