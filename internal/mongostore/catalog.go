package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type catalogRepository struct {
	collection *mongo.Collection
}

func (r *catalogRepository) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	var doc productDoc

	if err := r.collection.FindOne(ctx, bson.M{"_id": productID.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Product{}, fmt.Errorf("collection.FindOne: %w", domain.ErrProductNotFound)
		}
		return domain.Product{}, fmt.Errorf("collection.FindOne: %w", err)
	}

	product, err := doc.toDomain()
	if err != nil {
		return domain.Product{}, fmt.Errorf("doc.toDomain: %w", err)
	}

	return product, nil
}

func (r *catalogRepository) SaveProduct(ctx context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return fmt.Errorf("product.Validate: %w", err)
	}

	doc := toProductDoc(product, time.Now())

	// created_at is only written on insert
	update := bson.M{
		"$set": bson.M{
			"title":        doc.Title,
			"slug":         doc.Slug,
			"base_price":   doc.BasePrice,
			"is_published": doc.IsPublished,
			"variants":     doc.Variants,
			"updated_at":   doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": doc.CreatedAt},
	}

	if _, err := r.collection.UpdateByID(ctx, doc.ID, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("collection.UpdateByID: %w", err)
	}

	return nil
}

// ReserveStock matches the variant element only while it still holds enough stock,
// so the decrement and the check are a single atomic document update.
func (r *catalogRepository) ReserveStock(ctx context.Context, productID uuid.UUID, sku string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity[%d] must be positive", quantity)
	}

	filter := bson.M{
		"_id": productID.String(),
		"variants": bson.M{
			"$elemMatch": bson.M{
				"sku":            sku,
				"stock_quantity": bson.M{"$gte": quantity},
			},
		},
	}
	update := bson.M{"$inc": bson.M{"variants.$.stock_quantity": -quantity}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("collection.UpdateOne: %w", err)
	}

	if result.MatchedCount > 0 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": productID.String(), "variants.sku": sku})
	if err != nil {
		return fmt.Errorf("collection.CountDocuments: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("reserve[%s]: %w", sku, domain.ErrVariantNotFound)
	}

	return fmt.Errorf("reserve[%s]: %w", sku, domain.ErrInsufficientStock)
}

func (r *catalogRepository) ReleaseStock(ctx context.Context, productID uuid.UUID, sku string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity[%d] must be positive", quantity)
	}

	filter := bson.M{"_id": productID.String(), "variants.sku": sku}
	update := bson.M{"$inc": bson.M{"variants.$.stock_quantity": quantity}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("collection.UpdateOne: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("release[%s]: %w", sku, domain.ErrVariantNotFound)
	}

	return nil
}
