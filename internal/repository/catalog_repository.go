package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/stockcheckout/internal/db"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/port"
)

type catalogRepository struct {
	dbtx db.DBTX
	q    *db.Queries
}

func NewCatalog(pool *pgxpool.Pool) port.CatalogRepository {
	return &catalogRepository{
		dbtx: pool,
		q:    db.New(pool),
	}
}

func (r *catalogRepository) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	var p domain.Product

	dbProduct, err := r.q.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, fmt.Errorf("q.GetProduct: %w", domain.ErrProductNotFound)
		}
		return p, fmt.Errorf("q.GetProduct: %w", err)
	}

	dbVariants, err := r.q.GetProductVariants(ctx, productID)
	if err != nil {
		return p, fmt.Errorf("q.GetProductVariants: %w", err)
	}

	product, err := mapDBProductToDomain(dbProduct, dbVariants)
	if err != nil {
		return p, fmt.Errorf("mapDBProductToDomain: %w", err)
	}

	return product, nil
}

func (r *catalogRepository) SaveProduct(ctx context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return fmt.Errorf("product.Validate: %w", err)
	}

	if err := withTxExec(ctx, r.dbtx, func(q *db.Queries) error {
		if err := q.UpsertProduct(ctx, db.UpsertProductParams{
			ID:          product.ID,
			Title:       product.Title,
			Slug:        product.Slug,
			BasePrice:   product.BasePrice,
			IsPublished: product.IsPublished,
		}); err != nil {
			return fmt.Errorf("q.UpsertProduct: %w", err)
		}

		if err := q.DeleteProductVariants(ctx, product.ID); err != nil {
			return fmt.Errorf("q.DeleteProductVariants: %w", err)
		}

		for i, v := range product.Variants {
			if err := q.InsertProductVariant(ctx, db.InsertProductVariantParams{
				ProductID:       product.ID,
				Sku:             v.SKU,
				Position:        int32(i),
				Size:            string(v.Size),
				Color:           v.Color,
				StockQuantity:   int32(v.StockQuantity),
				PriceAdjustment: v.PriceAdjustment,
			}); err != nil {
				return fmt.Errorf("q.InsertProductVariant[%s]: %w", v.SKU, err)
			}
		}

		return nil
	}); err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func (r *catalogRepository) ReserveStock(ctx context.Context, productID uuid.UUID, sku string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity[%d] must be positive", quantity)
	}

	rows, err := r.q.ReserveVariantStock(ctx, db.ReserveVariantStockParams{
		Quantity:  int32(quantity),
		ProductID: productID,
		Sku:       sku,
	})
	if err != nil {
		return fmt.Errorf("q.ReserveVariantStock: %w", err)
	}

	if rows > 0 {
		return nil
	}

	// the guarded update matched nothing: either the variant is gone or stock is short
	exists, err := r.q.VariantExists(ctx, db.VariantExistsParams{ProductID: productID, Sku: sku})
	if err != nil {
		return fmt.Errorf("q.VariantExists: %w", err)
	}
	if !exists {
		return fmt.Errorf("q.ReserveVariantStock[%s]: %w", sku, domain.ErrVariantNotFound)
	}

	return fmt.Errorf("q.ReserveVariantStock[%s]: %w", sku, domain.ErrInsufficientStock)
}

func (r *catalogRepository) ReleaseStock(ctx context.Context, productID uuid.UUID, sku string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity[%d] must be positive", quantity)
	}

	rows, err := r.q.ReleaseVariantStock(ctx, db.ReleaseVariantStockParams{
		Quantity:  int32(quantity),
		ProductID: productID,
		Sku:       sku,
	})
	if err != nil {
		return fmt.Errorf("q.ReleaseVariantStock: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("q.ReleaseVariantStock[%s]: %w", sku, domain.ErrVariantNotFound)
	}

	return nil
}

func mapDBProductToDomain(p db.Product, variants []db.ProductVariant) (domain.Product, error) {
	result := domain.Product{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		BasePrice:   p.BasePrice,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	for _, v := range variants {
		result.Variants = append(result.Variants, domain.Variant{
			SKU:             v.Sku,
			Size:            domain.Size(v.Size),
			Color:           v.Color,
			StockQuantity:   int(v.StockQuantity),
			PriceAdjustment: v.PriceAdjustment,
		})
	}

	if err := result.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("product[%s].Validate: %w", p.ID, err)
	}

	return result, nil
}
