package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/stockcheckout/internal/domain"
)

type CatalogRepository interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error)

	SaveProduct(ctx context.Context, product domain.Product) error

	// ReserveStock decrements the variant stock by quantity in one conditional write that only
	// matches while stock_quantity >= quantity. ErrInsufficientStock when it does not match.
	ReserveStock(ctx context.Context, productID uuid.UUID, sku string, quantity int) error

	// ReleaseStock increments the variant stock unconditionally.
	ReleaseStock(ctx context.Context, productID uuid.UUID, sku string, quantity int) error
}
