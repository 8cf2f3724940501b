package port

import (
	"context"
	"time"

	"github.com/nikolayk812/stockcheckout/internal/domain"
)

type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (domain.Cart, error)

	SaveCart(ctx context.Context, cart domain.Cart) error

	DeleteCart(ctx context.Context, ownerID string) error

	// DeleteExpired removes carts not updated since before and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
