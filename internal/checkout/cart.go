package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/port"
)

// ReadCartSnapshot loads the owner's cart as an immutable copy. A missing cart and a cart
// without items are both ErrEmptyCart.
func ReadCartSnapshot(ctx context.Context, carts port.CartRepository, ownerID string) (domain.Cart, error) {
	cart, err := carts.GetCart(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return domain.Cart{}, fmt.Errorf("carts.GetCart: %w", domain.ErrEmptyCart)
		}
		return domain.Cart{}, fmt.Errorf("carts.GetCart: %w", err)
	}

	if err := cart.Validate(); err != nil {
		return domain.Cart{}, fmt.Errorf("cart.Validate: %w", err)
	}

	if len(cart.Items) == 0 {
		return domain.Cart{}, domain.ErrEmptyCart
	}

	return cart.Snapshot(), nil
}
