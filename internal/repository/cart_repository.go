package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/stockcheckout/internal/db"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/nikolayk812/stockcheckout/internal/port"
)

type cartRepository struct {
	dbtx db.DBTX
	q    *db.Queries
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{
		dbtx: pool,
		q:    db.New(pool),
	}
}

func (r *cartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	var c domain.Cart

	dbCart, err := r.q.GetCart(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, fmt.Errorf("q.GetCart: %w", domain.ErrCartNotFound)
		}
		return c, fmt.Errorf("q.GetCart: %w", err)
	}

	dbItems, err := r.q.GetCartItems(ctx, ownerID)
	if err != nil {
		return c, fmt.Errorf("q.GetCartItems: %w", err)
	}

	cart, err := mapDBCartToDomain(dbCart, dbItems)
	if err != nil {
		return c, fmt.Errorf("mapDBCartToDomain: %w", err)
	}

	return cart, nil
}

// SaveCart replaces the stored cart contents and refreshes its expiry clock.
func (r *cartRepository) SaveCart(ctx context.Context, cart domain.Cart) error {
	if err := cart.Validate(); err != nil {
		return fmt.Errorf("cart.Validate: %w", err)
	}

	updatedAt := cart.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	if err := withTxExec(ctx, r.dbtx, func(q *db.Queries) error {
		if err := q.UpsertCart(ctx, db.UpsertCartParams{OwnerID: cart.OwnerID, UpdatedAt: updatedAt}); err != nil {
			return fmt.Errorf("q.UpsertCart: %w", err)
		}

		if err := q.DeleteCartItems(ctx, cart.OwnerID); err != nil {
			return fmt.Errorf("q.DeleteCartItems: %w", err)
		}

		for i, item := range cart.Items {
			addedAt := item.AddedAt
			if addedAt.IsZero() {
				addedAt = updatedAt
			}

			if err := q.InsertCartItem(ctx, db.InsertCartItemParams{
				OwnerID:    cart.OwnerID,
				Position:   int32(i),
				ProductID:  item.ProductID,
				VariantSku: item.VariantSKU,
				Quantity:   int32(item.Quantity),
				AddedAt:    addedAt,
			}); err != nil {
				return fmt.Errorf("q.InsertCartItem: %w", err)
			}
		}

		return nil
	}); err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func (r *cartRepository) DeleteCart(ctx context.Context, ownerID string) error {
	rows, err := r.q.DeleteCart(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("q.DeleteCart: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("q.DeleteCart: %w", domain.ErrCartNotFound)
	}

	return nil
}

func (r *cartRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	rows, err := r.q.DeleteExpiredCarts(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("q.DeleteExpiredCarts: %w", err)
	}

	return rows, nil
}

func mapDBCartToDomain(c db.Cart, rows []db.GetCartItemsRow) (domain.Cart, error) {
	result := domain.Cart{
		OwnerID:   c.OwnerID,
		UpdatedAt: c.UpdatedAt,
	}

	for _, row := range rows {
		result.Items = append(result.Items, domain.CartItem{
			ProductID:  row.ProductID,
			VariantSKU: row.VariantSku,
			Quantity:   int(row.Quantity),
			AddedAt:    row.AddedAt,
		})
	}

	if err := result.Validate(); err != nil {
		return domain.Cart{}, fmt.Errorf("cart[%s].Validate: %w", c.OwnerID, err)
	}

	return result, nil
}
