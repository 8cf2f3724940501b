package domain

import (
	"time"

	"github.com/google/uuid"
)

type Cart struct {
	OwnerID   string     `validate:"required"`
	Items     []CartItem `validate:"dive"`
	UpdatedAt time.Time
}

type CartItem struct {
	ProductID  uuid.UUID `validate:"required"`
	VariantSKU string    `validate:"required"`
	Quantity   int       `validate:"gt=0"`
	AddedAt    time.Time
}

func (c Cart) Validate() error {
	return validateStruct(c)
}

// Snapshot returns a deep copy that later cart mutations cannot affect.
func (c Cart) Snapshot() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)

	c.Items = items
	return c
}
