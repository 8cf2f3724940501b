package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Size string

const (
	SizeXS Size = "XS"
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

// Variant is a purchasable size/color configuration of a product with its own stock counter.
type Variant struct {
	SKU             string `validate:"required"`
	Size            Size   `validate:"oneof=XS S M L XL"`
	Color           string `validate:"required"`
	StockQuantity   int    `validate:"gte=0"`
	PriceAdjustment decimal.Decimal
}

type Product struct {
	ID          uuid.UUID `validate:"required"`
	Title       string    `validate:"required"`
	Slug        string    `validate:"required"`
	BasePrice   decimal.Decimal
	Variants    []Variant `validate:"dive"`
	IsPublished bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Product) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}

	if p.BasePrice.IsNegative() {
		return errors.New("base price is negative")
	}

	seen := make(map[string]struct{}, len(p.Variants))
	for _, v := range p.Variants {
		if _, ok := seen[v.SKU]; ok {
			return fmt.Errorf("duplicate sku[%s]", v.SKU)
		}
		seen[v.SKU] = struct{}{}

		if p.BasePrice.Add(v.PriceAdjustment).IsNegative() {
			return fmt.Errorf("sku[%s]: unit price is negative", v.SKU)
		}
	}

	return nil
}

func (p Product) Variant(sku string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.SKU == sku {
			return v, true
		}
	}

	return Variant{}, false
}

// VisibleTo reports whether the caller may read the product. Unpublished products are
// visible to admins only.
func (p Product) VisibleTo(c Caller) bool {
	return p.IsPublished || c.IsAdmin()
}
