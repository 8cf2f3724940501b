package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is an immutable purchase snapshot. Only Status changes after creation.
type Order struct {
	ID              uuid.UUID
	OwnerID         string      `validate:"required"`
	Items           []OrderItem `validate:"required,min=1,dive"`
	Total           Money
	ShippingAddress ShippingAddress
	Status          OrderStatus `validate:"required"`
	PaymentIntentID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem captures the product as it was sold, never recomputed from the live catalog.
type OrderItem struct {
	ProductID  uuid.UUID `validate:"required"`
	VariantSKU string    `validate:"required"`
	Title      string    `validate:"required"`
	Size       Size
	Color      string
	UnitPrice  decimal.Decimal
	Quantity   int `validate:"gt=0"`
}

type ShippingAddress struct {
	FullName     string  `json:"full_name" validate:"required"`
	AddressLine1 string  `json:"address_line_1" validate:"required"`
	AddressLine2 *string `json:"address_line_2"`
	City         string  `json:"city" validate:"required"`
	State        string  `json:"state" validate:"required"`
	ZipCode      string  `json:"zip_code" validate:"required"`
	Country      string  `json:"country" validate:"required"`
}

func (a ShippingAddress) Validate() error {
	return validateStruct(a)
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (o Order) Validate() error {
	if err := validateStruct(o); err != nil {
		return err
	}

	if _, err := ToOrderStatus(string(o.Status)); err != nil {
		return err
	}

	if itemsTotal := o.ItemsTotal(); !o.Total.Amount.Equal(itemsTotal) {
		return fmt.Errorf("total[%s] does not match items total[%s]", o.Total.Amount, itemsTotal)
	}

	return nil
}
