package mongostore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Documents keep uuids and decimals as strings so values survive the round trip exactly.

type productDoc struct {
	ID          string       `bson:"_id"`
	Title       string       `bson:"title"`
	Slug        string       `bson:"slug"`
	BasePrice   string       `bson:"base_price"`
	IsPublished bool         `bson:"is_published"`
	Variants    []variantDoc `bson:"variants"`
	CreatedAt   time.Time    `bson:"created_at"`
	UpdatedAt   time.Time    `bson:"updated_at"`
}

type variantDoc struct {
	SKU             string `bson:"sku"`
	Size            string `bson:"size"`
	Color           string `bson:"color"`
	StockQuantity   int    `bson:"stock_quantity"`
	PriceAdjustment string `bson:"price_adjustment"`
}

type cartDoc struct {
	OwnerID   string        `bson:"_id"`
	Items     []cartItemDoc `bson:"items"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type cartItemDoc struct {
	ProductID  string    `bson:"product_id"`
	VariantSKU string    `bson:"variant_sku"`
	Quantity   int       `bson:"quantity"`
	AddedAt    time.Time `bson:"added_at"`
}

type orderDoc struct {
	ID              string             `bson:"_id"`
	OwnerID         string             `bson:"owner_id"`
	Items           []orderItemDoc     `bson:"items"`
	TotalAmount     string             `bson:"total_amount"`
	Currency        string             `bson:"currency"`
	ShippingAddress shippingAddressDoc `bson:"shipping_address"`
	Status          string             `bson:"status"`
	PaymentIntentID *string            `bson:"payment_intent_id,omitempty"`
	Events          []eventDoc         `bson:"events"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

type orderItemDoc struct {
	ProductID  string `bson:"product_id"`
	VariantSKU string `bson:"variant_sku"`
	Title      string `bson:"title"`
	Size       string `bson:"size"`
	Color      string `bson:"color"`
	UnitPrice  string `bson:"unit_price"`
	Quantity   int    `bson:"quantity"`
}

type shippingAddressDoc struct {
	FullName     string  `bson:"full_name"`
	AddressLine1 string  `bson:"address_line_1"`
	AddressLine2 *string `bson:"address_line_2,omitempty"`
	City         string  `bson:"city"`
	State        string  `bson:"state"`
	ZipCode      string  `bson:"zip_code"`
	Country      string  `bson:"country"`
}

// eventDoc is an outbox entry embedded in its order, written by the same single-document update
// that changes the order.
type eventDoc struct {
	ID        int64      `bson:"id"`
	Type      string     `bson:"type"`
	Payload   string     `bson:"payload"`
	CreatedAt time.Time  `bson:"created_at"`
	SentAt    *time.Time `bson:"sent_at"`
}

func toProductDoc(p domain.Product, now time.Time) productDoc {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	return productDoc{
		ID:          p.ID.String(),
		Title:       p.Title,
		Slug:        p.Slug,
		BasePrice:   p.BasePrice.String(),
		IsPublished: p.IsPublished,
		Variants: lo.Map(p.Variants, func(v domain.Variant, _ int) variantDoc {
			return variantDoc{
				SKU:             v.SKU,
				Size:            string(v.Size),
				Color:           v.Color,
				StockQuantity:   v.StockQuantity,
				PriceAdjustment: v.PriceAdjustment.String(),
			}
		}),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
}

func (d productDoc) toDomain() (domain.Product, error) {
	var p domain.Product

	id, err := uuid.Parse(d.ID)
	if err != nil {
		return p, fmt.Errorf("uuid.Parse[%s]: %w", d.ID, err)
	}

	basePrice, err := decimal.NewFromString(d.BasePrice)
	if err != nil {
		return p, fmt.Errorf("base_price[%s]: %w", d.BasePrice, err)
	}

	variants := make([]domain.Variant, 0, len(d.Variants))
	for _, v := range d.Variants {
		adjustment, err := decimal.NewFromString(v.PriceAdjustment)
		if err != nil {
			return p, fmt.Errorf("price_adjustment[%s]: %w", v.PriceAdjustment, err)
		}

		variants = append(variants, domain.Variant{
			SKU:             v.SKU,
			Size:            domain.Size(v.Size),
			Color:           v.Color,
			StockQuantity:   v.StockQuantity,
			PriceAdjustment: adjustment,
		})
	}

	p = domain.Product{
		ID:          id,
		Title:       d.Title,
		Slug:        d.Slug,
		BasePrice:   basePrice,
		Variants:    variants,
		IsPublished: d.IsPublished,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}

	if err := p.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("product[%s].Validate: %w", d.ID, err)
	}

	return p, nil
}

func toCartDoc(c domain.Cart) cartDoc {
	return cartDoc{
		OwnerID: c.OwnerID,
		Items: lo.Map(c.Items, func(item domain.CartItem, _ int) cartItemDoc {
			addedAt := item.AddedAt
			if addedAt.IsZero() {
				addedAt = c.UpdatedAt
			}

			return cartItemDoc{
				ProductID:  item.ProductID.String(),
				VariantSKU: item.VariantSKU,
				Quantity:   item.Quantity,
				AddedAt:    addedAt,
			}
		}),
		UpdatedAt: c.UpdatedAt,
	}
}

func (d cartDoc) toDomain() (domain.Cart, error) {
	items := make([]domain.CartItem, 0, len(d.Items))
	for _, item := range d.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("uuid.Parse[%s]: %w", item.ProductID, err)
		}

		items = append(items, domain.CartItem{
			ProductID:  productID,
			VariantSKU: item.VariantSKU,
			Quantity:   item.Quantity,
			AddedAt:    item.AddedAt,
		})
	}

	cart := domain.Cart{
		OwnerID:   d.OwnerID,
		Items:     items,
		UpdatedAt: d.UpdatedAt,
	}

	if err := cart.Validate(); err != nil {
		return domain.Cart{}, fmt.Errorf("cart[%s].Validate: %w", d.OwnerID, err)
	}

	return cart, nil
}

func toOrderDoc(o domain.Order) orderDoc {
	a := o.ShippingAddress

	return orderDoc{
		ID:      o.ID.String(),
		OwnerID: o.OwnerID,
		Items: lo.Map(o.Items, func(item domain.OrderItem, _ int) orderItemDoc {
			return orderItemDoc{
				ProductID:  item.ProductID.String(),
				VariantSKU: item.VariantSKU,
				Title:      item.Title,
				Size:       string(item.Size),
				Color:      item.Color,
				UnitPrice:  item.UnitPrice.String(),
				Quantity:   item.Quantity,
			}
		}),
		TotalAmount: o.Total.Amount.String(),
		Currency:    o.Total.Currency.String(),
		ShippingAddress: shippingAddressDoc{
			FullName:     a.FullName,
			AddressLine1: a.AddressLine1,
			AddressLine2: a.AddressLine2,
			City:         a.City,
			State:        a.State,
			ZipCode:      a.ZipCode,
			Country:      a.Country,
		},
		Status:          string(o.Status),
		PaymentIntentID: lo.EmptyableToPtr(o.PaymentIntentID),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (d orderDoc) toDomain() (domain.Order, error) {
	var o domain.Order

	id, err := uuid.Parse(d.ID)
	if err != nil {
		return o, fmt.Errorf("uuid.Parse[%s]: %w", d.ID, err)
	}

	status, err := domain.ToOrderStatus(d.Status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", d.Status, err)
	}

	unit, err := currency.ParseISO(d.Currency)
	if err != nil {
		return o, fmt.Errorf("currency[%s] is not valid: %w", d.Currency, err)
	}

	total, err := decimal.NewFromString(d.TotalAmount)
	if err != nil {
		return o, fmt.Errorf("total_amount[%s]: %w", d.TotalAmount, err)
	}

	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return o, fmt.Errorf("uuid.Parse[%s]: %w", item.ProductID, err)
		}

		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return o, fmt.Errorf("unit_price[%s]: %w", item.UnitPrice, err)
		}

		items = append(items, domain.OrderItem{
			ProductID:  productID,
			VariantSKU: item.VariantSKU,
			Title:      item.Title,
			Size:       domain.Size(item.Size),
			Color:      item.Color,
			UnitPrice:  unitPrice,
			Quantity:   item.Quantity,
		})
	}

	a := d.ShippingAddress

	o = domain.Order{
		ID:      id,
		OwnerID: d.OwnerID,
		Items:   items,
		Total:   domain.NewMoney(total, unit),
		ShippingAddress: domain.ShippingAddress{
			FullName:     a.FullName,
			AddressLine1: a.AddressLine1,
			AddressLine2: a.AddressLine2,
			City:         a.City,
			State:        a.State,
			ZipCode:      a.ZipCode,
			Country:      a.Country,
		},
		Status:          status,
		PaymentIntentID: lo.FromPtr(d.PaymentIntentID),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}

	if err := o.Validate(); err != nil {
		return domain.Order{}, fmt.Errorf("order[%s].Validate: %w", d.ID, err)
	}

	return o, nil
}

func toEventDoc(e domain.OrderEvent) eventDoc {
	return eventDoc{
		ID:        e.ID,
		Type:      string(e.Type),
		Payload:   string(e.Payload),
		CreatedAt: e.CreatedAt,
		SentAt:    e.SentAt,
	}
}

func (d eventDoc) toDomain(orderID uuid.UUID) domain.OrderEvent {
	return domain.OrderEvent{
		ID:        d.ID,
		OrderID:   orderID,
		Type:      domain.OrderEventType(d.Type),
		Payload:   json.RawMessage(d.Payload),
		CreatedAt: d.CreatedAt,
		SentAt:    d.SentAt,
	}
}
