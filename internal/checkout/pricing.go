package checkout

import (
	"fmt"

	"github.com/nikolayk812/stockcheckout/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// PriceOf is the effective unit price of a variant: base price plus its adjustment.
func PriceOf(product domain.Product, sku string) (decimal.Decimal, error) {
	variant, ok := product.Variant(sku)
	if !ok {
		return decimal.Zero, fmt.Errorf("product[%s] sku[%s]: %w", product.ID, sku, domain.ErrVariantNotFound)
	}

	return unitPrice(product, variant), nil
}

func unitPrice(product domain.Product, variant domain.Variant) decimal.Decimal {
	return product.BasePrice.Add(variant.PriceAdjustment)
}

func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func OrderTotal(items []domain.OrderItem, unit currency.Unit) domain.Money {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item.UnitPrice, item.Quantity))
	}

	return domain.NewMoney(total, unit)
}

// snapshotItem freezes the product and variant as sold; the unit price is taken from the
// same record the reservation was validated against.
func snapshotItem(product domain.Product, variant domain.Variant, quantity int) domain.OrderItem {
	return domain.OrderItem{
		ProductID:  product.ID,
		VariantSKU: variant.SKU,
		Title:      product.Title,
		Size:       variant.Size,
		Color:      variant.Color,
		UnitPrice:  unitPrice(product, variant),
		Quantity:   quantity,
	}
}
