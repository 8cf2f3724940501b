package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func NewMoney(amount decimal.Decimal, unit currency.Unit) Money {
	return Money{Amount: amount, Currency: unit}
}

// MinorUnits converts the amount to the integer unit a payment gateway charges in,
// e.g. cents for USD. The scale comes from the ISO 4217 standard rounding of the currency.
func (m Money) MinorUnits() int64 {
	scale, _ := currency.Standard.Rounding(m.Currency)

	return m.Amount.Shift(int32(scale)).Round(0).IntPart()
}

func (m Money) String() string {
	scale, _ := currency.Standard.Rounding(m.Currency)

	return m.Amount.StringFixed(int32(scale)) + " " + m.Currency.String()
}
