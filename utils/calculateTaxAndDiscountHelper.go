package utils

import (
	"github.com/shopspring/decimal"
)

var decimalOneHundred = decimal.NewFromInt(100)

// CalculateDiscountAmount returns subtotal * discountPercent / 100.
// Full precision is kept; rounding happens at display/export time only.
func CalculateDiscountAmount(subTotal decimal.Decimal, discountPercent decimal.Decimal) decimal.Decimal {
	if !discountPercent.IsPositive() {
		return decimal.Zero
	}
	return subTotal.Mul(discountPercent).Div(decimalOneHundred)
}

// CalculateTaxAmount returns amount * taxRate for an exclusive tax rate
// expressed as a fraction (0.16 for 16%).
func CalculateTaxAmount(amount decimal.Decimal, taxRate decimal.Decimal) decimal.Decimal {
	if !taxRate.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(taxRate)
}
