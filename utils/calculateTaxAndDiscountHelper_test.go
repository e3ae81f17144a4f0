package utils_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateDiscountAmount(t *testing.T) {
	cases := []struct {
		name     string
		subtotal string
		percent  string
		want     string
	}{
		{"no discount", "100.00", "0", "0"},
		{"ten percent", "100.00", "10", "10"},
		{"full discount", "6.99", "100", "6.99"},
		{"fractional", "6.99", "12.5", "0.87375"},
		{"negative percent treated as zero", "50.00", "-5", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := utils.CalculateDiscountAmount(d(tc.subtotal), d(tc.percent))
			if got.Cmp(d(tc.want)) != 0 {
				t.Fatalf("CalculateDiscountAmount(%s, %s) = %s, want %s", tc.subtotal, tc.percent, got, tc.want)
			}
		})
	}
}

func TestCalculateTaxAmount(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		rate   string
		want   string
	}{
		{"sixteen percent", "6.99", "0.16", "1.1184"},
		{"zero rate", "6.99", "0", "0"},
		{"zero amount", "0", "0.16", "0"},
		{"negative rate treated as zero", "10.00", "-0.1", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := utils.CalculateTaxAmount(d(tc.amount), d(tc.rate))
			if got.Cmp(d(tc.want)) != 0 {
				t.Fatalf("CalculateTaxAmount(%s, %s) = %s, want %s", tc.amount, tc.rate, got, tc.want)
			}
		})
	}
}
