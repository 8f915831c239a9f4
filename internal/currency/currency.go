// Package currency converts USD amounts for display and formats them.
package currency

import (
	"github.com/Rhymond/go-money"
	"github.com/dense-analysis/stockwatch/internal/model"
	"github.com/shopspring/decimal"
)

// Convert turns a USD amount into the target display currency.
//
// USD passes through unchanged, and so does any currency code missing
// from the rate table; an unknown code is not an error.
func Convert(usdAmount float64, code string, rates model.RateTable) float64 {
	if code == "USD" {
		return usdAmount
	}

	if rate, ok := rates[code]; ok {
		return usdAmount * rate
	}

	return usdAmount
}

// Format renders an amount in the given currency with its symbol,
// grouping, and fraction digits.
func Format(amount float64, code string) string {
	unit := money.GetCurrency(code)

	if unit == nil {
		unit = money.GetCurrency(money.USD)
	}

	fraction := unit.Fraction

	// Forint amounts are displayed whole.
	if unit.Code == money.HUF {
		fraction = 0
	}

	minorUnits := decimal.NewFromFloat(amount).Shift(int32(fraction)).Round(0)

	formatter := money.NewFormatter(
		fraction,
		unit.Decimal,
		unit.Thousand,
		unit.Grapheme,
		unit.Template,
	)

	return formatter.Format(minorUnits.IntPart())
}

// FormatQuantity renders a share quantity for display.
//
// Integral quantities render without a fractional part; fractional
// quantities render with up to 4 decimal places, trailing zeros
// stripped.
func FormatQuantity(quantity float64) string {
	return decimal.NewFromFloat(quantity).Round(4).String()
}
