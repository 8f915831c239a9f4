// Package alert evaluates threshold rules over holdings and live quotes.
package alert

import (
	"math"

	"github.com/dense-analysis/stockwatch/internal/model"
	"github.com/dense-analysis/stockwatch/internal/position"
)

// Kind identifies one alert signal.
type Kind string

const (
	// VolumeSpike fires when volume reaches double the session average.
	VolumeSpike Kind = "VOLUME_SPIKE"
	// PriceDrop fires on a drop of 5% or more against the previous close.
	PriceDrop Kind = "PRICE_DROP"
	// ProfitTake fires when unrealized profit exceeds 10%.
	ProfitTake Kind = "PROFIT_TAKE"
	// BreakEvenSuggestion fires when selling part of the position would
	// recover its entire remaining cost basis.
	BreakEvenSuggestion Kind = "BREAK_EVEN_SUGGESTION"
)

const (
	volumeSpikeRatio = 2.0
	priceDropPct     = -5.0
	profitTakePct    = 10.0
)

// Suggestion describes a partial sale that recovers the cost basis.
type Suggestion struct {
	// ToSell is the minimum whole quantity to sell at the current price.
	ToSell float64
	// Free is the quantity left holding nothing but profit.
	Free float64
}

// Evaluate returns every alert signal a holding raises for a quote.
//
// The signals are independent; a holding can raise none or all of them
// at once. What to do with them is the caller's business.
func Evaluate(holding *model.Holding, quote model.LiveQuote) []Kind {
	var kinds []Kind

	// A missing volume ratio means the rule does not apply, not that
	// the volume is zero.
	if quote.VolumeRatio != nil && *quote.VolumeRatio >= volumeSpikeRatio {
		kinds = append(kinds, VolumeSpike)
	}

	if quote.PriceChangePct <= priceDropPct {
		kinds = append(kinds, PriceDrop)
	}

	view := position.Aggregate(holding, &quote)

	if view.ProfitPct > profitTakePct {
		kinds = append(kinds, ProfitTake)
	}

	if _, ok := SuggestBreakEven(holding, quote); ok {
		kinds = append(kinds, BreakEvenSuggestion)
	}

	return kinds
}

// SuggestBreakEven computes the smallest whole quantity whose sale at
// the current price covers the cost basis still attributable to the
// remaining position.
//
// No suggestion is made below the average buy price, with nothing left
// to sell, or when covering the cost basis would take the whole
// position; selling everything is not a partial suggestion.
func SuggestBreakEven(holding *model.Holding, quote model.LiveQuote) (Suggestion, bool) {
	view := position.Aggregate(holding, &quote)

	if view.RemainingQty <= 0 || view.NetInvested <= 0 {
		return Suggestion{}, false
	}

	if quote.CurrentPrice <= view.AvgPrice {
		return Suggestion{}, false
	}

	toSell := math.Ceil(view.NetInvested / quote.CurrentPrice)

	if toSell >= view.RemainingQty {
		return Suggestion{}, false
	}

	return Suggestion{ToSell: toSell, Free: view.RemainingQty - toSell}, true
}
