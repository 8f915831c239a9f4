// Package position computes cost basis and profit figures for holdings.
package position

import (
	"github.com/dense-analysis/stockwatch/internal/model"
)

// View holds the aggregated financial figures for one holding.
//
// All figures are USD. Currency conversion happens at presentation time
// and never touches these values.
type View struct {
	RemainingQty float64
	TotalCost    float64
	SaleProceeds float64
	NetInvested  float64
	CurrentValue float64
	Profit       float64
	ProfitPct    float64
	AvgPrice     float64
}

// Aggregate nets a holding's purchase and sale history against a live
// quote.
//
// The quote may be nil when no price could ever be fetched; the current
// value is then zero and profit reflects only the invested capital.
// Sales exceeding purchases clamp the remaining quantity at zero rather
// than going negative; a negative net invested amount is preserved,
// since realized proceeds can legitimately exceed cost.
func Aggregate(holding *model.Holding, quote *model.LiveQuote) View {
	view := View{
		RemainingQty: holding.TotalPurchased() - holding.TotalSold(),
	}

	if view.RemainingQty < 0 {
		view.RemainingQty = 0
	}

	for _, trade := range holding.Purchases {
		view.TotalCost += trade.Quantity*trade.Price + trade.Fee
	}

	for _, trade := range holding.Sales {
		view.SaleProceeds += trade.Quantity*trade.Price - trade.Fee
	}

	view.NetInvested = view.TotalCost - view.SaleProceeds

	if quote != nil {
		view.CurrentValue = view.RemainingQty * quote.CurrentPrice
	}

	view.Profit = view.CurrentValue - view.NetInvested

	// Report 0% on a non-positive invested base rather than dividing
	// towards Infinity or NaN.
	if view.NetInvested > 0 {
		view.ProfitPct = view.Profit / view.NetInvested * 100
	}

	if view.RemainingQty > 0 {
		view.AvgPrice = view.NetInvested / view.RemainingQty
	}

	return view
}
