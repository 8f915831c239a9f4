// Package portfolio assembles per-holding view models for display.
package portfolio

import (
	"github.com/dense-analysis/stockwatch/internal/alert"
	"github.com/dense-analysis/stockwatch/internal/currency"
	"github.com/dense-analysis/stockwatch/internal/model"
	"github.com/dense-analysis/stockwatch/internal/position"
)

// Display holds the formatted strings for one holding in the display
// currency.
type Display struct {
	Quantity     string `json:"quantity"`
	AvgPrice     string `json:"avgPrice"`
	CurrentPrice string `json:"currentPrice,omitempty"`
	NetInvested  string `json:"netInvested"`
	CurrentValue string `json:"currentValue"`
	Profit       string `json:"profit"`
}

// HoldingView is everything the display needs for one holding.
//
// Quote-derived fields are nil for a ticker no quote could be fetched
// for; its value counts as zero and no alerts are evaluated.
type HoldingView struct {
	Ticker         string            `json:"ticker"`
	RemainingQty   float64           `json:"remainingQty"`
	AvgPrice       float64           `json:"avgPrice"`
	NetInvested    float64           `json:"netInvested"`
	CurrentValue   float64           `json:"currentValue"`
	Profit         float64           `json:"profit"`
	ProfitPct      float64           `json:"profitPct"`
	CurrentPrice   *float64          `json:"currentPrice,omitempty"`
	PriceChangePct *float64          `json:"priceChangePct,omitempty"`
	VolumeRatio    *float64          `json:"volumeRatio,omitempty"`
	Alerts         []alert.Kind      `json:"alerts,omitempty"`
	BreakEven      *alert.Suggestion `json:"breakEven,omitempty"`
	Display        Display           `json:"display"`
}

// Summary totals a portfolio across holdings, in USD plus the display
// currency.
type Summary struct {
	TotalInvested float64 `json:"totalInvested"`
	TotalValue    float64 `json:"totalValue"`
	TotalProfit   float64 `json:"totalProfit"`
	ProfitPct     float64 `json:"profitPct"`
	DisplayValue  string  `json:"displayValue"`
	DisplayProfit string  `json:"displayProfit"`
}

// BuildViews turns holdings, live quotes, and a rate table into view
// models in the given display currency.
func BuildViews(
	holdings []model.Holding,
	quotes map[string]model.LiveQuote,
	rates model.RateTable,
	displayCurrency string,
) ([]HoldingView, Summary) {
	views := make([]HoldingView, 0, len(holdings))
	summary := Summary{}

	format := func(usdAmount float64) string {
		return currency.Format(currency.Convert(usdAmount, displayCurrency, rates), displayCurrency)
	}

	for i := range holdings {
		holding := &holdings[i]

		var quote *model.LiveQuote

		if live, ok := quotes[holding.Ticker]; ok {
			quote = &live
		}

		aggregated := position.Aggregate(holding, quote)

		view := HoldingView{
			Ticker:       holding.Ticker,
			RemainingQty: aggregated.RemainingQty,
			AvgPrice:     aggregated.AvgPrice,
			NetInvested:  aggregated.NetInvested,
			CurrentValue: aggregated.CurrentValue,
			Profit:       aggregated.Profit,
			ProfitPct:    aggregated.ProfitPct,
			Display: Display{
				Quantity:     currency.FormatQuantity(aggregated.RemainingQty),
				AvgPrice:     format(aggregated.AvgPrice),
				NetInvested:  format(aggregated.NetInvested),
				CurrentValue: format(aggregated.CurrentValue),
				Profit:       format(aggregated.Profit),
			},
		}

		if quote != nil {
			view.CurrentPrice = &quote.CurrentPrice
			view.PriceChangePct = &quote.PriceChangePct
			view.VolumeRatio = quote.VolumeRatio
			view.Alerts = alert.Evaluate(holding, *quote)
			view.Display.CurrentPrice = format(quote.CurrentPrice)

			if suggestion, ok := alert.SuggestBreakEven(holding, *quote); ok {
				view.BreakEven = &suggestion
			}
		}

		summary.TotalInvested += aggregated.NetInvested
		summary.TotalValue += aggregated.CurrentValue

		views = append(views, view)
	}

	summary.TotalProfit = summary.TotalValue - summary.TotalInvested

	if summary.TotalInvested > 0 {
		summary.ProfitPct = summary.TotalProfit / summary.TotalInvested * 100
	}

	summary.DisplayValue = format(summary.TotalValue)
	summary.DisplayProfit = format(summary.TotalProfit)

	return views, summary
}
