package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dense-analysis/stockwatch/internal/alert"
	"github.com/dense-analysis/stockwatch/internal/model"
)

var testRates = model.RateTable{
	"USD": 1,
	"HUF": 390,
	"EUR": 0.92,
}

func TestBuildViews(t *testing.T) {
	holdings := []model.Holding{
		{
			Ticker:    "AAPL",
			Purchases: []model.Trade{{Quantity: 10, Price: 100}},
			Sales:     []model.Trade{{Quantity: 4, Price: 120}},
		},
	}
	quotes := map[string]model.LiveQuote{
		"AAPL": {CurrentPrice: 130, PriceChangePct: 1.2},
	}

	views, summary := BuildViews(holdings, quotes, testRates, "USD")

	require.Len(t, views, 1)
	view := views[0]

	assert.Equal(t, "AAPL", view.Ticker)
	assert.Equal(t, 6.0, view.RemainingQty)
	assert.Equal(t, 520.0, view.NetInvested)
	assert.Equal(t, 780.0, view.CurrentValue)
	assert.Equal(t, 260.0, view.Profit)
	assert.InDelta(t, 50.0, view.ProfitPct, 1e-9)

	require.NotNil(t, view.CurrentPrice)
	assert.Equal(t, 130.0, *view.CurrentPrice)
	assert.Contains(t, view.Alerts, alert.ProfitTake)

	// Selling 4 shares at 130 covers the 520 still invested.
	require.NotNil(t, view.BreakEven)
	assert.Equal(t, 4.0, view.BreakEven.ToSell)
	assert.Equal(t, 2.0, view.BreakEven.Free)

	assert.Equal(t, "6", view.Display.Quantity)
	assert.Equal(t, "$780.00", view.Display.CurrentValue)
	assert.Equal(t, "$260.00", view.Display.Profit)

	assert.Equal(t, 520.0, summary.TotalInvested)
	assert.Equal(t, 780.0, summary.TotalValue)
	assert.Equal(t, 260.0, summary.TotalProfit)
	assert.InDelta(t, 50.0, summary.ProfitPct, 1e-9)
	assert.Equal(t, "$780.00", summary.DisplayValue)
}

func TestBuildViewsConvertsDisplayCurrency(t *testing.T) {
	holdings := []model.Holding{
		{
			Ticker:    "MSFT",
			Purchases: []model.Trade{{Quantity: 1, Price: 100}},
		},
	}
	quotes := map[string]model.LiveQuote{
		"MSFT": {CurrentPrice: 100},
	}

	views, summary := BuildViews(holdings, quotes, testRates, "HUF")

	require.Len(t, views, 1)
	// Figures stay USD; only display strings convert.
	assert.Equal(t, 100.0, views[0].CurrentValue)
	assert.Contains(t, views[0].Display.CurrentValue, "39")
	assert.Contains(t, summary.DisplayValue, "Ft")
}

func TestBuildViewsWithoutQuote(t *testing.T) {
	holdings := []model.Holding{
		{
			Ticker:    "NVDA",
			Purchases: []model.Trade{{Quantity: 2, Price: 300}},
		},
	}

	views, summary := BuildViews(holdings, map[string]model.LiveQuote{}, testRates, "USD")

	require.Len(t, views, 1)
	view := views[0]

	assert.Nil(t, view.CurrentPrice)
	assert.Nil(t, view.BreakEven)
	assert.Empty(t, view.Alerts)
	assert.Equal(t, 0.0, view.CurrentValue)
	assert.Equal(t, 600.0, view.NetInvested)

	assert.Equal(t, 600.0, summary.TotalInvested)
	assert.Equal(t, 0.0, summary.TotalValue)
	assert.Equal(t, -600.0, summary.TotalProfit)
}

func TestBuildViewsEmptyPortfolio(t *testing.T) {
	views, summary := BuildViews(nil, nil, testRates, "USD")

	assert.Empty(t, views)
	assert.Zero(t, summary.TotalInvested)
	assert.Zero(t, summary.ProfitPct)
	assert.Equal(t, "$0.00", summary.DisplayValue)
}
