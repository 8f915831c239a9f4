package position

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dense-analysis/stockwatch/internal/model"
)

func TestAggregatePartialSale(t *testing.T) {
	holding := &model.Holding{
		Ticker:    "AAPL",
		Purchases: []model.Trade{{Quantity: 10, Price: 100}},
		Sales:     []model.Trade{{Quantity: 4, Price: 120}},
	}
	quote := &model.LiveQuote{CurrentPrice: 130}

	view := Aggregate(holding, quote)

	assert.Equal(t, 6.0, view.RemainingQty)
	assert.Equal(t, 1000.0, view.TotalCost)
	assert.Equal(t, 480.0, view.SaleProceeds)
	assert.Equal(t, 520.0, view.NetInvested)
	assert.Equal(t, 780.0, view.CurrentValue)
	assert.Equal(t, 260.0, view.Profit)
	assert.InDelta(t, 50.0, view.ProfitPct, 1e-9)
	assert.InDelta(t, 520.0/6.0, view.AvgPrice, 1e-9)
}

func TestAggregateIncludesFees(t *testing.T) {
	holding := &model.Holding{
		Ticker:    "MSFT",
		Purchases: []model.Trade{{Quantity: 2, Price: 50, Fee: 5}},
		Sales:     []model.Trade{{Quantity: 1, Price: 60, Fee: 2}},
	}
	quote := &model.LiveQuote{CurrentPrice: 70}

	view := Aggregate(holding, quote)

	assert.Equal(t, 105.0, view.TotalCost)
	assert.Equal(t, 58.0, view.SaleProceeds)
	assert.Equal(t, 47.0, view.NetInvested)
	assert.Equal(t, 70.0, view.CurrentValue)
}

func TestAggregateClampsOversoldQuantity(t *testing.T) {
	holding := &model.Holding{
		Ticker:    "TSLA",
		Purchases: []model.Trade{{Quantity: 5, Price: 100}},
		Sales:     []model.Trade{{Quantity: 8, Price: 110}},
	}
	quote := &model.LiveQuote{CurrentPrice: 120}

	view := Aggregate(holding, quote)

	assert.Equal(t, 0.0, view.RemainingQty)
	assert.Equal(t, 0.0, view.CurrentValue)
	assert.Equal(t, 0.0, view.AvgPrice)
	// Proceeds above cost leave a negative invested amount.
	assert.Equal(t, -380.0, view.NetInvested)
	assert.Equal(t, 380.0, view.Profit)
	assert.Equal(t, 0.0, view.ProfitPct)
}

func TestAggregateWithoutQuote(t *testing.T) {
	holding := &model.Holding{
		Ticker:    "NVDA",
		Purchases: []model.Trade{{Quantity: 3, Price: 200}},
	}

	view := Aggregate(holding, nil)

	assert.Equal(t, 3.0, view.RemainingQty)
	assert.Equal(t, 0.0, view.CurrentValue)
	assert.Equal(t, -600.0, view.Profit)
	assert.Equal(t, -100.0, view.ProfitPct)
}

func TestAggregateEmptyHolding(t *testing.T) {
	view := Aggregate(&model.Holding{Ticker: "AMD"}, &model.LiveQuote{CurrentPrice: 100})

	assert.Zero(t, view.RemainingQty)
	assert.Zero(t, view.NetInvested)
	assert.Zero(t, view.Profit)
	assert.Zero(t, view.ProfitPct)
	assert.Zero(t, view.AvgPrice)
}
