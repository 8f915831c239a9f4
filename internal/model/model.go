package model

import (
	"time"
)

// User represents a user in the database.
type User struct {
	ID    string
	Email string
}

// Trade represents one purchase or disposal of a security.
type Trade struct {
	Quantity float64
	Price    float64
	Fee      float64
	Date     time.Time
}

// Holding represents one tracked security for one user.
//
// Tickers are normalized to uppercase and unique per user. The engine
// only reads holdings; creating and destroying them is the store's job.
type Holding struct {
	Ticker    string
	Purchases []Trade
	Sales     []Trade
}

// TotalPurchased returns the total quantity ever purchased.
func (h *Holding) TotalPurchased() float64 {
	total := 0.0

	for _, trade := range h.Purchases {
		total += trade.Quantity
	}

	return total
}

// TotalSold returns the total quantity ever sold.
func (h *Holding) TotalSold() float64 {
	total := 0.0

	for _, trade := range h.Sales {
		total += trade.Quantity
	}

	return total
}

// LiveQuote is a point-in-time market snapshot for one ticker.
type LiveQuote struct {
	CurrentPrice   float64
	PriceChangePct float64
	// VolumeRatio is current-period volume over the session average.
	// It is nil when the source variant supplies no volume samples.
	VolumeRatio *float64
	FetchedAt   time.Time
}

// RateTable maps currency codes to USD exchange rates.
//
// The table always contains USD with a rate of 1 as the anchor.
type RateTable map[string]float64
