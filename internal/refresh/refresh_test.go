package refresh

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dense-analysis/stockwatch/internal/model"
)

func holdingsFor(tickers ...string) []model.Holding {
	holdings := make([]model.Holding, 0, len(tickers))

	for _, ticker := range tickers {
		holdings = append(holdings, model.Holding{Ticker: ticker})
	}

	return holdings
}

func TestRefreshVisitsTickersInFirstSeenOrder(t *testing.T) {
	var visited []string

	lookup := func(ctx context.Context, ticker string) (model.LiveQuote, bool) {
		visited = append(visited, ticker)
		return model.LiveQuote{CurrentPrice: 1}, true
	}

	refresher := New(lookup, time.Hour, 0, zerolog.Nop())
	defer refresher.Stop()

	quotes := refresher.Refresh(
		context.Background(),
		holdingsFor("AAPL", "MSFT", "AAPL", "NVDA", "MSFT"),
	)

	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, visited)
	assert.Len(t, quotes, 3)
}

func TestRefreshSkipsFailedLookups(t *testing.T) {
	lookup := func(ctx context.Context, ticker string) (model.LiveQuote, bool) {
		if ticker == "MSFT" {
			return model.LiveQuote{}, false
		}

		return model.LiveQuote{CurrentPrice: 1}, true
	}

	refresher := New(lookup, time.Hour, 0, zerolog.Nop())
	defer refresher.Stop()

	quotes := refresher.Refresh(context.Background(), holdingsFor("AAPL", "MSFT", "NVDA"))

	assert.Contains(t, quotes, "AAPL")
	assert.Contains(t, quotes, "NVDA")
	assert.NotContains(t, quotes, "MSFT")
}

func TestRefreshPublishesLatest(t *testing.T) {
	lookup := func(ctx context.Context, ticker string) (model.LiveQuote, bool) {
		return model.LiveQuote{CurrentPrice: 42}, true
	}

	refresher := New(lookup, time.Hour, 0, zerolog.Nop())
	defer refresher.Stop()

	assert.Empty(t, refresher.Latest())

	refresher.Refresh(context.Background(), holdingsFor("AAPL"))

	latest := refresher.Latest()
	require.Contains(t, latest, "AAPL")
	assert.Equal(t, 42.0, latest["AAPL"].CurrentPrice)
}

func TestRefreshStopsOnCancelledContext(t *testing.T) {
	calls := 0

	lookup := func(ctx context.Context, ticker string) (model.LiveQuote, bool) {
		calls++
		return model.LiveQuote{CurrentPrice: 1}, true
	}

	refresher := New(lookup, time.Hour, time.Minute, zerolog.Nop())
	defer refresher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	quotes := refresher.Refresh(ctx, holdingsFor("AAPL", "MSFT"))

	// The first ticker runs before any delay; the cancelled context
	// stops the run before the second.
	assert.Equal(t, 1, calls)
	assert.Len(t, quotes, 1)
}

func TestSetHoldingsReplacesSnapshot(t *testing.T) {
	lookup := func(ctx context.Context, ticker string) (model.LiveQuote, bool) {
		return model.LiveQuote{CurrentPrice: 1}, true
	}

	refresher := New(lookup, time.Hour, 0, zerolog.Nop())
	defer refresher.Stop()

	refresher.SetHoldings(holdingsFor("AAPL", "MSFT"))
	assert.Len(t, refresher.Holdings(), 2)

	refresher.SetHoldings(holdingsFor("NVDA"))
	require.Len(t, refresher.Holdings(), 1)
	assert.Equal(t, "NVDA", refresher.Holdings()[0].Ticker)

	refresher.SetHoldings(nil)
	assert.Empty(t, refresher.Holdings())
}

func TestSetHoldingsStopsTimerWhenEmptied(t *testing.T) {
	var calls atomic.Int64

	lookup := func(ctx context.Context, ticker string) (model.LiveQuote, bool) {
		calls.Add(1)
		return model.LiveQuote{CurrentPrice: 1}, true
	}

	refresher := New(lookup, time.Second, 0, zerolog.Nop())
	defer refresher.Stop()

	refresher.SetHoldings(holdingsFor("AAPL"))

	// Wait for the immediate refresh to publish before emptying.
	require.Eventually(t, func() bool {
		return len(refresher.Latest()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	refresher.SetHoldings(nil)
	time.Sleep(100 * time.Millisecond)
	settled := calls.Load()

	// Emptying an already stopped refresher stays a no-op.
	refresher.SetHoldings(nil)

	// No timer fire may land after the holdings emptied.
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
	assert.Empty(t, refresher.Holdings())
}

func TestSetHoldingsTriggersImmediateRefresh(t *testing.T) {
	fetched := make(chan string, 8)

	lookup := func(ctx context.Context, ticker string) (model.LiveQuote, bool) {
		fetched <- ticker
		return model.LiveQuote{CurrentPrice: 1}, true
	}

	refresher := New(lookup, time.Hour, 0, zerolog.Nop())
	defer refresher.Stop()

	refresher.SetHoldings(holdingsFor("AAPL"))

	select {
	case ticker := <-fetched:
		assert.Equal(t, "AAPL", ticker)
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh after holdings became non-empty")
	}
}
