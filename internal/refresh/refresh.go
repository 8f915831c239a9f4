// Package refresh schedules quote refreshes across the held tickers.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dense-analysis/stockwatch/internal/model"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Lookup resolves one ticker to a quote, typically through the cache
// layer. `ok` is false when no value could be obtained at all.
type Lookup func(ctx context.Context, ticker string) (model.LiveQuote, bool)

// Refresher fetches quotes for every distinct held ticker, one at a
// time, on a recurring timer and on demand.
//
// Fetches within one refresh run strictly sequentially with a small
// delay between tickers. The upstream API tolerates us because of it;
// the ordering is a contract, not an accident.
type Refresher struct {
	lookup Lookup
	delay  time.Duration
	log    zerolog.Logger
	cron   *cron.Cron

	mu       sync.Mutex
	holdings []model.Holding
	latest   map[string]model.LiveQuote
	running  bool
}

// New creates a refresher that runs every period once started, spacing
// individual ticker fetches by delay.
func New(lookup Lookup, period, delay time.Duration, log zerolog.Logger) *Refresher {
	refresher := &Refresher{
		lookup: lookup,
		delay:  delay,
		log:    log.With().Str("component", "refresher").Logger(),
		cron:   cron.New(),
		latest: map[string]model.LiveQuote{},
	}

	_, err := refresher.cron.AddFunc(fmt.Sprintf("@every %s", period), func() {
		refresher.Refresh(context.Background(), refresher.Holdings())
	})

	if err != nil {
		refresher.log.Error().Err(err).Msg("Failed to register refresh timer")
	}

	return refresher
}

// SetHoldings replaces the holding snapshot the timer refreshes.
//
// The timer starts, with one immediate refresh, when the holding set
// goes from empty to non-empty, and stops when it empties again.
// Setting an empty set while already stopped is a no-op.
func (r *Refresher) SetHoldings(holdings []model.Holding) {
	r.mu.Lock()
	r.holdings = append([]model.Holding(nil), holdings...)
	wasRunning := r.running
	r.running = len(holdings) > 0
	r.mu.Unlock()

	if wasRunning && len(holdings) == 0 {
		r.cron.Stop()
		r.log.Info().Msg("Holdings emptied, refresh timer stopped")

		return
	}

	if !wasRunning && len(holdings) > 0 {
		r.cron.Start()
		r.log.Info().Int("holdings", len(holdings)).Msg("Refresh timer started")

		go r.Refresh(context.Background(), holdings)
	}
}

// Holdings returns the current holding snapshot.
func (r *Refresher) Holdings() []model.Holding {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]model.Holding(nil), r.holdings...)
}

// Stop cancels the refresh timer. In-flight fetches finish on their
// own; their results land in the cache harmlessly.
func (r *Refresher) Stop() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	r.cron.Stop()
}

// Refresh fetches a quote for every distinct ticker across the given
// holdings and returns the map of quotes obtained.
//
// Tickers are visited in first-seen order. A ticker whose lookup
// produces nothing is skipped silently and simply stays un-priced in
// the result.
func (r *Refresher) Refresh(ctx context.Context, holdings []model.Holding) map[string]model.LiveQuote {
	tickers := distinctTickers(holdings)
	results := make(map[string]model.LiveQuote, len(tickers))

	for i, ticker := range tickers {
		if i > 0 && r.delay > 0 {
			select {
			case <-ctx.Done():
				r.publish(results)

				return results
			case <-time.After(r.delay):
			}
		}

		if quote, ok := r.lookup(ctx, ticker); ok {
			results[ticker] = quote
		}
	}

	r.publish(results)

	return results
}

// Latest returns the quote map from the most recent refresh.
func (r *Refresher) Latest() map[string]model.LiveQuote {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.latest
}

func (r *Refresher) publish(results map[string]model.LiveQuote) {
	r.mu.Lock()
	r.latest = results
	r.mu.Unlock()

	r.log.Debug().Int("quotes", len(results)).Msg("Refresh complete")
}

func distinctTickers(holdings []model.Holding) []string {
	seen := map[string]bool{}
	tickers := make([]string, 0, len(holdings))

	for _, holding := range holdings {
		if !seen[holding.Ticker] {
			seen[holding.Ticker] = true
			tickers = append(tickers, holding.Ticker)
		}
	}

	return tickers
}
