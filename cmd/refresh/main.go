// Fetch quotes for every held ticker and archive them in the database
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dense-analysis/stockwatch/internal/config"
	"github.com/dense-analysis/stockwatch/internal/database"
	"github.com/dense-analysis/stockwatch/internal/env"
	"github.com/dense-analysis/stockwatch/internal/logger"
	"github.com/dense-analysis/stockwatch/internal/model"
	"github.com/dense-analysis/stockwatch/internal/quote"
	"github.com/dense-analysis/stockwatch/internal/refresh"
	"github.com/dense-analysis/stockwatch/internal/store"
)

func loadAllHoldings(conn *database.Conn) ([]model.Holding, error) {
	var users []model.User

	if err := store.LoadUsers(conn, &users); err != nil {
		return nil, err
	}

	var holdings []model.Holding

	for _, user := range users {
		userHoldings, err := store.LoadHoldings(conn, user.ID)

		if err != nil {
			return nil, err
		}

		holdings = append(holdings, userHoldings...)
	}

	return holdings, nil
}

func main() {
	env.LoadEnvironmentVariables()

	conf, err := config.Load()

	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %s\n", err)
		os.Exit(1)
	}

	log := logger.New(conf.LogLevel)

	conn, err := database.Connect()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %s\n", err)
		os.Exit(1)
	}

	defer func() {
		_ = conn.Close()
	}()

	holdings, err := loadAllHoldings(conn)

	if err != nil {
		fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
		os.Exit(1)
	}

	client := quote.NewClient(conf.QuoteBaseURL, log)

	lookup := func(ctx context.Context, ticker string) (model.LiveQuote, bool) {
		fetchCtx, cancel := context.WithTimeout(ctx, conf.FetchTimeout)
		defer cancel()

		live, err := client.Fetch(fetchCtx, ticker)

		if err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("Quote fetch failed")

			return model.LiveQuote{}, false
		}

		return live, true
	}

	refresher := refresh.New(lookup, conf.RefreshPeriod, conf.RequestDelay, log)
	quotes := refresher.Refresh(context.Background(), holdings)

	if err := store.InsertQuoteSnapshots(conn, quotes); err != nil {
		fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
		os.Exit(1)
	}
}
