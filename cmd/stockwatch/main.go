package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/dense-analysis/stockwatch/internal/cache"
	"github.com/dense-analysis/stockwatch/internal/config"
	"github.com/dense-analysis/stockwatch/internal/database"
	"github.com/dense-analysis/stockwatch/internal/env"
	"github.com/dense-analysis/stockwatch/internal/logger"
	"github.com/dense-analysis/stockwatch/internal/model"
	"github.com/dense-analysis/stockwatch/internal/quote"
	"github.com/dense-analysis/stockwatch/internal/rates"
	"github.com/dense-analysis/stockwatch/internal/refresh"
	portfolioroute "github.com/dense-analysis/stockwatch/internal/route/portfolio"
	"github.com/dense-analysis/stockwatch/internal/route/price"
	"github.com/dense-analysis/stockwatch/internal/route/util"
	"github.com/dense-analysis/stockwatch/internal/store"
)

func loadAllHoldings(conn *database.Conn, log zerolog.Logger) []model.Holding {
	var users []model.User

	if err := store.LoadUsers(conn, &users); err != nil {
		log.Error().Err(err).Msg("Failed to load users")

		return nil
	}

	var holdings []model.Holding

	for _, user := range users {
		userHoldings, err := store.LoadHoldings(conn, user.ID)

		if err != nil {
			log.Error().Err(err).Str("user", user.ID).Msg("Failed to load holdings")

			continue
		}

		holdings = append(holdings, userHoldings...)
	}

	return holdings
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
		log.Fatal().Err(err).Msg("Database connection error")
	}

	defer conn.Close()

	quoteClient := quote.NewClient(conf.QuoteBaseURL, log)
	rateClient := rates.NewClient(conf.RateBaseURL, conf.DisplayCurrencies, log)
	quoteCache := cache.New[model.LiveQuote](conf.QuoteTTL, conf.FetchTimeout, log)
	rateCache := cache.New[model.RateTable](conf.RateTTL, conf.FetchTimeout, log)

	lookup := refresh.Lookup(func(ctx context.Context, ticker string) (model.LiveQuote, bool) {
		value, _, ok := quoteCache.Get(ctx, ticker, func(ctx context.Context) (model.LiveQuote, error) {
			return quoteClient.Fetch(ctx, ticker)
		})

		return value, ok
	})

	rateSource := portfolioroute.RateSource(func(ctx context.Context) model.RateTable {
		table, _, ok := rateCache.Get(ctx, "USD", rateClient.Fetch)

		if !ok {
			return rates.Fallback()
		}

		return table
	})

	refresher := refresh.New(lookup, conf.RefreshPeriod, conf.RequestDelay, log)
	refresher.SetHoldings(loadAllHoldings(conn, log))

	defer refresher.Stop()

	router := mux.NewRouter().StrictSlash(true)
	router.NotFoundHandler = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		util.RespondNotFound(writer)
	})

	router.HandleFunc("/price/{ticker}", func(writer http.ResponseWriter, request *http.Request) {
		price.HandlePrice(lookup, writer, request)
	}).Methods("GET")
	router.HandleFunc("/portfolio", func(writer http.ResponseWriter, request *http.Request) {
		portfolioroute.HandlePortfolio(conn, lookup, rateSource, writer, request)
	}).Methods("GET")
	router.HandleFunc("/trade", func(writer http.ResponseWriter, request *http.Request) {
		portfolioroute.HandleSubmitTrade(conn, writer, request)
		refresher.SetHoldings(loadAllHoldings(conn, log))
	}).Methods("POST")

	server := http.Server{
		Addr:    fmt.Sprintf(":%d", conf.Port),
		Handler: router,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	log.Info().Int("port", conf.Port).Msg("Server started")
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server shut down failed")
	}

	log.Info().Msg("Server shut down successfully")
}
