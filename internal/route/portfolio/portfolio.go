// Package portfolio defines the portfolio valuation route.
package portfolio

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dense-analysis/stockwatch/internal/database"
	"github.com/dense-analysis/stockwatch/internal/model"
	"github.com/dense-analysis/stockwatch/internal/portfolio"
	"github.com/dense-analysis/stockwatch/internal/refresh"
	"github.com/dense-analysis/stockwatch/internal/route/util"
	"github.com/dense-analysis/stockwatch/internal/store"
)

// RateSource produces the current conversion table, falling back to
// built-in rates when the upstream is unavailable.
type RateSource func(ctx context.Context) model.RateTable

type portfolioResponse struct {
	Currency string                  `json:"currency"`
	Holdings []portfolio.HoldingView `json:"holdings"`
	Summary  portfolio.Summary       `json:"summary"`
}

// HandlePortfolio responds with every holding for a user, valued at
// current prices in the requested display currency.
func HandlePortfolio(
	conn *database.Conn,
	lookup refresh.Lookup,
	rates RateSource,
	writer http.ResponseWriter,
	request *http.Request,
) {
	userID := strings.TrimSpace(request.URL.Query().Get("user"))

	if userID == "" {
		util.RespondValidationError(writer, "user is required")

		return
	}

	displayCurrency := strings.ToUpper(strings.TrimSpace(request.URL.Query().Get("currency")))

	if displayCurrency == "" {
		displayCurrency = "USD"
	}

	holdings, err := store.LoadHoldings(conn, userID)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	quotes := map[string]model.LiveQuote{}

	for i := range holdings {
		ticker := holdings[i].Ticker

		if _, ok := quotes[ticker]; ok {
			continue
		}

		if quote, ok := lookup(request.Context(), ticker); ok {
			quotes[ticker] = quote
		}
	}

	views, summary := portfolio.BuildViews(holdings, quotes, rates(request.Context()), displayCurrency)

	util.RespondJSON(writer, portfolioResponse{
		Currency: displayCurrency,
		Holdings: views,
		Summary:  summary,
	})
}

func parseTrade(request *http.Request) (model.Trade, error) {
	trade := model.Trade{Date: time.Now().UTC()}

	quantity, err := strconv.ParseFloat(request.PostFormValue("quantity"), 64)

	if err != nil || quantity <= 0 {
		return trade, errors.New("quantity must be a positive number")
	}

	price, err := strconv.ParseFloat(request.PostFormValue("price"), 64)

	if err != nil || price < 0 {
		return trade, errors.New("price must be a non-negative number")
	}

	trade.Quantity = quantity
	trade.Price = price

	if feeValue := request.PostFormValue("fee"); feeValue != "" {
		fee, err := strconv.ParseFloat(feeValue, 64)

		if err != nil || fee < 0 {
			return trade, errors.New("fee must be a non-negative number")
		}

		trade.Fee = fee
	}

	if dateValue := request.PostFormValue("date"); dateValue != "" {
		date, err := time.Parse("2006-01-02", dateValue)

		if err != nil {
			return trade, errors.New("date must be formatted as YYYY-MM-DD")
		}

		trade.Date = date
	}

	return trade, nil
}

// HandleSubmitTrade records one buy or sell against a user's holding.
func HandleSubmitTrade(
	conn *database.Conn,
	writer http.ResponseWriter,
	request *http.Request,
) {
	if err := request.ParseForm(); err != nil {
		util.RespondValidationError(writer, "invalid form data")

		return
	}

	userID := strings.TrimSpace(request.PostFormValue("user"))
	ticker := strings.ToUpper(strings.TrimSpace(request.PostFormValue("ticker")))
	side := strings.ToLower(strings.TrimSpace(request.PostFormValue("side")))

	if userID == "" || ticker == "" {
		util.RespondValidationError(writer, "user and ticker are required")

		return
	}

	if side != store.SideBuy && side != store.SideSell {
		util.RespondValidationError(writer, "side must be buy or sell")

		return
	}

	trade, err := parseTrade(request)

	if err != nil {
		util.RespondValidationError(writer, err.Error())

		return
	}

	if err := store.SaveTrade(conn, userID, ticker, side, trade); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	writer.WriteHeader(http.StatusCreated)
}
