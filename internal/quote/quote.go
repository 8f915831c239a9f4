// Package quote fetches live market snapshots from a chart endpoint.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dense-analysis/stockwatch/internal/model"
	"github.com/rs/zerolog"
)

// ErrNoData means the endpoint answered with a well-formed response that
// is missing the fields a quote needs.
var ErrNoData = errors.New("no quote data in response")

// Client fetches quotes from a Yahoo-chart-shaped market data endpoint.
type Client struct {
	baseURL   string
	interval  string
	dateRange string
	client    *http.Client
	log       zerolog.Logger
}

// NewClient creates a quote client for the given endpoint base URL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		interval:  "5m",
		dateRange: "1d",
		client:    &http.Client{},
		log:       log.With().Str("component", "quote-client").Logger(),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				PreviousClose      *float64 `json:"previousClose"`
				ChartPreviousClose *float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// Fetch retrieves the current market snapshot for one ticker.
func (c *Client) Fetch(ctx context.Context, ticker string) (model.LiveQuote, error) {
	var quote model.LiveQuote

	url := fmt.Sprintf(
		"%s/v8/finance/chart/%s?interval=%s&range=%s",
		c.baseURL,
		strings.ToUpper(ticker),
		c.interval,
		c.dateRange,
	)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	if err != nil {
		return quote, err
	}

	// The upstream rejects the default Go user agent.
	request.Header.Set("User-Agent", "Mozilla/5.0")

	response, err := c.client.Do(request)

	if err != nil {
		return quote, fmt.Errorf("quote request failed: %w", err)
	}

	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return quote, fmt.Errorf("quote endpoint returned status %d", response.StatusCode)
	}

	var payload chartResponse

	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return quote, fmt.Errorf("quote parse error: %w", err)
	}

	if len(payload.Chart.Result) == 0 {
		return quote, ErrNoData
	}

	result := payload.Chart.Result[0]

	if result.Meta.RegularMarketPrice == nil || *result.Meta.RegularMarketPrice <= 0 {
		return quote, ErrNoData
	}

	quote.CurrentPrice = *result.Meta.RegularMarketPrice
	quote.FetchedAt = time.Now()

	previousClose := result.Meta.PreviousClose

	if previousClose == nil {
		previousClose = result.Meta.ChartPreviousClose
	}

	if previousClose != nil && *previousClose > 0 {
		quote.PriceChangePct = (quote.CurrentPrice - *previousClose) / *previousClose * 100
	}

	if len(result.Indicators.Quote) > 0 {
		quote.VolumeRatio = volumeRatio(result.Indicators.Quote[0].Volume)
	}

	c.log.Debug().
		Str("ticker", ticker).
		Float64("price", quote.CurrentPrice).
		Msg("Fetched quote")

	return quote, nil
}

// volumeRatio compares the latest volume sample to the session average.
//
// The endpoint pads the volume series with nulls for periods with no
// trades, so samples must be null-filtered before averaging. A series
// with no usable samples yields no ratio at all.
func volumeRatio(samples []*float64) *float64 {
	volumes := make([]float64, 0, len(samples))

	for _, sample := range samples {
		if sample != nil {
			volumes = append(volumes, *sample)
		}
	}

	if len(volumes) == 0 {
		return nil
	}

	total := 0.0

	for _, volume := range volumes {
		total += volume
	}

	average := total / float64(len(volumes))

	if average <= 0 {
		return nil
	}

	ratio := volumes[len(volumes)-1] / average

	return &ratio
}
