// Package rates fetches USD exchange rates for the display currencies.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dense-analysis/stockwatch/internal/model"
	"github.com/rs/zerolog"
)

// ErrNoData means the endpoint answered without any usable rates.
var ErrNoData = errors.New("no rates in response")

// Client fetches rates from a frankfurter-shaped FX endpoint.
type Client struct {
	baseURL    string
	currencies []string
	client     *http.Client
	log        zerolog.Logger
}

// NewClient creates a rate client fetching USD rates for the given
// target currencies.
func NewClient(baseURL string, currencies []string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		currencies: currencies,
		client:     &http.Client{},
		log:        log.With().Str("component", "rate-client").Logger(),
	}
}

type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// Fetch retrieves the current USD rate table.
//
// The result always carries USD at 1 as the anchor.
func (c *Client) Fetch(ctx context.Context) (model.RateTable, error) {
	url := fmt.Sprintf(
		"%s/latest?from=USD&to=%s",
		c.baseURL,
		strings.Join(c.currencies, ","),
	)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	if err != nil {
		return nil, err
	}

	response, err := c.client.Do(request)

	if err != nil {
		return nil, fmt.Errorf("rate request failed: %w", err)
	}

	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate endpoint returned status %d", response.StatusCode)
	}

	var payload rateResponse

	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("rate parse error: %w", err)
	}

	table := model.RateTable{"USD": 1}

	for _, code := range c.currencies {
		if rate, ok := payload.Rates[code]; ok && rate > 0 {
			table[code] = rate
		}
	}

	if len(table) == 1 && len(c.currencies) > 0 {
		return nil, ErrNoData
	}

	c.log.Debug().Int("rates", len(table)).Msg("Fetched rate table")

	return table, nil
}

// Fallback returns a hardcoded rate table for when the FX endpoint is
// unreachable and no cached table exists. The values are approximate;
// conversion must keep working regardless.
func Fallback() model.RateTable {
	return model.RateTable{
		"USD": 1,
		"HUF": 390,
		"EUR": 0.92,
	}
}
