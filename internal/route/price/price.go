// Package price defines the quote lookup route.
package price

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dense-analysis/stockwatch/internal/refresh"
	"github.com/dense-analysis/stockwatch/internal/route/util"
)

type priceResponse struct {
	Price *float64 `json:"price"`
}

// HandlePrice responds with the current price for a ticker, or a null
// price when no quote can be obtained. The status is 200 either way so
// polling clients can treat a missing price as ordinary data.
func HandlePrice(lookup refresh.Lookup, writer http.ResponseWriter, request *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(mux.Vars(request)["ticker"]))

	if ticker == "" {
		util.RespondValidationError(writer, "ticker is required")

		return
	}

	response := priceResponse{}

	if quote, ok := lookup(request.Context(), ticker); ok {
		price := quote.CurrentPrice
		response.Price = &price
	}

	util.RespondJSON(writer, response)
}
