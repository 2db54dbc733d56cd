package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=exchange.go -destination=exchange_mock.go -package=handlers

// Exchanger converts one crypto holding into another.
type Exchanger interface {
	Exchange(ctx context.Context, req models.ExchangeRequest) (*models.Order, error)
}

// Quoter previews trades without executing them.
type Quoter interface {
	Quote(ctx context.Context, req models.QuoteRequest) (*models.Quote, error)
}

// NewExchangeHandler handles crypto to crypto exchange requests.
// @Summary Exchange currency
// @Description Converts amount of from_currency into to_currency at the posted cross rate.
// @Tags orders
// @Accept json
// @Produce json
// @Param request body models.ExchangeRequest true "Exchange request"
// @Success 201 {object} models.Order "Completed order"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 422 {object} models.ErrorResponse "Insufficient funds or treasury"
// @Router /orders/exchange [post]
// @Security BearerAuth
func NewExchangeHandler(svc Exchanger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req models.ExchangeRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.UserID = userID

		order, err := svc.Exchange(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, order)
	}
}

// NewQuoteHandler previews a buy, sell or exchange.
// @Summary Quote a trade
// @Description Computes cost or proceeds, commission and discount without changing any balance.
// @Tags orders
// @Accept json
// @Produce json
// @Param request body models.QuoteRequest true "Quote request"
// @Success 200 {object} models.Quote "Quote"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /orders/quote [post]
// @Security BearerAuth
func NewQuoteHandler(svc Quoter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req models.QuoteRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.UserID = userID

		quote, err := svc.Quote(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, quote)
	}
}
