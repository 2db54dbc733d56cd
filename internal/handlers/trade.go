package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=trade.go -destination=trade_mock.go -package=handlers

// Buyer executes buy orders.
type Buyer interface {
	Buy(ctx context.Context, req models.BuyRequest) (*models.Order, error)
}

// Seller executes sell orders.
type Seller interface {
	Sell(ctx context.Context, req models.SellRequest) (*models.Order, error)
}

// NewBuyHandler handles buy orders.
// @Summary Buy crypto
// @Description Buys amount units of a currency with base fiat, optionally applying a discount code.
// @Tags orders
// @Accept json
// @Produce json
// @Param request body models.BuyRequest true "Buy request"
// @Success 201 {object} models.Order "Completed order"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 422 {object} models.ErrorResponse "Insufficient funds, treasury or invalid discount"
// @Router /orders/buy [post]
// @Security BearerAuth
func NewBuyHandler(svc Buyer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req models.BuyRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.UserID = userID

		order, err := svc.Buy(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, order)
	}
}

// NewSellHandler handles sell orders.
// @Summary Sell crypto
// @Description Sells amount units of a currency for base fiat.
// @Tags orders
// @Accept json
// @Produce json
// @Param request body models.SellRequest true "Sell request"
// @Success 201 {object} models.Order "Completed order"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 422 {object} models.ErrorResponse "Insufficient funds"
// @Router /orders/sell [post]
// @Security BearerAuth
func NewSellHandler(svc Seller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req models.SellRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.UserID = userID

		order, err := svc.Sell(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, order)
	}
}
