package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=rate.go -destination=rate_mock.go -package=handlers

// PriceLister lists current prices of active currencies.
type PriceLister interface {
	Prices(ctx context.Context) (*models.PricesResponse, error)
}

// NewGetPricesHandler returns buy and sell prices of every active currency.
// @Summary Get prices
// @Tags prices
// @Produce json
// @Success 200 {object} models.PricesResponse
// @Router /prices [get]
func NewGetPricesHandler(svc PriceLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := svc.Prices(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
