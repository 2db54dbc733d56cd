package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=transfer.go -destination=transfer_mock.go -package=handlers

// Transferer moves value between a user's own wallets.
type Transferer interface {
	Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error)
}

// NewTransferHandler returns an HTTP handler for wallet to wallet transfers.
// @Summary Transfer between wallets
// @Description Converts amount of from_currency into to_currency at the cross rate without commission.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body models.TransferRequest true "Transfer request"
// @Success 201 {object} models.TransferResult
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 422 {object} models.ErrorResponse "Insufficient funds or treasury"
// @Router /wallet/transfer [post]
// @Security BearerAuth
func NewTransferHandler(svc Transferer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req models.TransferRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.UserID = userID

		res, err := svc.Transfer(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}
