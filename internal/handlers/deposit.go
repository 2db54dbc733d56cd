package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=deposit.go -destination=deposit_mock.go -package=handlers

// Depositor credits on-chain deposits.
type Depositor interface {
	Deposit(ctx context.Context, req models.DepositRequest) (*models.Transaction, error)
}

// NewDepositHandler returns an HTTP handler for crediting a deposit into the user's wallet.
// @Summary Deposit crypto
// @Description Credits a confirmed on-chain deposit. A tx_hash is accepted once per currency.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body models.DepositRequest true "Deposit request"
// @Success 201 {object} models.Transaction "Completed deposit"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 409 {object} models.ErrorResponse "Deposit already recorded"
// @Router /wallet/deposit [post]
// @Security BearerAuth
func NewDepositHandler(svc Depositor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req models.DepositRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.UserID = userID

		tx, err := svc.Deposit(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}
