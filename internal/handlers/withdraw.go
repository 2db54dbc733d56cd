package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=withdraw.go -destination=withdraw_mock.go -package=handlers

// Withdrawer reserves funds for outgoing transfers.
type Withdrawer interface {
	Withdraw(ctx context.Context, req models.WithdrawRequest) (*models.Transaction, error)
}

// NewWithdrawHandler returns an HTTP handler for requesting a withdrawal.
// @Summary Withdraw crypto
// @Description Freezes amount plus fee and records a pending withdrawal for an operator to settle.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body models.WithdrawRequest true "Withdraw request"
// @Success 202 {object} models.Transaction "Pending withdrawal"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 422 {object} models.ErrorResponse "Insufficient funds"
// @Router /wallet/withdraw [post]
// @Security BearerAuth
func NewWithdrawHandler(svc Withdrawer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req models.WithdrawRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.UserID = userID

		tx, err := svc.Withdraw(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, tx)
	}
}
