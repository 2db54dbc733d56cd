package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=balance.go -destination=balance_mock.go -package=handlers

// WalletReader serves balances, valuations and ledger history.
type WalletReader interface {
	GetWallets(ctx context.Context, userID uuid.UUID) (*models.WalletsResponse, error)
	Portfolio(ctx context.Context, userID uuid.UUID) (*models.Portfolio, error)
	Transactions(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error)
}

// NewGetBalanceHandler returns the caller's fiat balance and crypto wallets.
// @Summary Get balances
// @Tags wallet
// @Produce json
// @Success 200 {object} models.WalletsResponse
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /wallet/balance [get]
// @Security BearerAuth
func NewGetBalanceHandler(svc WalletReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp, err := svc.GetWallets(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// NewPortfolioHandler values the caller's holdings at current sell prices.
// @Summary Get portfolio
// @Tags wallet
// @Produce json
// @Success 200 {object} models.Portfolio
// @Router /wallet/portfolio [get]
// @Security BearerAuth
func NewPortfolioHandler(svc WalletReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp, err := svc.Portfolio(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// NewTransactionsHandler lists the caller's ledger entries, newest first.
// @Summary List transactions
// @Tags wallet
// @Produce json
// @Param currency query string false "Currency symbol"
// @Param type query string false "Transaction type"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.TransactionsResponse
// @Router /wallet/transactions [get]
// @Security BearerAuth
func NewTransactionsHandler(svc WalletReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		limit, offset, err := page(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		txs, err := svc.Transactions(r.Context(), models.TransactionFilter{
			UserID:   userID,
			Currency: strings.ToUpper(r.URL.Query().Get("currency")),
			Type:     models.TransactionType(r.URL.Query().Get("type")),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		if txs == nil {
			txs = []*models.Transaction{}
		}
		writeJSON(w, http.StatusOK, models.TransactionsResponse{Transactions: txs})
	}
}
