package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=pending.go -destination=pending_mock.go -package=handlers

// WithdrawalQueue lists withdrawals waiting for settlement.
type WithdrawalQueue interface {
	PendingWithdrawals(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error)
}

// OrderSearcher lists orders across users.
type OrderSearcher interface {
	AllOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
}

func optionalUserID(r *http.Request) (uuid.UUID, error) {
	v := r.URL.Query().Get("user_id")
	if v == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.InvalidRequest, err, "invalid user id")
	}
	return id, nil
}

// NewPendingWithdrawalsHandler lists pending withdrawals for settlement.
// @Summary Pending withdrawals
// @Tags admin
// @Produce json
// @Param currency query string false "Currency symbol"
// @Param user_id query string false "User ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.TransactionsResponse
// @Router /admin/withdrawals [get]
// @Security BearerAuth
func NewPendingWithdrawalsHandler(svc WithdrawalQueue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := page(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		userID, err := optionalUserID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		txs, err := svc.PendingWithdrawals(r.Context(), models.TransactionFilter{
			UserID:   userID,
			Currency: strings.ToUpper(r.URL.Query().Get("currency")),
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

// NewAllOrdersHandler lists orders of every user.
// @Summary Search orders
// @Tags admin
// @Produce json
// @Param user_id query string false "User ID"
// @Param type query string false "buy, sell or exchange"
// @Param status query string false "Order status"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.OrdersResponse
// @Router /admin/orders [get]
// @Security BearerAuth
func NewAllOrdersHandler(svc OrderSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := page(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		userID, err := optionalUserID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		orders, err := svc.AllOrders(r.Context(), models.OrderFilter{
			UserID: userID,
			Type:   models.OrderType(r.URL.Query().Get("type")),
			Status: models.OrderStatus(r.URL.Query().Get("status")),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}
		writeJSON(w, http.StatusOK, models.OrdersResponse{Orders: orders})
	}
}
