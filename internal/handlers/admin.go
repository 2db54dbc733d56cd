package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/services"
)

//go:generate mockgen -source=admin.go -destination=admin_mock.go -package=handlers

// CurrencyAdmin manages the currency catalogue, treasury and discount codes.
type CurrencyAdmin interface {
	CreateCurrency(ctx context.Context, c *models.Currency) error
	SetActive(ctx context.Context, symbol string, active bool) (*models.Currency, error)
	UpdatePricing(ctx context.Context, req models.UpdatePricingRequest) (*models.Currency, error)
	AdjustTreasury(ctx context.Context, req models.TreasuryAdjustmentRequest) (*models.Currency, error)
	CreateDiscount(ctx context.Context, d *models.Discount) error
}

// PriceSyncer refreshes prices from an external feed.
type PriceSyncer interface {
	SyncPrices(ctx context.Context, feed services.PriceFeed) (int, error)
}

// WithdrawalSettler settles pending withdrawals.
type WithdrawalSettler interface {
	CompleteWithdrawal(ctx context.Context, transactionID uuid.UUID, txHash string) (*models.Transaction, error)
	RejectWithdrawal(ctx context.Context, transactionID uuid.UUID, reason string) (*models.Transaction, error)
}

// OrderCorrector overrides order status.
type OrderCorrector interface {
	CorrectOrderStatus(ctx context.Context, req models.CorrectOrderStatusRequest) (*models.Order, error)
}

// CompleteWithdrawalRequest carries the on-chain hash of a settled withdrawal.
type CompleteWithdrawalRequest struct {
	TxHash string `json:"tx_hash"`
}

// RejectWithdrawalRequest explains why a withdrawal was refused.
type RejectWithdrawalRequest struct {
	Reason string `json:"reason"`
}

// SyncPricesResponse reports how many currencies were repriced.
type SyncPricesResponse struct {
	Updated int `json:"updated"`
}

func symbolParam(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "symbol"))
}

// NewCreateCurrencyHandler registers a new currency.
// @Summary Create currency
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.Currency true "Currency"
// @Success 201 {object} models.Currency
// @Failure 409 {object} models.ErrorResponse "Currency already exists"
// @Router /admin/currencies [post]
// @Security BearerAuth
func NewCreateCurrencyHandler(svc CurrencyAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c models.Currency
		if err := decode(r, &c); err != nil {
			writeError(w, r, err)
			return
		}
		c.Symbol = strings.ToUpper(c.Symbol)

		if err := svc.CreateCurrency(r.Context(), &c); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, &c)
	}
}

// NewSetCurrencyActiveHandler activates or deactivates the currency named in the path.
// @Summary Activate or deactivate currency
// @Tags admin
// @Produce json
// @Param symbol path string true "Currency symbol"
// @Success 200 {object} models.Currency
// @Failure 404 {object} models.ErrorResponse "Currency not found"
// @Router /admin/currencies/{symbol}/activate [post]
// @Router /admin/currencies/{symbol}/deactivate [post]
// @Security BearerAuth
func NewSetCurrencyActiveHandler(svc CurrencyAdmin, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.SetActive(r.Context(), symbolParam(r), active)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// NewUpdatePricingHandler changes prices or commissions of a currency.
// @Summary Update pricing
// @Tags admin
// @Accept json
// @Produce json
// @Param symbol path string true "Currency symbol"
// @Param request body models.UpdatePricingRequest true "Pricing change"
// @Success 200 {object} models.Currency
// @Failure 400 {object} models.ErrorResponse "Invalid pricing"
// @Router /admin/currencies/{symbol}/pricing [put]
// @Security BearerAuth
func NewUpdatePricingHandler(svc CurrencyAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdatePricingRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.Symbol = symbolParam(r)

		c, err := svc.UpdatePricing(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// NewAdjustTreasuryHandler moves a currency's treasury by a signed delta.
// @Summary Adjust treasury
// @Tags admin
// @Accept json
// @Produce json
// @Param symbol path string true "Currency symbol"
// @Param request body models.TreasuryAdjustmentRequest true "Adjustment"
// @Success 200 {object} models.Currency
// @Failure 422 {object} models.ErrorResponse "Treasury would go negative"
// @Router /admin/currencies/{symbol}/treasury [post]
// @Security BearerAuth
func NewAdjustTreasuryHandler(svc CurrencyAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.TreasuryAdjustmentRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.Symbol = symbolParam(r)

		c, err := svc.AdjustTreasury(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// NewCreateDiscountHandler registers a discount code.
// @Summary Create discount
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.Discount true "Discount"
// @Success 201 {object} models.Discount
// @Failure 409 {object} models.ErrorResponse "Code already exists"
// @Router /admin/discounts [post]
// @Security BearerAuth
func NewCreateDiscountHandler(svc CurrencyAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d models.Discount
		if err := decode(r, &d); err != nil {
			writeError(w, r, err)
			return
		}

		if err := svc.CreateDiscount(r.Context(), &d); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, &d)
	}
}

// NewSyncPricesHandler pulls mid prices from feed and reprices every active currency.
// @Summary Sync prices
// @Tags admin
// @Produce json
// @Success 200 {object} SyncPricesResponse
// @Failure 503 {object} models.ErrorResponse "Price feed unavailable"
// @Router /admin/prices/sync [post]
// @Security BearerAuth
func NewSyncPricesHandler(svc PriceSyncer, feed services.PriceFeed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.SyncPrices(r.Context(), feed)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, SyncPricesResponse{Updated: n})
	}
}

func transactionIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.InvalidRequest, err, "invalid transaction id")
	}
	return id, nil
}

// NewCompleteWithdrawalHandler marks a pending withdrawal as sent.
// @Summary Complete withdrawal
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body CompleteWithdrawalRequest true "Settlement"
// @Success 200 {object} models.Transaction
// @Failure 409 {object} models.ErrorResponse "Withdrawal is not pending"
// @Router /admin/withdrawals/{id}/complete [post]
// @Security BearerAuth
func NewCompleteWithdrawalHandler(svc WithdrawalSettler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := transactionIDParam(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req CompleteWithdrawalRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		tx, err := svc.CompleteWithdrawal(r.Context(), id, req.TxHash)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

// NewRejectWithdrawalHandler refuses a pending withdrawal and releases the frozen funds.
// @Summary Reject withdrawal
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body RejectWithdrawalRequest false "Reason"
// @Success 200 {object} models.Transaction
// @Router /admin/withdrawals/{id}/reject [post]
// @Security BearerAuth
func NewRejectWithdrawalHandler(svc WithdrawalSettler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := transactionIDParam(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req RejectWithdrawalRequest
		if err := decodeOptional(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		tx, err := svc.RejectWithdrawal(r.Context(), id, req.Reason)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

// NewCorrectOrderStatusHandler overrides the status of an order.
// @Summary Correct order status
// @Tags admin
// @Accept json
// @Produce json
// @Param number path string true "Order number"
// @Param request body models.CorrectOrderStatusRequest true "New status"
// @Success 200 {object} models.Order
// @Router /admin/orders/{number}/status [put]
// @Security BearerAuth
func NewCorrectOrderStatusHandler(svc OrderCorrector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CorrectOrderStatusRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.OrderNumber = chi.URLParam(r, "number")

		order, err := svc.CorrectOrderStatus(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}
