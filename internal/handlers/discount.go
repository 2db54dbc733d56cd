package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=discount.go -destination=discount_mock.go -package=handlers

// DiscountManager edits, lists and removes discount codes.
type DiscountManager interface {
	UpdateDiscount(ctx context.Context, req models.UpdateDiscountRequest) (*models.Discount, error)
	ListDiscounts(ctx context.Context, filter models.DiscountFilter) ([]*models.Discount, error)
	DeleteDiscount(ctx context.Context, code string) error
}

func codeParam(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "code"))
}

// NewUpdateDiscountHandler edits a discount code. Omitted fields keep their value.
// @Summary Update discount
// @Tags admin
// @Accept json
// @Produce json
// @Param code path string true "Discount code"
// @Param request body models.UpdateDiscountRequest true "Changes"
// @Success 200 {object} models.Discount
// @Failure 404 {object} models.ErrorResponse "Unknown code"
// @Router /admin/discounts/{code} [patch]
// @Security BearerAuth
func NewUpdateDiscountHandler(svc DiscountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdateDiscountRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.Code = codeParam(r)

		d, err := svc.UpdateDiscount(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// NewListDiscountsHandler pages through discount codes.
// @Summary List discounts
// @Tags admin
// @Produce json
// @Param active query bool false "Filter by state"
// @Param type query string false "percentage or fixed"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.DiscountsResponse
// @Router /admin/discounts [get]
// @Security BearerAuth
func NewListDiscountsHandler(svc DiscountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := page(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter := models.DiscountFilter{
			Type:   models.DiscountType(r.URL.Query().Get("type")),
			Limit:  limit,
			Offset: offset,
		}
		if v := r.URL.Query().Get("active"); v != "" {
			active, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, r, apperr.New(apperr.InvalidRequest, "active must be a boolean"))
				return
			}
			filter.Active = &active
		}

		discounts, err := svc.ListDiscounts(r.Context(), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if discounts == nil {
			discounts = []*models.Discount{}
		}
		writeJSON(w, http.StatusOK, models.DiscountsResponse{Discounts: discounts})
	}
}

// NewDeleteDiscountHandler removes a code that was never redeemed.
// @Summary Delete discount
// @Tags admin
// @Param code path string true "Discount code"
// @Success 204
// @Failure 409 {object} models.ErrorResponse "Code has been redeemed"
// @Router /admin/discounts/{code} [delete]
// @Security BearerAuth
func NewDeleteDiscountHandler(svc DiscountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteDiscount(r.Context(), codeParam(r)); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
