package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=orders.go -destination=orders_mock.go -package=handlers

// OrderReader serves a user's order history.
type OrderReader interface {
	GetOrder(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
}

// OrderCanceller cancels pending orders.
type OrderCanceller interface {
	Cancel(ctx context.Context, req models.CancelOrderRequest) (*models.Order, error)
}

// NewGetOrderHandler returns one of the caller's orders.
// @Summary Get order
// @Tags orders
// @Produce json
// @Param number path string true "Order number"
// @Success 200 {object} models.Order
// @Failure 404 {object} models.ErrorResponse "Order not found"
// @Router /orders/{number} [get]
// @Security BearerAuth
func NewGetOrderHandler(svc OrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), userID, chi.URLParam(r, "number"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// NewListOrdersHandler lists the caller's orders, newest first.
// @Summary List orders
// @Tags orders
// @Produce json
// @Param type query string false "buy, sell or exchange"
// @Param status query string false "Order status"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.OrdersResponse
// @Router /orders [get]
// @Security BearerAuth
func NewListOrdersHandler(svc OrderReader) http.HandlerFunc {
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

		orders, err := svc.ListOrders(r.Context(), models.OrderFilter{
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

// NewCancelOrderHandler cancels a pending or processing order and reverses its effects.
// @Summary Cancel order
// @Tags orders
// @Accept json
// @Produce json
// @Param number path string true "Order number"
// @Param request body models.CancelOrderRequest false "Cancellation reason"
// @Success 200 {object} models.Order
// @Failure 409 {object} models.ErrorResponse "Order can no longer be cancelled"
// @Router /orders/{number}/cancel [post]
// @Security BearerAuth
func NewCancelOrderHandler(svc OrderCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req models.CancelOrderRequest
		if err := decodeOptional(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.UserID = userID
		req.OrderNumber = chi.URLParam(r, "number")

		order, err := svc.Cancel(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}
