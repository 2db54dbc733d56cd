package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockBuyer(ctrl)
	handler := NewBuyHandler(mockSvc)
	userID := uuid.New()
	code := "WELCOME10"

	tests := []struct {
		name           string
		body           any
		authed         bool
		setupMock      func()
		expectedStatus int
		expectedKind   string
	}{
		{
			name:   "success with discount",
			body:   `{"currency":"BTC","amount":"0.01","discount_code":"WELCOME10"}`,
			authed: true,
			setupMock: func() {
				mockSvc.EXPECT().Buy(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req models.BuyRequest) (*models.Order, error) {
						assert.Equal(t, userID, req.UserID)
						assert.Equal(t, "BTC", req.Currency)
						assert.True(t, req.Amount.Equal(money.MustParse("0.01")))
						require.NotNil(t, req.DiscountCode)
						assert.Equal(t, code, *req.DiscountCode)
						return &models.Order{
							OrderNumber: "ORD-20260301120000-0001",
							UserID:      userID,
							Type:        models.OrderBuy,
							FinalAmount: money.FromInt(39150000),
							Status:      models.OrderCompleted,
						}, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unauthenticated",
			body:           `{"currency":"BTC","amount":"0.01"}`,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed amount",
			body:           `{"currency":"BTC","amount":"lots"}`,
			authed:         true,
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "invalid_request",
		},
		{
			name:   "insufficient funds",
			body:   `{"currency":"BTC","amount":"10"}`,
			authed: true,
			setupMock: func() {
				mockSvc.EXPECT().Buy(gomock.Any(), gomock.Any()).
					Return(nil, apperr.New(apperr.InsufficientFunds, "insufficient fiat balance"))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedKind:   "insufficient_funds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setupMock != nil {
				tt.setupMock()
			}
			req := newRequest(http.MethodPost, "/api/v1/orders/buy", tt.body)
			if tt.authed {
				req = asUser(req, userID)
			}

			rr := serve(handler, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus != http.StatusCreated {
				assert.Equal(t, tt.expectedKind, decodeError(t, rr).Kind)
				return
			}
			var order models.Order
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &order))
			assert.Equal(t, "ORD-20260301120000-0001", order.OrderNumber)
			assert.Equal(t, "39150000.00000000", order.FinalAmount.String())
		})
	}
}

func TestSellHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockSeller(ctrl)
	handler := NewSellHandler(mockSvc)
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		mockSvc.EXPECT().Sell(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.SellRequest) (*models.Order, error) {
				assert.Equal(t, userID, req.UserID)
				assert.Equal(t, "BTC", req.Currency)
				return &models.Order{OrderNumber: "ORD-1", Type: models.OrderSell, Status: models.OrderCompleted}, nil
			})

		rr := serve(handler, asUser(newRequest(http.MethodPost, "/api/v1/orders/sell", `{"currency":"BTC","amount":"0.5"}`), userID))

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("currency unavailable", func(t *testing.T) {
		mockSvc.EXPECT().Sell(gomock.Any(), gomock.Any()).
			Return(nil, apperr.New(apperr.CurrencyUnavailable, "currency DOGE is not tradeable"))

		rr := serve(handler, asUser(newRequest(http.MethodPost, "/api/v1/orders/sell", `{"currency":"DOGE","amount":"1"}`), userID))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "currency DOGE is not tradeable", decodeError(t, rr).Error)
	})
}
