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
	"github.com/sbilibin2017/gw-exchange-engine/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCurrencyHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockCurrencyAdmin(ctrl)
	handler := NewCreateCurrencyHandler(mockSvc)

	t.Run("symbol is upper-cased", func(t *testing.T) {
		mockSvc.EXPECT().CreateCurrency(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *models.Currency) error {
				assert.Equal(t, "ETH", c.Symbol)
				assert.Equal(t, "150000000.00000000", c.BuyPrice.String())
				return nil
			})

		rr := serve(handler, newRequest(http.MethodPost, "/api/v1/admin/currencies",
			`{"symbol":"eth","name":"Ether","buy_price":"150000000","sell_price":"148000000","buy_commission":"0.5","sell_commission":"0.5","is_active":true,"is_tradeable":true}`))

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		mockSvc.EXPECT().CreateCurrency(gomock.Any(), gomock.Any()).
			Return(apperr.New(apperr.DuplicateReference, "currency ETH already exists"))

		rr := serve(handler, newRequest(http.MethodPost, "/api/v1/admin/currencies", `{"symbol":"ETH"}`))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestSetCurrencyActiveHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockCurrencyAdmin(ctrl)

	tests := []struct {
		name   string
		active bool
	}{
		{"activate", true},
		{"deactivate", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc.EXPECT().SetActive(gomock.Any(), "SOL", tt.active).
				Return(&models.Currency{Symbol: "SOL", IsActive: tt.active}, nil)

			req := withURLParams(newRequest(http.MethodPost, "/api/v1/admin/currencies/sol/"+tt.name, nil), "symbol", "sol")
			rr := serve(NewSetCurrencyActiveHandler(mockSvc, tt.active), req)

			require.Equal(t, http.StatusOK, rr.Code)
			var c models.Currency
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &c))
			assert.Equal(t, tt.active, c.IsActive)
		})
	}
}

func TestUpdatePricingHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockCurrencyAdmin(ctrl)
	handler := NewUpdatePricingHandler(mockSvc)

	t.Run("symbol comes from the path", func(t *testing.T) {
		mockSvc.EXPECT().UpdatePricing(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.UpdatePricingRequest) (*models.Currency, error) {
				assert.Equal(t, "BTC", req.Symbol)
				require.NotNil(t, req.BuyPrice)
				assert.Nil(t, req.SellPrice)
				assert.Equal(t, "4400000000.00000000", req.BuyPrice.String())
				return &models.Currency{Symbol: "BTC", BuyPrice: *req.BuyPrice}, nil
			})

		req := withURLParams(newRequest(http.MethodPut, "/api/v1/admin/currencies/BTC/pricing",
			`{"symbol":"ETH","buy_price":"4400000000"}`), "symbol", "BTC")
		rr := serve(handler, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("inverted spread", func(t *testing.T) {
		mockSvc.EXPECT().UpdatePricing(gomock.Any(), gomock.Any()).
			Return(nil, apperr.New(apperr.InvalidRequest, "sell price must not exceed buy price"))

		req := withURLParams(newRequest(http.MethodPut, "/api/v1/admin/currencies/BTC/pricing", `{"sell_price":"9"}`), "symbol", "BTC")
		rr := serve(handler, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAdjustTreasuryHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockCurrencyAdmin(ctrl)
	handler := NewAdjustTreasuryHandler(mockSvc)

	mockSvc.EXPECT().AdjustTreasury(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.TreasuryAdjustmentRequest) (*models.Currency, error) {
			assert.Equal(t, "BTC", req.Symbol)
			assert.Equal(t, "-1.50000000", req.Delta.String())
			return nil, apperr.New(apperr.InsufficientTreasury, "treasury cannot go negative")
		})

	req := withURLParams(newRequest(http.MethodPost, "/api/v1/admin/currencies/btc/treasury",
		`{"delta":"-1.5","note":"cold storage sweep"}`), "symbol", "btc")
	rr := serve(handler, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCreateDiscountHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockCurrencyAdmin(ctrl)
	handler := NewCreateDiscountHandler(mockSvc)

	mockSvc.EXPECT().CreateDiscount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d *models.Discount) error {
			assert.Equal(t, "WELCOME10", d.Code)
			assert.Equal(t, models.DiscountPercentage, d.Type)
			require.NotNil(t, d.UserUsageLimit)
			assert.Equal(t, 1, *d.UserUsageLimit)
			return nil
		})

	rr := serve(handler, newRequest(http.MethodPost, "/api/v1/admin/discounts",
		`{"code":"WELCOME10","title":"Welcome","type":"percentage","value":"10","user_usage_limit":1,"is_active":true}`))

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestSyncPricesHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockPriceSyncer(ctrl)
	feed := services.NewMockPriceFeed(ctrl)
	handler := NewSyncPricesHandler(mockSvc, feed)

	t.Run("success", func(t *testing.T) {
		mockSvc.EXPECT().SyncPrices(gomock.Any(), feed).Return(3, nil)

		rr := serve(handler, newRequest(http.MethodPost, "/api/v1/admin/prices/sync", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"updated":3}`, rr.Body.String())
	})

	t.Run("feed down", func(t *testing.T) {
		mockSvc.EXPECT().SyncPrices(gomock.Any(), feed).Return(0, apperr.New(apperr.Timeout, "price feed unavailable"))

		rr := serve(handler, newRequest(http.MethodPost, "/api/v1/admin/prices/sync", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestSettleWithdrawalHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockWithdrawalSettler(ctrl)
	id := uuid.New()

	t.Run("complete", func(t *testing.T) {
		mockSvc.EXPECT().CompleteWithdrawal(gomock.Any(), id, "0xfeed").
			Return(&models.Transaction{TransactionID: id, Status: models.TransactionCompleted}, nil)

		req := withURLParams(newRequest(http.MethodPost, "/api/v1/admin/withdrawals/"+id.String()+"/complete",
			`{"tx_hash":"0xfeed"}`), "id", id.String())
		rr := serve(NewCompleteWithdrawalHandler(mockSvc), req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("reject without body", func(t *testing.T) {
		mockSvc.EXPECT().RejectWithdrawal(gomock.Any(), id, "").
			Return(&models.Transaction{TransactionID: id, Status: models.TransactionFailed}, nil)

		req := withURLParams(newRequest(http.MethodPost, "/api/v1/admin/withdrawals/"+id.String()+"/reject", nil), "id", id.String())
		rr := serve(NewRejectWithdrawalHandler(mockSvc), req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("not pending", func(t *testing.T) {
		mockSvc.EXPECT().RejectWithdrawal(gomock.Any(), id, "sanctioned address").
			Return(nil, apperr.New(apperr.InvalidState, "withdrawal is not pending"))

		req := withURLParams(newRequest(http.MethodPost, "/api/v1/admin/withdrawals/"+id.String()+"/reject",
			`{"reason":"sanctioned address"}`), "id", id.String())
		rr := serve(NewRejectWithdrawalHandler(mockSvc), req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		req := withURLParams(newRequest(http.MethodPost, "/api/v1/admin/withdrawals/nope/complete", `{}`), "id", "nope")
		rr := serve(NewCompleteWithdrawalHandler(mockSvc), req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCorrectOrderStatusHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockOrderCorrector(ctrl)
	handler := NewCorrectOrderStatusHandler(mockSvc)

	mockSvc.EXPECT().CorrectOrderStatus(gomock.Any(), models.CorrectOrderStatusRequest{
		OrderNumber: "ORD-1",
		Status:      models.OrderFailed,
		Note:        "chain reorg",
	}).Return(&models.Order{OrderNumber: "ORD-1", Status: models.OrderFailed}, nil)

	req := withURLParams(newRequest(http.MethodPut, "/api/v1/admin/orders/ORD-1/status",
		`{"status":"failed","note":"chain reorg"}`), "number", "ORD-1")
	rr := serve(handler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &order))
	assert.Equal(t, models.OrderFailed, order.Status)
}
