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

func TestDepositHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockDepositor(ctrl)
	handler := NewDepositHandler(mockSvc)
	userID := uuid.New()

	tests := []struct {
		name           string
		body           string
		authed         bool
		setupMock      func()
		expectedStatus int
	}{
		{
			name:   "success",
			body:   `{"currency":"BTC","amount":"0.5","tx_hash":"0xabc"}`,
			authed: true,
			setupMock: func() {
				mockSvc.EXPECT().Deposit(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req models.DepositRequest) (*models.Transaction, error) {
						assert.Equal(t, userID, req.UserID)
						assert.Equal(t, "0xabc", req.TxHash)
						assert.True(t, req.Amount.Equal(money.MustParse("0.5")))
						return &models.Transaction{
							TransactionID: uuid.New(),
							UserID:        userID,
							Currency:      "BTC",
							Type:          models.TransactionDeposit,
							Amount:        req.Amount,
							FinalAmount:   req.Amount,
							Status:        models.TransactionCompleted,
						}, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:   "replayed hash",
			body:   `{"currency":"BTC","amount":"0.5","tx_hash":"0xabc"}`,
			authed: true,
			setupMock: func() {
				mockSvc.EXPECT().Deposit(gomock.Any(), gomock.Any()).
					Return(nil, apperr.New(apperr.DuplicateReference, "deposit 0xabc already credited"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "unauthenticated",
			body:           `{}`,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setupMock != nil {
				tt.setupMock()
			}
			req := newRequest(http.MethodPost, "/api/v1/wallet/deposit", tt.body)
			if tt.authed {
				req = asUser(req, userID)
			}

			rr := serve(handler, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if rr.Code == http.StatusCreated {
				var tx models.Transaction
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tx))
				assert.Equal(t, models.TransactionCompleted, tx.Status)
				assert.Equal(t, "0.50000000", tx.FinalAmount.String())
			}
		})
	}
}

func TestWithdrawHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockWithdrawer(ctrl)
	handler := NewWithdrawHandler(mockSvc)
	userID := uuid.New()

	t.Run("pending withdrawal is accepted", func(t *testing.T) {
		mockSvc.EXPECT().Withdraw(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.WithdrawRequest) (*models.Transaction, error) {
				assert.Equal(t, userID, req.UserID)
				assert.Equal(t, "bc1qxyz", req.ToAddress)
				return &models.Transaction{Type: models.TransactionWithdraw, Status: models.TransactionPending}, nil
			})

		rr := serve(handler, asUser(newRequest(http.MethodPost, "/api/v1/wallet/withdraw",
			`{"currency":"BTC","amount":"0.1","to_address":"bc1qxyz"}`), userID))

		require.Equal(t, http.StatusAccepted, rr.Code)
		var tx models.Transaction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tx))
		assert.Equal(t, models.TransactionPending, tx.Status)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		mockSvc.EXPECT().Withdraw(gomock.Any(), gomock.Any()).
			Return(nil, apperr.New(apperr.InsufficientFunds, "insufficient BTC balance"))

		rr := serve(handler, asUser(newRequest(http.MethodPost, "/api/v1/wallet/withdraw",
			`{"currency":"BTC","amount":"100","to_address":"bc1qxyz"}`), userID))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "insufficient BTC balance", decodeError(t, rr).Error)
	})
}

func TestTransferHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockTransferer(ctrl)
	handler := NewTransferHandler(mockSvc)
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		mockSvc.EXPECT().Transfer(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.TransferRequest) (*models.TransferResult, error) {
				assert.Equal(t, userID, req.UserID)
				assert.Equal(t, "ETH", req.ToCurrency)
				return &models.TransferResult{
					FromAmount: money.MustParse("0.1"),
					ToAmount:   money.MustParse("2.86666667"),
					Rate:       money.MustParse("28.66666667"),
				}, nil
			})

		rr := serve(handler, asUser(newRequest(http.MethodPost, "/api/v1/wallet/transfer",
			`{"from_currency":"BTC","to_currency":"ETH","amount":"0.1"}`), userID))

		require.Equal(t, http.StatusCreated, rr.Code)
		var res models.TransferResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
		assert.Equal(t, "2.86666667", res.ToAmount.String())
	})

	t.Run("timeout is retryable", func(t *testing.T) {
		mockSvc.EXPECT().Transfer(gomock.Any(), gomock.Any()).
			Return(nil, apperr.New(apperr.Timeout, "lock wait timed out"))

		rr := serve(handler, asUser(newRequest(http.MethodPost, "/api/v1/wallet/transfer",
			`{"from_currency":"BTC","to_currency":"ETH","amount":"0.1"}`), userID))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "1", rr.Header().Get("Retry-After"))
		assert.Equal(t, "processing failed", decodeError(t, rr).Error)
	})
}
