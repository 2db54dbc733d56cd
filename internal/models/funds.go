package models

import (
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
)

// DepositRequest credits an on-chain deposit identified by TxHash.
// swagger:model DepositRequest
type DepositRequest struct {
	UserID uuid.UUID `json:"-" validate:"required"`
	// required: true
	// example: BTC
	Currency string `json:"currency" validate:"required,uppercase,max=10"`
	// required: true
	// example: 0.5
	Amount money.Money `json:"amount"`
	// required: true
	// example: 0x9fc76417374aa880d4449a1f7f31ec597f00b1f6f3dd2d66f4c9c6c445836d8b
	TxHash string `json:"tx_hash" validate:"required,max=128"`
	// example: bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh
	FromAddress string `json:"from_address" validate:"max=128"`
}

// Validate checks field constraints.
func (r DepositRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return requirePositive("amount", r.Amount)
}

// WithdrawRequest reserves Amount plus fee for an outgoing transfer.
// swagger:model WithdrawRequest
type WithdrawRequest struct {
	UserID uuid.UUID `json:"-" validate:"required"`
	// required: true
	// example: BTC
	Currency string `json:"currency" validate:"required,uppercase,max=10"`
	// required: true
	// example: 0.1
	Amount money.Money `json:"amount"`
	// required: true
	// example: bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh
	ToAddress string `json:"to_address" validate:"required,max=128"`
}

// Validate checks field constraints.
func (r WithdrawRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return requirePositive("amount", r.Amount)
}

// TransferRequest moves value between two of the caller's own wallets at the
// cross rate, without commission.
// swagger:model TransferRequest
type TransferRequest struct {
	UserID uuid.UUID `json:"-" validate:"required"`
	// required: true
	// example: BTC
	FromCurrency string `json:"from_currency" validate:"required,uppercase,max=10"`
	// required: true
	// example: ETH
	ToCurrency string `json:"to_currency" validate:"required,uppercase,max=10,nefield=FromCurrency"`
	// required: true
	// example: 0.1
	Amount money.Money `json:"amount"`
}

// Validate checks field constraints.
func (r TransferRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return requirePositive("amount", r.Amount)
}

// TransferResult reports both legs of a transfer.
// swagger:model TransferResult
type TransferResult struct {
	FromAmount money.Money     `json:"from_amount"`
	ToAmount   money.Money     `json:"to_amount"`
	Rate       money.Money     `json:"rate"`
	Legs       [2]*Transaction `json:"legs"`
}

// TreasuryAdjustmentRequest changes a currency's house inventory by a signed Delta.
type TreasuryAdjustmentRequest struct {
	Symbol string      `json:"-" validate:"required,uppercase,max=10"`
	Delta  money.Money `json:"delta"`
	Note   string      `json:"note" validate:"max=500"`
}

// Validate checks field constraints.
func (r TreasuryAdjustmentRequest) Validate() error {
	return validateStruct(r)
}
