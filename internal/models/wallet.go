package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
)

// Wallet is a user's holding of one currency.
type Wallet struct {
	WalletID      uuid.UUID   `json:"wallet_id" db:"wallet_id"`           // Unique wallet identifier
	UserID        uuid.UUID   `json:"user_id" db:"user_id"`               // Owner
	Currency      string      `json:"currency" db:"currency"`             // Currency symbol
	Balance       money.Money `json:"balance" db:"balance"`               // Total holding
	FrozenBalance money.Money `json:"frozen_balance" db:"frozen_balance"` // Portion reserved by pending withdrawals
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// Available is the spendable part of the balance.
func (w *Wallet) Available() money.Money {
	return w.Balance.SubSigned(w.FrozenBalance)
}

// WalletsResponse lists the caller's wallets and fiat balance.
// swagger:model WalletsResponse
type WalletsResponse struct {
	// Base fiat balance
	FiatBalance money.Money `json:"fiat_balance"`
	// Crypto wallets
	Wallets []*Wallet `json:"wallets"`
}

// PortfolioItem values one wallet at the current sell price.
// swagger:model PortfolioItem
type PortfolioItem struct {
	// example: BTC
	Currency  string      `json:"currency"`
	Balance   money.Money `json:"balance"`
	Available money.Money `json:"available"`
	SellPrice money.Money `json:"sell_price"`
	Value     money.Money `json:"value"`
}

// Portfolio is the fiat-denominated view of everything a user holds.
// swagger:model Portfolio
type Portfolio struct {
	FiatBalance money.Money     `json:"fiat_balance"`
	Items       []PortfolioItem `json:"items"`
	TotalValue  money.Money     `json:"total_value"`
}
