package models

import (
	"time"

	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/shopspring/decimal"
)

// Currency is a tradeable asset. Prices are in base fiat per unit; commissions are percentages.
type Currency struct {
	Symbol          string          `json:"symbol" db:"symbol"`                     // Unique identity, e.g. BTC
	Name            string          `json:"name" db:"name"`                         // Display name
	BuyPrice        money.Money     `json:"buy_price" db:"buy_price"`               // Price a user pays per unit
	SellPrice       money.Money     `json:"sell_price" db:"sell_price"`             // Price a user receives per unit
	BuyCommission   decimal.Decimal `json:"buy_commission" db:"buy_commission"`     // Percent, 0..100
	SellCommission  decimal.Decimal `json:"sell_commission" db:"sell_commission"`   // Percent, 0..100
	TreasuryBalance money.Money     `json:"treasury_balance" db:"treasury_balance"` // House inventory, never negative
	DecimalPlaces   int             `json:"decimal_places" db:"decimal_places"`     // Smallest unit, in fractional digits
	IsActive        bool            `json:"is_active" db:"is_active"`
	IsTradeable     bool            `json:"is_tradeable" db:"is_tradeable"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Tradable reports whether orders may be placed against the currency.
func (c *Currency) Tradable() bool {
	return c != nil && c.IsActive && c.IsTradeable
}

// PriceInfo is the public view of a currency's quote parameters.
// swagger:model PriceInfo
type PriceInfo struct {
	// example: BTC
	Symbol string `json:"symbol"`
	// example: Bitcoin
	Name           string          `json:"name"`
	BuyPrice       money.Money     `json:"buy_price"`
	SellPrice      money.Money     `json:"sell_price"`
	BuyCommission  decimal.Decimal `json:"buy_commission"`
	SellCommission decimal.Decimal `json:"sell_commission"`
	IsTradeable    bool            `json:"is_tradeable"`
}

// PricesResponse lists current prices.
// swagger:model PricesResponse
type PricesResponse struct {
	Prices []PriceInfo `json:"prices"`
}

// UpdatePricingRequest is an administrative price or commission change.
// Nil fields are left untouched.
type UpdatePricingRequest struct {
	Symbol         string           `json:"symbol" validate:"required,uppercase,max=10"`
	BuyPrice       *money.Money     `json:"buy_price,omitempty"`
	SellPrice      *money.Money     `json:"sell_price,omitempty"`
	BuyCommission  *decimal.Decimal `json:"buy_commission,omitempty"`
	SellCommission *decimal.Decimal `json:"sell_commission,omitempty"`
}

// Validate checks field constraints.
func (r UpdatePricingRequest) Validate() error {
	return validateStruct(r)
}
