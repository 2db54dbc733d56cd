package models

import (
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/shopspring/decimal"
)

// BuyRequest buys Amount units of Currency with base fiat.
// swagger:model BuyRequest
type BuyRequest struct {
	UserID uuid.UUID `json:"-" validate:"required"`
	// required: true
	// example: BTC
	Currency string `json:"currency" validate:"required,uppercase,max=10"`
	// required: true
	// example: 0.01
	Amount money.Money `json:"amount"`
	// example: WELCOME10
	DiscountCode *string `json:"discount_code,omitempty" validate:"omitempty,min=1,max=50"`
}

// Validate checks field constraints.
func (r BuyRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return requirePositive("amount", r.Amount)
}

// SellRequest sells Amount units of Currency for base fiat.
// swagger:model SellRequest
type SellRequest struct {
	UserID uuid.UUID `json:"-" validate:"required"`
	// required: true
	// example: BTC
	Currency string `json:"currency" validate:"required,uppercase,max=10"`
	// required: true
	// example: 0.01
	Amount money.Money `json:"amount"`
	// example: WELCOME10
	DiscountCode *string `json:"discount_code,omitempty" validate:"omitempty,min=1,max=50"`
}

// Validate checks field constraints.
func (r SellRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return requirePositive("amount", r.Amount)
}

// ExchangeRequest converts Amount of FromCurrency into ToCurrency.
// swagger:model ExchangeRequest
type ExchangeRequest struct {
	UserID uuid.UUID `json:"-" validate:"required"`
	// required: true
	// example: BTC
	FromCurrency string `json:"from_currency" validate:"required,uppercase,max=10"`
	// required: true
	// example: ETH
	ToCurrency string `json:"to_currency" validate:"required,uppercase,max=10"`
	// required: true
	// example: 0.5
	Amount money.Money `json:"amount"`
}

// Validate checks field constraints.
func (r ExchangeRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.FromCurrency == r.ToCurrency {
		return apperr.New(apperr.InvalidRequest, "cannot exchange a currency for itself")
	}
	return requirePositive("amount", r.Amount)
}

// QuoteRequest previews a trade without executing it.
// swagger:model QuoteRequest
type QuoteRequest struct {
	UserID uuid.UUID `json:"-"`
	// required: true
	// example: buy
	Type OrderType `json:"type" validate:"required,oneof=buy sell exchange"`
	// Crypto symbol for buy/sell, source symbol for exchange
	// required: true
	// example: BTC
	Currency string `json:"currency" validate:"required,uppercase,max=10"`
	// Target symbol, exchange only
	// example: ETH
	ToCurrency string `json:"to_currency,omitempty" validate:"omitempty,uppercase,max=10"`
	// required: true
	// example: 0.01
	Amount money.Money `json:"amount"`
	// example: WELCOME10
	DiscountCode *string `json:"discount_code,omitempty" validate:"omitempty,min=1,max=50"`
}

// Validate checks field constraints.
func (r QuoteRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.Type == OrderExchange {
		switch r.ToCurrency {
		case "":
			return apperr.New(apperr.InvalidRequest, "to_currency is required for exchange quotes")
		case r.Currency:
			return apperr.New(apperr.InvalidRequest, "cannot exchange a currency for itself")
		}
	}
	return requirePositive("amount", r.Amount)
}

// Quote is the computed economics of a trade. Amounts are in base fiat except
// Amount (the requested quantity) and ToAmount/FinalAmount of exchange quotes,
// which are in the target currency.
// swagger:model Quote
type Quote struct {
	Type             OrderType       `json:"type"`
	FromCurrency     string          `json:"from_currency"`
	ToCurrency       string          `json:"to_currency"`
	Amount           money.Money     `json:"amount"`
	UnitPrice        money.Money     `json:"unit_price"`
	GrossAmount      money.Money     `json:"gross_amount"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount money.Money     `json:"commission_amount"`
	ToAmount         money.Money     `json:"to_amount"`
	DiscountCode     *string         `json:"discount_code,omitempty"`
	DiscountAmount   money.Money     `json:"discount_amount"`
	FinalAmount      money.Money     `json:"final_amount"`
	// Why the supplied discount code was not applied, if it was not.
	DiscountRejection string `json:"discount_rejection,omitempty"`
}

// CancelOrderRequest cancels a pending or processing order.
// swagger:model CancelOrderRequest
type CancelOrderRequest struct {
	UserID      uuid.UUID `json:"-" validate:"required"`
	OrderNumber string    `json:"-" validate:"required,max=32"`
	// example: changed my mind
	Reason string `json:"reason" validate:"max=500"`
}

// Validate checks field constraints.
func (r CancelOrderRequest) Validate() error {
	return validateStruct(r)
}

// CorrectOrderStatusRequest is the administrative status override.
type CorrectOrderStatusRequest struct {
	OrderNumber string      `json:"-" validate:"required,max=32"`
	Status      OrderStatus `json:"status" validate:"required,oneof=pending processing completed cancelled failed"`
	Note        string      `json:"note" validate:"max=500"`
}

// Validate checks field constraints.
func (r CorrectOrderStatusRequest) Validate() error {
	return validateStruct(r)
}
