package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/shopspring/decimal"
)

// OrderType is the kind of trade.
type OrderType string

const (
	OrderBuy      OrderType = "buy"
	OrderSell     OrderType = "sell"
	OrderExchange OrderType = "exchange"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderFailed     OrderStatus = "failed"
)

// Cancellable reports whether an order in status s may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderPending || s == OrderProcessing
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled, OrderFailed:
		return true
	}
	return false
}

// Order records one trade request and its economic outcome.
//
// For buy orders FromAmount is the fiat paid and ToAmount the crypto received.
// For sell orders FromAmount is the crypto sold and ToAmount the fiat received.
// For exchange orders both are crypto.
// swagger:model Order
type Order struct {
	OrderNumber        string          `json:"order_number" db:"order_number"`
	UserID             uuid.UUID       `json:"user_id" db:"user_id"`
	Type               OrderType       `json:"type" db:"type"`
	FromCurrency       string          `json:"from_currency" db:"from_currency"`
	ToCurrency         string          `json:"to_currency" db:"to_currency"`
	FromAmount         money.Money     `json:"from_amount" db:"from_amount"`
	ToAmount           money.Money     `json:"to_amount" db:"to_amount"`
	ExchangeRate       money.Money     `json:"exchange_rate" db:"exchange_rate"`
	CommissionRate     decimal.Decimal `json:"commission_rate" db:"commission_rate"`
	CommissionAmount   money.Money     `json:"commission_amount" db:"commission_amount"`
	DiscountCode       *string         `json:"discount_code,omitempty" db:"discount_code"`
	DiscountAmount     money.Money     `json:"discount_amount" db:"discount_amount"`
	FinalAmount        money.Money     `json:"final_amount" db:"final_amount"`
	Status             OrderStatus     `json:"status" db:"status"`
	CancellationReason *string         `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	Metadata           Metadata        `json:"metadata,omitempty" db:"metadata"`
	ProcessedAt        *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderFilter narrows order listings. Zero fields match everything.
type OrderFilter struct {
	UserID uuid.UUID
	Type   OrderType
	Status OrderStatus
	Limit  int
	Offset int
}

// OrdersResponse is a page of orders.
// swagger:model OrdersResponse
type OrdersResponse struct {
	Orders []*Order `json:"orders"`
}
