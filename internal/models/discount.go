package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/shopspring/decimal"
)

// DiscountType selects how Value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is a promotional code. Nil optional fields mean "no restriction".
type Discount struct {
	Code                string          `json:"code" db:"code"`
	Title               string          `json:"title" db:"title"`
	Description         string          `json:"description" db:"description"`
	Type                DiscountType    `json:"type" db:"type"`
	Value               decimal.Decimal `json:"value" db:"value"`
	MinOrderAmount      *money.Money    `json:"min_order_amount,omitempty" db:"min_order_amount"`
	MaxDiscountAmount   *money.Money    `json:"max_discount_amount,omitempty" db:"max_discount_amount"`
	UsageLimit          *int            `json:"usage_limit,omitempty" db:"usage_limit"`
	UsedCount           int             `json:"used_count" db:"used_count"`
	UserUsageLimit      *int            `json:"user_usage_limit,omitempty" db:"user_usage_limit"`
	CurrencyRestriction *string         `json:"currency,omitempty" db:"currency"`
	UserRestriction     *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	IsActive            bool            `json:"is_active" db:"is_active"`
	StartsAt            *time.Time      `json:"starts_at,omitempty" db:"starts_at"`
	ExpiresAt           *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// DiscountRedemption links one successful use of a code to its order.
type DiscountRedemption struct {
	Code        string    `db:"code"`
	UserID      uuid.UUID `db:"user_id"`
	OrderNumber string    `db:"order_number"`
	CreatedAt   time.Time `db:"created_at"`
}

// DiscountsResponse is a page of discount codes.
// swagger:model DiscountsResponse
type DiscountsResponse struct {
	Discounts []*Discount `json:"discounts"`
}

// DiscountFilter narrows discount listings. A nil Active matches both states.
type DiscountFilter struct {
	Active *bool
	Type   DiscountType
	Limit  int
	Offset int
}

// UpdateDiscountRequest edits a discount code. Nil fields are left untouched;
// the code itself and any currency or user restriction are immutable.
type UpdateDiscountRequest struct {
	Code              string           `json:"-" validate:"required,max=50"`
	Title             *string          `json:"title,omitempty" validate:"omitempty,max=200"`
	Description       *string          `json:"description,omitempty"`
	Value             *decimal.Decimal `json:"value,omitempty"`
	MinOrderAmount    *money.Money     `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *money.Money     `json:"max_discount_amount,omitempty"`
	UsageLimit        *int             `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	UserUsageLimit    *int             `json:"user_usage_limit,omitempty" validate:"omitempty,min=1"`
	IsActive          *bool            `json:"is_active,omitempty"`
	StartsAt          *time.Time       `json:"starts_at,omitempty"`
	ExpiresAt         *time.Time       `json:"expires_at,omitempty"`
}

// Validate checks field constraints.
func (r UpdateDiscountRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.MinOrderAmount != nil && r.MinOrderAmount.IsNegative() {
		return apperr.New(apperr.InvalidRequest, "min_order_amount must not be negative")
	}
	if r.MaxDiscountAmount != nil && r.MaxDiscountAmount.IsNegative() {
		return apperr.New(apperr.InvalidRequest, "max_discount_amount must not be negative")
	}
	return nil
}
