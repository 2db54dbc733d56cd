// Package discount validates promotional codes and computes their effect on a trade.
// Validation is pure: callers pass in the current time and the user's prior
// redemption count, read inside the same atomic scope that redeems the code.
package discount

import (
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
)

// Input is what a code is checked against.
type Input struct {
	// Amount is the fiat total the discount applies to.
	Amount          money.Money
	Currency        string
	UserID          uuid.UUID
	UserRedemptions int
	Now             time.Time
}

// Result is the effect of an accepted code.
type Result struct {
	Code           string
	DiscountAmount money.Money
	FinalAmount    money.Money
}

// Validate runs the checks in a fixed order and reports the first failure as
// an apperr.DiscountError carrying its reason.
func Validate(d *models.Discount, in Input) (Result, error) {
	if d == nil {
		return Result{}, apperr.Discount(apperr.ReasonNotFound, "discount code not found")
	}
	if !d.IsActive {
		return Result{}, apperr.Discount(apperr.ReasonInactive, "discount code is not active")
	}
	if d.StartsAt != nil && in.Now.Before(*d.StartsAt) {
		return Result{}, apperr.Discount(apperr.ReasonNotStarted, "discount code is not valid yet")
	}
	if d.ExpiresAt != nil && !in.Now.Before(*d.ExpiresAt) {
		return Result{}, apperr.Discount(apperr.ReasonExpired, "discount code has expired")
	}
	if d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit {
		return Result{}, apperr.Discount(apperr.ReasonUsageLimitReached, "discount code usage limit reached")
	}
	if d.CurrencyRestriction != nil && *d.CurrencyRestriction != in.Currency {
		return Result{}, apperr.Discount(apperr.ReasonCurrencyMismatch, "discount code is not valid for this currency")
	}
	if d.UserRestriction != nil && *d.UserRestriction != in.UserID {
		return Result{}, apperr.Discount(apperr.ReasonUserMismatch, "discount code is not valid for this user")
	}
	if d.MinOrderAmount != nil && in.Amount.LessThan(*d.MinOrderAmount) {
		return Result{}, apperr.Discount(apperr.ReasonBelowMinimum, "order amount is below the discount minimum")
	}
	if d.UserUsageLimit != nil && in.UserRedemptions >= *d.UserUsageLimit {
		return Result{}, apperr.Discount(apperr.ReasonUserLimitReached, "discount code already used the maximum number of times")
	}

	amount := Compute(d, in.Amount)
	final, err := in.Amount.Sub(amount)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.Underflow, err, "apply discount")
	}
	return Result{Code: d.Code, DiscountAmount: amount, FinalAmount: final}, nil
}

// Compute returns the discount granted on amount: the percentage or fixed value
// capped by MaxDiscountAmount, then rounded to fiat precision. The result never
// exceeds amount itself.
func Compute(d *models.Discount, amount money.Money) money.Money {
	var raw money.Money
	switch d.Type {
	case models.DiscountPercentage:
		raw = amount.PercentageOf(d.Value)
	case models.DiscountFixed:
		raw = money.New(d.Value)
	default:
		return money.Zero
	}
	if raw.IsNegative() {
		return money.Zero
	}
	if d.MaxDiscountAmount != nil {
		raw = raw.Cap(*d.MaxDiscountAmount)
	}
	return raw.Round(money.FiatScale).Cap(amount)
}

// NeedsUserCount reports whether Validate needs Input.UserRedemptions.
func NeedsUserCount(d *models.Discount) bool {
	return d != nil && d.UserUsageLimit != nil
}

// Redeem consumes one use of a locked code. It re-checks the global limit so a
// code can never be used more than UsageLimit times.
func Redeem(d *models.Discount) error {
	if d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit {
		return apperr.Discount(apperr.ReasonUsageLimitReached, "discount code usage limit reached")
	}
	d.UsedCount++
	return nil
}
