package discount

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func welcome10() *models.Discount {
	return &models.Discount{
		Code:              "WELCOME10",
		Type:              models.DiscountPercentage,
		Value:             decimal.NewFromInt(10),
		MinOrderAmount:    ptr(money.MustParse("1000000")),
		MaxDiscountAmount: ptr(money.MustParse("500000")),
		IsActive:          true,
	}
}

func TestValidate_Welcome10(t *testing.T) {
	res, err := Validate(welcome10(), Input{
		Amount: money.MustParse("43717500"),
		UserID: uuid.New(),
		Now:    now,
	})
	require.NoError(t, err)

	assert.Equal(t, "WELCOME10", res.Code)
	assert.Equal(t, "500000.00000000", res.DiscountAmount.String())
	assert.Equal(t, "43217500.00000000", res.FinalAmount.String())
}

func TestValidate_Reasons(t *testing.T) {
	userID := uuid.New()
	other := uuid.New()

	tests := []struct {
		name   string
		mutate func(d *models.Discount)
		input  Input
		reason apperr.Reason
	}{
		{
			name:   "inactive",
			mutate: func(d *models.Discount) { d.IsActive = false },
			reason: apperr.ReasonInactive,
		},
		{
			name:   "not started",
			mutate: func(d *models.Discount) { d.StartsAt = ptr(now.Add(time.Hour)) },
			reason: apperr.ReasonNotStarted,
		},
		{
			name:   "expired",
			mutate: func(d *models.Discount) { d.ExpiresAt = ptr(now) },
			reason: apperr.ReasonExpired,
		},
		{
			name: "usage limit reached",
			mutate: func(d *models.Discount) {
				d.UsageLimit = ptr(3)
				d.UsedCount = 3
			},
			reason: apperr.ReasonUsageLimitReached,
		},
		{
			name:   "currency mismatch",
			mutate: func(d *models.Discount) { d.CurrencyRestriction = ptr("ETH") },
			reason: apperr.ReasonCurrencyMismatch,
		},
		{
			name:   "user mismatch",
			mutate: func(d *models.Discount) { d.UserRestriction = &other },
			reason: apperr.ReasonUserMismatch,
		},
		{
			name:   "below minimum",
			mutate: func(d *models.Discount) {},
			input:  Input{Amount: money.MustParse("999999.99")},
			reason: apperr.ReasonBelowMinimum,
		},
		{
			name:   "user limit reached",
			mutate: func(d *models.Discount) { d.UserUsageLimit = ptr(1) },
			input:  Input{UserRedemptions: 1},
			reason: apperr.ReasonUserLimitReached,
		},
		{
			name: "first failing check wins",
			mutate: func(d *models.Discount) {
				d.IsActive = false
				d.ExpiresAt = ptr(now.Add(-time.Hour))
			},
			reason: apperr.ReasonInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := welcome10()
			tt.mutate(d)

			in := tt.input
			if in.Amount.IsZero() {
				in.Amount = money.MustParse("43717500")
			}
			in.Currency = "BTC"
			in.UserID = userID
			in.Now = now

			_, err := Validate(d, in)
			assert.ErrorIs(t, err, apperr.ErrDiscount)
			assert.Equal(t, tt.reason, apperr.ReasonOf(err))
		})
	}
}

func TestValidate_NotFound(t *testing.T) {
	_, err := Validate(nil, Input{Amount: money.MustParse("1"), Now: now})
	assert.Equal(t, apperr.ReasonNotFound, apperr.ReasonOf(err))
}

func TestCompute(t *testing.T) {
	fixed := &models.Discount{Type: models.DiscountFixed, Value: decimal.NewFromInt(50000)}
	assert.Equal(t, "50000.00000000", Compute(fixed, money.MustParse("1000000")).String())
	// never more than the order itself
	assert.Equal(t, "20000.00000000", Compute(fixed, money.MustParse("20000")).String())

	pct := &models.Discount{Type: models.DiscountPercentage, Value: decimal.RequireFromString("2.5")}
	// 2.5% of 333.33 = 8.33325 -> 8.33
	assert.Equal(t, "8.33000000", Compute(pct, money.MustParse("333.33")).String())

	// the cap is applied before rounding: 10% of 100 = 10, capped at 2.005 -> 2.01
	capped := &models.Discount{Type: models.DiscountPercentage, Value: decimal.NewFromInt(10), MaxDiscountAmount: ptr(money.MustParse("2.005"))}
	assert.Equal(t, "2.01000000", Compute(capped, money.MustParse("100")).String())

	// rounding never lifts the discount above the order
	tiny := &models.Discount{Type: models.DiscountFixed, Value: decimal.NewFromInt(5)}
	assert.Equal(t, "0.00500000", Compute(tiny, money.MustParse("0.005")).String())

	unknown := &models.Discount{Type: "bogus", Value: decimal.NewFromInt(10)}
	assert.True(t, Compute(unknown, money.MustParse("100")).IsZero())
}

func TestRedeem(t *testing.T) {
	d := welcome10()
	d.UsageLimit = ptr(1)

	require.NoError(t, Redeem(d))
	assert.Equal(t, 1, d.UsedCount)

	err := Redeem(d)
	assert.Equal(t, apperr.ReasonUsageLimitReached, apperr.ReasonOf(err))
	assert.Equal(t, 1, d.UsedCount)

	assert.True(t, NeedsUserCount(&models.Discount{UserUsageLimit: ptr(2)}))
	assert.False(t, NeedsUserCount(d))
}
