package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/sbilibin2017/gw-exchange-engine/internal/repositories/memory"
	"github.com/sbilibin2017/gw-exchange-engine/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCurrencyService(t *testing.T, f *fixture, provisioner services.WalletProvisioner, opts ...services.Option) *services.CurrencyService {
	t.Helper()
	opts = append([]services.Option{services.WithClock(clock), services.WithFeedRate(1000)}, opts...)
	svc, err := services.NewCurrencyService(f.store, provisioner, opts...)
	require.NoError(t, err)
	return svc
}

func sol(active bool) *models.Currency {
	return &models.Currency{
		Symbol:          "SOL",
		Name:            "Solana",
		BuyPrice:        money.MustParse("9000000"),
		SellPrice:       money.MustParse("8900000"),
		BuyCommission:   decimal.RequireFromString("0.4"),
		SellCommission:  decimal.RequireFromString("0.4"),
		TreasuryBalance: money.MustParse("1000"),
		DecimalPlaces:   8,
		IsActive:        active,
		IsTradeable:     true,
	}
}

func TestNewCurrencyService_InvalidSpread(t *testing.T) {
	_, err := services.NewCurrencyService(memory.New(), nil, services.WithPriceSpread("100"))
	assert.Error(t, err)
}

func TestCurrencyService_CreateCurrency(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provisioner := services.NewMockWalletProvisioner(ctrl)
	f := newFixture(t)
	svc := newCurrencyService(t, f, provisioner)
	ctx := context.Background()

	provisioner.EXPECT().OnCurrencyActivated(gomock.Any(), "SOL").Return(1, nil)
	require.NoError(t, svc.CreateCurrency(ctx, sol(true)))

	ada := sol(false)
	ada.Symbol = "ADA"
	require.NoError(t, svc.CreateCurrency(ctx, ada))

	bad := sol(false)
	bad.Symbol = "XRP"
	bad.BuyCommission = decimal.NewFromInt(150)
	assert.ErrorIs(t, svc.CreateCurrency(ctx, bad), apperr.ErrInvalidRequest)

	fine := sol(false)
	fine.Symbol = "DOT"
	fine.DecimalPlaces = 9
	assert.ErrorIs(t, svc.CreateCurrency(ctx, fine), apperr.ErrInvalidRequest)

	assert.ErrorIs(t, svc.CreateCurrency(ctx, btc()), apperr.ErrDuplicateReference)
}

func TestCurrencyService_SetActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provisioner := services.NewMockWalletProvisioner(ctrl)
	f := newFixture(t)
	f.seedCurrency(t, sol(false))
	svc := newCurrencyService(t, f, provisioner)
	ctx := context.Background()

	provisioner.EXPECT().OnCurrencyActivated(gomock.Any(), "SOL").Return(1, nil).Times(1)

	c, err := svc.SetActive(ctx, "SOL", true)
	require.NoError(t, err)
	assert.True(t, c.IsActive)

	_, err = svc.SetActive(ctx, "SOL", true)
	require.NoError(t, err)

	c, err = svc.SetActive(ctx, "SOL", false)
	require.NoError(t, err)
	assert.False(t, c.IsActive)

	_, err = svc.SetActive(ctx, "DOGE", true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCurrencyService_UpdatePricing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := services.NewMockPriceCache(ctrl)
	f := newFixture(t)
	svc := newCurrencyService(t, f, nil, services.WithPriceCache(cache))
	ctx := context.Background()

	cache.EXPECT().SetCurrency(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	c, err := svc.UpdatePricing(ctx, models.UpdatePricingRequest{Symbol: "BTC", BuyPrice: ptr(money.MustParse("4400000000"))})
	require.NoError(t, err)
	assert.Equal(t, "4400000000.00000000", c.BuyPrice.String())
	assert.Equal(t, "4300000000.00000000", c.SellPrice.String())

	_, err = svc.UpdatePricing(ctx, models.UpdatePricingRequest{Symbol: "BTC", SellCommission: ptr(decimal.NewFromInt(101))})
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)

	stored, err := f.store.GetCurrency(ctx, "BTC")
	require.NoError(t, err)
	assert.True(t, stored.SellCommission.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, "4400000000.00000000", stored.BuyPrice.String())
}

func TestCurrencyService_AdjustTreasury(t *testing.T) {
	f := newFixture(t)
	svc := newCurrencyService(t, f, nil)
	ctx := context.Background()

	_, err := svc.AdjustTreasury(ctx, models.TreasuryAdjustmentRequest{Symbol: "BTC", Delta: money.MustParse("-11")})
	assert.ErrorIs(t, err, apperr.ErrInsufficientTreasury)
	assert.Equal(t, "10.00000000", f.treasury(t, "BTC"))

	c, err := svc.AdjustTreasury(ctx, models.TreasuryAdjustmentRequest{Symbol: "BTC", Delta: money.MustParse("5"), Note: "cold wallet top-up"})
	require.NoError(t, err)
	assert.Equal(t, "15.00000000", c.TreasuryBalance.String())
	assert.Equal(t, "15.00000000", f.treasury(t, "BTC"))
}

func TestCurrencyService_CreateDiscount(t *testing.T) {
	f := newFixture(t)
	svc := newCurrencyService(t, f, nil)
	ctx := context.Background()

	d := &models.Discount{Code: " spring ", Type: models.DiscountFixed, Value: decimal.NewFromInt(100000), IsActive: true, UsedCount: 7}
	require.NoError(t, svc.CreateDiscount(ctx, d))

	stored, err := f.store.GetDiscount(ctx, "SPRING")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UsedCount)

	assert.ErrorIs(t, svc.CreateDiscount(ctx, &models.Discount{Code: "SPRING", Type: models.DiscountFixed, Value: decimal.NewFromInt(1)}), apperr.ErrDuplicateReference)
	assert.ErrorIs(t, svc.CreateDiscount(ctx, &models.Discount{Code: "HALF", Type: models.DiscountPercentage, Value: decimal.NewFromInt(150)}), apperr.ErrInvalidRequest)
	assert.ErrorIs(t, svc.CreateDiscount(ctx, &models.Discount{Code: "ODD", Type: "bogus", Value: decimal.NewFromInt(1)}), apperr.ErrInvalidRequest)
	assert.ErrorIs(t, svc.CreateDiscount(ctx, &models.Discount{Code: "LATE", Type: models.DiscountFixed, Value: decimal.NewFromInt(1), StartsAt: ptr(testNow), ExpiresAt: ptr(testNow)}), apperr.ErrInvalidRequest)
}

func TestCurrencyService_Prices(t *testing.T) {
	f := newFixture(t)
	f.seedCurrency(t, sol(false))
	svc := newCurrencyService(t, f, nil)

	resp, err := svc.Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Prices, 2)
	assert.Equal(t, "BTC", resp.Prices[0].Symbol)
	assert.Equal(t, "ETH", resp.Prices[1].Symbol)
}

func TestCurrencyService_SyncPrices(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	feed := services.NewMockPriceFeed(ctrl)
	f := newFixture(t)
	svc := newCurrencyService(t, f, nil)

	feed.EXPECT().MidPrice(gomock.Any(), "BTC", "IRR").Return(decimal.NewFromInt(4000000000), nil)
	feed.EXPECT().MidPrice(gomock.Any(), "ETH", "IRR").Return(decimal.Zero, errors.New("unavailable"))

	n, err := svc.SyncPrices(context.Background(), feed)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	c, err := f.store.GetCurrency(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "4020000000.00000000", c.BuyPrice.String())
	assert.Equal(t, "3980000000.00000000", c.SellPrice.String())

	c, err = f.store.GetCurrency(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Equal(t, "150000000.00000000", c.BuyPrice.String())
}

func TestCurrencyService_UpdateDiscount(t *testing.T) {
	f := newFixture(t)
	svc := newCurrencyService(t, f, nil)
	ctx := context.Background()
	f.seedDiscount(t, welcome10())

	d, err := svc.UpdateDiscount(ctx, models.UpdateDiscountRequest{Code: "welcome10", IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, d.IsActive)
	assert.Equal(t, "10", d.Value.String())

	_, err = f.orders.Buy(ctx, models.BuyRequest{UserID: f.alice, Currency: "BTC", Amount: money.MustParse("0.01"), DiscountCode: ptr("WELCOME10")})
	assert.ErrorIs(t, err, apperr.ErrDiscount)
	assert.Equal(t, apperr.ReasonInactive, apperr.ReasonOf(err))

	d, err = svc.UpdateDiscount(ctx, models.UpdateDiscountRequest{Code: "WELCOME10", IsActive: ptr(true), Value: ptr(decimal.NewFromInt(20))})
	require.NoError(t, err)
	assert.Equal(t, "20", d.Value.String())

	_, err = f.orders.Buy(ctx, models.BuyRequest{UserID: f.alice, Currency: "BTC", Amount: money.MustParse("0.01"), DiscountCode: ptr("WELCOME10")})
	require.NoError(t, err)

	_, err = svc.UpdateDiscount(ctx, models.UpdateDiscountRequest{Code: "WELCOME10", Value: ptr(decimal.NewFromInt(120))})
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)

	_, err = svc.UpdateDiscount(ctx, models.UpdateDiscountRequest{Code: "NOPE", IsActive: ptr(true)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	stored, err := f.store.GetDiscount(ctx, "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, "20", stored.Value.String())
	assert.Equal(t, 1, stored.UsedCount)
}

func TestCurrencyService_UpdateDiscountUsageLimit(t *testing.T) {
	f := newFixture(t)
	svc := newCurrencyService(t, f, nil)
	ctx := context.Background()
	d := welcome10()
	d.UsedCount = 3
	f.seedDiscount(t, d)

	_, err := svc.UpdateDiscount(ctx, models.UpdateDiscountRequest{Code: "WELCOME10", UsageLimit: ptr(2)})
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)

	updated, err := svc.UpdateDiscount(ctx, models.UpdateDiscountRequest{Code: "WELCOME10", UsageLimit: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, *updated.UsageLimit)
}

func TestCurrencyService_ListAndDeleteDiscounts(t *testing.T) {
	f := newFixture(t)
	svc := newCurrencyService(t, f, nil)
	ctx := context.Background()
	f.seedDiscount(t, welcome10())
	require.NoError(t, svc.CreateDiscount(ctx, &models.Discount{Code: "FLAT", Type: models.DiscountFixed, Value: decimal.NewFromInt(100000)}))

	all, err := svc.ListDiscounts(ctx, models.DiscountFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListDiscounts(ctx, models.DiscountFilter{Active: ptr(true)})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "WELCOME10", active[0].Code)

	fixed, err := svc.ListDiscounts(ctx, models.DiscountFilter{Type: models.DiscountFixed})
	require.NoError(t, err)
	require.Len(t, fixed, 1)
	assert.Equal(t, "FLAT", fixed[0].Code)

	require.NoError(t, svc.DeleteDiscount(ctx, "flat"))
	_, err = f.store.GetDiscount(ctx, "FLAT")
	assert.Error(t, err)
	assert.ErrorIs(t, svc.DeleteDiscount(ctx, "FLAT"), apperr.ErrNotFound)

	_, err = f.orders.Buy(ctx, models.BuyRequest{UserID: f.alice, Currency: "BTC", Amount: money.MustParse("0.01"), DiscountCode: ptr("WELCOME10")})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteDiscount(ctx, "WELCOME10"), apperr.ErrInvalidState)

	all, err = svc.ListDiscounts(ctx, models.DiscountFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
