package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/sbilibin2017/gw-exchange-engine/internal/repositories/memory"
	"github.com/sbilibin2017/gw-exchange-engine/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func clock() time.Time { return testNow }

func btc() *models.Currency {
	return &models.Currency{
		Symbol:          "BTC",
		Name:            "Bitcoin",
		BuyPrice:        money.MustParse("4350000000"),
		SellPrice:       money.MustParse("4300000000"),
		BuyCommission:   decimal.RequireFromString("0.5"),
		SellCommission:  decimal.RequireFromString("0.5"),
		TreasuryBalance: money.MustParse("10"),
		DecimalPlaces:   8,
		IsActive:        true,
		IsTradeable:     true,
	}
}

func eth() *models.Currency {
	return &models.Currency{
		Symbol:          "ETH",
		Name:            "Ethereum",
		BuyPrice:        money.MustParse("150000000"),
		SellPrice:       money.MustParse("148000000"),
		BuyCommission:   decimal.RequireFromString("0.3"),
		SellCommission:  decimal.RequireFromString("0.3"),
		TreasuryBalance: money.MustParse("100"),
		DecimalPlaces:   8,
		IsActive:        true,
		IsTradeable:     true,
	}
}

func welcome10() *models.Discount {
	return &models.Discount{
		Code:              "WELCOME10",
		Title:             "Welcome",
		Type:              models.DiscountPercentage,
		Value:             decimal.NewFromInt(10),
		MinOrderAmount:    ptr(money.MustParse("1000000")),
		MaxDiscountAmount: ptr(money.MustParse("500000")),
		IsActive:          true,
	}
}

// fixture is a memory-backed ledger seeded with BTC, ETH and one funded user.
type fixture struct {
	store   *memory.Store
	orders  *services.OrderService
	wallets *services.WalletService
	alice   uuid.UUID
}

func newFixture(t *testing.T, opts ...services.Option) *fixture {
	t.Helper()

	store := memory.New(memory.WithClock(clock))
	opts = append([]services.Option{services.WithClock(clock)}, opts...)
	wallets, err := services.NewWalletService(store, opts...)
	require.NoError(t, err)

	f := &fixture{
		store:   store,
		orders:  services.NewOrderService(store, opts...),
		wallets: wallets,
	}
	f.seedCurrency(t, btc())
	f.seedCurrency(t, eth())
	f.alice = f.seedUser(t, "alice", "100000000")
	return f
}

func (f *fixture) within(t *testing.T, fn func(ctx context.Context, tx ledger.Tx) error) {
	t.Helper()
	require.NoError(t, f.store.WithinTx(context.Background(), fn))
}

func (f *fixture) seedCurrency(t *testing.T, c *models.Currency) {
	f.within(t, func(ctx context.Context, tx ledger.Tx) error {
		return tx.CreateCurrency(ctx, c)
	})
}

func (f *fixture) seedUser(t *testing.T, name, fiat string) uuid.UUID {
	u := &models.User{
		UserID:      uuid.New(),
		Username:    name,
		Email:       name + "@example.com",
		Role:        models.RoleUser,
		FiatBalance: money.MustParse(fiat),
		IsActive:    true,
	}
	f.within(t, func(ctx context.Context, tx ledger.Tx) error {
		return tx.CreateUser(ctx, u)
	})
	return u.UserID
}

func (f *fixture) seedWallet(t *testing.T, userID uuid.UUID, currency, balance string) {
	f.within(t, func(ctx context.Context, tx ledger.Tx) error {
		w, err := tx.GetOrCreateWallet(ctx, userID, currency)
		if err != nil {
			return err
		}
		w.Balance = money.MustParse(balance)
		return tx.UpdateWallet(ctx, w)
	})
}

func (f *fixture) seedDiscount(t *testing.T, d *models.Discount) {
	f.within(t, func(ctx context.Context, tx ledger.Tx) error {
		return tx.CreateDiscount(ctx, d)
	})
}

func (f *fixture) fiat(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return u.FiatBalance.String()
}

func (f *fixture) treasury(t *testing.T, symbol string) string {
	t.Helper()
	c, err := f.store.GetCurrency(context.Background(), symbol)
	require.NoError(t, err)
	return c.TreasuryBalance.String()
}

func (f *fixture) wallet(t *testing.T, userID uuid.UUID, currency string) *models.Wallet {
	t.Helper()
	w, err := f.store.GetWallet(context.Background(), userID, currency)
	require.NoError(t, err)
	return w
}

// holdings sums every wallet balance of symbol plus its treasury.
func (f *fixture) holdings(t *testing.T, symbol string) money.Money {
	t.Helper()
	ctx := context.Background()

	c, err := f.store.GetCurrency(ctx, symbol)
	require.NoError(t, err)
	total := c.TreasuryBalance

	ids, err := f.store.ListUserIDs(ctx)
	require.NoError(t, err)
	for _, id := range ids {
		wallets, err := f.store.ListWallets(ctx, id)
		require.NoError(t, err)
		for _, w := range wallets {
			require.False(t, w.Balance.IsNegative())
			require.False(t, w.Available().IsNegative())
			if w.Currency == symbol {
				total = total.Add(w.Balance)
			}
		}
	}
	return total
}
