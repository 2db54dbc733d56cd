package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/sbilibin2017/gw-exchange-engine/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleService_CreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lc := services.NewLifecycleService(f.store, services.WithClock(clock))

	u := &models.User{UserID: uuid.New(), Username: "carol", Email: "carol@example.com", Role: models.RoleUser, IsActive: true}
	require.NoError(t, lc.CreateUser(ctx, u))
	assert.Equal(t, testNow, u.CreatedAt)

	wallets, err := f.store.ListWallets(ctx, u.UserID)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "BTC", wallets[0].Currency)
	assert.Equal(t, "ETH", wallets[1].Currency)
	assert.True(t, wallets[0].Balance.IsZero())

	err = lc.CreateUser(ctx, &models.User{UserID: uuid.New(), Username: "carol", Email: "other@example.com"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateReference)
}

func TestLifecycleService_OnCurrencyActivated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.seedUser(t, "bob", "0")
	f.seedCurrency(t, &models.Currency{
		Symbol:          "SOL",
		Name:            "Solana",
		BuyPrice:        money.MustParse("9000000"),
		SellPrice:       money.MustParse("8900000"),
		TreasuryBalance: money.MustParse("1000"),
		DecimalPlaces:   8,
		IsTradeable:     true,
	})
	f.seedWallet(t, bob, "SOL", "3")

	lc := services.NewLifecycleService(f.store, services.WithWorkers(2))
	n, err := lc.OnCurrencyActivated(ctx, "SOL")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.True(t, f.wallet(t, f.alice, "SOL").Balance.IsZero())
	assert.Equal(t, "3.00000000", f.wallet(t, bob, "SOL").Balance.String())

	n, err = lc.OnCurrencyActivated(ctx, "SOL")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLifecycleService_SetUserActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lc := services.NewLifecycleService(f.store, services.WithClock(clock))
	f.seedWallet(t, f.alice, "BTC", "1")

	u, err := lc.SetUserActive(ctx, f.alice, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, err = f.wallets.Deposit(ctx, models.DepositRequest{UserID: f.alice, Currency: "BTC", Amount: money.MustParse("1"), TxHash: "0x1"})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	_, err = f.wallets.Withdraw(ctx, models.WithdrawRequest{UserID: f.alice, Currency: "BTC", Amount: money.MustParse("0.1"), ToAddress: "bc1q"})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	_, err = f.wallets.Transfer(ctx, models.TransferRequest{UserID: f.alice, FromCurrency: "BTC", ToCurrency: "ETH", Amount: money.MustParse("0.01")})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	_, err = f.orders.Exchange(ctx, models.ExchangeRequest{UserID: f.alice, FromCurrency: "BTC", ToCurrency: "ETH", Amount: money.MustParse("0.01")})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	_, err = f.orders.Buy(ctx, models.BuyRequest{UserID: f.alice, Currency: "ETH", Amount: money.MustParse("0.1")})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	w := f.wallet(t, f.alice, "BTC")
	assert.Equal(t, "1.00000000", w.Balance.String())
	assert.True(t, w.FrozenBalance.IsZero())
	assert.Equal(t, "100000000.00000000", f.fiat(t, f.alice))

	u, err = lc.SetUserActive(ctx, f.alice, true)
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	_, err = f.wallets.Transfer(ctx, models.TransferRequest{UserID: f.alice, FromCurrency: "BTC", ToCurrency: "ETH", Amount: money.MustParse("0.01")})
	require.NoError(t, err)

	_, err = lc.SetUserActive(ctx, uuid.New(), false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
