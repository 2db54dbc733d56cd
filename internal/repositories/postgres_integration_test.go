package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	schema "github.com/sbilibin2017/gw-exchange-engine/db"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresContainer(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "password", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	}

	container, err := tc.GenericContainer(context.Background(), tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, _ := container.Host(context.Background())
	port, _ := container.MappedPort(context.Background(), "5432")

	dsn := fmt.Sprintf("postgres://postgres:password@%s:%d/testdb?sslmode=disable", host, port.Int())

	var db *sqlx.DB
	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("pgx", dsn)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err)

	require.NoError(t, Migrate(db.DB, schema.Migrations, "migrations"))

	t.Cleanup(func() {
		db.Close()
		container.Terminate(context.Background())
	})
	return db
}

func seedPostgres(t *testing.T, store *Store) (*models.User, *models.Currency) {
	t.Helper()
	user := &models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         models.RoleUser,
		FiatBalance:  money.FromInt(100000000),
		IsActive:     true,
	}
	btc := &models.Currency{
		Symbol:          "BTC",
		Name:            "Bitcoin",
		BuyPrice:        money.FromInt(4350000000),
		SellPrice:       money.FromInt(4300000000),
		BuyCommission:   decimal.RequireFromString("0.5"),
		SellCommission:  decimal.RequireFromString("0.5"),
		TreasuryBalance: money.FromInt(10),
		DecimalPlaces:   8,
		IsActive:        true,
		IsTradeable:     true,
	}
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.CreateCurrency(ctx, btc)
	})
	require.NoError(t, err)
	return user, btc
}

func TestStore_Postgres(t *testing.T) {
	db := setupPostgresContainer(t)
	store := NewStore(db, WithLockTimeout(200*time.Millisecond))
	ctx := context.Background()

	user, _ := seedPostgres(t, store)

	t.Run("migrations are idempotent", func(t *testing.T) {
		assert.NoError(t, Migrate(db.DB, schema.Migrations, "migrations"))
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		err := store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x", Role: models.RoleUser})
		})
		assert.True(t, apperr.IsKind(err, apperr.DuplicateReference))

		got, err := store.GetUserByLogin(ctx, "", "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.UserID, got.UserID)
	})

	t.Run("committed scope is visible together", func(t *testing.T) {
		err := store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			u, err := tx.GetUserForUpdate(ctx, user.UserID)
			if err != nil {
				return err
			}
			w, err := tx.GetOrCreateWallet(ctx, user.UserID, "BTC")
			if err != nil {
				return err
			}
			u.FiatBalance = u.FiatBalance.SubSigned(money.FromInt(43500000))
			w.Balance = w.Balance.Add(money.MustParse("0.01"))
			if err := tx.UpdateUser(ctx, u); err != nil {
				return err
			}
			if err := tx.UpdateWallet(ctx, w); err != nil {
				return err
			}
			return tx.AppendTransaction(ctx, &models.Transaction{
				IdempotencyKey: "ORD-1:buy:BTC",
				UserID:         user.UserID,
				Currency:       "BTC",
				Type:           models.TransactionBuy,
				Amount:         money.MustParse("0.01"),
				FinalAmount:    money.MustParse("0.01"),
				Status:         models.TransactionCompleted,
				Metadata:       models.Metadata{"buy_price": "4350000000.00000000"},
			})
		})
		require.NoError(t, err)

		u, err := store.GetUser(ctx, user.UserID)
		require.NoError(t, err)
		assert.Equal(t, "56500000.00000000", u.FiatBalance.String())

		w, err := store.GetWallet(ctx, user.UserID, "BTC")
		require.NoError(t, err)
		assert.Equal(t, "0.01000000", w.Balance.String())

		txs, err := store.ListTransactions(ctx, models.TransactionFilter{UserID: user.UserID})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "4350000000.00000000", txs[0].Metadata["buy_price"])
	})

	t.Run("failed scope leaves no trace", func(t *testing.T) {
		boom := apperr.New(apperr.InvalidState, "abort")
		err := store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			u, err := tx.GetUserForUpdate(ctx, user.UserID)
			if err != nil {
				return err
			}
			u.FiatBalance = money.Zero
			if err := tx.UpdateUser(ctx, u); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		u, err := store.GetUser(ctx, user.UserID)
		require.NoError(t, err)
		assert.Equal(t, "56500000.00000000", u.FiatBalance.String())
	})

	t.Run("replayed idempotency key is a duplicate", func(t *testing.T) {
		err := store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.AppendTransaction(ctx, &models.Transaction{
				IdempotencyKey: "ORD-1:buy:BTC",
				UserID:         user.UserID,
				Currency:       "BTC",
				Type:           models.TransactionBuy,
				Amount:         money.MustParse("0.01"),
				FinalAmount:    money.MustParse("0.01"),
				Status:         models.TransactionCompleted,
			})
		})
		assert.True(t, apperr.IsKind(err, apperr.DuplicateReference))
	})

	t.Run("negative balances are refused", func(t *testing.T) {
		err := store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			w, err := tx.GetWalletForUpdate(ctx, user.UserID, "BTC")
			if err != nil {
				return err
			}
			w.FrozenBalance = money.FromInt(1)
			return tx.UpdateWallet(ctx, w)
		})
		assert.True(t, apperr.IsKind(err, apperr.Underflow))
	})

	t.Run("lock wait times out", func(t *testing.T) {
		held := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)

		go func() {
			done <- store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
				if _, err := tx.GetWalletForUpdate(ctx, user.UserID, "BTC"); err != nil {
					close(held)
					return err
				}
				close(held)
				<-release
				return nil
			})
		}()
		<-held

		err := store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			_, err := tx.GetWalletForUpdate(ctx, user.UserID, "BTC")
			return err
		})
		close(release)

		assert.True(t, apperr.IsKind(err, apperr.Timeout))
		assert.True(t, apperr.IsRetryable(err))
		assert.NoError(t, <-done)
	})

	t.Run("wallet insert does not wait on a locked user", func(t *testing.T) {
		require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.CreateCurrency(ctx, &models.Currency{Symbol: "ETH", Name: "Ethereum", DecimalPlaces: 8, IsActive: true, IsTradeable: true})
		}))

		held := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)

		go func() {
			done <- store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
				if _, err := tx.GetUserForUpdate(ctx, user.UserID); err != nil {
					close(held)
					return err
				}
				close(held)
				<-release
				return nil
			})
		}()
		<-held

		err := store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			_, err := tx.GetOrCreateWallet(ctx, user.UserID, "ETH")
			return err
		})
		close(release)

		assert.NoError(t, err)
		assert.NoError(t, <-done)
	})

	t.Run("discount redemptions are counted inside the scope", func(t *testing.T) {
		limit := 1
		welcome := &models.Discount{
			Code:           "WELCOME10",
			Title:          "Welcome",
			Type:           models.DiscountPercentage,
			Value:          decimal.NewFromInt(10),
			UserUsageLimit: &limit,
			IsActive:       true,
		}
		order := &models.Order{
			OrderNumber:  "ORD-20260301120000-0001",
			UserID:       user.UserID,
			Type:         models.OrderBuy,
			FromCurrency: "USD",
			ToCurrency:   "BTC",
			Status:       models.OrderCompleted,
		}

		err := store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			if err := tx.CreateDiscount(ctx, welcome); err != nil {
				return err
			}
			d, err := tx.GetDiscountForUpdate(ctx, "WELCOME10")
			if err != nil {
				return err
			}
			if err := tx.CreateOrder(ctx, order); err != nil {
				return err
			}
			if err := tx.InsertDiscountRedemption(ctx, models.DiscountRedemption{Code: d.Code, UserID: user.UserID, OrderNumber: order.OrderNumber}); err != nil {
				return err
			}
			n, err := tx.CountDiscountRedemptions(ctx, d.Code, user.UserID)
			if err != nil {
				return err
			}
			assert.Equal(t, 1, n)
			d.UsedCount++
			return tx.UpdateDiscount(ctx, d)
		})
		require.NoError(t, err)

		d, err := store.GetDiscount(ctx, "WELCOME10")
		require.NoError(t, err)
		assert.Equal(t, 1, d.UsedCount)
		assert.Equal(t, 1, *d.UserUsageLimit)
		assert.Nil(t, d.UsageLimit)

		orders, err := store.ListOrders(ctx, models.OrderFilter{UserID: user.UserID, Limit: 10})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, order.OrderNumber, orders[0].OrderNumber)

		_, err = store.GetDiscount(ctx, "MISSING")
		assert.Equal(t, apperr.ReasonNotFound, apperr.ReasonOf(err))
	})

	t.Run("listings", func(t *testing.T) {
		ids, err := store.ListUserIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{user.UserID}, ids)

		currencies, err := store.ListCurrencies(ctx, true)
		require.NoError(t, err)
		require.Len(t, currencies, 2)
		assert.Equal(t, "4350000000.00000000", currencies[0].BuyPrice.String())

		wallets, err := store.ListWallets(ctx, user.UserID)
		require.NoError(t, err)
		assert.Len(t, wallets, 2)
	})
}
