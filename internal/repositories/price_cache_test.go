package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPriceCacheRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7.0-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer redisC.Terminate(ctx)

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port.Port()),
	})
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx).Err())

	repo := NewPriceCacheRepository(rdb, 2*time.Second)

	t.Run("set and get snapshot", func(t *testing.T) {
		btc := &models.Currency{
			Symbol:         "BTC",
			Name:           "Bitcoin",
			BuyPrice:       money.FromInt(4350000000),
			SellPrice:      money.FromInt(4300000000),
			BuyCommission:  decimal.RequireFromString("0.5"),
			SellCommission: decimal.RequireFromString("0.5"),
			IsActive:       true,
			IsTradeable:    true,
		}
		require.NoError(t, repo.SetCurrency(ctx, btc))

		got, err := repo.GetCurrency(ctx, "BTC")
		require.NoError(t, err)
		assert.True(t, got.BuyPrice.Equal(btc.BuyPrice))
		assert.True(t, got.SellPrice.Equal(btc.SellPrice))
		assert.True(t, got.BuyCommission.Equal(btc.BuyCommission))
		assert.True(t, got.Tradable())
	})

	t.Run("miss is not found", func(t *testing.T) {
		_, err := repo.GetCurrency(ctx, "DOGE")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("snapshot expires", func(t *testing.T) {
		require.NoError(t, repo.SetCurrency(ctx, &models.Currency{Symbol: "ETH", BuyPrice: money.FromInt(150000000)}))
		time.Sleep(3 * time.Second)

		_, err := repo.GetCurrency(ctx, "ETH")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("garbage is a storage failure", func(t *testing.T) {
		require.NoError(t, rdb.Set(ctx, priceKey("XRP"), "not-json", time.Minute).Err())

		_, err := repo.GetCurrency(ctx, "XRP")
		assert.True(t, apperr.IsKind(err, apperr.StorageFailure))
	})
}
