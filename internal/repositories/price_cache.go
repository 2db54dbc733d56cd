package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

// PriceCacheRepository keeps currency snapshots in Redis for quote previews.
type PriceCacheRepository struct {
	client *redis.Client
	exp    time.Duration // expiration for cached snapshots
}

// NewPriceCacheRepository creates a cache whose entries live for expiration.
func NewPriceCacheRepository(client *redis.Client, expiration time.Duration) *PriceCacheRepository {
	return &PriceCacheRepository{
		client: client,
		exp:    expiration,
	}
}

func priceKey(symbol string) string {
	return fmt.Sprintf("currency_price:%s", symbol)
}

// GetCurrency returns the cached snapshot, NotFound on a miss.
func (r *PriceCacheRepository) GetCurrency(ctx context.Context, symbol string) (*models.Currency, error) {
	key := priceKey(symbol)

	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		logger.Log.Infow(
			"key", key,
			"error", err,
		)
		if errors.Is(err, redis.Nil) {
			return nil, apperr.Newf(apperr.NotFound, "price for %s not cached", symbol)
		}
		return nil, apperr.Wrap(apperr.StorageFailure, err, "read price cache")
	}

	var c models.Currency
	if err := json.Unmarshal(val, &c); err != nil {
		logger.Log.Infow(
			"key", key,
			"value", string(val),
			"error", err,
		)
		return nil, apperr.Wrap(apperr.StorageFailure, err, "decode cached price")
	}

	logger.Log.Infow(
		"key", key,
		"result", c.Symbol,
		"error", nil,
	)
	return &c, nil
}

// SetCurrency stores a snapshot with the configured expiration.
func (r *PriceCacheRepository) SetCurrency(ctx context.Context, c *models.Currency) error {
	key := priceKey(c.Symbol)

	data, err := json.Marshal(c)
	if err != nil {
		return apperr.Wrap(apperr.StorageFailure, err, "encode price")
	}
	err = r.client.Set(ctx, key, data, r.exp).Err()

	logger.Log.Infow(
		"key", key,
		"buy_price", c.BuyPrice,
		"sell_price", c.SellPrice,
		"error", err,
	)

	if err != nil {
		return apperr.Wrap(apperr.StorageFailure, err, "write price cache")
	}
	return nil
}
