package services

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

//go:generate mockgen -source=executor.go -destination=executor_mock.go -package=services

// Publisher delivers committed ledger entries to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, txs ...*models.Transaction) // Best effort; never fails the caller
}

// PriceCache keeps recent currency snapshots for quote previews.
type PriceCache interface {
	GetCurrency(ctx context.Context, symbol string) (*models.Currency, error) // Returns a cached snapshot
	SetCurrency(ctx context.Context, currency *models.Currency) error         // Stores a snapshot
}

type config struct {
	publisher     Publisher
	cache         PriceCache
	baseFiat      string
	timeout       time.Duration
	attempts      int
	auditFailures bool
	withdrawFee   string
	priceSpread   string
	feedRate      float64
	workers       int
	clock         func() time.Time
}

func defaultConfig() config {
	return config{
		baseFiat:    "IRR",
		timeout:     10 * time.Second,
		attempts:    3,
		withdrawFee: "0.1",
		priceSpread: "0.5",
		feedRate:    20,
		workers:     8,
		clock:       time.Now,
	}
}

// Option configures the services built on the ledger.
type Option func(*config)

// WithPublisher publishes every committed transaction.
func WithPublisher(p Publisher) Option {
	return func(c *config) { c.publisher = p }
}

// WithPriceCache serves quote previews from cache.
func WithPriceCache(cache PriceCache) Option {
	return func(c *config) { c.cache = cache }
}

// WithBaseFiat sets the symbol of the fiat side of buy and sell orders.
func WithBaseFiat(symbol string) Option {
	return func(c *config) { c.baseFiat = symbol }
}

// WithTimeout bounds each operation, lock waits included.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithRetryAttempts sets how many times a scope aborted by contention is run.
func WithRetryAttempts(n int) Option {
	return func(c *config) { c.attempts = n }
}

// WithFailedOrderAudit records rejected trades as failed orders in their own scope.
func WithFailedOrderAudit() Option {
	return func(c *config) { c.auditFailures = true }
}

// WithWithdrawFee sets the withdrawal fee in percent of the amount.
func WithWithdrawFee(percent string) Option {
	return func(c *config) { c.withdrawFee = percent }
}

// WithPriceSpread sets the half-spread in percent applied around feed mid prices.
func WithPriceSpread(percent string) Option {
	return func(c *config) { c.priceSpread = percent }
}

// WithFeedRate limits price feed calls per second.
func WithFeedRate(perSecond float64) Option {
	return func(c *config) { c.feedRate = perSecond }
}

// WithWorkers bounds the fan-out of lifecycle hooks.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *config) { c.clock = clock }
}

func newConfig(opts []Option) config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	return c
}

// executor runs atomic scopes with a deadline and retries contention failures.
type executor struct {
	store ledger.Store
	cfg   config
}

func (e *executor) run(ctx context.Context, op string, fn func(ctx context.Context, tx ledger.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond

	for attempt := 1; ; attempt++ {
		err := e.store.WithinTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !apperr.IsRetryable(err) || attempt >= e.cfg.attempts || ctx.Err() != nil {
			return err
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return err
		}
		logger.Log.Warnw("retrying atomic scope", "op", op, "attempt", attempt, "wait", wait, "error", err)

		select {
		case <-ctx.Done():
			return apperr.Wrap(apperr.Timeout, ctx.Err(), op+" timed out")
		case <-time.After(wait):
		}
	}
}

func (e *executor) publish(ctx context.Context, txs ...*models.Transaction) {
	if e.cfg.publisher == nil || len(txs) == 0 {
		return
	}
	e.cfg.publisher.Publish(ctx, txs...)
}

// logFailure logs infrastructure failures as errors and business rejections as warnings.
func logFailure(op string, err error, keysAndValues ...any) {
	kv := append([]any{"kind", apperr.KindOf(err), "error", err}, keysAndValues...)
	switch apperr.KindOf(err) {
	case apperr.StorageFailure, apperr.Timeout, apperr.Underflow:
		logger.Log.Errorw(op+" failed", kv...)
	default:
		logger.Log.Warnw(op+" rejected", kv...)
	}
}
