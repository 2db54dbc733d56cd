package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"
)

//go:generate mockgen -source=currency.go -destination=currency_mock.go -package=services

// PriceFeed supplies mid-market prices quoted in the base fiat.
type PriceFeed interface {
	MidPrice(ctx context.Context, symbol, baseFiat string) (decimal.Decimal, error) // Returns the current mid price
}

// WalletProvisioner opens wallets when a currency becomes active.
type WalletProvisioner interface {
	OnCurrencyActivated(ctx context.Context, symbol string) (int, error) // Ensures a wallet for every user
}

var hundred = decimal.NewFromInt(100)

// CurrencyService administers currencies, prices, treasuries and discount codes.
type CurrencyService struct {
	executor
	provisioner WalletProvisioner
	spread      decimal.Decimal
}

// NewCurrencyService creates a new CurrencyService.
func NewCurrencyService(store ledger.Store, provisioner WalletProvisioner, opts ...Option) (*CurrencyService, error) {
	cfg := newConfig(opts)
	spread, err := decimal.NewFromString(cfg.priceSpread)
	if err != nil || spread.IsNegative() || !spread.LessThan(hundred) {
		return nil, fmt.Errorf("invalid price spread %q", cfg.priceSpread)
	}
	return &CurrencyService{executor: executor{store: store, cfg: cfg}, provisioner: provisioner, spread: spread}, nil
}

func validCommission(d decimal.Decimal) bool {
	return !d.IsNegative() && !d.GreaterThan(hundred)
}

func validateCurrency(c *models.Currency) error {
	switch {
	case c.Symbol == "" || len(c.Symbol) > 10:
		return apperr.New(apperr.InvalidRequest, "invalid currency symbol")
	case c.BuyPrice.IsNegative() || c.SellPrice.IsNegative():
		return apperr.New(apperr.InvalidRequest, "prices must not be negative")
	case !validCommission(c.BuyCommission) || !validCommission(c.SellCommission):
		return apperr.New(apperr.InvalidRequest, "commission must be between 0 and 100")
	case c.TreasuryBalance.IsNegative():
		return apperr.New(apperr.InvalidRequest, "treasury balance must not be negative")
	case c.DecimalPlaces < 0 || c.DecimalPlaces > int(money.Scale):
		return apperr.Newf(apperr.InvalidRequest, "decimal places must be between 0 and %d", money.Scale)
	}
	return nil
}

// CreateCurrency registers a currency. An active currency is provisioned for all users.
func (s *CurrencyService) CreateCurrency(ctx context.Context, c *models.Currency) error {
	if err := validateCurrency(c); err != nil {
		return err
	}
	err := s.run(ctx, "create currency", func(ctx context.Context, tx ledger.Tx) error {
		now := s.cfg.clock()
		c.CreatedAt, c.UpdatedAt = now, now
		return tx.CreateCurrency(ctx, c)
	})
	if err != nil {
		logFailure("create currency", err, "currency", c.Symbol)
		return err
	}

	logger.Log.Infow("currency created", "currency", c.Symbol, "active", c.IsActive)
	s.refreshCache(ctx, c)
	if c.IsActive {
		return s.provision(ctx, c.Symbol)
	}
	return nil
}

// SetActive toggles a currency. Activation opens the missing wallets.
func (s *CurrencyService) SetActive(ctx context.Context, symbol string, active bool) (*models.Currency, error) {
	var (
		updated   *models.Currency
		activated bool
	)
	err := s.run(ctx, "set currency active", func(ctx context.Context, tx ledger.Tx) error {
		c, err := tx.GetCurrencyForUpdate(ctx, symbol)
		if err != nil {
			return err
		}
		activated = active && !c.IsActive
		c.IsActive = active
		c.UpdatedAt = s.cfg.clock()
		if err := tx.UpdateCurrency(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		logFailure("set currency active", err, "currency", symbol, "active", active)
		return nil, err
	}

	logger.Log.Infow("currency state changed", "currency", symbol, "active", active)
	s.refreshCache(ctx, updated)
	if activated {
		if err := s.provision(ctx, symbol); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

func (s *CurrencyService) provision(ctx context.Context, symbol string) error {
	if s.provisioner == nil {
		return nil
	}
	_, err := s.provisioner.OnCurrencyActivated(ctx, symbol)
	return err
}

// UpdatePricing changes prices or commissions. Nil fields keep their value.
func (s *CurrencyService) UpdatePricing(ctx context.Context, req models.UpdatePricingRequest) (*models.Currency, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Currency
	err := s.run(ctx, "update pricing", func(ctx context.Context, tx ledger.Tx) error {
		c, err := tx.GetCurrencyForUpdate(ctx, req.Symbol)
		if err != nil {
			return err
		}
		if req.BuyPrice != nil {
			c.BuyPrice = *req.BuyPrice
		}
		if req.SellPrice != nil {
			c.SellPrice = *req.SellPrice
		}
		if req.BuyCommission != nil {
			c.BuyCommission = *req.BuyCommission
		}
		if req.SellCommission != nil {
			c.SellCommission = *req.SellCommission
		}
		if err := validateCurrency(c); err != nil {
			return err
		}
		c.UpdatedAt = s.cfg.clock()
		if err := tx.UpdateCurrency(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		logFailure("update pricing", err, "currency", req.Symbol)
		return nil, err
	}

	logger.Log.Infow("pricing updated", "currency", req.Symbol, "buy_price", updated.BuyPrice, "sell_price", updated.SellPrice)
	s.refreshCache(ctx, updated)
	return updated, nil
}

// AdjustTreasury applies a signed change to the house inventory.
func (s *CurrencyService) AdjustTreasury(ctx context.Context, req models.TreasuryAdjustmentRequest) (*models.Currency, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Currency
	err := s.run(ctx, "adjust treasury", func(ctx context.Context, tx ledger.Tx) error {
		locks := ledger.NewLockSet().WithCurrency(req.Symbol)
		if err := locks.Acquire(ctx, tx); err != nil {
			return err
		}
		c := locks.Currency(req.Symbol)
		if err := ledger.AdjustTreasury(c, req.Delta); err != nil {
			return err
		}
		if err := locks.Save(ctx, tx, s.cfg.clock()); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		logFailure("adjust treasury", err, "currency", req.Symbol, "delta", req.Delta)
		return nil, err
	}

	logger.Log.Infow("treasury adjusted", "currency", req.Symbol, "delta", req.Delta, "balance", updated.TreasuryBalance, "note", req.Note)
	return updated, nil
}

func validateDiscount(d *models.Discount) error {
	switch {
	case d.Code == "" || len(d.Code) > 50:
		return apperr.New(apperr.InvalidRequest, "invalid discount code")
	case d.Type != models.DiscountPercentage && d.Type != models.DiscountFixed:
		return apperr.New(apperr.InvalidRequest, "invalid discount type")
	case !d.Value.IsPositive():
		return apperr.New(apperr.InvalidRequest, "discount value must be positive")
	case d.Type == models.DiscountPercentage && d.Value.GreaterThan(hundred):
		return apperr.New(apperr.InvalidRequest, "percentage discount must not exceed 100")
	case d.StartsAt != nil && d.ExpiresAt != nil && !d.ExpiresAt.After(*d.StartsAt):
		return apperr.New(apperr.InvalidRequest, "discount expires before it starts")
	case d.UsageLimit != nil && *d.UsageLimit < d.UsedCount:
		return apperr.Newf(apperr.InvalidRequest, "usage limit is below the %d uses already made", d.UsedCount)
	}
	return nil
}

// CreateDiscount registers a promotional code.
func (s *CurrencyService) CreateDiscount(ctx context.Context, d *models.Discount) error {
	code := normalizeCode(&d.Code)
	d.Code = code
	d.UsedCount = 0
	if err := validateDiscount(d); err != nil {
		return err
	}

	err := s.run(ctx, "create discount", func(ctx context.Context, tx ledger.Tx) error {
		now := s.cfg.clock()
		d.CreatedAt, d.UpdatedAt = now, now
		return tx.CreateDiscount(ctx, d)
	})
	if err != nil {
		logFailure("create discount", err, "code", code)
		return err
	}
	logger.Log.Infow("discount created", "code", code, "type", d.Type, "value", d.Value)
	return nil
}

// UpdateDiscount edits a code under its row lock, so an edit never races a
// redemption. The used count is preserved.
func (s *CurrencyService) UpdateDiscount(ctx context.Context, req models.UpdateDiscountRequest) (*models.Discount, error) {
	req.Code = normalizeCode(&req.Code)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Discount
	err := s.run(ctx, "update discount", func(ctx context.Context, tx ledger.Tx) error {
		d, err := tx.GetDiscountForUpdate(ctx, req.Code)
		if err != nil {
			return adminDiscountError(err, req.Code)
		}
		applyDiscountUpdate(d, req)
		if err := validateDiscount(d); err != nil {
			return err
		}
		d.UpdatedAt = s.cfg.clock()
		if err := tx.UpdateDiscount(ctx, d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		logFailure("update discount", err, "code", req.Code)
		return nil, err
	}

	logger.Log.Infow("discount updated", "code", req.Code, "active", updated.IsActive, "value", updated.Value)
	return updated, nil
}

// adminDiscountError reports an unknown code as a missing resource rather than a redemption failure.
func adminDiscountError(err error, code string) error {
	if apperr.ReasonOf(err) == apperr.ReasonNotFound {
		return apperr.Newf(apperr.NotFound, "discount %s not found", code)
	}
	return err
}

func applyDiscountUpdate(d *models.Discount, req models.UpdateDiscountRequest) {
	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.Value != nil {
		d.Value = *req.Value
	}
	if req.MinOrderAmount != nil {
		d.MinOrderAmount = req.MinOrderAmount
	}
	if req.MaxDiscountAmount != nil {
		d.MaxDiscountAmount = req.MaxDiscountAmount
	}
	if req.UsageLimit != nil {
		d.UsageLimit = req.UsageLimit
	}
	if req.UserUsageLimit != nil {
		d.UserUsageLimit = req.UserUsageLimit
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	if req.StartsAt != nil {
		d.StartsAt = req.StartsAt
	}
	if req.ExpiresAt != nil {
		d.ExpiresAt = req.ExpiresAt
	}
}

// ListDiscounts pages through discount codes, newest first.
func (s *CurrencyService) ListDiscounts(ctx context.Context, filter models.DiscountFilter) ([]*models.Discount, error) {
	discounts, err := s.store.ListDiscounts(ctx, filter)
	if err != nil {
		logger.Log.Errorw("failed to list discounts", "error", err)
		return nil, err
	}
	return discounts, nil
}

// DeleteDiscount removes a code that was never redeemed.
func (s *CurrencyService) DeleteDiscount(ctx context.Context, code string) error {
	code = normalizeCode(&code)
	err := s.run(ctx, "delete discount", func(ctx context.Context, tx ledger.Tx) error {
		if _, err := tx.GetDiscountForUpdate(ctx, code); err != nil {
			return adminDiscountError(err, code)
		}
		return tx.DeleteDiscount(ctx, code)
	})
	if err != nil {
		logFailure("delete discount", err, "code", code)
		return err
	}
	logger.Log.Infow("discount deleted", "code", code)
	return nil
}

// Prices lists active currencies with their quote parameters.
func (s *CurrencyService) Prices(ctx context.Context) (*models.PricesResponse, error) {
	currencies, err := s.store.ListCurrencies(ctx, true)
	if err != nil {
		logger.Log.Errorw("failed to list currencies", "error", err)
		return nil, err
	}
	resp := &models.PricesResponse{Prices: make([]models.PriceInfo, 0, len(currencies))}
	for _, c := range currencies {
		resp.Prices = append(resp.Prices, models.PriceInfo{
			Symbol:         c.Symbol,
			Name:           c.Name,
			BuyPrice:       c.BuyPrice,
			SellPrice:      c.SellPrice,
			BuyCommission:  c.BuyCommission,
			SellCommission: c.SellCommission,
			IsTradeable:    c.IsTradeable,
		})
	}
	return resp, nil
}

// SyncPrices pulls mid prices from feed and sets buy and sell prices around
// them using the configured spread. Currencies the feed cannot price keep
// their current prices. It returns the number of currencies updated.
func (s *CurrencyService) SyncPrices(ctx context.Context, feed PriceFeed) (int, error) {
	currencies, err := s.store.ListCurrencies(ctx, true)
	if err != nil {
		logger.Log.Errorw("failed to list currencies", "error", err)
		return 0, err
	}

	limiter := rate.NewLimiter(rate.Limit(s.cfg.feedRate), 1)
	up := decimal.NewFromInt(1).Add(s.spread.Div(hundred))
	down := decimal.NewFromInt(1).Sub(s.spread.Div(hundred))

	var updated atomic.Int64
	p := pool.New().WithContext(ctx).WithMaxGoroutines(max(s.cfg.workers, 1))
	for _, c := range currencies {
		if c.Symbol == s.cfg.baseFiat {
			continue
		}
		p.Go(func(ctx context.Context) error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			mid, err := feed.MidPrice(ctx, c.Symbol, s.cfg.baseFiat)
			if err != nil || !mid.IsPositive() {
				logger.Log.Warnw("price feed has no usable price", "currency", c.Symbol, "mid", mid, "error", err)
				return nil
			}
			buy := money.New(mid.Mul(up)).Round(money.FiatScale)
			sell := money.New(mid.Mul(down)).Round(money.FiatScale)
			if _, err := s.UpdatePricing(ctx, models.UpdatePricingRequest{Symbol: c.Symbol, BuyPrice: &buy, SellPrice: &sell}); err != nil {
				return err
			}
			updated.Add(1)
			return nil
		})
	}
	err = p.Wait()

	logger.Log.Infow("prices synchronized", "currencies", len(currencies), "updated", updated.Load())
	return int(updated.Load()), err
}

func (s *CurrencyService) refreshCache(ctx context.Context, c *models.Currency) {
	if s.cfg.cache == nil || c == nil {
		return
	}
	if err := s.cfg.cache.SetCurrency(ctx, c); err != nil {
		logger.Log.Warnw("failed to refresh price cache", "currency", c.Symbol, "error", err)
	}
}
