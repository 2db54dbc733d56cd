package services

import (
	"context"

	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/discount"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/pricing"
)

// Quote previews a trade. It reads committed state (or the price cache) only
// and never mutates anything. A quote the treasury could not fill fails with
// InsufficientTreasury. A rejected discount code does not fail the quote; the
// reason is reported in DiscountRejection instead.
func (s *OrderService) Quote(ctx context.Context, req models.QuoteRequest) (*models.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.priceSnapshot(ctx, req.Currency)
	if err != nil {
		return nil, err
	}
	if err := requirePrecision(c, req.Amount); err != nil {
		return nil, err
	}

	var q models.Quote
	switch req.Type {
	case models.OrderBuy:
		if q, err = pricing.Buy(c, s.cfg.baseFiat, req.Amount); err == nil {
			err = requireTreasury(c, req.Amount)
		}
	case models.OrderSell:
		q, err = pricing.Sell(c, s.cfg.baseFiat, req.Amount)
	case models.OrderExchange:
		to, terr := s.priceSnapshot(ctx, req.ToCurrency)
		if terr != nil {
			return nil, terr
		}
		if q, err = pricing.Exchange(c, to, req.Amount); err == nil {
			err = requireTreasury(to, q.ToAmount)
		}
	}
	if err != nil {
		return nil, err
	}

	code := normalizeCode(req.DiscountCode)
	if code == "" {
		return &q, nil
	}
	if req.Type == models.OrderExchange {
		q.DiscountRejection = "discount codes do not apply to exchange orders"
		return &q, nil
	}

	res, err := s.previewDiscount(ctx, code, q, req)
	if err != nil {
		if apperr.KindOf(err) != apperr.DiscountError {
			return nil, err
		}
		q.DiscountRejection = apperr.PublicMessage(err)
		return &q, nil
	}

	q.DiscountCode = &code
	q.DiscountAmount = res.DiscountAmount
	if req.Type == models.OrderBuy {
		q.FinalAmount = res.FinalAmount
	} else {
		q.FinalAmount = q.FinalAmount.Add(res.DiscountAmount)
		q.ToAmount = q.FinalAmount
	}
	return &q, nil
}

func (s *OrderService) previewDiscount(ctx context.Context, code string, q models.Quote, req models.QuoteRequest) (discount.Result, error) {
	d, err := s.store.GetDiscount(ctx, code)
	if err != nil {
		return discount.Result{}, err
	}
	in := discount.Input{Amount: q.FinalAmount, Currency: req.Currency, UserID: req.UserID, Now: s.cfg.clock()}
	if discount.NeedsUserCount(d) {
		n, err := s.store.CountDiscountRedemptions(ctx, code, req.UserID)
		if err != nil {
			return discount.Result{}, err
		}
		in.UserRedemptions = n
	}
	return discount.Validate(d, in)
}

// priceSnapshot prefers the price cache and fills it on a miss.
func (s *OrderService) priceSnapshot(ctx context.Context, symbol string) (*models.Currency, error) {
	if s.cfg.cache != nil {
		if c, err := s.cfg.cache.GetCurrency(ctx, symbol); err == nil && c != nil {
			return c, nil
		}
	}

	c, err := s.store.GetCurrency(ctx, symbol)
	if apperr.IsKind(err, apperr.NotFound) {
		return nil, apperr.Newf(apperr.CurrencyUnavailable, "currency %s is not supported", symbol)
	}
	if err != nil {
		return nil, err
	}

	if s.cfg.cache != nil {
		if err := s.cfg.cache.SetCurrency(ctx, c); err != nil {
			logger.Log.Errorw("failed to cache currency price", "symbol", symbol, "error", err)
		}
	}
	return c, nil
}
