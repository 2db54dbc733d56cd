package services

import (
	"context"

	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/pricing"
	"github.com/shopspring/decimal"
)

var half = decimal.RequireFromString("0.5")

// Exchange converts crypto to crypto through both treasuries. The commission
// is split evenly across the two transactions it records.
func (s *OrderService) Exchange(ctx context.Context, req models.ExchangeRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	err := s.exchangePrecheck(ctx, req)
	if err != nil {
		s.rejected(ctx, "exchange", req.UserID, models.OrderExchange, req.FromCurrency, req.ToCurrency, req.Amount, err)
		return nil, err
	}

	var (
		order   *models.Order
		entries []*models.Transaction
	)
	err = s.run(ctx, "exchange", func(ctx context.Context, tx ledger.Tx) error {
		now := s.cfg.clock()
		locks := ledger.NewLockSet().
			WithUser(req.UserID).
			WithCurrency(req.FromCurrency, req.ToCurrency).
			WithWallet(req.UserID, req.FromCurrency).
			WithWalletOrCreate(req.UserID, req.ToCurrency)
		if err := locks.Acquire(ctx, tx); err != nil {
			return notFoundAsInsufficient(err, req.FromCurrency)
		}
		if err := requireActiveUser(locks.User(req.UserID)); err != nil {
			return err
		}

		from, to := locks.Currency(req.FromCurrency), locks.Currency(req.ToCurrency)
		fromWallet, toWallet := locks.Wallet(req.UserID, req.FromCurrency), locks.Wallet(req.UserID, req.ToCurrency)

		q, err := pricing.Exchange(from, to, req.Amount)
		if err != nil {
			return err
		}
		if err := requireTreasury(to, q.ToAmount); err != nil {
			return err
		}

		if err := ledger.DebitWallet(fromWallet, req.Amount); err != nil {
			return err
		}
		if err := ledger.AdjustTreasury(from, req.Amount); err != nil {
			return err
		}
		if err := ledger.AdjustTreasury(to, q.FinalAmount.Neg()); err != nil {
			return err
		}
		if err := ledger.CreditWallet(toWallet, q.FinalAmount); err != nil {
			return err
		}
		if err := locks.Save(ctx, tx, now); err != nil {
			return err
		}

		o := s.completedOrder(req.UserID, q, now)
		o.FromAmount = req.Amount
		o.ToAmount = q.FinalAmount
		o.Metadata = models.Metadata{"from_value": q.GrossAmount.String(), "gross_to_amount": q.ToAmount.String()}
		if err := createOrder(ctx, tx, o); err != nil {
			return err
		}

		feeOut := q.CommissionAmount.MulRate(half)
		feeIn := q.CommissionAmount.SubSigned(feeOut)

		out := orderTransaction(o, models.TransactionExchange, req.FromCurrency, req.Amount.Neg(), feeOut, req.Amount.Neg(), now)
		out.Description = "Exchange " + req.FromCurrency + " to " + req.ToCurrency
		out.Metadata = models.Metadata{"leg": "out", "counter_currency": req.ToCurrency}

		in := orderTransaction(o, models.TransactionExchange, req.ToCurrency, q.FinalAmount, feeIn, q.FinalAmount, now)
		in.Description = "Exchange " + req.FromCurrency + " to " + req.ToCurrency
		in.Metadata = models.Metadata{"leg": "in", "counter_currency": req.FromCurrency}

		for _, entry := range []*models.Transaction{out, in} {
			if err := tx.AppendTransaction(ctx, entry); err != nil {
				return err
			}
		}

		order, entries = o, []*models.Transaction{out, in}
		return nil
	})
	if err != nil {
		s.rejected(ctx, "exchange", req.UserID, models.OrderExchange, req.FromCurrency, req.ToCurrency, req.Amount, err)
		return nil, err
	}

	logger.Log.Infow("exchange order completed", "order_number", order.OrderNumber, "user_id", req.UserID, "from", req.FromCurrency, "to", req.ToCurrency, "amount", req.Amount, "received", order.ToAmount)
	s.publish(ctx, entries...)
	return order, nil
}

func (s *OrderService) exchangePrecheck(ctx context.Context, req models.ExchangeRequest) error {
	from, err := s.currencyForTrade(ctx, req.FromCurrency)
	if err != nil {
		return err
	}
	if err := requirePrecision(from, req.Amount); err != nil {
		return err
	}
	to, err := s.currencyForTrade(ctx, req.ToCurrency)
	if err != nil {
		return err
	}
	if err := s.requireAvailable(ctx, req.UserID, req.FromCurrency, req.Amount); err != nil {
		return err
	}
	q, err := pricing.Exchange(from, to, req.Amount)
	if err != nil {
		return err
	}
	return requireTreasury(to, q.ToAmount)
}
