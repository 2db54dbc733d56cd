package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/discount"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/sbilibin2017/gw-exchange-engine/internal/pricing"
)

// OrderService executes buy, sell and exchange orders against the ledger.
// Every order runs in one atomic scope: either all of its balance changes,
// its order row and its transactions are committed, or none are.
type OrderService struct {
	executor
	seq atomic.Uint32
}

// NewOrderService creates a new OrderService.
func NewOrderService(store ledger.Store, opts ...Option) *OrderService {
	s := &OrderService{executor: executor{store: store, cfg: newConfig(opts)}}
	s.seq.Store(rand.Uint32N(10000))
	return s
}

// nextOrderNumber returns ORD-YYYYMMDDHHMMSS-NNNN.
func (s *OrderService) nextOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", now.UTC().Format("20060102150405"), s.seq.Add(1)%10000)
}

// createOrder turns an order number collision into a retryable conflict so the
// scope reruns with a fresh number.
func createOrder(ctx context.Context, tx ledger.Tx, o *models.Order) error {
	err := tx.CreateOrder(ctx, o)
	if apperr.IsKind(err, apperr.DuplicateReference) {
		return apperr.Conflict(err)
	}
	return err
}

func normalizeCode(code *string) string {
	if code == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(*code))
}

// currencyForTrade loads committed state for the fast-path checks that run
// before any lock is taken. The same checks are repeated under lock.
func (s *OrderService) currencyForTrade(ctx context.Context, symbol string) (*models.Currency, error) {
	c, err := s.store.GetCurrency(ctx, symbol)
	if apperr.IsKind(err, apperr.NotFound) {
		return nil, apperr.Newf(apperr.CurrencyUnavailable, "currency %s is not supported", symbol)
	}
	if err != nil {
		return nil, err
	}
	if !c.Tradable() {
		return nil, apperr.Newf(apperr.CurrencyUnavailable, "currency %s is not available for trading", symbol)
	}
	return c, nil
}

func requireActiveUser(u *models.User) error {
	if !u.IsActive {
		return apperr.New(apperr.InvalidState, "user account is not active")
	}
	return nil
}

// requirePrecision rejects amounts finer than the currency's smallest unit.
func requirePrecision(c *models.Currency, amount money.Money) error {
	if !amount.FitsPlaces(int32(c.DecimalPlaces)) {
		return apperr.Newf(apperr.InvalidRequest, "%s amounts allow at most %d decimal places", c.Symbol, c.DecimalPlaces)
	}
	return nil
}

func requireTreasury(c *models.Currency, amount money.Money) error {
	if c.TreasuryBalance.LessThan(amount) {
		return apperr.Newf(apperr.InsufficientTreasury, "insufficient %s treasury", c.Symbol)
	}
	return nil
}

// redeemDiscount validates a locked code against amount and consumes one use.
func redeemDiscount(ctx context.Context, tx ledger.Tx, d *models.Discount, amount money.Money, currency string, userID uuid.UUID, now time.Time) (discount.Result, error) {
	in := discount.Input{Amount: amount, Currency: currency, UserID: userID, Now: now}
	if discount.NeedsUserCount(d) {
		n, err := tx.CountDiscountRedemptions(ctx, d.Code, userID)
		if err != nil {
			return discount.Result{}, err
		}
		in.UserRedemptions = n
	}
	res, err := discount.Validate(d, in)
	if err != nil {
		return discount.Result{}, err
	}
	if err := discount.Redeem(d); err != nil {
		return discount.Result{}, err
	}
	return res, nil
}

// Buy debits fiat, credits the wallet and draws the crypto from the treasury.
func (s *OrderService) Buy(ctx context.Context, req models.BuyRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	code := normalizeCode(req.DiscountCode)

	c, err := s.currencyForTrade(ctx, req.Currency)
	if err == nil {
		err = requirePrecision(c, req.Amount)
	}
	if err == nil {
		err = requireTreasury(c, req.Amount)
	}
	if err != nil {
		s.rejected(ctx, "buy", req.UserID, models.OrderBuy, s.cfg.baseFiat, req.Currency, req.Amount, err)
		return nil, err
	}

	var (
		order   *models.Order
		entries []*models.Transaction
	)
	err = s.run(ctx, "buy", func(ctx context.Context, tx ledger.Tx) error {
		now := s.cfg.clock()
		locks := ledger.NewLockSet().
			WithUser(req.UserID).
			WithCurrency(req.Currency).
			WithWalletOrCreate(req.UserID, req.Currency)
		if code != "" {
			locks.WithDiscount(code)
		}
		if err := locks.Acquire(ctx, tx); err != nil {
			return err
		}

		user, cur, wallet := locks.User(req.UserID), locks.Currency(req.Currency), locks.Wallet(req.UserID, req.Currency)
		if err := requireActiveUser(user); err != nil {
			return err
		}
		if err := requireTreasury(cur, req.Amount); err != nil {
			return err
		}
		q, err := pricing.Buy(cur, s.cfg.baseFiat, req.Amount)
		if err != nil {
			return err
		}

		if code != "" {
			res, err := redeemDiscount(ctx, tx, locks.Discount(code), q.FinalAmount, req.Currency, req.UserID, now)
			if err != nil {
				return err
			}
			q.DiscountCode = &code
			q.DiscountAmount = res.DiscountAmount
			q.FinalAmount = res.FinalAmount
		}

		if err := ledger.DebitFiat(user, q.FinalAmount); err != nil {
			return err
		}
		if err := ledger.AdjustTreasury(cur, req.Amount.Neg()); err != nil {
			return err
		}
		if err := ledger.CreditWallet(wallet, req.Amount); err != nil {
			return err
		}
		if err := locks.Save(ctx, tx, now); err != nil {
			return err
		}

		o := s.completedOrder(req.UserID, q, now)
		o.FromAmount = q.FinalAmount
		o.ToAmount = req.Amount
		o.Metadata = models.Metadata{"buy_price": q.UnitPrice.String(), "total_cost": q.GrossAmount.String()}
		if err := createOrder(ctx, tx, o); err != nil {
			return err
		}
		if code != "" {
			if err := tx.InsertDiscountRedemption(ctx, models.DiscountRedemption{Code: code, UserID: req.UserID, OrderNumber: o.OrderNumber, CreatedAt: now}); err != nil {
				return err
			}
		}

		entry := orderTransaction(o, models.TransactionBuy, req.Currency, req.Amount, q.CommissionAmount, req.Amount, now)
		entry.Description = "Buy " + req.Currency
		entry.Metadata = models.Metadata{"buy_price": q.UnitPrice.String(), "total_cost": q.FinalAmount.String()}
		if err := tx.AppendTransaction(ctx, entry); err != nil {
			return err
		}

		order, entries = o, []*models.Transaction{entry}
		return nil
	})
	if err != nil {
		s.rejected(ctx, "buy", req.UserID, models.OrderBuy, s.cfg.baseFiat, req.Currency, req.Amount, err)
		return nil, err
	}

	logger.Log.Infow("buy order completed", "order_number", order.OrderNumber, "user_id", req.UserID, "currency", req.Currency, "amount", req.Amount, "final_amount", order.FinalAmount)
	s.publish(ctx, entries...)
	return order, nil
}

// Sell debits the wallet, returns the crypto to the treasury and credits fiat.
func (s *OrderService) Sell(ctx context.Context, req models.SellRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	code := normalizeCode(req.DiscountCode)

	c, err := s.currencyForTrade(ctx, req.Currency)
	if err == nil {
		err = requirePrecision(c, req.Amount)
	}
	if err == nil {
		err = s.requireAvailable(ctx, req.UserID, req.Currency, req.Amount)
	}
	if err != nil {
		s.rejected(ctx, "sell", req.UserID, models.OrderSell, req.Currency, s.cfg.baseFiat, req.Amount, err)
		return nil, err
	}

	var (
		order   *models.Order
		entries []*models.Transaction
	)
	err = s.run(ctx, "sell", func(ctx context.Context, tx ledger.Tx) error {
		now := s.cfg.clock()
		locks := ledger.NewLockSet().
			WithUser(req.UserID).
			WithCurrency(req.Currency).
			WithWallet(req.UserID, req.Currency)
		if code != "" {
			locks.WithDiscount(code)
		}
		if err := locks.Acquire(ctx, tx); err != nil {
			return notFoundAsInsufficient(err, req.Currency)
		}

		user, cur, wallet := locks.User(req.UserID), locks.Currency(req.Currency), locks.Wallet(req.UserID, req.Currency)
		if err := requireActiveUser(user); err != nil {
			return err
		}
		q, err := pricing.Sell(cur, s.cfg.baseFiat, req.Amount)
		if err != nil {
			return err
		}

		if code != "" {
			res, err := redeemDiscount(ctx, tx, locks.Discount(code), q.FinalAmount, req.Currency, req.UserID, now)
			if err != nil {
				return err
			}
			q.DiscountCode = &code
			q.DiscountAmount = res.DiscountAmount
			q.FinalAmount = q.FinalAmount.Add(res.DiscountAmount)
			q.ToAmount = q.FinalAmount
		}

		if err := ledger.DebitWallet(wallet, req.Amount); err != nil {
			return err
		}
		if err := ledger.AdjustTreasury(cur, req.Amount); err != nil {
			return err
		}
		if err := ledger.CreditFiat(user, q.FinalAmount); err != nil {
			return err
		}
		if err := locks.Save(ctx, tx, now); err != nil {
			return err
		}

		o := s.completedOrder(req.UserID, q, now)
		o.FromAmount = req.Amount
		o.ToAmount = q.FinalAmount
		o.Metadata = models.Metadata{"sell_price": q.UnitPrice.String(), "total_value": q.GrossAmount.String()}
		if err := createOrder(ctx, tx, o); err != nil {
			return err
		}
		if code != "" {
			if err := tx.InsertDiscountRedemption(ctx, models.DiscountRedemption{Code: code, UserID: req.UserID, OrderNumber: o.OrderNumber, CreatedAt: now}); err != nil {
				return err
			}
		}

		entry := orderTransaction(o, models.TransactionSell, req.Currency, req.Amount.Neg(), q.CommissionAmount, q.FinalAmount, now)
		entry.Description = "Sell " + req.Currency
		entry.Metadata = models.Metadata{"sell_price": q.UnitPrice.String(), "total_value": q.GrossAmount.String()}
		if err := tx.AppendTransaction(ctx, entry); err != nil {
			return err
		}

		order, entries = o, []*models.Transaction{entry}
		return nil
	})
	if err != nil {
		s.rejected(ctx, "sell", req.UserID, models.OrderSell, req.Currency, s.cfg.baseFiat, req.Amount, err)
		return nil, err
	}

	logger.Log.Infow("sell order completed", "order_number", order.OrderNumber, "user_id", req.UserID, "currency", req.Currency, "amount", req.Amount, "final_amount", order.FinalAmount)
	s.publish(ctx, entries...)
	return order, nil
}

// requireAvailable is the pre-lock balance check; missing wallets hold nothing.
func (s *OrderService) requireAvailable(ctx context.Context, userID uuid.UUID, currency string, amount money.Money) error {
	w, err := s.store.GetWallet(ctx, userID, currency)
	if err != nil {
		return notFoundAsInsufficient(err, currency)
	}
	if w.Available().LessThan(amount) {
		return apperr.Newf(apperr.InsufficientFunds, "insufficient %s balance", currency)
	}
	return nil
}

func notFoundAsInsufficient(err error, currency string) error {
	if apperr.IsKind(err, apperr.NotFound) {
		return apperr.Newf(apperr.InsufficientFunds, "insufficient %s balance", currency)
	}
	return err
}

func (s *OrderService) completedOrder(userID uuid.UUID, q models.Quote, now time.Time) *models.Order {
	processed := now
	return &models.Order{
		OrderNumber:      s.nextOrderNumber(now),
		UserID:           userID,
		Type:             q.Type,
		FromCurrency:     q.FromCurrency,
		ToCurrency:       q.ToCurrency,
		ExchangeRate:     q.UnitPrice,
		CommissionRate:   q.CommissionRate,
		CommissionAmount: q.CommissionAmount,
		DiscountCode:     q.DiscountCode,
		DiscountAmount:   q.DiscountAmount,
		FinalAmount:      q.FinalAmount,
		Status:           models.OrderCompleted,
		ProcessedAt:      &processed,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func orderTransaction(o *models.Order, typ models.TransactionType, currency string, amount, fee, final money.Money, now time.Time) *models.Transaction {
	ref := o.OrderNumber
	processed := now
	return &models.Transaction{
		TransactionID:  uuid.New(),
		IdempotencyKey: fmt.Sprintf("%s:%s:%s", o.OrderNumber, typ, currency),
		UserID:         o.UserID,
		Currency:       currency,
		Type:           typ,
		Amount:         amount,
		Fee:            fee,
		FinalAmount:    final,
		Status:         models.TransactionCompleted,
		ReferenceID:    &ref,
		ProcessedAt:    &processed,
		CreatedAt:      now,
	}
}

// rejected logs a failed order and, when auditing is on, records it as a
// failed order in a scope of its own. Validation failures are not recorded.
func (s *OrderService) rejected(ctx context.Context, op string, userID uuid.UUID, typ models.OrderType, from, to string, amount money.Money, cause error) {
	logFailure(op, cause, "user_id", userID, "from", from, "to", to, "amount", amount)
	if !s.cfg.auditFailures || apperr.IsKind(cause, apperr.InvalidRequest) {
		return
	}

	now := s.cfg.clock()
	o := &models.Order{
		OrderNumber:  s.nextOrderNumber(now),
		UserID:       userID,
		Type:         typ,
		FromCurrency: from,
		ToCurrency:   to,
		FromAmount:   amount,
		Status:       models.OrderFailed,
		Metadata:     models.Metadata{"error_kind": string(apperr.KindOf(cause)), "error": apperr.PublicMessage(cause)},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.store.WithinTx(context.WithoutCancel(ctx), func(ctx context.Context, tx ledger.Tx) error {
		return tx.CreateOrder(ctx, o)
	})
	if err != nil {
		logger.Log.Errorw("failed to record failed order", "op", op, "user_id", userID, "error", err)
	}
}
