package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/sbilibin2017/gw-exchange-engine/internal/pricing"
	"github.com/shopspring/decimal"
)

// WalletService handles deposits, withdrawals, transfers and balance queries.
type WalletService struct {
	executor
	withdrawFee decimal.Decimal
}

// NewWalletService creates a new WalletService.
func NewWalletService(store ledger.Store, opts ...Option) (*WalletService, error) {
	cfg := newConfig(opts)
	fee, err := decimal.NewFromString(cfg.withdrawFee)
	if err != nil || fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("invalid withdraw fee %q", cfg.withdrawFee)
	}
	return &WalletService{executor: executor{store: store, cfg: cfg}, withdrawFee: fee}, nil
}

// requireActiveCurrency checks that symbol is active and that amount fits its precision.
func (s *WalletService) requireActiveCurrency(ctx context.Context, symbol string, amount money.Money) error {
	c, err := s.store.GetCurrency(ctx, symbol)
	switch {
	case apperr.IsKind(err, apperr.NotFound):
		return apperr.Newf(apperr.CurrencyUnavailable, "currency %s is not supported", symbol)
	case err != nil:
		return err
	case !c.IsActive:
		return apperr.Newf(apperr.CurrencyUnavailable, "currency %s is not active", symbol)
	}
	return requirePrecision(c, amount)
}

// Deposit credits an incoming transfer. The transaction hash makes the
// operation idempotent: replaying it fails with DuplicateReference.
func (s *WalletService) Deposit(ctx context.Context, req models.DepositRequest) (*models.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireActiveCurrency(ctx, req.Currency, req.Amount); err != nil {
		return nil, err
	}

	var entry *models.Transaction
	err := s.run(ctx, "deposit", func(ctx context.Context, tx ledger.Tx) error {
		now := s.cfg.clock()
		locks := ledger.NewLockSet().WithUser(req.UserID).WithWalletOrCreate(req.UserID, req.Currency)
		if err := locks.Acquire(ctx, tx); err != nil {
			return err
		}
		if err := requireActiveUser(locks.User(req.UserID)); err != nil {
			return err
		}
		if err := ledger.CreditWallet(locks.Wallet(req.UserID, req.Currency), req.Amount); err != nil {
			return err
		}
		if err := locks.Save(ctx, tx, now); err != nil {
			return err
		}

		ref := req.TxHash
		processed := now
		e := &models.Transaction{
			TransactionID:  uuid.New(),
			IdempotencyKey: "deposit:" + req.Currency + ":" + req.TxHash,
			UserID:         req.UserID,
			Currency:       req.Currency,
			Type:           models.TransactionDeposit,
			Amount:         req.Amount,
			Fee:            money.Zero,
			FinalAmount:    req.Amount,
			Status:         models.TransactionCompleted,
			ReferenceID:    &ref,
			Metadata:       models.Metadata{"from_address": req.FromAddress},
			Description:    "Deposit " + req.Currency,
			ProcessedAt:    &processed,
			CreatedAt:      now,
		}
		if err := tx.AppendTransaction(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		logFailure("deposit", err, "user_id", req.UserID, "currency", req.Currency, "amount", req.Amount, "tx_hash", req.TxHash)
		return nil, err
	}

	logger.Log.Infow("deposit credited", "user_id", req.UserID, "currency", req.Currency, "amount", req.Amount)
	s.publish(ctx, entry)
	return entry, nil
}

// Withdraw freezes amount plus fee and records a pending withdrawal that is
// later settled by CompleteWithdrawal or released by RejectWithdrawal.
func (s *WalletService) Withdraw(ctx context.Context, req models.WithdrawRequest) (*models.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireActiveCurrency(ctx, req.Currency, req.Amount); err != nil {
		return nil, err
	}

	fee := req.Amount.PercentageOf(s.withdrawFee)
	total := req.Amount.Add(fee)

	var entry *models.Transaction
	err := s.run(ctx, "withdraw", func(ctx context.Context, tx ledger.Tx) error {
		now := s.cfg.clock()
		locks := ledger.NewLockSet().WithUser(req.UserID).WithWallet(req.UserID, req.Currency)
		if err := locks.Acquire(ctx, tx); err != nil {
			return notFoundAsInsufficient(err, req.Currency)
		}
		if err := requireActiveUser(locks.User(req.UserID)); err != nil {
			return err
		}
		if err := ledger.Freeze(locks.Wallet(req.UserID, req.Currency), total); err != nil {
			return err
		}
		if err := locks.Save(ctx, tx, now); err != nil {
			return err
		}

		id := uuid.New()
		e := &models.Transaction{
			TransactionID:  id,
			IdempotencyKey: "withdraw:" + id.String(),
			UserID:         req.UserID,
			Currency:       req.Currency,
			Type:           models.TransactionWithdraw,
			Amount:         req.Amount.Neg(),
			Fee:            fee,
			FinalAmount:    total.Neg(),
			Status:         models.TransactionPending,
			Metadata:       models.Metadata{"to_address": req.ToAddress},
			Description:    "Withdraw " + req.Currency,
			CreatedAt:      now,
		}
		if err := tx.AppendTransaction(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		logFailure("withdraw", err, "user_id", req.UserID, "currency", req.Currency, "amount", req.Amount)
		return nil, err
	}

	logger.Log.Infow("withdrawal requested", "user_id", req.UserID, "currency", req.Currency, "amount", req.Amount, "fee", fee)
	s.publish(ctx, entry)
	return entry, nil
}

// CompleteWithdrawal settles a pending withdrawal: the frozen amount leaves the wallet.
func (s *WalletService) CompleteWithdrawal(ctx context.Context, transactionID uuid.UUID, txHash string) (*models.Transaction, error) {
	return s.finishWithdrawal(ctx, transactionID, models.TransactionCompleted, map[string]any{"tx_hash": txHash})
}

// RejectWithdrawal releases the reservation of a pending withdrawal.
func (s *WalletService) RejectWithdrawal(ctx context.Context, transactionID uuid.UUID, reason string) (*models.Transaction, error) {
	return s.finishWithdrawal(ctx, transactionID, models.TransactionCancelled, map[string]any{"rejection_reason": reason})
}

func (s *WalletService) finishWithdrawal(ctx context.Context, id uuid.UUID, status models.TransactionStatus, extra map[string]any) (*models.Transaction, error) {
	pending, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if pending.Type != models.TransactionWithdraw {
		return nil, apperr.New(apperr.InvalidRequest, "transaction is not a withdrawal")
	}

	var entry *models.Transaction
	err = s.run(ctx, "finish withdrawal", func(ctx context.Context, tx ledger.Tx) error {
		now := s.cfg.clock()
		locks := ledger.NewLockSet().
			WithWallet(pending.UserID, pending.Currency).
			WithTransaction(id)
		if err := locks.Acquire(ctx, tx); err != nil {
			return err
		}

		t := locks.Transaction(id)
		if t.Status != models.TransactionPending {
			return apperr.Newf(apperr.InvalidState, "withdrawal is already %s", t.Status)
		}
		w := locks.Wallet(pending.UserID, pending.Currency)
		total := t.FinalAmount.Neg()

		switch status {
		case models.TransactionCompleted:
			err = ledger.SettleFrozen(w, total)
		default:
			err = ledger.Unfreeze(w, total)
		}
		if err != nil {
			return err
		}
		if err := locks.Save(ctx, tx, now); err != nil {
			return err
		}

		if t.Metadata == nil {
			t.Metadata = models.Metadata{}
		}
		for k, v := range extra {
			t.Metadata[k] = v
		}
		processed := now
		t.Status = status
		t.ProcessedAt = &processed
		if err := tx.UpdateTransactionStatus(ctx, t); err != nil {
			return err
		}
		entry = t
		return nil
	})
	if err != nil {
		logFailure("finish withdrawal", err, "transaction_id", id, "status", status)
		return nil, err
	}

	logger.Log.Infow("withdrawal finished", "transaction_id", id, "status", status)
	s.publish(ctx, entry)
	return entry, nil
}

// Transfer moves value between two of the user's wallets at the commission-free
// cross rate. Both treasuries take the other side so holdings stay conserved.
func (s *WalletService) Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var result *models.TransferResult
	err := s.run(ctx, "transfer", func(ctx context.Context, tx ledger.Tx) error {
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
		if !from.IsActive || !to.IsActive {
			return apperr.New(apperr.CurrencyUnavailable, "currency is not active")
		}
		if err := requirePrecision(from, req.Amount); err != nil {
			return err
		}
		toAmount, rate, err := pricing.CrossRate(from, to, req.Amount)
		if err != nil {
			return err
		}

		if err := ledger.DebitWallet(locks.Wallet(req.UserID, req.FromCurrency), req.Amount); err != nil {
			return err
		}
		if err := ledger.AdjustTreasury(from, req.Amount); err != nil {
			return err
		}
		if err := ledger.AdjustTreasury(to, toAmount.Neg()); err != nil {
			return err
		}
		if err := ledger.CreditWallet(locks.Wallet(req.UserID, req.ToCurrency), toAmount); err != nil {
			return err
		}
		if err := locks.Save(ctx, tx, now); err != nil {
			return err
		}

		ref := "TRF-" + uuid.NewString()
		processed := now
		leg := func(currency, counter string, amount money.Money) *models.Transaction {
			return &models.Transaction{
				TransactionID:  uuid.New(),
				IdempotencyKey: ref + ":" + currency,
				UserID:         req.UserID,
				Currency:       currency,
				Type:           models.TransactionExchange,
				Amount:         amount,
				Fee:            money.Zero,
				FinalAmount:    amount,
				Status:         models.TransactionCompleted,
				ReferenceID:    &ref,
				Metadata:       models.Metadata{"transfer": true, "counter_currency": counter, "rate": rate.String()},
				Description:    "Transfer " + req.FromCurrency + " to " + req.ToCurrency,
				ProcessedAt:    &processed,
				CreatedAt:      now,
			}
		}
		out := leg(req.FromCurrency, req.ToCurrency, req.Amount.Neg())
		in := leg(req.ToCurrency, req.FromCurrency, toAmount)
		for _, e := range []*models.Transaction{out, in} {
			if err := tx.AppendTransaction(ctx, e); err != nil {
				return err
			}
		}

		result = &models.TransferResult{FromAmount: req.Amount, ToAmount: toAmount, Rate: rate, Legs: [2]*models.Transaction{out, in}}
		return nil
	})
	if err != nil {
		logFailure("transfer", err, "user_id", req.UserID, "from", req.FromCurrency, "to", req.ToCurrency, "amount", req.Amount)
		return nil, err
	}

	logger.Log.Infow("transfer completed", "user_id", req.UserID, "from", req.FromCurrency, "to", req.ToCurrency, "amount", req.Amount, "received", result.ToAmount)
	s.publish(ctx, result.Legs[0], result.Legs[1])
	return result, nil
}

// GetWallets returns the user's fiat balance and crypto wallets.
func (s *WalletService) GetWallets(ctx context.Context, userID uuid.UUID) (*models.WalletsResponse, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	wallets, err := s.store.ListWallets(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to list wallets", "user_id", userID, "error", err)
		return nil, err
	}
	return &models.WalletsResponse{FiatBalance: user.FiatBalance, Wallets: wallets}, nil
}

// Portfolio values every wallet at the current sell price.
func (s *WalletService) Portfolio(ctx context.Context, userID uuid.UUID) (*models.Portfolio, error) {
	balances, err := s.GetWallets(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &models.Portfolio{FiatBalance: balances.FiatBalance, TotalValue: balances.FiatBalance}
	for _, w := range balances.Wallets {
		c, err := s.store.GetCurrency(ctx, w.Currency)
		if err != nil {
			logger.Log.Errorw("failed to load currency for portfolio", "currency", w.Currency, "error", err)
			return nil, err
		}
		value := w.Balance.MulRate(c.SellPrice.Decimal()).Round(money.FiatScale)
		p.Items = append(p.Items, models.PortfolioItem{
			Currency:  w.Currency,
			Balance:   w.Balance,
			Available: w.Available(),
			SellPrice: c.SellPrice,
			Value:     value,
		})
		p.TotalValue = p.TotalValue.Add(value)
	}
	return p, nil
}

// Transactions returns the user's ledger entries, newest first.
func (s *WalletService) Transactions(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	if filter.UserID == uuid.Nil {
		return nil, apperr.New(apperr.InvalidRequest, "user is required")
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.store.ListTransactions(ctx, filter)
}

// PendingWithdrawals lists withdrawals awaiting settlement across users, newest first.
func (s *WalletService) PendingWithdrawals(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	filter.Type = models.TransactionWithdraw
	filter.Status = models.TransactionPending
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.store.ListTransactions(ctx, filter)
}
