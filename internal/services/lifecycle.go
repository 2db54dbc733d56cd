package services

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sourcegraph/conc/pool"
)

// LifecycleService manages account state and keeps the wallet matrix
// complete: every user holds a wallet for every active currency.
type LifecycleService struct {
	executor
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(store ledger.Store, opts ...Option) *LifecycleService {
	return &LifecycleService{executor: executor{store: store, cfg: newConfig(opts)}}
}

// CreateUser inserts the user together with empty wallets for the currencies
// active at that moment.
func (s *LifecycleService) CreateUser(ctx context.Context, user *models.User) error {
	currencies, err := s.store.ListCurrencies(ctx, true)
	if err != nil {
		logger.Log.Errorw("failed to list active currencies", "error", err)
		return err
	}

	err = s.run(ctx, "create user", func(ctx context.Context, tx ledger.Tx) error {
		now := s.cfg.clock()
		user.CreatedAt, user.UpdatedAt = now, now
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		for _, c := range currencies {
			if _, err := tx.GetOrCreateWallet(ctx, user.UserID, c.Symbol); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logFailure("create user", err, "username", user.Username)
		return err
	}

	logger.Log.Infow("user created", "user_id", user.UserID, "wallets", len(currencies))
	return nil
}

// SetUserActive suspends or reinstates an account. Suspended users keep their
// balances but cannot trade, deposit, withdraw or transfer.
func (s *LifecycleService) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*models.User, error) {
	var updated *models.User
	err := s.run(ctx, "set user active", func(ctx context.Context, tx ledger.Tx) error {
		locks := ledger.NewLockSet().WithUser(userID)
		if err := locks.Acquire(ctx, tx); err != nil {
			return err
		}
		u := locks.User(userID)
		u.IsActive = active
		if err := locks.Save(ctx, tx, s.cfg.clock()); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		logFailure("set user active", err, "user_id", userID, "active", active)
		return nil, err
	}

	logger.Log.Infow("user state changed", "user_id", userID, "active", active)
	return updated, nil
}

// OnCurrencyActivated opens a wallet in symbol for every user. Each user runs
// in its own scope; the fan-out is bounded by the configured worker count.
// It returns the number of wallets ensured and the first error encountered.
func (s *LifecycleService) OnCurrencyActivated(ctx context.Context, symbol string) (int, error) {
	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		logger.Log.Errorw("failed to list users", "error", err)
		return 0, err
	}

	var ensured atomic.Int64
	p := pool.New().WithContext(ctx).WithMaxGoroutines(max(s.cfg.workers, 1))
	for _, id := range ids {
		p.Go(func(ctx context.Context) error {
			if err := s.ensureWallet(ctx, id, symbol); err != nil {
				return err
			}
			ensured.Add(1)
			return nil
		})
	}
	err = p.Wait()

	logger.Log.Infow("wallets ensured for currency", "currency", symbol, "users", len(ids), "ensured", ensured.Load())
	return int(ensured.Load()), err
}

func (s *LifecycleService) ensureWallet(ctx context.Context, userID uuid.UUID, symbol string) error {
	err := s.run(ctx, "ensure wallet", func(ctx context.Context, tx ledger.Tx) error {
		locks := ledger.NewLockSet().WithWalletOrCreate(userID, symbol)
		return locks.Acquire(ctx, tx)
	})
	if err != nil && !apperr.IsKind(err, apperr.NotFound) {
		logFailure("ensure wallet", err, "user_id", userID, "currency", symbol)
		return err
	}
	return nil
}
