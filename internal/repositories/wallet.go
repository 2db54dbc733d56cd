package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

const walletColumns = `wallet_id, user_id, currency, balance, frozen_balance, created_at, updated_at`

func selectWallet(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID, currency string, lock bool) (*models.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE user_id = $1 AND currency = $2` + forUpdate(lock)

	var w models.Wallet
	if err := get(ctx, q, &w, "wallet "+currency, query, userID, currency); err != nil {
		return nil, err
	}
	return &w, nil
}

// GetWallet implements ledger.Reader.
func (s *Store) GetWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	return selectWallet(ctx, s.executor(ctx), userID, currency, false)
}

// ListWallets implements ledger.Reader.
func (s *Store) ListWallets(ctx context.Context, userID uuid.UUID) ([]*models.Wallet, error) {
	const query = `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE user_id = $1
		ORDER BY currency
	`

	var wallets []*models.Wallet
	if err := list(ctx, s.executor(ctx), &wallets, "wallets", query, userID); err != nil {
		return nil, err
	}
	return wallets, nil
}

func (t *pgTx) GetWalletForUpdate(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	return selectWallet(ctx, t.tx, userID, currency, true)
}

// GetOrCreateWallet inserts an empty wallet unless one exists, then locks it.
// A missing user or currency surfaces as NotFound through the foreign keys.
func (t *pgTx) GetOrCreateWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	const query = `
		INSERT INTO wallets (wallet_id, user_id, currency, balance, frozen_balance, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, $4, $4)
		ON CONFLICT (user_id, currency) DO NOTHING
	`
	args := []any{uuid.New(), userID, currency, t.now()}

	_, err := t.tx.ExecContext(ctx, query, args...)
	logQuery(query, args, nil, err)
	if err != nil {
		return nil, mapError(err, "create wallet "+currency)
	}
	return selectWallet(ctx, t.tx, userID, currency, true)
}

func (t *pgTx) UpdateWallet(ctx context.Context, w *models.Wallet) error {
	const query = `
		UPDATE wallets
		SET balance = $3, frozen_balance = $4, updated_at = $5
		WHERE user_id = $1 AND currency = $2
	`
	w.UpdatedAt = t.now()
	return execOne(ctx, t.tx, "wallet "+w.Currency, query, w.UserID, w.Currency, w.Balance, w.FrozenBalance, w.UpdatedAt)
}
