package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

const transactionColumns = `transaction_id, idempotency_key, user_id, currency, type, amount, fee, final_amount,
	status, reference_id, metadata, description, processed_at, created_at`

func selectTransaction(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID, lock bool) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_id = $1` + forUpdate(lock)

	var tr models.Transaction
	if err := get(ctx, q, &tr, "transaction", query, id); err != nil {
		return nil, err
	}
	return &tr, nil
}

// GetTransaction implements ledger.Reader.
func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return selectTransaction(ctx, s.executor(ctx), id, false)
}

// ListTransactions implements ledger.Reader. Newest first, in append order.
func (s *Store) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	var w where
	if filter.UserID != uuid.Nil {
		w.add("user_id = $%d", filter.UserID)
	}
	if filter.Currency != "" {
		w.add("currency = $%d", filter.Currency)
	}
	if filter.Type != "" {
		w.add("type = $%d", filter.Type)
	}
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions` + w.String() +
		` ORDER BY seq DESC` + w.page(filter.Limit, filter.Offset)

	var txs []*models.Transaction
	if err := list(ctx, s.executor(ctx), &txs, "transactions", query, w.args...); err != nil {
		return nil, err
	}
	return txs, nil
}

func (t *pgTx) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return selectTransaction(ctx, t.tx, id, true)
}

// AppendTransaction implements ledger.Tx. The unique idempotency_key column
// rejects replays.
func (t *pgTx) AppendTransaction(ctx context.Context, tr *models.Transaction) error {
	const query = `
		INSERT INTO transactions (transaction_id, idempotency_key, user_id, currency, type, amount, fee,
			final_amount, status, reference_id, metadata, description, processed_at, created_at)
		VALUES (:transaction_id, :idempotency_key, :user_id, :currency, :type, :amount, :fee,
			:final_amount, :status, :reference_id, :metadata, :description, :processed_at, :created_at)
	`
	if tr.TransactionID == uuid.Nil {
		tr.TransactionID = uuid.New()
	}
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = t.now()
	}

	_, err := sqlx.NamedExecContext(ctx, t.tx, query, tr)
	logQuery(query, []any{tr.TransactionID, tr.IdempotencyKey, tr.UserID, tr.Currency, tr.Amount}, nil, err)
	if apperr.IsKind(mapError(err, ""), apperr.DuplicateReference) {
		return apperr.Newf(apperr.DuplicateReference, "transaction %s already recorded", tr.IdempotencyKey)
	}
	return mapError(err, "append transaction")
}

func (t *pgTx) UpdateTransactionStatus(ctx context.Context, tr *models.Transaction) error {
	const query = `
		UPDATE transactions
		SET status = $2, processed_at = $3, metadata = $4
		WHERE transaction_id = $1
	`
	return execOne(ctx, t.tx, "transaction", query, tr.TransactionID, tr.Status, tr.ProcessedAt, tr.Metadata)
}
