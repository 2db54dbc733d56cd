package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

const orderColumns = `order_number, user_id, type, from_currency, to_currency, from_amount, to_amount,
	exchange_rate, commission_rate, commission_amount, discount_code, discount_amount, final_amount,
	status, cancellation_reason, metadata, processed_at, created_at, updated_at`

func selectOrder(ctx context.Context, q sqlx.QueryerContext, orderNumber string, lock bool) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_number = $1` + forUpdate(lock)

	var o models.Order
	if err := get(ctx, q, &o, "order "+orderNumber, query, orderNumber); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrder implements ledger.Reader.
func (s *Store) GetOrder(ctx context.Context, orderNumber string) (*models.Order, error) {
	return selectOrder(ctx, s.executor(ctx), orderNumber, false)
}

// ListOrders implements ledger.Reader. Newest first.
func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	var w where
	if filter.UserID != uuid.Nil {
		w.add("user_id = $%d", filter.UserID)
	}
	if filter.Type != "" {
		w.add("type = $%d", filter.Type)
	}
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}
	query := `SELECT ` + orderColumns + ` FROM orders` + w.String() +
		` ORDER BY created_at DESC, order_number DESC` + w.page(filter.Limit, filter.Offset)

	var orders []*models.Order
	if err := list(ctx, s.executor(ctx), &orders, "orders", query, w.args...); err != nil {
		return nil, err
	}
	return orders, nil
}

func (t *pgTx) GetOrderForUpdate(ctx context.Context, orderNumber string) (*models.Order, error) {
	return selectOrder(ctx, t.tx, orderNumber, true)
}

func (t *pgTx) CreateOrder(ctx context.Context, o *models.Order) error {
	const query = `
		INSERT INTO orders (order_number, user_id, type, from_currency, to_currency, from_amount, to_amount,
			exchange_rate, commission_rate, commission_amount, discount_code, discount_amount, final_amount,
			status, cancellation_reason, metadata, processed_at, created_at, updated_at)
		VALUES (:order_number, :user_id, :type, :from_currency, :to_currency, :from_amount, :to_amount,
			:exchange_rate, :commission_rate, :commission_amount, :discount_code, :discount_amount, :final_amount,
			:status, :cancellation_reason, :metadata, :processed_at, :created_at, :updated_at)
	`
	if o.CreatedAt.IsZero() {
		o.CreatedAt = t.now()
		o.UpdatedAt = o.CreatedAt
	}

	_, err := sqlx.NamedExecContext(ctx, t.tx, query, o)
	logQuery(query, []any{o.OrderNumber, o.UserID, o.Type, o.Status}, nil, err)
	if apperr.IsKind(mapError(err, ""), apperr.DuplicateReference) {
		return apperr.Newf(apperr.DuplicateReference, "order %s already exists", o.OrderNumber)
	}
	return mapError(err, "create order "+o.OrderNumber)
}

func (t *pgTx) UpdateOrder(ctx context.Context, o *models.Order) error {
	const query = `
		UPDATE orders
		SET status = $2, cancellation_reason = $3, metadata = $4, processed_at = $5, updated_at = $6
		WHERE order_number = $1
	`
	o.UpdatedAt = t.now()
	return execOne(ctx, t.tx, "order "+o.OrderNumber, query,
		o.OrderNumber, o.Status, o.CancellationReason, o.Metadata, o.ProcessedAt, o.UpdatedAt)
}
