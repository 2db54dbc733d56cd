package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

const discountColumns = `code, title, description, type, value, min_order_amount, max_discount_amount,
	usage_limit, used_count, user_usage_limit, currency, user_id, is_active, starts_at, expires_at,
	created_at, updated_at`

func selectDiscount(ctx context.Context, q sqlx.QueryerContext, code string, lock bool) (*models.Discount, error) {
	query := `
		SELECT ` + discountColumns + `
		FROM discounts
		WHERE code = $1` + forUpdate(lock)

	var d models.Discount
	if err := get(ctx, q, &d, "discount", query, code); err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return nil, apperr.Discount(apperr.ReasonNotFound, "discount code not found")
		}
		return nil, err
	}
	return &d, nil
}

func countRedemptions(ctx context.Context, q sqlx.QueryerContext, code string, userID uuid.UUID) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM discount_redemptions
		WHERE code = $1 AND user_id = $2
	`
	var n int
	if err := get(ctx, q, &n, "discount redemptions", query, code, userID); err != nil {
		return 0, err
	}
	return n, nil
}

// GetDiscount implements ledger.Reader.
func (s *Store) GetDiscount(ctx context.Context, code string) (*models.Discount, error) {
	return selectDiscount(ctx, s.executor(ctx), code, false)
}

// ListDiscounts implements ledger.Reader. Newest first.
func (s *Store) ListDiscounts(ctx context.Context, filter models.DiscountFilter) ([]*models.Discount, error) {
	var w where
	if filter.Active != nil {
		w.add("is_active = $%d", *filter.Active)
	}
	if filter.Type != "" {
		w.add("type = $%d", filter.Type)
	}
	query := `SELECT ` + discountColumns + ` FROM discounts` + w.String() +
		` ORDER BY created_at DESC, code` + w.page(filter.Limit, filter.Offset)

	var discounts []*models.Discount
	if err := list(ctx, s.executor(ctx), &discounts, "discounts", query, w.args...); err != nil {
		return nil, err
	}
	return discounts, nil
}

// CountDiscountRedemptions implements ledger.Reader.
func (s *Store) CountDiscountRedemptions(ctx context.Context, code string, userID uuid.UUID) (int, error) {
	return countRedemptions(ctx, s.executor(ctx), code, userID)
}

func (t *pgTx) GetDiscountForUpdate(ctx context.Context, code string) (*models.Discount, error) {
	return selectDiscount(ctx, t.tx, code, true)
}

func (t *pgTx) CountDiscountRedemptions(ctx context.Context, code string, userID uuid.UUID) (int, error) {
	return countRedemptions(ctx, t.tx, code, userID)
}

func (t *pgTx) CreateDiscount(ctx context.Context, d *models.Discount) error {
	const query = `
		INSERT INTO discounts (code, title, description, type, value, min_order_amount, max_discount_amount,
			usage_limit, used_count, user_usage_limit, currency, user_id, is_active, starts_at, expires_at,
			created_at, updated_at)
		VALUES (:code, :title, :description, :type, :value, :min_order_amount, :max_discount_amount,
			:usage_limit, :used_count, :user_usage_limit, :currency, :user_id, :is_active, :starts_at, :expires_at,
			:created_at, :updated_at)
	`
	if d.CreatedAt.IsZero() {
		d.CreatedAt = t.now()
		d.UpdatedAt = d.CreatedAt
	}

	_, err := sqlx.NamedExecContext(ctx, t.tx, query, d)
	logQuery(query, []any{d.Code, d.Type, d.Value}, nil, err)
	if apperr.IsKind(mapError(err, ""), apperr.DuplicateReference) {
		return apperr.Newf(apperr.DuplicateReference, "discount %s already exists", d.Code)
	}
	return mapError(err, "create discount "+d.Code)
}

func (t *pgTx) UpdateDiscount(ctx context.Context, d *models.Discount) error {
	const query = `
		UPDATE discounts
		SET used_count = $2, is_active = $3, usage_limit = $4, user_usage_limit = $5,
			starts_at = $6, expires_at = $7, updated_at = $8, title = $9, description = $10,
			value = $11, min_order_amount = $12, max_discount_amount = $13
		WHERE code = $1
	`
	d.UpdatedAt = t.now()
	return execOne(ctx, t.tx, "discount", query,
		d.Code, d.UsedCount, d.IsActive, d.UsageLimit, d.UserUsageLimit, d.StartsAt, d.ExpiresAt, d.UpdatedAt,
		d.Title, d.Description, d.Value, d.MinOrderAmount, d.MaxDiscountAmount)
}

// DeleteDiscount implements ledger.Tx. Redeemed codes are kept for the
// redemption history and must be deactivated instead.
func (t *pgTx) DeleteDiscount(ctx context.Context, code string) error {
	n, err := countAllRedemptions(ctx, t.tx, code)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Newf(apperr.InvalidState, "discount %s has been redeemed; deactivate it instead", code)
	}
	const query = `DELETE FROM discounts WHERE code = $1`
	return execOne(ctx, t.tx, "discount", query, code)
}

func countAllRedemptions(ctx context.Context, q sqlx.QueryerContext, code string) (int, error) {
	const query = `SELECT COUNT(*) FROM discount_redemptions WHERE code = $1`
	var n int
	if err := get(ctx, q, &n, "discount redemptions", query, code); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *pgTx) InsertDiscountRedemption(ctx context.Context, r models.DiscountRedemption) error {
	const query = `
		INSERT INTO discount_redemptions (code, user_id, order_number, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if r.CreatedAt.IsZero() {
		r.CreatedAt = t.now()
	}
	args := []any{r.Code, r.UserID, r.OrderNumber, r.CreatedAt}

	_, err := t.tx.ExecContext(ctx, query, args...)
	logQuery(query, args, nil, err)
	return mapError(err, "record discount redemption")
}
