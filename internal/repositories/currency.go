package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

const currencyColumns = `symbol, name, buy_price, sell_price, buy_commission, sell_commission,
	treasury_balance, decimal_places, is_active, is_tradeable, created_at, updated_at`

func selectCurrency(ctx context.Context, q sqlx.QueryerContext, symbol string, lock bool) (*models.Currency, error) {
	query := `
		SELECT ` + currencyColumns + `
		FROM currencies
		WHERE symbol = $1` + forUpdate(lock)

	var c models.Currency
	if err := get(ctx, q, &c, "currency "+symbol, query, symbol); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCurrency implements ledger.Reader.
func (s *Store) GetCurrency(ctx context.Context, symbol string) (*models.Currency, error) {
	return selectCurrency(ctx, s.executor(ctx), symbol, false)
}

// ListCurrencies implements ledger.Reader.
func (s *Store) ListCurrencies(ctx context.Context, activeOnly bool) ([]*models.Currency, error) {
	const query = `
		SELECT ` + currencyColumns + `
		FROM currencies
		WHERE NOT $1 OR is_active
		ORDER BY symbol
	`

	var currencies []*models.Currency
	if err := list(ctx, s.executor(ctx), &currencies, "currencies", query, activeOnly); err != nil {
		return nil, err
	}
	return currencies, nil
}

func (t *pgTx) GetCurrencyForUpdate(ctx context.Context, symbol string) (*models.Currency, error) {
	return selectCurrency(ctx, t.tx, symbol, true)
}

func (t *pgTx) CreateCurrency(ctx context.Context, c *models.Currency) error {
	const query = `
		INSERT INTO currencies (symbol, name, buy_price, sell_price, buy_commission, sell_commission,
			treasury_balance, decimal_places, is_active, is_tradeable, created_at, updated_at)
		VALUES (:symbol, :name, :buy_price, :sell_price, :buy_commission, :sell_commission,
			:treasury_balance, :decimal_places, :is_active, :is_tradeable, :created_at, :updated_at)
	`
	if c.CreatedAt.IsZero() {
		c.CreatedAt = t.now()
		c.UpdatedAt = c.CreatedAt
	}

	_, err := sqlx.NamedExecContext(ctx, t.tx, query, c)
	logQuery(query, []any{c.Symbol}, nil, err)
	return mapError(err, "create currency "+c.Symbol)
}

func (t *pgTx) UpdateCurrency(ctx context.Context, c *models.Currency) error {
	const query = `
		UPDATE currencies
		SET name = $2, buy_price = $3, sell_price = $4, buy_commission = $5, sell_commission = $6,
			treasury_balance = $7, decimal_places = $8, is_active = $9, is_tradeable = $10, updated_at = $11
		WHERE symbol = $1
	`
	c.UpdatedAt = t.now()
	return execOne(ctx, t.tx, "currency "+c.Symbol, query,
		c.Symbol, c.Name, c.BuyPrice, c.SellPrice, c.BuyCommission, c.SellCommission,
		c.TreasuryBalance, c.DecimalPlaces, c.IsActive, c.IsTradeable, c.UpdatedAt)
}
