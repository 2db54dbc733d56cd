package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

const userColumns = `user_id, username, email, password_hash, role, fiat_balance, is_active, created_at, updated_at`

func selectUser(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID, lock bool) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_id = $1` + forUpdate(lock)

	var user models.User
	if err := get(ctx, q, &user, "user", query, userID); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser implements ledger.Reader.
func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return selectUser(ctx, s.executor(ctx), userID, false)
}

// GetUserByLogin implements ledger.Reader. Empty arguments are ignored.
func (s *Store) GetUserByLogin(ctx context.Context, username, email string) (*models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1 <> '' AND username = $1)
		   OR ($2 <> '' AND email = $2)
		LIMIT 1
	`

	var user models.User
	if err := get(ctx, s.executor(ctx), &user, "user", query, username, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUserIDs implements ledger.Reader.
func (s *Store) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	const query = `SELECT user_id FROM users ORDER BY user_id`

	var ids []uuid.UUID
	if err := list(ctx, s.executor(ctx), &ids, "users", query); err != nil {
		return nil, err
	}
	return ids, nil
}

func (t *pgTx) GetUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return selectUser(ctx, t.tx, userID, true)
}

func (t *pgTx) CreateUser(ctx context.Context, user *models.User) error {
	const query = `
		INSERT INTO users (user_id, username, email, password_hash, role, fiat_balance, is_active, created_at, updated_at)
		VALUES (:user_id, :username, :email, :password_hash, :role, :fiat_balance, :is_active, :created_at, :updated_at)
	`
	if user.UserID == uuid.Nil {
		user.UserID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = t.now()
		user.UpdatedAt = user.CreatedAt
	}

	res, err := sqlx.NamedExecContext(ctx, t.tx, query, user)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, []any{user.UserID, user.Username, user.Email}, rowsAffected, err)
	return mapError(err, "create user")
}

func (t *pgTx) UpdateUser(ctx context.Context, user *models.User) error {
	const query = `
		UPDATE users
		SET fiat_balance = $2, role = $3, is_active = $4, updated_at = $5
		WHERE user_id = $1
	`
	user.UpdatedAt = t.now()
	return execOne(ctx, t.tx, "user", query, user.UserID, user.FiatBalance, user.Role, user.IsActive, user.UpdatedAt)
}
