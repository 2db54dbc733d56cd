// Package repositories holds the PostgreSQL ledger store, its schema
// migrations and the Redis price cache.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
)

// Store implements ledger.Store on PostgreSQL. Row locks are taken with
// SELECT ... FOR NO KEY UPDATE and held until the scope's transaction ends.
// That mode does not block the KEY SHARE locks foreign key checks take, so
// inserting a wallet never waits on a user or currency row another scope holds.
type Store struct {
	db          *sqlx.DB
	lockTimeout time.Duration
	clock       func() time.Time
}

var _ ledger.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout sets the per-scope lock_timeout. Zero leaves the server default.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithClock overrides the time source used for created_at stamps left empty by callers.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// NewStore wraps an open connection pool.
func NewStore(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, lockTimeout: 5 * time.Second, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithinTx implements ledger.Store. A scope opened inside another joins it.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) (err error) {
	if tx := getTxFromContext(ctx); tx != nil {
		return fn(ctx, &pgTx{tx: tx, clock: s.clock})
	}
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.Timeout, err, "begin scope")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapError(err, "begin scope")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Log.Errorw("failed to rollback scope", "error", rbErr)
			}
		}
	}()

	if s.lockTimeout > 0 {
		const query = `SELECT set_config('lock_timeout', $1, true)`
		timeout := fmt.Sprintf("%dms", s.lockTimeout.Milliseconds())
		_, err = tx.ExecContext(ctx, query, timeout)
		logQuery(query, []any{timeout}, nil, err)
		if err != nil {
			return mapError(err, "set lock timeout")
		}
	}

	if err = fn(setTxToContext(ctx, tx), &pgTx{tx: tx, clock: s.clock}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return mapError(err, "commit scope")
	}
	return nil
}

// executor returns the scope's transaction when ctx carries one, the pool otherwise.
func (s *Store) executor(ctx context.Context) sqlx.ExtContext {
	if tx := getTxFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

// pgTx is the write side of one database transaction.
type pgTx struct {
	tx    *sqlx.Tx
	clock func() time.Time
}

var _ ledger.Tx = (*pgTx)(nil)

func (t *pgTx) now() time.Time {
	return t.clock().UTC()
}

type contextKey struct{}

var txKey = contextKey{}

func setTxToContext(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

func getTxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}

// PostgreSQL error codes the store translates.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeLockNotAvailable    = "55P03"
	codeQueryCanceled       = "57014"
	codeDeadlockDetected    = "40P01"
	codeSerialization       = "40001"
)

// mapError translates driver errors into the apperr taxonomy.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.Timeout, err, op)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Wrap(apperr.DuplicateReference, err, op)
		case codeForeignKeyViolation:
			return apperr.Wrap(apperr.NotFound, err, op)
		case codeCheckViolation:
			return apperr.Wrap(apperr.Underflow, err, op)
		case codeLockNotAvailable, codeQueryCanceled:
			return apperr.Wrap(apperr.Timeout, err, op)
		case codeDeadlockDetected, codeSerialization:
			return apperr.Conflict(err)
		}
	}
	return apperr.Wrap(apperr.StorageFailure, err, op)
}

func logQuery(query string, args []any, result any, err error) {
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", result,
		"error", err,
	)
}

func forUpdate(lock bool) string {
	if lock {
		return " FOR NO KEY UPDATE"
	}
	return ""
}

// get loads one row into dest; a missing row is reported as "<what> not found".
func get(ctx context.Context, q sqlx.QueryerContext, dest any, what, query string, args ...any) error {
	err := sqlx.GetContext(ctx, q, dest, query, args...)
	logQuery(query, args, dest, err)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, what+" not found")
	}
	return mapError(err, "get "+what)
}

func list(ctx context.Context, q sqlx.QueryerContext, dest any, what, query string, args ...any) error {
	err := sqlx.SelectContext(ctx, q, dest, query, args...)
	logQuery(query, args, dest, err)
	return mapError(err, "list "+what)
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, q sqlx.ExecerContext, what, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, args, rowsAffected, err)
	if err != nil {
		return mapError(err, "write "+what)
	}
	if rowsAffected == 0 {
		return apperr.New(apperr.NotFound, what+" not found")
	}
	return nil
}

// where accumulates positional predicates for listing queries.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page appends LIMIT and OFFSET when set.
func (w *where) page(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		w.args = append(w.args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(w.args))
	}
	if offset > 0 {
		w.args = append(w.args, offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(w.args))
	}
	return b.String()
}
