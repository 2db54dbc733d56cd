// Package memory is an in-process ledger.Store. It honours the same locking,
// atomicity and idempotency rules as the PostgreSQL store and is used for
// tests and single-node development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

type walletKey struct {
	userID   uuid.UUID
	currency string
}

// Store keeps committed state in maps guarded by mu. Entity locks live in a
// separate table so a scope can hold them across calls.
type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]models.User
	currencies   map[string]models.Currency
	wallets      map[walletKey]models.Wallet
	orders       map[string]models.Order
	transactions map[uuid.UUID]models.Transaction
	txLog        []uuid.UUID
	idempotency  map[string]uuid.UUID
	discounts    map[string]models.Discount
	redemptions  []models.DiscountRedemption

	locks       *lockTable
	lockTimeout time.Duration
	clock       func() time.Time

	faultMu sync.Mutex
	faults  map[string]error
}

var _ ledger.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long a scope waits for any single entity lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithClock overrides the time source used for created_at stamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		users:        make(map[uuid.UUID]models.User),
		currencies:   make(map[string]models.Currency),
		wallets:      make(map[walletKey]models.Wallet),
		orders:       make(map[string]models.Order),
		transactions: make(map[uuid.UUID]models.Transaction),
		idempotency:  make(map[string]uuid.UUID),
		discounts:    make(map[string]models.Discount),
		locks:        newLockTable(),
		lockTimeout:  5 * time.Second,
		clock:        time.Now,
		faults:       make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailOn makes every later call of the named Tx method (or "Commit") fail
// with err until ClearFaults is called.
func (s *Store) FailOn(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = err
}

// ClearFaults removes all injected failures.
func (s *Store) ClearFaults() {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults = make(map[string]error)
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if err, ok := s.faults[op]; ok {
		return apperr.Wrap(apperr.StorageFailure, err, op)
	}
	return nil
}

// WithinTx implements ledger.Store.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.Timeout, err, "begin scope")
	}

	tx := newTx(s)
	defer func() {
		if p := recover(); p != nil {
			tx.release()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		tx.release()
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.release()
		return apperr.Wrap(apperr.Timeout, err, "commit scope")
	}
	if err := s.fault("Commit"); err != nil {
		tx.release()
		return err
	}

	tx.commit()
	tx.release()
	return nil
}

func notFound(what string) error {
	return apperr.New(apperr.NotFound, what+" not found")
}

// GetUser implements ledger.Reader.
func (s *Store) GetUser(_ context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

// GetUserByLogin implements ledger.Reader.
func (s *Store) GetUserByLogin(_ context.Context, username, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return &u, nil
		}
	}
	return nil, notFound("user")
}

// ListUserIDs implements ledger.Reader.
func (s *Store) ListUserIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// GetCurrency implements ledger.Reader.
func (s *Store) GetCurrency(_ context.Context, symbol string) (*models.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.currencies[symbol]
	if !ok {
		return nil, notFound("currency " + symbol)
	}
	return &c, nil
}

// ListCurrencies implements ledger.Reader.
func (s *Store) ListCurrencies(_ context.Context, activeOnly bool) ([]*models.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Currency, 0, len(s.currencies))
	for _, c := range s.currencies {
		if activeOnly && !c.IsActive {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// GetWallet implements ledger.Reader.
func (s *Store) GetWallet(_ context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[walletKey{userID: userID, currency: currency}]
	if !ok {
		return nil, notFound("wallet " + currency)
	}
	return &w, nil
}

// ListWallets implements ledger.Reader.
func (s *Store) ListWallets(_ context.Context, userID uuid.UUID) ([]*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Wallet
	for k, w := range s.wallets {
		if k.userID != userID {
			continue
		}
		w := w
		out = append(out, &w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

// GetOrder implements ledger.Reader.
func (s *Store) GetOrder(_ context.Context, orderNumber string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderNumber]
	if !ok {
		return nil, notFound("order " + orderNumber)
	}
	return &o, nil
}

// ListOrders implements ledger.Reader. Newest first.
func (s *Store) ListOrders(_ context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Order
	for _, o := range s.orders {
		if filter.UserID != uuid.Nil && o.UserID != filter.UserID {
			continue
		}
		if filter.Type != "" && o.Type != filter.Type {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		o := o
		out = append(out, &o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].OrderNumber > out[j].OrderNumber
	})
	return page(out, filter.Limit, filter.Offset), nil
}

// GetTransaction implements ledger.Reader.
func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, notFound("transaction")
	}
	return &t, nil
}

// ListTransactions implements ledger.Reader. Newest first.
func (s *Store) ListTransactions(_ context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Transaction
	for i := len(s.txLog) - 1; i >= 0; i-- {
		t := s.transactions[s.txLog[i]]
		if filter.UserID != uuid.Nil && t.UserID != filter.UserID {
			continue
		}
		if filter.Currency != "" && t.Currency != filter.Currency {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, &t)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

// GetDiscount implements ledger.Reader.
func (s *Store) GetDiscount(_ context.Context, code string) (*models.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.discounts[code]
	if !ok {
		return nil, apperr.Discount(apperr.ReasonNotFound, "discount code not found")
	}
	return &d, nil
}

// ListDiscounts implements ledger.Reader. Newest first.
func (s *Store) ListDiscounts(_ context.Context, filter models.DiscountFilter) ([]*models.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Discount
	for _, d := range s.discounts {
		if filter.Active != nil && d.IsActive != *filter.Active {
			continue
		}
		if filter.Type != "" && d.Type != filter.Type {
			continue
		}
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})
	return page(out, filter.Limit, filter.Offset), nil
}

// CountDiscountRedemptions implements ledger.Reader.
func (s *Store) CountDiscountRedemptions(_ context.Context, code string, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countRedemptions(code, userID), nil
}

func (s *Store) countRedemptions(code string, userID uuid.UUID) int {
	n := 0
	for _, r := range s.redemptions {
		if r.Code == code && r.UserID == userID {
			n++
		}
	}
	return n
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
