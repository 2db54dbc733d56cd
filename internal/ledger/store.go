//go:generate mockgen -source=store.go -destination=store_mock.go -package=ledger

// Package ledger defines the storage contract behind every balance change and the
// balance operations built on top of it.
package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

// Store is the single authority over users, currencies, wallets, orders,
// discounts and the transaction log.
type Store interface {
	Reader

	// WithinTx runs fn inside one atomic scope. Every write made through tx
	// becomes visible together when fn returns nil; none do otherwise.
	// Implementations surface lock waits past the context deadline or their
	// configured lock timeout as apperr.Timeout.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Reader serves committed state. None of its methods take locks.
type Reader interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetUserByLogin(ctx context.Context, username, email string) (*models.User, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)

	GetCurrency(ctx context.Context, symbol string) (*models.Currency, error)
	ListCurrencies(ctx context.Context, activeOnly bool) ([]*models.Currency, error)

	GetWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error)
	ListWallets(ctx context.Context, userID uuid.UUID) ([]*models.Wallet, error)

	GetOrder(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error)

	GetDiscount(ctx context.Context, code string) (*models.Discount, error)
	ListDiscounts(ctx context.Context, filter models.DiscountFilter) ([]*models.Discount, error)
	CountDiscountRedemptions(ctx context.Context, code string, userID uuid.UUID) (int, error)
}

// Tx is the write side of an atomic scope. The *ForUpdate getters lock the row
// until the scope ends; mutators require the row to be locked by this scope.
type Tx interface {
	GetUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetCurrencyForUpdate(ctx context.Context, symbol string) (*models.Currency, error)
	GetWalletForUpdate(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error)
	// GetOrCreateWallet returns the locked wallet, creating an empty one first if needed.
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error)
	GetOrderForUpdate(ctx context.Context, orderNumber string) (*models.Order, error)
	GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetDiscountForUpdate(ctx context.Context, code string) (*models.Discount, error)
	// CountDiscountRedemptions sees redemptions committed before and staged within this scope.
	CountDiscountRedemptions(ctx context.Context, code string, userID uuid.UUID) (int, error)

	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	CreateCurrency(ctx context.Context, currency *models.Currency) error
	UpdateCurrency(ctx context.Context, currency *models.Currency) error
	UpdateWallet(ctx context.Context, wallet *models.Wallet) error
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateOrder(ctx context.Context, order *models.Order) error
	// AppendTransaction fails with apperr.DuplicateReference when the idempotency key was already used.
	AppendTransaction(ctx context.Context, tx *models.Transaction) error
	UpdateTransactionStatus(ctx context.Context, tx *models.Transaction) error
	CreateDiscount(ctx context.Context, discount *models.Discount) error
	UpdateDiscount(ctx context.Context, discount *models.Discount) error
	// DeleteDiscount removes a locked code that has never been redeemed.
	DeleteDiscount(ctx context.Context, code string) error
	InsertDiscountRedemption(ctx context.Context, redemption models.DiscountRedemption) error
}
