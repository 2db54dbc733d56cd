package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
)

type walletKey struct {
	userID   uuid.UUID
	currency string
}

func (k walletKey) less(o walletKey) bool {
	if k.userID != o.userID {
		return k.userID.String() < o.userID.String()
	}
	return k.currency < o.currency
}

// LockSet declares every entity an operation will mutate and acquires them
// all before any mutation, always in the same global order:
// orders, users, currencies, wallets, discounts, transactions.
// Within a kind, keys are taken in ascending order.
type LockSet struct {
	orderKeys    []string
	userKeys     []uuid.UUID
	currencyKeys []string
	walletKeys   []walletKey
	createWallet map[walletKey]bool
	discountKeys []string
	txKeys       []uuid.UUID

	orders       map[string]*models.Order
	users        map[uuid.UUID]*models.User
	currencies   map[string]*models.Currency
	wallets      map[walletKey]*models.Wallet
	discounts    map[string]*models.Discount
	transactions map[uuid.UUID]*models.Transaction

	snapshots map[string]string
}

// NewLockSet returns an empty set.
func NewLockSet() *LockSet {
	return &LockSet{createWallet: make(map[walletKey]bool)}
}

// WithOrder adds an order row.
func (l *LockSet) WithOrder(orderNumber string) *LockSet {
	l.orderKeys = append(l.orderKeys, orderNumber)
	return l
}

// WithUser adds a user row (the fiat account).
func (l *LockSet) WithUser(userID uuid.UUID) *LockSet {
	l.userKeys = append(l.userKeys, userID)
	return l
}

// WithCurrency adds currency rows (treasuries).
func (l *LockSet) WithCurrency(symbols ...string) *LockSet {
	l.currencyKeys = append(l.currencyKeys, symbols...)
	return l
}

// WithWallet adds an existing wallet. Acquire fails with NotFound if it is missing.
func (l *LockSet) WithWallet(userID uuid.UUID, currency string) *LockSet {
	l.walletKeys = append(l.walletKeys, walletKey{userID: userID, currency: currency})
	return l
}

// WithWalletOrCreate adds a wallet that Acquire creates empty when missing.
func (l *LockSet) WithWalletOrCreate(userID uuid.UUID, currency string) *LockSet {
	k := walletKey{userID: userID, currency: currency}
	l.walletKeys = append(l.walletKeys, k)
	l.createWallet[k] = true
	return l
}

// WithDiscount adds a discount row.
func (l *LockSet) WithDiscount(code string) *LockSet {
	l.discountKeys = append(l.discountKeys, code)
	return l
}

// WithTransaction adds a transaction row whose status will change.
func (l *LockSet) WithTransaction(id uuid.UUID) *LockSet {
	l.txKeys = append(l.txKeys, id)
	return l
}

// Acquire locks every declared entity through tx.
func (l *LockSet) Acquire(ctx context.Context, tx Tx) error {
	l.orders = make(map[string]*models.Order)
	l.users = make(map[uuid.UUID]*models.User)
	l.currencies = make(map[string]*models.Currency)
	l.wallets = make(map[walletKey]*models.Wallet)
	l.discounts = make(map[string]*models.Discount)
	l.transactions = make(map[uuid.UUID]*models.Transaction)
	l.snapshots = make(map[string]string)

	for _, num := range uniqueStrings(l.orderKeys) {
		o, err := tx.GetOrderForUpdate(ctx, num)
		if err != nil {
			return err
		}
		l.orders[num] = o
	}

	users := uniqueUUIDs(l.userKeys)
	for _, id := range users {
		u, err := tx.GetUserForUpdate(ctx, id)
		if err != nil {
			return err
		}
		l.users[id] = u
		l.snapshots["user:"+id.String()] = userFingerprint(u)
	}

	for _, sym := range uniqueStrings(l.currencyKeys) {
		c, err := tx.GetCurrencyForUpdate(ctx, sym)
		if err != nil {
			return err
		}
		l.currencies[sym] = c
		l.snapshots["currency:"+sym] = currencyFingerprint(c)
	}

	for _, k := range l.sortedWallets() {
		var (
			w   *models.Wallet
			err error
		)
		if l.createWallet[k] {
			w, err = tx.GetOrCreateWallet(ctx, k.userID, k.currency)
		} else {
			w, err = tx.GetWalletForUpdate(ctx, k.userID, k.currency)
		}
		if err != nil {
			return err
		}
		l.wallets[k] = w
		l.snapshots[walletSnapshotKey(k)] = walletFingerprint(w)
	}

	for _, code := range uniqueStrings(l.discountKeys) {
		d, err := tx.GetDiscountForUpdate(ctx, code)
		if err != nil {
			return err
		}
		l.discounts[code] = d
		l.snapshots["discount:"+code] = discountFingerprint(d)
	}

	for _, id := range uniqueUUIDs(l.txKeys) {
		t, err := tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		l.transactions[id] = t
	}
	return nil
}

// Order returns a locked order.
func (l *LockSet) Order(orderNumber string) *models.Order { return l.orders[orderNumber] }

// User returns a locked user.
func (l *LockSet) User(userID uuid.UUID) *models.User { return l.users[userID] }

// Currency returns a locked currency.
func (l *LockSet) Currency(symbol string) *models.Currency { return l.currencies[symbol] }

// Wallet returns a locked wallet.
func (l *LockSet) Wallet(userID uuid.UUID, currency string) *models.Wallet {
	return l.wallets[walletKey{userID: userID, currency: currency}]
}

// Discount returns a locked discount.
func (l *LockSet) Discount(code string) *models.Discount { return l.discounts[code] }

// Transaction returns a locked transaction.
func (l *LockSet) Transaction(id uuid.UUID) *models.Transaction { return l.transactions[id] }

// Save writes back every locked user, currency, wallet and discount whose
// balances changed since Acquire. Orders and transactions are written by the caller.
func (l *LockSet) Save(ctx context.Context, tx Tx, now time.Time) error {
	for _, id := range uniqueUUIDs(l.userKeys) {
		u := l.users[id]
		if l.snapshots["user:"+id.String()] == userFingerprint(u) {
			continue
		}
		u.UpdatedAt = now
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
	}
	for _, sym := range uniqueStrings(l.currencyKeys) {
		c := l.currencies[sym]
		if l.snapshots["currency:"+sym] == currencyFingerprint(c) {
			continue
		}
		c.UpdatedAt = now
		if err := tx.UpdateCurrency(ctx, c); err != nil {
			return err
		}
	}
	for _, k := range l.sortedWallets() {
		w := l.wallets[k]
		if l.snapshots[walletSnapshotKey(k)] == walletFingerprint(w) {
			continue
		}
		if w.Balance.IsNegative() || w.FrozenBalance.IsNegative() || w.Available().IsNegative() {
			return apperr.Newf(apperr.Underflow, "wallet %s would go negative", w.Currency)
		}
		w.UpdatedAt = now
		if err := tx.UpdateWallet(ctx, w); err != nil {
			return err
		}
	}
	for _, code := range uniqueStrings(l.discountKeys) {
		d := l.discounts[code]
		if l.snapshots["discount:"+code] == discountFingerprint(d) {
			continue
		}
		d.UpdatedAt = now
		if err := tx.UpdateDiscount(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (l *LockSet) sortedWallets() []walletKey {
	seen := make(map[walletKey]bool, len(l.walletKeys))
	out := make([]walletKey, 0, len(l.walletKeys))
	for _, k := range l.walletKeys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func uniqueUUIDs(in []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(in))
	out := make([]uuid.UUID, 0, len(in))
	for _, id := range in {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func walletSnapshotKey(k walletKey) string {
	return "wallet:" + k.userID.String() + ":" + k.currency
}

func userFingerprint(u *models.User) string {
	return fmt.Sprintf("%s|%t|%s", u.FiatBalance, u.IsActive, u.Role)
}

func currencyFingerprint(c *models.Currency) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%t|%t",
		c.TreasuryBalance, c.BuyPrice, c.SellPrice, c.BuyCommission, c.SellCommission, c.IsActive, c.IsTradeable)
}

func walletFingerprint(w *models.Wallet) string {
	return w.Balance.String() + "|" + w.FrozenBalance.String()
}

func discountFingerprint(d *models.Discount) string {
	return fmt.Sprintf("%d|%t", d.UsedCount, d.IsActive)
}
