package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
)

// memTx stages writes until commit. Reads inside the scope see staged writes first.
type memTx struct {
	s    *Store
	held []string
	has  map[string]bool

	users        map[uuid.UUID]models.User
	currencies   map[string]models.Currency
	wallets      map[walletKey]models.Wallet
	orders       map[string]models.Order
	discounts    map[string]models.Discount
	deleted      map[string]bool
	transactions map[uuid.UUID]models.Transaction
	appended     []uuid.UUID
	idempotency  map[string]uuid.UUID
	redemptions  []models.DiscountRedemption
}

var _ ledger.Tx = (*memTx)(nil)

func newTx(s *Store) *memTx {
	return &memTx{
		s:            s,
		has:          make(map[string]bool),
		users:        make(map[uuid.UUID]models.User),
		currencies:   make(map[string]models.Currency),
		wallets:      make(map[walletKey]models.Wallet),
		orders:       make(map[string]models.Order),
		discounts:    make(map[string]models.Discount),
		deleted:      make(map[string]bool),
		transactions: make(map[uuid.UUID]models.Transaction),
		idempotency:  make(map[string]uuid.UUID),
	}
}

func userKey(id uuid.UUID) string      { return "user:" + id.String() }
func currencyKey(symbol string) string { return "currency:" + symbol }
func orderKey(number string) string    { return "order:" + number }
func discountKey(code string) string   { return "discount:" + code }
func txKey(id uuid.UUID) string        { return "tx:" + id.String() }
func idemKey(key string) string        { return "idem:" + key }
func (k walletKey) String() string     { return "wallet:" + k.userID.String() + ":" + k.currency }

func (t *memTx) lock(ctx context.Context, key string) error {
	if t.has[key] {
		return nil
	}
	if err := t.s.locks.acquire(ctx, key, t.s.lockTimeout); err != nil {
		return err
	}
	t.has[key] = true
	t.held = append(t.held, key)
	return nil
}

func (t *memTx) requireLock(key string) error {
	if !t.has[key] {
		return apperr.Newf(apperr.InvalidState, "%s is not locked by this scope", key)
	}
	return nil
}

func (t *memTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.release(t.held[i])
	}
	t.held = nil
	t.has = make(map[string]bool)
}

func (t *memTx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range t.users {
		s.users[id] = u
	}
	for sym, c := range t.currencies {
		s.currencies[sym] = c
	}
	for k, w := range t.wallets {
		s.wallets[k] = w
	}
	for num, o := range t.orders {
		s.orders[num] = o
	}
	for code, d := range t.discounts {
		s.discounts[code] = d
	}
	for code := range t.deleted {
		delete(s.discounts, code)
	}
	for id, tr := range t.transactions {
		s.transactions[id] = tr
	}
	s.txLog = append(s.txLog, t.appended...)
	for key, id := range t.idempotency {
		s.idempotency[key] = id
	}
	s.redemptions = append(s.redemptions, t.redemptions...)
}

func (t *memTx) GetUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if err := t.s.fault("GetUserForUpdate"); err != nil {
		return nil, err
	}
	if err := t.lock(ctx, userKey(userID)); err != nil {
		return nil, err
	}
	if u, ok := t.users[userID]; ok {
		return &u, nil
	}
	return t.s.GetUser(ctx, userID)
}

func (t *memTx) GetCurrencyForUpdate(ctx context.Context, symbol string) (*models.Currency, error) {
	if err := t.s.fault("GetCurrencyForUpdate"); err != nil {
		return nil, err
	}
	if err := t.lock(ctx, currencyKey(symbol)); err != nil {
		return nil, err
	}
	if c, ok := t.currencies[symbol]; ok {
		return &c, nil
	}
	return t.s.GetCurrency(ctx, symbol)
}

func (t *memTx) GetWalletForUpdate(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	if err := t.s.fault("GetWalletForUpdate"); err != nil {
		return nil, err
	}
	k := walletKey{userID: userID, currency: currency}
	if err := t.lock(ctx, k.String()); err != nil {
		return nil, err
	}
	if w, ok := t.wallets[k]; ok {
		return &w, nil
	}
	return t.s.GetWallet(ctx, userID, currency)
}

func (t *memTx) GetOrCreateWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	w, err := t.GetWalletForUpdate(ctx, userID, currency)
	if err == nil {
		return w, nil
	}
	if !apperr.IsKind(err, apperr.NotFound) {
		return nil, err
	}

	if _, ok := t.users[userID]; !ok {
		if _, err := t.s.GetUser(ctx, userID); err != nil {
			return nil, err
		}
	}
	if _, ok := t.currencies[currency]; !ok {
		if _, err := t.s.GetCurrency(ctx, currency); err != nil {
			return nil, err
		}
	}

	now := t.s.clock()
	created := models.Wallet{
		WalletID:      uuid.New(),
		UserID:        userID,
		Currency:      currency,
		Balance:       money.Zero,
		FrozenBalance: money.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	t.wallets[walletKey{userID: userID, currency: currency}] = created
	return &created, nil
}

func (t *memTx) GetOrderForUpdate(ctx context.Context, orderNumber string) (*models.Order, error) {
	if err := t.s.fault("GetOrderForUpdate"); err != nil {
		return nil, err
	}
	if err := t.lock(ctx, orderKey(orderNumber)); err != nil {
		return nil, err
	}
	if o, ok := t.orders[orderNumber]; ok {
		return &o, nil
	}
	return t.s.GetOrder(ctx, orderNumber)
}

func (t *memTx) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if err := t.s.fault("GetTransactionForUpdate"); err != nil {
		return nil, err
	}
	if err := t.lock(ctx, txKey(id)); err != nil {
		return nil, err
	}
	if tr, ok := t.transactions[id]; ok {
		return &tr, nil
	}
	return t.s.GetTransaction(ctx, id)
}

func (t *memTx) GetDiscountForUpdate(ctx context.Context, code string) (*models.Discount, error) {
	if err := t.s.fault("GetDiscountForUpdate"); err != nil {
		return nil, err
	}
	if err := t.lock(ctx, discountKey(code)); err != nil {
		return nil, err
	}
	if t.deleted[code] {
		return nil, apperr.Discount(apperr.ReasonNotFound, "discount code not found")
	}
	if d, ok := t.discounts[code]; ok {
		return &d, nil
	}
	return t.s.GetDiscount(ctx, code)
}

func (t *memTx) CountDiscountRedemptions(_ context.Context, code string, userID uuid.UUID) (int, error) {
	t.s.mu.RLock()
	n := t.s.countRedemptions(code, userID)
	t.s.mu.RUnlock()
	for _, r := range t.redemptions {
		if r.Code == code && r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) CreateUser(ctx context.Context, user *models.User) error {
	if err := t.s.fault("CreateUser"); err != nil {
		return err
	}
	for _, key := range []string{userKey(user.UserID), "username:" + user.Username, "email:" + user.Email} {
		if err := t.lock(ctx, key); err != nil {
			return err
		}
	}
	t.s.mu.RLock()
	_, exists := t.s.users[user.UserID]
	for _, u := range t.s.users {
		if u.Username == user.Username || u.Email == user.Email {
			exists = true
		}
	}
	t.s.mu.RUnlock()
	if _, staged := t.users[user.UserID]; exists || staged {
		return apperr.New(apperr.DuplicateReference, "user already exists")
	}
	t.users[user.UserID] = *user
	return nil
}

func (t *memTx) UpdateUser(_ context.Context, user *models.User) error {
	if err := t.s.fault("UpdateUser"); err != nil {
		return err
	}
	if err := t.requireLock(userKey(user.UserID)); err != nil {
		return err
	}
	t.users[user.UserID] = *user
	return nil
}

func (t *memTx) CreateCurrency(ctx context.Context, currency *models.Currency) error {
	if err := t.s.fault("CreateCurrency"); err != nil {
		return err
	}
	if err := t.lock(ctx, currencyKey(currency.Symbol)); err != nil {
		return err
	}
	t.s.mu.RLock()
	_, exists := t.s.currencies[currency.Symbol]
	t.s.mu.RUnlock()
	if _, staged := t.currencies[currency.Symbol]; exists || staged {
		return apperr.Newf(apperr.DuplicateReference, "currency %s already exists", currency.Symbol)
	}
	t.currencies[currency.Symbol] = *currency
	return nil
}

func (t *memTx) UpdateCurrency(_ context.Context, currency *models.Currency) error {
	if err := t.s.fault("UpdateCurrency"); err != nil {
		return err
	}
	if err := t.requireLock(currencyKey(currency.Symbol)); err != nil {
		return err
	}
	t.currencies[currency.Symbol] = *currency
	return nil
}

func (t *memTx) UpdateWallet(_ context.Context, wallet *models.Wallet) error {
	if err := t.s.fault("UpdateWallet"); err != nil {
		return err
	}
	k := walletKey{userID: wallet.UserID, currency: wallet.Currency}
	if err := t.requireLock(k.String()); err != nil {
		return err
	}
	if wallet.Balance.IsNegative() || wallet.FrozenBalance.IsNegative() || wallet.Available().IsNegative() {
		return apperr.New(apperr.Underflow, "wallet balance would go negative")
	}
	t.wallets[k] = *wallet
	return nil
}

func (t *memTx) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := t.s.fault("CreateOrder"); err != nil {
		return err
	}
	if err := t.lock(ctx, orderKey(order.OrderNumber)); err != nil {
		return err
	}
	t.s.mu.RLock()
	_, exists := t.s.orders[order.OrderNumber]
	t.s.mu.RUnlock()
	if _, staged := t.orders[order.OrderNumber]; exists || staged {
		return apperr.Newf(apperr.DuplicateReference, "order %s already exists", order.OrderNumber)
	}
	t.orders[order.OrderNumber] = *order
	return nil
}

func (t *memTx) UpdateOrder(_ context.Context, order *models.Order) error {
	if err := t.s.fault("UpdateOrder"); err != nil {
		return err
	}
	if err := t.requireLock(orderKey(order.OrderNumber)); err != nil {
		return err
	}
	t.orders[order.OrderNumber] = *order
	return nil
}

func (t *memTx) AppendTransaction(ctx context.Context, tr *models.Transaction) error {
	if err := t.s.fault("AppendTransaction"); err != nil {
		return err
	}
	// Held until the scope ends so a concurrent scope cannot stage the same key.
	if err := t.lock(ctx, idemKey(tr.IdempotencyKey)); err != nil {
		return err
	}
	t.s.mu.RLock()
	_, exists := t.s.idempotency[tr.IdempotencyKey]
	t.s.mu.RUnlock()
	if _, staged := t.idempotency[tr.IdempotencyKey]; exists || staged {
		return apperr.Newf(apperr.DuplicateReference, "transaction %s already recorded", tr.IdempotencyKey)
	}
	if tr.TransactionID == uuid.Nil {
		tr.TransactionID = uuid.New()
	}
	t.transactions[tr.TransactionID] = *tr
	t.appended = append(t.appended, tr.TransactionID)
	t.idempotency[tr.IdempotencyKey] = tr.TransactionID
	return nil
}

func (t *memTx) UpdateTransactionStatus(_ context.Context, tr *models.Transaction) error {
	if err := t.s.fault("UpdateTransactionStatus"); err != nil {
		return err
	}
	if err := t.requireLock(txKey(tr.TransactionID)); err != nil {
		return err
	}
	current, ok := t.transactions[tr.TransactionID]
	if !ok {
		t.s.mu.RLock()
		current, ok = t.s.transactions[tr.TransactionID]
		t.s.mu.RUnlock()
	}
	if !ok {
		return notFound("transaction")
	}
	current.Status = tr.Status
	current.ProcessedAt = tr.ProcessedAt
	current.Metadata = tr.Metadata
	t.transactions[tr.TransactionID] = current
	return nil
}

func (t *memTx) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	if err := t.s.fault("CreateDiscount"); err != nil {
		return err
	}
	if err := t.lock(ctx, discountKey(discount.Code)); err != nil {
		return err
	}
	t.s.mu.RLock()
	_, exists := t.s.discounts[discount.Code]
	t.s.mu.RUnlock()
	if _, staged := t.discounts[discount.Code]; exists || staged {
		return apperr.Newf(apperr.DuplicateReference, "discount %s already exists", discount.Code)
	}
	t.discounts[discount.Code] = *discount
	return nil
}

func (t *memTx) UpdateDiscount(_ context.Context, discount *models.Discount) error {
	if err := t.s.fault("UpdateDiscount"); err != nil {
		return err
	}
	if err := t.requireLock(discountKey(discount.Code)); err != nil {
		return err
	}
	t.discounts[discount.Code] = *discount
	return nil
}

func (t *memTx) DeleteDiscount(_ context.Context, code string) error {
	if err := t.s.fault("DeleteDiscount"); err != nil {
		return err
	}
	if err := t.requireLock(discountKey(code)); err != nil {
		return err
	}
	t.s.mu.RLock()
	_, exists := t.s.discounts[code]
	redeemed := false
	for _, r := range t.s.redemptions {
		if r.Code == code {
			redeemed = true
			break
		}
	}
	t.s.mu.RUnlock()
	if _, staged := t.discounts[code]; (!exists && !staged) || t.deleted[code] {
		return apperr.New(apperr.NotFound, "discount not found")
	}
	for _, r := range t.redemptions {
		if r.Code == code {
			redeemed = true
		}
	}
	if redeemed {
		return apperr.Newf(apperr.InvalidState, "discount %s has been redeemed; deactivate it instead", code)
	}
	delete(t.discounts, code)
	t.deleted[code] = true
	return nil
}

func (t *memTx) InsertDiscountRedemption(_ context.Context, r models.DiscountRedemption) error {
	if err := t.s.fault("InsertDiscountRedemption"); err != nil {
		return err
	}
	if err := t.requireLock(discountKey(r.Code)); err != nil {
		return err
	}
	t.redemptions = append(t.redemptions, r)
	return nil
}
