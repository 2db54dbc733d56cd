package ledger

import (
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
)

// The balance operations below mutate locked entities in place and never leave
// a balance, frozen balance or treasury negative. Callers persist the result
// through LockSet.Save.

func requireNonNegative(amount money.Money) error {
	if amount.IsNegative() {
		return apperr.Newf(apperr.InvalidRequest, "amount %s must not be negative", amount)
	}
	return nil
}

// CreditWallet adds amount to the wallet balance.
func CreditWallet(w *models.Wallet, amount money.Money) error {
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	w.Balance = w.Balance.Add(amount)
	return nil
}

// DebitWallet removes amount from the available part of the wallet.
func DebitWallet(w *models.Wallet, amount money.Money) error {
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	if w.Available().LessThan(amount) {
		return apperr.Newf(apperr.InsufficientFunds, "insufficient %s balance", w.Currency)
	}
	w.Balance = w.Balance.SubSigned(amount)
	return nil
}

// Freeze reserves amount of the available balance. The balance itself is unchanged.
func Freeze(w *models.Wallet, amount money.Money) error {
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	if w.Available().LessThan(amount) {
		return apperr.Newf(apperr.InsufficientFunds, "insufficient %s balance", w.Currency)
	}
	w.FrozenBalance = w.FrozenBalance.Add(amount)
	return nil
}

// Unfreeze releases a reservation back to the available balance.
func Unfreeze(w *models.Wallet, amount money.Money) error {
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	frozen, err := w.FrozenBalance.Sub(amount)
	if err != nil {
		return apperr.Newf(apperr.InvalidState, "cannot unfreeze %s %s: only %s frozen", amount, w.Currency, w.FrozenBalance)
	}
	w.FrozenBalance = frozen
	return nil
}

// SettleFrozen consumes a reservation: the amount leaves both the frozen and the total balance.
func SettleFrozen(w *models.Wallet, amount money.Money) error {
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	frozen, err := w.FrozenBalance.Sub(amount)
	if err != nil {
		return apperr.Newf(apperr.InvalidState, "cannot settle %s %s: only %s frozen", amount, w.Currency, w.FrozenBalance)
	}
	balance, err := w.Balance.Sub(amount)
	if err != nil {
		return apperr.Wrap(apperr.Underflow, err, "settle frozen balance")
	}
	w.FrozenBalance, w.Balance = frozen, balance
	return nil
}

// CreditFiat adds amount to the user's fiat balance.
func CreditFiat(u *models.User, amount money.Money) error {
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	u.FiatBalance = u.FiatBalance.Add(amount)
	return nil
}

// DebitFiat removes amount from the user's fiat balance.
func DebitFiat(u *models.User, amount money.Money) error {
	if err := requireNonNegative(amount); err != nil {
		return err
	}
	balance, err := u.FiatBalance.Sub(amount)
	if err != nil {
		return apperr.New(apperr.InsufficientFunds, "insufficient fiat balance")
	}
	u.FiatBalance = balance
	return nil
}

// AdjustTreasury applies a signed delta to the currency's house inventory.
func AdjustTreasury(c *models.Currency, delta money.Money) error {
	next := c.TreasuryBalance.Add(delta)
	if next.IsNegative() {
		return apperr.Newf(apperr.InsufficientTreasury, "insufficient %s treasury", c.Symbol)
	}
	c.TreasuryBalance = next
	return nil
}
