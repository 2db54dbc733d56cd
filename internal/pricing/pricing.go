// Package pricing computes trade economics from a currency price snapshot.
// It never touches storage.
package pricing

import (
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

func checkCurrency(c *models.Currency, price money.Money, commission decimal.Decimal) error {
	if !c.Tradable() {
		return apperr.Newf(apperr.CurrencyUnavailable, "currency %s is not available for trading", c.Symbol)
	}
	if !price.IsPositive() {
		return apperr.Newf(apperr.CurrencyUnavailable, "currency %s has no price", c.Symbol)
	}
	if commission.IsNegative() || commission.GreaterThan(hundred) {
		return apperr.Newf(apperr.CurrencyUnavailable, "currency %s has an invalid commission", c.Symbol)
	}
	return nil
}

func checkAmount(amount money.Money) error {
	if !amount.IsPositive() {
		return apperr.New(apperr.InvalidRequest, "amount must be positive")
	}
	return nil
}

// Buy prices amount units of c bought with base fiat:
// gross = amount*buy_price, commission = gross*buy_commission/100 rounded to
// fiat precision, final = gross + commission.
func Buy(c *models.Currency, baseFiat string, amount money.Money) (models.Quote, error) {
	if err := checkAmount(amount); err != nil {
		return models.Quote{}, err
	}
	if err := checkCurrency(c, c.BuyPrice, c.BuyCommission); err != nil {
		return models.Quote{}, err
	}

	gross := amount.MulRate(c.BuyPrice.Decimal())
	commission := gross.PercentageOf(c.BuyCommission).Round(money.FiatScale)

	return models.Quote{
		Type:             models.OrderBuy,
		FromCurrency:     baseFiat,
		ToCurrency:       c.Symbol,
		Amount:           amount,
		UnitPrice:        c.BuyPrice,
		GrossAmount:      gross,
		CommissionRate:   c.BuyCommission,
		CommissionAmount: commission,
		ToAmount:         amount,
		FinalAmount:      gross.Add(commission),
	}, nil
}

// Sell prices amount units of c sold for base fiat:
// gross = amount*sell_price, final = gross - commission.
func Sell(c *models.Currency, baseFiat string, amount money.Money) (models.Quote, error) {
	if err := checkAmount(amount); err != nil {
		return models.Quote{}, err
	}
	if err := checkCurrency(c, c.SellPrice, c.SellCommission); err != nil {
		return models.Quote{}, err
	}

	gross := amount.MulRate(c.SellPrice.Decimal())
	commission := gross.PercentageOf(c.SellCommission).Round(money.FiatScale)
	final, err := gross.Sub(commission)
	if err != nil {
		return models.Quote{}, apperr.Wrap(apperr.Underflow, err, "sell proceeds")
	}

	return models.Quote{
		Type:             models.OrderSell,
		FromCurrency:     c.Symbol,
		ToCurrency:       baseFiat,
		Amount:           amount,
		UnitPrice:        c.SellPrice,
		GrossAmount:      gross,
		CommissionRate:   c.SellCommission,
		CommissionAmount: commission,
		ToAmount:         final,
		FinalAmount:      final,
	}, nil
}

// Exchange prices converting amount of from into to through base fiat:
// from_value = amount*from.sell_price, to_amount = from_value/to.buy_price,
// rate = mean of from.sell_commission and to.buy_commission,
// commission = from_value*rate/100 rounded to fiat precision,
// final_to_amount = to_amount - commission/to.buy_price.
func Exchange(from, to *models.Currency, amount money.Money) (models.Quote, error) {
	if err := checkAmount(amount); err != nil {
		return models.Quote{}, err
	}
	if from.Symbol == to.Symbol {
		return models.Quote{}, apperr.New(apperr.InvalidRequest, "cannot exchange a currency for itself")
	}
	if err := checkCurrency(from, from.SellPrice, from.SellCommission); err != nil {
		return models.Quote{}, err
	}
	if err := checkCurrency(to, to.BuyPrice, to.BuyCommission); err != nil {
		return models.Quote{}, err
	}

	fromValue := amount.MulRate(from.SellPrice.Decimal())
	toAmount, err := fromValue.DivRate(to.BuyPrice.Decimal())
	if err != nil {
		return models.Quote{}, apperr.Wrap(apperr.CurrencyUnavailable, err, "price target currency")
	}

	rate := from.SellCommission.Add(to.BuyCommission).Div(two)
	commission := fromValue.PercentageOf(rate).Round(money.FiatScale)
	commissionInTarget, err := commission.DivRate(to.BuyPrice.Decimal())
	if err != nil {
		return models.Quote{}, apperr.Wrap(apperr.CurrencyUnavailable, err, "price target currency")
	}
	final, err := toAmount.Sub(commissionInTarget)
	if err != nil || !final.IsPositive() {
		return models.Quote{}, apperr.New(apperr.InvalidRequest, "amount too small to cover commission")
	}

	unitPrice, err := fromValue.DivRate(amount.Decimal())
	if err != nil {
		return models.Quote{}, apperr.Wrap(apperr.InvalidRequest, err, "price exchange")
	}

	return models.Quote{
		Type:             models.OrderExchange,
		FromCurrency:     from.Symbol,
		ToCurrency:       to.Symbol,
		Amount:           amount,
		UnitPrice:        unitPrice,
		GrossAmount:      fromValue,
		CommissionRate:   rate,
		CommissionAmount: commission,
		ToAmount:         toAmount,
		FinalAmount:      final,
	}, nil
}

// CrossRate is the commission-free conversion used by wallet transfers:
// amount*from.sell_price/to.buy_price.
func CrossRate(from, to *models.Currency, amount money.Money) (toAmount, rate money.Money, err error) {
	if err := checkAmount(amount); err != nil {
		return money.Zero, money.Zero, err
	}
	if !from.SellPrice.IsPositive() || !to.BuyPrice.IsPositive() {
		return money.Zero, money.Zero, apperr.New(apperr.CurrencyUnavailable, "missing price for transfer")
	}
	r, err := from.SellPrice.DivRate(to.BuyPrice.Decimal())
	if err != nil {
		return money.Zero, money.Zero, apperr.Wrap(apperr.CurrencyUnavailable, err, "cross rate")
	}
	toAmount, err = amount.MulRate(from.SellPrice.Decimal()).DivRate(to.BuyPrice.Decimal())
	if err != nil {
		return money.Zero, money.Zero, apperr.Wrap(apperr.CurrencyUnavailable, err, "cross rate")
	}
	if !toAmount.IsPositive() {
		return money.Zero, money.Zero, apperr.New(apperr.InvalidRequest, "amount too small to transfer")
	}
	return toAmount, r, nil
}
