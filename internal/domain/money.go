package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func (m Money) Mul(quantity int) Money {
	return Money{
		Amount:   m.Amount.Mul(decimal.NewFromInt(int64(quantity))),
		Currency: m.Currency,
	}
}

func (m Money) SameCurrency(unit currency.Unit) bool {
	return m.Currency.String() == unit.String()
}
