package models

import "github.com/shopspring/decimal"

// Money is a decimal amount that always serializes as a plain JSON number
// with two decimal places, e.g. 119999.00.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Decimal: d}, nil
}

func MoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f)}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.StringFixed(2)), nil
}

func (m Money) Mul(qty int64) Money {
	return Money{Decimal: m.Decimal.Mul(decimal.NewFromInt(qty))}
}

func (m Money) Add(other Money) Money {
	return Money{Decimal: m.Decimal.Add(other.Decimal)}
}

func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}
