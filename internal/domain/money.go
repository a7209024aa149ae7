package domain

import "github.com/shopspring/decimal"

// Money is an amount in minor currency units (cents).
type Money int64

const minorUnitExp = -2

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), minorUnitExp)
}

// String renders the amount in major units with two decimals, e.g. 1250 -> "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) IsPositive() bool {
	return m > 0
}
