// README: Money helpers; all amounts are exact decimals with two fraction digits.
package types

import "github.com/shopspring/decimal"

const MoneyScale = 2

// RoundMoney rounds half away from zero to cents (half-up for non-negative amounts).
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
