// AngelaMos | 2026
// money.go

package core

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places every stored amount carries.
const MoneyScale = 2

// RoundMoney snaps an amount read back from the database to MoneyScale.
// SQLite holds NUMERIC columns as REAL, so sums arrive with binary float
// error; every scanned amount or total must pass through here before it is
// compared or returned.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
