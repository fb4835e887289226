package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits stored for balances and amounts.
const MoneyScale = 2

// CheckMoneyScale rejects amounts the NUMERIC(19,2) columns would round.
func CheckMoneyScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return fmt.Errorf("%w: amount %s has more than %d decimal places", ErrInvalidInput, amount, MoneyScale)
	}
	return nil
}
