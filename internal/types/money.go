// README: Common money value object used across modules.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money holds an amount in minor units (paise) to keep stored values exact.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// MoneyFromDecimal converts a rupee-denominated decimal into Money,
// rounding half-up to the nearest paisa. This is the single place where
// monetary rounding happens; intermediate tariff math stays unrounded.
func MoneyFromDecimal(d decimal.Decimal, currency string) Money {
	paise := d.Mul(decimal.NewFromInt(100)).Round(0)
	return Money{Amount: paise.IntPart(), Currency: currency}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(100))
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(2), m.Currency)
}
