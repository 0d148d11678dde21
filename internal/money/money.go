// Package money converts between the integer minor-unit amounts the engine
// stores and the decimal major-unit amounts the API exchanges with clients.
// All ledger arithmetic happens in cents; decimals exist only at this boundary.
package money

import (
	"github.com/shopspring/decimal"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/apperrors"
)

// ToCents converts a major-unit decimal amount into cents. Amounts with more
// than two fractional digits are rejected rather than silently rounded.
func ToCents(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, apperrors.Validationf("amount %s has sub-cent precision", d.String())
	}
	return shifted.IntPart(), nil
}

// FromCents converts cents back into a major-unit decimal for responses.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
