package util

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses an extracted amount string into an exact decimal.
// Thousands separators (commas, spaces, non-breaking spaces) are stripped;
// the dot is the decimal point.
func ParseAmount(input string) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	return decimal.NewFromString(s)
}

// SignedAmount resolves the ledger sign convention in one place: extracted
// magnitudes are outflows (negative) unless the description marks a deposit.
func SignedAmount(magnitude decimal.Decimal, isDeposit bool) decimal.Decimal {
	if isDeposit {
		return magnitude
	}
	return magnitude.Neg()
}
