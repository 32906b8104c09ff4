// Package currency formats minor-unit amounts for display and logging.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Minor-unit exponents for the currencies the checkout API accepts.
var exponents = map[string]int32{
	"usd": 2,
	"eur": 2,
}

const defaultExponent = 2

// IsSupported reports whether the API accepts the given currency code.
func IsSupported(code string) bool {
	_, ok := exponents[strings.ToLower(code)]
	return ok
}

// FormatMinorUnits renders an amount in minor units as a decimal string,
// e.g. (500, "usd") -> "5.00".
func FormatMinorUnits(amount int64, code string) string {
	var exp int32 = defaultExponent
	if e, ok := exponents[strings.ToLower(code)]; ok {
		exp = e
	}
	return decimal.NewFromInt(amount).Shift(-exp).StringFixed(exp)
}
