// Package money converts between major-unit decimal amounts ("349.00") and
// the payment provider's integer minor-unit representation (34900 cents).
//
// Amounts travel as decimal strings everywhere else in the system; the only
// integer form is the one the provider requires on a payment intent.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAmount is returned for amounts that are not a plain non-negative
// decimal number.
var ErrInvalidAmount = errors.New("money: invalid amount")

// MinorPerMajor is the number of minor units in one major unit. All supported
// settlement currencies are 2-decimal.
const MinorPerMajor = 100

// ToMinorUnits converts a major-unit decimal string to integer minor units,
// rounding half-up to the nearest minor unit. "349.00" -> 34900,
// "0.005" -> 1.
func ToMinorUnits(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return 0, ErrInvalidAmount
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		if strings.IndexByte(frac, '.') >= 0 {
			return 0, ErrInvalidAmount
		}
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return 0, ErrInvalidAmount
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}

	// Pad the fraction to at least 2 digits; everything past the second
	// digit only matters for the half-up rounding decision.
	for len(frac) < 2 {
		frac += "0"
	}
	cents, err := strconv.ParseInt(frac[:2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}

	minor := w*MinorPerMajor + cents
	if len(frac) > 2 && frac[2] >= '5' {
		minor++
	}
	return minor, nil
}

// FromMinorUnits converts integer minor units back to a major-unit decimal
// string with two decimal places. 34900 -> "349.00".
func FromMinorUnits(minor int64) string {
	neg := minor < 0
	if neg {
		minor = -minor
	}
	s := fmt.Sprintf("%d.%02d", minor/MinorPerMajor, minor%MinorPerMajor)
	if neg {
		return "-" + s
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
