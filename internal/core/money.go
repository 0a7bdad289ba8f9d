// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing stored amounts and formatting
// amounts and shares for display.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount limits. Amounts are whole cents below MaxAmount, the range of a
// NUMERIC(14,2) column.
const (
	AmountPlaces = 2
	maxExponent  = 64
)

var MaxAmount = decimal.New(1, 12)

// ParseAmount converts a stored or user supplied amount to a decimal.
//
// It accepts plain decimal notation ("12.5", "12.50", "1e3" as written by
// numeric columns) and rejects empty input, non-numeric text, negative
// values, amounts of MaxAmount or more and fractions of a cent. Zero is
// accepted since stored records may legitimately be zero.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount(" 7 ")   -> 7, nil
//	ParseAmount("abc")   -> error
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative %q", ErrInvalidAmount, s)
	}
	// Checked before any arithmetic: rounding or printing 1e900000000 does
	// not finish.
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, fmt.Errorf("%w: out of range %q", ErrInvalidAmount, s)
	}
	if d.GreaterThanOrEqual(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: out of range %q", ErrInvalidAmount, s)
	}
	if !d.Equal(d.Truncate(AmountPlaces)) {
		return decimal.Zero, fmt.Errorf("%w: fraction of a cent %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// FormatUSD formats an amount as "$1,234.56" (or "-$1,234.56").
func FormatUSD(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + frac
	if neg {
		return "-" + out
	}
	return out
}

// FormatPercent formats a share in [0,1] as "40.0%".
func FormatPercent(share float64) string {
	return fmt.Sprintf("%.1f%%", share*100)
}
