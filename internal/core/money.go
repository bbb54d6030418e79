// Package core holds the ledger domain: transactions, monthly summaries,
// and the money codec that converts user-facing decimal strings to and from
// exact integer cents.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a decimal amount string to integer cents.
//
// It strips a leading currency symbol ($) and digit-group commas, then
// applies a strict two-decimal policy: an amount without a decimal point is
// taken as whole currency units, an amount with one must carry exactly two
// fractional digits. Anything else fails with ErrInvalidAmount; the parser
// never rounds or truncates.
//
// Examples:
//
//	ParseAmount("12")        -> 1200, nil
//	ParseAmount("-12.34")    -> -1234, nil
//	ParseAmount("$1,234.56") -> 123456, nil
//	ParseAmount("12.5")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	if len(parts) == 2 && len(fracPart) != 2 {
		return 0, ErrInvalidAmount
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Guard the *100 below
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	cents := iv * 100
	if fracPart != "" {
		fv, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		cents += fv
	}
	if neg {
		cents = -cents
	}
	return cents, nil
}

// FormatAmount renders integer cents as a decimal string with exactly two
// fractional digits, e.g. FormatAmount(-5) == "-0.05". Pure integer math, so
// ParseAmount(FormatAmount(c)) == c for every c.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + twoDigits(cents%100)
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
