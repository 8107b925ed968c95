// Package core holds the domain model shared by the payroll allocator,
// the budget ledger and the storage layer.
//
// Monetary amounts are float64 euros with two-fraction-digit semantics.
// Round2 is applied only at the points the payroll algorithm mandates,
// never on intermediate aggregates.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Round2 rounds a monetary value to two decimal places (half away from zero).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseAmount converts a decimal string to a non-negative euro amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// performs half-up rounding on the third decimal place. Negative values
// are rejected; zero is allowed because fee fields default to zero.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("12.346") -> 12.35, nil (rounds up)
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
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
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// First two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return float64(iv) + float64(fracCents)/100, nil
}

// FormatEuros formats an amount as a Euro currency string (e.g. "€12,34").
func FormatEuros(amount float64) string {
	cents := int64(math.Round(amount * 100))
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "," + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-€" + s
	}
	return "€" + s
}
