package balance

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a human-readable token amount leniently.
//
// Leading whitespace is skipped, then the longest prefix of the form
// [+-]?(digits[.digits] | .digits)([eE][+-]?digits)? is parsed. Input with no
// such prefix yields zero. Magnitudes follow float64 range: at or above
// 1e309 the value would be infinite and below 1e-324 it underflows, and both
// yield zero. "Infinity" and "NaN" therefore parse to zero too.
// ParseAmount never fails.
func ParseAmount(s string) decimal.Decimal {
	prefix := numericPrefix(s)
	if prefix == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil || d.IsZero() {
		return decimal.Zero
	}
	// Arithmetic rescales to a common exponent, so an unbounded one would
	// build a coefficient with billions of digits.
	if mag := magnitude(d); mag > maxMagnitude || mag < minMagnitude {
		return decimal.Zero
	}
	return d
}

// Decimal orders of magnitude representable as a finite, non-zero float64.
const (
	maxMagnitude = 308
	minMagnitude = -324
)

// magnitude returns the power of ten of d's most significant digit.
func magnitude(d decimal.Decimal) int64 {
	c := d.Coefficient()
	digits := len(c.Abs(c).String())
	return int64(d.Exponent()) + int64(digits) - 1
}

// numericPrefix returns the leading decimal literal of s in a form
// decimal.NewFromString accepts: no '+' sign, a digit before any '.', and no
// trailing '.'.
func numericPrefix(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intPart := s[intStart:i]

	var fracPart string
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracPart = s[i+1 : j]
		if intPart != "" || fracPart != "" {
			i = j
		}
	}

	if intPart == "" && fracPart == "" {
		return ""
	}

	var expPart string
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		digits := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > digits {
			expPart = "e" + strings.TrimPrefix(s[i+1:j], "+")
		}
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if intPart == "" {
		b.WriteByte('0')
	} else {
		b.WriteString(intPart)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	b.WriteString(expPart)
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
