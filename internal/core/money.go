// Package core holds the domain types shared by the analytics and
// data-mining sessions.
//
// This file formats monetary amounts for display. Amounts arrive from the
// server as already-converted numbers; no rounding or precision logic lives
// here, only thousands grouping and the currency glyph applied at the
// presentation boundary.
package core

import (
	"math"
	"strconv"
	"strings"
)

// FormatAmount renders a number with thousands separators. Whole amounts drop
// the fraction entirely; fractional amounts keep two digits.
//
// Examples:
//
//	FormatAmount(1234567) -> "1,234,567"
//	FormatAmount(1234.5)  -> "1,234.50"
func FormatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	whole := math.Trunc(v)
	frac := v - whole

	intPart := groupThousands(strconv.FormatFloat(whole, 'f', 0, 64))

	var out string
	if frac >= 0.005 {
		cents := int(math.Round(frac * 100))
		if cents >= 100 {
			// Rounding carried into the integer part; amount is whole again.
			out = groupThousands(strconv.FormatFloat(whole+1, 'f', 0, 64))
		} else {
			out = intPart + "." + pad2(cents)
		}
	} else {
		out = intPart
	}

	if neg {
		return "-" + out
	}
	return out
}

// FormatCNY renders a yuan amount, e.g. "￥1,234.50".
func FormatCNY(v float64) string {
	return "￥" + FormatAmount(v)
}

// FormatJPY renders a yen amount, e.g. "¥1,234".
func FormatJPY(v float64) string {
	return "¥" + FormatAmount(v)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
