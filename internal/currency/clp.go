// Package currency formats peso amounts the way Chilean retail displays
// them: rounded to whole pesos, thousands grouped with dots.
package currency

import (
	"math"
	"strconv"
	"strings"
)

// FormatCLP renders a peso amount with the currency symbol, e.g.
// FormatCLP(1234567) == "$1.234.567".
func FormatCLP(value float64) string {
	return "$" + group(value)
}

// FormatCLPPlain renders a peso amount without the currency symbol.
func FormatCLPPlain(value float64) string {
	return group(value)
}

// FormatCLPString parses a textual amount and formats it. Unparseable
// input renders as zero rather than failing the display.
func FormatCLPString(value string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return "$0"
	}
	return FormatCLP(f)
}

func group(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0"
	}

	n := int64(math.Round(value))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
