// Package render builds the cells and tables the dashboard displays.
// Values are formatted in the German locale (dot-grouped thousands, comma
// decimal) and every formatted cell mirrors its raw value in data
// attributes so footers can be recomputed from rendered state alone.
package render

import (
	"strconv"
	"strings"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/numeric"
)

// NoValue is the placeholder rendered for cells without a value.
const NoValue = "—"

// NoValueLabel is the accessible label attached to placeholder cells.
const NoValueLabel = "keine Daten"

// Number formats a value in the German locale with the given number of
// decimal places: 1234.5 with two decimals renders as "1.234,50".
func Number(v float64, decimals int) string {
	rounded := numeric.Round(v, decimals)
	raw := strconv.FormatFloat(rounded, 'f', decimals, 64)

	sign := ""
	if strings.HasPrefix(raw, "-") {
		sign = "-"
		raw = raw[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(raw, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}
	if hasFrac {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}

// Currency formats a EUR amount: "1.234,56 €".
func Currency(v float64) string {
	return Number(v, 2) + " €"
}

// SignedCurrency formats a EUR delta with an explicit leading sign on
// positive values, the way gain columns display.
func SignedCurrency(v float64) string {
	if v > 0 {
		return "+" + Currency(v)
	}
	return Currency(v)
}

// Percent formats a percentage: "9,38 %".
func Percent(v float64) string {
	return Number(v, 2) + " %"
}

// SignedPercent formats a percentage delta with an explicit leading sign
// on positive values.
func SignedPercent(v float64) string {
	if v > 0 {
		return "+" + Percent(v)
	}
	return Percent(v)
}
