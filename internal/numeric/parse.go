// Package numeric converts heterogeneous locale-formatted inputs into
// canonical float64 values. Upstream payloads mix German ("1.234,56") and
// English ("1,234.56") separator conventions, currency symbols, percent
// signs, and plain numbers; everything funnels through ParseNumber so the
// rest of the pipeline only ever sees finite floats or an explicit
// "no value" result.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber converts a raw payload value into a finite float64.
// The second return value is false when the input carries no usable value:
// nil, booleans, objects, empty or unparseable strings, lone signs, NaN
// and infinities all report false.
func ParseNumber(input any) (float64, bool) {
	switch v := input.(type) {
	case float64:
		if !isFinite(v) {
			return 0, false
		}
		return v, true
	case float32:
		return ParseNumber(float64(v))
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		return parseString(v.String())
	case string:
		return parseString(v)
	default:
		return 0, false
	}
}

// parseString implements the separator disambiguation contract. The input is
// trimmed and stripped of non-breaking spaces, tried as a plain float, and
// only then run through the permissive locale-aware path.
func parseString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("\u00a0", "", "\u202f", "").Replace(s)
	if s == "" {
		return 0, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil && isFinite(f) {
		return f, true
	}

	stripped := keepNumericRunes(s)
	if stripped == "" || stripped == "+" || stripped == "-" {
		return 0, false
	}

	if f, err := strconv.ParseFloat(disambiguate(stripped), 64); err == nil && isFinite(f) {
		return f, true
	}

	// Last resort: naive comma-to-period substitution.
	if f, err := strconv.ParseFloat(strings.ReplaceAll(stripped, ",", "."), 64); err == nil && isFinite(f) {
		return f, true
	}

	return 0, false
}

// disambiguate decides whether commas and periods act as decimal or thousands
// separators, using the relative position of the last comma and last period.
func disambiguate(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastComma > lastDot:
		if lastDot >= 0 {
			// Comma after the last period: periods are thousands separators.
			s = strings.ReplaceAll(s, ".", "")
			return replaceDecimalComma(s, strings.LastIndex(s, ","))
		}
		// Comma-only string: inspect the trailing comma-separated group.
		groups := strings.Split(s, ",")
		trailing := groups[len(groups)-1]
		lead := strings.TrimLeft(groups[0], "+-")
		significant := strings.TrimLeft(lead, "0")
		if len(groups) > 2 || trailing == "" ||
			(len(trailing) == 3 && len(significant) > 1 && lead != "0") {
			return strings.ReplaceAll(s, ",", "")
		}
		return replaceDecimalComma(s, lastComma)

	case lastDot >= 0:
		if lastComma >= 0 {
			// Period after the last comma: commas are thousands separators.
			return strings.ReplaceAll(s, ",", "")
		}
		// Period-only string: a 3-digit trailing group on a number with at
		// least 4 consecutive digits is a thousands separator ("1.234").
		frac := s[lastDot+1:]
		if len(frac) == 3 && allDigits(frac) &&
			longestDigitRun(strings.ReplaceAll(s, ".", "")) >= 4 {
			return strings.ReplaceAll(s, ".", "")
		}
		return s

	default:
		return s
	}
}

// replaceDecimalComma turns the comma at idx into the decimal point and
// strips any earlier commas, which can only be thousands separators.
func replaceDecimalComma(s string, idx int) string {
	return strings.ReplaceAll(s[:idx], ",", "") + "." + s[idx+1:]
}

// keepNumericRunes drops every character except digits, comma, period and
// the sign characters. This removes currency symbols, percent signs and
// letters before separator disambiguation.
func keepNumericRunes(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '+' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// longestDigitRun returns the length of the longest run of consecutive
// digit characters in s.
func longestDigitRun(s string) int {
	longest, run := 0, 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

// Round rounds v to the given number of decimal places, rounding half away
// from zero. A negative zero result is normalized to 0. Non-finite input is
// returned unchanged; use RoundValue when the input still needs parsing.
func Round(v float64, decimals int) float64 {
	if !isFinite(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(int32(decimals)).Float64()
	if f == 0 {
		return 0
	}
	return f
}

// RoundValue parses input via ParseNumber and rounds the result to the given
// number of decimal places. Reports false for unparseable input.
func RoundValue(input any, decimals int) (float64, bool) {
	v, ok := ParseNumber(input)
	if !ok {
		return 0, false
	}
	return Round(v, decimals), true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
