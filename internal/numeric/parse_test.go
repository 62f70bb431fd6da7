package numeric_test

import (
	"math"
	"testing"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/numeric"
)

// TestParseNumber_LocaleFormats tests separator disambiguation.
//
// WHY: Upstream payloads mix German and English number formatting, often
// decorated with currency symbols. Every downstream aggregate depends on
// these strings parsing to the same canonical value.
func TestParseNumber_LocaleFormats(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  float64
	}{
		{"german thousands and decimal", "1.234,56", 1234.56},
		{"english thousands and decimal", "1,234.56", 1234.56},
		{"german with euro sign", "1.234,56 €", 1234.56},
		{"german with nbsp", "1.234,56\u00a0€", 1234.56},
		{"german thousands only", "1.234", 1234},
		{"german millions", "1.234.567,89", 1234567.89},
		{"english millions", "1,234,567.89", 1234567.89},
		{"plain float string", "1234.56", 1234.56},
		{"plain integer string", "42", 42},
		{"comma decimal", "12,34", 12.34},
		{"comma decimal three digits single lead", "1,234", 1.234},
		{"comma thousands two lead digits", "12,345", 12345},
		{"zero lead comma decimal", "0,123", 0.123},
		{"percent suffix", "5,4 %", 5.4},
		{"negative german", "-1.234,56", -1234.56},
		{"positive sign", "+12,5", 12.5},
		{"two decimal places after period", "12.34", 12.34},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := numeric.ParseNumber(tc.input)
			if !ok {
				t.Fatalf("ParseNumber(%q) reported no value, want %v", tc.input, tc.want)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("ParseNumber(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

// TestParseNumber_NoValue tests inputs that must report no value.
//
// WHY: The pipeline renders "no value" as a dash; a zero leaking out of the
// parser would silently turn missing data into a misleading 0.00.
func TestParseNumber_NoValue(t *testing.T) {
	inputs := []any{
		nil,
		"",
		"   ",
		"+",
		"-",
		"abc",
		"€",
		true,
		false,
		map[string]any{"value": 1},
		[]any{1.0},
		math.NaN(),
		math.Inf(1),
	}

	for _, input := range inputs {
		if got, ok := numeric.ParseNumber(input); ok {
			t.Errorf("ParseNumber(%v) = %v, want no value", input, got)
		}
	}
}

// TestParseNumber_NumericInput tests pass-through of native numbers.
func TestParseNumber_NumericInput(t *testing.T) {
	if got, ok := numeric.ParseNumber(1234.56); !ok || got != 1234.56 {
		t.Errorf("ParseNumber(1234.56) = %v, %v; want 1234.56, true", got, ok)
	}
	if got, ok := numeric.ParseNumber(42); !ok || got != 42 {
		t.Errorf("ParseNumber(42) = %v, %v; want 42, true", got, ok)
	}
}

// TestRound tests half-away-from-zero rounding.
//
// WHY: math.Round alone mishandles common float artifacts like 1234.565
// represented as 1234.564999...; the display layer depends on stable
// two-decimal rounding.
func TestRound(t *testing.T) {
	cases := []struct {
		v        float64
		decimals int
		want     float64
	}{
		{1234.5678, 2, 1234.57},
		{1234.5, 0, 1235},
		{-1234.5, 0, -1235},
		{2.675, 2, 2.68},
		{-2.675, 2, -2.68},
		{-0.001, 2, 0}, // negative zero normalized
		{0, 2, 0},
	}

	for _, tc := range cases {
		got := numeric.Round(tc.v, tc.decimals)
		if got != tc.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tc.v, tc.decimals, got, tc.want)
		}
		if got == 0 && math.Signbit(got) {
			t.Errorf("Round(%v, %d) returned negative zero", tc.v, tc.decimals)
		}
	}
}

// TestRoundValue tests the parse-then-round contract.
func TestRoundValue(t *testing.T) {
	got, ok := numeric.RoundValue("1234,5678", 2)
	if !ok || got != 1234.57 {
		t.Errorf("RoundValue(\"1234,5678\", 2) = %v, %v; want 1234.57, true", got, ok)
	}

	if _, ok := numeric.RoundValue("not a number", 2); ok {
		t.Error("RoundValue of unparseable input reported a value")
	}
}

// TestClassifyTone tests the neutral band around zero.
//
// WHY: A delta that rounds to 0.00 at display precision must not be colored
// as a gain or loss; only visible changes get a tone.
func TestClassifyTone(t *testing.T) {
	cases := []struct {
		delta    float64
		decimals int
		want     numeric.Tone
	}{
		{0.004, 2, numeric.ToneNeutral},
		{0.006, 2, numeric.TonePositive},
		{-1, 2, numeric.ToneNegative},
		{0, 2, numeric.ToneNeutral},
		{math.NaN(), 2, numeric.ToneNeutral},
		{math.Inf(1), 2, numeric.ToneNeutral},
		{-0.006, 2, numeric.ToneNegative},
		{0.4, 0, numeric.ToneNeutral},
		{0.6, 0, numeric.TonePositive},
	}

	for _, tc := range cases {
		if got := numeric.ClassifyTone(tc.delta, tc.decimals); got != tc.want {
			t.Errorf("ClassifyTone(%v, %d) = %q, want %q", tc.delta, tc.decimals, got, tc.want)
		}
	}
}
