package numeric

import "math"

// Tone classifies the sign of a display delta.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
)

// ClassifyTone classifies a numeric delta at the given display precision.
// A delta is neutral when it is not finite, exactly zero, or would round to
// zero at that precision (|delta| < 0.5 / 10^decimals).
func ClassifyTone(delta float64, decimals int) Tone {
	if !isFinite(delta) || delta == 0 {
		return ToneNeutral
	}
	if math.Abs(delta) < 0.5/math.Pow(10, float64(decimals)) {
		return ToneNeutral
	}
	if delta > 0 {
		return TonePositive
	}
	return ToneNegative
}
