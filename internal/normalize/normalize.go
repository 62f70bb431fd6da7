// Package normalize validates and reshapes raw upstream payload objects into
// canonical records. Each entity has a decode function that returns either a
// typed record or an explicit rejection reason; collection helpers drop
// rejected elements without aborting the surrounding batch.
package normalize

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/numeric"
)

// asObject probes a raw payload entry for the JSON-object shape every
// normalizer expects.
func asObject(raw any) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	return obj, ok
}

// stringField returns the first non-empty trimmed string among the given
// keys. Empty or whitespace-only strings are treated as absent.
func stringField(obj map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}

// numberField parses the first parseable numeric value among the given keys
// via the locale parser. Non-finite values are treated as absent.
func numberField(obj map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, present := obj[key]
		if !present || raw == nil {
			continue
		}
		if v, ok := numeric.ParseNumber(raw); ok {
			return v, true
		}
	}
	return 0, false
}

// numberPtr is numberField for optional fields, returning nil when absent.
func numberPtr(obj map[string]any, keys ...string) *float64 {
	if v, ok := numberField(obj, keys...); ok {
		return &v
	}
	return nil
}

// boolField reads an optional boolean field.
func boolField(obj map[string]any, key string) (bool, bool) {
	b, ok := obj[key].(bool)
	return b, ok
}

// boolPtr is boolField for optional fields, returning nil when absent.
func boolPtr(obj map[string]any, key string) *bool {
	if b, ok := boolField(obj, key); ok {
		return &b
	}
	return nil
}

// intField reads an optional integer field, accepting any parseable number
// and truncating toward the nearest integer.
func intField(obj map[string]any, keys ...string) (int, bool) {
	if v, ok := numberField(obj, keys...); ok {
		return int(math.Round(v)), true
	}
	return 0, false
}

// coverageRatio reads an optional coverage ratio, discarding values outside
// the valid 0..1 range.
func coverageRatio(obj map[string]any) *float64 {
	v := numberPtr(obj, "coverage_ratio")
	if v != nil && (*v < 0 || *v > 1) {
		return nil
	}
	return v
}

// centsValue reads a cent amount that upstream delivers either as a number
// or as a numeric string. Parsing goes through decimal so large cent totals
// survive without float truncation.
func centsValue(raw any) *int64 {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		n := int64(math.Round(v))
		return &n
	case int:
		n := int64(v)
		return &n
	case int64:
		return &v
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		n := d.Round(0).IntPart()
		return &n
	default:
		return nil
	}
}

// normalizePerformance shapes a raw performance sub-object. The four core
// metrics are required together; missing any of them yields nil, never a
// partially filled record.
func normalizePerformance(raw any) *model.Performance {
	obj, ok := asObject(raw)
	if !ok {
		return nil
	}

	gainAbs, ok1 := numberField(obj, "gain_abs")
	gainPct, ok2 := numberField(obj, "gain_pct")
	totalEUR, ok3 := numberField(obj, "total_change_eur")
	totalPct, ok4 := numberField(obj, "total_change_pct")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}

	perf := &model.Performance{
		GainAbs:        gainAbs,
		GainPct:        gainPct,
		TotalChangeEUR: totalEUR,
		TotalChangePct: totalPct,
		Source:         model.PerformanceSourceDerived,
		CoverageRatio:  coverageRatio(obj),
		DayChange:      normalizeDayChange(obj["day_change"]),
	}
	if source, ok := stringField(obj, "source"); ok {
		perf.Source = source
	}
	return perf
}

// normalizeDayChange shapes a raw day-change sub-object. Each change metric
// is optional; when all three are absent the whole sub-object is nil.
func normalizeDayChange(raw any) *model.DayChange {
	obj, ok := asObject(raw)
	if !ok {
		return nil
	}

	dc := &model.DayChange{
		PriceChangeNative: numberPtr(obj, "price_change_native"),
		PriceChangeEUR:    numberPtr(obj, "price_change_eur"),
		ChangePct:         numberPtr(obj, "change_pct"),
		CoverageRatio:     coverageRatio(obj),
	}
	if dc.PriceChangeNative == nil && dc.PriceChangeEUR == nil && dc.ChangePct == nil {
		return nil
	}
	if source, ok := stringField(obj, "source"); ok {
		dc.Source = source
	}
	return dc
}

// normalizeAggregation shapes a raw aggregation sub-object. A sub-object in
// which every field is absent or zero normalizes to nil.
func normalizeAggregation(raw any) *model.Aggregation {
	obj, ok := asObject(raw)
	if !ok {
		return nil
	}

	agg := &model.Aggregation{
		TotalHoldings:         numberPtr(obj, "total_holdings"),
		PositiveHoldings:      numberPtr(obj, "positive_holdings"),
		PurchaseValueCents:    centsValue(obj["purchase_value_cents"]),
		PurchaseValueEUR:      numberPtr(obj, "purchase_value_eur"),
		SecurityCurrencyTotal: numberPtr(obj, "security_currency_total"),
		AccountCurrencyTotal:  numberPtr(obj, "account_currency_total"),
	}

	empty := (agg.TotalHoldings == nil || *agg.TotalHoldings == 0) &&
		(agg.PositiveHoldings == nil || *agg.PositiveHoldings == 0) &&
		(agg.PurchaseValueCents == nil || *agg.PurchaseValueCents == 0) &&
		(agg.PurchaseValueEUR == nil || *agg.PurchaseValueEUR == 0) &&
		(agg.SecurityCurrencyTotal == nil || *agg.SecurityCurrencyTotal == 0) &&
		(agg.AccountCurrencyTotal == nil || *agg.AccountCurrencyTotal == 0)
	if empty {
		return nil
	}
	return agg
}

// normalizeAverageCost shapes a raw average-cost sub-object, nil when no
// recognized value is present.
func normalizeAverageCost(raw any) *model.AverageCost {
	obj, ok := asObject(raw)
	if !ok {
		return nil
	}

	ac := &model.AverageCost{
		Native:        numberPtr(obj, "native"),
		EUR:           numberPtr(obj, "eur"),
		CoverageRatio: coverageRatio(obj),
	}
	if ac.Native == nil && ac.EUR == nil {
		return nil
	}
	if source, ok := stringField(obj, "source"); ok {
		ac.Source = source
	}
	return ac
}

// normalizeDataState shapes a raw data-state sub-object, nil when no
// recognized field is present.
func normalizeDataState(raw any) *model.DataState {
	obj, ok := asObject(raw)
	if !ok {
		return nil
	}

	ds := &model.DataState{Stale: boolPtr(obj, "stale")}
	if generatedAt, ok := stringField(obj, "generated_at"); ok {
		ds.GeneratedAt = generatedAt
	}
	if source, ok := stringField(obj, "source"); ok {
		ds.Source = source
	}
	if ds.GeneratedAt == "" && ds.Source == "" && ds.Stale == nil {
		return nil
	}
	return ds
}
