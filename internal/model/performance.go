package model

// PerformanceSourceDerived is the default source tag for performance
// sub-records that do not name their derivation path.
const PerformanceSourceDerived = "derived"

// Performance holds gain metrics for a portfolio or position. The four core
// metrics are required together: a raw sub-object missing any of them
// normalizes to nil rather than to a partially filled record.
type Performance struct {
	GainAbs        float64    `json:"gain_abs"`
	GainPct        float64    `json:"gain_pct"`
	TotalChangeEUR float64    `json:"total_change_eur"`
	TotalChangePct float64    `json:"total_change_pct"`
	Source         string     `json:"source"` // defaults to "derived"
	CoverageRatio  *float64   `json:"coverage_ratio,omitempty"`
	DayChange      *DayChange `json:"day_change,omitempty"`
}

// Clone returns a deep copy of the performance record, or nil for a nil
// receiver.
func (p *Performance) Clone() *Performance {
	if p == nil {
		return nil
	}
	c := *p
	c.CoverageRatio = clonePtr(p.CoverageRatio)
	c.DayChange = p.DayChange.Clone()
	return &c
}

// DayChange holds intraday change metrics. Each metric is optional; a raw
// sub-object with all three change metrics absent normalizes to nil.
type DayChange struct {
	PriceChangeNative *float64 `json:"price_change_native,omitempty"`
	PriceChangeEUR    *float64 `json:"price_change_eur,omitempty"`
	ChangePct         *float64 `json:"change_pct,omitempty"`
	Source            string   `json:"source,omitempty"`
	CoverageRatio     *float64 `json:"coverage_ratio,omitempty"`
}

// Clone returns a deep copy of the day change, or nil for a nil receiver.
func (d *DayChange) Clone() *DayChange {
	if d == nil {
		return nil
	}
	c := *d
	c.PriceChangeNative = clonePtr(d.PriceChangeNative)
	c.PriceChangeEUR = clonePtr(d.PriceChangeEUR)
	c.ChangePct = clonePtr(d.ChangePct)
	c.CoverageRatio = clonePtr(d.CoverageRatio)
	return &c
}

// clonePtr copies a pointer-held scalar so snapshots never alias cache
// memory.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float64Ptr returns a pointer to v. Convenience for building records.
func Float64Ptr(v float64) *float64 { return &v }
