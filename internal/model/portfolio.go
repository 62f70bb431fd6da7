package model

// Portfolio represents a normalized portfolio record.
//
// HasValue mirrors CurrentValue: it is true exactly when CurrentValue is
// present. FxUnavailable is true when the portfolio has no current value or
// when at least one of its positions could not be valued.
type Portfolio struct {
	UUID                  string       `json:"uuid"`
	Name                  string       `json:"name"`
	PositionCount         int          `json:"position_count"`
	CurrentValue          *float64     `json:"current_value"`
	PurchaseSum           float64      `json:"purchase_sum"` // 0 when absent from the payload
	GainAbs               *float64     `json:"gain_abs,omitempty"`
	GainPct               *float64     `json:"gain_pct,omitempty"`
	HasValue              bool         `json:"has_value"`
	FxUnavailable         bool         `json:"fx_unavailable"`
	MissingValuePositions int          `json:"missing_value_positions,omitempty"`
	Performance           *Performance `json:"performance,omitempty"`
	DataState             *DataState   `json:"data_state,omitempty"`
	CoverageRatio         *float64     `json:"coverage_ratio,omitempty"`
	Provenance            string       `json:"provenance,omitempty"`
	MetricRunUUID         string       `json:"metric_run_uuid,omitempty"`
	Badges                []string     `json:"badges,omitempty"`
	Positions             []Position   `json:"positions,omitempty"` // embedded positions from the payload
}

// Clone returns a deep copy of the portfolio including embedded positions.
func (p Portfolio) Clone() Portfolio {
	c := p
	c.CurrentValue = clonePtr(p.CurrentValue)
	c.GainAbs = clonePtr(p.GainAbs)
	c.GainPct = clonePtr(p.GainPct)
	c.CoverageRatio = clonePtr(p.CoverageRatio)
	c.Performance = p.Performance.Clone()
	c.DataState = p.DataState.Clone()
	if p.Badges != nil {
		c.Badges = append([]string(nil), p.Badges...)
	}
	if p.Positions != nil {
		c.Positions = make([]Position, len(p.Positions))
		for i, pos := range p.Positions {
			c.Positions[i] = pos.Clone()
		}
	}
	return c
}

// DataState carries freshness metadata attached to a record by the upstream
// metric pipeline.
type DataState struct {
	GeneratedAt string `json:"generated_at,omitempty"`
	Source      string `json:"source,omitempty"`
	Stale       *bool  `json:"stale,omitempty"`
}

// Clone returns a deep copy of the data state, or nil for a nil receiver.
func (d *DataState) Clone() *DataState {
	if d == nil {
		return nil
	}
	c := *d
	c.Stale = clonePtr(d.Stale)
	return &c
}
