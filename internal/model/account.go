package model

// Account represents a normalized depot or cash account record.
// Balance is the EUR-converted value and is nil whenever the conversion was
// impossible (FxUnavailable true with no converted value available).
type Account struct {
	UUID            string   `json:"uuid"`
	Name            string   `json:"name"`
	CurrencyCode    string   `json:"currency_code,omitempty"` // ISO-4217-like 3-letter code
	OrigBalance     float64  `json:"orig_balance"`            // balance in the account's native currency
	Balance         *float64 `json:"balance"`                 // balance converted to EUR, nil if unavailable
	FxUnavailable   bool     `json:"fx_unavailable"`
	CoverageRatio   *float64 `json:"coverage_ratio,omitempty"`
	Provenance      string   `json:"provenance,omitempty"`
	MetricRunUUID   string   `json:"metric_run_uuid,omitempty"`
	FxRate          *float64 `json:"fx_rate,omitempty"`
	FxRateSource    string   `json:"fx_rate_source,omitempty"`
	FxRateTimestamp string   `json:"fx_rate_timestamp,omitempty"`
	Badges          []string `json:"badges,omitempty"` // derived display annotations
}

// Clone returns a deep copy of the account.
func (a Account) Clone() Account {
	c := a
	c.Balance = clonePtr(a.Balance)
	c.CoverageRatio = clonePtr(a.CoverageRatio)
	c.FxRate = clonePtr(a.FxRate)
	if a.Badges != nil {
		c.Badges = append([]string(nil), a.Badges...)
	}
	return c
}
