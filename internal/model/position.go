package model

// Position represents a normalized security position within a portfolio.
// SecurityUUID, Name, CurrentHoldings, PurchaseValue and CurrentValue are
// required; a raw entry missing any of them is rejected as a whole.
type Position struct {
	SecurityUUID    string       `json:"security_uuid"`
	PortfolioUUID   string       `json:"portfolio_uuid,omitempty"` // owning portfolio, when known
	Name            string       `json:"name"`
	CurrentHoldings float64      `json:"current_holdings"`
	PurchaseValue   float64      `json:"purchase_value"`
	CurrentValue    float64      `json:"current_value"`
	CurrencyCode    string       `json:"currency_code,omitempty"`
	AverageCost     *AverageCost `json:"average_cost,omitempty"`
	Performance     *Performance `json:"performance,omitempty"`
	Aggregation     *Aggregation `json:"aggregation,omitempty"`
	DataState       *DataState   `json:"data_state,omitempty"`
	CoverageRatio   *float64     `json:"coverage_ratio,omitempty"`
	Provenance      string       `json:"provenance,omitempty"`
	MetricRunUUID   string       `json:"metric_run_uuid,omitempty"`
	LastPriceNative *float64     `json:"last_price_native,omitempty"`
	LastPriceEUR    *float64     `json:"last_price_eur,omitempty"`
	LastCloseNative *float64     `json:"last_close_native,omitempty"`
	LastCloseEUR    *float64     `json:"last_close_eur,omitempty"`
}

// Clone returns a deep copy of the position.
func (p Position) Clone() Position {
	c := p
	c.AverageCost = p.AverageCost.Clone()
	c.Performance = p.Performance.Clone()
	c.Aggregation = p.Aggregation.Clone()
	c.DataState = p.DataState.Clone()
	c.CoverageRatio = clonePtr(p.CoverageRatio)
	c.LastPriceNative = clonePtr(p.LastPriceNative)
	c.LastPriceEUR = clonePtr(p.LastPriceEUR)
	c.LastCloseNative = clonePtr(p.LastCloseNative)
	c.LastCloseEUR = clonePtr(p.LastCloseEUR)
	return c
}

// AverageCost holds per-share purchase cost in the security's native
// currency and in EUR.
type AverageCost struct {
	Native        *float64 `json:"native,omitempty"`
	EUR           *float64 `json:"eur,omitempty"`
	Source        string   `json:"source,omitempty"`
	CoverageRatio *float64 `json:"coverage_ratio,omitempty"`
}

// Clone returns a deep copy of the average cost, or nil for a nil receiver.
func (a *AverageCost) Clone() *AverageCost {
	if a == nil {
		return nil
	}
	c := *a
	c.Native = clonePtr(a.Native)
	c.EUR = clonePtr(a.EUR)
	c.CoverageRatio = clonePtr(a.CoverageRatio)
	return &c
}

// Aggregation holds holdings and purchase totals derived from the upstream
// transaction history. PurchaseValueCents is the cent-exact purchase total.
type Aggregation struct {
	TotalHoldings         *float64 `json:"total_holdings,omitempty"`
	PositiveHoldings      *float64 `json:"positive_holdings,omitempty"`
	PurchaseValueCents    *int64   `json:"purchase_value_cents,omitempty"`
	PurchaseValueEUR      *float64 `json:"purchase_value_eur,omitempty"`
	SecurityCurrencyTotal *float64 `json:"security_currency_total,omitempty"`
	AccountCurrencyTotal  *float64 `json:"account_currency_total,omitempty"`
}

// Clone returns a deep copy of the aggregation, or nil for a nil receiver.
func (a *Aggregation) Clone() *Aggregation {
	if a == nil {
		return nil
	}
	c := *a
	c.TotalHoldings = clonePtr(a.TotalHoldings)
	c.PositiveHoldings = clonePtr(a.PositiveHoldings)
	c.PurchaseValueCents = clonePtr(a.PurchaseValueCents)
	c.PurchaseValueEUR = clonePtr(a.PurchaseValueEUR)
	c.SecurityCurrencyTotal = clonePtr(a.SecurityCurrencyTotal)
	c.AccountCurrencyTotal = clonePtr(a.AccountCurrencyTotal)
	return &c
}
