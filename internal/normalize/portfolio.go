package normalize

import (
	"fmt"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
)

// NormalizePortfolio shapes a raw payload entry into a Portfolio record.
//
// The current value is read from either "current_value" or "value", the
// purchase sum from "purchase_value" or "purchase_sum" (defaulting to 0).
// HasValue mirrors the presence of the current value; FxUnavailable is
// derived from HasValue and the missing-value position count. Embedded
// positions are mapped through NormalizePosition with failing entries
// dropped.
func NormalizePortfolio(raw any) (model.Portfolio, error) {
	obj, ok := asObject(raw)
	if !ok {
		return model.Portfolio{}, fmt.Errorf("portfolio: %w", apperrors.ErrNotAnObject)
	}

	uuid, ok := stringField(obj, "uuid")
	if !ok {
		return model.Portfolio{}, fmt.Errorf("portfolio: %w: uuid", apperrors.ErrMissingRequiredField)
	}
	name, ok := stringField(obj, "name")
	if !ok {
		return model.Portfolio{}, fmt.Errorf("portfolio: %w: name", apperrors.ErrMissingRequiredField)
	}

	p := model.Portfolio{
		UUID:          uuid,
		Name:          name,
		CurrentValue:  numberPtr(obj, "current_value", "value"),
		CoverageRatio: coverageRatio(obj),
		Performance:   normalizePerformance(obj["performance"]),
		DataState:     normalizeDataState(obj["data_state"]),
	}

	if v, ok := numberField(obj, "purchase_value", "purchase_sum"); ok {
		p.PurchaseSum = v
	}
	if n, ok := intField(obj, "position_count"); ok && n > 0 {
		p.PositionCount = n
	}
	if n, ok := intField(obj, "missing_value_positions"); ok && n > 0 {
		p.MissingValuePositions = n
	}
	if prov, ok := stringField(obj, "provenance"); ok {
		p.Provenance = prov
	}
	if run, ok := stringField(obj, "metric_run_uuid"); ok {
		p.MetricRunUUID = run
	}

	p.HasValue = p.CurrentValue != nil
	p.FxUnavailable = !p.HasValue || p.MissingValuePositions > 0

	// Gain metrics come from the performance sub-record when present,
	// falling back to direct payload fields.
	if p.Performance != nil {
		p.GainAbs = model.Float64Ptr(p.Performance.GainAbs)
		p.GainPct = model.Float64Ptr(p.Performance.GainPct)
	} else {
		p.GainAbs = numberPtr(obj, "gain_abs")
		p.GainPct = numberPtr(obj, "gain_pct")
	}

	if rawPositions, ok := obj["positions"].([]any); ok {
		p.Positions = NormalizePositions(rawPositions, p.UUID)
		if p.PositionCount == 0 {
			p.PositionCount = len(p.Positions)
		}
	}

	p.Badges = portfolioBadges(p)
	return p, nil
}

// NormalizePortfolios maps a raw payload array through NormalizePortfolio,
// silently dropping entries that fail validation. The element type is
// generic so decoded batches ([]map[string]any) pass through unconverted.
func NormalizePortfolios[T any](raw []T) []model.Portfolio {
	portfolios := make([]model.Portfolio, 0, len(raw))
	for _, entry := range raw {
		p, err := NormalizePortfolio(entry)
		if err != nil {
			continue
		}
		portfolios = append(portfolios, p)
	}
	return portfolios
}

// portfolioBadges derives the display annotations for a portfolio.
func portfolioBadges(p model.Portfolio) []string {
	var badges []string
	if p.FxUnavailable {
		badges = append(badges, "fx-unavailable")
	}
	if p.MissingValuePositions > 0 {
		badges = append(badges, "missing-positions")
	}
	if p.CoverageRatio != nil && *p.CoverageRatio < 1 {
		badges = append(badges, "partial-coverage")
	}
	return badges
}
