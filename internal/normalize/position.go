package normalize

import (
	"fmt"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
)

// positionRequiredFields lists the fields a raw position entry must carry,
// in the order they are checked and reported.
var positionRequiredFields = []string{
	"security_uuid",
	"name",
	"current_holdings",
	"purchase_value",
	"current_value",
}

// NormalizePosition shapes a raw payload entry into a Position record.
// Validation is all-or-nothing: a missing or non-finite required field
// rejects the whole entry.
func NormalizePosition(raw any) (model.Position, error) {
	obj, ok := asObject(raw)
	if !ok {
		return model.Position{}, fmt.Errorf("position: %w", apperrors.ErrNotAnObject)
	}

	securityUUID, ok := stringField(obj, "security_uuid")
	if !ok {
		return model.Position{}, fmt.Errorf("position: %w: security_uuid", apperrors.ErrMissingRequiredField)
	}
	name, ok := stringField(obj, "name")
	if !ok {
		return model.Position{}, fmt.Errorf("position: %w: name", apperrors.ErrMissingRequiredField)
	}
	holdings, ok := numberField(obj, "current_holdings")
	if !ok {
		return model.Position{}, fmt.Errorf("position: %w: current_holdings", apperrors.ErrMissingRequiredField)
	}
	purchaseValue, ok := numberField(obj, "purchase_value")
	if !ok {
		return model.Position{}, fmt.Errorf("position: %w: purchase_value", apperrors.ErrMissingRequiredField)
	}
	currentValue, ok := numberField(obj, "current_value")
	if !ok {
		return model.Position{}, fmt.Errorf("position: %w: current_value", apperrors.ErrMissingRequiredField)
	}

	pos := model.Position{
		SecurityUUID:    securityUUID,
		Name:            name,
		CurrentHoldings: holdings,
		PurchaseValue:   purchaseValue,
		CurrentValue:    currentValue,
		AverageCost:     normalizeAverageCost(obj["average_cost"]),
		Performance:     normalizePerformance(obj["performance"]),
		Aggregation:     normalizeAggregation(obj["aggregation"]),
		DataState:       normalizeDataState(obj["data_state"]),
		CoverageRatio:   coverageRatio(obj),
		LastPriceNative: numberPtr(obj, "last_price_native"),
		LastPriceEUR:    numberPtr(obj, "last_price_eur"),
		LastCloseNative: numberPtr(obj, "last_close_native"),
		LastCloseEUR:    numberPtr(obj, "last_close_eur"),
	}

	if owner, ok := stringField(obj, "portfolio_uuid"); ok {
		pos.PortfolioUUID = owner
	}
	if code, ok := stringField(obj, "currency_code"); ok {
		pos.CurrencyCode = code
	}
	if prov, ok := stringField(obj, "provenance"); ok {
		pos.Provenance = prov
	}
	if run, ok := stringField(obj, "metric_run_uuid"); ok {
		pos.MetricRunUUID = run
	}

	return pos, nil
}

// NormalizePositions maps a raw payload array through NormalizePosition,
// silently dropping entries that fail validation. Entries without their own
// portfolio_uuid inherit the owning portfolio passed in. The element type
// is generic so decoded batches ([]map[string]any) pass through unconverted.
func NormalizePositions[T any](raw []T, portfolioUUID string) []model.Position {
	positions := make([]model.Position, 0, len(raw))
	for _, entry := range raw {
		pos, err := NormalizePosition(entry)
		if err != nil {
			continue
		}
		if pos.PortfolioUUID == "" {
			pos.PortfolioUUID = portfolioUUID
		}
		positions = append(positions, pos)
	}
	return positions
}

// MapPosition is the strict variant of NormalizePosition, used on paths
// where upstream validation already ran. It reports the first missing
// required field by name. Reaching that error indicates a programming error
// in the caller, not bad user data.
func MapPosition(obj map[string]any) (model.Position, error) {
	for _, field := range positionRequiredFields {
		if v, present := obj[field]; !present || v == nil {
			return model.Position{}, fmt.Errorf("position mapping: %w: %s", apperrors.ErrMissingRequiredField, field)
		}
	}
	return NormalizePosition(obj)
}
