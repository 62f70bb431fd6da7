// Package aggregate computes footer totals across dashboard table rows.
// Sums skip rows without a value rather than treating them as zero, and a
// footer is only "complete" when every contributing row carried the values
// it needs; a partial sum would misrepresent the total.
package aggregate

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
)

// Column identifies a summable portfolio table column.
type Column string

const (
	ColumnCurrentValue Column = "current_value"
	ColumnPurchaseSum  Column = "purchase_sum"
	ColumnGainAbs      Column = "gain_abs"
)

// columnValue extracts the numeric value of a column from a portfolio row.
// The gain column falls back to the performance sub-record when the direct
// field is absent.
func columnValue(p model.Portfolio, col Column) (float64, bool) {
	switch col {
	case ColumnCurrentValue:
		if p.CurrentValue != nil {
			return *p.CurrentValue, true
		}
	case ColumnPurchaseSum:
		return p.PurchaseSum, true
	case ColumnGainAbs:
		if p.GainAbs != nil {
			return *p.GainAbs, true
		}
		if p.Performance != nil {
			return p.Performance.GainAbs, true
		}
	}
	return 0, false
}

// Sum adds the column values across all rows that carry one. The second
// return value reports whether at least one row contributed. Accumulation
// goes through decimal so long row sets do not accumulate float drift.
func Sum(rows []model.Portfolio, col Column) (float64, bool) {
	total := decimal.Zero
	contributed := false
	for _, row := range rows {
		v, ok := columnValue(row, col)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
		contributed = true
	}
	f, _ := total.Float64()
	return f, contributed
}

// Footer holds the aggregate row beneath the portfolio table. Value fields
// are nil when the aggregate is incomplete; the position count is summed
// regardless of completeness.
type Footer struct {
	PositionCount int
	CurrentValue  *float64
	PurchaseSum   *float64
	GainAbs       *float64
	GainPct       *float64
	Complete      bool
}

// PortfolioFooter computes the footer aggregate for a set of portfolio rows.
// The footer is complete only when every row carries a finite current value,
// gain and purchase sum; otherwise the value fields stay nil and render as
// the no-value placeholder.
func PortfolioFooter(rows []model.Portfolio) Footer {
	footer := Footer{Complete: len(rows) > 0}
	for _, row := range rows {
		footer.PositionCount += row.PositionCount
		if v, ok := columnValue(row, ColumnCurrentValue); !ok || !finite(v) {
			footer.Complete = false
		}
		if v, ok := columnValue(row, ColumnGainAbs); !ok || !finite(v) {
			footer.Complete = false
		}
		if v, ok := columnValue(row, ColumnPurchaseSum); !ok || !finite(v) {
			footer.Complete = false
		}
	}
	if !footer.Complete {
		return footer
	}

	currentValue, _ := Sum(rows, ColumnCurrentValue)
	purchaseSum, _ := Sum(rows, ColumnPurchaseSum)
	gainAbs, _ := Sum(rows, ColumnGainAbs)

	footer.CurrentValue = &currentValue
	footer.PurchaseSum = &purchaseSum
	footer.GainAbs = &gainAbs
	footer.GainPct = DerivedGainPct(gainAbs, purchaseSum, currentValue)
	return footer
}

// DerivedGainPct derives an aggregate gain percentage. A positive purchase
// sum is the preferred basis; without one, a nonzero current value implies
// the original basis as current_value - gain_abs. When neither applies the
// percentage is undefined and nil is returned.
func DerivedGainPct(gainAbs, purchaseSum, currentValue float64) *float64 {
	if purchaseSum > 0 {
		v := gainAbs / purchaseSum * 100
		return &v
	}
	if currentValue != 0 {
		basis := currentValue - gainAbs
		if basis != 0 {
			v := gainAbs / basis * 100
			return &v
		}
	}
	return nil
}

// AccountFooter holds the aggregate row beneath the accounts table.
type AccountFooter struct {
	Balance  *float64
	Complete bool
}

// AccountsFooter sums EUR balances across account rows. The footer is
// complete only when every account carries a converted balance; a single
// FX-unavailable account makes the total unrepresentative.
func AccountsFooter(rows []model.Account) AccountFooter {
	footer := AccountFooter{Complete: len(rows) > 0}
	total := decimal.Zero
	for _, row := range rows {
		if row.Balance == nil || !finite(*row.Balance) {
			footer.Complete = false
			continue
		}
		total = total.Add(decimal.NewFromFloat(*row.Balance))
	}
	if footer.Complete {
		f, _ := total.Float64()
		footer.Balance = &f
	}
	return footer
}

// PositionFooter holds the aggregate row beneath a position detail table.
type PositionFooter struct {
	CurrentValue  float64
	PurchaseValue float64
	GainAbs       float64
	GainPct       *float64
}

// PositionsFooter sums a portfolio's position detail rows. Positions always
// carry their required values, so this footer is always complete; the gain
// falls back to current minus purchase when no performance record exists.
func PositionsFooter(rows []model.Position) PositionFooter {
	currentValue := decimal.Zero
	purchaseValue := decimal.Zero
	gainAbs := decimal.Zero
	for _, row := range rows {
		currentValue = currentValue.Add(decimal.NewFromFloat(row.CurrentValue))
		purchaseValue = purchaseValue.Add(decimal.NewFromFloat(row.PurchaseValue))
		gain := row.CurrentValue - row.PurchaseValue
		if row.Performance != nil {
			gain = row.Performance.GainAbs
		}
		gainAbs = gainAbs.Add(decimal.NewFromFloat(gain))
	}

	footer := PositionFooter{}
	footer.CurrentValue, _ = currentValue.Float64()
	footer.PurchaseValue, _ = purchaseValue.Float64()
	footer.GainAbs, _ = gainAbs.Float64()
	footer.GainPct = DerivedGainPct(footer.GainAbs, footer.PurchaseValue, footer.CurrentValue)
	return footer
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
