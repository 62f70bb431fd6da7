package render

import (
	"html"
	"strconv"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/aggregate"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/numeric"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/reconcile"
)

// Column names shared by the table builders and the reconciler.
const (
	ColName            = "name"
	ColBalance         = "balance"
	ColPositionCount   = "position_count"
	ColCurrentValue    = "current_value"
	ColPurchaseSum     = "purchase_sum"
	ColGainAbs         = "gain_abs"
	ColGainPct         = "gain_pct"
	ColCurrentHoldings = "current_holdings"
	ColPurchaseValue   = "purchase_value"
)

// AccountColumns is the accounts table column order.
var AccountColumns = []string{ColName, ColBalance}

// PortfolioColumns is the portfolio table column order.
var PortfolioColumns = []string{
	ColName, ColPositionCount, ColCurrentValue, ColPurchaseSum, ColGainAbs, ColGainPct,
}

// PositionColumns is the position detail table column order.
var PositionColumns = []string{
	ColName, ColCurrentHoldings, ColPurchaseValue, ColCurrentValue, ColGainAbs, ColGainPct,
}

func textCell(text string, attrs map[string]string) reconcile.Cell {
	return reconcile.Cell{Kind: reconcile.CellText, Text: text, HasValue: true, Attrs: attrs}
}

func placeholderCell() reconcile.Cell {
	return reconcile.Cell{
		Kind:  reconcile.CellText,
		Text:  NoValue,
		Attrs: map[string]string{"aria-label": NoValueLabel, "data-has-value": "false"},
	}
}

// currencyCell formats an optional EUR amount and mirrors the raw value in
// the given data attribute. A nil value renders the placeholder.
func currencyCell(attr string, v *float64) reconcile.Cell {
	if v == nil {
		return placeholderCell()
	}
	return reconcile.Cell{
		Kind:     reconcile.CellCurrency,
		Text:     Currency(*v),
		Value:    *v,
		HasValue: true,
		Attrs:    map[string]string{attr: formatAttr(*v)},
	}
}

// gainCell renders a signed delta with a tone classification.
func gainCell(attr string, v *float64, format func(float64) string) reconcile.Cell {
	if v == nil {
		return placeholderCell()
	}
	return reconcile.Cell{
		Kind:     reconcile.CellCurrency,
		Text:     format(*v),
		Value:    *v,
		HasValue: true,
		Tone:     numeric.ClassifyTone(*v, 2),
		Attrs:    map[string]string{attr: formatAttr(*v)},
	}
}

// nameCell renders the name plus badge markup. Markup cells compare
// literally, so a badge change counts as a change even when the name text
// is identical.
func nameCell(name string, badges []string) reconcile.Cell {
	markup := html.EscapeString(name)
	for _, badge := range badges {
		markup += ` <span class="badge badge-` + html.EscapeString(badge) + `">` +
			html.EscapeString(badge) + `</span>`
	}
	return reconcile.Cell{Kind: reconcile.CellMarkup, Text: markup, HasValue: true}
}

func formatAttr(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optionalAttr(attrs map[string]string, key string, v *float64) {
	if v != nil {
		attrs[key] = formatAttr(*v)
	}
}

func stringAttr(attrs map[string]string, key, v string) {
	if v != "" {
		attrs[key] = v
	}
}

// AccountCells builds the cells for one account row.
func AccountCells(acc model.Account) map[string]reconcile.Cell {
	return map[string]reconcile.Cell{
		ColName:    nameCell(acc.Name, acc.Badges),
		ColBalance: currencyCell("data-balance", acc.Balance),
	}
}

// AccountRowAttrs builds the row-level data attributes for an account.
func AccountRowAttrs(acc model.Account) map[string]string {
	attrs := map[string]string{
		"data-account":        acc.UUID,
		"data-fx-unavailable": strconv.FormatBool(acc.FxUnavailable),
	}
	stringAttr(attrs, "data-currency", acc.CurrencyCode)
	stringAttr(attrs, "data-provenance", acc.Provenance)
	stringAttr(attrs, "data-metric-run-uuid", acc.MetricRunUUID)
	optionalAttr(attrs, "data-coverage-ratio", acc.CoverageRatio)
	return attrs
}

// AccountUpdate builds the reconciler update for one account record.
func AccountUpdate(acc model.Account) reconcile.RowUpdate {
	return reconcile.RowUpdate{Key: acc.UUID, Cells: AccountCells(acc)}
}

// portfolioGain resolves the displayed gain pair, preferring the direct
// fields and falling back to the performance sub-record.
func portfolioGain(p model.Portfolio) (gainAbs, gainPct *float64) {
	gainAbs, gainPct = p.GainAbs, p.GainPct
	if p.Performance != nil {
		if gainAbs == nil {
			gainAbs = model.Float64Ptr(p.Performance.GainAbs)
		}
		if gainPct == nil {
			gainPct = model.Float64Ptr(p.Performance.GainPct)
		}
	}
	return gainAbs, gainPct
}

// PortfolioCells builds the cells for one portfolio row.
func PortfolioCells(p model.Portfolio) map[string]reconcile.Cell {
	gainAbs, gainPct := portfolioGain(p)
	purchaseSum := p.PurchaseSum
	return map[string]reconcile.Cell{
		ColName:          nameCell(p.Name, p.Badges),
		ColPositionCount: countCell(p.PositionCount),
		ColCurrentValue:  currencyCell("data-current-value", p.CurrentValue),
		ColPurchaseSum:   currencyCell("data-purchase-sum", &purchaseSum),
		ColGainAbs:       gainCell("data-gain-abs", gainAbs, SignedCurrency),
		ColGainPct:       gainCell("data-gain-pct", gainPct, SignedPercent),
	}
}

// PortfolioRowAttrs builds the row-level data attributes for a portfolio.
func PortfolioRowAttrs(p model.Portfolio) map[string]string {
	attrs := map[string]string{
		"data-portfolio":      p.UUID,
		"data-has-value":      strconv.FormatBool(p.HasValue),
		"data-fx-unavailable": strconv.FormatBool(p.FxUnavailable),
	}
	stringAttr(attrs, "data-provenance", p.Provenance)
	stringAttr(attrs, "data-metric-run-uuid", p.MetricRunUUID)
	optionalAttr(attrs, "data-coverage-ratio", p.CoverageRatio)
	return attrs
}

// PortfolioUpdate builds the reconciler update for one portfolio record.
func PortfolioUpdate(p model.Portfolio) reconcile.RowUpdate {
	return reconcile.RowUpdate{Key: p.UUID, Cells: PortfolioCells(p)}
}

// positionGain resolves the displayed gain pair for a position, falling
// back to current minus purchase when no performance record exists.
func positionGain(pos model.Position) (gainAbs float64, gainPct *float64) {
	if pos.Performance != nil {
		return pos.Performance.GainAbs, model.Float64Ptr(pos.Performance.GainPct)
	}
	gainAbs = pos.CurrentValue - pos.PurchaseValue
	return gainAbs, aggregate.DerivedGainPct(gainAbs, pos.PurchaseValue, pos.CurrentValue)
}

// PositionCells builds the cells for one position detail row.
func PositionCells(pos model.Position) map[string]reconcile.Cell {
	gainAbs, gainPct := positionGain(pos)
	purchaseValue := pos.PurchaseValue
	currentValue := pos.CurrentValue
	return map[string]reconcile.Cell{
		ColName: nameCell(pos.Name, nil),
		ColCurrentHoldings: reconcile.Cell{
			Kind:     reconcile.CellCurrency,
			Text:     Number(pos.CurrentHoldings, 2),
			Value:    pos.CurrentHoldings,
			HasValue: true,
			Attrs:    map[string]string{"data-current-holdings": formatAttr(pos.CurrentHoldings)},
		},
		ColPurchaseValue: currencyCell("data-purchase-value", &purchaseValue),
		ColCurrentValue:  currencyCell("data-current-value", &currentValue),
		ColGainAbs:       gainCell("data-gain-abs", &gainAbs, SignedCurrency),
		ColGainPct:       gainCell("data-gain-pct", gainPct, SignedPercent),
	}
}

// PositionRowAttrs builds the row-level data attributes for a position.
func PositionRowAttrs(pos model.Position) map[string]string {
	attrs := map[string]string{"data-security": pos.SecurityUUID}
	stringAttr(attrs, "data-portfolio", pos.PortfolioUUID)
	stringAttr(attrs, "data-currency", pos.CurrencyCode)
	stringAttr(attrs, "data-provenance", pos.Provenance)
	stringAttr(attrs, "data-metric-run-uuid", pos.MetricRunUUID)
	optionalAttr(attrs, "data-coverage-ratio", pos.CoverageRatio)
	return attrs
}

// PositionUpdate builds the reconciler update for one position record.
func PositionUpdate(pos model.Position) reconcile.RowUpdate {
	return reconcile.RowUpdate{Key: pos.SecurityUUID, Cells: PositionCells(pos)}
}

func countCell(count int) reconcile.Cell {
	text := strconv.Itoa(count)
	return reconcile.Cell{
		Kind:     reconcile.CellCurrency,
		Text:     text,
		Value:    float64(count),
		HasValue: true,
		Attrs:    map[string]string{"data-position-count": text},
	}
}

// cellValue reads the raw numeric value of a rendered cell.
func cellValue(row reconcile.Row, column string) (float64, bool) {
	cell, ok := row.Cell(column)
	if !ok || !cell.HasValue {
		return 0, false
	}
	return cell.Value, true
}

// PortfolioFooterCells recomputes the portfolio footer from the rendered
// rows. Values are read back from the target, not from the update that
// triggered the recomputation, so the footer matches what is displayed.
func PortfolioFooterCells(target reconcile.RenderTarget) map[string]reconcile.Cell {
	rows := make([]model.Portfolio, 0)
	for _, key := range target.Keys() {
		row, ok := target.LocateRow(key)
		if !ok {
			continue
		}
		p := model.Portfolio{UUID: key}
		if v, ok := cellValue(row, ColCurrentValue); ok {
			p.CurrentValue = model.Float64Ptr(v)
		}
		if v, ok := cellValue(row, ColPurchaseSum); ok {
			p.PurchaseSum = v
		}
		if v, ok := cellValue(row, ColGainAbs); ok {
			p.GainAbs = model.Float64Ptr(v)
		}
		if v, ok := cellValue(row, ColPositionCount); ok {
			p.PositionCount = int(v)
		}
		rows = append(rows, p)
	}

	footer := aggregate.PortfolioFooter(rows)
	cells := map[string]reconcile.Cell{
		ColName:          textCell("Summe", nil),
		ColPositionCount: countCell(footer.PositionCount),
	}
	if footer.Complete {
		cells[ColCurrentValue] = currencyCell("data-current-value", footer.CurrentValue)
		cells[ColPurchaseSum] = currencyCell("data-purchase-sum", footer.PurchaseSum)
		cells[ColGainAbs] = gainCell("data-gain-abs", footer.GainAbs, SignedCurrency)
		cells[ColGainPct] = gainCell("data-gain-pct", footer.GainPct, SignedPercent)
	} else {
		cells[ColCurrentValue] = placeholderCell()
		cells[ColPurchaseSum] = placeholderCell()
		cells[ColGainAbs] = placeholderCell()
		cells[ColGainPct] = placeholderCell()
	}
	return cells
}

// AccountFooterCells recomputes the accounts footer from rendered rows.
func AccountFooterCells(target reconcile.RenderTarget) map[string]reconcile.Cell {
	rows := make([]model.Account, 0)
	for _, key := range target.Keys() {
		row, ok := target.LocateRow(key)
		if !ok {
			continue
		}
		acc := model.Account{UUID: key}
		if v, ok := cellValue(row, ColBalance); ok {
			acc.Balance = model.Float64Ptr(v)
		}
		rows = append(rows, acc)
	}

	footer := aggregate.AccountsFooter(rows)
	cells := map[string]reconcile.Cell{ColName: textCell("Summe", nil)}
	if footer.Complete {
		cells[ColBalance] = currencyCell("data-balance", footer.Balance)
	} else {
		cells[ColBalance] = placeholderCell()
	}
	return cells
}

// PositionFooterCells recomputes the detail footer from rendered rows.
func PositionFooterCells(target reconcile.RenderTarget) map[string]reconcile.Cell {
	rows := make([]model.Position, 0)
	for _, key := range target.Keys() {
		row, ok := target.LocateRow(key)
		if !ok {
			continue
		}
		pos := model.Position{SecurityUUID: key}
		if v, ok := cellValue(row, ColCurrentValue); ok {
			pos.CurrentValue = v
		}
		if v, ok := cellValue(row, ColPurchaseValue); ok {
			pos.PurchaseValue = v
		}
		if v, ok := cellValue(row, ColGainAbs); ok {
			pos.Performance = &model.Performance{GainAbs: v}
		}
		rows = append(rows, pos)
	}

	footer := aggregate.PositionsFooter(rows)
	gainAbs := footer.GainAbs
	currentValue := footer.CurrentValue
	purchaseValue := footer.PurchaseValue
	return map[string]reconcile.Cell{
		ColName:          textCell("Summe", nil),
		ColPurchaseValue: currencyCell("data-purchase-value", &purchaseValue),
		ColCurrentValue:  currencyCell("data-current-value", &currentValue),
		ColGainAbs:       gainCell("data-gain-abs", &gainAbs, SignedCurrency),
		ColGainPct:       gainCell("data-gain-pct", footer.GainPct, SignedPercent),
	}
}
