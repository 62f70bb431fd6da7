package render

import (
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/numeric"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/reconcile"
)

// columnLabels maps column names to their displayed header labels.
var columnLabels = map[string]string{
	ColName:            "Name",
	ColBalance:         "Saldo",
	ColPositionCount:   "Positionen",
	ColCurrentValue:    "Aktueller Wert",
	ColPurchaseSum:     "Kaufsumme",
	ColPurchaseValue:   "Kaufwert",
	ColCurrentHoldings: "Bestand",
	ColGainAbs:         "Gewinn/Verlust",
	ColGainPct:         "Gewinn/Verlust %",
}

type tableRow struct {
	key   string
	attrs map[string]string
	cells map[string]reconcile.Cell
	flash map[string]bool
}

// rowView is an immutable copy of one row handed to readers, so the
// reconciler can inspect cells without holding the table lock.
type rowView struct {
	key   string
	cells map[string]reconcile.Cell
}

func (r rowView) Key() string { return r.key }

func (r rowView) Cell(column string) (reconcile.Cell, bool) {
	cell, ok := r.cells[column]
	return cell, ok
}

// Table is an in-memory render target. It holds rows in display order and
// renders to an HTML fragment on demand. All methods are safe for
// concurrent use.
type Table struct {
	mu      sync.RWMutex
	kind    string
	columns []string
	order   []string
	rows    map[string]*tableRow
	footer  map[string]reconcile.Cell
}

// NewTable creates an empty table. Kind names the table in the rendered
// markup ("accounts", "portfolios", "positions").
func NewTable(kind string, columns []string) *Table {
	return &Table{
		kind:    kind,
		columns: columns,
		rows:    make(map[string]*tableRow),
	}
}

// SetRow creates or fully replaces a row. New rows append in arrival order.
func (t *Table) SetRow(key string, attrs map[string]string, cells map[string]reconcile.Cell) {
	if key == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	row, exists := t.rows[key]
	if !exists {
		row = &tableRow{key: key, flash: make(map[string]bool)}
		t.rows[key] = row
		t.order = append(t.order, key)
	}
	row.attrs = attrs
	row.cells = make(map[string]reconcile.Cell, len(cells))
	for column, cell := range cells {
		row.cells[column] = cell
	}
}

// RemoveRow deletes a row; unknown keys are a no-op.
func (t *Table) RemoveRow(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.rows[key]; !exists {
		return
	}
	delete(t.rows, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Keys returns the row keys in display order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, len(t.order))
	copy(keys, t.order)
	return keys
}

// LocateRow returns a read-only copy of one row.
func (t *Table) LocateRow(key string) (reconcile.Row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[key]
	if !ok {
		return nil, false
	}
	cells := make(map[string]reconcile.Cell, len(row.cells))
	for column, cell := range row.cells {
		cells[column] = cell
	}
	return rowView{key: key, cells: cells}, true
}

// PatchCell replaces a single cell of an existing row.
func (t *Table) PatchCell(key, column string, cell reconcile.Cell) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[key]
	if !ok {
		return
	}
	row.cells[column] = cell
}

// SetFlash toggles the changed-value state of a cell.
func (t *Table) SetFlash(key, column string, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[key]
	if !ok {
		return
	}
	if on {
		row.flash[column] = true
	} else {
		delete(row.flash, column)
	}
}

// WriteFooter replaces the footer row.
func (t *Table) WriteFooter(cells map[string]reconcile.Cell) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.footer = cells
}

// Flashing reports whether a cell is currently in the changed state.
func (t *Table) Flashing(key, column string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[key]
	return ok && row.flash[column]
}

// HTML renders the table as an HTML fragment. Rows carry their record
// attributes, cells mirror raw values in data attributes and flashing
// cells carry the flash class.
func (t *Table) HTML() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var b strings.Builder
	b.WriteString(`<table class="pp-table pp-table-` + t.kind + `" data-table="` + t.kind + "\">\n")

	b.WriteString("<thead><tr>")
	for _, column := range t.columns {
		label := columnLabels[column]
		if label == "" {
			label = column
		}
		b.WriteString(`<th class="col-` + column + `">` + html.EscapeString(label) + "</th>")
	}
	b.WriteString("</tr></thead>\n<tbody>\n")

	for _, key := range t.order {
		row := t.rows[key]
		b.WriteString("<tr")
		writeAttrs(&b, row.attrs)
		b.WriteString(">")
		for _, column := range t.columns {
			cell, ok := row.cells[column]
			if !ok {
				cell = placeholderCell()
			}
			writeCell(&b, column, cell, row.flash[column])
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n")

	if t.footer != nil {
		b.WriteString(`<tfoot><tr class="pp-footer">`)
		for _, column := range t.columns {
			cell, ok := t.footer[column]
			if !ok {
				cell = placeholderCell()
			}
			writeCell(&b, column, cell, false)
		}
		b.WriteString("</tr></tfoot>\n")
	}

	b.WriteString("</table>")
	return b.String()
}

func writeAttrs(b *strings.Builder, attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" " + k + `="` + html.EscapeString(attrs[k]) + `"`)
	}
}

func writeCell(b *strings.Builder, column string, cell reconcile.Cell, flashing bool) {
	classes := "col-" + column
	switch cell.Tone {
	case numeric.TonePositive:
		classes += " tone-positive"
	case numeric.ToneNegative:
		classes += " tone-negative"
	}
	if flashing {
		classes += " flash"
	}

	b.WriteString(`<td class="` + classes + `"`)
	writeAttrs(b, cell.Attrs)
	b.WriteString(">")
	if cell.Kind == reconcile.CellMarkup {
		// Markup cells are built from escaped fragments upstream.
		b.WriteString(cell.Text)
	} else {
		b.WriteString(html.EscapeString(cell.Text))
	}
	b.WriteString("</td>")
}
