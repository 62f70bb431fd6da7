// Package reconcile patches dashboard table render targets in place.
// Incoming records are diffed against the target's current cells and only
// cells whose value actually changed are written, so an unchanged push
// update never touches the target at all. Updates for rows that are not
// rendered yet are queued and retried on a bounded budget.
package reconcile

import "github.com/Freakandi/ha-pp-reader-sub007/internal/numeric"

// CellKind controls how a cell is compared during reconciliation.
type CellKind int

const (
	// CellText cells compare by rendered text.
	CellText CellKind = iota
	// CellCurrency cells compare numerically with an epsilon, so float
	// formatting jitter does not count as a change.
	CellCurrency
	// CellMarkup cells carry formatted markup and compare literally.
	CellMarkup
)

// Cell is one table cell: the rendered text plus the raw underlying value
// and data attributes used for re-aggregation and sorting.
type Cell struct {
	Kind     CellKind
	Text     string
	Value    float64 // raw numeric value for CellCurrency cells
	HasValue bool    // false renders the no-value placeholder
	Tone     numeric.Tone
	Attrs    map[string]string // data-* attributes mirroring the raw value
}

// Row is a read view of one rendered table row.
type Row interface {
	Key() string
	Cell(column string) (Cell, bool)
}

// RenderTarget is the capability surface the reconciler needs from a
// rendered table. Implementations decide what "rendering" means; the
// reconciliation algorithm never touches a concrete UI toolkit.
type RenderTarget interface {
	// Keys returns the stable row keys in display order.
	Keys() []string
	// LocateRow finds a row by its stable key.
	LocateRow(key string) (Row, bool)
	// PatchCell replaces a single cell of an existing row.
	PatchCell(key, column string, cell Cell)
	// SetFlash toggles the transient changed-value state of a cell.
	SetFlash(key, column string, on bool)
	// WriteFooter replaces the footer row.
	WriteFooter(cells map[string]Cell)
}

// RowUpdate carries the freshly rendered cells for one record, keyed by the
// record's stable row key.
type RowUpdate struct {
	Key   string
	Cells map[string]Cell
}
