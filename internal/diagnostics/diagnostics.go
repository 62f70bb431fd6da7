// Package diagnostics tracks metric provenance across refreshes. Each
// record's coverage ratio, provenance, metric run and generation timestamp
// are compared against the previously observed values; changes are emitted
// to subscribed handlers and logged, so silent shifts in data quality are
// visible without diffing payloads by hand.
package diagnostics

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
)

// Metadata is the tracked provenance slice of one record.
type Metadata struct {
	CoverageRatio *float64
	Provenance    string
	MetricRunUUID string
	GeneratedAt   string
}

// Change describes one observed metadata field transition.
type Change struct {
	Entity    string    `json:"entity"`
	Key       string    `json:"key"`
	Field     string    `json:"field"`
	Previous  string    `json:"previous"`
	Current   string    `json:"current"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler receives metadata changes. Handlers run synchronously on the
// observing goroutine and must not block.
type Handler func(Change)

// Notifier compares observed metadata against the last observation per
// record. Safe for concurrent use.
type Notifier struct {
	mu       sync.Mutex
	seen     map[string]Metadata
	handlers []Handler
	log      zerolog.Logger
	now      func() time.Time
}

// NewNotifier creates a notifier logging changes through the given logger.
func NewNotifier(log zerolog.Logger) *Notifier {
	return &Notifier{
		seen: make(map[string]Metadata),
		log:  log,
		now:  time.Now,
	}
}

// Subscribe registers a handler for future changes.
func (n *Notifier) Subscribe(h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, h)
}

// Observe records the current metadata of one record and emits a change
// event per field that differs from the previous observation. The first
// observation of a record establishes the baseline and emits nothing.
func (n *Notifier) Observe(entity, key string, meta Metadata) {
	if key == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	id := entity + "/" + key
	prior, known := n.seen[id]
	n.seen[id] = meta
	if !known {
		return
	}

	now := n.now()
	n.compare(entity, key, "coverage_ratio", ratioString(prior.CoverageRatio), ratioString(meta.CoverageRatio), now)
	n.compare(entity, key, "provenance", prior.Provenance, meta.Provenance, now)
	n.compare(entity, key, "metric_run_uuid", prior.MetricRunUUID, meta.MetricRunUUID, now)
	n.compare(entity, key, "generated_at", prior.GeneratedAt, meta.GeneratedAt, now)
}

// Reset forgets every baseline, so the next observations start fresh.
func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = make(map[string]Metadata)
}

func (n *Notifier) compare(entity, key, field, previous, current string, now time.Time) {
	if previous == current {
		return
	}
	change := Change{
		Entity:    entity,
		Key:       key,
		Field:     field,
		Previous:  previous,
		Current:   current,
		Timestamp: now,
	}
	n.log.Info().
		Str("entity", entity).
		Str("key", key).
		Str("field", field).
		Str("previous", previous).
		Str("current", current).
		Msg("metric metadata changed")
	for _, h := range n.handlers {
		h(change)
	}
}

func ratioString(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ObserveAccount observes an account record's provenance metadata.
func (n *Notifier) ObserveAccount(acc model.Account) {
	n.Observe("account", acc.UUID, Metadata{
		CoverageRatio: acc.CoverageRatio,
		Provenance:    acc.Provenance,
		MetricRunUUID: acc.MetricRunUUID,
	})
}

// ObservePortfolio observes a portfolio record's provenance metadata,
// including the generation timestamp of its data state.
func (n *Notifier) ObservePortfolio(p model.Portfolio) {
	meta := Metadata{
		CoverageRatio: p.CoverageRatio,
		Provenance:    p.Provenance,
		MetricRunUUID: p.MetricRunUUID,
	}
	if p.DataState != nil {
		meta.GeneratedAt = p.DataState.GeneratedAt
	}
	n.Observe("portfolio", p.UUID, meta)
}

// ObservePosition observes a position record's provenance metadata.
func (n *Notifier) ObservePosition(pos model.Position) {
	meta := Metadata{
		CoverageRatio: pos.CoverageRatio,
		Provenance:    pos.Provenance,
		MetricRunUUID: pos.MetricRunUUID,
	}
	if pos.DataState != nil {
		meta.GeneratedAt = pos.DataState.GeneratedAt
	}
	n.Observe("position", pos.SecurityUUID, meta)
}
