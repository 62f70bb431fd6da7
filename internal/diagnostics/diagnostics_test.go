package diagnostics_test

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/diagnostics"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
)

func collect(n *diagnostics.Notifier) *[]diagnostics.Change {
	changes := &[]diagnostics.Change{}
	n.Subscribe(func(c diagnostics.Change) {
		*changes = append(*changes, c)
	})
	return changes
}

// TestNotifier_Observe tests baseline and change emission.
//
// WHY: The first sighting of a record must not fire; every refresh would
// otherwise spam handlers with pseudo-changes for unchanged data.
func TestNotifier_Observe(t *testing.T) {
	t.Run("first observation is the silent baseline", func(t *testing.T) {
		n := diagnostics.NewNotifier(zerolog.Nop())
		changes := collect(n)

		n.Observe("portfolio", "p-1", diagnostics.Metadata{Provenance: "live"})

		if len(*changes) != 0 {
			t.Errorf("baseline emitted %d changes", len(*changes))
		}
	})

	t.Run("changed field emits previous and current", func(t *testing.T) {
		n := diagnostics.NewNotifier(zerolog.Nop())
		changes := collect(n)

		n.Observe("portfolio", "p-1", diagnostics.Metadata{Provenance: "live", MetricRunUUID: "run-1"})
		n.Observe("portfolio", "p-1", diagnostics.Metadata{Provenance: "cached", MetricRunUUID: "run-1"})

		if len(*changes) != 1 {
			t.Fatalf("got %d changes, want 1", len(*changes))
		}
		c := (*changes)[0]
		if c.Field != "provenance" || c.Previous != "live" || c.Current != "cached" {
			t.Errorf("change = %+v", c)
		}
	})

	t.Run("unchanged metadata stays silent", func(t *testing.T) {
		n := diagnostics.NewNotifier(zerolog.Nop())
		changes := collect(n)

		meta := diagnostics.Metadata{
			CoverageRatio: model.Float64Ptr(0.95),
			Provenance:    "live",
		}
		n.Observe("account", "a-1", meta)
		n.Observe("account", "a-1", meta)

		if len(*changes) != 0 {
			t.Errorf("unchanged metadata emitted %d changes", len(*changes))
		}
	})

	t.Run("coverage ratio change carries formatted values", func(t *testing.T) {
		n := diagnostics.NewNotifier(zerolog.Nop())
		changes := collect(n)

		n.Observe("account", "a-1", diagnostics.Metadata{CoverageRatio: model.Float64Ptr(1)})
		n.Observe("account", "a-1", diagnostics.Metadata{CoverageRatio: model.Float64Ptr(0.5)})

		if len(*changes) != 1 {
			t.Fatalf("got %d changes, want 1", len(*changes))
		}
		if c := (*changes)[0]; c.Previous != "1" || c.Current != "0.5" {
			t.Errorf("change = %+v", c)
		}
	})
}

// TestNotifier_ObservePortfolio tests generated_at tracking via data state.
func TestNotifier_ObservePortfolio(t *testing.T) {
	n := diagnostics.NewNotifier(zerolog.Nop())
	changes := collect(n)

	p := model.Portfolio{
		UUID:      "p-1",
		DataState: &model.DataState{GeneratedAt: "2026-08-01T10:00:00Z"},
	}
	n.ObservePortfolio(p)
	p.DataState = &model.DataState{GeneratedAt: "2026-08-01T10:05:00Z"}
	n.ObservePortfolio(p)

	if len(*changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(*changes))
	}
	if c := (*changes)[0]; c.Field != "generated_at" || c.Current != "2026-08-01T10:05:00Z" {
		t.Errorf("change = %+v", c)
	}
}
