package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/config"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/push"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/render"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/repository"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/service"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/store"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/testutil"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/upstream"
)

type fakeHub struct {
	mu        sync.Mutex
	envelopes []push.Envelope
}

func (h *fakeHub) Broadcast(env push.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.envelopes = append(h.envelopes, env)
}

func (h *fakeHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.envelopes)
}

// upstreamStub serves canned account, portfolio and position payloads and
// counts position fetches.
type upstreamStub struct {
	srv           *httptest.Server
	positionCalls int
}

func newUpstreamStub(t *testing.T) *upstreamStub {
	t.Helper()
	stub := &upstreamStub{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"uuid":"a-1","name":"Giro","currency_code":"EUR","balance":"1.234,56"}
		]`))
	})
	mux.HandleFunc("/api/portfolios", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"uuid":"p-1","name":"Depot","position_count":2,"current_value":1100,
			 "purchase_sum":1000,
			 "performance":{"gain_abs":100,"gain_pct":10,"total_change_eur":100,"total_change_pct":10}}
		]`))
	})
	mux.HandleFunc("/api/portfolios/p-1/positions", func(w http.ResponseWriter, r *http.Request) {
		stub.positionCalls++
		w.Write([]byte(`[
			{"security_uuid":"s-1","name":"Aktie","current_holdings":10,
			 "purchase_value":1000,"current_value":1250}
		]`))
	})
	stub.srv = httptest.NewServer(mux)
	t.Cleanup(stub.srv.Close)
	return stub
}

func (s *upstreamStub) client() *upstream.Client {
	return upstream.NewClient(config.UpstreamConfig{
		BaseURL: s.srv.URL,
		Timeout: 2 * time.Second,
	}, nil, zerolog.Nop())
}

func newService(t *testing.T, client *upstream.Client) (*service.DashboardService, *testutil.VirtualScheduler, *fakeHub) {
	t.Helper()
	sched := testutil.NewVirtualScheduler()
	hub := &fakeHub{}
	svc := service.NewDashboardService(service.Options{
		Store:     store.New(),
		Upstream:  client,
		Hub:       hub,
		Scheduler: sched,
		EntryID:   "entry-1",
		Logger:    zerolog.Nop(),
	})
	return svc, sched, hub
}

// TestDashboardService_Refresh tests the pull pipeline end to end.
func TestDashboardService_Refresh(t *testing.T) {
	stub := newUpstreamStub(t)
	svc, _, _ := newService(t, stub.client())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	html := svc.AccountsTable().HTML()
	if !strings.Contains(html, "1.234,56 €") {
		t.Errorf("accounts table missing formatted balance:\n%s", html)
	}
	portfolios := svc.PortfoliosTable().HTML()
	for _, want := range []string{`data-portfolio="p-1"`, "1.100,00 €", "+100,00 €", `class="pp-footer"`} {
		if !strings.Contains(portfolios, want) {
			t.Errorf("portfolio table missing %q", want)
		}
	}
	if got := len(svc.Portfolios()); got != 1 {
		t.Errorf("cached portfolios = %d, want 1", got)
	}
}

// TestDashboardService_ApplyPortfolioValues tests partial push updates.
//
// WHY: A value-only tick must patch the value cell, keep the cached gain
// from the performance record and leave every other cell untouched.
func TestDashboardService_ApplyPortfolioValues(t *testing.T) {
	stub := newUpstreamStub(t)
	svc, sched, _ := newService(t, stub.client())
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	err := svc.ApplyPortfolioValues(json.RawMessage(
		`[{"uuid":"p-1","name":"Depot","position_count":2,"current_value":1300,"purchase_sum":1000}]`,
	))
	if err != nil {
		t.Fatalf("ApplyPortfolioValues: %v", err)
	}

	table := svc.PortfoliosTable()
	row, _ := table.LocateRow("p-1")
	if cell, _ := row.Cell(render.ColCurrentValue); cell.Value != 1300 {
		t.Errorf("current value = %v, want 1300", cell.Value)
	}
	if cell, _ := row.Cell(render.ColGainAbs); cell.Value != 100 {
		t.Errorf("gain = %v, want preserved 100", cell.Value)
	}
	if !table.Flashing("p-1", render.ColCurrentValue) {
		t.Error("patched value cell not flashing")
	}
	if table.Flashing("p-1", render.ColGainAbs) {
		t.Error("unchanged gain cell flashing")
	}

	sched.Advance(800 * time.Millisecond)
	if table.Flashing("p-1", render.ColCurrentValue) {
		t.Error("flash not cleared")
	}
}

// TestDashboardService_ExpandPortfolio tests the detail panel lifecycle.
func TestDashboardService_ExpandPortfolio(t *testing.T) {
	t.Run("fetches once, then serves from cache", func(t *testing.T) {
		stub := newUpstreamStub(t)
		svc, _, _ := newService(t, stub.client())
		ctx := context.Background()
		if err := svc.Refresh(ctx); err != nil {
			t.Fatalf("Refresh: %v", err)
		}

		table, positions, err := svc.ExpandPortfolio(ctx, "p-1")
		if err != nil {
			t.Fatalf("ExpandPortfolio: %v", err)
		}
		if len(positions) != 1 || positions[0].SecurityUUID != "s-1" {
			t.Fatalf("positions = %+v", positions)
		}
		if !strings.Contains(table.HTML(), `data-security="s-1"`) {
			t.Error("detail table missing position row")
		}

		svc.CollapsePortfolio("p-1")
		if _, _, err := svc.ExpandPortfolio(ctx, "p-1"); err != nil {
			t.Fatalf("second ExpandPortfolio: %v", err)
		}
		if stub.positionCalls != 1 {
			t.Errorf("position fetches = %d, want 1 (cache hit on re-expand)", stub.positionCalls)
		}
	})

	t.Run("unknown portfolio", func(t *testing.T) {
		stub := newUpstreamStub(t)
		svc, _, _ := newService(t, stub.client())

		_, _, err := svc.ExpandPortfolio(context.Background(), "p-missing")
		if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			t.Errorf("err = %v, want ErrPortfolioNotFound", err)
		}
	})

	t.Run("pushed detail reconciles an open panel", func(t *testing.T) {
		stub := newUpstreamStub(t)
		svc, _, _ := newService(t, stub.client())
		ctx := context.Background()
		if err := svc.Refresh(ctx); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
		table, _, err := svc.ExpandPortfolio(ctx, "p-1")
		if err != nil {
			t.Fatalf("ExpandPortfolio: %v", err)
		}

		err = svc.ApplyPositions(json.RawMessage(`[{
			"portfolio_uuid":"p-1",
			"positions":[{"security_uuid":"s-1","name":"Aktie","current_holdings":10,
				"purchase_value":1000,"current_value":1400}]
		}]`))
		if err != nil {
			t.Fatalf("ApplyPositions: %v", err)
		}

		row, _ := table.LocateRow("s-1")
		if cell, _ := row.Cell(render.ColCurrentValue); cell.Value != 1400 {
			t.Errorf("current value = %v, want pushed 1400", cell.Value)
		}
	})
}

// TestDashboardService_Broadcast tests stream fan-out of applied pushes.
func TestDashboardService_Broadcast(t *testing.T) {
	stub := newUpstreamStub(t)
	svc, _, hub := newService(t, stub.client())

	if err := svc.ApplyLastFileUpdate(json.RawMessage(`"2026-08-29T10:00:00Z"`)); err != nil {
		t.Fatalf("ApplyLastFileUpdate: %v", err)
	}

	if svc.LastFileUpdate() != "2026-08-29T10:00:00Z" {
		t.Errorf("last file update = %q", svc.LastFileUpdate())
	}
	if hub.count() != 1 {
		t.Fatalf("broadcasts = %d, want 1", hub.count())
	}
	hub.mu.Lock()
	env := hub.envelopes[0]
	hub.mu.Unlock()
	if env.DataType != push.DataLastFileUpdate || env.EntryID != "entry-1" {
		t.Errorf("envelope = %+v", env)
	}
}

// TestDashboardService_Snapshot tests warm-start persistence.
func TestDashboardService_Snapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSnapshotRepository(db)
	stub := newUpstreamStub(t)
	ctx := context.Background()

	first := service.NewDashboardService(service.Options{
		Store:     store.New(),
		Upstream:  stub.client(),
		Snapshots: repo,
		Scheduler: testutil.NewVirtualScheduler(),
		Logger:    zerolog.Nop(),
	})
	if err := first.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := first.PersistSnapshot(ctx); err != nil {
		t.Fatalf("PersistSnapshot: %v", err)
	}

	second := service.NewDashboardService(service.Options{
		Store:     store.New(),
		Upstream:  stub.client(),
		Snapshots: repo,
		Scheduler: testutil.NewVirtualScheduler(),
		Logger:    zerolog.Nop(),
	})
	if err := second.RestoreSnapshot(ctx); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}

	if got := len(second.Portfolios()); got != 1 {
		t.Fatalf("restored portfolios = %d, want 1", got)
	}
	if !strings.Contains(second.PortfoliosTable().HTML(), `data-portfolio="p-1"`) {
		t.Error("restored portfolio table missing row")
	}
}
