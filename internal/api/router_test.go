package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/api"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/config"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/push"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/service"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/store"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/testutil"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/upstream"
)

const (
	accountUUID   = "7c9e6679-7425-40de-963d-02b1dd4c3a55"
	portfolioUUID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"
	securityUUID  = "9b2d7a42-1f63-4a0e-8cbb-5a1f0e6d2c11"
)

// setupAPI builds a router backed by a seeded service and a stub upstream.
func setupAPI(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"uuid":"` + accountUUID + `","name":"Giro","currency_code":"EUR","balance":"1.234,56"}]`))
	})
	mux.HandleFunc("/api/portfolios", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"uuid":"` + portfolioUUID + `","name":"Depot","position_count":1,
			"current_value":1100,"purchase_sum":1000}]`))
	})
	mux.HandleFunc("/api/portfolios/"+portfolioUUID+"/positions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"security_uuid":"` + securityUUID + `","name":"Aktie",
			"current_holdings":10,"purchase_value":1000,"current_value":1250}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := upstream.NewClient(config.UpstreamConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, nil, zerolog.Nop())

	svc := service.NewDashboardService(service.Options{
		Store:     store.New(),
		Upstream:  client,
		Scheduler: testutil.NewVirtualScheduler(),
		EntryID:   "entry-1",
		Logger:    zerolog.Nop(),
	})
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("seeding service: %v", err)
	}

	dispatcher := push.NewDispatcher("entry-1", zerolog.Nop())
	svc.RegisterHandlers(dispatcher)

	return api.NewRouter(api.Dependencies{
		Service:    svc,
		Dispatcher: dispatcher,
		Hub:        push.NewHub(zerolog.Nop()),
		CORS:       config.CORSConfig{AllowedOrigins: []string{"*"}},
		Logger:     zerolog.Nop(),
	})
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestRouter_Health tests the health endpoint.
func TestRouter_Health(t *testing.T) {
	router := setupAPI(t)

	rec := doRequest(t, router, http.MethodGet, "/api/system/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Status     string `json:"status"`
		Portfolios int    `json:"portfolios"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Status != "ok" || body.Portfolios != 1 {
		t.Errorf("body = %+v", body)
	}
}

// TestRouter_Accounts tests JSON and HTML table output.
func TestRouter_Accounts(t *testing.T) {
	router := setupAPI(t)

	t.Run("json", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/dashboard/accounts", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"uuid":"`+accountUUID+`"`) {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("html fragment", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/dashboard/accounts?format=html", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("content type = %q", ct)
		}
		if !strings.Contains(rec.Body.String(), "1.234,56 €") {
			t.Errorf("fragment missing formatted balance:\n%s", rec.Body.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/dashboard/accounts?format=xml", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// TestRouter_Positions tests the detail expansion endpoint.
func TestRouter_Positions(t *testing.T) {
	router := setupAPI(t)

	t.Run("expands and returns positions", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/dashboard/portfolios/"+portfolioUUID+"/positions", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), securityUUID) {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("malformed uuid", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/dashboard/portfolios/not-a-uuid/positions", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown portfolio", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/api/dashboard/portfolios/00000000-0000-4000-8000-000000000000/positions", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("collapse", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost,
			"/api/dashboard/portfolios/"+portfolioUUID+"/collapse", "")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

// TestRouter_IngestPush tests the push ingestion endpoint.
func TestRouter_IngestPush(t *testing.T) {
	router := setupAPI(t)

	t.Run("applies a single envelope", func(t *testing.T) {
		body := `{"data_type":"portfolio_values","entry_id":"entry-1",
			"data":[{"uuid":"` + portfolioUUID + `","name":"Depot","current_value":1300}]}`
		rec := doRequest(t, router, http.MethodPost, "/api/ingest/push", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		check := doRequest(t, router, http.MethodGet, "/api/dashboard/portfolios?format=html", "")
		if !strings.Contains(check.Body.String(), "1.300,00 €") {
			t.Error("pushed value not reflected in the rendered table")
		}
	})

	t.Run("foreign entry is skipped silently", func(t *testing.T) {
		body := `{"data_type":"portfolio_values","entry_id":"entry-9","data":[]}`
		rec := doRequest(t, router, http.MethodPost, "/api/ingest/push", body)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 for ignored envelope", rec.Code)
		}
	})

	t.Run("unknown data type", func(t *testing.T) {
		body := `{"data_type":"exchange_rates","data":[]}`
		rec := doRequest(t, router, http.MethodPost, "/api/ingest/push", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing data type", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/ingest/push", `{"data":[]}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
