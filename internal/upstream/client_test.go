package upstream_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/config"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/upstream"
)

type staticToken string

func (t staticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

func testConfig(baseURL string) config.UpstreamConfig {
	return config.UpstreamConfig{
		BaseURL: baseURL,
		EntryID: "entry-1",
		Timeout: 2 * time.Second,
	}
}

// TestClient_FetchAccounts tests the happy path and auth headers.
func TestClient_FetchAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/accounts" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("entry_id"); got != "entry-1" {
			t.Errorf("entry_id = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`[{"uuid":"a-1","name":"Giro","balance":"1.234,56"}]`))
	}))
	defer srv.Close()

	c := upstream.NewClient(testConfig(srv.URL), staticToken("tok-1"), zerolog.Nop())
	records, err := c.FetchAccounts(context.Background())
	if err != nil {
		t.Fatalf("FetchAccounts: %v", err)
	}
	if len(records) != 1 || records[0]["uuid"] != "a-1" {
		t.Errorf("records = %v", records)
	}
}

// TestClient_Retry tests transient failure handling.
//
// WHY: The upstream restarts during file reloads; a single 500 must not
// surface as a failed refresh.
func TestClient_Retry(t *testing.T) {
	t.Run("recovers from a transient server error", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				http.Error(w, "restarting", http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`[{"uuid":"p-1","name":"Depot"}]`))
		}))
		defer srv.Close()

		c := upstream.NewClient(testConfig(srv.URL), nil, zerolog.Nop())
		records, err := c.FetchPortfolios(context.Background())
		if err != nil {
			t.Fatalf("FetchPortfolios: %v", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
		if len(records) != 1 {
			t.Errorf("records = %v", records)
		}
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			http.Error(w, "no such portfolio", http.StatusNotFound)
		}))
		defer srv.Close()

		c := upstream.NewClient(testConfig(srv.URL), nil, zerolog.Nop())
		_, err := c.FetchPositions(context.Background(), "p-missing")
		if !errors.Is(err, apperrors.ErrFailedToFetchPositions) {
			t.Errorf("err = %v, want ErrFailedToFetchPositions", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want no retries on 404", calls)
		}
	})

	t.Run("persistent failure exhausts the retries", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := upstream.NewClient(testConfig(srv.URL), nil, zerolog.Nop())
		if _, err := c.FetchAccounts(context.Background()); err == nil {
			t.Fatal("persistent failure reported success")
		}
		if calls != 4 {
			t.Errorf("calls = %d, want initial try plus three retries", calls)
		}
	})
}

// TestClient_Disabled tests the pull-disabled mode.
func TestClient_Disabled(t *testing.T) {
	c := upstream.NewClient(config.UpstreamConfig{}, nil, zerolog.Nop())

	if c.Enabled() {
		t.Error("client enabled without a base URL")
	}
	if _, err := c.FetchAccounts(context.Background()); !errors.Is(err, apperrors.ErrUpstreamUnavailable) {
		t.Errorf("err = %v, want ErrUpstreamUnavailable", err)
	}
}
