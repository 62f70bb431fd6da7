package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/api/response"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/model"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/service"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/validation"
)

// DashboardHandler serves the dashboard tables, as JSON records or as
// rendered HTML fragments.
type DashboardHandler struct {
	svc *service.DashboardService
	log zerolog.Logger
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(svc *service.DashboardService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, log: log}
}

// format validates the optional ?format query parameter.
func format(r *http.Request) (string, *validation.Error) {
	f := r.URL.Query().Get("format")
	if f == "" {
		f = "json"
	}
	verr := validation.New()
	verr.OneOf("format", f, "json", "html")
	if verr.HasErrors() {
		return "", verr
	}
	return f, nil
}

// GetAccounts returns the accounts table.
func (h *DashboardHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	f, verr := format(r)
	if verr != nil {
		response.Error(w, verr)
		return
	}
	if f == "html" {
		response.HTML(w, http.StatusOK, h.svc.AccountsTable().HTML())
		return
	}
	response.JSON(w, http.StatusOK, map[string][]model.Account{"accounts": h.svc.Accounts()})
}

// GetPortfolios returns the portfolio overview table.
func (h *DashboardHandler) GetPortfolios(w http.ResponseWriter, r *http.Request) {
	f, verr := format(r)
	if verr != nil {
		response.Error(w, verr)
		return
	}
	if f == "html" {
		response.HTML(w, http.StatusOK, h.svc.PortfoliosTable().HTML())
		return
	}
	response.JSON(w, http.StatusOK, map[string][]model.Portfolio{"portfolios": h.svc.Portfolios()})
}

type positionsResponse struct {
	PortfolioUUID string           `json:"portfolio_uuid"`
	Positions     []model.Position `json:"positions"`
}

// GetPositions expands a portfolio and returns its detail table.
func (h *DashboardHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	verr := validation.New()
	verr.Required("uuid", uuid)
	verr.UUID("uuid", uuid)
	if verr.HasErrors() {
		response.Error(w, verr)
		return
	}
	f, fverr := format(r)
	if fverr != nil {
		response.Error(w, fverr)
		return
	}

	table, positions, err := h.svc.ExpandPortfolio(r.Context(), uuid)
	if err != nil {
		h.log.Warn().Err(err).Str("portfolio", uuid).Msg("expanding portfolio failed")
		response.Error(w, err)
		return
	}

	if f == "html" {
		response.HTML(w, http.StatusOK, table.HTML())
		return
	}
	response.JSON(w, http.StatusOK, positionsResponse{PortfolioUUID: uuid, Positions: positions})
}

// Collapse drops the rendered detail table of a portfolio.
func (h *DashboardHandler) Collapse(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	verr := validation.New()
	verr.Required("uuid", uuid)
	verr.UUID("uuid", uuid)
	if verr.HasErrors() {
		response.Error(w, verr)
		return
	}

	h.svc.CollapsePortfolio(uuid)
	response.JSON(w, http.StatusOK, map[string]string{"status": "collapsed"})
}
