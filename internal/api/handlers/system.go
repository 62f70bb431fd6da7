// Package handlers implements the HTTP handlers of the dashboard API.
package handlers

import (
	"net/http"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/api/response"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/service"
)

// SystemHandler serves health and metadata endpoints.
type SystemHandler struct {
	svc *service.DashboardService
}

// NewSystemHandler creates a system handler.
func NewSystemHandler(svc *service.DashboardService) *SystemHandler {
	return &SystemHandler{svc: svc}
}

type healthResponse struct {
	Status string `json:"status"`
	service.Health
}

// GetHealth reports service status and cache sizes.
func (h *SystemHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, healthResponse{Status: "ok", Health: h.svc.Health()})
}
