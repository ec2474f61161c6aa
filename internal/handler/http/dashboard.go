package http

import (
	"log/slog"
	"net/http"

	"github.com/wellknownalpha/bloom-pos/internal/service"
	"github.com/wellknownalpha/bloom-pos/pkg/httputil"
)

// DashboardHandler serves the shop overview.
type DashboardHandler struct {
	service *service.DashboardService
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard HTTP handler.
func NewDashboardHandler(svc *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: svc, logger: logger}
}

// Get handles GET /api/v1/dashboard
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toDashboardResponse(summary)})
}
