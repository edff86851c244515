package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"remindme/internal/application/service"
)

// PingFunc reports whether the backing store is reachable.
type PingFunc func(ctx context.Context) error

// HealthHandler reports process liveness, scheduler health and store
// reachability.
type HealthHandler struct {
	schedulerSvc service.SchedulerService
	ping         PingFunc
}

// NewHealthHandler creates a new HealthHandler. ping may be nil, in which
// case the store check is skipped.
func NewHealthHandler(schedulerSvc service.SchedulerService, ping PingFunc) *HealthHandler {
	return &HealthHandler{schedulerSvc: schedulerSvc, ping: ping}
}

type healthResponse struct {
	Status    string `json:"status"`
	Scheduler string `json:"scheduler"`
	Database  string `json:"database"`
}

// Healthz handles GET /healthz. It degrades when the scheduling loop has
// failed several ticks in a row or the store stops answering, so
// orchestrators restart a process that still serves HTTP but can no longer
// do its job.
func (h *HealthHandler) Healthz(c echo.Context) error {
	resp := healthResponse{Status: "ok", Scheduler: "ok", Database: "ok"}
	if !h.schedulerSvc.Healthy() {
		resp.Status = "degraded"
		resp.Scheduler = "failing"
	}
	if h.ping != nil {
		if err := h.ping(c.Request().Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
		}
	}
	if resp.Status != "ok" {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
