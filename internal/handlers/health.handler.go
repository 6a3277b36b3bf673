package handlers

import (
	"context"
	"time"

	xhttp "github.com/nimasrn/smart-wakala/pkg/http"
)

type HealthService interface {
	Check(ctx context.Context) (map[string]string, error)
}

type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(e *xhttp.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Time   time.Time         `json:"time"`
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	checks, err := h.svc.Check(ctx)
	resp := healthResponse{Status: "ok", Checks: checks, Time: time.Now().UTC()}
	if err != nil {
		resp.Status = "degraded"
		writeJSON(ctx, xhttp.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, resp)
}
