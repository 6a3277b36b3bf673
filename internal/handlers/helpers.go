package handlers

import (
	"errors"
	"strconv"
	"time"

	gateway "github.com/nimasrn/smart-wakala/internal/gateways"
	"github.com/nimasrn/smart-wakala/internal/idempotency"
	"github.com/nimasrn/smart-wakala/internal/model"
	"github.com/nimasrn/smart-wakala/internal/services"
	xhttp "github.com/nimasrn/smart-wakala/pkg/http"
	"github.com/nimasrn/smart-wakala/pkg/logger"
)

type listResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	xhttp.WriteJSON(ctx, status, v)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	xhttp.WriteError(ctx, status, msg)
}

func readJSON(ctx *xhttp.RequestCtx, dst any) bool {
	if err := xhttp.ReadJSON(ctx, dst); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// writeServiceError maps service and repository errors onto HTTP statuses.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	status := xhttp.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound), errors.Is(err, services.ErrSessionNotFound):
		status = xhttp.StatusNotFound
	case errors.Is(err, model.ErrConstraintViolation), errors.Is(err, idempotency.ErrInProgress):
		status = xhttp.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		status = xhttp.StatusUnauthorized
	case errors.Is(err, gateway.ErrRejected):
		status = xhttp.StatusUnprocessableEntity
	case errors.Is(err, gateway.ErrCircuitOpen):
		status = xhttp.StatusServiceUnavailable
	case errors.Is(err, services.ErrProviderFailed):
		status = xhttp.StatusBadGateway
	}
	if status == xhttp.StatusInternalServerError {
		logger.Error("[handlers] request failed", "path", string(ctx.Path()), "error", err, "request_id", xhttp.RequestID(ctx))
		writeError(ctx, status, xhttp.StatusText(status))
		return
	}
	writeError(ctx, status, err.Error())
}

// pathID reads a positive int64 route parameter, answering 400 otherwise.
func pathID(ctx *xhttp.RequestCtx, name string) (int64, bool) {
	v, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		writeError(ctx, xhttp.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func queryInt64(ctx *xhttp.RequestCtx, key string) *int64 {
	if v := query(ctx, key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

func queryInt(ctx *xhttp.RequestCtx, key string) int {
	n, _ := strconv.Atoi(query(ctx, key))
	return n
}

func parseTime(s string) (time.Time, error) {
	// RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
