package handlers

import (
	"context"

	"github.com/nimasrn/smart-wakala/internal/model"
	xhttp "github.com/nimasrn/smart-wakala/pkg/http"
)

type UserService interface {
	Register(ctx context.Context, p model.UserRegisterRequest) (*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type SummaryService interface {
	Summary(ctx context.Context, userID int64) ([]model.TransactionSummary, error)
}

type UserHandler struct {
	svc     UserService
	summary SummaryService
}

func RegisterUserRoutes(e *xhttp.Group, h *UserHandler) {
	e.POST("/users", h.Register)
	e.GET("/users/{id}", h.GetUser)
	e.DELETE("/users/{id}", h.DeleteUser)
	e.GET("/users/{id}/summary", h.GetSummary)
}

func NewUserHandler(svc UserService, summary SummaryService) *UserHandler {
	return &UserHandler{svc: svc, summary: summary}
}

func (h *UserHandler) Register(ctx *xhttp.RequestCtx) {
	var req model.UserRegisterRequest
	if !readJSON(ctx, &req) {
		return
	}
	u, err := h.svc.Register(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, u)
}

func (h *UserHandler) GetUser(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	u, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, u)
}

func (h *UserHandler) DeleteUser(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

type summaryResponse struct {
	UserID int64                      `json:"user_id"`
	Items  []model.TransactionSummary `json:"items"`
}

func (h *UserHandler) GetSummary(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	items, err := h.summary.Summary(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if items == nil {
		items = []model.TransactionSummary{}
	}
	writeJSON(ctx, xhttp.StatusOK, summaryResponse{UserID: id, Items: items})
}
