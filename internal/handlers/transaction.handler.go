package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/nimasrn/smart-wakala/internal/idempotency"
	"github.com/nimasrn/smart-wakala/internal/model"
	xhttp "github.com/nimasrn/smart-wakala/pkg/http"
	"github.com/nimasrn/smart-wakala/pkg/logger"
	"github.com/nimasrn/smart-wakala/pkg/prom"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

type TransactionService interface {
	Create(ctx context.Context, p model.TransactionCreateRequest) (*model.Transaction, error)
	Get(ctx context.Context, id int64) (*model.Transaction, error)
	GetByReference(ctx context.Context, ref string) (*model.Transaction, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
	UpdateStatus(ctx context.Context, id int64, status model.TransactionStatus) (*model.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (*idempotency.Response, error)
	Complete(ctx context.Context, key string, resp idempotency.Response) error
	Release(ctx context.Context, key string) error
}

type TransactionHandler struct {
	svc  TransactionService
	idem IdempotencyStore
}

func RegisterTransactionRoutes(e *xhttp.Group, h *TransactionHandler) {
	e.POST("/transactions", h.CreateTransaction)
	e.GET("/transactions", h.ListTransactions)
	e.GET("/transactions/{id}", h.GetTransaction)
	e.PATCH("/transactions/{id}/status", h.UpdateStatus)
	e.DELETE("/transactions/{id}", h.DeleteTransaction)
	e.GET("/references/{ref}", h.GetByReference)
}

// NewTransactionHandler builds the handler. idem may be nil, in which case
// the Idempotency-Key header is ignored.
func NewTransactionHandler(svc TransactionService, idem IdempotencyStore) *TransactionHandler {
	return &TransactionHandler{svc: svc, idem: idem}
}

func (h *TransactionHandler) CreateTransaction(ctx *xhttp.RequestCtx) {
	var req model.TransactionCreateRequest
	if !readJSON(ctx, &req) {
		return
	}
	req.UserID = actingUser(ctx, req.UserID)

	key := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderIdempotencyKey)))
	if key == "" || h.idem == nil {
		h.create(ctx, req)
		return
	}

	// keys are scoped to the acting user
	scoped := strconv.FormatInt(req.UserID, 10) + ":" + key
	stored, err := h.idem.Begin(ctx, scoped)
	switch {
	case errors.Is(err, idempotency.ErrInProgress):
		writeServiceError(ctx, err)
		return
	case errors.Is(err, idempotency.ErrEmptyKey), errors.Is(err, idempotency.ErrKeyTooLong):
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeServiceError(ctx, err)
		return
	case stored != nil:
		prom.IdempotentReplay()
		ctx.Response.Header.Set(HeaderReplayed, "true")
		xhttp.WriteJSON(ctx, stored.Status, stored.Body)
		return
	}

	txn, ok := h.create(ctx, req)
	if !ok {
		_ = h.idem.Release(ctx, scoped)
		return
	}
	body, _ := json.Marshal(txn)
	if err := h.idem.Complete(ctx, scoped, idempotency.Response{Status: xhttp.StatusCreated, Body: body}); err != nil {
		logger.Warn("[transaction] failed to store idempotent response", "key", key, "error", err)
	}
}

func (h *TransactionHandler) create(ctx *xhttp.RequestCtx, req model.TransactionCreateRequest) (*model.Transaction, bool) {
	txn, err := h.svc.Create(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return nil, false
	}
	writeJSON(ctx, xhttp.StatusCreated, txn)
	return txn, true
}

func (h *TransactionHandler) GetTransaction(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	txn, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, txn)
}

func (h *TransactionHandler) GetByReference(ctx *xhttp.RequestCtx) {
	ref, _ := ctx.UserValue("ref").(string)
	txn, err := h.svc.GetByReference(ctx, ref)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, txn)
}

func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	f := model.TransactionFilter{
		UserID:     queryInt64(ctx, "user_id"),
		CustomerID: queryInt64(ctx, "customer_id"),
		Limit:      queryInt(ctx, "limit"),
		Offset:     queryInt(ctx, "offset"),
		Desc:       strings.EqualFold(query(ctx, "order"), "desc"),
	}
	if v := query(ctx, "transaction_type"); v != "" {
		t := model.TransactionType(v)
		f.Type = &t
	}
	if v := query(ctx, "status"); v != "" {
		s := model.TransactionStatus(v)
		f.Status = &s
	}
	if v := query(ctx, "provider"); v != "" {
		f.Provider = &v
	}
	if v := query(ctx, "from"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid from")
			return
		}
		f.From = &t
	}
	if v := query(ctx, "to"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid to")
			return
		}
		f.To = &t
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if items == nil {
		items = []*model.Transaction{}
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Transaction]{Items: items, Total: total})
}

type updateStatusRequest struct {
	Status model.TransactionStatus `json:"status"`
}

func (h *TransactionHandler) UpdateStatus(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if !readJSON(ctx, &req) {
		return
	}
	txn, err := h.svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, txn)
}

func (h *TransactionHandler) DeleteTransaction(ctx *xhttp.RequestCtx) {
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
