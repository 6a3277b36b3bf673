package handlers

import (
	"context"
	"iter"
	"strings"

	"github.com/nimasrn/smart-wakala/internal/model"
	xhttp "github.com/nimasrn/smart-wakala/pkg/http"
)

type CustomerService interface {
	Create(ctx context.Context, p model.CustomerCreateRequest) (*model.Customer, error)
	Get(ctx context.Context, id int64) (*model.Customer, error)
	Update(ctx context.Context, id int64, p model.CustomerUpdateRequest) (*model.Customer, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, int64, error)
	ListTransactions(ctx context.Context, customerID int64, desc bool) (iter.Seq2[*model.Transaction, error], error)
}

type CustomerHandler struct {
	svc CustomerService
}

func RegisterCustomerRoutes(e *xhttp.Group, h *CustomerHandler) {
	e.POST("/customers", h.CreateCustomer)
	e.GET("/customers", h.ListCustomers)
	e.GET("/customers/{id}", h.GetCustomer)
	e.PATCH("/customers/{id}", h.UpdateCustomer)
	e.DELETE("/customers/{id}", h.DeleteCustomer)
	e.GET("/customers/{id}/transactions", h.ListCustomerTransactions)
}

func NewCustomerHandler(svc CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

func (h *CustomerHandler) CreateCustomer(ctx *xhttp.RequestCtx) {
	var req model.CustomerCreateRequest
	if !readJSON(ctx, &req) {
		return
	}
	req.UserID = actingUser(ctx, req.UserID)
	c, err := h.svc.Create(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, c)
}

func (h *CustomerHandler) GetCustomer(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	c, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, c)
}

func (h *CustomerHandler) UpdateCustomer(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req model.CustomerUpdateRequest
	if !readJSON(ctx, &req) {
		return
	}
	c, err := h.svc.Update(ctx, id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, c)
}

func (h *CustomerHandler) DeleteCustomer(ctx *xhttp.RequestCtx) {
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

func (h *CustomerHandler) ListCustomers(ctx *xhttp.RequestCtx) {
	f := model.CustomerFilter{
		UserID: queryInt64(ctx, "user_id"),
		Limit:  queryInt(ctx, "limit"),
		Offset: queryInt(ctx, "offset"),
	}
	if v := query(ctx, "phone"); v != "" {
		f.PhoneNumber = &v
	}
	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if items == nil {
		items = []*model.Customer{}
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Customer]{Items: items, Total: total})
}

// ListCustomerTransactions ranges over the customer's transactions, stopping
// after ?limit= items when it is set.
func (h *CustomerHandler) ListCustomerTransactions(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	desc := strings.EqualFold(query(ctx, "order"), "desc")
	limit := queryInt(ctx, "limit")

	seq, err := h.svc.ListTransactions(ctx, id, desc)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	items := []*model.Transaction{}
	for txn, err := range seq {
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		items = append(items, txn)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Transaction]{Items: items, Total: int64(len(items))})
}
