package services

import (
	"context"
	"iter"
	"strings"

	"github.com/nimasrn/smart-wakala/internal/model"
	"github.com/nimasrn/smart-wakala/pkg/logger"
	"github.com/nimasrn/smart-wakala/pkg/prom"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) (*model.Customer, error)
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	Update(ctx context.Context, id int64, p model.CustomerUpdateRequest) (*model.Customer, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, int64, error)
}

type CustomerTransactions interface {
	IterateByCustomer(ctx context.Context, customerID int64, desc bool) iter.Seq2[*model.Transaction, error]
}

type CustomerService struct {
	repo         CustomerRepository
	transactions CustomerTransactions
}

func NewCustomerService(repo CustomerRepository, transactions CustomerTransactions) *CustomerService {
	return &CustomerService{repo: repo, transactions: transactions}
}

func (s *CustomerService) Create(ctx context.Context, p model.CustomerCreateRequest) (*model.Customer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c, err := s.repo.Create(ctx, &model.Customer{
		UserID:      p.UserID,
		FirstName:   strings.TrimSpace(p.FirstName),
		LastName:    strings.TrimSpace(p.LastName),
		PhoneNumber: strings.TrimSpace(p.PhoneNumber),
		Email:       model.TrimOptional(p.Email),
		IDType:      model.TrimOptional(p.IDType),
		IDNumber:    model.TrimOptional(p.IDNumber),
	})
	if err != nil {
		return nil, err
	}
	prom.CustomerCreated()
	logger.Info("[customer] created", "customer_id", c.ID, "user_id", c.UserID)
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*model.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial update. An empty patch only re-stamps updated_at.
func (s *CustomerService) Update(ctx context.Context, id int64, p model.CustomerUpdateRequest) (*model.Customer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("[customer] deleted", "customer_id", id)
	return nil
}

func (s *CustomerService) List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	return s.repo.List(ctx, f)
}

// ListTransactions returns the customer's transactions as a lazy sequence in
// id order, newest first when desc is set. The customer must exist.
func (s *CustomerService) ListTransactions(ctx context.Context, customerID int64, desc bool) (iter.Seq2[*model.Transaction, error], error) {
	if _, err := s.repo.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.transactions.IterateByCustomer(ctx, customerID, desc), nil
}
