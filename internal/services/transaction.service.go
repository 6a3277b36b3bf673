package services

import (
	"context"
	"errors"
	"fmt"

	gateway "github.com/nimasrn/smart-wakala/internal/gateways"
	"github.com/nimasrn/smart-wakala/internal/model"
	"github.com/nimasrn/smart-wakala/pkg/logger"
	"github.com/nimasrn/smart-wakala/pkg/prom"
)

var ErrProviderFailed = errors.New("provider confirmation failed")

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	EnsureOwners(ctx context.Context, userID int64, customerID *int64) error
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	GetByReference(ctx context.Context, ref string) (*model.Transaction, error)
	UpdateStatus(ctx context.Context, id int64, status model.TransactionStatus) (*model.Transaction, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
	Summary(ctx context.Context, userID int64) ([]model.TransactionSummary, error)
}

// ReferenceIssuer confirms a transaction with the mobile-money provider and
// hands back the provider's reference number.
type ReferenceIssuer interface {
	Confirm(ctx context.Context, req gateway.ConfirmRequest) (*gateway.ConfirmResponse, error)
}

type TransactionService struct {
	repo   TransactionRepository
	issuer ReferenceIssuer
}

// NewTransactionService builds the service. issuer may be nil, in which case
// transactions without a reference number are stored without one.
func NewTransactionService(repo TransactionRepository, issuer ReferenceIssuer) *TransactionService {
	return &TransactionService{repo: repo, issuer: issuer}
}

func (s *TransactionService) Create(ctx context.Context, p model.TransactionCreateRequest) (*model.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	txn := p.ToTransaction()

	if txn.ReferenceNumber == nil && s.issuer != nil {
		// the provider must not confirm a transaction that cannot be stored
		if err := s.repo.EnsureOwners(ctx, txn.UserID, txn.CustomerID); err != nil {
			return nil, err
		}
		resp, err := s.issuer.Confirm(ctx, gateway.ConfirmRequest{
			TransactionType: string(txn.Type),
			Amount:          txn.Amount,
			Provider:        txn.Provider,
			PhoneNumber:     txn.PhoneNumber,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProviderFailed, err)
		}
		ref := resp.ReferenceNumber
		txn.ReferenceNumber = &ref
		if st := model.TransactionStatus(resp.Status); st.Valid() {
			txn.Status = st
		}
	}

	created, err := s.repo.Create(ctx, txn)
	if err != nil {
		return nil, err
	}
	prom.TransactionCreated(string(created.Type), created.Provider, created.Amount)
	logger.Info("[transaction] created",
		"transaction_id", created.ID,
		"user_id", created.UserID,
		"type", created.Type,
		"provider", created.Provider,
		"status", created.Status,
	)
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TransactionService) GetByReference(ctx context.Context, ref string) (*model.Transaction, error) {
	return s.repo.GetByReference(ctx, ref)
}

func (s *TransactionService) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	if f.Type != nil && !f.Type.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown transaction_type %q", model.ErrConstraintViolation, *f.Type)
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", model.ErrConstraintViolation, *f.Status)
	}
	return s.repo.List(ctx, f)
}

func (s *TransactionService) UpdateStatus(ctx context.Context, id int64, status model.TransactionStatus) (*model.Transaction, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrConstraintViolation, status)
	}
	txn, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	logger.Info("[transaction] status updated", "transaction_id", id, "status", status)
	return txn, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *TransactionService) Summary(ctx context.Context, userID int64) ([]model.TransactionSummary, error) {
	return s.repo.Summary(ctx, userID)
}
