package model

import (
	"fmt"
	"strings"
	"time"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

const DefaultTransactionStatus = TransactionStatusCompleted

type Transaction struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	CustomerID      *int64            `json:"customer_id,omitempty"`
	Type            TransactionType   `json:"transaction_type"`
	Amount          float64           `json:"amount"`
	Fee             float64           `json:"fee"`
	Provider        string            `json:"provider"` // M-Pesa, Tigo Pesa, Airtel Money, ...
	ReferenceNumber *string           `json:"reference_number,omitempty"`
	PhoneNumber     string            `json:"phone_number"`
	Status          TransactionStatus `json:"status"`
	Timestamp       time.Time         `json:"timestamp"`
	Notes           *string           `json:"notes,omitempty"`
}

func (Transaction) TableName() string { return "transactions" }

type TransactionCreateRequest struct {
	UserID          int64             `json:"user_id"`
	CustomerID      *int64            `json:"customer_id,omitempty"`
	Type            TransactionType   `json:"transaction_type"`
	Amount          float64           `json:"amount"`
	Fee             *float64          `json:"fee,omitempty"`
	Provider        string            `json:"provider"`
	ReferenceNumber *string           `json:"reference_number,omitempty"`
	PhoneNumber     string            `json:"phone_number"`
	Status          TransactionStatus `json:"status,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
}

func (p TransactionCreateRequest) Validate() error {
	if p.UserID == 0 {
		return fmt.Errorf("%w: user_id is required", ErrConstraintViolation)
	}
	if p.Type == "" {
		return fmt.Errorf("%w: transaction_type is required", ErrConstraintViolation)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction_type %q", ErrConstraintViolation, p.Type)
	}
	if p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrConstraintViolation)
	}
	if p.Fee != nil && *p.Fee < 0 {
		return fmt.Errorf("%w: fee cannot be negative", ErrConstraintViolation)
	}
	if strings.TrimSpace(p.Provider) == "" {
		return fmt.Errorf("%w: provider is required", ErrConstraintViolation)
	}
	if strings.TrimSpace(p.PhoneNumber) == "" {
		return fmt.Errorf("%w: phone_number is required", ErrConstraintViolation)
	}
	if p.ReferenceNumber != nil && strings.TrimSpace(*p.ReferenceNumber) == "" {
		return fmt.Errorf("%w: reference_number cannot be blank", ErrConstraintViolation)
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrConstraintViolation, p.Status)
	}
	return nil
}

// ToTransaction builds the row to insert, applying fee=0 and status=completed
// when they are omitted.
func (p TransactionCreateRequest) ToTransaction() *Transaction {
	t := &Transaction{
		UserID:          p.UserID,
		CustomerID:      p.CustomerID,
		Type:            p.Type,
		Amount:          p.Amount,
		Provider:        strings.TrimSpace(p.Provider),
		ReferenceNumber: p.ReferenceNumber,
		PhoneNumber:     strings.TrimSpace(p.PhoneNumber),
		Status:          p.Status,
		Notes:           p.Notes,
	}
	if p.Fee != nil {
		t.Fee = *p.Fee
	}
	if t.Status == "" {
		t.Status = DefaultTransactionStatus
	}
	return t
}

// TransactionFilter controls List queries.
type TransactionFilter struct {
	UserID     *int64
	CustomerID *int64
	Type       *TransactionType
	Status     *TransactionStatus
	Provider   *string
	From       *time.Time
	To         *time.Time
	Limit      int  // default 50
	Offset     int  // for pagination
	Desc       bool // order by id
}

// TransactionSummary aggregates one transaction type for a user.
type TransactionSummary struct {
	Type        TransactionType `json:"transaction_type"`
	Count       int64           `json:"count"`
	TotalAmount float64         `json:"total_amount"`
	TotalFee    float64         `json:"total_fee"`
}
