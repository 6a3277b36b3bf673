package repository

import (
	"time"

	"github.com/nimasrn/smart-wakala/internal/model"
)

type TransactionEntity struct {
	ID              int64           `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	UserID          int64           `db:"user_id"          gorm:"column:user_id;not null;index"`
	User            *UserEntity     `                      gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:RESTRICT"`
	CustomerID      *int64          `db:"customer_id"      gorm:"column:customer_id;index"` // nullable (ON DELETE SET NULL)
	Customer        *CustomerEntity `                      gorm:"foreignKey:CustomerID;references:ID;constraint:OnDelete:SET NULL"`
	Type            string          `db:"transaction_type" gorm:"column:transaction_type;size:20;not null"`
	Amount          float64         `db:"amount"           gorm:"column:amount;not null"`
	Fee             float64         `db:"fee"              gorm:"column:fee;not null;default:0"`
	Provider        string          `db:"provider"         gorm:"column:provider;size:20;not null"`
	ReferenceNumber *string         `db:"reference_number" gorm:"column:reference_number;size:64;uniqueIndex"`
	PhoneNumber     string          `db:"phone_number"     gorm:"column:phone_number;size:20;not null"`
	Status          string          `db:"status"           gorm:"column:status;size:20;not null;default:completed"`
	Timestamp       time.Time       `db:"timestamp"        gorm:"column:timestamp;autoCreateTime"`
	Notes           *string         `db:"notes"            gorm:"column:notes;type:text"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:              m.ID,
		UserID:          m.UserID,
		CustomerID:      m.CustomerID,
		Type:            string(m.Type),
		Amount:          m.Amount,
		Fee:             m.Fee,
		Provider:        m.Provider,
		ReferenceNumber: m.ReferenceNumber,
		PhoneNumber:     m.PhoneNumber,
		Status:          string(m.Status),
		Timestamp:       m.Timestamp,
		Notes:           m.Notes,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:              e.ID,
		UserID:          e.UserID,
		CustomerID:      e.CustomerID,
		Type:            model.TransactionType(e.Type),
		Amount:          e.Amount,
		Fee:             e.Fee,
		Provider:        e.Provider,
		ReferenceNumber: e.ReferenceNumber,
		PhoneNumber:     e.PhoneNumber,
		Status:          model.TransactionStatus(e.Status),
		Timestamp:       e.Timestamp,
		Notes:           e.Notes,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}
