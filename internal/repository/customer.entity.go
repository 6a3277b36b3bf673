package repository

import (
	"time"

	"github.com/nimasrn/smart-wakala/internal/model"
)

type CustomerEntity struct {
	ID          int64       `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	UserID      int64       `db:"user_id"      gorm:"column:user_id;not null;index"`
	User        *UserEntity `                  gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:RESTRICT"`
	FirstName   string      `db:"first_name"   gorm:"column:first_name;size:64;not null"`
	LastName    string      `db:"last_name"    gorm:"column:last_name;size:64;not null"`
	PhoneNumber string      `db:"phone_number" gorm:"column:phone_number;size:20;not null;index"`
	Email       *string     `db:"email"        gorm:"column:email;size:120"`
	IDType      *string     `db:"id_type"      gorm:"column:id_type;size:20"`
	IDNumber    *string     `db:"id_number"    gorm:"column:id_number;size:64"`
	CreatedAt   time.Time   `db:"created_at"   gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time   `db:"updated_at"   gorm:"column:updated_at;autoUpdateTime"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerEntity(m *model.Customer) *CustomerEntity {
	if m == nil {
		return nil
	}
	return &CustomerEntity{
		ID:          m.ID,
		UserID:      m.UserID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		PhoneNumber: m.PhoneNumber,
		Email:       m.Email,
		IDType:      m.IDType,
		IDNumber:    m.IDNumber,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toCustomerModel(e *CustomerEntity) *model.Customer {
	if e == nil {
		return nil
	}
	return &model.Customer{
		ID:          e.ID,
		UserID:      e.UserID,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		PhoneNumber: e.PhoneNumber,
		Email:       e.Email,
		IDType:      e.IDType,
		IDNumber:    e.IDNumber,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toCustomerModels(entities []*CustomerEntity) []*model.Customer {
	if entities == nil {
		return nil
	}
	models := make([]*model.Customer, len(entities))
	for i, e := range entities {
		models[i] = toCustomerModel(e)
	}
	return models
}
