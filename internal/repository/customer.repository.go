package repository

import (
	"context"
	"strings"
	"time"

	"github.com/nimasrn/smart-wakala/internal/model"
	"github.com/nimasrn/smart-wakala/pkg/pg"
)

type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{
		db,
	}
}

// Create inserts a customer owned by an existing user.
func (r *CustomerRepository) Create(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	entity := toCustomerEntity(customer)

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		tx := r.Write(ctx)
		if err := ensureExists(tx, UserEntity{}.TableName(), entity.UserID); err != nil {
			return err
		}
		return translateError(tx.Create(entity).Error, "customer")
	})
	if err != nil {
		return nil, err
	}

	return toCustomerModel(entity), nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		return nil, translateError(err, "customer")
	}
	return toCustomerModel(&entity), nil
}

// Update applies the non-nil fields of p and re-stamps updated_at.
// created_at is never written.
func (r *CustomerRepository) Update(ctx context.Context, id int64, p model.CustomerUpdateRequest) (*model.Customer, error) {
	updates := map[string]any{"updated_at": time.Now()}
	set := func(column string, v *string) {
		if v != nil {
			updates[column] = strings.TrimSpace(*v)
		}
	}
	// a blank optional field clears the column
	setOptional := func(column string, v *string) {
		if v == nil {
			return
		}
		if t := model.TrimOptional(v); t != nil {
			updates[column] = *t
		} else {
			updates[column] = nil
		}
	}
	set("first_name", p.FirstName)
	set("last_name", p.LastName)
	set("phone_number", p.PhoneNumber)
	setOptional("email", p.Email)
	setOptional("id_type", p.IDType)
	setOptional("id_number", p.IDNumber)

	var entity CustomerEntity
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		tx := r.Write(ctx)
		res := tx.Model(&CustomerEntity{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return translateError(res.Error, "customer")
		}
		if res.RowsAffected == 0 {
			return notFound("customer", id)
		}
		return translateError(tx.Where("id = ?", id).First(&entity).Error, "customer")
	})
	if err != nil {
		return nil, err
	}
	return toCustomerModel(&entity), nil
}

// Delete removes a customer. Its transactions are kept with customer_id cleared.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		tx := r.Write(ctx)
		err := tx.Model(&TransactionEntity{}).
			Where("customer_id = ?", id).
			Update("customer_id", nil).
			Error
		if err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&CustomerEntity{})
		if res.Error != nil {
			return translateError(res.Error, "customer")
		}
		if res.RowsAffected == 0 {
			return notFound("customer", id)
		}
		return nil
	})
}

func (r *CustomerRepository) List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&CustomerEntity{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.PhoneNumber != nil && *f.PhoneNumber != "" {
		q = q.Where("phone_number = ?", *f.PhoneNumber)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := clampPage(f.Limit, f.Offset)

	var entities []*CustomerEntity
	if err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toCustomerModels(entities), total, nil
}
