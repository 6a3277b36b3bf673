package repository

import (
	"context"
	"iter"

	"github.com/nimasrn/smart-wakala/internal/model"
	"github.com/nimasrn/smart-wakala/pkg/pg"
	"gorm.io/gorm"
)

const defaultIterateBatch = 100

type TransactionRepository struct {
	*pg.DB
	batchSize int
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		DB:        db,
		batchSize: defaultIterateBatch,
	}
}

// SetBatchSize controls how many rows IterateByCustomer fetches per query.
func (r *TransactionRepository) SetBatchSize(n int) {
	if n > 0 {
		r.batchSize = n
	}
}

// Create inserts txn. The owning user, and the customer when set, must exist.
// A duplicate reference_number is rejected by the unique index.
func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		tx := r.Write(ctx)
		if err := ensureOwners(tx, entity.UserID, entity.CustomerID); err != nil {
			return err
		}
		return translateError(tx.Create(entity).Error, "transaction")
	})
	if err != nil {
		return nil, err
	}

	return toTransactionModel(entity), nil
}

// EnsureOwners fails with ErrConstraintViolation when the user, or the
// customer when set, does not exist.
func (r *TransactionRepository) EnsureOwners(ctx context.Context, userID int64, customerID *int64) error {
	return ensureOwners(r.Read(ctx).WithContext(ctx), userID, customerID)
}

func ensureOwners(tx *gorm.DB, userID int64, customerID *int64) error {
	if err := ensureExists(tx, UserEntity{}.TableName(), userID); err != nil {
		return err
	}
	if customerID != nil {
		return ensureExists(tx, CustomerEntity{}.TableName(), *customerID)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		return nil, translateError(err, "transaction")
	}
	return toTransactionModel(&entity), nil
}

func (r *TransactionRepository) GetByReference(ctx context.Context, ref string) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).WithContext(ctx).Where("reference_number = ?", ref).First(&entity).Error
	if err != nil {
		return nil, translateError(err, "transaction")
	}
	return toTransactionModel(&entity), nil
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, id int64, status model.TransactionStatus) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		tx := r.Write(ctx)
		res := tx.Model(&TransactionEntity{}).Where("id = ?", id).Update("status", string(status))
		if res.Error != nil {
			return translateError(res.Error, "transaction")
		}
		if res.RowsAffected == 0 {
			return notFound("transaction", id)
		}
		return translateError(tx.Where("id = ?", id).First(&entity).Error, "transaction")
	})
	if err != nil {
		return nil, err
	}
	return toTransactionModel(&entity), nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	res := r.Write(ctx).WithContext(ctx).Where("id = ?", id).Delete(&TransactionEntity{})
	if res.Error != nil {
		return translateError(res.Error, "transaction")
	}
	if res.RowsAffected == 0 {
		return notFound("transaction", id)
	}
	return nil
}

func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TransactionEntity{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Type != nil {
		q = q.Where("transaction_type = ?", string(*f.Type))
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Provider != nil && *f.Provider != "" {
		q = q.Where("provider = ?", *f.Provider)
	}
	if f.From != nil {
		q = q.Where(`"timestamp" >= ?`, *f.From)
	}
	if f.To != nil {
		q = q.Where(`"timestamp" < ?`, *f.To)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "id ASC"
	if f.Desc {
		order = "id DESC"
	}
	limit, offset := clampPage(f.Limit, f.Offset)

	var entities []*TransactionEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toTransactionModels(entities), total, nil
}

// IterateByCustomer yields the customer's transactions in insertion order, or
// newest first when desc is set. Rows are fetched lazily in keyset pages and
// every range over the sequence starts a fresh scan.
func (r *TransactionRepository) IterateByCustomer(ctx context.Context, customerID int64, desc bool) iter.Seq2[*model.Transaction, error] {
	batch := r.batchSize
	return func(yield func(*model.Transaction, error) bool) {
		var (
			cursor  int64
			started bool
		)
		for {
			q := r.Read(ctx).WithContext(ctx).Model(&TransactionEntity{}).Where("customer_id = ?", customerID)
			order := "id ASC"
			if desc {
				order = "id DESC"
			}
			if started {
				if desc {
					q = q.Where("id < ?", cursor)
				} else {
					q = q.Where("id > ?", cursor)
				}
			}

			var entities []*TransactionEntity
			if err := q.Order(order).Limit(batch).Find(&entities).Error; err != nil {
				yield(nil, err)
				return
			}
			for _, e := range entities {
				if !yield(toTransactionModel(e), nil) {
					return
				}
			}
			if len(entities) < batch {
				return
			}
			cursor = entities[len(entities)-1].ID
			started = true
		}
	}
}

type summaryRow struct {
	Type        string  `gorm:"column:transaction_type"`
	Count       int64   `gorm:"column:count"`
	TotalAmount float64 `gorm:"column:total_amount"`
	TotalFee    float64 `gorm:"column:total_fee"`
}

// Summary aggregates a user's transactions per type.
func (r *TransactionRepository) Summary(ctx context.Context, userID int64) ([]model.TransactionSummary, error) {
	var rows []summaryRow
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Select("transaction_type, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount, COALESCE(SUM(fee), 0) AS total_fee").
		Where("user_id = ?", userID).
		Group("transaction_type").
		Order("transaction_type").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}

	out := make([]model.TransactionSummary, len(rows))
	for i, row := range rows {
		out[i] = model.TransactionSummary{
			Type:        model.TransactionType(row.Type),
			Count:       row.Count,
			TotalAmount: row.TotalAmount,
			TotalFee:    row.TotalFee,
		}
	}
	return out, nil
}
