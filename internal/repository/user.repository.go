package repository

import (
	"context"
	"fmt"

	"github.com/nimasrn/smart-wakala/internal/model"
	"github.com/nimasrn/smart-wakala/pkg/pg"
)

type UserRepository struct {
	*pg.DB
}

func NewUserRepository(db *pg.DB) *UserRepository {
	return &UserRepository{
		db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	entity := toUserEntity(user)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, translateError(err, "user")
	}

	return toUserModel(entity), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		return nil, translateError(err, "user")
	}
	return toUserModel(&entity), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).WithContext(ctx).Where("username = ?", username).First(&entity).Error
	if err != nil {
		return nil, translateError(err, "user")
	}
	return toUserModel(&entity), nil
}

// Delete removes a user. Users that still own customers or transactions
// cannot be deleted.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		tx := r.Write(ctx)

		for _, dependent := range []any{&CustomerEntity{}, &TransactionEntity{}} {
			var n int64
			if err := tx.Model(dependent).Where("user_id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: user %d still owns %d dependent rows", ErrConstraintViolation, id, n)
			}
		}

		res := tx.Where("id = ?", id).Delete(&UserEntity{})
		if res.Error != nil {
			return translateError(res.Error, "user")
		}
		if res.RowsAffected == 0 {
			return notFound("user", id)
		}
		return nil
	})
}
