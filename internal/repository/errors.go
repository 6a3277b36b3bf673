package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/nimasrn/smart-wakala/internal/model"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = model.ErrNotFound
	ErrConstraintViolation = model.ErrConstraintViolation
)

// postgres SQLSTATE codes
const (
	codeNotNullViolation    = "23502"
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// translateError maps driver and gorm errors onto the NotFound /
// ConstraintViolation taxonomy. Unknown errors are returned unchanged.
func translateError(err error, entity string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, entity)
	case errors.Is(err, gorm.ErrDuplicatedKey), hasCode(err, codeUniqueViolation),
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: duplicate %s: %v", ErrConstraintViolation, entity, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated), hasCode(err, codeForeignKeyViolation),
		strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %s references a missing row: %v", ErrConstraintViolation, entity, err)
	case hasCode(err, codeNotNullViolation), strings.Contains(err.Error(), "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %s is missing a required field: %v", ErrConstraintViolation, entity, err)
	}
	return err
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

// ensureExists fails with ErrConstraintViolation when no row of table has id.
func ensureExists(tx *gorm.DB, table string, id int64) error {
	if id == 0 {
		return fmt.Errorf("%w: %s id is required", ErrConstraintViolation, table)
	}
	var n int64
	if err := tx.Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d does not exist", ErrConstraintViolation, table, id)
	}
	return nil
}

func notFound(entity string, key any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, entity, key)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
