package repository

import (
	"context"

	"github.com/nimasrn/smart-wakala/pkg/pg"
)

// AutoMigrate creates the schema from the entities. It backs the sqlite driver
// and tests; postgres deployments use the goose migrations instead.
func AutoMigrate(ctx context.Context, db *pg.DB) error {
	return db.Write(ctx).AutoMigrate(&UserEntity{}, &CustomerEntity{}, &TransactionEntity{})
}
