package repository

import (
	"context"
	"testing"

	"github.com/nimasrn/smart-wakala/internal/model"
	"github.com/nimasrn/smart-wakala/pkg/pg"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *pg.DB {
	db, err := pg.CreateSQLite(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, AutoMigrate(context.Background(), db))
	return db
}

func createTestUser(t *testing.T, db *pg.DB, username string) *model.User {
	u, err := NewUserRepository(db).Create(context.Background(), &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return u
}

func createTestCustomer(t *testing.T, db *pg.DB, userID int64) *model.Customer {
	c, err := NewCustomerRepository(db).Create(context.Background(), &model.Customer{
		UserID:      userID,
		FirstName:   "Asha",
		LastName:    "Mwinyi",
		PhoneNumber: "+255712000000",
	})
	require.NoError(t, err)
	return c
}

func createTestTransaction(t *testing.T, db *pg.DB, userID int64, customerID *int64, ref *string) *model.Transaction {
	txn, err := NewTransactionRepository(db).Create(context.Background(), model.TransactionCreateRequest{
		UserID:          userID,
		CustomerID:      customerID,
		Type:            model.TransactionTypeDeposit,
		Amount:          1000,
		Provider:        "M-Pesa",
		ReferenceNumber: ref,
		PhoneNumber:     "+255712345678",
	}.ToTransaction())
	require.NoError(t, err)
	return txn
}

func ptr[T any](v T) *T {
	return &v
}
