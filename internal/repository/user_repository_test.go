package repository

import (
	"context"
	"testing"

	"github.com/nimasrn/smart-wakala/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("assigns id and timestamps", func(t *testing.T) {
		u, err := repo.Create(ctx, &model.User{Username: "testuser", Email: "test@example.com", PasswordHash: "x"})
		require.NoError(t, err)
		assert.NotZero(t, u.ID)
		assert.False(t, u.CreatedAt.IsZero())

		found, err := repo.GetByUsername(ctx, "testuser")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)
		assert.Equal(t, "test@example.com", found.Email)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.User{Username: "testuser", Email: "other@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, ErrConstraintViolation)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.User{Username: "other", Email: "test@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, ErrConstraintViolation)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := repo.GetByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("restricted while customers exist", func(t *testing.T) {
		u := createTestUser(t, db, "agent1")
		createTestCustomer(t, db, u.ID)

		err := repo.Delete(ctx, u.ID)
		assert.ErrorIs(t, err, ErrConstraintViolation)

		_, err = repo.GetByID(ctx, u.ID)
		assert.NoError(t, err)
	})

	t.Run("restricted while transactions exist", func(t *testing.T) {
		u := createTestUser(t, db, "agent2")
		createTestTransaction(t, db, u.ID, nil, nil)

		assert.ErrorIs(t, repo.Delete(ctx, u.ID), ErrConstraintViolation)
	})

	t.Run("deletes a user without dependents", func(t *testing.T) {
		u := createTestUser(t, db, "agent3")
		require.NoError(t, repo.Delete(ctx, u.ID))

		_, err := repo.GetByID(ctx, u.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, 999), ErrNotFound)
	})
}
