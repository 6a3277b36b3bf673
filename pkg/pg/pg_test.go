package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"not null"`
}

func setupSQLite(t *testing.T) *DB {
	db, err := CreateSQLite(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Write(context.Background()).AutoMigrate(&widget{}))
	return db
}

func TestConfig_DSN(t *testing.T) {
	c := Config{User: "u", Host: "h", Port: "5432", Password: "p", Database: "d"}
	assert.Equal(t, "host=h user=u password=p dbname=d port=5432 sslmode=disable", c.DSN())
}

func TestDB_WithinTransaction(t *testing.T) {
	db := setupSQLite(t)
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		err := db.WithinTransaction(ctx, func(ctx context.Context) error {
			return db.Write(ctx).Create(&widget{Name: "kept"}).Error
		})
		require.NoError(t, err)

		var n int64
		require.NoError(t, db.Read(ctx).Model(&widget{}).Where("name = ?", "kept").Count(&n).Error)
		assert.Equal(t, int64(1), n)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := db.Write(ctx).Create(&widget{Name: "dropped"}).Error; err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var n int64
		require.NoError(t, db.Read(ctx).Model(&widget{}).Where("name = ?", "dropped").Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("nested call joins the outer transaction", func(t *testing.T) {
		err := db.WithinTransaction(ctx, func(outer context.Context) error {
			return db.WithinTransaction(outer, func(inner context.Context) error {
				assert.Same(t, db.Write(outer), db.Write(inner))
				return nil
			})
		})
		require.NoError(t, err)
	})
}

func TestDB_WaitReady(t *testing.T) {
	db := setupSQLite(t)
	assert.NoError(t, db.WaitReady(context.Background(), time.Second))
}
