package pg

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// CreateSQLite opens a single-connection sqlite database with foreign keys
// enforced. path may be ":memory:". Used for local runs and tests.
func CreateSQLite(path string, withDebug bool) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// every sqlite connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if withDebug {
		db = db.Debug()
	}
	return New(db, db), nil
}
