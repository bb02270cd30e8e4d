package testhelpers

import (
	"fmt"
	"testing"

	"snake/backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	openSQLite = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		})
	}
	migrateSchema    = func(db *gorm.DB) error { return db.AutoMigrate(&models.User{}, &models.Score{}) }
	dropUserTableFn  = func(db *gorm.DB) error { return db.Migrator().DropTable(&models.User{}) }
	dropScoreTableFn = func(db *gorm.DB) error { return db.Migrator().DropTable(&models.Score{}) }
)

// SetupTestDB creates an isolated in-memory SQLite database for tests.
// Connections are capped at one so concurrent writers queue instead of
// tripping over SQLite's shared-cache table locks.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", t.Name())
	db, err := openSQLite(dsn)
	if err != nil {
		panic(fmt.Sprintf("failed to open test database: %v", err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { sqlDB.Close() })
	}
	if err := migrateSchema(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}
	return db
}

// DropUserTable removes the users table to force repository errors.
func DropUserTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := dropUserTableFn(db); err != nil {
		panic(fmt.Sprintf("failed to drop user table: %v", err))
	}
}

// DropScoreTable removes the scores table to force repository errors.
func DropScoreTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := dropScoreTableFn(db); err != nil {
		panic(fmt.Sprintf("failed to drop score table: %v", err))
	}
}
