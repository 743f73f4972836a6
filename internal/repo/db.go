// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file bootstraps the SQLite database (pure Go driver)
// and applies the schema.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
)

// OpenSQLite opens (or creates) the SQLite database at path and applies the
// connection PRAGMAs and pool limits the daemon runs with.
func OpenSQLite(path string) (*gorm.DB, error) {
	// A missing parent directory surfaces as an obscure sqlite error later;
	// fail with the clear os error instead.
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		db.Exec(pragma)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the full schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.UserSettings{},
		&domain.MonitorURL{},
		&domain.Pincode{},
		&domain.SeenProduct{},
		&domain.Delivery{},
	)
}
