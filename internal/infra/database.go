package infra

import (
	"fmt"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (functional indexes used by the case-insensitive lookups).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table and applies schema patches.
// Integration tests call it directly against a throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Department{},
		&model.Student{},
		&model.Enrollment{},
		&model.Item{},
		&model.IssueRecord{},
		&model.PendingReport{},
		&model.DepartmentItemRequirement{},
		&model.InventoryOrder{},
		&model.InventoryReceipt{},
		&model.StockLogEntry{},
		&model.ActivityLog{},
		&model.Notification{},
		&model.HelpThread{},
		&model.HelpMessage{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that AutoMigrate cannot
// express. Each statement uses IF NOT EXISTS so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// login and registration match username/email case-insensitively
		`CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))`,
		`CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))`,
		// issuance locks items by upper-cased code
		`CREATE INDEX IF NOT EXISTS idx_items_code_upper ON items (UPPER(item_code))`,
		// tier 4 of department resolution
		`CREATE INDEX IF NOT EXISTS idx_departments_cohort_fold
		     ON departments (UPPER(TRIM(course_code)), UPPER(TRIM(course)), UPPER(TRIM(academic_year)), UPPER(TRIM(year)))`,
		// FIFO / LIFO receipt scans
		`CREATE INDEX IF NOT EXISTS idx_inventory_receipts_item_received
		     ON inventory_receipts (item_id, received_at)`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
