package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Transactor runs fn inside one database transaction. Repository methods with
// a Tx suffix must be called with the tx handle passed to fn.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DefaultLockTimeout bounds how long a statement waits for a row lock before
// PostgreSQL aborts it with 55P03.
const DefaultLockTimeout = 2 * time.Second

type gormTransactor struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewTransactor returns a Transactor whose transactions give up on a row lock
// after lockTimeout; a non-positive value selects DefaultLockTimeout.
func NewTransactor(db *gorm.DB, lockTimeout time.Duration) Transactor {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &gormTransactor{db: db, lockTimeout: lockTimeout}
}

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// SET does not take bind parameters.
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())).Error; err != nil {
			return err
		}
		return fn(tx)
	})
}

// forUpdate is SELECT ... FOR UPDATE.
var forUpdate = clause.Locking{Strength: "UPDATE"}

// PostgreSQL SQLSTATE codes treated as transient lock contention.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateForeignKeyViolation  = "23503"
)

// IsTransient reports whether err is a lock/busy condition worth retrying.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
		return true
	}
	return false
}

// IsForeignKeyViolation reports whether err is a referential integrity failure,
// whether or not gorm translated it.
func IsForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateForeignKeyViolation
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// page normalizes pagination parameters.
func page(p, limit int) (offset, size int) {
	if p < 1 {
		p = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return (p - 1) * limit, limit
}
