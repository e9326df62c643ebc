package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/synexa/sis/internal/domain/shared"
	"gorm.io/gorm"
)

// PostgreSQL error codes the billing core reacts to
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// translateError maps driver errors onto domain errors. Lock waits that hit
// lock_timeout, deadlocks and serialization failures all mean another writer
// got there first and the caller should retry, as does a unique violation on
// the plan slot index when two generations race.
func translateError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFailure, pgUniqueViolation:
			return shared.ErrConcurrencyConflict.WithDetail("db_code", pgErr.Code)
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrConcurrencyConflict
	}
	return err
}
