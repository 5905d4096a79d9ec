package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// retryable Postgres SQLSTATE codes: serialization_failure, deadlock_detected,
// lock_not_available.
var retryableSQLStates = map[string]struct{}{
	"40001": {},
	"40P01": {},
	"55P03": {},
}

// IsRetryableSerialization reports whether the error is lock contention or a
// serialization failure that is safe to retry with the identical command.
func IsRetryableSerialization(err error) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		_, ok := retryableSQLStates[pgxErr.Code]
		return ok
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		_, ok := retryableSQLStates[string(pqErr.Code)]
		return ok
	}

	// sqlite (tests) surfaces contention as busy/locked text.
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
