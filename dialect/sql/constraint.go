package sql

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// PostgreSQL SQLSTATE codes of transactions that lost a race.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451
	mysqlForeignKeyChild        = 1452
	mysqlCheckConstraintViolate = 3819
)

// MySQL error numbers of transactions that lost a race.
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// IsRetryableError reports whether err is a transient concurrency
// failure: a serialization failure, a deadlock or a busy database. The
// transaction that returned it may be run again from the start.
// Context cancellation is never retryable.
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if e := (*pq.Error)(nil); errors.As(err, &e) {
		switch e.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
		return false
	}
	if e := (*mysql.MySQLError)(nil); errors.As(err, &e) {
		return e.Number == mysqlDeadlock || e.Number == mysqlLockWaitTimeout
	}
	if e := (*sqlite.Error)(nil); errors.As(err, &e) {
		// Extended result codes carry the primary code in the low byte.
		switch e.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	return containsAny(err.Error(),
		"Error 1205",
		"Error 1213",
		"could not serialize access",
		"deadlock detected",
		"database is locked",
		"database table is locked",
	)
}

// IsConstraintError reports whether err resulted from any database
// constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports whether err resulted from a uniqueness
// or primary-key violation.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e := (*pq.Error)(nil); errors.As(err, &e) {
		return e.Code == pgUniqueViolation
	}
	if e := (*mysql.MySQLError)(nil); errors.As(err, &e) {
		return e.Number == mysqlDuplicateEntry
	}
	if e := (*sqlite.Error)(nil); errors.As(err, &e) {
		switch e.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	// SQLite without extended result codes, and proxied drivers.
	return containsAny(err.Error(),
		"Error 1062",
		"violates unique constraint",
		"UNIQUE constraint failed",
	)
}

// IsForeignKeyConstraintError reports whether err resulted from a
// foreign-key violation.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e := (*pq.Error)(nil); errors.As(err, &e) {
		return e.Code == pgForeignKeyViolation
	}
	if e := (*mysql.MySQLError)(nil); errors.As(err, &e) {
		return e.Number == mysqlForeignKeyParent || e.Number == mysqlForeignKeyChild
	}
	if e := (*sqlite.Error)(nil); errors.As(err, &e) && e.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return containsAny(err.Error(),
		"Error 1451",
		"Error 1452",
		"violates foreign key constraint",
		"FOREIGN KEY constraint failed",
	)
}

// IsCheckConstraintError reports whether err resulted from a check
// constraint violation.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e := (*pq.Error)(nil); errors.As(err, &e) {
		return e.Code == pgCheckViolation
	}
	if e := (*mysql.MySQLError)(nil); errors.As(err, &e) {
		return e.Number == mysqlCheckConstraintViolate
	}
	if e := (*sqlite.Error)(nil); errors.As(err, &e) && e.Code() == sqlite3.SQLITE_CONSTRAINT_CHECK {
		return true
	}
	return containsAny(err.Error(),
		"Error 3819",
		"violates check constraint",
		"CHECK constraint failed",
	)
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
