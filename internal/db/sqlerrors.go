package db

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrRetriesExceeded is returned when a transaction keeps hitting
	// serialization conflicts past the retry limit.
	ErrRetriesExceeded = errors.New("db tx retries exceeded")
)

// ErrDuplicateKey is returned when an insert violates a unique or primary
// key constraint, such as reusing a review ID.
type ErrDuplicateKey struct {
	DBError error
}

// Unwrap returns the wrapped driver error.
func (e ErrDuplicateKey) Unwrap() error {
	return e.DBError
}

// Error returns the error message.
func (e ErrDuplicateKey) Error() string {
	return fmt.Sprintf("duplicate key: %v", e.DBError)
}

// ErrSerializationError marks a transient conflict (the database was busy
// or locked) that a transaction retry may resolve.
type ErrSerializationError struct {
	DBError error
}

// Unwrap returns the wrapped driver error.
func (e ErrSerializationError) Unwrap() error {
	return e.DBError
}

// Error returns the error message.
func (e ErrSerializationError) Error() string {
	return e.DBError.Error()
}

// MapSQLError classifies a raw sqlite driver error into one of the driver
// agnostic error types above. Errors that do not classify pass through
// unchanged.
func MapSQLError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.Code {
	case sqlite3.ErrConstraint:
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique,
			sqlite3.ErrConstraintPrimaryKey:

			return &ErrDuplicateKey{DBError: sqliteErr}
		}
		return fmt.Errorf("sqlite constraint error: %w", sqliteErr)

	// Busy and locked both mean another connection holds the write lock;
	// the transaction runner retries these.
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return &ErrSerializationError{DBError: sqliteErr}

	default:
		return fmt.Errorf("sqlite error: %w", sqliteErr)
	}
}

// IsSerializationOrDeadlockError returns true if the given error is a
// transient conflict worth retrying.
func IsSerializationOrDeadlockError(err error) bool {
	var serializationErr *ErrSerializationError
	return errors.As(err, &serializationErr)
}

// IsDuplicateKeyError returns true if the given error is a unique or
// primary key violation.
func IsDuplicateKeyError(err error) bool {
	var dupErr *ErrDuplicateKey
	return errors.As(err, &dupErr)
}
