// Package chrono holds the error vocabulary and the retry pacing shared
// by the bitemporal repository runtime and the sequence generators.
package chrono

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for repository and sequence outcomes.
var (
	// ErrDuplicateKey is returned when an insert overlaps an active row of the same logical key.
	ErrDuplicateKey = errors.New("chrono: duplicate key")

	// ErrNotFound is returned when a logical key has no rows at all.
	ErrNotFound = errors.New("chrono: entity not found")

	// ErrAsOfNotFound is returned when a key exists but no row covers the requested point.
	ErrAsOfNotFound = errors.New("chrono: no row as of the requested point")

	// ErrOptimisticLock is returned when a concurrent writer changed the current row first.
	ErrOptimisticLock = errors.New("chrono: optimistic lock conflict")

	// ErrInvalidArgument is returned on caller contract violations.
	ErrInvalidArgument = errors.New("chrono: invalid argument")
)

// DuplicateKeyError reports an insert that would produce two active
// rows for the same logical key.
type DuplicateKeyError struct {
	label string
	key   any
	cause error
}

// Error returns the error string.
func (e *DuplicateKeyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "chrono: duplicate key for %s (key=%v)", e.label, e.key)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying driver error, if any.
func (e *DuplicateKeyError) Unwrap() error { return e.cause }

// Is reports whether err is ErrDuplicateKey.
func (e *DuplicateKeyError) Is(err error) bool { return err == ErrDuplicateKey }

// Label returns the entity label.
func (e *DuplicateKeyError) Label() string { return e.label }

// Key returns the logical key.
func (e *DuplicateKeyError) Key() any { return e.key }

// NewDuplicateKeyError returns a new DuplicateKeyError.
func NewDuplicateKeyError(label string, key any, cause error) *DuplicateKeyError {
	return &DuplicateKeyError{label: label, key: key, cause: cause}
}

// IsDuplicateKey returns true if the error is a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var e *DuplicateKeyError
	return errors.As(err, &e) || errors.Is(err, ErrDuplicateKey)
}

// NotFoundError represents a logical key that has no rows.
type NotFoundError struct {
	label string
	key   any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.key != nil {
		return fmt.Sprintf("chrono: %s not found (key=%v)", e.label, e.key)
	}
	return fmt.Sprintf("chrono: %s not found", e.label)
}

// Is reports whether err is ErrNotFound.
func (e *NotFoundError) Is(err error) bool { return err == ErrNotFound }

// Label returns the entity label.
func (e *NotFoundError) Label() string { return e.label }

// Key returns the key that was searched for, if available.
func (e *NotFoundError) Key() any { return e.key }

// NewNotFoundError returns a new NotFoundError for the given entity and key.
func NewNotFoundError(label string, key any) *NotFoundError {
	return &NotFoundError{label: label, key: key}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// AsOfNotFoundError represents a lookup whose point falls outside
// every rectangle of an existing key.
type AsOfNotFoundError struct {
	label      string
	key        any
	business   string
	processing string
}

// Error returns the error string.
func (e *AsOfNotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "chrono: %s (key=%v) has no row", e.label, e.key)
	if e.business != "" {
		b.WriteString(" as of business ")
		b.WriteString(e.business)
	}
	if e.processing != "" {
		b.WriteString(" as of processing ")
		b.WriteString(e.processing)
	}
	return b.String()
}

// Is reports whether err is ErrAsOfNotFound.
func (e *AsOfNotFoundError) Is(err error) bool { return err == ErrAsOfNotFound }

// Label returns the entity label.
func (e *AsOfNotFoundError) Label() string { return e.label }

// Key returns the logical key.
func (e *AsOfNotFoundError) Key() any { return e.key }

// NewAsOfNotFoundError returns a new AsOfNotFoundError. The business and
// processing strings are the formatted instants of the lookup, empty for
// an axis the entity does not have.
func NewAsOfNotFoundError(label string, key any, business, processing string) *AsOfNotFoundError {
	return &AsOfNotFoundError{label: label, key: key, business: business, processing: processing}
}

// IsAsOfNotFound returns true if the error is an AsOfNotFoundError.
func IsAsOfNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *AsOfNotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrAsOfNotFound)
}

// OptimisticLockError represents a write that lost a race on the
// current row of a logical key. The cause, when set, is the database
// error that reported the race.
type OptimisticLockError struct {
	label string
	key   any
	cause error
}

// Error returns the error string.
func (e *OptimisticLockError) Error() string {
	msg := fmt.Sprintf("chrono: optimistic lock conflict on %s (key=%v)", e.label, e.key)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying driver error, if any.
func (e *OptimisticLockError) Unwrap() error { return e.cause }

// Is reports whether err is ErrOptimisticLock.
func (e *OptimisticLockError) Is(err error) bool { return err == ErrOptimisticLock }

// Label returns the entity or sequence label.
func (e *OptimisticLockError) Label() string { return e.label }

// Key returns the contended key.
func (e *OptimisticLockError) Key() any { return e.key }

// NewOptimisticLockError returns a new OptimisticLockError.
func NewOptimisticLockError(label string, key any, cause error) *OptimisticLockError {
	return &OptimisticLockError{label: label, key: key, cause: cause}
}

// IsOptimisticLock returns true if the error is an OptimisticLockError.
func IsOptimisticLock(err error) bool {
	if err == nil {
		return false
	}
	var e *OptimisticLockError
	return errors.As(err, &e) || errors.Is(err, ErrOptimisticLock)
}

// InvalidArgumentError represents a caller contract violation.
type InvalidArgumentError struct {
	Name    string // Argument name
	Value   any
	Message string
}

// Error returns the error string.
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("chrono: invalid argument %s=%v: %s", e.Name, e.Value, e.Message)
}

// Is reports whether err is ErrInvalidArgument.
func (e *InvalidArgumentError) Is(err error) bool { return err == ErrInvalidArgument }

// NewInvalidArgumentError returns a new InvalidArgumentError.
func NewInvalidArgumentError(name string, value any, message string) *InvalidArgumentError {
	return &InvalidArgumentError{Name: name, Value: value, Message: message}
}

// IsInvalidArgument returns true if the error is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidArgumentError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidArgument)
}
