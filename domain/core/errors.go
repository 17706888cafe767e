package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrRunNotFound      = fmt.Errorf("%w: run", ErrNotFound)
	ErrSnapshotNotFound = fmt.Errorf("%w: snapshot", ErrNotFound)
	ErrReportNotFound   = fmt.Errorf("%w: report", ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("%w: customer", ErrNotFound)

	// Input errors
	ErrSchemaViolation  = errors.New("snapshot schema violation")
	ErrEmptySnapshot    = errors.New("snapshot contains no customer rows")
	ErrDuplicateKey     = errors.New("duplicate customer ID in snapshot")
	ErrValueOutOfDomain = errors.New("value outside attribute domain")

	// Configuration errors
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrWeightsNotUnit   = errors.New("scoring weights do not sum to 1.0")
	ErrBucketEdges      = errors.New("bucket edges not strictly increasing")
	ErrUnknownDimension = errors.New("unknown grouping dimension")
	ErrUnknownVariant   = errors.New("unknown scoring variant")

	// Determinism errors
	ErrFingerprintMismatch = errors.New("run fingerprint mismatch")
	ErrHashMismatch        = errors.New("hash mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewSchemaViolationError(row int, column string, reason string) error {
	return fmt.Errorf("%w: row %d column %q: %s", ErrSchemaViolation, row, column, reason)
}

func NewOutOfDomainError(row int, column string, value string) error {
	return fmt.Errorf("%w: row %d column %q holds %q", ErrValueOutOfDomain, row, column, value)
}

func NewConfigError(key string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfigInvalid, key, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchemaViolation) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrValueOutOfDomain) ||
		errors.Is(err, ErrEmptySnapshot)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigInvalid) ||
		errors.Is(err, ErrWeightsNotUnit) ||
		errors.Is(err, ErrBucketEdges) ||
		errors.Is(err, ErrUnknownDimension) ||
		errors.Is(err, ErrUnknownVariant)
}
