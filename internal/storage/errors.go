package storage

import (
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a single-result fetch matches nothing,
	// or an update targets an id with no row behind it.
	ErrNotFound = errors.New("storage: record not found")

	// ErrConstraint is returned when the database rejects a write for a
	// uniqueness or foreign-key violation. The layer surfaces it without
	// retrying; FirstOrCreate is the only built-in recovery path.
	ErrConstraint = errors.New("storage: constraint violation")

	// ErrValidation is returned for malformed input reaching a
	// persistence operation, e.g. a missing required field.
	ErrValidation = errors.New("storage: validation failed")
)

// wrapDBError maps driver errors onto the layer's sentinel errors so
// callers can branch with errors.Is instead of matching driver types.
// Anything unrecognized is passed through untouched.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}
