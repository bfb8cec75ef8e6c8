package catalog

import (
	"errors"
	"fmt"
	"strings"

	"songbook/database"
)

var (
	// ErrValidation marks input rejected before it reached the store.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when the addressed song does not exist.
	ErrNotFound = database.ErrNotFound
)

// ValidationError lists every problem found in a song payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError wraps a failure of the underlying store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// storeErr passes not-found through unchanged and wraps everything else.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, database.ErrNotFound) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
