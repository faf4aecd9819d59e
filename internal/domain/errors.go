package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMeasurementNotFound indicates requested measurement doesn't exist
	ErrMeasurementNotFound = errors.New("measurement not found")

	// ErrInvalidInput indicates a request that can never succeed as sent
	ErrInvalidInput = errors.New("invalid input")

	// ErrBulkCreateFailed indicates a batch was rolled back
	ErrBulkCreateFailed = errors.New("bulk create failed")

	// ErrStorage indicates the store failed for reasons unrelated to the input
	ErrStorage = errors.New("storage failure")
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Is makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// BulkCreateError reports which item of a batch caused the rollback.
// A negative Index means the batch failed as a whole, e.g. on commit.
type BulkCreateError struct {
	Index int
	Err   error
}

func (e *BulkCreateError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("bulk create failed: %v", e.Err)
	}
	return fmt.Sprintf("bulk create failed at measurement %d: %v", e.Index, e.Err)
}

func (e *BulkCreateError) Unwrap() error {
	return e.Err
}

// Is makes every BulkCreateError match ErrBulkCreateFailed.
func (e *BulkCreateError) Is(target error) bool {
	return target == ErrBulkCreateFailed
}
