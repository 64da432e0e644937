package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrBookingNotFound = errors.New("booking not found")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotUnavailable = errors.New("slot is not available")
	// ErrSlotSync marks a failed slot write after the booking write succeeded.
	ErrSlotSync = errors.New("slot status update failed")
	ErrInternal = errors.New("internal error")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// SyncError reports a booking change whose paired slot update failed. The
// whole transaction was rolled back, so neither change was kept.
type SyncError struct {
	Op     string
	Entity string
	ID     int64
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s %d update failed, changes rolled back: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *SyncError) Unwrap() []error {
	return []error{ErrSlotSync, e.Err}
}

func internal(err error) error {
	return fmt.Errorf("%w: %w", ErrInternal, err)
}
