package errors

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrNotAssigned = errors.New("priest is not assigned to this booking")

	ErrNotOwner = errors.New("customer does not own this booking")

	ErrSampleUnreadable = errors.New("location samples could not be read")
)

// JourneyStartError wraps failures to activate a journey. The booking keeps
// its previous journey fields when this is returned.
type JourneyStartError struct {
	BookingID string
	Err       error
}

func (e *JourneyStartError) Error() string {
	return fmt.Sprintf("failed to start journey for booking %s: %v", e.BookingID, e.Err)
}

func (e *JourneyStartError) Unwrap() error {
	return e.Err
}

// LocationUpdateError wraps failures to append a location sample. Callers
// treat it as non-fatal: the journey continues and the next tick retries.
type LocationUpdateError struct {
	BookingID string
	Err       error
}

func (e *LocationUpdateError) Error() string {
	return fmt.Sprintf("failed to update location for booking %s: %v", e.BookingID, e.Err)
}

func (e *LocationUpdateError) Unwrap() error {
	return e.Err
}

// SnapshotFetchError wraps failures to assemble a tracking snapshot.
type SnapshotFetchError struct {
	BookingID string
	Err       error
}

func (e *SnapshotFetchError) Error() string {
	return fmt.Sprintf("failed to fetch tracking snapshot for booking %s: %v", e.BookingID, e.Err)
}

func (e *SnapshotFetchError) Unwrap() error {
	return e.Err
}
