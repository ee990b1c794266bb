package booking

import "errors"

var (
	// ErrSlotTaken means a non-canceled appointment already holds the
	// requested (date, timeSlot).
	ErrSlotTaken = errors.New("time slot already booked")

	ErrNotFound = errors.New("appointment not found")

	// ErrInvalidTransition is returned for status changes out of a terminal
	// state (completed or canceled).
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports a request field that failed a domain rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalidField(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
