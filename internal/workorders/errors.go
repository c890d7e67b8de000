package workorders

import "errors"

var (
	ErrNotFound = errors.New("work order not found")
	// ErrInvalidTransition is returned for any status change out of a
	// terminal state, including completing an order twice.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConsumptionWrite means the completion transaction was rolled back;
	// the order is still pending and the request can be retried.
	ErrConsumptionWrite = errors.New("consumption write failed")
	// ErrIDSpaceExhausted means no free work order id was found within the
	// configured number of attempts.
	ErrIDSpaceExhausted = errors.New("work order id space exhausted")
)
