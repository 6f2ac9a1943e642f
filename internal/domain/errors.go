package domain

import "errors"

// Sentinel errors for every invariant violation the engine can reject with.
// Handlers map these to structured HTTP responses via errors.Is; services wrap
// them with %w plus the specific precondition that failed.
var (
	ErrNotFound                   = errors.New("not found")
	ErrInvalidTransition          = errors.New("invalid status transition")
	ErrInsufficientStock          = errors.New("insufficient stock")
	ErrInsufficientAvailableStock = errors.New("insufficient available stock")
	ErrOverReceipt                = errors.New("received quantity exceeds remaining quantity")
	ErrConflict                   = errors.New("conflict")
)

// ErrorCode returns the machine-readable code for the API error envelope.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInsufficientAvailableStock):
		return "insufficient_available_stock"
	case errors.Is(err, ErrOverReceipt):
		return "over_receipt"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
