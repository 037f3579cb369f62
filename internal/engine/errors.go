package engine

import "errors"

// Engine error taxonomy. All of these are recovered locally: the requested
// state change is rejected, the prior state is preserved untouched, and a
// history entry explains why.
var (
	// ErrInsufficientFunds: a deposit, cash purchase, or maintenance cost
	// exceeds the player balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidSelection: a requested property, lease length, rate offset,
	// deposit ratio, term, or fixed period is outside the allowed set and
	// could not be snapped to a valid value.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrIneligibleOperation: the operation is valid in general but not in
	// the property's current state.
	ErrIneligibleOperation = errors.New("ineligible operation")
)
