package orders

import "errors"

var (
	// ErrNotFound covers a missing item, table, or order reference.
	ErrNotFound = errors.New("not found")

	// ErrNoActiveOrder means the session has no bound order yet.
	ErrNoActiveOrder = errors.New("no active order for session")

	// ErrInvalidQuantity rejects zero or negative quantities.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrInvalidTransition rejects state machine violations, e.g. completing
	// an order that was never submitted.
	ErrInvalidTransition = errors.New("invalid order state transition")

	// ErrOrderClosed rejects mutation of a submitted or completed order.
	ErrOrderClosed = errors.New("order already submitted: invalid order state transition")

	// ErrForbidden means the owner has no rights over the order's restaurant.
	ErrForbidden = errors.New("owner not authorized for restaurant")
)

// IsTransition reports whether err is a state machine violation, including
// the closed-order case.
func IsTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrOrderClosed)
}
