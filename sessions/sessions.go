// Package sessions binds an anonymous customer session token to its open
// order. The binding is the only thing that decides whose cart is whose; it
// lives for the duration of one table visit and is cleared on submit.
package sessions

import (
	"context"

	"github.com/google/uuid"
)

type Store interface {
	// Get returns the bound order id for token, with ok=false when the
	// token has no binding.
	Get(ctx context.Context, token string) (orderID uuid.UUID, ok bool, err error)
	Bind(ctx context.Context, token string, orderID uuid.UUID) error
	Clear(ctx context.Context, token string) error
}

// NewToken mints an opaque session token for clients that arrive without one.
func NewToken() string {
	return uuid.NewString()
}
