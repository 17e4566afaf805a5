// Package lock serializes writers that touch the same logical key, such as
// one user's review on one product.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when a lock could not be taken before the
// wait budget or the context ran out.
var ErrNotAcquired = errors.New("lock not acquired")

// Release gives a held lock back. It is safe to call more than once.
type Release func(ctx context.Context) error

// Locker acquires exclusive, expiring locks by key.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// ReviewKey is the lock key guarding a user's review of a product.
func ReviewKey(productID, userID string) string {
	return "review:" + productID + ":" + userID
}
