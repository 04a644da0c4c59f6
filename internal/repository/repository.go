package repository

import (
	"context"

	"github.com/indikaara/storefront/internal/domain"
)

// CartRepository defines cart persistence. The cart is JSON-encoded under a
// single per-user key; writes are last-writer-wins.
type CartRepository interface {
	// Get retrieves the cart for a user. Returns a not-found error if no
	// cart has been persisted yet.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Save persists the full serialized cart, replacing any previous value.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the persisted cart. Deleting an absent cart is not an
	// error.
	Delete(ctx context.Context, userID string) error
}

// PendingRefRepository persists the most recent pending-order reference
// ({txnid, totalPrice}) under a key independent of the cart key, so the
// reference survives the gateway redirect regardless of what happens to the
// cart or to in-memory state.
type PendingRefRepository interface {
	// Get retrieves the user's pending-order reference.
	Get(ctx context.Context, userID string) (*domain.PendingOrderRef, error)

	// Save persists the reference, replacing any previous one.
	Save(ctx context.Context, userID string, ref *domain.PendingOrderRef) error

	// Delete removes the reference. Deleting an absent reference is not an
	// error.
	Delete(ctx context.Context, userID string) error
}

// OrderRepository defines order persistence operations.
type OrderRepository interface {
	// Create inserts a new unpaid order and its product lines atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByTxnID retrieves an order by its transaction identifier,
	// including product lines.
	GetByTxnID(ctx context.Context, txnid string) (*domain.Order, error)

	// MarkPaid flips the order's paid flag to true. It is idempotent:
	// alreadyPaid reports whether the order had been marked paid before
	// this call. Returns a not-found error for an unknown txnid.
	MarkPaid(ctx context.Context, txnid string) (alreadyPaid bool, err error)

	// ListByUser returns the user's orders sorted descending by creation
	// time, along with the total count for pagination.
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error)
}
