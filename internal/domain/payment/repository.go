package payment

import (
	"context"
	"time"
)

// Repository defines the interface for payment persistence operations.
type Repository interface {
	Create(ctx context.Context, payment *Payment) error

	Get(ctx context.Context, id string) (*Payment, error)

	Update(ctx context.Context, payment *Payment) error

	// ListBySubscription returns all payment rows for the subscription, most
	// recent first.
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Payment, error)

	// CountFailedSince counts FAILED rows for the subscription created at or
	// after since; feeds the renewal circuit breaker.
	CountFailedSince(ctx context.Context, subscriptionID string, since time.Time) (int64, error)

	// ListSuccessWithoutOrder returns SUCCESS rows that never got a storefront
	// order back-linked, most recent first; feeds the order backfill.
	ListSuccessWithoutOrder(ctx context.Context, subscriptionID string) ([]*Payment, error)
}
