package subscription

import (
	"context"
	"time"
)

// Repository defines the interface for subscription persistence operations.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error

	Get(ctx context.Context, id string) (*Subscription, error)

	// GetByGatewayRef looks up a subscription by its gateway-issued reference
	// code, the primary correlation key for inbound events.
	GetByGatewayRef(ctx context.Context, ref string) (*Subscription, error)

	// Update persists the subscription guarded by its Version column and
	// returns an ErrVersionConflict-marked error when a concurrent writer won.
	Update(ctx context.Context, sub *Subscription) error

	// ListDueForRenewal returns ACTIVE subscriptions whose next payment date is
	// on or before asOf and which hold saved card tokens, capped at limit.
	ListDueForRenewal(ctx context.Context, asOf time.Time, limit int) ([]*Subscription, error)

	// CountActiveByPlan reports how many non-terminated subscriptions reference
	// the plan; used for the plan soft-delete rule.
	CountActiveByPlan(ctx context.Context, planID string) (int64, error)
}
