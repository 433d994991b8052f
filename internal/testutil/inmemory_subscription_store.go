package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/loopcart/loopcart/internal/domain/subscription"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository for tests,
// including the optimistic version guard the real store enforces.
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store.
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	copied := *sub
	return &copied
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if _, ok := s.get(sub.ID); ok {
		return ierr.NewErrorf("subscription %s already exists", sub.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	if sub.Version < 1 {
		sub.Version = 1
	}
	s.set(sub.ID, copySubscription(sub))
	return nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, ok := s.get(id)
	if !ok {
		return nil, ierr.NewErrorf("subscription %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) GetByGatewayRef(ctx context.Context, ref string) (*subscription.Subscription, error) {
	for _, sub := range s.all() {
		if sub.GatewayRef != nil && *sub.GatewayRef == ref {
			return copySubscription(sub), nil
		}
	}
	return nil, ierr.NewErrorf("no subscription with gateway ref %s", ref).
		Mark(ierr.ErrNotFound)
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[sub.ID]
	if !ok {
		return ierr.NewErrorf("subscription %s not found", sub.ID).
			Mark(ierr.ErrNotFound)
	}
	if stored.Version != sub.Version {
		return ierr.NewErrorf("subscription %s version conflict", sub.ID).
			WithHint("The subscription was modified concurrently, retry the operation").
			Mark(ierr.ErrVersionConflict)
	}

	sub.Version++
	sub.UpdatedAt = time.Now().UTC()
	s.items[sub.ID] = copySubscription(sub)
	return nil
}

func (s *InMemorySubscriptionStore) ListDueForRenewal(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	var out []*subscription.Subscription
	for _, sub := range s.all() {
		if sub.Status != types.SubscriptionStatusActive {
			continue
		}
		if sub.NextPaymentDate == nil || sub.NextPaymentDate.After(asOf) {
			continue
		}
		if !sub.HasSavedCard() {
			continue
		}
		out = append(out, copySubscription(sub))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].NextPaymentDate.Before(*out[j].NextPaymentDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemorySubscriptionStore) CountActiveByPlan(ctx context.Context, planID string) (int64, error) {
	var count int64
	for _, sub := range s.all() {
		if sub.PlanID != planID {
			continue
		}
		if sub.Status == types.SubscriptionStatusCancelled || sub.Status == types.SubscriptionStatusExpired {
			continue
		}
		count++
	}
	return count, nil
}
