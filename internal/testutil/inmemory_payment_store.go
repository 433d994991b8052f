package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/loopcart/loopcart/internal/domain/payment"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/types"
)

// InMemoryPaymentStore implements payment.Repository for tests.
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
}

// NewInMemoryPaymentStore creates a new in-memory payment store.
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Payment](),
	}
}

func copyPayment(p *payment.Payment) *payment.Payment {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if _, ok := s.get(p.ID); ok {
		return ierr.NewErrorf("payment %s already exists", p.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.set(p.ID, copyPayment(p))
	return nil
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, ok := s.get(id)
	if !ok {
		return nil, ierr.NewErrorf("payment %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyPayment(p), nil
}

func (s *InMemoryPaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	if _, ok := s.get(p.ID); !ok {
		return ierr.NewErrorf("payment %s not found", p.ID).
			Mark(ierr.ErrNotFound)
	}
	p.UpdatedAt = time.Now().UTC()
	s.set(p.ID, copyPayment(p))
	return nil
}

func (s *InMemoryPaymentStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*payment.Payment, error) {
	var out []*payment.Payment
	for _, p := range s.all() {
		if p.SubscriptionID == subscriptionID {
			out = append(out, copyPayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryPaymentStore) CountFailedSince(ctx context.Context, subscriptionID string, since time.Time) (int64, error) {
	var count int64
	for _, p := range s.all() {
		if p.SubscriptionID != subscriptionID {
			continue
		}
		if p.Status != types.PaymentStatusFailed {
			continue
		}
		if p.CreatedAt.Before(since) {
			continue
		}
		count++
	}
	return count, nil
}

func (s *InMemoryPaymentStore) ListSuccessWithoutOrder(ctx context.Context, subscriptionID string) ([]*payment.Payment, error) {
	var out []*payment.Payment
	for _, p := range s.all() {
		if p.SubscriptionID != subscriptionID {
			continue
		}
		if p.Status != types.PaymentStatusSuccess {
			continue
		}
		if p.OrderID != nil && *p.OrderID != "" {
			continue
		}
		out = append(out, copyPayment(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
