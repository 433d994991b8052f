package testutil

import (
	"context"
	"sort"

	"github.com/loopcart/loopcart/internal/domain/plan"
	ierr "github.com/loopcart/loopcart/internal/errors"
)

// InMemoryPlanStore implements plan.Repository for tests.
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

// NewInMemoryPlanStore creates a new in-memory plan store.
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

func copyPlan(p *plan.Plan) *plan.Plan {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return ierr.NewError("plan cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if _, ok := s.get(p.ID); ok {
		return ierr.NewErrorf("plan %s already exists", p.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.set(p.ID, copyPlan(p))
	return nil
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, ok := s.get(id)
	if !ok {
		return nil, ierr.NewErrorf("plan %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyPlan(p), nil
}

func (s *InMemoryPlanStore) Update(ctx context.Context, p *plan.Plan) error {
	if _, ok := s.get(p.ID); !ok {
		return ierr.NewErrorf("plan %s not found", p.ID).
			Mark(ierr.ErrNotFound)
	}
	s.set(p.ID, copyPlan(p))
	return nil
}

func (s *InMemoryPlanStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.get(id); !ok {
		return ierr.NewErrorf("plan %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	s.delete(id)
	return nil
}

func (s *InMemoryPlanStore) List(ctx context.Context, filter *plan.Filter) ([]*plan.Plan, error) {
	if filter == nil {
		filter = &plan.Filter{}
	}

	var out []*plan.Plan
	for _, p := range s.all() {
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if filter.GroupHandle != nil {
			if p.GroupHandle == nil || *p.GroupHandle != *filter.GroupHandle {
				continue
			}
		}
		out = append(out, copyPlan(p))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 && filter.Offset < len(out) {
		out = out[filter.Offset:]
	} else if filter.Offset >= len(out) {
		out = nil
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
