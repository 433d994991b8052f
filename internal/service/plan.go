package service

import (
	"context"
	"fmt"

	"github.com/loopcart/loopcart/internal/api/dto"
	"github.com/loopcart/loopcart/internal/cache"
	"github.com/loopcart/loopcart/internal/domain/plan"
)

// PlanService manages the plan catalog.
type PlanService interface {
	CreatePlan(ctx context.Context, req *dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error)
	UpdatePlan(ctx context.Context, id string, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error)

	// DeletePlan removes a plan, or deactivates it instead when subscriptions
	// still reference it.
	DeletePlan(ctx context.Context, id string) error

	ListPlans(ctx context.Context, filter *plan.Filter) (*dto.ListPlansResponse, error)
}

type planService struct {
	ServiceParams
}

// NewPlanService creates a new plan service.
func NewPlanService(params ServiceParams) PlanService {
	return &planService{ServiceParams: params}
}

func planCacheKey(id string) string {
	return fmt.Sprintf("plan:%s", id)
}

func (s *planService) CreatePlan(ctx context.Context, req *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	p, err := req.ToPlan()
	if err != nil {
		return nil, err
	}
	if err := s.PlanRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.Logger.Infow("created plan", "plan_id", p.ID, "name", p.Name)
	return dto.NewPlanResponse(p), nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	if cached, found := s.Cache.Get(ctx, planCacheKey(id)); found {
		if p, ok := cache.UnmarshalCacheValue[plan.Plan](cached); ok {
			return dto.NewPlanResponse(p), nil
		}
	}

	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, planCacheKey(id), p, cache.ExpiryPlan)
	return dto.NewPlanResponse(p), nil
}

func (s *planService) UpdatePlan(ctx context.Context, id string, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(p); err != nil {
		return nil, err
	}
	if err := s.PlanRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.Cache.Delete(ctx, planCacheKey(id))
	return dto.NewPlanResponse(p), nil
}

func (s *planService) DeletePlan(ctx context.Context, id string) error {
	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	active, err := s.SubRepo.CountActiveByPlan(ctx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		p.Active = false
		if err := s.PlanRepo.Update(ctx, p); err != nil {
			return err
		}
		s.Cache.Delete(ctx, planCacheKey(id))
		s.Logger.Infow("deactivated plan still referenced by subscriptions",
			"plan_id", id,
			"active_subscriptions", active)
		return nil
	}

	if err := s.PlanRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Cache.Delete(ctx, planCacheKey(id))
	s.Logger.Infow("deleted plan", "plan_id", id)
	return nil
}

func (s *planService) ListPlans(ctx context.Context, filter *plan.Filter) (*dto.ListPlansResponse, error) {
	if filter == nil {
		filter = &plan.Filter{}
	}
	plans, err := s.PlanRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ListPlansResponse{Total: len(plans)}
	for _, p := range plans {
		resp.Items = append(resp.Items, dto.NewPlanResponse(p))
	}
	return resp, nil
}
