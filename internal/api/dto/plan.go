package dto

import (
	"github.com/loopcart/loopcart/internal/domain/plan"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/types"
	"github.com/shopspring/decimal"
)

// CreatePlanRequest creates a billing plan.
type CreatePlanRequest struct {
	Name             string          `json:"name" binding:"required"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price" binding:"required"`
	Currency         string          `json:"currency" binding:"required"`
	Interval         string          `json:"interval" binding:"required"`
	IntervalCount    int             `json:"interval_count"`
	ShopifyProductID *string         `json:"shopify_product_id"`
	ShopifyVariantID *string         `json:"shopify_variant_id"`
	IsTemplate       bool            `json:"is_template"`
	GroupHandle      *string         `json:"group_handle"`
}

// ToPlan converts the request into a domain plan with a fresh id.
func (r *CreatePlanRequest) ToPlan() (*plan.Plan, error) {
	interval := types.BillingPeriod(r.Interval)
	if err := interval.Validate(); err != nil {
		return nil, err
	}
	count := r.IntervalCount
	if count < 1 {
		count = 1
	}
	p := &plan.Plan{
		ID:               types.GenerateUUID(),
		Name:             r.Name,
		Description:      r.Description,
		Price:            r.Price,
		Currency:         r.Currency,
		Interval:         interval,
		IntervalCount:    count,
		ShopifyProductID: r.ShopifyProductID,
		ShopifyVariantID: r.ShopifyVariantID,
		Active:           true,
		IsTemplate:       r.IsTemplate,
		GroupHandle:      r.GroupHandle,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePlanRequest patches a plan; nil fields are left unchanged.
type UpdatePlanRequest struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	Price            *decimal.Decimal `json:"price"`
	Currency         *string          `json:"currency"`
	Interval         *string          `json:"interval"`
	IntervalCount    *int             `json:"interval_count"`
	ShopifyProductID *string          `json:"shopify_product_id"`
	ShopifyVariantID *string          `json:"shopify_variant_id"`
	Active           *bool            `json:"active"`
}

// Apply copies the set fields onto the plan and re-validates it.
func (r *UpdatePlanRequest) Apply(p *plan.Plan) error {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Currency != nil {
		p.Currency = *r.Currency
	}
	if r.Interval != nil {
		interval := types.BillingPeriod(*r.Interval)
		if err := interval.Validate(); err != nil {
			return err
		}
		p.Interval = interval
	}
	if r.IntervalCount != nil {
		if *r.IntervalCount < 1 {
			return ierr.NewError("interval count must be positive").
				WithHint("Interval count must be at least 1").
				Mark(ierr.ErrValidation)
		}
		p.IntervalCount = *r.IntervalCount
	}
	if r.ShopifyProductID != nil {
		p.ShopifyProductID = r.ShopifyProductID
	}
	if r.ShopifyVariantID != nil {
		p.ShopifyVariantID = r.ShopifyVariantID
	}
	if r.Active != nil {
		p.Active = *r.Active
	}
	return p.Validate()
}

// PlanResponse is the API view of a plan.
type PlanResponse struct {
	*plan.Plan
}

// NewPlanResponse wraps a domain plan for the API.
func NewPlanResponse(p *plan.Plan) *PlanResponse {
	return &PlanResponse{Plan: p}
}

// ListPlansResponse carries a page of plans.
type ListPlansResponse struct {
	Items []*PlanResponse `json:"items"`
	Total int             `json:"total"`
}
