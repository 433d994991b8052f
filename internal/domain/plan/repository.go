package plan

import (
	"context"
)

// Repository defines the interface for plan persistence operations
type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	Update(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *Filter) ([]*Plan, error)
}

// Filter defines query parameters for listing plans.
type Filter struct {
	ActiveOnly  bool
	GroupHandle *string
	Limit       int
	Offset      int
}
