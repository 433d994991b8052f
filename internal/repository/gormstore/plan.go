package gormstore

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/loopcart/loopcart/internal/domain/plan"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/logger"
	"gorm.io/gorm"
)

type planRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewPlanRepository creates a gorm-backed plan repository.
func NewPlanRepository(db *gorm.DB, logger *logger.Logger) plan.Repository {
	return &planRepository{db: db, logger: logger}
}

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create plan").
			WithReportableDetails(map[string]interface{}{"id": p.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	var p plan.Plan
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ierr.NewError("plan not found").
				WithHint("Plan does not exist").
				WithReportableDetails(map[string]interface{}{"id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *planRepository) Update(ctx context.Context, p *plan.Plan) error {
	res := r.db.WithContext(ctx).Model(&plan.Plan{}).
		Where("id = ?", p.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(p)
	if res.Error != nil {
		return ierr.WithError(res.Error).
			WithHint("Failed to update plan").
			Mark(ierr.ErrDatabase)
	}
	if res.RowsAffected == 0 {
		return ierr.NewError("plan not found").
			WithHint("Plan does not exist").
			WithReportableDetails(map[string]interface{}{"id": p.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *planRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&plan.Plan{}, "id = ?", id)
	if res.Error != nil {
		return ierr.WithError(res.Error).
			WithHint("Failed to delete plan").
			Mark(ierr.ErrDatabase)
	}
	if res.RowsAffected == 0 {
		return ierr.NewError("plan not found").
			WithHint("Plan does not exist").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *planRepository) List(ctx context.Context, filter *plan.Filter) ([]*plan.Plan, error) {
	if filter == nil {
		filter = &plan.Filter{}
	}

	q := r.db.WithContext(ctx).Model(&plan.Plan{}).Order("created_at DESC")
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if filter.GroupHandle != nil {
		q = q.Where("group_handle = ?", *filter.GroupHandle)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var plans []*plan.Plan
	if err := q.Find(&plans).Error; err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	return plans, nil
}
