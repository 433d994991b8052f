package gormstore

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loopcart/loopcart/internal/domain/subscription"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/logger"
	"github.com/loopcart/loopcart/internal/types"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewSubscriptionRepository creates a gorm-backed subscription repository.
func NewSubscriptionRepository(db *gorm.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			WithReportableDetails(map[string]interface{}{"id": sub.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ierr.NewError("subscription not found").
				WithHint("Subscription does not exist").
				WithReportableDetails(map[string]interface{}{"id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetByGatewayRef(ctx context.Context, ref string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := r.db.WithContext(ctx).First(&sub, "gateway_ref = ?", ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ierr.NewError("subscription not found").
				WithHint("No subscription matches the gateway reference").
				WithReportableDetails(map[string]interface{}{"gateway_ref": ref}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription by gateway reference").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

// Update is guarded by the Version column: the row is only written when the
// stored version still matches the one the caller read, closing the
// concurrent webhook/sweep lost-update window.
func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	readVersion := sub.Version
	sub.Version = readVersion + 1
	sub.UpdatedAt = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&subscription.Subscription{}).
		Where("id = ? AND version = ?", sub.ID, readVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(sub)
	if res.Error != nil {
		sub.Version = readVersion
		return ierr.WithError(res.Error).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	if res.RowsAffected == 0 {
		sub.Version = readVersion
		return ierr.NewError("subscription was modified concurrently").
			WithHint("Subscription changed underneath this request, retry").
			WithReportableDetails(map[string]interface{}{
				"id":      sub.ID,
				"version": readVersion,
			}).
			Mark(ierr.ErrVersionConflict)
	}
	return nil
}

func (r *subscriptionRepository) ListDueForRenewal(ctx context.Context, asOf time.Time, limit int) ([]*subscription.Subscription, error) {
	q := r.db.WithContext(ctx).Model(&subscription.Subscription{}).
		Where("status = ?", types.SubscriptionStatusActive).
		Where("next_payment_date IS NOT NULL AND next_payment_date <= ?", asOf).
		Where("card_user_key IS NOT NULL AND card_user_key <> ''").
		Where("card_token IS NOT NULL AND card_token <> ''").
		Order("next_payment_date ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var subs []*subscription.Subscription
	if err := q.Find(&subs).Error; err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions due for renewal").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

func (r *subscriptionRepository) CountActiveByPlan(ctx context.Context, planID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&subscription.Subscription{}).
		Where("plan_id = ?", planID).
		Where("status NOT IN ?", []types.SubscriptionStatus{
			types.SubscriptionStatusCancelled,
			types.SubscriptionStatusExpired,
		}).
		Count(&count).Error
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count subscriptions for plan").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}
