package gormstore

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loopcart/loopcart/internal/domain/payment"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/logger"
	"github.com/loopcart/loopcart/internal/types"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewPaymentRepository creates a gorm-backed payment repository.
func NewPaymentRepository(db *gorm.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{db: db, logger: logger}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create payment").
			WithReportableDetails(map[string]interface{}{"id": p.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ierr.NewError("payment not found").
				WithHint("Payment does not exist").
				WithReportableDetails(map[string]interface{}{"id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	res := r.db.WithContext(ctx).Model(&payment.Payment{}).
		Where("id = ?", p.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(p)
	if res.Error != nil {
		return ierr.WithError(res.Error).
			WithHint("Failed to update payment").
			Mark(ierr.ErrDatabase)
	}
	if res.RowsAffected == 0 {
		return ierr.NewError("payment not found").
			WithHint("Payment does not exist").
			WithReportableDetails(map[string]interface{}{"id": p.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *paymentRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments").
			Mark(ierr.ErrDatabase)
	}
	return payments, nil
}

func (r *paymentRepository) CountFailedSince(ctx context.Context, subscriptionID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&payment.Payment{}).
		Where("subscription_id = ?", subscriptionID).
		Where("status = ?", types.PaymentStatusFailed).
		Where("created_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count failed payments").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *paymentRepository) ListSuccessWithoutOrder(ctx context.Context, subscriptionID string) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Where("status = ?", types.PaymentStatusSuccess).
		Where("order_id IS NULL OR order_id = ''").
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments missing orders").
			Mark(ierr.ErrDatabase)
	}
	return payments, nil
}
