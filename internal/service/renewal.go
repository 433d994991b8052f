package service

import (
	"context"
	"time"

	"github.com/loopcart/loopcart/internal/api/dto"
	"github.com/loopcart/loopcart/internal/domain/payment"
	"github.com/loopcart/loopcart/internal/domain/subscription"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/types"
)

const (
	// Circuit breaker: this many FAILED charges inside the window parks the
	// subscription until a human or a successful charge intervenes.
	renewalFailureWindow = 30 * 24 * time.Hour
	renewalFailureLimit  = 3
)

// RenewalService runs the scheduled sweep that charges saved cards for
// subscriptions whose next payment date has arrived.
type RenewalService interface {
	// RunDueRenewals processes every due subscription independently: one bad
	// item never aborts the sweep.
	RunDueRenewals(ctx context.Context) (*dto.SweepResult, error)
}

type renewalService struct {
	ServiceParams
	subs SubscriptionService
}

// NewRenewalService creates a new renewal sweep service.
func NewRenewalService(params ServiceParams) RenewalService {
	return &renewalService{
		ServiceParams: params,
		subs:          NewSubscriptionService(params),
	}
}

func (s *renewalService) RunDueRenewals(ctx context.Context) (*dto.SweepResult, error) {
	// Anything due any time today is swept, regardless of when in the day the
	// scheduler fires.
	now := time.Now().UTC()
	asOf := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)

	due, err := s.SubRepo.ListDueForRenewal(ctx, asOf, s.Config.Renewal.BatchSize)
	if err != nil {
		return nil, err
	}

	result := &dto.SweepResult{Total: len(due)}
	for _, sub := range due {
		if err := s.renewOne(ctx, sub); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, dto.SweepError{
				SubscriptionID: sub.ID,
				Error:          err.Error(),
			})
		} else {
			result.Success++
		}
	}

	s.Logger.Infow("renewal sweep finished",
		"total", result.Total,
		"success", result.Success,
		"failed", result.Failed)
	return result, nil
}

// renewOne charges a single subscription. Panics are contained here so a
// corrupt record cannot take down the rest of the sweep.
func (s *renewalService) renewOne(ctx context.Context, sub *subscription.Subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Errorw("panic while renewing subscription",
				"subscription_id", sub.ID,
				"panic", r)
			err = ierr.NewErrorf("renewal panicked: %v", r).
				Mark(ierr.ErrInternal)
		}
	}()

	if !sub.HasSavedCard() {
		return ierr.NewError("subscription has no saved card").
			WithHint("Subscription cannot be renewed without a stored payment method").
			Mark(ierr.ErrInvalidOperation)
	}

	pl, planErr := s.PlanRepo.Get(ctx, sub.PlanID)
	if planErr != nil {
		return planErr
	}

	chargeReq := &iyzico.ChargeSavedCardRequest{
		ConversationID: iyzico.BuildConversationID(sub.ID, nil),
		CardUserKey:    *sub.CardUserKey,
		CardToken:      *sub.CardToken,
		Price:          pl.Price,
		PaidPrice:      pl.Price,
		Currency:       pl.Currency,
		Description:    "subscription renewal",
	}

	result, chargeErr := s.Gateway.ChargeWithSavedCard(ctx, chargeReq)
	switch {
	case chargeErr != nil:
		attempt := payment.Attempt{
			Status:       types.PaymentStatusFailed,
			Amount:       pl.Price,
			Currency:     pl.Currency,
			ErrorMessage: chargeErr.Error(),
		}
		if applyErr := s.subs.ApplyRenewalFailure(ctx, sub, attempt); applyErr != nil {
			s.Logger.Errorw("failed to record renewal failure",
				"subscription_id", sub.ID,
				"error", applyErr)
		}
		err = chargeErr

	case result.IsSuccess():
		attempt := payment.Attempt{
			Status:               types.PaymentStatusSuccess,
			Amount:               result.PaidPrice,
			Currency:             result.Currency,
			GatewayPaymentID:     result.PaymentID,
			GatewayTransactionID: result.PaymentTransactionID,
		}
		err = s.subs.ApplyRenewalSuccess(ctx, sub, attempt, iyzico.DeliveryMetadata{})

	default:
		attempt := payment.Attempt{
			Status:               types.PaymentStatusFailed,
			Amount:               pl.Price,
			Currency:             pl.Currency,
			GatewayPaymentID:     result.PaymentID,
			GatewayTransactionID: result.PaymentTransactionID,
			ErrorMessage:         result.ErrorMessage,
		}
		if applyErr := s.subs.ApplyRenewalFailure(ctx, sub, attempt); applyErr != nil {
			s.Logger.Errorw("failed to record renewal failure",
				"subscription_id", sub.ID,
				"error", applyErr)
		}
		err = ierr.NewErrorf("charge declined: %s", result.ErrorMessage).
			WithReportableDetails(map[string]interface{}{
				"error_code": result.ErrorCode,
			}).
			Mark(ierr.ErrGateway)
	}

	s.enforceFailureBreaker(ctx, sub)
	return err
}

// enforceFailureBreaker parks a subscription in PAYMENT_FAILED once it
// accumulates too many failed charges in the rolling window, so the sweep
// stops hammering a dead card.
func (s *renewalService) enforceFailureBreaker(ctx context.Context, sub *subscription.Subscription) {
	if sub.Status == types.SubscriptionStatusPaymentFailed || sub.Status.IsTerminal() {
		return
	}

	since := time.Now().UTC().Add(-renewalFailureWindow)
	count, err := s.PaymentRepo.CountFailedSince(ctx, sub.ID, since)
	if err != nil {
		s.Logger.Errorw("failure breaker count lookup failed",
			"subscription_id", sub.ID,
			"error", err)
		return
	}
	if count < renewalFailureLimit {
		return
	}

	if err := sub.TransitionTo(types.SubscriptionStatusPaymentFailed); err != nil {
		s.Logger.Errorw("failure breaker transition rejected",
			"subscription_id", sub.ID,
			"error", err)
		return
	}
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		s.Logger.Errorw("failure breaker update failed",
			"subscription_id", sub.ID,
			"error", err)
		return
	}
	s.Logger.Warnw("renewal failure breaker tripped",
		"subscription_id", sub.ID,
		"failed_count", count,
		"window_days", 30)
}
