package service

import (
	"context"
	"testing"
	"time"

	"github.com/loopcart/loopcart/internal/domain/payment"
	"github.com/loopcart/loopcart/internal/domain/plan"
	"github.com/loopcart/loopcart/internal/domain/subscription"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RenewalServiceSuite struct {
	ServiceSuite
	service RenewalService
}

func TestRenewalService(t *testing.T) {
	suite.Run(t, new(RenewalServiceSuite))
}

func (s *RenewalServiceSuite) SetupTest() {
	s.ServiceSuite.SetupTest()
	s.service = NewRenewalService(s.params)
}

// seedDue stores an ACTIVE subscription with saved card tokens whose next
// payment date already passed.
func (s *RenewalServiceSuite) seedDue(p *plan.Plan, cardToken string) *subscription.Subscription {
	sub := s.seedSubscription(p, types.SubscriptionStatusActive)
	due := time.Now().UTC().Add(-24 * time.Hour)
	key := "cuk-" + cardToken
	sub.CardUserKey = &key
	sub.CardToken = &cardToken
	sub.NextPaymentDate = &due
	s.Require().NoError(s.subs.Update(s.ctx, sub))
	return sub
}

func (s *RenewalServiceSuite) TestSweepChargesDueSubscriptions() {
	p := s.seedPlan()
	due1 := s.seedDue(p, "card-1")
	due2 := s.seedDue(p, "card-2")

	// Not due yet: must not be charged.
	notDue := s.seedSubscription(p, types.SubscriptionStatusActive)
	future := time.Now().UTC().Add(48 * time.Hour)
	key, tok := "cuk-3", "card-3"
	notDue.CardUserKey = &key
	notDue.CardToken = &tok
	notDue.NextPaymentDate = &future
	s.Require().NoError(s.subs.Update(s.ctx, notDue))

	result, err := s.service.RunDueRenewals(s.ctx)
	s.Require().NoError(err)

	s.Equal(2, result.Total)
	s.Equal(2, result.Success)
	s.Equal(0, result.Failed)
	s.Len(s.gateway.ChargeCalls, 2)

	for _, id := range []string{due1.ID, due2.ID} {
		stored := s.reload(id)
		s.Equal(types.SubscriptionStatusActive, stored.Status)
		s.True(stored.NextPaymentDate.After(time.Now().UTC()), "renewed date advanced")
	}
	s.True(s.reload(notDue.ID).NextPaymentDate.Equal(future))
}

func (s *RenewalServiceSuite) TestSweepIsolatesDeclines() {
	p := s.seedPlan()
	good := s.seedDue(p, "card-good")
	bad := s.seedDue(p, "card-bad")

	s.gateway.ChargeWithSavedCardFn = func(ctx context.Context, req *iyzico.ChargeSavedCardRequest) (*iyzico.ChargeResult, error) {
		if req.CardToken == "card-bad" {
			return &iyzico.ChargeResult{
				Status:       iyzico.StatusFailure,
				ErrorCode:    "10051",
				ErrorMessage: "insufficient funds",
			}, nil
		}
		return &iyzico.ChargeResult{Status: iyzico.StatusSuccess, PaidPrice: req.PaidPrice, Currency: req.Currency}, nil
	}

	result, err := s.service.RunDueRenewals(s.ctx)
	s.Require().NoError(err)

	s.Equal(2, result.Total)
	s.Equal(1, result.Success)
	s.Equal(1, result.Failed)
	s.Require().Len(result.Errors, 1)
	s.Equal(bad.ID, result.Errors[0].SubscriptionID)

	s.Equal(types.SubscriptionStatusActive, s.reload(good.ID).Status)
	s.Equal(types.SubscriptionStatusPaymentFailed, s.reload(bad.ID).Status)

	rows, err := s.payments.ListBySubscription(s.ctx, bad.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(types.PaymentStatusFailed, rows[0].Status)
	s.Require().NotNil(rows[0].ErrorMessage)
	s.Equal("insufficient funds", *rows[0].ErrorMessage)
}

func (s *RenewalServiceSuite) TestSweepSurvivesPanic() {
	p := s.seedPlan()
	s.seedDue(p, "card-panic")
	healthy := s.seedDue(p, "card-ok")

	s.gateway.ChargeWithSavedCardFn = func(ctx context.Context, req *iyzico.ChargeSavedCardRequest) (*iyzico.ChargeResult, error) {
		if req.CardToken == "card-panic" {
			panic("corrupt subscription record")
		}
		return &iyzico.ChargeResult{Status: iyzico.StatusSuccess, PaidPrice: req.PaidPrice, Currency: req.Currency}, nil
	}

	result, err := s.service.RunDueRenewals(s.ctx)
	s.Require().NoError(err)

	s.Equal(2, result.Total)
	s.Equal(1, result.Success)
	s.Equal(1, result.Failed)
	s.Equal(types.SubscriptionStatusActive, s.reload(healthy.ID).Status,
		"one subscription panicking must not abort the rest of the sweep")
}

func (s *RenewalServiceSuite) TestSweepSkipsSubscriptionsWithoutTokens() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusActive)
	due := time.Now().UTC().Add(-time.Hour)
	sub.NextPaymentDate = &due
	s.Require().NoError(s.subs.Update(s.ctx, sub))

	result, err := s.service.RunDueRenewals(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, result.Total)
	s.Empty(s.gateway.ChargeCalls)
}

func (s *RenewalServiceSuite) TestCircuitBreakerForcesPaymentFailed() {
	p := s.seedPlan()
	sub := s.seedDue(p, "card-flaky")

	// Three failed charges already recorded inside the trailing window.
	for i := 0; i < 3; i++ {
		msg := "declined"
		now := time.Now().UTC().Add(-time.Duration(i+1) * 24 * time.Hour)
		s.Require().NoError(s.payments.Create(s.ctx, &payment.Payment{
			ID:             types.GenerateUUID(),
			SubscriptionID: sub.ID,
			Amount:         decimal.NewFromInt(100),
			Currency:       "TRY",
			Status:         types.PaymentStatusFailed,
			ErrorMessage:   &msg,
			BaseModel:      types.BaseModel{CreatedAt: now, UpdatedAt: now},
		}))
	}

	// The sweep's charge succeeds, but the breaker still parks the
	// subscription: three strikes in the window override the happy outcome.
	result, err := s.service.RunDueRenewals(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.Success)

	s.Equal(types.SubscriptionStatusPaymentFailed, s.reload(sub.ID).Status)
}

func (s *RenewalServiceSuite) TestOldFailuresOutsideWindowDoNotTrip() {
	p := s.seedPlan()
	sub := s.seedDue(p, "card-recovered")

	for i := 0; i < 3; i++ {
		msg := "declined"
		old := time.Now().UTC().Add(-40 * 24 * time.Hour)
		s.Require().NoError(s.payments.Create(s.ctx, &payment.Payment{
			ID:             types.GenerateUUID(),
			SubscriptionID: sub.ID,
			Amount:         decimal.NewFromInt(100),
			Currency:       "TRY",
			Status:         types.PaymentStatusFailed,
			ErrorMessage:   &msg,
			BaseModel:      types.BaseModel{CreatedAt: old, UpdatedAt: old},
		}))
	}

	result, err := s.service.RunDueRenewals(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.Success)
	s.Equal(types.SubscriptionStatusActive, s.reload(sub.ID).Status)
}
