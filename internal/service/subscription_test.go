package service

import (
	"context"
	"testing"
	"time"

	"github.com/loopcart/loopcart/internal/api/dto"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/testutil"
	"github.com/loopcart/loopcart/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceSuite struct {
	ServiceSuite
	service SubscriptionService
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.ServiceSuite.SetupTest()
	s.service = NewSubscriptionService(s.params)
}

func (s *SubscriptionServiceSuite) TestCreateStartsPending() {
	p := s.seedPlan()

	resp, err := s.service.Create(s.ctx, &dto.CreateSubscriptionRequest{
		PlanID:        p.ID,
		CustomerEmail: "Customer@Example.COM",
	})
	s.Require().NoError(err)

	s.Equal(types.SubscriptionStatusPending, resp.Status)
	s.Equal("customer@example.com", resp.CustomerEmail, "email is the identity key and must be lowercased")
	s.Nil(resp.NextPaymentDate)
	s.Equal(resp.ID, resp.ConversationID, "no delivery details means a bare correlation id")
}

func (s *SubscriptionServiceSuite) TestCreateEmbedsDeliveryMetadata() {
	p := s.seedPlan()

	resp, err := s.service.Create(s.ctx, &dto.CreateSubscriptionRequest{
		PlanID:        p.ID,
		CustomerEmail: "customer@example.com",
		DeliveryDate:  "2026-09-15",
		DeliveryNote:  "leave at door",
		Source:        "storefront",
	})
	s.Require().NoError(err)

	id, meta := iyzico.SplitConversationID(resp.ConversationID)
	s.Equal(resp.ID, id)
	s.Equal("2026-09-15", meta.DeliveryDate)
	s.Equal("leave at door", meta.DeliveryNote)
	s.Equal("storefront", meta.Source)
}

func (s *SubscriptionServiceSuite) TestCreateRejectsInactivePlan() {
	p := s.seedPlan()
	p.Active = false
	s.Require().NoError(s.plans.Update(s.ctx, p))

	_, err := s.service.Create(s.ctx, &dto.CreateSubscriptionRequest{
		PlanID:        p.ID,
		CustomerEmail: "customer@example.com",
	})
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestCheckoutSuccessActivates() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusPending)

	before := time.Now().UTC()
	err := s.service.ApplyCheckoutSuccess(s.ctx, sub, &CheckoutOutcome{
		PaidAmount:       decimal.NewFromInt(100),
		Currency:         "TRY",
		GatewayPaymentID: "P1",
		GatewayRef:       "GW-REF-1",
		CardUserKey:      "cuk",
		CardToken:        "ct",
	})
	s.Require().NoError(err)

	stored := s.reload(sub.ID)
	s.Equal(types.SubscriptionStatusActive, stored.Status)
	s.Require().NotNil(stored.GatewayRef)
	s.Equal("GW-REF-1", *stored.GatewayRef)
	s.True(stored.HasSavedCard())
	s.Require().NotNil(stored.NextPaymentDate)

	// Monthly plan: next payment lands one calendar month out.
	wantMin := before.AddDate(0, 1, 0).Add(-time.Minute)
	wantMax := time.Now().UTC().AddDate(0, 1, 0).Add(time.Minute)
	s.True(stored.NextPaymentDate.After(wantMin) && stored.NextPaymentDate.Before(wantMax))

	rows, err := s.payments.ListBySubscription(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(types.PaymentStatusSuccess, rows[0].Status)
	s.Require().NotNil(rows[0].IyzicoPaymentID)
	s.Equal("P1", *rows[0].IyzicoPaymentID)

	// Order side effect fired and was back-linked.
	s.Len(s.storefront.CreateOrderCalls, 1)
	s.NotNil(stored.LastOrderID)
	s.Require().NotNil(rows[0].OrderID)
}

func (s *SubscriptionServiceSuite) TestDuplicateCheckoutSuccessIsNoOp() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusPending)

	outcome := &CheckoutOutcome{
		PaidAmount:       decimal.NewFromInt(100),
		Currency:         "TRY",
		GatewayPaymentID: "P1",
	}
	s.Require().NoError(s.service.ApplyCheckoutSuccess(s.ctx, sub, outcome))

	first := s.reload(sub.ID)
	s.Require().NotNil(first.NextPaymentDate)
	firstNext := *first.NextPaymentDate
	firstOrders := len(s.storefront.CreateOrderCalls)

	// Same notification delivered again.
	s.Require().NoError(s.service.ApplyCheckoutSuccess(s.ctx, first, outcome))

	second := s.reload(sub.ID)
	s.Equal(types.SubscriptionStatusActive, second.Status)
	s.True(firstNext.Equal(*second.NextPaymentDate), "duplicate delivery must not move the next payment date")

	rows, err := s.payments.ListBySubscription(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Len(rows, 1, "still exactly one payment row for P1")
	s.Equal(types.PaymentStatusSuccess, rows[0].Status)
	s.Len(s.storefront.CreateOrderCalls, firstOrders, "no second order")
}

func (s *SubscriptionServiceSuite) TestCheckoutFailureNeverActivates() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusPending)

	err := s.service.ApplyCheckoutFailure(s.ctx, sub, &CheckoutOutcome{
		GatewayPaymentID: "P2",
		ErrorMessage:     "card declined",
	})
	s.Require().NoError(err)

	stored := s.reload(sub.ID)
	s.Equal(types.SubscriptionStatusPaymentFailed, stored.Status)
	s.Nil(stored.NextPaymentDate)

	rows, err := s.payments.ListBySubscription(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(types.PaymentStatusFailed, rows[0].Status)
	s.Require().NotNil(rows[0].ErrorMessage)
	s.Equal("card declined", *rows[0].ErrorMessage)
	s.Empty(s.storefront.CreateOrderCalls)
}

func (s *SubscriptionServiceSuite) TestFailureThenSuccessUpgradesSameCharge() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusPending)

	s.Require().NoError(s.service.ApplyCheckoutFailure(s.ctx, sub, &CheckoutOutcome{
		GatewayPaymentID: "P3",
		ErrorMessage:     "3ds timeout",
	}))
	sub = s.reload(sub.ID)

	s.Require().NoError(s.service.ApplyCheckoutSuccess(s.ctx, sub, &CheckoutOutcome{
		PaidAmount:       decimal.NewFromInt(100),
		Currency:         "TRY",
		GatewayPaymentID: "P3",
	}))

	rows, err := s.payments.ListBySubscription(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1, "retry of the same charge refines the existing row")
	s.Equal(types.PaymentStatusSuccess, rows[0].Status)
	s.Nil(rows[0].ErrorMessage)
	s.Equal(types.SubscriptionStatusActive, s.reload(sub.ID).Status)
}

func (s *SubscriptionServiceSuite) TestRenewalSuccessRecoversFromPaymentFailed() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusPaymentFailed)

	err := s.service.ApplyRenewalSuccess(s.ctx, sub, paymentAttempt("R1"), deliveryNone())
	s.Require().NoError(err)

	stored := s.reload(sub.ID)
	s.Equal(types.SubscriptionStatusActive, stored.Status)
	s.NotNil(stored.NextPaymentDate)
}

func (s *SubscriptionServiceSuite) TestRenewalFailureParksSubscription() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusActive)

	attempt := paymentAttempt("R2")
	attempt.Status = types.PaymentStatusFailed
	attempt.ErrorMessage = "insufficient funds"
	s.Require().NoError(s.service.ApplyRenewalFailure(s.ctx, sub, attempt))

	s.Equal(types.SubscriptionStatusPaymentFailed, s.reload(sub.ID).Status)
}

func (s *SubscriptionServiceSuite) TestCancelGatewayNative() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusActive)
	ref := "GW-REF-9"
	sub.GatewayRef = &ref
	s.Require().NoError(s.subs.Update(s.ctx, sub))

	err := s.service.Cancel(s.ctx, &dto.CancelSubscriptionRequest{SubscriptionID: sub.ID})
	s.Require().NoError(err)

	s.Equal([]string{"GW-REF-9"}, s.gateway.CancelCalls, "gateway is cancelled first")
	stored := s.reload(sub.ID)
	s.Equal(types.SubscriptionStatusCancelled, stored.Status)
	s.NotNil(stored.CancelledAt)
}

func (s *SubscriptionServiceSuite) TestCancelIdempotentOnGatewayCode() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusActive)
	ref := "GW-REF-10"
	sub.GatewayRef = &ref
	s.Require().NoError(s.subs.Update(s.ctx, sub))

	s.gateway.CancelSubscriptionFn = func(ctx context.Context, subscriptionRef string) error {
		return testutil.GatewayError("200702", "Subscription status is not suitable for cancellation")
	}

	err := s.service.Cancel(s.ctx, &dto.CancelSubscriptionRequest{SubscriptionID: sub.ID})
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, s.reload(sub.ID).Status)
}

func (s *SubscriptionServiceSuite) TestCancelIdempotentOnDiacriticMessage() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusActive)
	ref := "GW-REF-11"
	sub.GatewayRef = &ref
	s.Require().NoError(s.subs.Update(s.ctx, sub))

	s.gateway.CancelSubscriptionFn = func(ctx context.Context, subscriptionRef string) error {
		return testutil.GatewayError("100500", "Subscription ALREÁDY CANCÉLLED at provider")
	}

	err := s.service.Cancel(s.ctx, &dto.CancelSubscriptionRequest{SubscriptionID: sub.ID})
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, s.reload(sub.ID).Status)
}

func (s *SubscriptionServiceSuite) TestCancelAbortsOnOtherGatewayError() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusActive)
	ref := "GW-REF-12"
	sub.GatewayRef = &ref
	s.Require().NoError(s.subs.Update(s.ctx, sub))

	s.gateway.CancelSubscriptionFn = func(ctx context.Context, subscriptionRef string) error {
		return testutil.GatewayError("100001", "system error")
	}

	err := s.service.Cancel(s.ctx, &dto.CancelSubscriptionRequest{SubscriptionID: sub.ID})
	s.Require().Error(err)
	s.True(ierr.IsGateway(err))
	s.Equal(types.SubscriptionStatusActive, s.reload(sub.ID).Status, "local state untouched when the gateway refuses")
}

func (s *SubscriptionServiceSuite) TestCancelAlreadyCancelledLocally() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusCancelled)

	err := s.service.Cancel(s.ctx, &dto.CancelSubscriptionRequest{SubscriptionID: sub.ID})
	s.Require().NoError(err)
	s.Empty(s.gateway.CancelCalls)
}

func (s *SubscriptionServiceSuite) TestCancelWrongEmailMasked() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusActive)

	err := s.service.Cancel(s.ctx, &dto.CancelSubscriptionRequest{
		SubscriptionID: sub.ID,
		Email:          "someone-else@example.com",
	})
	s.True(ierr.IsNotFound(err))
	s.Empty(s.gateway.CancelCalls)
	s.Equal(types.SubscriptionStatusActive, s.reload(sub.ID).Status)
}

func (s *SubscriptionServiceSuite) TestUpdateFrequency() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusActive)

	before := time.Now().UTC()
	resp, err := s.service.UpdateFrequency(s.ctx, &dto.UpdateFrequencyRequest{
		SubscriptionID: sub.ID,
		Email:          "customer@example.com",
		Frequency:      "2_week",
	})
	s.Require().NoError(err)
	s.True(resp.Success)
	s.Equal("2_week", resp.NewFrequency)

	storedPlan, err := s.plans.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(types.BillingPeriodWeekly, storedPlan.Interval)
	s.Equal(2, storedPlan.IntervalCount)

	stored := s.reload(sub.ID)
	s.Require().NotNil(stored.NextPaymentDate)
	wantMin := before.AddDate(0, 0, 14).Add(-time.Minute)
	wantMax := time.Now().UTC().AddDate(0, 0, 14).Add(time.Minute)
	s.True(stored.NextPaymentDate.After(wantMin) && stored.NextPaymentDate.Before(wantMax),
		"next payment recomputed from now, fourteen days out")
}

func (s *SubscriptionServiceSuite) TestUpdateFrequencyRejectsGatewayNative() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusActive)
	ref := "GW-REF-20"
	sub.GatewayRef = &ref
	s.Require().NoError(s.subs.Update(s.ctx, sub))

	_, err := s.service.UpdateFrequency(s.ctx, &dto.UpdateFrequencyRequest{
		SubscriptionID: sub.ID,
		Email:          "customer@example.com",
		Frequency:      "2_week",
	})
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestUpdateFrequencyRequiresActive() {
	p := s.seedPlan()
	sub := s.seedSubscription(p, types.SubscriptionStatusPending)

	_, err := s.service.UpdateFrequency(s.ctx, &dto.UpdateFrequencyRequest{
		SubscriptionID: sub.ID,
		Email:          "customer@example.com",
		Frequency:      "1_month",
	})
	s.True(ierr.IsInvalidOperation(err))
}
