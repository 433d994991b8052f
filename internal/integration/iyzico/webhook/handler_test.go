package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/loopcart/loopcart/internal/cache"
	"github.com/loopcart/loopcart/internal/config"
	"github.com/loopcart/loopcart/internal/domain/plan"
	"github.com/loopcart/loopcart/internal/domain/subscription"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/logger"
	"github.com/loopcart/loopcart/internal/service"
	"github.com/loopcart/loopcart/internal/testutil"
	"github.com/loopcart/loopcart/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type WebhookHandlerSuite struct {
	suite.Suite

	ctx        context.Context
	plans      *testutil.InMemoryPlanStore
	subs       *testutil.InMemorySubscriptionStore
	payments   *testutil.InMemoryPaymentStore
	gateway    *testutil.FakeGateway
	storefront *testutil.FakeStorefront
	handler    *Handler
}

func TestWebhookHandler(t *testing.T) {
	suite.Run(t, new(WebhookHandlerSuite))
}

func (s *WebhookHandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.plans = testutil.NewInMemoryPlanStore()
	s.subs = testutil.NewInMemorySubscriptionStore()
	s.payments = testutil.NewInMemoryPaymentStore()
	s.gateway = testutil.NewFakeGateway()
	s.storefront = testutil.NewFakeStorefront()

	cache.InitializeInMemoryCache()
	c := cache.GetInMemoryCache()
	c.Flush(s.ctx)

	params := service.ServiceParams{
		Logger:      logger.GetLogger(),
		Config:      config.GetDefaultConfig(),
		Cache:       c,
		PlanRepo:    s.plans,
		SubRepo:     s.subs,
		PaymentRepo: s.payments,
		Gateway:     s.gateway,
		Storefront:  s.storefront,
	}
	log := logger.GetLogger()
	s.handler = NewHandler(NewResolver(s.subs, log), service.NewSubscriptionService(params), log)
}

func (s *WebhookHandlerSuite) seedPlan() *plan.Plan {
	p := &plan.Plan{
		ID:            types.GenerateUUID(),
		Name:          "Monthly Box",
		Price:         decimal.NewFromInt(100),
		Currency:      "TRY",
		Interval:      types.BillingPeriodMonthly,
		IntervalCount: 1,
		Active:        true,
	}
	s.Require().NoError(s.plans.Create(s.ctx, p))
	return p
}

func (s *WebhookHandlerSuite) seedSubscription(status types.SubscriptionStatus, gatewayRef string) *subscription.Subscription {
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:            types.GenerateUUID(),
		CustomerEmail: "customer@example.com",
		PlanID:        s.seedPlan().ID,
		Status:        status,
		Version:       1,
		BaseModel:     types.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	if gatewayRef != "" {
		sub.GatewayRef = &gatewayRef
	}
	s.Require().NoError(s.subs.Create(s.ctx, sub))
	return sub
}

func (s *WebhookHandlerSuite) reload(id string) *subscription.Subscription {
	sub, err := s.subs.Get(s.ctx, id)
	s.Require().NoError(err)
	return sub
}

func (s *WebhookHandlerSuite) TestOrderSuccessByGatewayRef() {
	sub := s.seedSubscription(types.SubscriptionStatusActive, "GW-1")

	ack := s.handler.HandleEvent(s.ctx, &Event{
		EventType: EventSubscriptionOrderSuccess,
		Payload: EventPayload{
			SubscriptionReferenceCode: "GW-1",
			PaymentID:                 "P100",
			PaidPrice:                 decimal.NewFromInt(100),
			Currency:                  "TRY",
		},
	})

	s.True(ack.Received)
	s.False(ack.Skipped)

	stored := s.reload(sub.ID)
	s.Equal(types.SubscriptionStatusActive, stored.Status)
	s.NotNil(stored.NextPaymentDate)

	rows, err := s.payments.ListBySubscription(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(types.PaymentStatusSuccess, rows[0].Status)
}

func (s *WebhookHandlerSuite) TestOrderSuccessDuplicateDelivery() {
	sub := s.seedSubscription(types.SubscriptionStatusActive, "GW-2")
	event := &Event{
		EventType: EventSubscriptionOrderSuccess,
		Payload: EventPayload{
			SubscriptionReferenceCode: "GW-2",
			PaymentID:                 "P200",
			PaidPrice:                 decimal.NewFromInt(100),
			Currency:                  "TRY",
		},
	}

	s.handler.HandleEvent(s.ctx, event)
	firstNext := s.reload(sub.ID).NextPaymentDate
	s.Require().NotNil(firstNext)

	s.handler.HandleEvent(s.ctx, event)

	rows, err := s.payments.ListBySubscription(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Len(rows, 1, "redelivery must not duplicate the ledger row")
	s.True(firstNext.Equal(*s.reload(sub.ID).NextPaymentDate),
		"redelivery must not advance the billing period")
}

func (s *WebhookHandlerSuite) TestUUIDFallbackWhenRefUnknown() {
	// The stored subscription has no gateway ref; the event carries an
	// unknown ref plus a conversation id embedding the local id.
	sub := s.seedSubscription(types.SubscriptionStatusPaymentFailed, "")

	ack := s.handler.HandleEvent(s.ctx, &Event{
		EventType: EventSubscriptionOrderSuccess,
		Payload: EventPayload{
			SubscriptionReferenceCode: "UNKNOWN-REF",
			ConversationID:            "retry-" + sub.ID,
			PaymentID:                 "P300",
			PaidPrice:                 decimal.NewFromInt(100),
			Currency:                  "TRY",
		},
	})

	s.True(ack.Received)
	s.False(ack.Skipped)
	s.Equal(types.SubscriptionStatusActive, s.reload(sub.ID).Status,
		"renewal success recovers a parked subscription")
}

func (s *WebhookHandlerSuite) TestUUIDFallbackScansSubscriptionReferenceCode() {
	// Legacy events carry the local id prefixed inside the subscription
	// reference code; the exact ref lookup misses but the UUID scan must not.
	sub := s.seedSubscription(types.SubscriptionStatusActive, "")

	ack := s.handler.HandleEvent(s.ctx, &Event{
		EventType: EventSubscriptionOrderSuccess,
		Payload: EventPayload{
			SubscriptionReferenceCode: "legacy-" + sub.ID,
			PaymentID:                 "P310",
			PaidPrice:                 decimal.NewFromInt(100),
			Currency:                  "TRY",
		},
	})

	s.True(ack.Received)
	s.False(ack.Skipped)

	rows, err := s.payments.ListBySubscription(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(types.PaymentStatusSuccess, rows[0].Status)
}

func (s *WebhookHandlerSuite) TestGatewayRefWinsOverEmbeddedUUID() {
	byRef := s.seedSubscription(types.SubscriptionStatusActive, "GW-3")
	byUUID := s.seedSubscription(types.SubscriptionStatusActive, "")

	s.handler.HandleEvent(s.ctx, &Event{
		EventType: EventSubscriptionOrderSuccess,
		Payload: EventPayload{
			SubscriptionReferenceCode: "GW-3",
			ConversationID:            byUUID.ID,
			PaymentID:                 "P400",
			PaidPrice:                 decimal.NewFromInt(100),
			Currency:                  "TRY",
		},
	})

	refRows, err := s.payments.ListBySubscription(s.ctx, byRef.ID)
	s.Require().NoError(err)
	s.Len(refRows, 1)

	uuidRows, err := s.payments.ListBySubscription(s.ctx, byUUID.ID)
	s.Require().NoError(err)
	s.Empty(uuidRows, "reference code resolution takes priority over the UUID scan")
}

func (s *WebhookHandlerSuite) TestUnresolvableEventSkippedWithZeroWrites() {
	sub := s.seedSubscription(types.SubscriptionStatusActive, "GW-4")

	ack := s.handler.HandleEvent(s.ctx, &Event{
		EventType: EventSubscriptionOrderSuccess,
		Payload: EventPayload{
			SubscriptionReferenceCode: "NOBODY",
			ConversationID:            "no uuid here",
			PaymentID:                 "P500",
		},
	})

	s.True(ack.Received)
	s.True(ack.Skipped)

	rows, err := s.payments.ListBySubscription(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Empty(rows)
	s.Equal(types.SubscriptionStatusActive, s.reload(sub.ID).Status)
}

func (s *WebhookHandlerSuite) TestOrderFailureParksSubscription() {
	sub := s.seedSubscription(types.SubscriptionStatusActive, "GW-5")

	s.handler.HandleEvent(s.ctx, &Event{
		EventType: EventSubscriptionOrderFailure,
		Payload: EventPayload{
			SubscriptionReferenceCode: "GW-5",
			ErrorCode:                 "10051",
			ErrorMessage:              "insufficient funds",
		},
	})

	stored := s.reload(sub.ID)
	s.Equal(types.SubscriptionStatusPaymentFailed, stored.Status)

	rows, err := s.payments.ListBySubscription(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(types.PaymentStatusFailed, rows[0].Status)
}

func (s *WebhookHandlerSuite) TestCancelEvent() {
	sub := s.seedSubscription(types.SubscriptionStatusActive, "GW-6")

	s.handler.HandleEvent(s.ctx, &Event{
		EventType: EventSubscriptionCancel,
		Payload:   EventPayload{SubscriptionReferenceCode: "GW-6"},
	})

	stored := s.reload(sub.ID)
	s.Equal(types.SubscriptionStatusCancelled, stored.Status)
	s.NotNil(stored.CancelledAt)
}

func (s *WebhookHandlerSuite) TestUnknownEventTypeIgnored() {
	sub := s.seedSubscription(types.SubscriptionStatusActive, "GW-7")

	ack := s.handler.HandleEvent(s.ctx, &Event{
		EventType: "THREEDS_CALLBACK",
		Payload:   EventPayload{SubscriptionReferenceCode: "GW-7"},
	})

	s.True(ack.Received)
	rows, err := s.payments.ListBySubscription(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *WebhookHandlerSuite) TestCheckoutFormAuthActivatesPending() {
	sub := s.seedSubscription(types.SubscriptionStatusPending, "")

	ack := s.handler.HandleEvent(s.ctx, &Event{
		EventType:      EventCheckoutFormAuth,
		ConversationID: sub.ID,
		Payload: EventPayload{
			PaymentID: "P700",
			PaidPrice: decimal.NewFromInt(100),
			Currency:  "TRY",
		},
	})

	s.True(ack.Received)
	s.False(ack.Skipped)
	s.Equal(types.SubscriptionStatusActive, s.reload(sub.ID).Status)
}

func (s *WebhookHandlerSuite) TestCheckoutFormAuthFailureNeverActivates() {
	sub := s.seedSubscription(types.SubscriptionStatusPending, "")

	ack := s.handler.HandleEvent(s.ctx, &Event{
		EventType:      EventCheckoutFormAuth,
		ConversationID: sub.ID,
		Payload: EventPayload{
			Status:       iyzico.StatusFailure,
			ErrorCode:    "10051",
			ErrorMessage: "insufficient funds",
		},
	})

	s.True(ack.Received)
	s.False(ack.Skipped)

	stored := s.reload(sub.ID)
	s.Equal(types.SubscriptionStatusPaymentFailed, stored.Status)

	rows, err := s.payments.ListBySubscription(s.ctx, sub.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(types.PaymentStatusFailed, rows[0].Status)
	s.Require().NotNil(rows[0].ErrorMessage)
	s.Equal("insufficient funds", *rows[0].ErrorMessage)
}
