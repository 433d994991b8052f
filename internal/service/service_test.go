package service

import (
	"context"
	"time"

	"github.com/loopcart/loopcart/internal/cache"
	"github.com/loopcart/loopcart/internal/config"
	"github.com/loopcart/loopcart/internal/domain/payment"
	"github.com/loopcart/loopcart/internal/domain/plan"
	"github.com/loopcart/loopcart/internal/domain/subscription"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/logger"
	"github.com/loopcart/loopcart/internal/testutil"
	"github.com/loopcart/loopcart/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// ServiceSuite wires in-memory stores and fake integrations for service tests.
type ServiceSuite struct {
	suite.Suite

	ctx context.Context

	params     ServiceParams
	plans      *testutil.InMemoryPlanStore
	subs       *testutil.InMemorySubscriptionStore
	payments   *testutil.InMemoryPaymentStore
	gateway    *testutil.FakeGateway
	storefront *testutil.FakeStorefront
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.plans = testutil.NewInMemoryPlanStore()
	s.subs = testutil.NewInMemorySubscriptionStore()
	s.payments = testutil.NewInMemoryPaymentStore()
	s.gateway = testutil.NewFakeGateway()
	s.storefront = testutil.NewFakeStorefront()

	cache.InitializeInMemoryCache()
	c := cache.GetInMemoryCache()
	c.Flush(s.ctx)

	s.params = ServiceParams{
		Logger:      logger.GetLogger(),
		Config:      config.GetDefaultConfig(),
		Cache:       c,
		PlanRepo:    s.plans,
		SubRepo:     s.subs,
		PaymentRepo: s.payments,
		Gateway:     s.gateway,
		Storefront:  s.storefront,
	}
}

// seedPlan stores a monthly plan with a storefront variant.
func (s *ServiceSuite) seedPlan() *plan.Plan {
	variant := "44556677"
	p := &plan.Plan{
		ID:               types.GenerateUUID(),
		Name:             "Monthly Box",
		Price:            decimal.NewFromInt(100),
		Currency:         "TRY",
		Interval:         types.BillingPeriodMonthly,
		IntervalCount:    1,
		ShopifyVariantID: &variant,
		Active:           true,
	}
	s.Require().NoError(s.plans.Create(s.ctx, p))
	return p
}

// seedSubscription stores a subscription in the given status referencing p.
func (s *ServiceSuite) seedSubscription(p *plan.Plan, status types.SubscriptionStatus) *subscription.Subscription {
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:            types.GenerateUUID(),
		CustomerEmail: "customer@example.com",
		CustomerName:  "Test Customer",
		Address:       "1 Main St",
		City:          "Istanbul",
		PlanID:        p.ID,
		Status:        status,
		Version:       1,
		BaseModel:     types.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	s.Require().NoError(s.subs.Create(s.ctx, sub))
	return sub
}

// reload fetches the stored copy of a subscription.
func (s *ServiceSuite) reload(id string) *subscription.Subscription {
	sub, err := s.subs.Get(s.ctx, id)
	s.Require().NoError(err)
	return sub
}

// paymentAttempt builds a successful attempt with the given gateway payment id.
func paymentAttempt(gatewayPaymentID string) payment.Attempt {
	return payment.Attempt{
		Status:           types.PaymentStatusSuccess,
		Amount:           decimal.NewFromInt(100),
		Currency:         "TRY",
		GatewayPaymentID: gatewayPaymentID,
	}
}

func deliveryNone() iyzico.DeliveryMetadata {
	return iyzico.DeliveryMetadata{}
}
