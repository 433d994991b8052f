package service

import (
	"github.com/loopcart/loopcart/internal/cache"
	"github.com/loopcart/loopcart/internal/config"
	"github.com/loopcart/loopcart/internal/domain/payment"
	"github.com/loopcart/loopcart/internal/domain/plan"
	"github.com/loopcart/loopcart/internal/domain/subscription"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/integration/shopify"
	"github.com/loopcart/loopcart/internal/logger"
)

// ServiceParams bundles the dependencies shared by all services so
// constructors stay stable as the dependency set grows.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Cache  cache.Cache

	PlanRepo    plan.Repository
	SubRepo     subscription.Repository
	PaymentRepo payment.Repository

	Gateway    iyzico.Client
	Storefront shopify.Client
}
