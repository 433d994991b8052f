package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/loopcart/loopcart/internal/api/v1"
	"github.com/loopcart/loopcart/internal/config"
	"github.com/loopcart/loopcart/internal/logger"
	"github.com/loopcart/loopcart/internal/rest/middleware"
)

// Handlers groups every HTTP handler wired into the router.
type Handlers struct {
	Health       *v1.HealthHandler
	Plan         *v1.PlanHandler
	Subscription *v1.SubscriptionHandler
	Checkout     *v1.CheckoutHandler
	Webhook      *v1.WebhookHandler
	Renewal      *v1.RenewalHandler
}

// NewRouter builds the gin engine with the standard middleware chain.
func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.LoggingMiddleware(log),
		middleware.ErrorHandler(log),
	)

	router.GET("/health", handlers.Health.Health)

	group := router.Group("/v1")

	plans := group.Group("/plans")
	{
		plans.POST("", handlers.Plan.CreatePlan)
		plans.GET("", handlers.Plan.ListPlans)
		plans.GET("/:id", handlers.Plan.GetPlan)
		plans.PUT("/:id", handlers.Plan.UpdatePlan)
		plans.DELETE("/:id", handlers.Plan.DeletePlan)
	}

	subscriptions := group.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.POST("/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.POST("/frequency", handlers.Subscription.UpdateFrequency)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
	}

	group.POST("/checkout/callback", handlers.Checkout.Callback)
	group.POST("/webhooks/iyzico", handlers.Webhook.HandleIyzico)
	group.GET("/renewals/run", handlers.Renewal.Run)

	return router
}
