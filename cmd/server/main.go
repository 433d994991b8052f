package main

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/loopcart/loopcart/internal/api"
	v1 "github.com/loopcart/loopcart/internal/api/v1"
	"github.com/loopcart/loopcart/internal/cache"
	"github.com/loopcart/loopcart/internal/config"
	"github.com/loopcart/loopcart/internal/domain/payment"
	"github.com/loopcart/loopcart/internal/domain/plan"
	"github.com/loopcart/loopcart/internal/domain/subscription"
	"github.com/loopcart/loopcart/internal/integration/iyzico"
	"github.com/loopcart/loopcart/internal/integration/iyzico/webhook"
	"github.com/loopcart/loopcart/internal/integration/shopify"
	"github.com/loopcart/loopcart/internal/logger"
	"github.com/loopcart/loopcart/internal/repository/gormstore"
	"github.com/loopcart/loopcart/internal/service"
	"github.com/loopcart/loopcart/internal/types"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			cache.Initialize,
			gormstore.NewDB,
			gormstore.NewPlanRepository,
			gormstore.NewSubscriptionRepository,
			gormstore.NewPaymentRepository,
			iyzico.NewClient,
			shopify.NewClient,
			newServiceParams,
			service.NewPlanService,
			service.NewSubscriptionService,
			service.NewPaymentService,
			service.NewRenewalService,
			webhook.NewResolver,
			webhook.NewHandler,
			v1.NewHealthHandler,
			v1.NewPlanHandler,
			v1.NewSubscriptionHandler,
			v1.NewCheckoutHandler,
			v1.NewWebhookHandler,
			v1.NewRenewalHandler,
			newHandlers,
			api.NewRouter,
		),
		fx.Invoke(initSentry, startServer),
	)

	app.Run()
}

func newServiceParams(
	log *logger.Logger,
	cfg *config.Configuration,
	c cache.Cache,
	planRepo plan.Repository,
	subRepo subscription.Repository,
	paymentRepo payment.Repository,
	gateway iyzico.Client,
	storefront shopify.Client,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:      log,
		Config:      cfg,
		Cache:       c,
		PlanRepo:    planRepo,
		SubRepo:     subRepo,
		PaymentRepo: paymentRepo,
		Gateway:     gateway,
		Storefront:  storefront,
	}
}

func newHandlers(
	health *v1.HealthHandler,
	plan *v1.PlanHandler,
	subscription *v1.SubscriptionHandler,
	checkout *v1.CheckoutHandler,
	webhook *v1.WebhookHandler,
	renewal *v1.RenewalHandler,
) api.Handlers {
	return api.Handlers{
		Health:       health,
		Plan:         plan,
		Subscription: subscription,
		Checkout:     checkout,
		Webhook:      webhook,
		Renewal:      renewal,
	}
}

func initSentry(cfg *config.Configuration, log *logger.Logger) error {
	if !cfg.Sentry.Enabled {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		TracesSampleRate: cfg.Sentry.SampleRate,
	})
	if err != nil {
		log.Errorw("sentry initialization failed", "error", err)
		return err
	}
	log.Infow("sentry initialized", "environment", cfg.Sentry.Environment)
	return nil
}

func startServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	if cfg.Deployment.Mode == types.RunModeAPI {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalw("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if cfg.Sentry.Enabled {
				sentry.Flush(2 * time.Second)
			}
			return srv.Shutdown(shutdownCtx)
		},
	})
}
