package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rifat-karim/bizpilot/libs/config"
	"github.com/rifat-karim/bizpilot/libs/eventx"
	"github.com/rifat-karim/bizpilot/libs/httpx"
	"github.com/rifat-karim/bizpilot/libs/kafkax"
	otelx "github.com/rifat-karim/bizpilot/libs/otel"
	"github.com/rifat-karim/bizpilot/libs/runtime"
	"github.com/rifat-karim/bizpilot/services/billing-service/internal/handlers"
	"github.com/rifat-karim/bizpilot/services/billing-service/internal/storage"
	"github.com/rifat-karim/bizpilot/services/billing-service/internal/subscriptions"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()
	service := config.String("SERVICE_NAME", "billing-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	repo := storage.NewRepository(config.String("DEFAULT_PLAN_ID", "plan-basic"))
	queue := eventx.NewQueue(config.Int("EVENT_QUEUE_CAPACITY", 4096))
	subSvc := subscriptions.New(repo, queue)

	brokers := config.String("KAFKA_BROKERS", "")
	publisher := eventx.NewPublisher(queue, logger, eventx.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go publisher.Run(ctx)

	var checks []runtime.ReadyCheck
	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	mux := runtime.NewBaseMux(checks...)

	h := handlers.New(repo, subSvc, logger, handlers.Config{
		StripeWebhookSecret:           config.String("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookToleranceSeconds: config.Int("STRIPE_WEBHOOK_TOLERANCE_SECONDS", 300),
	})
	mux.HandleFunc("/api/v1/billing/plans", h.ListPlans)
	mux.HandleFunc("/api/v1/billing/subscription", h.GetSubscription)
	mux.HandleFunc("/api/v1/billing/entitlements", h.Entitlements)
	mux.HandleFunc("/api/v1/billing/limits", h.CheckLimit)
	mux.HandleFunc("/api/v1/billing/features", h.FeatureAccess)
	mux.HandleFunc("/api/v1/billing/webhooks/local", h.LocalWebhook)
	mux.HandleFunc("/api/v1/billing/webhooks/stripe", h.StripeWebhook)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(handler, "billing"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
