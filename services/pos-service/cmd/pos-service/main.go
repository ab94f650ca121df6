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
	"github.com/rifat-karim/bizpilot/services/pos-service/internal/catalog"
	"github.com/rifat-karim/bizpilot/services/pos-service/internal/entitlements"
	"github.com/rifat-karim/bizpilot/services/pos-service/internal/handlers"
	"github.com/rifat-karim/bizpilot/services/pos-service/internal/orders"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()
	service := config.String("SERVICE_NAME", "pos-service")
	port, err := config.Port("PORT", "8085")
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

	register := orders.NewRegister(orders.Config{
		ClampNegativeTotal: config.Bool("POS_CLAMP_NEGATIVE_TOTAL", true),
		RequireFullTender:  config.Bool("POS_REQUIRE_FULL_TENDER", true),
	})
	catalogClient := catalog.NewClient(config.String("CATALOG_SERVICE_URL", "http://localhost:8082"))
	limitsClient := entitlements.NewClient(config.String("BILLING_SERVICE_URL", "http://localhost:8084"))
	queue := eventx.NewQueue(config.Int("EVENT_QUEUE_CAPACITY", 4096))

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

	h := handlers.NewPosHandler(register, catalogClient, limitsClient, queue, logger,
		config.String("DEFAULT_BUSINESS_ID", "demo-business"))
	mux.HandleFunc("/api/v1/pos/orders", h.Orders)
	mux.HandleFunc("/api/v1/pos/orders/active", h.ActiveOrder)
	mux.HandleFunc("/api/v1/pos/orders/held", h.HeldOrders)
	mux.HandleFunc("/api/v1/pos/orders/hold", h.HoldOrder)
	mux.HandleFunc("/api/v1/pos/orders/resume", h.ResumeOrder)
	mux.HandleFunc("/api/v1/pos/orders/clear", h.ClearOrder)
	mux.HandleFunc("/api/v1/pos/orders/discount", h.SetOrderDiscount)
	mux.HandleFunc("/api/v1/pos/orders/totals", h.Totals)
	mux.HandleFunc("/api/v1/pos/orders/kitchen", h.SendToKitchen)
	mux.HandleFunc("/api/v1/pos/orders/checkout", h.Checkout)
	mux.HandleFunc("/api/v1/pos/items/add", h.AddItem)
	mux.HandleFunc("/api/v1/pos/items/quantity", h.SetQuantity)
	mux.HandleFunc("/api/v1/pos/items/discount", h.SetItemDiscount)
	mux.HandleFunc("/api/v1/pos/items/remove", h.RemoveItem)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(handler, "pos"),
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
