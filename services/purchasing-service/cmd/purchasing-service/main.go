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
	"github.com/rifat-karim/bizpilot/services/purchasing-service/internal/accounting"
	"github.com/rifat-karim/bizpilot/services/purchasing-service/internal/handlers"
	"github.com/rifat-karim/bizpilot/services/purchasing-service/internal/inventory"
	"github.com/rifat-karim/bizpilot/services/purchasing-service/internal/store"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()
	service := config.String("SERVICE_NAME", "purchasing-service")
	port, err := config.Port("PORT", "8086")
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

	purchStore := store.NewSeeded()
	inventoryClient := inventory.NewClient(config.String("INVENTORY_SERVICE_URL", "http://localhost:8083"))
	accountingClient := accounting.NewClient(config.String("ACCOUNTING_SERVICE_URL", "http://localhost:8087"))
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

	h := handlers.New(purchStore, inventoryClient, accountingClient, queue, logger)
	mux.HandleFunc("/api/v1/purchasing/suppliers", h.Suppliers)
	mux.HandleFunc("/api/v1/purchasing/orders", h.Orders)
	mux.HandleFunc("/api/v1/purchasing/orders/get", h.GetOrder)
	mux.HandleFunc("/api/v1/purchasing/orders/send", h.SendOrder)
	mux.HandleFunc("/api/v1/purchasing/orders/cancel", h.CancelOrder)
	mux.HandleFunc("/api/v1/purchasing/orders/receive", h.ReceiveGoods)
	mux.HandleFunc("/api/v1/purchasing/grns", h.GoodsReceived)
	mux.HandleFunc("/api/v1/purchasing/payments", h.PaySupplier)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(handler, "purchasing"),
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
