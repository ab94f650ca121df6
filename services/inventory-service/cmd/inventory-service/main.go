package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rifat-karim/bizpilot/libs/config"
	"github.com/rifat-karim/bizpilot/libs/httpx"
	otelx "github.com/rifat-karim/bizpilot/libs/otel"
	"github.com/rifat-karim/bizpilot/libs/runtime"
	"github.com/rifat-karim/bizpilot/services/inventory-service/internal/entitlements"
	"github.com/rifat-karim/bizpilot/services/inventory-service/internal/handlers"
	"github.com/rifat-karim/bizpilot/services/inventory-service/internal/store"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()
	service := config.String("SERVICE_NAME", "inventory-service")
	port, err := config.Port("PORT", "8083")
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

	invStore := store.NewSeeded()
	limitsClient := entitlements.NewClient(config.String("BILLING_SERVICE_URL", "http://localhost:8084"))

	mux := runtime.NewBaseMux()
	h := handlers.New(invStore, limitsClient, logger, config.String("DEFAULT_BUSINESS_ID", "demo-business"))
	mux.HandleFunc("/api/v1/inventory/locations", h.Locations)
	mux.HandleFunc("/api/v1/inventory/stock", h.Stock)
	mux.HandleFunc("/api/v1/inventory/stock/adjust", h.AdjustStock)
	mux.HandleFunc("/api/v1/inventory/stock/reorder-level", h.SetReorderLevel)
	mux.HandleFunc("/api/v1/inventory/stock/low", h.LowStock)
	mux.HandleFunc("/api/v1/inventory/transfers", h.Transfers)
	mux.HandleFunc("/api/v1/inventory/transfers/dispatch", h.DispatchTransfer)
	mux.HandleFunc("/api/v1/inventory/transfers/complete", h.CompleteTransfer)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(handler, "inventory"),
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
