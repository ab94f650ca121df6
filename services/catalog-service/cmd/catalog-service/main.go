package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rifat-karim/bizpilot/libs/config"
	"github.com/rifat-karim/bizpilot/libs/httpx"
	otelx "github.com/rifat-karim/bizpilot/libs/otel"
	"github.com/rifat-karim/bizpilot/libs/runtime"
	"github.com/rifat-karim/bizpilot/services/catalog-service/internal/entitlements"
	"github.com/rifat-karim/bizpilot/services/catalog-service/internal/handlers"
	"github.com/rifat-karim/bizpilot/services/catalog-service/internal/store"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()
	service := config.String("SERVICE_NAME", "catalog-service")
	port, err := config.Port("PORT", "8082")
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

	catalogStore := store.NewSeeded()
	limitsClient := entitlements.NewClient(config.String("BILLING_SERVICE_URL", "http://localhost:8084"))

	mux := runtime.NewBaseMux()
	h := handlers.New(catalogStore, limitsClient, logger, config.String("DEFAULT_BUSINESS_ID", "demo-business"))
	mux.HandleFunc("/api/v1/catalog/products", h.Products)
	mux.HandleFunc("/api/v1/catalog/products/get", h.GetProduct)
	mux.HandleFunc("/api/v1/catalog/products/update", h.UpdateProduct)
	mux.HandleFunc("/api/v1/catalog/products/delete", h.DeleteProduct)
	mux.HandleFunc("/api/v1/catalog/collections", h.Collections)
	mux.HandleFunc("/api/v1/catalog/collections/products", h.CollectionProducts)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(handler, "catalog"),
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
