package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rifat-karim/bizpilot/libs/config"
	"github.com/rifat-karim/bizpilot/libs/httpx"
	"github.com/rifat-karim/bizpilot/libs/kafkax"
	otelx "github.com/rifat-karim/bizpilot/libs/otel"
	"github.com/rifat-karim/bizpilot/libs/runtime"
	"github.com/rifat-karim/bizpilot/services/accounting-service/internal/consumer"
	"github.com/rifat-karim/bizpilot/services/accounting-service/internal/handlers"
	"github.com/rifat-karim/bizpilot/services/accounting-service/internal/inbox"
	"github.com/rifat-karim/bizpilot/services/accounting-service/internal/ledger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()
	service := config.String("SERVICE_NAME", "accounting-service")
	port, err := config.Port("PORT", "8087")
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

	book := ledger.NewSeeded()

	var checks []runtime.ReadyCheck
	brokers := config.String("KAFKA_BROKERS", "")
	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
		startConsumers(ctx, logger, book, brokers)
	}
	mux := runtime.NewBaseMux(checks...)

	h := handlers.New(book, logger)
	mux.HandleFunc("/api/v1/accounting/accounts", h.Accounts)
	mux.HandleFunc("/api/v1/accounting/journal", h.JournalEntries)
	mux.HandleFunc("/api/v1/accounting/expenses", h.RecordExpense)
	mux.HandleFunc("/api/v1/accounting/payments/supplier", h.SupplierPayment)
	mux.HandleFunc("/api/v1/accounting/trial-balance", h.TrialBalance)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(handler, "accounting"),
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

// startConsumers auto-books POS sales and goods receipts from the event
// stream so the ledger stays current without manual entries.
func startConsumers(ctx context.Context, logger *slog.Logger, book *ledger.Ledger, brokers string) {
	groupID := config.String("KAFKA_GROUP_ID", "accounting-service")
	inboxRepo := inbox.NewRepository()

	salesConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "pos.order.checked_out.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			OrderID string `json:"order_id"`
			Totals  struct {
				TaxCents   int64 `json:"tax_cents"`
				TotalCents int64 `json:"total_cents"`
			} `json:"totals"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid checkout payload", "err", err)
			return nil
		}
		if payload.OrderID == "" || payload.Totals.TotalCents <= 0 {
			return nil
		}

		if _, err := book.PostSale(payload.OrderID, payload.Totals.TotalCents, payload.Totals.TaxCents); err != nil {
			logger.Error("failed to book sale", "order_id", payload.OrderID, "err", err)
			return err
		}
		logger.Info("sale booked", "order_id", payload.OrderID, "total_cents", payload.Totals.TotalCents)
		return nil
	})
	go salesConsumer.Run(ctx)

	grnConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "purchasing.grn.received.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			GrnID      string `json:"grn_id"`
			OrderID    string `json:"order_id"`
			ValueCents int64  `json:"value_cents"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid grn payload", "err", err)
			return nil
		}
		if payload.GrnID == "" || payload.ValueCents <= 0 {
			return nil
		}

		if _, err := book.PostGoodsReceipt(payload.GrnID, payload.ValueCents); err != nil {
			logger.Error("failed to book goods receipt", "grn_id", payload.GrnID, "err", err)
			return err
		}
		logger.Info("goods receipt booked", "grn_id", payload.GrnID, "value_cents", payload.ValueCents)
		return nil
	})
	go grnConsumer.Run(ctx)
}
