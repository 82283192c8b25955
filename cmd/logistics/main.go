package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/procureflow/procureflow/internal/config"
	"github.com/procureflow/procureflow/internal/logistics"
	"github.com/procureflow/procureflow/internal/messaging"
	"github.com/procureflow/procureflow/internal/orders"
	"github.com/procureflow/procureflow/internal/saga"
	"github.com/procureflow/procureflow/internal/shipments"
	"github.com/procureflow/procureflow/internal/stock"
	"github.com/procureflow/procureflow/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var cfg config.Logistics
	if err := config.Parse(&cfg); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "logistics", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("logistics", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(db)
	stockRepo := stock.NewRepository(db)
	shipmentRepo := shipments.NewRepository(db)
	selector := &saga.RandomBranchSelector{Candidates: cfg.BranchCandidates}

	var svc *saga.Logistics
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.EventsTopic)
		defer func() { _ = producer.Close() }()
		svc = saga.NewLogistics(orderRepo, stockRepo, shipmentRepo, producer, selector, logger)
	} else {
		svc = saga.NewLogistics(orderRepo, stockRepo, shipmentRepo, nil, selector, logger)
	}

	handler := logistics.NewHandler(svc, shipmentRepo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /dispatches/{orderId}/confirm", handler.HandleConfirmDispatch)
	mux.HandleFunc("GET /dispatches/{orderId}", handler.HandleGetShipment)
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting logistics service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
