package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/canteenhq/settlement/internal/inventory"
	"github.com/canteenhq/settlement/internal/merchants"
	"github.com/canteenhq/settlement/internal/messaging"
	"github.com/canteenhq/settlement/internal/orders"
	"github.com/canteenhq/settlement/internal/payments"
	"github.com/canteenhq/settlement/internal/telemetry"
	"github.com/canteenhq/settlement/internal/wallet"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "settlement", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("settlement", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		producer = messaging.NewProducer(brokers, "order.confirmed")
		defer func() { _ = producer.Close() }()
	}

	paymentGatewayURL := os.Getenv("PAYMENT_GATEWAY_URL")
	if paymentGatewayURL == "" {
		paymentGatewayURL = "https://gateway.example.com"
	}

	// The adapters talk to the remote gateway on their own bounded
	// timeout, never under a database lock.
	gatewayClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	inventoryRepo := inventory.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	merchantRepo := merchants.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	paymentRepo := payments.NewRepository(db)

	paymentMetrics, err := payments.NewMetrics()
	if err != nil {
		logger.Error("failed to create payment metrics", "error", err)
		os.Exit(1)
	}

	orderService := orders.NewService(db, orderRepo, inventoryRepo)
	selector := payments.NewProcessorSelector(paymentGatewayURL, gatewayClient, walletRepo)

	var publisher payments.Publisher
	if producer != nil {
		publisher = producer
	}
	paymentService := payments.NewService(db, paymentRepo, orderRepo, merchantRepo, selector, publisher, paymentMetrics, logger)

	orderHandler := orders.NewHandler(orderService, logger)
	paymentHandler := payments.NewHandler(paymentService, logger)
	walletHandler := wallet.NewHandler(walletRepo, logger)
	merchantHandler := merchants.NewHandler(merchantRepo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", orderHandler.HandleCreate)
	mux.HandleFunc("GET /orders/{id}", orderHandler.HandleGet)
	mux.HandleFunc("POST /orders/{id}/cancel", orderHandler.HandleCancel)
	mux.HandleFunc("PATCH /orders/{id}/status", orderHandler.HandleUpdateStatus)
	mux.HandleFunc("GET /users/{userId}/orders", orderHandler.HandleListByUser)
	mux.HandleFunc("POST /payments/initiate", paymentHandler.HandleInitiate)
	mux.HandleFunc("POST /payments/verify", paymentHandler.HandleVerify)
	mux.HandleFunc("POST /payments/{orderId}/refund", paymentHandler.HandleRefund)
	mux.HandleFunc("GET /users/{userId}/payments", paymentHandler.HandleHistory)
	mux.HandleFunc("GET /users/{userId}/wallet", walletHandler.HandleGet)
	mux.HandleFunc("GET /merchants/{canteenId}", merchantHandler.HandleGet)
	mux.Handle("GET /metrics", metricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting settlement service", "port", port)
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
