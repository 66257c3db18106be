package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/canteenhq/settlement/internal/gateway"
	"github.com/canteenhq/settlement/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	settlementServiceURL := os.Getenv("SETTLEMENT_SERVICE_URL")
	if settlementServiceURL == "" {
		logger.Error("SETTLEMENT_SERVICE_URL is required")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	settlementProxy := gateway.NewServiceProxy(settlementServiceURL, httpClient)
	handler := gateway.NewHandler(settlementProxy, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(handler.HandleSettlement))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(handler.HandleSettlement))
	mux.HandleFunc("POST /orders/{id}/cancel", telemetry.WithHTTPRoute(handler.HandleSettlement))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(handler.HandleSettlement))
	mux.HandleFunc("GET /users/{userId}/orders", telemetry.WithHTTPRoute(handler.HandleSettlement))
	mux.HandleFunc("POST /payments/initiate", telemetry.WithHTTPRoute(handler.HandleSettlement))
	mux.HandleFunc("POST /payments/verify", telemetry.WithHTTPRoute(handler.HandleSettlement))
	mux.HandleFunc("POST /payments/{orderId}/refund", telemetry.WithHTTPRoute(handler.HandleSettlement))
	mux.HandleFunc("GET /users/{userId}/payments", telemetry.WithHTTPRoute(handler.HandleSettlement))
	mux.HandleFunc("GET /users/{userId}/wallet", telemetry.WithHTTPRoute(handler.HandleSettlement))
	mux.HandleFunc("GET /merchants/{canteenId}", telemetry.WithHTTPRoute(handler.HandleSettlement))

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "gateway",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting gateway service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
