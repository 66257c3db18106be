package payments

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/canteenhq/settlement/internal/domain"
)

// Metrics counts settlement outcomes by payment method.
type Metrics struct {
	settled  metric.Int64Counter
	failed   metric.Int64Counter
	refunded metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("payments")

	settled, err := meter.Int64Counter("payments_settled_total",
		metric.WithDescription("Payments that reached completed status"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("payments_failed_total",
		metric.WithDescription("Payment verifications that failed"))
	if err != nil {
		return nil, err
	}
	refunded, err := meter.Int64Counter("payments_refunded_total",
		metric.WithDescription("Payments refunded"))
	if err != nil {
		return nil, err
	}

	return &Metrics{settled: settled, failed: failed, refunded: refunded}, nil
}

func (m *Metrics) recordSettled(ctx context.Context, method domain.PaymentMethod) {
	if m == nil {
		return
	}
	m.settled.Add(ctx, 1, metric.WithAttributes(attribute.String("method", string(method))))
}

func (m *Metrics) recordFailed(ctx context.Context, method domain.PaymentMethod) {
	if m == nil {
		return
	}
	m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("method", string(method))))
}

func (m *Metrics) recordRefunded(ctx context.Context, method domain.PaymentMethod) {
	if m == nil {
		return
	}
	m.refunded.Add(ctx, 1, metric.WithAttributes(attribute.String("method", string(method))))
}
