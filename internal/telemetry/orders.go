package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OrderMetrics counts checkout outcomes and records order values. Recorded
// through the global MeterProvider, so InitMeterProvider must run first.
type OrderMetrics struct {
	created    metric.Int64Counter
	cancelled  metric.Int64Counter
	orderValue metric.Int64Histogram
}

func NewOrderMetrics() (*OrderMetrics, error) {
	meter := otel.Meter("storefront/orders")

	created, err := meter.Int64Counter("orders_created_total",
		metric.WithDescription("Checkout attempts by result"))
	if err != nil {
		return nil, err
	}

	cancelled, err := meter.Int64Counter("orders_cancelled_total",
		metric.WithDescription("Orders cancelled by their owner"))
	if err != nil {
		return nil, err
	}

	orderValue, err := meter.Int64Histogram("order_value",
		metric.WithDescription("Total value of successfully placed orders"),
		metric.WithUnit("{rupee}"))
	if err != nil {
		return nil, err
	}

	return &OrderMetrics{created: created, cancelled: cancelled, orderValue: orderValue}, nil
}

func (m *OrderMetrics) OrderCreated(ctx context.Context, result string, total int64) {
	m.created.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	if result == "success" {
		m.orderValue.Record(ctx, total)
	}
}

func (m *OrderMetrics) OrderCancelled(ctx context.Context) {
	m.cancelled.Add(ctx, 1)
}
