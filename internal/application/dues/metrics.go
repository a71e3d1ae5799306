package dues

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/badyetly/badyetly/internal/application/dues"

type serviceMetrics struct {
	generated metric.Int64Counter
	degraded  metric.Int64Counter
	failures  metric.Int64Counter
}

// newServiceMetrics registers the schedule counters on meter, falling back to
// the global meter provider. Instrument errors only disable the instrument.
func newServiceMetrics(meter metric.Meter) *serviceMetrics {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	m := &serviceMetrics{}
	var err error

	m.generated, err = meter.Int64Counter("badyetly.schedule.instances_generated",
		metric.WithDescription("Due instances inserted by creation or regeneration"),
		metric.WithUnit("{instance}"))
	if err != nil {
		slog.Warn("failed to create counter", "name", "instances_generated", "error", err)
	}

	m.degraded, err = meter.Int64Counter("badyetly.schedule.degraded_inputs",
		metric.WithDescription("Malformed schedule inputs replaced by a default"),
		metric.WithUnit("{input}"))
	if err != nil {
		slog.Warn("failed to create counter", "name", "degraded_inputs", "error", err)
	}

	m.failures, err = meter.Int64Counter("badyetly.schedule.regeneration_failures",
		metric.WithDescription("Schedule regenerations that failed after the due was saved"),
		metric.WithUnit("{failure}"))
	if err != nil {
		slog.Warn("failed to create counter", "name", "regeneration_failures", "error", err)
	}

	return m
}

func (m *serviceMetrics) instancesGenerated(ctx context.Context, n int64, operation string) {
	if m.generated == nil || n == 0 {
		return
	}
	m.generated.Add(ctx, n, metric.WithAttributes(attribute.String("operation", operation)))
}

func (m *serviceMetrics) degradedInput(ctx context.Context, field string) {
	if m.degraded == nil {
		return
	}
	m.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
}

func (m *serviceMetrics) regenerationFailed(ctx context.Context, stage string) {
	if m.failures == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}
