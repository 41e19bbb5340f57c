package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/lifelink/emergency-coordinator/prediction"

// PredictionMetrics collects metrics for prediction process calls
type PredictionMetrics struct {
	callsStartedCounter   metric.Int64Counter
	callsCompletedCounter metric.Int64Counter
	callsFailedCounter    metric.Int64Counter
	callDurationHistogram metric.Float64Histogram
	callsInFlightGauge    metric.Int64UpDownCounter
}

// NewPredictionMetrics creates a prediction metrics collector on the global meter provider
func NewPredictionMetrics() (*PredictionMetrics, error) {
	return NewPredictionMetricsWith(otel.GetMeterProvider())
}

// NewPredictionMetricsWith creates a prediction metrics collector on provider
func NewPredictionMetricsWith(provider metric.MeterProvider) (*PredictionMetrics, error) {
	meter := provider.Meter(meterName)

	callsStartedCounter, err := meter.Int64Counter(
		"lifelink.predictions.started",
		metric.WithDescription("Total number of prediction processes spawned"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	callsCompletedCounter, err := meter.Int64Counter(
		"lifelink.predictions.completed",
		metric.WithDescription("Total number of prediction calls that returned a result"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	callsFailedCounter, err := meter.Int64Counter(
		"lifelink.predictions.failed",
		metric.WithDescription("Total number of prediction calls that failed"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	callDurationHistogram, err := meter.Float64Histogram(
		"lifelink.prediction.duration",
		metric.WithDescription("Wall time of a prediction process in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	callsInFlightGauge, err := meter.Int64UpDownCounter(
		"lifelink.predictions.in_flight",
		metric.WithDescription("Number of prediction processes currently running"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &PredictionMetrics{
		callsStartedCounter:   callsStartedCounter,
		callsCompletedCounter: callsCompletedCounter,
		callsFailedCounter:    callsFailedCounter,
		callDurationHistogram: callDurationHistogram,
		callsInFlightGauge:    callsInFlightGauge,
	}, nil
}

// RecordStarted records a spawned prediction process
func (pm *PredictionMetrics) RecordStarted(ctx context.Context, command string) {
	pm.callsStartedCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("prediction.command", command)),
	)
	pm.callsInFlightGauge.Add(ctx, 1,
		metric.WithAttributes(attribute.String("prediction.command", command)),
	)
}

// RecordCompleted records a prediction call that produced a result
func (pm *PredictionMetrics) RecordCompleted(ctx context.Context, command string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("prediction.command", command),
		attribute.String("status", "completed"),
	)
	pm.callsCompletedCounter.Add(ctx, 1, attrs)
	pm.callDurationHistogram.Record(ctx, duration.Seconds(), attrs)
	pm.callsInFlightGauge.Add(ctx, -1,
		metric.WithAttributes(attribute.String("prediction.command", command)),
	)
}

// RecordFailed records a failed prediction call by error kind
func (pm *PredictionMetrics) RecordFailed(ctx context.Context, command, kind string, duration time.Duration) {
	pm.callsFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("prediction.command", command),
			attribute.String("status", "failed"),
			attribute.String("error.kind", kind),
		),
	)
	pm.callDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("prediction.command", command),
			attribute.String("status", "failed"),
		),
	)
	pm.callsInFlightGauge.Add(ctx, -1,
		metric.WithAttributes(attribute.String("prediction.command", command)),
	)
}
