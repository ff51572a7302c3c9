// Package telemetry wires OpenTelemetry tracing and RED (Rate, Errors,
// Duration) metrics around block execution, grounded on the teacher's
// pkg/observability.Provider — trimmed to the in-process SDK setup this
// module's go.mod carries (no OTLP exporter wiring, since nothing in the
// corpus pulls in otlptracegrpc/otlpmetricgrpc; a Reader/SpanProcessor can
// be attached by the caller for export when one becomes available).
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the provider, mirroring the teacher's
// observability.Config fields that still apply once OTLP export is
// dropped.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Enabled        bool
}

func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "atd-mds-go",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		Enabled:        true,
	}
}

// Provider bundles the tracer/meter pair plus the per-block RED metrics
// Orchestrator records against (SPEC_FULL.md §B.10).
type Provider struct {
	config         *Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter

	blocksCounter       metric.Int64Counter
	recordsProcessed    metric.Int64Counter
	recordsErrorCount   metric.Int64Counter
	blockDurationHist   metric.Float64Histogram
}

func New(config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Provider{config: config}
	if !config.Enabled {
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			attribute.String("service.name", config.ServiceName),
			attribute.String("service.version", config.ServiceVersion),
			attribute.String("deployment.environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(p.tracerProvider)

	p.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
	otel.SetMeterProvider(p.meterProvider)

	p.tracer = otel.Tracer("atd-mds-go")
	p.meter = otel.Meter("atd-mds-go")

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("telemetry: init metrics: %w", err)
	}

	return p, nil
}

func (p *Provider) initMetrics() error {
	var err error

	p.blocksCounter, err = p.meter.Int64Counter("mds.blocks.total",
		metric.WithDescription("Schedule blocks executed, by terminal status"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	p.recordsProcessed, err = p.meter.Int64Counter("mds.records.processed.total",
		metric.WithDescription("Trip records successfully processed"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return err
	}

	p.recordsErrorCount, err = p.meter.Int64Counter("mds.records.error.total",
		metric.WithDescription("Trip records that failed validation or insert"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return err
	}

	p.blockDurationHist, err = p.meter.Float64Histogram("mds.block.duration",
		metric.WithDescription("Wall-clock duration of a full block (extract + db-sync + socrata-sync)"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600),
	)
	return err
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
	}
	if p.meterProvider != nil {
		return p.meterProvider.Shutdown(ctx)
	}
	return nil
}

// StartBlockSpan starts a span covering a block's three stages, per
// SPEC_FULL.md §B.10.
func (p *Provider) StartBlockSpan(ctx context.Context, scheduleID int64, providerName string) (context.Context, trace.Span) {
	if p.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return p.tracer.Start(ctx, "mds.block.execute",
		trace.WithAttributes(
			attribute.Int64("mds.schedule_id", scheduleID),
			attribute.String("mds.provider", providerName),
		),
	)
}

// RecordBlock records a completed block's terminal status, record counts,
// and wall-clock duration.
func (p *Provider) RecordBlock(ctx context.Context, providerName, statusLabel string, processed, errorCount int, duration time.Duration) {
	if p.blocksCounter == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("mds.provider", providerName),
		attribute.String("mds.status", statusLabel),
	)
	p.blocksCounter.Add(ctx, 1, attrs)
	p.recordsProcessed.Add(ctx, int64(processed), attrs)
	p.recordsErrorCount.Add(ctx, int64(errorCount), attrs)
	p.blockDurationHist.Record(ctx, duration.Seconds(), attrs)
}
