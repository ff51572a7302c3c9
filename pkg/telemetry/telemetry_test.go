package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestNewDisabledProviderSkipsSDKInit(t *testing.T) {
	p, err := New(&Config{Enabled: false})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if p.tracerProvider != nil || p.meterProvider != nil {
		t.Error("expected disabled provider to skip SDK initialization")
	}
}

func TestNewEnabledProviderBuildsMetricsAndTracer(t *testing.T) {
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer p.Shutdown(context.Background())

	if p.tracer == nil || p.meter == nil {
		t.Fatal("expected tracer and meter to be initialized")
	}
}

func TestStartBlockSpanAndRecordBlockDoNotPanic(t *testing.T) {
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer p.Shutdown(context.Background())

	ctx, span := p.StartBlockSpan(context.Background(), 42, "example-provider")
	p.RecordBlock(ctx, "example-provider", "DB_SYNC_SUCCESS", 10, 0, 2*time.Second)
	span.End()
}

func TestRecordBlockOnDisabledProviderIsNoop(t *testing.T) {
	p, err := New(&Config{Enabled: false})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	p.RecordBlock(context.Background(), "p", "DB_SYNC_SUCCESS", 1, 0, time.Second)
}
