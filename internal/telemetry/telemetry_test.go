package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gaado/risk-engine/internal/telemetry"
)

// providerOnce ensures we only create one Provider per test run to avoid
// duplicate Prometheus metric registration errors from promauto's global registry
var (
	testProvider *telemetry.Provider
	providerOnce sync.Once
)

func getTestProvider(t *testing.T) *telemetry.Provider {
	t.Helper()
	providerOnce.Do(func() {
		testProvider = telemetry.NewProvider()
	})
	return testProvider
}

func TestNewProvider(t *testing.T) {
	provider := getTestProvider(t)
	if provider == nil {
		t.Fatal("expected non-nil provider")
	}
	if provider.Tracer == nil {
		t.Error("expected non-nil tracer")
	}
	if provider.Metrics == nil {
		t.Error("expected non-nil metrics")
	}
}

func TestRecordAssessment(t *testing.T) {
	provider := getTestProvider(t)
	ctx := context.Background()

	// Should not panic
	provider.RecordAssessment(ctx, "keyword", "General", "Low", 100*time.Microsecond)
	provider.RecordAssessment(ctx, "model", "", "", 2*time.Second)
	provider.RecordAssessmentFailure(ctx, "model", "parse_error")
}

func TestRecordModelPath(t *testing.T) {
	provider := getTestProvider(t)
	ctx := context.Background()

	// Should not panic
	provider.RecordModelCall(ctx)
	provider.RecordSafetyBlock(ctx)
	provider.RecordParseFailure(ctx)
	provider.RecordCacheHit(ctx)
	provider.RecordCacheMiss(ctx)
}

func TestProcessorGauges(t *testing.T) {
	provider := getTestProvider(t)

	// Should not panic
	provider.SetQueueDepth(100)
	provider.SetActiveWorkers(5)
	provider.RecordBatchSize(50)
	provider.RecordPollerLag(context.Background(), time.Now().Add(-time.Minute))
}
