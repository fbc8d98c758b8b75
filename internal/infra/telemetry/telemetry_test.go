package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestProviderObserveCompute(t *testing.T) {
	registry := prometheus.NewRegistry()

	provider, err := NewProvider(registry)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	provider.ObserveCompute(41, 2*time.Second)
	provider.ObserveCompute(7, 500*time.Millisecond)

	if got := testutil.ToFloat64(provider.computeRuns); got != 2 {
		t.Fatalf("expected 2 runs, got %f", got)
	}

	if got := testutil.ToFloat64(provider.computeRows); got != 48 {
		t.Fatalf("expected 48 rows written, got %f", got)
	}

	if count := testutil.CollectAndCount(provider.computeDuration); count == 0 {
		t.Fatal("expected duration histogram to record samples")
	}
}

func TestProviderRegisterTwice(t *testing.T) {
	registry := prometheus.NewRegistry()

	if _, err := NewProvider(registry); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	if _, err := NewProvider(registry); err != nil {
		t.Fatalf("second registration should tolerate existing collectors: %v", err)
	}
}

func TestNilProviderObserveCompute(t *testing.T) {
	var provider *Provider
	provider.ObserveCompute(1, time.Second)
}
