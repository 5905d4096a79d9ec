package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMovementMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMovementMetrics(reg)
	metrics.ObserveDuration("transfer", 120*time.Millisecond)
	metrics.IncOutcome("transfer", "committed")
	metrics.IncOutcome("out", "insufficient_stock")
	metrics.IncInsufficientStock()
	metrics.IncTransientRetry()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "movement_total", "kind", "transfer"); err != nil {
		t.Fatalf("fetch outcome: %v", err)
	} else if got != 1 {
		t.Fatalf("expected committed transfer=1, got %f", got)
	}

	if mf := findMetricFamily(mfs, "movement_insufficient_stock_total"); mf == nil {
		t.Fatalf("insufficient stock counter not registered")
	} else if mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected insufficient=1")
	}

	if mf := findMetricFamily(mfs, "movement_transient_retries_total"); mf == nil {
		t.Fatalf("retry counter not registered")
	} else if mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected retries=1")
	}

	if got, err := fetchHistogramSum(mfs, "movement_duration_seconds", "kind", "transfer"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestMovementMetricsNormalizeEmptyLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMovementMetrics(reg)
	metrics.ObserveDuration("", time.Millisecond)
	metrics.IncOutcome("", "")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "movement_total", "kind", "unknown"); err != nil {
		t.Fatalf("fetch outcome: %v", err)
	} else if got != 1 {
		t.Fatalf("expected empty kind bucketed as unknown, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "movement_duration_seconds", "kind", "unknown"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration recorded under unknown, got %f", got)
	}
}

func TestMovementMetricsNilSafe(t *testing.T) {
	var metrics *MovementMetrics
	metrics.ObserveDuration("in", time.Second)
	metrics.IncOutcome("in", "committed")
	metrics.IncInsufficientStock()
	metrics.IncTransientRetry()
}
