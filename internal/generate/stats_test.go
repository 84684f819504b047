package generate

import (
	"testing"
	"time"
)

func TestStatsSnapshotQuantiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Observe(time.Duration(ms)*time.Millisecond, nil)
	}

	snap := stats.Snapshot()
	if snap.Calls != 5 || snap.Failures != 0 {
		t.Fatalf("expected 5 calls and no failures, got calls=%d failures=%d", snap.Calls, snap.Failures)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %d", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Errorf("expected p50=300, got %d", snap.P50Ms)
	}
	if snap.P95Ms != 500 {
		t.Errorf("expected p95=500, got %d", snap.P95Ms)
	}
	if snap.P99Ms != 500 {
		t.Errorf("expected p99=500, got %d", snap.P99Ms)
	}
}

func TestStatsFailuresExcludedFromLatency(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Observe(100*time.Millisecond, nil)
	stats.Observe(30*time.Second, &Error{Reason: "backend status 500"})

	snap := stats.Snapshot()
	if snap.Calls != 2 {
		t.Fatalf("expected 2 calls, got %d", snap.Calls)
	}
	if snap.Failures != 1 {
		t.Fatalf("expected 1 failure, got %d", snap.Failures)
	}
	// The failed call's duration must not distort the percentiles.
	if snap.MaxMs != 100 || snap.P99Ms != 100 {
		t.Errorf("expected latency from the successful call only, got max=%d p99=%d", snap.MaxMs, snap.P99Ms)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Observe(100*time.Millisecond, nil)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Calls != 0 {
		t.Fatalf("expected empty window after prune, got %d calls", snap.Calls)
	}

	stats.Observe(200*time.Millisecond, nil)
	snap = stats.Snapshot()
	if snap.Calls != 1 {
		t.Fatalf("expected 1 call in fresh window, got %d", snap.Calls)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestStatsAllFailuresHasNoLatency(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Observe(time.Second, &Error{Reason: "backend request"})

	snap := stats.Snapshot()
	if snap.Calls != 1 || snap.Failures != 1 {
		t.Fatalf("expected 1 failed call, got calls=%d failures=%d", snap.Calls, snap.Failures)
	}
	if snap.MinMs != 0 || snap.P50Ms != 0 {
		t.Errorf("expected zeroed latency figures, got min=%d p50=%d", snap.MinMs, snap.P50Ms)
	}
}
