package analyzer

import (
	"testing"
	"time"
)

func TestRegressionSeverity_Boundaries(t *testing.T) {
	tests := []struct {
		pct  float64
		want Severity
	}{
		{5, SeverityLow},
		{10.0, SeverityLow}, // boundary stays in the band below
		{10.1, SeverityMedium},
		{25.0, SeverityMedium},
		{25.1, SeverityHigh},
		{30, SeverityHigh},
		{50.0, SeverityHigh},
		{50.1, SeverityCritical},
		{90, SeverityCritical},
	}
	for _, tc := range tests {
		if got := regressionSeverity(tc.pct); got != tc.want {
			t.Errorf("regressionSeverity(%.1f) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestRegressionPercentages(t *testing.T) {
	if got := lowerIsWorsePct(700, 1000); got != 30 {
		t.Errorf("lowerIsWorsePct(700, 1000) = %.2f, want 30", got)
	}
	if got := higherIsWorsePct(150, 100); got != 50 {
		t.Errorf("higherIsWorsePct(150, 100) = %.2f, want 50", got)
	}
	// An improvement yields a negative degradation, never a regression.
	if got := lowerIsWorsePct(1200, 1000); got >= 0 {
		t.Errorf("improvement reported as degradation: %.2f", got)
	}
	// Zero expected disables comparison rather than dividing by zero.
	if got := lowerIsWorsePct(100, 0); got != 0 {
		t.Errorf("lowerIsWorsePct with zero expected = %.2f, want 0", got)
	}
}

func TestLowerIsWorsePct_MonotonicAsRPSFalls(t *testing.T) {
	prev := lowerIsWorsePct(1000, 1000)
	for current := 999.0; current >= 0; current-- {
		pct := lowerIsWorsePct(current, 1000)
		if pct < prev {
			t.Fatalf("degradation decreased as rps fell: %.2f at current=%.0f", pct, current)
		}
		prev = pct
	}
}

func TestRegressionSeverity_MonotonicInDegradation(t *testing.T) {
	prev := severityRank(regressionSeverity(0))
	for pct := 1.0; pct <= 100; pct++ {
		cur := severityRank(regressionSeverity(pct))
		if cur < prev {
			t.Fatalf("severity rank decreased at %.0f%%", pct)
		}
		prev = cur
	}
}

func baselineFixture() *BaselineDocument {
	return &BaselineDocument{
		Version: "v1",
		Services: map[string]map[string]BaselineEntry{
			"api": {
				"/users": {
					ExpectedRPS:   1000,
					ExpectedP95Ms: 100,
					MaxCPUPercent: 50,
				},
			},
		},
	}
}

func TestDetectRegressions_ThroughputDrop(t *testing.T) {
	// 1000 -> 700 rps is a 30% drop: above threshold, HIGH severity.
	results := []*BenchmarkResult{{
		Service:        "api",
		Endpoint:       "/users",
		RequestsPerSec: 700,
		Latency:        LatencyStats{P95: 90 * time.Millisecond},
		Resources:      ResourceUsage{AvgCPUPercent: 40},
	}}

	regressions := detectRegressions(results, baselineFixture(), 10)
	if len(regressions) != 1 {
		t.Fatalf("expected 1 regression, got %d", len(regressions))
	}

	r := regressions[0]
	if r.Metric != "rps" {
		t.Errorf("expected metric rps, got %q", r.Metric)
	}
	if r.RegressionPct != 30 {
		t.Errorf("expected 30%% degradation, got %.2f", r.RegressionPct)
	}
	if r.Severity != SeverityHigh {
		t.Errorf("expected HIGH severity, got %s", r.Severity)
	}
	if r.Impact != ImpactScalability {
		t.Errorf("expected scalability impact, got %s", r.Impact)
	}
	if len(r.Recommendations) == 0 {
		t.Error("expected recommendations to be attached")
	}
}

func TestDetectRegressions_WithinThreshold(t *testing.T) {
	// 5% drop stays under the 10% threshold.
	results := []*BenchmarkResult{{
		Service:        "api",
		Endpoint:       "/users",
		RequestsPerSec: 950,
		Latency:        LatencyStats{P95: 100 * time.Millisecond},
		Resources:      ResourceUsage{AvgCPUPercent: 50},
	}}

	if got := detectRegressions(results, baselineFixture(), 10); len(got) != 0 {
		t.Errorf("expected no regressions, got %d", len(got))
	}
}

func TestDetectRegressions_ExactThresholdNotEmitted(t *testing.T) {
	// Degradation equal to the threshold is not a regression.
	results := []*BenchmarkResult{{
		Service:        "api",
		Endpoint:       "/users",
		RequestsPerSec: 900, // exactly 10%
		Latency:        LatencyStats{P95: 100 * time.Millisecond},
		Resources:      ResourceUsage{AvgCPUPercent: 50},
	}}

	if got := detectRegressions(results, baselineFixture(), 10); len(got) != 0 {
		t.Errorf("expected no regressions at exact threshold, got %d", len(got))
	}
}

func TestDetectRegressions_UnknownEndpointSkipped(t *testing.T) {
	results := []*BenchmarkResult{{
		Service:        "api",
		Endpoint:       "/orders",
		RequestsPerSec: 1,
	}}

	if got := detectRegressions(results, baselineFixture(), 10); len(got) != 0 {
		t.Errorf("expected unbaselined endpoint to be skipped, got %d regressions", len(got))
	}
}

func TestDetectRegressions_NilBaseline(t *testing.T) {
	results := []*BenchmarkResult{{Service: "api", Endpoint: "/users"}}
	got := detectRegressions(results, nil, 10)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestDetectRegressions_SortedBySeverity(t *testing.T) {
	// One critical latency regression and one medium rps regression.
	results := []*BenchmarkResult{{
		Service:        "api",
		Endpoint:       "/users",
		RequestsPerSec: 850,                                       // 15% drop -> MEDIUM
		Latency:        LatencyStats{P95: 250 * time.Millisecond}, // 150% up -> CRITICAL
		Resources:      ResourceUsage{AvgCPUPercent: 40},
	}}

	regressions := detectRegressions(results, baselineFixture(), 10)
	if len(regressions) != 2 {
		t.Fatalf("expected 2 regressions, got %d", len(regressions))
	}
	if regressions[0].Severity != SeverityCritical {
		t.Errorf("expected CRITICAL first, got %s", regressions[0].Severity)
	}
	if regressions[1].Severity != SeverityMedium {
		t.Errorf("expected MEDIUM second, got %s", regressions[1].Severity)
	}
}
