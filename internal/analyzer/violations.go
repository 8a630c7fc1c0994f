package analyzer

import (
	"fmt"
	"time"

	"github.com/verawat1234/tchat-perfbench/internal/config"
)

// Canned remediation suggestions per breach category.
var (
	latencySuggestions = []string{
		"Profile slow requests and check for lock contention",
		"Add caching on hot read paths",
		"Optimize database queries behind the endpoint",
	}
	throughputSuggestions = []string{
		"Scale the service horizontally",
		"Review connection pool and worker sizing",
		"Implement backpressure on upstream callers",
	}
	cpuSuggestions = []string{
		"Profile CPU hotspots under load",
		"Reduce per-request allocations",
		"Consider right-sizing instance CPU",
	}
	memorySuggestions = []string{
		"Profile heap allocation under sustained load",
		"Check for unbounded caches or unclosed resources",
		"Review object lifecycles on the request path",
	}
)

// evaluateTargets compares one result against the configured quality
// targets. Every breached metric yields its own Violation, so a result
// breaching p95 latency and CPU simultaneously carries at least two.
func evaluateTargets(r *BenchmarkResult, targets config.Targets) []Violation {
	violations := make([]Violation, 0)

	if v, ok := latencyViolation("p95_latency", r.Latency.P95, targets.ResponseTime.P95Ms); ok {
		violations = append(violations, v)
	}
	if v, ok := latencyViolation("p99_latency", r.Latency.P99, targets.ResponseTime.P99Ms); ok {
		violations = append(violations, v)
	}
	if v, ok := latencyViolation("max_latency", r.Latency.Max, targets.ResponseTime.MaxMs); ok {
		violations = append(violations, v)
	}

	if min := targets.Throughput.MinRPS; min > 0 && r.RequestsPerSec < min {
		severity := SeverityHigh
		if r.RequestsPerSec < min/2 {
			severity = SeverityCritical
		}
		violations = append(violations, Violation{
			Metric:   "throughput",
			Current:  Numeric(r.RequestsPerSec),
			Expected: Numeric(min),
			Severity: severity,
			Impact:   ImpactScalability,
			Message: fmt.Sprintf("throughput %.2f rps below minimum %.2f rps",
				r.RequestsPerSec, min),
			Suggestions: throughputSuggestions,
		})
	}

	if max := targets.Resources.MaxCPUPercent; max > 0 && r.Resources.AvgCPUPercent > max {
		severity := SeverityMedium
		if r.Resources.AvgCPUPercent > max*1.25 {
			severity = SeverityHigh
		}
		violations = append(violations, Violation{
			Metric:   "cpu",
			Current:  Numeric(r.Resources.AvgCPUPercent),
			Expected: Numeric(max),
			Severity: severity,
			Impact:   ImpactCost,
			Message: fmt.Sprintf("average CPU %.1f%% exceeds target %.1f%%",
				r.Resources.AvgCPUPercent, max),
			Suggestions: cpuSuggestions,
		})
	}

	if max := targets.Resources.MaxMemoryMB; max > 0 && r.Resources.PeakMemoryMB > max {
		severity := SeverityMedium
		if r.Resources.PeakMemoryMB > max*1.25 {
			severity = SeverityHigh
		}
		violations = append(violations, Violation{
			Metric:   "memory",
			Current:  Numeric(r.Resources.PeakMemoryMB),
			Expected: Numeric(max),
			Severity: severity,
			Impact:   ImpactCost,
			Message: fmt.Sprintf("peak memory %.1f MB exceeds target %.1f MB",
				r.Resources.PeakMemoryMB, max),
			Suggestions: memorySuggestions,
		})
	}

	return violations
}

// latencyViolation compares a latency percentile against a millisecond
// target. Severity escalates with the overshoot ratio.
func latencyViolation(metric string, current time.Duration, targetMs float64) (Violation, bool) {
	if targetMs <= 0 {
		return Violation{}, false
	}
	currentMs := float64(current) / float64(time.Millisecond)
	if currentMs <= targetMs {
		return Violation{}, false
	}

	severity := SeverityMedium
	if currentMs > targetMs*1.5 {
		severity = SeverityHigh
	}
	if currentMs > targetMs*2 {
		severity = SeverityCritical
	}

	target := time.Duration(targetMs * float64(time.Millisecond))
	return Violation{
		Metric:   metric,
		Current:  Duration(current),
		Expected: Duration(target),
		Severity: severity,
		Impact:   ImpactUserExperience,
		Message: fmt.Sprintf("%s %v exceeds target %v", metric,
			current.Round(time.Microsecond), target),
		Suggestions: latencySuggestions,
	}, true
}
