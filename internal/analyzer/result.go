package analyzer

import (
	"fmt"
	"time"

	"github.com/verawat1234/tchat-perfbench/internal/config"
	"github.com/verawat1234/tchat-perfbench/internal/loadgen"
	"github.com/verawat1234/tchat-perfbench/internal/monitor"
)

// LatencyStats is the response-time distribution of one test execution.
type LatencyStats struct {
	Min    time.Duration `json:"min"`
	Median time.Duration `json:"median"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Max    time.Duration `json:"max"`
}

// ResourceUsage aggregates the monitor snapshots taken during a run.
// Fields stay zero when the platform provided no readings.
type ResourceUsage struct {
	AvgCPUPercent   float64 `json:"avg_cpu_percent"`
	PeakCPUPercent  float64 `json:"peak_cpu_percent"`
	AvgMemoryMB     float64 `json:"avg_memory_mb"`
	PeakMemoryMB    float64 `json:"peak_memory_mb"`
	PeakGoroutines  int     `json:"peak_goroutines"`
	GCPauseMs       float64 `json:"gc_pause_ms"`
	PeakOpenHandles int     `json:"peak_open_handles"`
}

// Violation is a single-metric breach of a configured target, attached to
// a BenchmarkResult at creation time.
type Violation struct {
	Metric      string      `json:"metric"`
	Current     MetricValue `json:"current"`
	Expected    MetricValue `json:"expected"`
	Severity    Severity    `json:"severity"`
	Impact      Impact      `json:"impact"`
	Message     string      `json:"message"`
	Suggestions []string    `json:"suggestions"`
}

// BenchmarkResult is the immutable record of one test execution.
type BenchmarkResult struct {
	TestName string `json:"test_name"`
	Service  string `json:"service"`
	Endpoint string `json:"endpoint"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	RequestsPerSec float64 `json:"requests_per_sec"`

	Latency   LatencyStats  `json:"latency"`
	Resources ResourceUsage `json:"resources"`

	Violations []Violation `json:"violations"`
	Status     Status      `json:"status"`
	Tags       []string    `json:"tags,omitempty"`
}

// ErrorRate returns the error fraction in [0,1].
func (r *BenchmarkResult) ErrorRate() float64 {
	if r.TotalRequests == 0 {
		return 0
	}
	return float64(r.TotalErrors) / float64(r.TotalRequests)
}

// NewResult aggregates worker results and resource snapshots into one
// BenchmarkResult and evaluates it against the configured targets. Warmup
// results are excluded from percentile and error-rate computation.
func NewResult(testName, service, endpoint string, workerResults []loadgen.WorkerResult,
	samples []monitor.Snapshot, targets config.Targets, tags []string) (*BenchmarkResult, error) {

	result := &BenchmarkResult{
		TestName: testName,
		Service:  service,
		Endpoint: endpoint,
		Tags:     tags,
	}

	latencies := make([]time.Duration, 0, len(workerResults))
	for _, wr := range workerResults {
		if wr.Warmup {
			continue
		}
		if wr.Total < 0 {
			return nil, fmt.Errorf("analyzer: negative latency %v from worker %d", wr.Total, wr.WorkerID)
		}
		if result.StartTime.IsZero() || wr.Start.Before(result.StartTime) {
			result.StartTime = wr.Start
		}
		if wr.End.After(result.EndTime) {
			result.EndTime = wr.End
		}
		result.TotalRequests++
		if wr.Failed() {
			result.TotalErrors++
		}
		latencies = append(latencies, wr.Total)
	}

	if duration := result.EndTime.Sub(result.StartTime).Seconds(); duration > 0 {
		result.RequestsPerSec = float64(result.TotalRequests) / duration
	}

	if len(latencies) > 0 {
		sorted := sortDurations(latencies)
		result.Latency = LatencyStats{
			Min:    sorted[0],
			Median: percentile(sorted, 0.50),
			P95:    percentile(sorted, 0.95),
			P99:    percentile(sorted, 0.99),
			Max:    sorted[len(sorted)-1],
		}
	}

	result.Resources = aggregateResources(samples)
	result.Violations = evaluateTargets(result, targets)
	result.Status = statusFromViolations(result.Violations)

	return result, nil
}

// aggregateResources folds the snapshot list into averages and peaks,
// counting only readings the platform actually provided.
func aggregateResources(samples []monitor.Snapshot) ResourceUsage {
	var usage ResourceUsage
	var cpuSum, memSum float64
	var cpuN, memN int

	for _, s := range samples {
		if s.CPUPercent.Available {
			cpuSum += s.CPUPercent.Value
			cpuN++
			if s.CPUPercent.Value > usage.PeakCPUPercent {
				usage.PeakCPUPercent = s.CPUPercent.Value
			}
		}
		if s.MemoryUsedMB.Available {
			memSum += s.MemoryUsedMB.Value
			memN++
			if s.MemoryUsedMB.Value > usage.PeakMemoryMB {
				usage.PeakMemoryMB = s.MemoryUsedMB.Value
			}
		}
		if s.Goroutines.Available && int(s.Goroutines.Value) > usage.PeakGoroutines {
			usage.PeakGoroutines = int(s.Goroutines.Value)
		}
		if s.GCPauseMs.Available && s.GCPauseMs.Value > usage.GCPauseMs {
			usage.GCPauseMs = s.GCPauseMs.Value
		}
		if s.OpenHandles.Available && int(s.OpenHandles.Value) > usage.PeakOpenHandles {
			usage.PeakOpenHandles = int(s.OpenHandles.Value)
		}
	}

	if cpuN > 0 {
		usage.AvgCPUPercent = cpuSum / float64(cpuN)
	}
	if memN > 0 {
		usage.AvgMemoryMB = memSum / float64(memN)
	}
	return usage
}

// statusFromViolations derives the quality gate: FAIL when any high or
// critical violation exists, WARNING when only medium/low, PASS otherwise.
func statusFromViolations(violations []Violation) Status {
	if len(violations) == 0 {
		return StatusPass
	}
	for _, v := range violations {
		if v.Severity == SeverityHigh || v.Severity == SeverityCritical {
			return StatusFail
		}
	}
	return StatusWarning
}
