package analyzer

import (
	"time"

	"github.com/verawat1234/tchat-perfbench/internal/trend"
)

// SummaryStats aggregates the whole session.
type SummaryStats struct {
	TotalTests    int     `json:"total_tests"`
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	SuccessRate   float64 `json:"success_rate"`
	ErrorRate     float64 `json:"error_rate"`
	AvgRPS        float64 `json:"avg_rps"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	AvgCPUPercent float64 `json:"avg_cpu_percent"`
	AvgMemoryMB   float64 `json:"avg_memory_mb"`
	Passed        int     `json:"passed"`
	Warned        int     `json:"warned"`
	Failed        int     `json:"failed"`
}

// ServiceStats aggregates all results of one service.
type ServiceStats struct {
	Service       string  `json:"service"`
	Tests         int     `json:"tests"`
	TotalRequests int64   `json:"total_requests"`
	AvgRPS        float64 `json:"avg_rps"`
	AvgP95Ms      float64 `json:"avg_p95_ms"`
	ErrorRate     float64 `json:"error_rate"`
	Status        Status  `json:"status"`
}

// PerformanceReport is the one-shot aggregate built on demand from the
// analyzer's state. It is immutable once produced.
type PerformanceReport struct {
	SessionID       string                  `json:"session_id"`
	SessionName     string                  `json:"session_name"`
	GeneratedAt     time.Time               `json:"generated_at"`
	Summary         SummaryStats            `json:"summary"`
	Services        map[string]ServiceStats `json:"services"`
	Results         []*BenchmarkResult      `json:"results"`
	Regressions     []Regression            `json:"regressions"`
	Trends          []trend.Trend           `json:"trends"`
	Recommendations []string                `json:"recommendations"`
	Metadata        map[string]string       `json:"metadata"`
}

// buildSummary folds the result set into session-level statistics.
func buildSummary(results []*BenchmarkResult) SummaryStats {
	summary := SummaryStats{TotalTests: len(results)}
	if len(results) == 0 {
		summary.SuccessRate = 100
		return summary
	}

	var rpsSum, p95Sum, cpuSum, memSum float64
	for _, r := range results {
		summary.TotalRequests += r.TotalRequests
		summary.TotalErrors += r.TotalErrors
		rpsSum += r.RequestsPerSec
		p95Sum += float64(r.Latency.P95) / float64(time.Millisecond)
		cpuSum += r.Resources.AvgCPUPercent
		memSum += r.Resources.AvgMemoryMB

		switch r.Status {
		case StatusPass:
			summary.Passed++
		case StatusWarning:
			summary.Warned++
		case StatusFail:
			summary.Failed++
		}
	}

	n := float64(len(results))
	summary.AvgRPS = rpsSum / n
	summary.P95LatencyMs = p95Sum / n
	summary.AvgCPUPercent = cpuSum / n
	summary.AvgMemoryMB = memSum / n
	if summary.TotalRequests > 0 {
		summary.ErrorRate = float64(summary.TotalErrors) / float64(summary.TotalRequests)
	}
	summary.SuccessRate = (1 - summary.ErrorRate) * 100
	return summary
}

// buildServiceStats groups results by service, carrying the worst status.
func buildServiceStats(results []*BenchmarkResult) map[string]ServiceStats {
	stats := make(map[string]ServiceStats)
	counts := make(map[string]int)
	errored := make(map[string]int64)

	for _, r := range results {
		s := stats[r.Service]
		s.Service = r.Service
		s.Tests++
		s.TotalRequests += r.TotalRequests
		s.AvgRPS += r.RequestsPerSec
		s.AvgP95Ms += float64(r.Latency.P95) / float64(time.Millisecond)
		errored[r.Service] += r.TotalErrors
		if s.Status == "" || statusRank(r.Status) > statusRank(s.Status) {
			s.Status = r.Status
		}
		stats[r.Service] = s
		counts[r.Service]++
	}

	for svc, s := range stats {
		n := float64(counts[svc])
		s.AvgRPS /= n
		s.AvgP95Ms /= n
		if s.TotalRequests > 0 {
			s.ErrorRate = float64(errored[svc]) / float64(s.TotalRequests)
		}
		stats[svc] = s
	}
	return stats
}

func statusRank(s Status) int {
	switch s {
	case StatusFail:
		return 2
	case StatusWarning:
		return 1
	default:
		return 0
	}
}

// buildTrends derives per-metric series over session results, ordered by
// result end time.
func buildTrends(results []*BenchmarkResult) []trend.Trend {
	if len(results) < 2 {
		return nil
	}

	rps := trend.Series{Metric: "rps", HigherIsBetter: true}
	p95 := trend.Series{Metric: "p95_latency_ms"}
	cpu := trend.Series{Metric: "cpu_percent"}

	for _, r := range results {
		rps.Points = append(rps.Points, trend.Point{Timestamp: r.EndTime, Value: r.RequestsPerSec})
		p95.Points = append(p95.Points, trend.Point{
			Timestamp: r.EndTime,
			Value:     float64(r.Latency.P95) / float64(time.Millisecond),
		})
		cpu.Points = append(cpu.Points, trend.Point{Timestamp: r.EndTime, Value: r.Resources.AvgCPUPercent})
	}

	return []trend.Trend{
		trend.Analyze(rps, trend.DefaultSignificance),
		trend.Analyze(p95, trend.DefaultSignificance),
		trend.Analyze(cpu, trend.DefaultSignificance),
	}
}
