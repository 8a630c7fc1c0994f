// Package report renders a PerformanceReport into external formats. Every
// generator is a pure function over an immutable report snapshot: it
// either returns complete output or an error, never partial bytes.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/verawat1234/tchat-perfbench/internal/analyzer"
	"github.com/verawat1234/tchat-perfbench/internal/config"
)

// Generate renders the report in the requested format. An unsupported
// format returns an explicit error.
func Generate(r *analyzer.PerformanceReport, format string) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("report: nil report")
	}
	switch format {
	case config.FormatJSON:
		return generateJSON(r)
	case config.FormatTable:
		return generateTable(r)
	case config.FormatHTML:
		return generateHTML(r)
	case config.FormatCSV:
		return generateCSV(r)
	case config.FormatPrometheus:
		return generatePrometheus(r)
	default:
		return nil, fmt.Errorf("report: unsupported format %q", format)
	}
}

func generateJSON(r *analyzer.PerformanceReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: marshal json: %w", err)
	}
	return data, nil
}

func generateCSV(r *analyzer.PerformanceReport) ([]byte, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	header := []string{"service", "endpoint", "test", "requests", "errors",
		"rps", "p50_ms", "p95_ms", "p99_ms", "max_ms", "status"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("report: write csv header: %w", err)
	}

	for _, res := range r.Results {
		row := []string{
			res.Service,
			res.Endpoint,
			res.TestName,
			fmt.Sprintf("%d", res.TotalRequests),
			fmt.Sprintf("%d", res.TotalErrors),
			fmt.Sprintf("%.2f", res.RequestsPerSec),
			fmt.Sprintf("%.2f", ms(res.Latency.Median)),
			fmt.Sprintf("%.2f", ms(res.Latency.P95)),
			fmt.Sprintf("%.2f", ms(res.Latency.P99)),
			fmt.Sprintf("%.2f", ms(res.Latency.Max)),
			string(res.Status),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("report: write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("report: flush csv: %w", err)
	}
	return []byte(buf.String()), nil
}

func generateTable(r *analyzer.PerformanceReport) ([]byte, error) {
	var b bytes.Buffer

	fmt.Fprintf(&b, "Performance Benchmark Report\n")
	fmt.Fprintf(&b, "============================\n\n")
	fmt.Fprintf(&b, "Session:   %s (%s)\n", r.SessionName, r.SessionID)
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "Summary\n")
	fmt.Fprintf(&b, "-------\n")
	fmt.Fprintf(&b, "Total tests:   %d\n", r.Summary.TotalTests)
	fmt.Fprintf(&b, "Success rate:  %.2f%%\n", r.Summary.SuccessRate)
	fmt.Fprintf(&b, "Average RPS:   %.2f\n", r.Summary.AvgRPS)
	fmt.Fprintf(&b, "P95 latency:   %.2f ms\n", r.Summary.P95LatencyMs)
	fmt.Fprintf(&b, "Error rate:    %.4f\n", r.Summary.ErrorRate)
	fmt.Fprintf(&b, "Average CPU:   %.1f%%\n", r.Summary.AvgCPUPercent)
	fmt.Fprintf(&b, "Average mem:   %.1f MB\n\n", r.Summary.AvgMemoryMB)

	if len(r.Services) > 0 {
		fmt.Fprintf(&b, "Per-Service Breakdown\n")
		fmt.Fprintf(&b, "---------------------\n")
		fmt.Fprintf(&b, "%-24s %6s %10s %10s %10s %8s\n",
			"SERVICE", "TESTS", "RPS", "P95(ms)", "ERR RATE", "STATUS")
		for _, svc := range sortedServices(r) {
			s := r.Services[svc]
			fmt.Fprintf(&b, "%-24s %6d %10.2f %10.2f %10.4f %8s\n",
				s.Service, s.Tests, s.AvgRPS, s.AvgP95Ms, s.ErrorRate, s.Status)
		}
		fmt.Fprintf(&b, "\n")
	}

	if len(r.Regressions) > 0 {
		fmt.Fprintf(&b, "Regressions\n")
		fmt.Fprintf(&b, "-----------\n")
		for _, reg := range r.Regressions {
			fmt.Fprintf(&b, "[%s] %s/%s %s: %.2f -> %.2f (%.1f%%)\n",
				reg.Severity, reg.Service, reg.Endpoint, reg.Metric,
				reg.Baseline, reg.Current, reg.RegressionPct)
		}
		fmt.Fprintf(&b, "\n")
	}

	if len(r.Trends) > 0 {
		fmt.Fprintf(&b, "Trends\n")
		fmt.Fprintf(&b, "------\n")
		for _, t := range r.Trends {
			fmt.Fprintf(&b, "%-18s %-10s slope=%.4f/s corr=%.2f\n",
				t.Metric, t.Direction, t.Slope, t.Correlation)
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "Recommendations\n")
	fmt.Fprintf(&b, "---------------\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	return b.Bytes(), nil
}

func sortedServices(r *analyzer.PerformanceReport) []string {
	names := make([]string, 0, len(r.Services))
	for name := range r.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
