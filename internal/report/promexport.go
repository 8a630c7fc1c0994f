package report

import (
	"bytes"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/verawat1234/tchat-perfbench/internal/analyzer"
)

// generatePrometheus renders the report as Prometheus text exposition,
// suitable for a Pushgateway or a node_exporter textfile collector. A
// fresh registry is built per call so repeated renders stay independent.
func generatePrometheus(r *analyzer.PerformanceReport) ([]byte, error) {
	reg := prometheus.NewRegistry()

	summary := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "perfbench_summary",
		Help: "Session-level summary statistics.",
	}, []string{"session", "stat"})

	resultGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "perfbench_result",
		Help: "Per-test benchmark metrics.",
	}, []string{"service", "endpoint", "metric"})

	statusGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "perfbench_result_status",
		Help: "Test status (0 pass, 1 warning, 2 fail).",
	}, []string{"service", "endpoint"})

	regressionGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "perfbench_regression_pct",
		Help: "Detected regression percentage against baseline.",
	}, []string{"service", "endpoint", "metric", "severity"})

	for _, c := range []prometheus.Collector{summary, resultGauge, statusGauge, regressionGauge} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("report: register collector: %w", err)
		}
	}

	session := r.SessionName
	summary.WithLabelValues(session, "total_tests").Set(float64(r.Summary.TotalTests))
	summary.WithLabelValues(session, "success_rate").Set(r.Summary.SuccessRate)
	summary.WithLabelValues(session, "error_rate").Set(r.Summary.ErrorRate)
	summary.WithLabelValues(session, "avg_rps").Set(r.Summary.AvgRPS)
	summary.WithLabelValues(session, "p95_latency_ms").Set(r.Summary.P95LatencyMs)
	summary.WithLabelValues(session, "avg_cpu_percent").Set(r.Summary.AvgCPUPercent)
	summary.WithLabelValues(session, "avg_memory_mb").Set(r.Summary.AvgMemoryMB)

	for _, res := range r.Results {
		resultGauge.WithLabelValues(res.Service, res.Endpoint, "rps").Set(res.RequestsPerSec)
		resultGauge.WithLabelValues(res.Service, res.Endpoint, "requests").Set(float64(res.TotalRequests))
		resultGauge.WithLabelValues(res.Service, res.Endpoint, "errors").Set(float64(res.TotalErrors))
		resultGauge.WithLabelValues(res.Service, res.Endpoint, "p95_latency_seconds").Set(res.Latency.P95.Seconds())
		resultGauge.WithLabelValues(res.Service, res.Endpoint, "p99_latency_seconds").Set(res.Latency.P99.Seconds())
		resultGauge.WithLabelValues(res.Service, res.Endpoint, "error_rate").Set(res.ErrorRate())
		statusGauge.WithLabelValues(res.Service, res.Endpoint).Set(statusValue(res.Status))
	}

	for _, rg := range r.Regressions {
		regressionGauge.WithLabelValues(rg.Service, rg.Endpoint, rg.Metric,
			string(rg.Severity)).Set(rg.RegressionPct)
	}

	families, err := reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("report: gather metrics: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, fam := range families {
		if err := enc.Encode(fam); err != nil {
			return nil, fmt.Errorf("report: encode metric family: %w", err)
		}
	}
	fmt.Fprintf(&buf, "# generated_at %d\n", r.GeneratedAt.UnixMilli())
	return buf.Bytes(), nil
}

func statusValue(s analyzer.Status) float64 {
	switch s {
	case analyzer.StatusPass:
		return 0
	case analyzer.StatusWarning:
		return 1
	default:
		return 2
	}
}
