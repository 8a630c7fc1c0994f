package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/verawat1234/tchat-perfbench/internal/analyzer"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"ms": func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) },
	"fmt2": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"statusClass": func(s analyzer.Status) string {
		switch s {
		case analyzer.StatusPass:
			return "pass"
		case analyzer.StatusWarning:
			return "warn"
		default:
			return "fail"
		}
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Performance Report {{.SessionName}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1f2933; }
h1 { font-size: 1.4rem; }
h2 { font-size: 1.1rem; margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; margin-top: 0.5rem; }
th, td { border: 1px solid #d2d6dc; padding: 0.4rem 0.6rem; text-align: left; font-size: 0.9rem; }
th { background: #f3f4f6; }
.cards { display: flex; gap: 1rem; flex-wrap: wrap; margin-top: 1rem; }
.card { border: 1px solid #d2d6dc; border-radius: 6px; padding: 0.8rem 1.2rem; min-width: 9rem; }
.card .num { font-size: 1.3rem; font-weight: 600; }
.pass { color: #047857; }
.warn { color: #b45309; }
.fail { color: #b91c1c; }
.meta { color: #6b7280; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>Performance Benchmark Report</h1>
<p class="meta">Session {{.SessionName}} ({{.SessionID}}) &mdash; generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>

<div class="cards">
<div class="card"><div>Total tests</div><div class="num">{{.Summary.TotalTests}}</div></div>
<div class="card"><div>Success rate</div><div class="num">{{fmt2 .Summary.SuccessRate}}%</div></div>
<div class="card"><div>Average RPS</div><div class="num">{{fmt2 .Summary.AvgRPS}}</div></div>
<div class="card"><div>P95 latency</div><div class="num">{{fmt2 .Summary.P95LatencyMs}} ms</div></div>
<div class="card"><div>Error rate</div><div class="num">{{fmt2 .Summary.ErrorRate}}</div></div>
<div class="card"><div>Avg CPU</div><div class="num">{{fmt2 .Summary.AvgCPUPercent}}%</div></div>
<div class="card"><div>Avg memory</div><div class="num">{{fmt2 .Summary.AvgMemoryMB}} MB</div></div>
</div>

{{if .Results}}
<h2>Test Results</h2>
<table>
<tr><th>Service</th><th>Endpoint</th><th>Test</th><th>Requests</th><th>Errors</th><th>RPS</th><th>P95 (ms)</th><th>P99 (ms)</th><th>Status</th></tr>
{{range .Results}}
<tr>
<td>{{.Service}}</td><td>{{.Endpoint}}</td><td>{{.TestName}}</td>
<td>{{.TotalRequests}}</td><td>{{.TotalErrors}}</td>
<td>{{fmt2 .RequestsPerSec}}</td>
<td>{{fmt2 (ms .Latency.P95)}}</td>
<td>{{fmt2 (ms .Latency.P99)}}</td>
<td class="{{statusClass .Status}}">{{.Status}}</td>
</tr>
{{end}}
</table>
{{end}}

{{if .Regressions}}
<h2>Regressions</h2>
<table>
<tr><th>Service</th><th>Endpoint</th><th>Metric</th><th>Baseline</th><th>Current</th><th>Change</th><th>Severity</th></tr>
{{range .Regressions}}
<tr>
<td>{{.Service}}</td><td>{{.Endpoint}}</td><td>{{.Metric}}</td>
<td>{{fmt2 .Baseline}}</td><td>{{fmt2 .Current}}</td>
<td>{{fmt2 .RegressionPct}}%</td><td class="fail">{{.Severity}}</td>
</tr>
{{end}}
</table>
{{end}}

{{if .Trends}}
<h2>Trends</h2>
<table>
<tr><th>Metric</th><th>Direction</th><th>Slope (/s)</th><th>Correlation</th></tr>
{{range .Trends}}
<tr><td>{{.Metric}}</td><td>{{.Direction}}</td><td>{{printf "%.4f" .Slope}}</td><td>{{fmt2 .Correlation}}</td></tr>
{{end}}
</table>
{{end}}

<h2>Recommendations</h2>
<ul>
{{range .Recommendations}}<li>{{.}}</li>
{{end}}
</ul>
</body>
</html>
`))

func generateHTML(r *analyzer.PerformanceReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("report: render html: %w", err)
	}
	return buf.Bytes(), nil
}
