package analyzer

import (
	"sort"
	"time"
)

// Regression is the derived comparison of one metric between a result and
// its baseline entry. One exists only when the degradation exceeds the
// caller-supplied threshold.
type Regression struct {
	Service         string   `json:"service"`
	Endpoint        string   `json:"endpoint"`
	Metric          string   `json:"metric"`
	Current         float64  `json:"current"`
	Baseline        float64  `json:"baseline"`
	RegressionPct   float64  `json:"regression_pct"`
	Severity        Severity `json:"severity"`
	Impact          Impact   `json:"impact"`
	Recommendations []string `json:"recommendations"`
}

// regressionSeverity maps a degradation percentage to a severity. The
// boundaries are strict: exactly 50/25/10 map to the band below, so a
// 25.0% regression is MEDIUM, not HIGH.
func regressionSeverity(pct float64) Severity {
	switch {
	case pct > 50:
		return SeverityCritical
	case pct > 25:
		return SeverityHigh
	case pct > 10:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// lowerIsWorsePct computes degradation for metrics where falling below
// baseline is the problem (RPS).
func lowerIsWorsePct(current, expected float64) float64 {
	if expected <= 0 {
		return 0
	}
	return (expected - current) / expected * 100
}

// higherIsWorsePct computes degradation for metrics where rising above
// baseline is the problem (latency, CPU, memory).
func higherIsWorsePct(current, expected float64) float64 {
	if expected <= 0 {
		return 0
	}
	return (current - expected) / expected * 100
}

// detectRegressions compares each result's RPS, P95 latency and CPU usage
// against its matching baseline entry. Results without a baseline entry
// are skipped. Output is sorted by severity, then degradation.
func detectRegressions(results []*BenchmarkResult, baseline *BaselineDocument, thresholdPct float64) []Regression {
	regressions := make([]Regression, 0)
	if baseline == nil {
		return regressions
	}

	for _, r := range results {
		entry, ok := baseline.Lookup(r.Service, r.Endpoint)
		if !ok {
			continue
		}

		if pct := lowerIsWorsePct(r.RequestsPerSec, entry.ExpectedRPS); pct > thresholdPct {
			regressions = append(regressions, Regression{
				Service:       r.Service,
				Endpoint:      r.Endpoint,
				Metric:        "rps",
				Current:       r.RequestsPerSec,
				Baseline:      entry.ExpectedRPS,
				RegressionPct: pct,
				Severity:      regressionSeverity(pct),
				Impact:        ImpactScalability,
				Recommendations: []string{
					"Compare recent deployments against the baseline build",
					"Check downstream dependency latency and saturation",
				},
			})
		}

		p95Ms := float64(r.Latency.P95) / float64(time.Millisecond)
		if pct := higherIsWorsePct(p95Ms, entry.ExpectedP95Ms); pct > thresholdPct {
			regressions = append(regressions, Regression{
				Service:       r.Service,
				Endpoint:      r.Endpoint,
				Metric:        "p95_latency",
				Current:       p95Ms,
				Baseline:      entry.ExpectedP95Ms,
				RegressionPct: pct,
				Severity:      regressionSeverity(pct),
				Impact:        ImpactUserExperience,
				Recommendations: []string{
					"Profile the endpoint hot path against the baseline build",
					"Inspect slow query logs introduced since the baseline",
				},
			})
		}

		if pct := higherIsWorsePct(r.Resources.AvgCPUPercent, entry.MaxCPUPercent); pct > thresholdPct {
			regressions = append(regressions, Regression{
				Service:       r.Service,
				Endpoint:      r.Endpoint,
				Metric:        "cpu",
				Current:       r.Resources.AvgCPUPercent,
				Baseline:      entry.MaxCPUPercent,
				RegressionPct: pct,
				Severity:      regressionSeverity(pct),
				Impact:        ImpactCost,
				Recommendations: []string{
					"Diff CPU profiles between baseline and current builds",
					"Review serialization and allocation changes on the request path",
				},
			})
		}
	}

	sort.SliceStable(regressions, func(i, j int) bool {
		ri, rj := severityRank(regressions[i].Severity), severityRank(regressions[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return regressions[i].RegressionPct > regressions[j].RegressionPct
	})
	return regressions
}
