// Package analyzer owns the benchmark result set and the session baseline,
// and derives violations, regressions, and reports from them.
package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verawat1234/tchat-perfbench/internal/config"
	"github.com/verawat1234/tchat-perfbench/internal/trend"
)

// DefaultRegressionThreshold is the degradation percentage below which a
// metric delta is ignored during report generation.
const DefaultRegressionThreshold = 10.0

// baselineSafetyMargin scales observed values down when deriving a new
// baseline, so future runs are compared against 95% of what was measured.
const baselineSafetyMargin = 0.95

// Analyzer is the per-session aggregation point. One instance is
// constructed per session and passed to every component that needs it;
// there is no ambient global.
type Analyzer struct {
	sessionID   string
	sessionName string
	targets     config.Targets
	logger      *zap.Logger

	mu       sync.RWMutex
	results  []*BenchmarkResult
	baseline *BaselineDocument
}

// New creates an analyzer for one benchmark session.
func New(sessionName string, targets config.Targets, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		sessionID:   uuid.New().String(),
		sessionName: sessionName,
		targets:     targets,
		logger:      logger,
		results:     make([]*BenchmarkResult, 0),
	}
}

// SessionID returns the unique id of this session.
func (a *Analyzer) SessionID() string {
	return a.sessionID
}

// Targets returns the configured quality targets.
func (a *Analyzer) Targets() config.Targets {
	return a.targets
}

// AddResult appends a result under a short-held exclusive lock. It never
// performs I/O.
func (a *Analyzer) AddResult(r *BenchmarkResult) {
	a.mu.Lock()
	a.results = append(a.results, r)
	a.mu.Unlock()

	a.logger.Info("benchmark result recorded",
		zap.String("test", r.TestName),
		zap.String("service", r.Service),
		zap.String("status", string(r.Status)),
		zap.Int64("requests", r.TotalRequests),
		zap.Float64("rps", r.RequestsPerSec))
}

// Results returns a copy of the current result set.
func (a *Analyzer) Results() []*BenchmarkResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*BenchmarkResult, len(a.results))
	copy(out, a.results)
	return out
}

// Baseline returns the installed baseline document, or nil when none has
// been loaded or saved this session.
func (a *Analyzer) Baseline() *BaselineDocument {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.baseline
}

// LoadBaseline parses the baseline file at path and installs it. A
// malformed document returns an error and leaves any previously loaded
// baseline untouched.
func (a *Analyzer) LoadBaseline(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
	if err != nil {
		return fmt.Errorf("analyzer: read baseline %s: %w", path, err)
	}

	doc, err := ParseBaseline(data)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.baseline = doc
	a.mu.Unlock()

	a.logger.Info("baseline loaded",
		zap.String("path", path),
		zap.String("version", doc.Version),
		zap.Int("services", len(doc.Services)))
	return nil
}

// SaveBaseline derives a new baseline from the current result set, with
// every expected value set to 95% of the observed value as a safety
// margin, persists it to path, and installs it as the session baseline.
// When several results cover the same service and endpoint, the entry
// keeps the worst observation per metric: the lowest throughput and the
// highest latency, resource, and error figures.
func (a *Analyzer) SaveBaseline(version, path string) (*BaselineDocument, error) {
	a.mu.RLock()
	results := make([]*BenchmarkResult, len(a.results))
	copy(results, a.results)
	a.mu.RUnlock()

	if len(results) == 0 {
		return nil, fmt.Errorf("analyzer: no results to derive baseline %q from", version)
	}

	doc := &BaselineDocument{
		Version:   version,
		CreatedAt: time.Now().UTC(),
		Services:  make(map[string]map[string]BaselineEntry),
	}
	for _, r := range results {
		endpoints, ok := doc.Services[r.Service]
		if !ok {
			endpoints = make(map[string]BaselineEntry)
			doc.Services[r.Service] = endpoints
		}
		entry := BaselineEntry{
			ExpectedRPS:   r.RequestsPerSec * baselineSafetyMargin,
			ExpectedP95Ms: float64(r.Latency.P95) / float64(time.Millisecond) * baselineSafetyMargin,
			ExpectedP99Ms: float64(r.Latency.P99) / float64(time.Millisecond) * baselineSafetyMargin,
			MaxCPUPercent: r.Resources.AvgCPUPercent * baselineSafetyMargin,
			MaxMemoryMB:   r.Resources.PeakMemoryMB * baselineSafetyMargin,
			MaxErrorRate:  r.ErrorRate() * baselineSafetyMargin,
			Tags:          r.Tags,
		}
		if prev, ok := endpoints[r.Endpoint]; ok {
			entry = worstOf(prev, entry)
		}
		endpoints[r.Endpoint] = entry
	}

	data, err := doc.Marshal()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("analyzer: create baseline directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("analyzer: write baseline %s: %w", path, err)
	}

	a.mu.Lock()
	a.baseline = doc
	a.mu.Unlock()

	a.logger.Info("baseline saved",
		zap.String("path", path),
		zap.String("version", version))
	return doc, nil
}

// worstOf folds two baseline entries for the same endpoint into the
// more conservative one.
func worstOf(a, b BaselineEntry) BaselineEntry {
	out := a
	if b.ExpectedRPS < out.ExpectedRPS {
		out.ExpectedRPS = b.ExpectedRPS
	}
	if b.ExpectedP95Ms > out.ExpectedP95Ms {
		out.ExpectedP95Ms = b.ExpectedP95Ms
	}
	if b.ExpectedP99Ms > out.ExpectedP99Ms {
		out.ExpectedP99Ms = b.ExpectedP99Ms
	}
	if b.MaxCPUPercent > out.MaxCPUPercent {
		out.MaxCPUPercent = b.MaxCPUPercent
	}
	if b.MaxMemoryMB > out.MaxMemoryMB {
		out.MaxMemoryMB = b.MaxMemoryMB
	}
	if b.MaxErrorRate > out.MaxErrorRate {
		out.MaxErrorRate = b.MaxErrorRate
	}
	return out
}

// DetectRegressions compares the result set against the loaded baseline.
// It returns an error when no baseline has been loaded.
func (a *Analyzer) DetectRegressions(thresholdPct float64) ([]Regression, error) {
	if thresholdPct < 0 {
		return nil, fmt.Errorf("analyzer: regression threshold must not be negative, got %.2f", thresholdPct)
	}

	a.mu.RLock()
	baseline := a.baseline
	results := make([]*BenchmarkResult, len(a.results))
	copy(results, a.results)
	a.mu.RUnlock()

	if baseline == nil {
		return nil, fmt.Errorf("analyzer: no baseline loaded")
	}
	return detectRegressions(results, baseline, thresholdPct), nil
}

// GenerateReport builds a full PerformanceReport from current state. The
// read lock is held only for the snapshot copy, so report generation never
// blocks ingestion longer than that copy takes.
func (a *Analyzer) GenerateReport() *PerformanceReport {
	a.mu.RLock()
	results := make([]*BenchmarkResult, len(a.results))
	copy(results, a.results)
	baseline := a.baseline
	a.mu.RUnlock()

	report := &PerformanceReport{
		SessionID:   a.sessionID,
		SessionName: a.sessionName,
		GeneratedAt: time.Now().UTC(),
		Summary:     buildSummary(results),
		Services:    buildServiceStats(results),
		Results:     results,
		Regressions: detectRegressions(results, baseline, DefaultRegressionThreshold),
		Trends:      buildTrends(results),
		Metadata:    map[string]string{"generator": "perfbench"},
	}

	samples := make([]trend.ServiceSample, 0, len(results))
	for _, r := range results {
		samples = append(samples, trend.ServiceSample{
			Service:      r.Service,
			CPUPercent:   r.Resources.AvgCPUPercent,
			MemoryMB:     r.Resources.PeakMemoryMB,
			P95LatencyMs: float64(r.Latency.P95) / float64(time.Millisecond),
			RPS:          r.RequestsPerSec,
		})
	}
	report.Recommendations = trend.Recommend(samples, trend.Thresholds{
		MaxCPUPercent:   a.targets.Resources.MaxCPUPercent,
		MaxMemoryMB:     a.targets.Resources.MaxMemoryMB,
		MaxP95LatencyMs: a.targets.ResponseTime.P95Ms,
		MinRPS:          a.targets.Throughput.MinRPS,
	})

	return report
}
