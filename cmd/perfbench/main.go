// cmd/perfbench/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/verawat1234/tchat-perfbench/internal/analyzer"
	"github.com/verawat1234/tchat-perfbench/internal/config"
	"github.com/verawat1234/tchat-perfbench/internal/loadgen"
	"github.com/verawat1234/tchat-perfbench/internal/logging"
	"github.com/verawat1234/tchat-perfbench/internal/metrics"
	"github.com/verawat1234/tchat-perfbench/internal/monitor"
	"github.com/verawat1234/tchat-perfbench/internal/report"
)

const monitorInterval = time.Second

func main() {
	os.Exit(realMain())
}

func realMain() int {
	var (
		configPath   = flag.String("config", "perfbench.yaml", "benchmark configuration file")
		baselinePath = flag.String("baseline", "", "baseline file (overrides config)")
		saveBaseline = flag.String("save-baseline", "", "write a new baseline to this path after the run")
		outputDir    = flag.String("output", "", "report output directory (overrides config)")
		threshold    = flag.Float64("threshold", analyzer.DefaultRegressionThreshold, "regression threshold percent")
	)
	flag.Parse()

	// Create logger
	logger := logging.FromEnv()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return 2
	}
	if *outputDir != "" {
		cfg.Reports.OutputDir = *outputDir
	}
	if *baselinePath != "" {
		cfg.Reports.BaselinePath = *baselinePath
	}

	// Optional scrape endpoint for long sessions
	if addr := os.Getenv("PERFBENCH_METRICS_ADDR"); addr != "" {
		ms := metrics.NewServer(addr, logger)
		ms.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Shutdown(shutdownCtx)
		}()
	}

	// Handle shutdown gracefully
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutting down...")
		cancel()
	}()

	exitCode := 0
	for {
		code, err := runSession(ctx, cfg, *threshold, *saveBaseline, logger)
		if err != nil {
			logger.Error("benchmark session failed", zap.Error(err))
			return 2
		}
		if code > exitCode {
			exitCode = code
		}
		if !cfg.Continuous || ctx.Err() != nil {
			break
		}
		logger.Info("continuous mode: starting next session")
	}
	return exitCode
}

// runSession executes one full benchmark sweep: every endpoint of every
// configured service, monitored, analyzed, compared against the baseline,
// and reported. Returns 1 when the quality gate fails.
func runSession(ctx context.Context, cfg *config.Config, threshold float64,
	saveBaselinePath string, logger *zap.Logger) (int, error) {

	a := analyzer.New(cfg.Session.Name, cfg.Targets, logger)

	if cfg.Reports.BaselinePath != "" {
		if err := a.LoadBaseline(cfg.Reports.BaselinePath); err != nil {
			return 0, err
		}
		logger.Info("baseline loaded", zap.String("path", cfg.Reports.BaselinePath))
	}

	fmt.Printf("\n")
	fmt.Printf("╔══════════════════════════════════════════╗\n")
	fmt.Printf("║        Performance Benchmark Run         ║\n")
	fmt.Printf("╠══════════════════════════════════════════╣\n")
	fmt.Printf("║  Session:  %-29s ║\n", truncate(cfg.Session.Name, 29))
	fmt.Printf("║  Services: %-29d ║\n", len(cfg.Services))
	fmt.Printf("║  Duration: %-29s ║\n", cfg.Load.Duration)
	fmt.Printf("╚══════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	for name, svc := range cfg.Services {
		for _, ep := range svc.Endpoints {
			if ctx.Err() != nil {
				logger.Info("run cancelled, skipping remaining endpoints")
				break
			}
			if err := runEndpoint(ctx, a, cfg, name, svc, ep, logger); err != nil {
				return 0, err
			}
		}
	}

	rep := a.GenerateReport()
	if a.Baseline() != nil {
		regressions, err := a.DetectRegressions(threshold)
		if err != nil {
			return 0, err
		}
		rep.Regressions = regressions
		for _, r := range regressions {
			logger.Warn("regression detected",
				zap.String("service", r.Service),
				zap.String("endpoint", r.Endpoint),
				zap.String("metric", r.Metric),
				zap.Float64("pct", r.RegressionPct),
				zap.String("severity", string(r.Severity)))
		}
	}
	rep.Metadata["environment"] = cfg.Session.Environment
	rep.Metadata["version"] = cfg.Session.Version

	writer := report.NewWriter(cfg.Reports.OutputDir, logger)
	paths, err := writer.Write(rep, cfg.Reports.Formats)
	if err != nil {
		return 0, err
	}
	for _, p := range paths {
		fmt.Printf("report: %s\n", p)
	}

	if saveBaselinePath != "" {
		if _, err := a.SaveBaseline(cfg.Session.Version, saveBaselinePath); err != nil {
			return 0, err
		}
		logger.Info("baseline saved", zap.String("path", saveBaselinePath))
	}

	return gate(rep), nil
}

// runEndpoint drives load against one endpoint with resource monitoring
// running alongside, then folds the outcome into the analyzer.
func runEndpoint(ctx context.Context, a *analyzer.Analyzer, cfg *config.Config,
	serviceName string, svc config.ServiceConfig, ep config.EndpointConfig, logger *zap.Logger) error {

	target, err := url.JoinPath(svc.BaseURL, ep.Path)
	if err != nil {
		return fmt.Errorf("service %q: join url: %w", serviceName, err)
	}

	gen, err := loadgen.New(&loadgen.Config{
		Service:        serviceName,
		Endpoint:       ep.Path,
		URL:            target,
		Method:         ep.Method,
		Headers:        ep.Headers,
		Body:           []byte(ep.Body),
		ExpectedStatus: ep.ExpectedStatus,
		Concurrency:    cfg.Load.Concurrency,
		TargetRPS:      weightedRPS(cfg.Load.TargetRPS, ep.Weight, svc.Endpoints),
		Duration:       cfg.Load.Duration.Std(),
		Warmup:         cfg.Load.Warmup.Std(),
		Timeout:        cfg.Load.Timeout.Std(),
		KeepAlive:      cfg.Load.KeepAlive,
	}, logger)
	if err != nil {
		return err
	}

	logger.Info("benchmarking endpoint",
		zap.String("service", serviceName),
		zap.String("url", target),
		zap.Duration("duration", cfg.Load.Duration.Std()))

	mon := monitor.New(logger)
	mon.Start(monitorInterval)

	stream, err := gen.Run(ctx)
	if err != nil {
		mon.Stop()
		return err
	}

	workerResults := make([]loadgen.WorkerResult, 0, cfg.Load.TargetRPS*int(cfg.Load.Duration.Std().Seconds()))
	for res := range stream {
		workerResults = append(workerResults, res)
	}
	mon.Stop()

	testName := fmt.Sprintf("%s %s %s", serviceName, ep.Method, ep.Path)
	tags := append(append([]string{}, svc.Tags...), ep.Tags...)
	result, err := analyzer.NewResult(testName, serviceName, ep.Path,
		workerResults, mon.GetMetrics(), cfg.Targets, tags)
	if err != nil {
		return err
	}
	a.AddResult(result)

	total, _, failures, rps := gen.Stats()
	fmt.Printf("  %-40s %8d reqs %6d errs %8.1f rps [%s]\n",
		truncate(testName, 40), total, failures, rps, result.Status)
	return nil
}

// weightedRPS splits the service target rate across its endpoints in
// proportion to their weights, never below 1 rps.
func weightedRPS(targetRPS, weight int, endpoints []config.EndpointConfig) int {
	total := 0
	for _, ep := range endpoints {
		total += ep.Weight
	}
	if total <= 0 || weight <= 0 {
		return targetRPS
	}
	rps := targetRPS * weight / total
	if rps < 1 {
		rps = 1
	}
	return rps
}

// gate maps the overall outcome to a process exit code. Any FAIL result
// or critical regression fails the run.
func gate(rep *analyzer.PerformanceReport) int {
	if rep.Summary.Failed > 0 {
		return 1
	}
	for _, r := range rep.Regressions {
		if r.Severity == analyzer.SeverityCritical || r.Severity == analyzer.SeverityHigh {
			return 1
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return strings.TrimSpace(s[:n-3]) + "..."
}
