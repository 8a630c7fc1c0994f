// Package loadgen drives a configurable concurrent request load against a
// service endpoint, collecting per-request phase timings.
package loadgen

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config defines load generation parameters for one endpoint.
type Config struct {
	Service  string
	Endpoint string

	URL            string
	Method         string
	Headers        map[string]string
	Body           []byte
	ExpectedStatus int

	Concurrency int
	TargetRPS   int
	Duration    time.Duration
	Warmup      time.Duration
	Timeout     time.Duration
	KeepAlive   bool
}

// Validate checks generation parameters.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("loadgen: url is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("loadgen: concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.TargetRPS < 1 {
		return fmt.Errorf("loadgen: target rps must be >= 1, got %d", c.TargetRPS)
	}
	if c.Duration <= 0 {
		return errors.New("loadgen: duration must be positive")
	}
	if c.Warmup < 0 || c.Warmup >= c.Duration {
		return errors.New("loadgen: warmup must be shorter than duration")
	}
	return nil
}

// Generator runs a bounded worker pool against a single endpoint. Each
// worker throttles itself with its own pacing limiter so the target RPS is
// divided evenly across the pool.
type Generator struct {
	config *Config
	logger *zap.Logger
	client *http.Client

	totalRequests atomic.Int64
	successCount  atomic.Int64
	failureCount  atomic.Int64

	mu        sync.Mutex
	running   bool
	startTime time.Time
	cancel    context.CancelFunc
}

// New creates a load generator for the given config.
func New(config *Config, logger *zap.Logger) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Method == "" {
		config.Method = http.MethodGet
	}
	if config.ExpectedStatus == 0 {
		config.ExpectedStatus = http.StatusOK
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	transport := &http.Transport{
		DisableKeepAlives:   !config.KeepAlive,
		MaxIdleConnsPerHost: config.Concurrency,
	}

	return &Generator{
		config: config,
		logger: logger,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}, nil
}

// Run starts the worker pool and returns a stream of WorkerResults. The
// stream is closed when the configured duration elapses, the context is
// cancelled, or Stop is called. Workers observe a stop within one pacing
// interval; in-flight requests are bounded by the request timeout.
func (g *Generator) Run(ctx context.Context) (<-chan WorkerResult, error) {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return nil, errors.New("loadgen: generator already running")
	}
	g.running = true
	g.startTime = time.Now()
	g.totalRequests.Store(0)
	g.successCount.Store(0)
	g.failureCount.Store(0)
	runCtx, cancel := context.WithTimeout(ctx, g.config.Duration)
	g.cancel = cancel
	g.mu.Unlock()

	warmupUntil := g.startTime.Add(g.config.Warmup)
	results := make(chan WorkerResult, g.config.Concurrency*4)

	// Each worker gets an even share of the target rate.
	perWorker := rate.Limit(float64(g.config.TargetRPS) / float64(g.config.Concurrency))

	var wg sync.WaitGroup
	for i := 0; i < g.config.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			g.worker(runCtx, id, perWorker, warmupUntil, results)
		}(i)
	}

	go func() {
		wg.Wait()
		cancel()

		// Clear running before closing the stream so a caller that
		// drains to close can immediately start the next run.
		g.mu.Lock()
		g.running = false
		g.mu.Unlock()
		close(results)

		g.logger.Info("load generation finished",
			zap.String("service", g.config.Service),
			zap.String("endpoint", g.config.Endpoint),
			zap.Int64("requests", g.totalRequests.Load()),
			zap.Int64("failures", g.failureCount.Load()))
	}()

	return results, nil
}

// Stop cancels the run early. Safe to call at any time.
func (g *Generator) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Stats returns live counters for the current run.
func (g *Generator) Stats() (total, success, failure int64, rps float64) {
	total = g.totalRequests.Load()
	success = g.successCount.Load()
	failure = g.failureCount.Load()

	g.mu.Lock()
	elapsed := time.Since(g.startTime).Seconds()
	g.mu.Unlock()

	if elapsed > 0 {
		rps = float64(total) / elapsed
	}
	return total, success, failure, rps
}

func (g *Generator) worker(ctx context.Context, id int, limit rate.Limit, warmupUntil time.Time, results chan<- WorkerResult) {
	workersActive.Inc()
	defer workersActive.Dec()

	limiter := rate.NewLimiter(limit, 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		res := g.issueRequest(ctx, id)
		res.Warmup = res.Start.Before(warmupUntil)

		g.totalRequests.Add(1)
		if res.Failed() {
			g.failureCount.Add(1)
		} else {
			g.successCount.Add(1)
		}
		recordRequest(res)

		// The stream is only closed after every worker has returned, so
		// a counted result is always delivered, even during a stop.
		results <- res
	}
}

// issueRequest performs one request, tracing the six timing phases. A
// connection or timeout failure is returned as data with status 0. A
// stop does not abort the request mid-flight; it keeps its request
// timeout to complete, since new requests are cut off at the pacer.
func (g *Generator) issueRequest(ctx context.Context, id int) WorkerResult {
	res := WorkerResult{
		WorkerID: id,
		Service:  g.config.Service,
		Endpoint: g.config.Endpoint,
		Start:    time.Now(),
	}

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.config.Timeout)
	defer cancel()

	var bodyReader io.Reader
	if len(g.config.Body) > 0 {
		bodyReader = bytes.NewReader(g.config.Body)
	}

	req, err := http.NewRequestWithContext(reqCtx, g.config.Method, g.config.URL, bodyReader)
	if err != nil {
		res.End = time.Now()
		res.Total = res.End.Sub(res.Start)
		res.Error = err.Error()
		return res
	}
	for k, v := range g.config.Headers {
		req.Header.Set(k, v)
	}

	var dnsStart, connectStart, tlsStart, firstByte time.Time
	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone: func(httptrace.DNSDoneInfo) {
			if !dnsStart.IsZero() {
				res.DNSLookup = time.Since(dnsStart)
			}
		},
		ConnectStart: func(_, _ string) { connectStart = time.Now() },
		ConnectDone: func(_, _ string, _ error) {
			if !connectStart.IsZero() {
				res.Connect = time.Since(connectStart)
			}
		},
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			if !tlsStart.IsZero() {
				res.TLSHandshake = time.Since(tlsStart)
			}
		},
		GotFirstResponseByte: func() {
			firstByte = time.Now()
			res.TimeToFirstByte = firstByte.Sub(res.Start)
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	resp, err := g.client.Do(req)
	if err != nil {
		res.End = time.Now()
		res.Total = res.End.Sub(res.Start)
		res.Error = err.Error()
		return res
	}

	n, readErr := io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	res.End = time.Now()
	res.Total = res.End.Sub(res.Start)
	if !firstByte.IsZero() {
		res.ContentTransfer = res.End.Sub(firstByte)
	}
	res.StatusCode = resp.StatusCode
	res.BytesRead = n

	if readErr != nil {
		res.Error = readErr.Error()
	} else if resp.StatusCode != g.config.ExpectedStatus {
		res.Error = fmt.Sprintf("unexpected status %d (want %d)", resp.StatusCode, g.config.ExpectedStatus)
	}
	return res
}
