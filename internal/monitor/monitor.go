// Package monitor samples process and system resource utilization on a
// background timer, independent of any running load test.
package monitor

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// probeState carries the previous sample's raw counters so rates and CPU
// percentages can be derived from deltas.
type probeState struct {
	sampledAt  time.Time
	cpuSeconds float64
	cpuOK      bool
	diskRead   uint64
	diskWrite  uint64
	diskOK     bool
	netRead    uint64
	netWrite   uint64
	netOK      bool
}

// Monitor collects Snapshots at a fixed interval between Start and Stop.
// It is the single producer of its snapshot list; GetMetrics may be called
// concurrently while sampling continues.
type Monitor struct {
	logger *zap.Logger

	mu       sync.RWMutex
	samples  []Snapshot
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	prev     probeState
	interval time.Duration
}

// New creates a resource monitor.
func New(logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		logger:  logger,
		samples: make([]Snapshot, 0, 256),
	}
}

// Start begins periodic sampling. Starting an already running monitor is a
// no-op.
func (m *Monitor) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.interval = interval
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.prev = probeState{}
	m.mu.Unlock()

	m.logger.Debug("resource monitor started", zap.Duration("interval", interval))
	go m.loop()
}

// Stop halts sampling. It is idempotent: calling it repeatedly, or before
// Start, is safe.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	done := m.doneCh
	m.mu.Unlock()

	<-done
	m.logger.Debug("resource monitor stopped")
}

// GetMetrics returns a copy of the accumulated snapshots. The copy is safe
// to read while sampling continues. The list is never nil.
func (m *Monitor) GetMetrics() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Snapshot, len(m.samples))
	copy(out, m.samples)
	return out
}

// IsRunning reports whether the sampling loop is active.
func (m *Monitor) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Monitor) loop() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.takeSample()
		}
	}
}

// takeSample populates every field best-effort. A field unavailable on the
// host platform is recorded as Unavailable; it never aborts the loop.
func (m *Monitor) takeSample() {
	now := time.Now()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snap := Snapshot{
		Timestamp:    now,
		MemoryUsedMB: Measured(float64(memStats.Sys) / (1024 * 1024)),
		Goroutines:   Measured(float64(runtime.NumGoroutine())),
		GCPauseMs:    Measured(float64(memStats.PauseTotalNs) / 1e6),
	}

	if total, ok := probeTotalMemory(); ok {
		snap.MemoryTotalMB = Measured(total / (1024 * 1024))
	}
	if handles, ok := probeOpenHandles(); ok {
		snap.OpenHandles = Measured(float64(handles))
	}

	next := probeState{sampledAt: now}
	next.cpuSeconds, next.cpuOK = probeCPUSeconds()
	next.diskRead, next.diskWrite, next.diskOK = probeDiskCounters()
	next.netRead, next.netWrite, next.netOK = probeNetCounters()

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.prev
	m.prev = next

	if !prev.sampledAt.IsZero() {
		elapsed := now.Sub(prev.sampledAt).Seconds()
		if elapsed > 0 {
			if prev.cpuOK && next.cpuOK {
				snap.CPUPercent = Measured(clampPercent((next.cpuSeconds - prev.cpuSeconds) / elapsed * 100))
			}
			if prev.diskOK && next.diskOK {
				snap.DiskReadKBps = Measured(counterRateKBps(prev.diskRead, next.diskRead, elapsed))
				snap.DiskWriteKBps = Measured(counterRateKBps(prev.diskWrite, next.diskWrite, elapsed))
			}
			if prev.netOK && next.netOK {
				snap.NetReadKBps = Measured(counterRateKBps(prev.netRead, next.netRead, elapsed))
				snap.NetWriteKBps = Measured(counterRateKBps(prev.netWrite, next.netWrite, elapsed))
			}
		}
	}

	m.samples = append(m.samples, snap)
}

func counterRateKBps(prev, cur uint64, elapsed float64) float64 {
	if cur < prev {
		// Counter reset.
		return 0
	}
	return float64(cur-prev) / 1024 / elapsed
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
