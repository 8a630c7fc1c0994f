package monitor

import (
	"testing"
	"time"
)

func TestGetMetrics_EmptyBeforeStart(t *testing.T) {
	m := New(nil)

	got := m.GetMetrics()
	if got == nil {
		t.Fatal("expected non-nil snapshot list")
	}
	if len(got) != 0 {
		t.Errorf("expected empty list before start, got %d", len(got))
	}
}

func TestMonitor_StopBeforeFirstSample(t *testing.T) {
	m := New(nil)
	m.Start(10 * time.Second)
	m.Stop()

	got := m.GetMetrics()
	if got == nil {
		t.Fatal("expected non-nil snapshot list")
	}
	if len(got) != 0 {
		t.Errorf("expected no samples before the first tick, got %d", len(got))
	}
}

func TestMonitor_CollectsSamples(t *testing.T) {
	m := New(nil)
	m.Start(10 * time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	m.Stop()

	samples := m.GetMetrics()
	if len(samples) == 0 {
		t.Fatal("expected at least one sample")
	}
	for i, s := range samples {
		if s.Timestamp.IsZero() {
			t.Errorf("sample %d: zero timestamp", i)
		}
		if !s.MemoryUsedMB.Available {
			t.Errorf("sample %d: runtime memory should always be available", i)
		}
		if !s.Goroutines.Available || s.Goroutines.Value < 1 {
			t.Errorf("sample %d: implausible goroutine reading %+v", i, s.Goroutines)
		}
	}
}

func TestMonitor_StopIdempotent(t *testing.T) {
	m := New(nil)

	m.Stop() // before start
	m.Start(10 * time.Millisecond)
	m.Stop()
	m.Stop() // twice after

	if m.IsRunning() {
		t.Error("monitor still running after Stop")
	}
}

func TestMonitor_StartWhileRunningIsNoOp(t *testing.T) {
	m := New(nil)
	m.Start(10 * time.Millisecond)
	defer m.Stop()

	m.Start(time.Millisecond) // ignored

	if !m.IsRunning() {
		t.Error("monitor should be running")
	}
}

func TestMonitor_Restart(t *testing.T) {
	m := New(nil)

	m.Start(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	m.Stop()
	first := len(m.GetMetrics())

	m.Start(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	m.Stop()

	if got := len(m.GetMetrics()); got <= first {
		t.Errorf("expected restart to keep accumulating, had %d then %d", first, got)
	}
}

func TestReading_Or(t *testing.T) {
	if got := Measured(42).Or(7); got != 42 {
		t.Errorf("expected measured value 42, got %v", got)
	}
	if got := Unavailable().Or(7); got != 7 {
		t.Errorf("expected fallback 7, got %v", got)
	}
	// A measured zero is a real value, not an absence.
	if got := Measured(0).Or(7); got != 0 {
		t.Errorf("expected measured zero, got %v", got)
	}
}
