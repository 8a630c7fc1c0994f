package monitor

import "time"

// Reading is a single best-effort measurement. Available distinguishes a
// metric the platform could not provide from a measured zero.
type Reading struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
}

// Measured wraps a value the platform actually provided.
func Measured(v float64) Reading {
	return Reading{Value: v, Available: true}
}

// Unavailable marks a metric the host platform could not provide.
func Unavailable() Reading {
	return Reading{}
}

// Or returns the measured value, or fallback when unavailable.
func (r Reading) Or(fallback float64) float64 {
	if !r.Available {
		return fallback
	}
	return r.Value
}

// Snapshot is one periodic sample of process and system resource state.
type Snapshot struct {
	Timestamp     time.Time `json:"timestamp"`
	CPUPercent    Reading   `json:"cpu_percent"`
	MemoryUsedMB  Reading   `json:"memory_used_mb"`
	MemoryTotalMB Reading   `json:"memory_total_mb"`
	Goroutines    Reading   `json:"goroutines"`
	GCPauseMs     Reading   `json:"gc_pause_ms"`
	OpenHandles   Reading   `json:"open_handles"`
	DiskReadKBps  Reading   `json:"disk_read_kbps"`
	DiskWriteKBps Reading   `json:"disk_write_kbps"`
	NetReadKBps   Reading   `json:"net_read_kbps"`
	NetWriteKBps  Reading   `json:"net_write_kbps"`
}
