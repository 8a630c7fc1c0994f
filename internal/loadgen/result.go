package loadgen

import "time"

// WorkerResult is one load-request outcome with phase-broken timings.
// Results are transient: the analyzer consumes them immediately and only
// aggregates survive.
type WorkerResult struct {
	WorkerID int
	Service  string
	Endpoint string

	Start time.Time
	End   time.Time

	// Timing phases. Phases that did not occur (reused connection, plain
	// HTTP) are zero.
	DNSLookup       time.Duration
	Connect         time.Duration
	TLSHandshake    time.Duration
	TimeToFirstByte time.Duration
	ContentTransfer time.Duration
	Total           time.Duration

	StatusCode int
	BytesRead  int64
	Warmup     bool
	Error      string
}

// Failed reports whether the request ended in an error.
func (r WorkerResult) Failed() bool {
	return r.Error != ""
}
