package analyzer

import (
	"sort"
	"time"
)

// percentile selects from an ascending-sorted sample set using
// index = floor(N * p), clamped to the last element. No interpolation:
// repeated computation over a fixed sample set is exactly reproducible.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// sortDurations returns an ascending copy, leaving the input untouched.
func sortDurations(in []time.Duration) []time.Duration {
	out := make([]time.Duration, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
