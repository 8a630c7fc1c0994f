//go:build !linux

package monitor

// Non-linux platforms report these metrics as unavailable rather than
// failing the sample.

func probeCPUSeconds() (float64, bool) { return 0, false }

func probeTotalMemory() (float64, bool) { return 0, false }

func probeOpenHandles() (int, bool) { return 0, false }

func probeDiskCounters() (read, write uint64, ok bool) { return 0, 0, false }

func probeNetCounters() (rx, tx uint64, ok bool) { return 0, 0, false }
