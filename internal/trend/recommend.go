package trend

import (
	"fmt"
	"sort"
	"strings"
)

// ServiceSample is the per-service view the recommendation scan consumes.
type ServiceSample struct {
	Service      string
	CPUPercent   float64
	MemoryMB     float64
	P95LatencyMs float64
	RPS          float64
}

// Thresholds bound what the recommendation scan considers acceptable.
// Zero-valued thresholds disable their category.
type Thresholds struct {
	MaxCPUPercent   float64
	MaxMemoryMB     float64
	MaxP95LatencyMs float64
	MinRPS          float64
}

// Recommend scans services for threshold breaches and emits one
// de-duplicated recommendation per violated category, naming the affected
// services. A clean scan yields a single affirmative statement.
func Recommend(samples []ServiceSample, th Thresholds) []string {
	var cpu, mem, lat, tput []string

	for _, s := range samples {
		if th.MaxCPUPercent > 0 && s.CPUPercent > th.MaxCPUPercent {
			cpu = appendUnique(cpu, s.Service)
		}
		if th.MaxMemoryMB > 0 && s.MemoryMB > th.MaxMemoryMB {
			mem = appendUnique(mem, s.Service)
		}
		if th.MaxP95LatencyMs > 0 && s.P95LatencyMs > th.MaxP95LatencyMs {
			lat = appendUnique(lat, s.Service)
		}
		if th.MinRPS > 0 && s.RPS < th.MinRPS {
			tput = appendUnique(tput, s.Service)
		}
	}

	recommendations := make([]string, 0, 4)
	if len(cpu) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Optimize CPU usage for: %s", joinSorted(cpu)))
	}
	if len(mem) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Investigate memory consumption in: %s", joinSorted(mem)))
	}
	if len(lat) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Reduce p95 latency for: %s", joinSorted(lat)))
	}
	if len(tput) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Increase throughput capacity for: %s", joinSorted(tput)))
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations,
			"All services are performing within configured targets")
	}
	return recommendations
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

func joinSorted(list []string) string {
	sorted := make([]string, len(list))
	copy(sorted, list)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}
