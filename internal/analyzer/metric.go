package analyzer

import (
	"fmt"
	"time"
)

// Severity indicates how serious a violation or regression is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityRank returns numeric rank for sorting.
func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Status is the externally visible verdict of one benchmark result.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusWarning Status = "WARNING"
	StatusFail    Status = "FAIL"
)

// Impact categorizes what a breach hurts.
type Impact string

const (
	ImpactUserExperience Impact = "user_experience"
	ImpactCost           Impact = "cost"
	ImpactScalability    Impact = "scalability"
)

// MetricKind tags the variant held by a MetricValue.
type MetricKind string

const (
	KindNumeric  MetricKind = "numeric"
	KindDuration MetricKind = "duration"
	KindText     MetricKind = "text"
)

// MetricValue is a closed tagged variant so evaluators and renderers can
// match exhaustively instead of inspecting loose maps at runtime.
type MetricValue struct {
	Kind MetricKind    `json:"kind"`
	Num  float64       `json:"num,omitempty"`
	Dur  time.Duration `json:"dur,omitempty"`
	Text string        `json:"text,omitempty"`
}

// Numeric wraps a float metric value.
func Numeric(v float64) MetricValue {
	return MetricValue{Kind: KindNumeric, Num: v}
}

// Duration wraps a duration metric value.
func Duration(d time.Duration) MetricValue {
	return MetricValue{Kind: KindDuration, Dur: d}
}

// Text wraps a textual metric value.
func Text(s string) MetricValue {
	return MetricValue{Kind: KindText, Text: s}
}

// String renders the value for human-readable reports.
func (v MetricValue) String() string {
	switch v.Kind {
	case KindNumeric:
		return fmt.Sprintf("%.2f", v.Num)
	case KindDuration:
		return v.Dur.String()
	case KindText:
		return v.Text
	default:
		return ""
	}
}
