// Package trend derives longer-horizon signal from repeated benchmark
// sessions: linear metric trends and actionable recommendations.
package trend

import (
	"math"
	"time"
)

// Direction classifies where a metric is heading.
type Direction string

const (
	DirectionImproving Direction = "improving"
	DirectionDegrading Direction = "degrading"
	DirectionStable    Direction = "stable"
)

// DefaultSignificance is the minimum |correlation| before a slope is
// trusted enough to call a direction.
const DefaultSignificance = 0.5

// Point is one timestamped observation of a metric.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is a timestamped metric series across sessions.
type Series struct {
	Metric         string  `json:"metric"`
	HigherIsBetter bool    `json:"higher_is_better"`
	Points         []Point `json:"points"`
}

// Trend is a least-squares linear fit over a Series. Slope is in metric
// units per second.
type Trend struct {
	Metric      string    `json:"metric"`
	Slope       float64   `json:"slope"`
	Intercept   float64   `json:"intercept"`
	Correlation float64   `json:"correlation"`
	Direction   Direction `json:"direction"`
	StdErr      float64   `json:"std_err"`

	origin time.Time
	lastX  float64
}

// Projection is a forward estimate with a confidence band.
type Projection struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// Analyze fits a line through the series and classifies its direction.
// Fewer than two points, or a correlation below the significance
// threshold, yields a stable trend.
func Analyze(series Series, significance float64) Trend {
	t := Trend{Metric: series.Metric, Direction: DirectionStable}
	n := len(series.Points)
	if n < 2 {
		return t
	}
	if significance <= 0 {
		significance = DefaultSignificance
	}

	t.origin = series.Points[0].Timestamp

	var sumX, sumY, sumXY, sumXX, sumYY float64
	for _, p := range series.Points {
		x := p.Timestamp.Sub(t.origin).Seconds()
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
		sumYY += p.Value * p.Value
		if x > t.lastX {
			t.lastX = x
		}
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return t
	}
	t.Slope = (fn*sumXY - sumX*sumY) / denom
	t.Intercept = (sumY - t.Slope*sumX) / fn

	corrDenom := math.Sqrt(denom * (fn*sumYY - sumY*sumY))
	if corrDenom > 0 {
		t.Correlation = (fn*sumXY - sumX*sumY) / corrDenom
	}

	var residuals float64
	for _, p := range series.Points {
		x := p.Timestamp.Sub(t.origin).Seconds()
		diff := p.Value - (t.Intercept + t.Slope*x)
		residuals += diff * diff
	}
	if n > 2 {
		t.StdErr = math.Sqrt(residuals / float64(n-2))
	}

	if math.Abs(t.Correlation) >= significance && t.Slope != 0 {
		rising := t.Slope > 0
		if rising == series.HigherIsBetter {
			t.Direction = DirectionImproving
		} else {
			t.Direction = DirectionDegrading
		}
	}
	return t
}

// Project extrapolates the fitted line forward by horizon, with a 95%
// confidence band from the residual standard error.
func (t Trend) Project(horizon time.Duration) Projection {
	x := t.lastX + horizon.Seconds()
	value := t.Intercept + t.Slope*x
	band := 1.96 * t.StdErr
	return Projection{
		At:    t.origin.Add(time.Duration(x * float64(time.Second))),
		Value: value,
		Lower: value - band,
		Upper: value + band,
	}
}
