package loadgen

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perfbench_requests_total",
			Help: "Total number of load requests issued",
		},
		[]string{"service", "endpoint", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "perfbench_request_duration_seconds",
			Help:    "Load request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perfbench_errors_total",
			Help: "Total number of failed load requests",
		},
		[]string{"service", "endpoint"},
	)

	workersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "perfbench_workers_active",
			Help: "Number of load workers currently running",
		},
	)
)

func recordRequest(res WorkerResult) {
	status := strconv.Itoa(res.StatusCode)
	requestsTotal.WithLabelValues(res.Service, res.Endpoint, status).Inc()
	requestDuration.WithLabelValues(res.Service, res.Endpoint).Observe(res.Total.Seconds())
	if res.Failed() {
		errorsTotal.WithLabelValues(res.Service, res.Endpoint).Inc()
	}
}
