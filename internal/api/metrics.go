package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver records request counts and latencies.
type PrometheusObserver struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusObserver registers the client metrics with reg.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mangiee",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Requests sent to the restaurant API, by method, outcome and status.",
		}, []string{"method", "outcome", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mangiee",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Latency of restaurant API requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "outcome"}),
	}
	reg.MustRegister(o.requests, o.duration)
	return o
}

// ObserveRequest implements Observer.
func (o *PrometheusObserver) ObserveRequest(method string, status int, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	o.requests.WithLabelValues(method, outcome, strconv.Itoa(status)).Inc()
	o.duration.WithLabelValues(method, outcome).Observe(elapsed.Seconds())
}
