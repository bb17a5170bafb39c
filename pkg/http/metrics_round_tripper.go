package http

import (
	"net/http"
	"sync"

	"github.com/buildbarn/bb-blockworker/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	roundTripperPrometheusMetrics sync.Once

	roundTripperRequestsInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "buildbarn",
			Subsystem: "http",
			Name:      "round_tripper_requests_in_flight",
			Help:      "Number of HTTP requests issued to a backing store that have not completed yet.",
		},
		[]string{"name"})
	roundTripperRequestsDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildbarn",
			Subsystem: "http",
			Name:      "round_tripper_requests_duration_seconds",
			Help:      "Amount of time spent per HTTP request issued to a backing store, in seconds.",
			Buckets:   util.DurationBuckets,
		},
		[]string{"name", "code", "method"})
)

// NewMetricsRoundTripper wraps the transport used to access a backing
// store, so that the number of outstanding requests and their latency
// are exposed as Prometheus metrics labeled with the given name.
func NewMetricsRoundTripper(base http.RoundTripper, name string) http.RoundTripper {
	roundTripperPrometheusMetrics.Do(func() {
		prometheus.MustRegister(roundTripperRequestsInFlight)
		prometheus.MustRegister(roundTripperRequestsDurationSeconds)
	})

	labels := prometheus.Labels{"name": name}
	return promhttp.InstrumentRoundTripperInFlight(
		roundTripperRequestsInFlight.With(labels),
		promhttp.InstrumentRoundTripperDuration(
			roundTripperRequestsDurationSeconds.MustCurryWith(labels),
			base))
}
