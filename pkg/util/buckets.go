package util

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DurationBuckets are the histogram boundaries used by all latency
// metrics, in seconds. They range from one millisecond to a thousand
// seconds, with three buckets per power of ten.
var DurationBuckets = prometheus.ExponentialBucketsRange(1e-3, 1e3, 19)
