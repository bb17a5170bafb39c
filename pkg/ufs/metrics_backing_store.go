package ufs

import (
	"context"
	"io"
	"sync"

	"github.com/buildbarn/bb-blockworker/pkg/clock"
	"github.com/buildbarn/bb-blockworker/pkg/util"
	"github.com/prometheus/client_golang/prometheus"

	"google.golang.org/grpc/status"
)

var (
	backingStorePrometheusMetrics sync.Once

	backingStoreOpenRangeDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildbarn",
			Subsystem: "ufs",
			Name:      "backing_store_open_range_duration_seconds",
			Help:      "Amount of time spent per OpenRange() call against a backing store, in seconds.",
			Buckets:   util.DurationBuckets,
		},
		[]string{"name", "grpc_code"})
	backingStoreReadBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "ufs",
			Name:      "backing_store_read_bytes_total",
			Help:      "Number of bytes read from a backing store.",
		},
		[]string{"name"})
)

type metricsBackingStore struct {
	base  BackingStore
	clock clock.Clock

	openRangeDurationSeconds prometheus.ObserverVec
	readBytes                prometheus.Counter
}

// NewMetricsBackingStore creates an adapter for BackingStore that
// adds basic instrumentation in the form of Prometheus metrics.
func NewMetricsBackingStore(base BackingStore, clock clock.Clock, name string) BackingStore {
	backingStorePrometheusMetrics.Do(func() {
		prometheus.MustRegister(backingStoreOpenRangeDurationSeconds)
		prometheus.MustRegister(backingStoreReadBytes)
	})

	return &metricsBackingStore{
		base:  base,
		clock: clock,

		openRangeDurationSeconds: backingStoreOpenRangeDurationSeconds.MustCurryWith(prometheus.Labels{"name": name}),
		readBytes:                backingStoreReadBytes.WithLabelValues(name),
	}
}

func (bs *metricsBackingStore) OpenRange(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	timeStart := bs.clock.Now()
	r, err := bs.base.OpenRange(ctx, path, offset, length)
	bs.openRangeDurationSeconds.WithLabelValues(status.Code(err).String()).Observe(bs.clock.Now().Sub(timeStart).Seconds())
	if err != nil {
		return nil, err
	}
	return &countingReadCloser{
		ReadCloser: r,
		readBytes:  bs.readBytes,
	}, nil
}

type countingReadCloser struct {
	io.ReadCloser
	readBytes prometheus.Counter
}

func (r *countingReadCloser) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	r.readBytes.Add(float64(n))
	return n, err
}
