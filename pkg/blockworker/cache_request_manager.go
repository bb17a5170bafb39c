package blockworker

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/clock"
	"github.com/buildbarn/bb-blockworker/pkg/util"
	"github.com/prometheus/client_golang/prometheus"

	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	cacheRequestManagerPrometheusMetrics sync.Once

	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "blockworker",
			Name:      "cache_requests_total",
			Help:      "Number of requests to cache blocks that were submitted.",
		},
		[]string{"mode", "source"})
	cacheRequestsDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildbarn",
			Subsystem: "blockworker",
			Name:      "cache_requests_duration_seconds",
			Help:      "Amount of time spent caching blocks, in seconds.",
			Buckets:   util.DurationBuckets,
		},
		[]string{"result"})
)

// CacheRequest asks the worker to store a copy of a block in its local
// block store, reading it from a backing store.
type CacheRequest struct {
	BlockID blockstore.BlockID
	// Location of the block in the backing store. The length of
	// the block is given by the block size.
	UFS blockstore.UFSBlockOptions
	// Worker that suggested the block to be cached. Blocks are
	// always read from the backing store, regardless of the source.
	SourceHost string
	SourcePort int
	// If set, the request returns immediately. Failures are only
	// logged.
	Async bool
}

type cacheTask struct {
	done chan struct{}
	err  error
}

// CacheRequestManager executes requests to cache blocks locally. The
// number of blocks that is cached concurrently is bounded. Requests
// for a block that is already being cached are merged into the
// request that is in flight.
type CacheRequestManager struct {
	localStore  blockstore.BlockStore
	ufsStore    blockstore.UnderFileSystemBlockStore
	localHost   string
	semaphore   *semaphore.Weighted
	clock       clock.Clock
	errorLogger util.ErrorLogger

	lock     sync.Mutex
	inFlight map[blockstore.BlockID]*cacheTask

	requestsSyncLocal   prometheus.Counter
	requestsSyncRemote  prometheus.Counter
	requestsAsyncLocal  prometheus.Counter
	requestsAsyncRemote prometheus.Counter

	durationCached        prometheus.Observer
	durationAlreadyCached prometheus.Observer
	durationFailed        prometheus.Observer
}

// NewCacheRequestManager creates a CacheRequestManager that caches at
// most maximumConcurrency blocks at a time. Failures of asynchronous
// requests are reported through the ErrorLogger.
func NewCacheRequestManager(localStore blockstore.BlockStore, ufsStore blockstore.UnderFileSystemBlockStore, localHost string, maximumConcurrency int64, clock clock.Clock, errorLogger util.ErrorLogger) *CacheRequestManager {
	cacheRequestManagerPrometheusMetrics.Do(func() {
		prometheus.MustRegister(cacheRequestsTotal)
		prometheus.MustRegister(cacheRequestsDurationSeconds)
	})

	return &CacheRequestManager{
		localStore:  localStore,
		ufsStore:    ufsStore,
		localHost:   localHost,
		semaphore:   semaphore.NewWeighted(maximumConcurrency),
		clock:       clock,
		errorLogger: errorLogger,
		inFlight:    map[blockstore.BlockID]*cacheTask{},

		requestsSyncLocal:   cacheRequestsTotal.WithLabelValues("Sync", "Local"),
		requestsSyncRemote:  cacheRequestsTotal.WithLabelValues("Sync", "Remote"),
		requestsAsyncLocal:  cacheRequestsTotal.WithLabelValues("Async", "Local"),
		requestsAsyncRemote: cacheRequestsTotal.WithLabelValues("Async", "Remote"),

		durationCached:        cacheRequestsDurationSeconds.WithLabelValues("Cached"),
		durationAlreadyCached: cacheRequestsDurationSeconds.WithLabelValues("AlreadyCached"),
		durationFailed:        cacheRequestsDurationSeconds.WithLabelValues("Failed"),
	}
}

func (m *CacheRequestManager) countRequest(request *CacheRequest) {
	isLocal := request.SourceHost == "" || request.SourceHost == m.localHost
	switch {
	case request.Async && isLocal:
		m.requestsAsyncLocal.Inc()
	case request.Async:
		m.requestsAsyncRemote.Inc()
	case isLocal:
		m.requestsSyncLocal.Inc()
	default:
		m.requestsSyncRemote.Inc()
	}
}

// SubmitRequest caches a block. Synchronous requests return once the
// block is present in the local block store, or caching has failed.
// Asynchronous requests return immediately.
func (m *CacheRequestManager) SubmitRequest(ctx context.Context, request *CacheRequest) error {
	blockID := request.BlockID
	if request.UFS.BlockSize < 0 {
		return status.Errorf(codes.InvalidArgument, "Invalid length %d for block %d", request.UFS.BlockSize, blockID)
	}
	m.countRequest(request)

	m.lock.Lock()
	if task, ok := m.inFlight[blockID]; ok {
		m.lock.Unlock()
		if request.Async {
			return nil
		}
		select {
		case <-task.done:
			return task.err
		case <-ctx.Done():
			return util.StatusFromContext(ctx)
		}
	}
	task := &cacheTask{done: make(chan struct{})}
	m.inFlight[blockID] = task
	m.lock.Unlock()

	if request.Async {
		go func() {
			if err := m.runTask(context.Background(), request, task); err != nil {
				m.errorLogger.Log(util.StatusWrapf(err, "Failed to cache block %d asynchronously", blockID))
			}
		}()
		return nil
	}
	return m.runTask(ctx, request, task)
}

func (m *CacheRequestManager) runTask(ctx context.Context, request *CacheRequest, task *cacheTask) error {
	err := util.AcquireSemaphore(ctx, m.semaphore, 1)
	if err == nil {
		err = m.cacheBlock(ctx, request)
		m.semaphore.Release(1)
	}

	m.lock.Lock()
	delete(m.inFlight, request.BlockID)
	m.lock.Unlock()

	task.err = err
	close(task.done)
	return err
}

func (m *CacheRequestManager) cacheBlock(ctx context.Context, request *CacheRequest) error {
	timeStart := m.clock.Now()
	blockID := request.BlockID
	if m.localStore.HasBlockMeta(blockID) {
		m.durationAlreadyCached.Observe(m.clock.Now().Sub(timeStart).Seconds())
		return nil
	}

	err := m.cacheBlockFromUFS(ctx, blockID, request.UFS)
	if err == nil && !m.localStore.HasBlockMeta(blockID) {
		err = status.Errorf(codes.Internal, "Block %d was read from the backing store, but could not be stored in the local block store", blockID)
	}
	if err != nil {
		m.durationFailed.Observe(m.clock.Now().Sub(timeStart).Seconds())
		return err
	}
	m.durationCached.Observe(m.clock.Now().Sub(timeStart).Seconds())
	return nil
}

// cacheBlockFromUFS reads a block from the backing store in its
// entirety. Space for the block is reserved up front, so that blocks
// that cannot be stored locally are rejected without accessing the
// backing store. Storing the block in the local block store is
// performed by the reader.
func (m *CacheRequestManager) cacheBlockFromUFS(ctx context.Context, blockID blockstore.BlockID, options blockstore.UFSBlockOptions) (err error) {
	sessionID := blockstore.CacheManagerSessionID
	if _, err := m.localStore.CreateBlock(ctx, sessionID, blockID, blockstore.AllocateOptions{
		Location:     blockstore.AnyTierLocation(),
		InitialBytes: options.BlockSize,
	}); err != nil && status.Code(err) != codes.AlreadyExists {
		return util.StatusWrapf(err, "Failed to reserve space for block %d", blockID)
	}

	if _, err := m.ufsStore.AcquireAccess(sessionID, blockID, options); err != nil {
		abortReservation(m.localStore, sessionID, blockID)
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return err
	}
	defer func() {
		if closeErr := closeUFSBlock(ctx, m.localStore, m.ufsStore, sessionID, blockID); err == nil {
			err = closeErr
		}
	}()

	reader, err := m.ufsStore.CreateBlockReader(ctx, sessionID, blockID, 0, true)
	if err != nil {
		abortReservation(m.localStore, sessionID, blockID)
		return err
	}
	buf := make([]byte, 1<<20)
	for {
		if _, err := reader.Read(buf); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// closeUFSBlock closes the reader of a block that was opened through
// an UnderFileSystemBlockStore. If the reader stored a complete copy
// of the block in the local block store, the block is committed.
// Access to the block is always released.
func closeUFSBlock(ctx context.Context, localStore blockstore.BlockStore, ufsStore blockstore.UnderFileSystemBlockStore, sessionID blockstore.SessionID, blockID blockstore.BlockID) error {
	defer ufsStore.ReleaseAccess(sessionID, blockID)

	if err := ufsStore.CloseReaderOrWriter(sessionID, blockID); err != nil {
		return err
	}
	if localStore.HasTempBlockMeta(blockID) {
		// The temporary block may be owned by another session, or
		// the session may have expired in the meantime.
		if err := localStore.CommitBlock(ctx, sessionID, blockID, false); err != nil && status.Code(err) != codes.FailedPrecondition {
			return util.StatusWrapf(err, "Failed to commit block %d read from the backing store", blockID)
		}
	}
	return nil
}

// abortReservation releases the space reserved for a block that is
// not going to be read. Blocks owned by other sessions are left alone.
func abortReservation(localStore blockstore.BlockStore, sessionID blockstore.SessionID, blockID blockstore.BlockID) {
	if err := localStore.AbortBlock(context.Background(), sessionID, blockID); err != nil && status.Code(err) != codes.FailedPrecondition {
		log.Printf("Failed to release space reserved for block %d: %s", blockID, err)
	}
}
