// Package blockworker implements the worker side of the block storage
// cluster. It combines a local block store, access to backing stores
// and synchronization with the master.
package blockworker

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/master"
	"github.com/buildbarn/bb-blockworker/pkg/retry"
	"github.com/buildbarn/bb-blockworker/pkg/ufs"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"go.opentelemetry.io/otel/attribute"
	otel_codes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CreateBlockOptions control where a new block is stored.
type CreateBlockOptions struct {
	// Alias of the tier in which the block should be stored. If
	// empty, any tier may be used.
	TierAlias string
	// Medium type in which the block should be stored. Takes
	// precedence over the tier alias.
	MediumType string
	// Amount of space to reserve for the block initially.
	InitialBytes int64
}

// OpenUFSBlockOptions describe how a block that is not present in the
// local block store can be read from a backing store.
type OpenUFSBlockOptions struct {
	blockstore.UFSBlockOptions

	// When set, the contents of the block are not stored in the
	// local block store while reading.
	NoCache bool
}

// LoadBlock identifies a block that needs to be loaded into the local
// block store, together with its location in a backing store.
type LoadBlock struct {
	BlockID blockstore.BlockID
	UFS     blockstore.UFSBlockOptions
}

// BlockStatus describes why a block could not be loaded.
type BlockStatus struct {
	BlockID   blockstore.BlockID
	Code      codes.Code
	Message   string
	Retryable bool
}

// BlockWorker is the entry point for all operations that clients and
// the master may perform against a worker. All operations are safe to
// invoke concurrently.
type BlockWorker interface {
	SessionCleanable

	LockBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID) (blockstore.LockID, error)
	// TryLockBlock returns blockstore.InvalidLockID instead of an
	// error if the lock cannot be obtained.
	TryLockBlock(sessionID blockstore.SessionID, blockID blockstore.BlockID, mode blockstore.LockMode) blockstore.LockID
	UnlockBlock(lockID blockstore.LockID) bool
	UnlockBlockForSession(sessionID blockstore.SessionID, blockID blockstore.BlockID) bool
	AccessBlock(sessionID blockstore.SessionID, blockID blockstore.BlockID) error

	// CreateBlock creates a temporary block that is owned by the
	// session. The block must be committed or aborted.
	CreateBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, options CreateBlockOptions) (blockstore.BlockStoreLocation, error)
	CommitBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, pinOnCreate bool) error
	AbortBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID) error
	// CommitBlockInUFS informs the master that a block was written
	// to a backing store directly.
	CommitBlockInUFS(ctx context.Context, blockID blockstore.BlockID, length int64) error
	RequestSpace(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, additionalBytes int64) error
	CreateBlockWriter(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID) (blockstore.BlockWriter, error)

	// CreateBlockReader creates a reader for a block. Blocks that
	// are not present in the local block store are read from a
	// backing store, if options are provided.
	CreateBlockReader(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, offset int64, positionShort bool, ufsOptions *OpenUFSBlockOptions) (blockstore.BlockReader, error)
	// CreateUFSBlockReader creates a reader for a block that is
	// read from a backing store. Closing the reader causes the
	// block to be committed to the local block store if it was
	// read completely.
	CreateUFSBlockReader(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, offset int64, ufsOptions OpenUFSBlockOptions) (blockstore.BlockReader, error)
	CloseUFSBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID) error

	// MoveBlock moves a block to a given tier. Blocks already
	// stored in the tier are left in place.
	MoveBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, tierAlias string) error
	RemoveBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID) error
	// FreeWorker removes all blocks from the local block store. It
	// returns the IDs of blocks that could not be removed.
	FreeWorker(ctx context.Context) ([]blockstore.BlockID, error)

	Cache(ctx context.Context, request *CacheRequest) error
	// Load reads blocks from backing stores into the local block
	// store. It returns the status of each block that could not be
	// loaded.
	Load(ctx context.Context, blocks []LoadBlock) ([]BlockStatus, error)

	GetStoreMeta() blockstore.BlockStoreMeta
	GetStoreMetaFull() blockstore.BlockStoreMeta
	HasBlockMeta(blockID blockstore.BlockID) bool
	UpdatePinList(pinnedInodes []int64)
	SessionHeartbeat(sessionID blockstore.SessionID)
}

type defaultBlockWorker struct {
	store                  blockstore.BlockStore
	ufsStore               blockstore.UnderFileSystemBlockStore
	mountTable             *ufs.MountTable
	masterClient           master.BlockMasterClient
	sessions               *Sessions
	cacheManager           *CacheRequestManager
	activeClients          ClientCounter
	loadRetryPolicyFactory retry.PolicyFactory
	loadConcurrency        int
	tracer                 trace.Tracer

	// Temporary blocks created through CreateBlock that are
	// accounted for in activeClients.
	activeWritersLock sync.Mutex
	activeWriters     map[tempBlockKey]struct{}
}

type tempBlockKey struct {
	sessionID blockstore.SessionID
	blockID   blockstore.BlockID
}

// NewDefaultBlockWorker creates a BlockWorker that stores blocks in a
// local block store, and falls back to reading blocks from backing
// stores when they are not present locally.
func NewDefaultBlockWorker(
	store blockstore.BlockStore,
	ufsStore blockstore.UnderFileSystemBlockStore,
	mountTable *ufs.MountTable,
	masterClient master.BlockMasterClient,
	sessions *Sessions,
	cacheManager *CacheRequestManager,
	activeClients ClientCounter,
	loadRetryPolicyFactory retry.PolicyFactory,
	loadConcurrency int,
	tracerProvider trace.TracerProvider,
) BlockWorker {
	return &defaultBlockWorker{
		store:                  store,
		ufsStore:               ufsStore,
		mountTable:             mountTable,
		masterClient:           masterClient,
		sessions:               sessions,
		cacheManager:           cacheManager,
		activeClients:          activeClients,
		loadRetryPolicyFactory: loadRetryPolicyFactory,
		loadConcurrency:        loadConcurrency,
		tracer:                 tracerProvider.Tracer("github.com/buildbarn/bb-blockworker/pkg/blockworker"),
		activeWriters:          map[tempBlockKey]struct{}{},
	}
}

func (w *defaultBlockWorker) addActiveWriter(sessionID blockstore.SessionID, blockID blockstore.BlockID) {
	w.activeWritersLock.Lock()
	defer w.activeWritersLock.Unlock()
	key := tempBlockKey{sessionID: sessionID, blockID: blockID}
	if _, ok := w.activeWriters[key]; !ok {
		w.activeWriters[key] = struct{}{}
		w.activeClients.Inc()
	}
}

func (w *defaultBlockWorker) removeActiveWriter(sessionID blockstore.SessionID, blockID blockstore.BlockID) {
	w.activeWritersLock.Lock()
	defer w.activeWritersLock.Unlock()
	key := tempBlockKey{sessionID: sessionID, blockID: blockID}
	if _, ok := w.activeWriters[key]; ok {
		delete(w.activeWriters, key)
		w.activeClients.Dec()
	}
}

func (w *defaultBlockWorker) removeActiveWritersForSession(sessionID blockstore.SessionID) {
	w.activeWritersLock.Lock()
	defer w.activeWritersLock.Unlock()
	for key := range w.activeWriters {
		if key.sessionID == sessionID {
			delete(w.activeWriters, key)
			w.activeClients.Dec()
		}
	}
}

func (w *defaultBlockWorker) startSpan(ctx context.Context, name string, sessionID blockstore.SessionID, blockID blockstore.BlockID) (context.Context, trace.Span) {
	return w.tracer.Start(ctx, "BlockWorker."+name, trace.WithAttributes(
		attribute.Int64("session_id", int64(sessionID)),
		attribute.Int64("block_id", int64(blockID))))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otel_codes.Error, err.Error())
	}
	span.End()
}

func (w *defaultBlockWorker) LockBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID) (lockID blockstore.LockID, err error) {
	ctx, span := w.startSpan(ctx, "LockBlock", sessionID, blockID)
	defer func() { endSpan(span, err) }()

	return w.store.LockBlock(ctx, sessionID, blockID)
}

func (w *defaultBlockWorker) TryLockBlock(sessionID blockstore.SessionID, blockID blockstore.BlockID, mode blockstore.LockMode) blockstore.LockID {
	return w.store.TryLockBlock(sessionID, blockID, mode)
}

func (w *defaultBlockWorker) UnlockBlock(lockID blockstore.LockID) bool {
	return w.store.UnlockBlock(lockID)
}

func (w *defaultBlockWorker) UnlockBlockForSession(sessionID blockstore.SessionID, blockID blockstore.BlockID) bool {
	return w.store.UnlockBlockForSession(sessionID, blockID)
}

func (w *defaultBlockWorker) AccessBlock(sessionID blockstore.SessionID, blockID blockstore.BlockID) error {
	return w.store.AccessBlock(sessionID, blockID)
}

func (w *defaultBlockWorker) CreateBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, options CreateBlockOptions) (location blockstore.BlockStoreLocation, err error) {
	ctx, span := w.startSpan(ctx, "CreateBlock", sessionID, blockID)
	defer func() { endSpan(span, err) }()

	allocationLocation := blockstore.AnyDirInTier(options.TierAlias)
	if options.MediumType != "" {
		allocationLocation = blockstore.AnyDirInAnyTierWithMedium(options.MediumType)
	}
	location, err = w.store.CreateBlock(ctx, sessionID, blockID, blockstore.AllocateOptions{
		Location:     allocationLocation,
		InitialBytes: options.InitialBytes,
	})
	if err != nil {
		return blockstore.BlockStoreLocation{}, err
	}
	w.addActiveWriter(sessionID, blockID)
	return location, nil
}

func (w *defaultBlockWorker) CommitBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, pinOnCreate bool) (err error) {
	ctx, span := w.startSpan(ctx, "CommitBlock", sessionID, blockID)
	defer func() { endSpan(span, err) }()

	if err := w.store.CommitBlock(ctx, sessionID, blockID, pinOnCreate); err != nil {
		return err
	}
	w.removeActiveWriter(sessionID, blockID)
	return nil
}

func (w *defaultBlockWorker) AbortBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID) (err error) {
	ctx, span := w.startSpan(ctx, "AbortBlock", sessionID, blockID)
	defer func() { endSpan(span, err) }()

	if err := w.store.AbortBlock(ctx, sessionID, blockID); err != nil {
		return err
	}
	w.removeActiveWriter(sessionID, blockID)
	return nil
}

func (w *defaultBlockWorker) CommitBlockInUFS(ctx context.Context, blockID blockstore.BlockID, length int64) (err error) {
	ctx, span := w.startSpan(ctx, "CommitBlockInUFS", 0, blockID)
	defer func() { endSpan(span, err) }()

	return w.masterClient.CommitBlockInUFS(ctx, int64(blockID), length)
}

func (w *defaultBlockWorker) RequestSpace(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, additionalBytes int64) error {
	return w.store.RequestSpace(ctx, sessionID, blockID, additionalBytes)
}

func (w *defaultBlockWorker) CreateBlockWriter(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID) (blockstore.BlockWriter, error) {
	return w.store.CreateBlockWriter(ctx, sessionID, blockID)
}

func (w *defaultBlockWorker) CreateBlockReader(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, offset int64, positionShort bool, ufsOptions *OpenUFSBlockOptions) (reader blockstore.BlockReader, err error) {
	ctx, span := w.startSpan(ctx, "CreateBlockReader", sessionID, blockID)
	defer func() { endSpan(span, err) }()

	reader, err = w.store.CreateBlockReader(ctx, sessionID, blockID, offset, positionShort)
	if status.Code(err) == codes.NotFound && ufsOptions != nil {
		return w.createUFSBlockReader(ctx, sessionID, blockID, offset, *ufsOptions)
	}
	if err != nil {
		return nil, err
	}
	w.activeClients.Inc()
	return &activeClientBlockReader{
		BlockReader: reader,
		close:       reader.Close,
		dec:         w.activeClients.Dec,
	}, nil
}

func (w *defaultBlockWorker) CreateUFSBlockReader(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, offset int64, ufsOptions OpenUFSBlockOptions) (reader blockstore.BlockReader, err error) {
	ctx, span := w.startSpan(ctx, "CreateUFSBlockReader", sessionID, blockID)
	defer func() { endSpan(span, err) }()

	return w.createUFSBlockReader(ctx, sessionID, blockID, offset, ufsOptions)
}

func (w *defaultBlockWorker) createUFSBlockReader(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, offset int64, ufsOptions OpenUFSBlockOptions) (blockstore.BlockReader, error) {
	if _, err := w.ufsStore.AcquireAccess(sessionID, blockID, ufsOptions.UFSBlockOptions); err != nil {
		return nil, err
	}
	reader, err := w.ufsStore.CreateBlockReader(ctx, sessionID, blockID, offset, !ufsOptions.NoCache)
	if err != nil {
		if closeErr := closeUFSBlock(ctx, w.store, w.ufsStore, sessionID, blockID); closeErr != nil {
			log.Printf("Failed to close block %d of session %d: %s", blockID, sessionID, closeErr)
		}
		return nil, util.StatusWrapf(err, "Failed to read block %d from backing store %#v", blockID, ufsOptions.MountID)
	}
	w.activeClients.Inc()
	return &activeClientBlockReader{
		BlockReader: reader,
		close: func() error {
			return closeUFSBlock(context.Background(), w.store, w.ufsStore, sessionID, blockID)
		},
		dec: w.activeClients.Dec,
	}, nil
}

func (w *defaultBlockWorker) CloseUFSBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID) (err error) {
	ctx, span := w.startSpan(ctx, "CloseUFSBlock", sessionID, blockID)
	defer func() { endSpan(span, err) }()

	return closeUFSBlock(ctx, w.store, w.ufsStore, sessionID, blockID)
}

func (w *defaultBlockWorker) MoveBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID, tierAlias string) (err error) {
	ctx, span := w.startSpan(ctx, "MoveBlock", sessionID, blockID)
	defer func() { endSpan(span, err) }()

	destination := blockstore.AnyDirInTier(tierAlias)
	info, err := w.store.GetBlockInfo(blockID)
	if err != nil {
		return err
	}
	if info.Location.BelongsTo(destination) {
		return nil
	}
	return w.store.MoveBlock(ctx, sessionID, blockID, blockstore.AllocateOptions{
		Location: destination,
	})
}

func (w *defaultBlockWorker) RemoveBlock(ctx context.Context, sessionID blockstore.SessionID, blockID blockstore.BlockID) (err error) {
	ctx, span := w.startSpan(ctx, "RemoveBlock", sessionID, blockID)
	defer func() { endSpan(span, err) }()

	return w.store.RemoveBlock(ctx, sessionID, blockID)
}

func (w *defaultBlockWorker) FreeWorker(ctx context.Context) (failed []blockstore.BlockID, err error) {
	ctx, span := w.startSpan(ctx, "FreeWorker", blockstore.MaintenanceSessionID, 0)
	defer func() { endSpan(span, err) }()

	meta := w.store.GetBlockStoreMetaFull()
	for _, blockIDs := range meta.GetBlockIDs() {
		for _, blockID := range blockIDs {
			if err := ctx.Err(); err != nil {
				return failed, util.StatusFromContext(ctx)
			}
			if err := w.store.RemoveBlock(ctx, blockstore.MaintenanceSessionID, blockID); err != nil && status.Code(err) != codes.NotFound {
				log.Printf("Failed to remove block %d while freeing worker: %s", blockID, err)
				failed = append(failed, blockID)
			}
		}
	}
	return failed, nil
}

func (w *defaultBlockWorker) Cache(ctx context.Context, request *CacheRequest) (err error) {
	ctx, span := w.startSpan(ctx, "Cache", blockstore.CacheManagerSessionID, request.BlockID)
	defer func() { endSpan(span, err) }()

	return w.cacheManager.SubmitRequest(ctx, request)
}

func isRetryable(err error) bool {
	switch status.Code(err) {
	case codes.Aborted, codes.ResourceExhausted:
		return true
	default:
		return util.IsInfrastructureError(err)
	}
}

func (w *defaultBlockWorker) Load(ctx context.Context, blocks []LoadBlock) (failures []BlockStatus, err error) {
	ctx, span := w.startSpan(ctx, "Load", blockstore.LoadSessionID, 0)
	span.SetAttributes(attribute.Int("blocks", len(blocks)))
	defer func() { endSpan(span, err) }()

	var group errgroup.Group
	group.SetLimit(w.loadConcurrency)
	var failuresLock sync.Mutex
	for _, block := range blocks {
		if w.store.HasBlockMeta(block.BlockID) {
			continue
		}
		group.Go(func() error {
			if err := w.loadBlock(ctx, block); err != nil {
				log.Printf("Failed to load block %d: %s", block.BlockID, err)
				s := status.Convert(err)
				failuresLock.Lock()
				failures = append(failures, BlockStatus{
					BlockID:   block.BlockID,
					Code:      s.Code(),
					Message:   s.Message(),
					Retryable: isRetryable(err),
				})
				failuresLock.Unlock()
			}
			return nil
		})
	}
	group.Wait()
	if err := util.StatusFromContext(ctx); err != nil {
		return nil, err
	}
	return failures, nil
}

func (w *defaultBlockWorker) loadBlock(ctx context.Context, block LoadBlock) error {
	sessionID := blockstore.LoadSessionID
	options := block.UFS
	backingStore, err := w.mountTable.Get(options.MountID)
	if err != nil {
		return err
	}
	if _, err := w.store.CreateBlock(ctx, sessionID, block.BlockID, blockstore.AllocateOptions{
		Location:     blockstore.AnyTierLocation(),
		InitialBytes: options.BlockSize,
	}); err != nil {
		return err
	}
	writer, err := w.store.CreateBlockWriter(ctx, sessionID, block.BlockID)
	if err == nil {
		err = w.readFromBackingStore(ctx, backingStore, block.BlockID, options, writer)
		if closeErr := writer.Close(); err == nil && closeErr != nil {
			err = util.StatusWrapfWithCode(closeErr, codes.Internal, "Failed to close block %d", block.BlockID)
		}
	}
	if err == nil {
		err = w.store.CommitBlock(ctx, sessionID, block.BlockID, false)
	}
	if err != nil {
		if abortErr := w.store.AbortBlock(context.Background(), sessionID, block.BlockID); abortErr != nil {
			log.Printf("Failed to abort block %d: %s", block.BlockID, abortErr)
		}
		return err
	}
	return nil
}

// readFromBackingStore copies the contents of a block from a backing
// store into a block writer. Reads failing due to infrastructure
// errors are resumed at the position at which they failed.
func (w *defaultBlockWorker) readFromBackingStore(ctx context.Context, backingStore ufs.BackingStore, blockID blockstore.BlockID, options blockstore.UFSBlockOptions, writer blockstore.BlockWriter) error {
	err := status.Errorf(codes.Unavailable, "Retry policy did not permit reading block %d", blockID)
	policy := w.loadRetryPolicyFactory()
	for policy.Attempt(ctx) {
		position := writer.Position()
		var stream io.ReadCloser
		stream, err = backingStore.OpenRange(ctx, options.Path, options.OffsetInFile+position, options.BlockSize-position)
		if err == nil {
			var n int64
			n, err = io.Copy(writer, stream)
			stream.Close()
			if err == nil {
				if position+n != options.BlockSize {
					return status.Errorf(codes.Internal, "File %#v in backing store %#v is shorter than expected: block %d ends at offset %d, while only %d bytes could be read", options.Path, options.MountID, blockID, options.BlockSize, position+n)
				}
				return nil
			}
		}
		err = util.StatusWrapf(err, "Failed to read file %#v in backing store %#v", options.Path, options.MountID)
		if !util.IsInfrastructureError(err) {
			return err
		}
	}
	if ctxErr := util.StatusFromContext(ctx); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (w *defaultBlockWorker) GetStoreMeta() blockstore.BlockStoreMeta {
	return w.store.GetBlockStoreMeta()
}

func (w *defaultBlockWorker) GetStoreMetaFull() blockstore.BlockStoreMeta {
	return w.store.GetBlockStoreMetaFull()
}

func (w *defaultBlockWorker) HasBlockMeta(blockID blockstore.BlockID) bool {
	return w.store.HasBlockMeta(blockID)
}

func (w *defaultBlockWorker) UpdatePinList(pinnedInodes []int64) {
	w.store.UpdatePinnedInodes(pinnedInodes)
}

func (w *defaultBlockWorker) SessionHeartbeat(sessionID blockstore.SessionID) {
	w.sessions.SessionHeartbeat(sessionID)
}

func (w *defaultBlockWorker) CleanupSession(sessionID blockstore.SessionID) {
	w.sessions.RemoveSession(sessionID)
	w.ufsStore.CleanupSession(sessionID)
	w.store.CleanupSession(sessionID)
	w.removeActiveWritersForSession(sessionID)
}

// activeClientBlockReader decrements the number of active clients
// when the reader is closed.
type activeClientBlockReader struct {
	blockstore.BlockReader

	close func() error
	dec   func()
	once  sync.Once
}

func (r *activeClientBlockReader) Close() error {
	err := status.Error(codes.FailedPrecondition, "Block reader is already closed")
	r.once.Do(func() {
		err = r.close()
		r.dec()
	})
	return err
}
