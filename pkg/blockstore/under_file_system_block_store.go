package blockstore

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/clock"
	"github.com/buildbarn/bb-blockworker/pkg/ufs"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UFSBlockOptions describe where the contents of a block can be found
// in a backing store.
type UFSBlockOptions struct {
	// Name of the backing store in the mount table.
	MountID string
	// Path of the file in the backing store.
	Path string
	// Offset of the block within the file.
	OffsetInFile int64
	// Size of the block. The final block of a file may be shorter
	// than the block size used by the file.
	BlockSize int64
}

// UnderFileSystemBlockStore gives sessions access to blocks that are
// not resident in the local block store, by reading them from a
// backing store. Access is reference counted per (session, block).
type UnderFileSystemBlockStore interface {
	// AcquireAccess registers that a session wants to read a block
	// from the backing store. It returns true if access was newly
	// created, and false if the session already had access. It
	// fails with AlreadyExists if the block is resident in the
	// local block store.
	AcquireAccess(sessionID SessionID, blockID BlockID, options UFSBlockOptions) (bool, error)
	// ReleaseAccess drops a reference obtained by AcquireAccess.
	// Any open reader is closed when the last reference is
	// dropped.
	ReleaseAccess(sessionID SessionID, blockID BlockID)
	// CloseReaderOrWriter closes the reader that was created for a
	// session, if any.
	CloseReaderOrWriter(sessionID SessionID, blockID BlockID) error
	// CleanupSession closes all readers of a session and drops all
	// of its references.
	CleanupSession(sessionID SessionID)
	// CreateBlockReader creates a reader for a block to which the
	// session has acquired access. When cacheIfAbsent is set and
	// the block is read sequentially from the start, its contents
	// are written to a temporary block in the local block store.
	// The temporary block is retained when the reader is closed
	// after reading the full block, and aborted otherwise.
	CreateBlockReader(ctx context.Context, sessionID SessionID, blockID BlockID, offset int64, cacheIfAbsent bool) (BlockReader, error)
	// GetAccessCount returns the number of (session, block) pairs
	// that currently hold access.
	GetAccessCount() int
}

type ufsBlockKey struct {
	sessionID SessionID
	blockID   BlockID
}

type ufsBlockEntry struct {
	options  UFSBlockOptions
	refCount int
	reader   *ufsBlockReader
}

type underFileSystemBlockStore struct {
	localStore  BlockStore
	mountTable  *ufs.MountTable
	clock       clock.Clock
	openTimeout time.Duration

	lock    sync.Mutex
	entries map[ufsBlockKey]*ufsBlockEntry
}

// NewUnderFileSystemBlockStore creates an UnderFileSystemBlockStore
// that reads blocks from the backing stores in a mount table. Opening
// a byte range in a backing store is aborted if it does not complete
// within openTimeout.
func NewUnderFileSystemBlockStore(localStore BlockStore, mountTable *ufs.MountTable, clock clock.Clock, openTimeout time.Duration) UnderFileSystemBlockStore {
	return &underFileSystemBlockStore{
		localStore:  localStore,
		mountTable:  mountTable,
		clock:       clock,
		openTimeout: openTimeout,
		entries:     map[ufsBlockKey]*ufsBlockEntry{},
	}
}

func (s *underFileSystemBlockStore) AcquireAccess(sessionID SessionID, blockID BlockID, options UFSBlockOptions) (bool, error) {
	if options.BlockSize < 0 || options.OffsetInFile < 0 {
		return false, status.Errorf(codes.InvalidArgument, "Invalid range [%d, %d) for block %d", options.OffsetInFile, options.OffsetInFile+options.BlockSize, blockID)
	}
	if s.localStore.HasBlockMeta(blockID) {
		return false, status.Errorf(codes.AlreadyExists, "Block %d is already resident in the local block store", blockID)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	key := ufsBlockKey{sessionID: sessionID, blockID: blockID}
	if entry, ok := s.entries[key]; ok {
		entry.refCount++
		return false, nil
	}
	s.entries[key] = &ufsBlockEntry{
		options:  options,
		refCount: 1,
	}
	return true, nil
}

func (s *underFileSystemBlockStore) ReleaseAccess(sessionID SessionID, blockID BlockID) {
	s.lock.Lock()
	key := ufsBlockKey{sessionID: sessionID, blockID: blockID}
	entry, ok := s.entries[key]
	if !ok {
		s.lock.Unlock()
		return
	}
	entry.refCount--
	if entry.refCount > 0 {
		s.lock.Unlock()
		return
	}
	delete(s.entries, key)
	reader := entry.reader
	entry.reader = nil
	s.lock.Unlock()

	if reader != nil {
		if err := reader.Close(); err != nil {
			log.Printf("Failed to close reader of block %d for session %d: %s", blockID, sessionID, err)
		}
	}
}

func (s *underFileSystemBlockStore) CloseReaderOrWriter(sessionID SessionID, blockID BlockID) error {
	s.lock.Lock()
	entry, ok := s.entries[ufsBlockKey{sessionID: sessionID, blockID: blockID}]
	var reader *ufsBlockReader
	if ok {
		reader = entry.reader
		entry.reader = nil
	}
	s.lock.Unlock()

	if reader == nil {
		return nil
	}
	return reader.Close()
}

func (s *underFileSystemBlockStore) CleanupSession(sessionID SessionID) {
	s.lock.Lock()
	var readers []*ufsBlockReader
	for key, entry := range s.entries {
		if key.sessionID == sessionID {
			if entry.reader != nil {
				readers = append(readers, entry.reader)
			}
			delete(s.entries, key)
		}
	}
	s.lock.Unlock()

	for _, reader := range readers {
		if err := reader.Close(); err != nil {
			log.Printf("Failed to close reader of block %d for session %d: %s", reader.blockID, sessionID, err)
		}
	}
}

func (s *underFileSystemBlockStore) GetAccessCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.entries)
}

func (s *underFileSystemBlockStore) CreateBlockReader(ctx context.Context, sessionID SessionID, blockID BlockID, offset int64, cacheIfAbsent bool) (BlockReader, error) {
	s.lock.Lock()
	entry, ok := s.entries[ufsBlockKey{sessionID: sessionID, blockID: blockID}]
	var options UFSBlockOptions
	var previous *ufsBlockReader
	if ok {
		options = entry.options
		previous = entry.reader
		entry.reader = nil
	}
	s.lock.Unlock()
	if !ok {
		return nil, status.Errorf(codes.FailedPrecondition, "Session %d has not acquired access to block %d", sessionID, blockID)
	}
	if previous != nil {
		if err := previous.Close(); err != nil {
			log.Printf("Failed to close previous reader of block %d for session %d: %s", blockID, sessionID, err)
		}
	}
	if offset < 0 || offset > options.BlockSize {
		return nil, status.Errorf(codes.InvalidArgument, "Offset %d is out of range for block %d, which has length %d", offset, blockID, options.BlockSize)
	}

	backingStore, err := s.mountTable.Get(options.MountID)
	if err != nil {
		return nil, err
	}
	reader := &ufsBlockReader{
		store:        s,
		backingStore: backingStore,
		sessionID:    sessionID,
		blockID:      blockID,
		options:      options,
		position:     offset,
	}
	if cacheIfAbsent && offset == 0 {
		reader.startCaching(ctx)
	}

	s.lock.Lock()
	if entry, ok := s.entries[ufsBlockKey{sessionID: sessionID, blockID: blockID}]; ok && entry.reader == nil {
		entry.reader = reader
		s.lock.Unlock()
	} else {
		// Access was released while the reader was created.
		s.lock.Unlock()
		reader.Close()
		return nil, status.Errorf(codes.FailedPrecondition, "Session %d has not acquired access to block %d", sessionID, blockID)
	}
	return reader, nil
}

// openRange opens a byte range in the backing store. The context of
// the returned stream is only cancelled if opening takes longer than
// the open timeout, as data is read from the stream afterwards.
func (s *underFileSystemBlockStore) openRange(backingStore ufs.BackingStore, options UFSBlockOptions, offset int64) (io.ReadCloser, context.CancelFunc, error) {
	streamCtx, cancel := context.WithCancel(context.Background())
	timer, timerChannel := s.clock.NewTimer(s.openTimeout)
	opened := make(chan struct{})
	timedOut := make(chan bool, 1)
	go func() {
		select {
		case <-timerChannel:
			cancel()
			timedOut <- true
		case <-opened:
			timedOut <- false
		}
	}()

	stream, err := backingStore.OpenRange(streamCtx, options.Path, options.OffsetInFile+offset, options.BlockSize-offset)
	if timer.Stop() {
		close(opened)
	}
	if <-timedOut {
		if err == nil {
			stream.Close()
		}
		cancel()
		return nil, nil, status.Errorf(codes.DeadlineExceeded, "Opening file %#v in backing store %#v did not complete within %s", options.Path, options.MountID, s.openTimeout)
	}
	if err != nil {
		cancel()
		return nil, nil, util.StatusWrapf(err, "Failed to open file %#v in backing store %#v", options.Path, options.MountID)
	}
	return stream, cancel, nil
}

type ufsBlockReader struct {
	store        *underFileSystemBlockStore
	backingStore ufs.BackingStore
	sessionID    SessionID
	blockID      BlockID
	options      UFSBlockOptions

	lock           sync.Mutex
	position       int64
	stream         io.ReadCloser
	cancelStream   context.CancelFunc
	streamPosition int64
	cacheWriter    BlockWriter
	closed         bool
}

// startCaching creates a temporary block in the local block store into
// which the data read from the backing store is written. A temporary
// block that the session reserved up front is adopted.
func (r *ufsBlockReader) startCaching(ctx context.Context) {
	localStore := r.store.localStore
	created := true
	if _, err := localStore.CreateBlock(ctx, r.sessionID, r.blockID, AllocateOptions{
		Location:     AnyTierLocation(),
		InitialBytes: r.options.BlockSize,
	}); err != nil {
		if status.Code(err) != codes.AlreadyExists {
			log.Printf("Not caching block %d for session %d: %s", r.blockID, r.sessionID, err)
			return
		}
		created = false
	}
	w, err := localStore.CreateBlockWriter(ctx, r.sessionID, r.blockID)
	if err != nil {
		// The block is committed, or another session is
		// already caching it.
		if !created && status.Code(err) == codes.FailedPrecondition {
			return
		}
		log.Printf("Not caching block %d for session %d: %s", r.blockID, r.sessionID, err)
		r.abortCaching()
		return
	}
	if w.Position() != 0 {
		// The session already wrote data into the block.
		w.Close()
		return
	}
	r.cacheWriter = w
}

func (r *ufsBlockReader) abortCaching() {
	if r.cacheWriter != nil {
		r.cacheWriter.Close()
		r.cacheWriter = nil
	}
	if err := r.store.localStore.AbortBlock(context.Background(), r.sessionID, r.blockID); err != nil {
		log.Printf("Failed to abort caching of block %d for session %d: %s", r.blockID, r.sessionID, err)
	}
}

func (r *ufsBlockReader) Length() int64 {
	return r.options.BlockSize
}

func (r *ufsBlockReader) Read(p []byte) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	n, err := r.readAtLocked(p, r.position)
	r.position += int64(n)
	return n, err
}

func (r *ufsBlockReader) ReadAt(p []byte, off int64) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.readAtLocked(p, off)
}

func (r *ufsBlockReader) closeStream() {
	if r.stream != nil {
		r.stream.Close()
		r.cancelStream()
		r.stream = nil
		r.cancelStream = nil
	}
}

func (r *ufsBlockReader) readAtLocked(p []byte, off int64) (int, error) {
	if r.closed {
		return 0, status.Error(codes.FailedPrecondition, "Block reader is closed")
	}
	if off < 0 {
		return 0, status.Errorf(codes.InvalidArgument, "Negative read offset %d", off)
	}
	length := r.options.BlockSize
	if off >= length {
		return 0, io.EOF
	}
	truncated := false
	if remaining := length - off; int64(len(p)) > remaining {
		p = p[:remaining]
		truncated = true
	}

	// Streams can only be read sequentially. Reopen the stream if
	// the caller seeks.
	if r.stream == nil || r.streamPosition != off {
		r.closeStream()
		stream, cancel, err := r.store.openRange(r.backingStore, r.options, off)
		if err != nil {
			return 0, err
		}
		r.stream, r.cancelStream, r.streamPosition = stream, cancel, off
	}
	n, err := io.ReadFull(r.stream, p)
	r.streamPosition += int64(n)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = status.Errorf(codes.Internal, "File %#v in backing store %#v is shorter than expected: block %d ends at offset %d, while only %d bytes could be read", r.options.Path, r.options.MountID, r.blockID, length, off+int64(n))
	} else if err != nil {
		err = util.StatusWrapf(err, "Failed to read file %#v in backing store %#v", r.options.Path, r.options.MountID)
	}

	if r.cacheWriter != nil {
		if r.cacheWriter.Position() != off || err != nil {
			// The block is not read sequentially, meaning
			// the cached copy would be incomplete.
			r.abortCaching()
		} else if _, writeErr := r.cacheWriter.Write(p[:n]); writeErr != nil {
			log.Printf("Failed to cache block %d for session %d: %s", r.blockID, r.sessionID, writeErr)
			r.abortCaching()
		}
	}

	if err == nil && truncated {
		err = io.EOF
	}
	return n, err
}

// Close the reader. If the full block has been written to the local
// block store, the temporary block is retained, so that it can be
// committed by the caller.
func (r *ufsBlockReader) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.closeStream()
	if r.cacheWriter != nil {
		complete := r.cacheWriter.Position() == r.options.BlockSize
		if err := r.cacheWriter.Close(); err != nil || !complete {
			r.abortCaching()
			if err != nil {
				return util.StatusWrapfWithCode(err, codes.Internal, "Failed to close cached copy of block %d", r.blockID)
			}
		}
		r.cacheWriter = nil
	}
	return nil
}
