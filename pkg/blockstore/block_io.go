package blockstore

import (
	"context"
	"io"

	"github.com/buildbarn/bb-blockworker/pkg/filesystem"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type blockReader struct {
	file     filesystem.FileReader
	length   int64
	position int64
	release  func()
	closed   bool
}

func (r *blockReader) Length() int64 {
	return r.length
}

func (r *blockReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.position)
	r.position += int64(n)
	return n, err
}

func (r *blockReader) ReadAt(p []byte, off int64) (int, error) {
	if r.closed {
		return 0, status.Error(codes.FailedPrecondition, "Block reader is closed")
	}
	if off < 0 {
		return 0, status.Errorf(codes.InvalidArgument, "Negative read offset %d", off)
	}
	if off >= r.length {
		return 0, io.EOF
	}
	// Data beyond the length of the block is never returned.
	if remaining := r.length - off; int64(len(p)) > remaining {
		n, err := r.file.ReadAt(p[:remaining], off)
		if err == nil {
			err = io.EOF
		}
		return n, err
	}
	return r.file.ReadAt(p, off)
}

func (r *blockReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.file.Close()
	r.release()
	return err
}

type blockWriter struct {
	store         *tieredBlockStore
	sessionID     SessionID
	blockID       BlockID
	file          filesystem.FileWriter
	position      int64
	reservedBytes int64
}

func (w *blockWriter) Position() int64 {
	return w.position
}

func (w *blockWriter) Write(p []byte) (int, error) {
	if w.file == nil {
		return 0, status.Error(codes.FailedPrecondition, "Block writer is closed")
	}
	if end := w.position + int64(len(p)); end > w.reservedBytes {
		if err := w.store.RequestSpace(context.Background(), w.sessionID, w.blockID, end-w.reservedBytes); err != nil {
			return 0, err
		}
		w.reservedBytes = end
	}
	n, err := w.file.WriteAt(p, w.position)
	w.position += int64(n)
	return n, err
}

func (w *blockWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
