package ufs

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type localBackingStore struct {
	root string
}

// NewLocalBackingStore creates a BackingStore that reads files from a
// directory on the local file system. This can be used to expose
// network file systems that are mounted on the worker.
func NewLocalBackingStore(root string) BackingStore {
	return &localBackingStore{
		root: root,
	}
}

type sectionReadCloser struct {
	io.Reader
	io.Closer
}

func (bs *localBackingStore) OpenRange(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	if offset < 0 || length < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Invalid range [%d, %d)", offset, offset+length)
	}
	// Cleaning the path relative to the root prevents access to
	// files outside of the root directory.
	f, err := os.Open(filepath.Join(bs.root, filepath.Clean("/"+path)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.Errorf(codes.NotFound, "File %#v does not exist", path)
		}
		return nil, util.StatusWrapfWithCode(err, codes.Unavailable, "Failed to open file %#v", path)
	}
	return sectionReadCloser{
		Reader: io.NewSectionReader(f, offset, length),
		Closer: f,
	}, nil
}
