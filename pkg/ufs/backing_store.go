// Package ufs provides access to the slower, authoritative stores from
// which blocks that are not resident on local media are fetched.
package ufs

import (
	"context"
	"io"
)

// BackingStore provides byte range access to files stored in a remote
// store. Files are identified by a path that is relative to the root
// of the store.
type BackingStore interface {
	// OpenRange opens a byte range of a file for sequential reading.
	// The returned stream may yield fewer bytes than requested if
	// the file is shorter. Implementations return NotFound if the
	// file does not exist and Unavailable if the store cannot be
	// reached.
	OpenRange(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error)
}
