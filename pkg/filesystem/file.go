package filesystem

import (
	"io"
)

// FileReader is returned by Directory.OpenRead(). It is a handle
// for a file that permits data to be read from arbitrary locations.
type FileReader interface {
	io.Closer
	io.ReaderAt
}

// FileWriter is returned by Directory.OpenWrite(). It is a handle for a
// file that permits data to be written to arbitrary locations.
type FileWriter interface {
	io.Closer
	io.WriterAt
	Sync() error
	Truncate(size int64) error
}
