package filesystem

import (
	"io"
	"os"
)

// CreationMode specifies whether and how Directory.Open*() should
// create new files.
type CreationMode struct {
	flags       int
	permissions os.FileMode
}

// ShouldCreate returns whether a new file should be created if it
// doesn't exist yet.
func (c CreationMode) ShouldCreate() bool {
	return (c.flags & os.O_CREATE) != 0
}

// ShouldFailWhenExists returns whether a new file must be created. When
// true, opening must fail in case the target file already exists.
func (c CreationMode) ShouldFailWhenExists() bool {
	return (c.flags & os.O_EXCL) != 0
}

var (
	// DontCreate indicates that opening should fail in case the
	// target file does not exist.
	DontCreate = CreationMode{}
)

// CreateReuse indicates that a new file should be created if it doesn't
// already exist. If the target file already exists, that file will be
// opened instead.
func CreateReuse(perm os.FileMode) CreationMode {
	return CreationMode{flags: os.O_CREATE, permissions: perm}
}

// CreateExcl indicates that a new file should be created. If the target
// file already exists, opening shall fail.
func CreateExcl(perm os.FileMode) CreationMode {
	return CreationMode{flags: os.O_CREATE | os.O_EXCL, permissions: perm}
}

// Directory is an abstraction for accessing a subtree of the file
// system. Each of the functions should be implemented in such a way
// that they reject access to data stored outside of the subtree. This
// allows for safe, race-free traversal of the file system.
//
// By placing this in a separate interface, it's easier to stub out file
// system handling as part of unit tests entirely.
type Directory interface {
	// EnterDirectory creates a derived directory handle for a
	// subdirectory of the current subtree.
	EnterDirectory(name string) (DirectoryCloser, error)
	// Open a file contained within the directory for reading. The
	// CreationMode is assumed to be equal to DontCreate.
	OpenRead(name string) (FileReader, error)
	// Open a file contained within the current directory for writing.
	OpenWrite(name string, creationMode CreationMode) (FileWriter, error)
	// Mkdir is the equivalent of os.Mkdir().
	Mkdir(name string, perm os.FileMode) error
	// ReadDir is the equivalent of ioutil.ReadDir().
	ReadDir() ([]FileInfo, error)
	// Lstat is the equivalent of os.Lstat().
	Lstat(name string) (FileInfo, error)
	// Remove is the equivalent of os.Remove().
	Remove(name string) error
	// RemoveAllChildren empties out a directory, without removing
	// the directory itself.
	RemoveAllChildren() error
	// Rename is the equivalent of os.Rename(). Both directories
	// need to be backed by the same file system.
	Rename(oldName string, newDirectory Directory, newName string) error
	// Sync flushes the directory's entries to stable storage, so
	// that preceding renames and removals survive a crash.
	Sync() error
	// IsWritable returns whether the directory can be modified.
	IsWritable() (bool, error)

	// Function that base types may use to implement calls that
	// require double dispatching, such as renaming.
	Apply(arg interface{}) error
}

// DirectoryCloser is a Directory handle that can be released.
type DirectoryCloser interface {
	Directory
	io.Closer
}
