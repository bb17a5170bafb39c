package blockstore

import (
	"strconv"
)

// BlockID is the cluster-wide identifier of a block. The upper bits of
// the identifier correspond to the container (inode) of the file to
// which the block belongs.
type BlockID int64

// String returns the decimal representation of the block ID, which is
// also used as the name of the file holding the block's contents.
func (id BlockID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ContainerID returns the identifier of the container (inode) to which
// the block belongs. Pinning is performed at the container level.
func (id BlockID) ContainerID() int64 {
	return int64(id) >> containerIDShift
}

const containerIDShift = 24

// SessionID identifies the client session on whose behalf an
// operation is performed.
type SessionID int64

// Session IDs used by the block store itself for operations that are
// not initiated by a client.
const (
	EvictorSessionID SessionID = -1 - iota
	CacheManagerSessionID
	LoadSessionID
	MigrationSessionID
	MaintenanceSessionID
)

// LockID identifies a lock that was granted by BlockLockManager.
type LockID int64

// InvalidLockID is returned by non-blocking lock operations if the
// lock could not be obtained.
const InvalidLockID LockID = -1

// LockMode is the mode in which a block is locked.
type LockMode int

const (
	// LockModeShared permits concurrent readers.
	LockModeShared LockMode = iota
	// LockModeExclusive permits a single owner.
	LockModeExclusive
)

func (m LockMode) String() string {
	switch m {
	case LockModeShared:
		return "SHARED"
	case LockModeExclusive:
		return "EXCLUSIVE"
	default:
		return "UNKNOWN"
	}
}
