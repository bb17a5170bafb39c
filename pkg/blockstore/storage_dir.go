package blockstore

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/buildbarn/bb-blockworker/pkg/eviction"
	"github.com/buildbarn/bb-blockworker/pkg/filesystem"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
)

const (
	tempBlocksDirectoryName = ".tmp_blocks"
	tempSubdirectoryCount   = 1024
)

// BlockMeta describes a committed block.
type BlockMeta struct {
	blockID   BlockID
	blockSize int64
	dir       *StorageDir
}

// BlockID returns the ID of the block.
func (bm *BlockMeta) BlockID() BlockID { return bm.blockID }

// BlockSize returns the size of the block in bytes.
func (bm *BlockMeta) BlockSize() int64 { return bm.blockSize }

// Location returns the directory in which the block is stored.
func (bm *BlockMeta) Location() BlockStoreLocation { return bm.dir.Location() }

// Dir returns the directory in which the block is stored.
func (bm *BlockMeta) Dir() *StorageDir { return bm.dir }

// TempBlockMeta describes a block that is being written by a session.
// Its size is the amount of space reserved for it in the directory.
type TempBlockMeta struct {
	blockID   BlockID
	sessionID SessionID
	blockSize int64
	dir       *StorageDir
}

// BlockID returns the ID of the block.
func (tm *TempBlockMeta) BlockID() BlockID { return tm.blockID }

// SessionID returns the ID of the session that owns the block.
func (tm *TempBlockMeta) SessionID() SessionID { return tm.sessionID }

// BlockSize returns the number of bytes reserved for the block.
func (tm *TempBlockMeta) BlockSize() int64 { return tm.blockSize }

// Location returns the directory in which the block is stored.
func (tm *TempBlockMeta) Location() BlockStoreLocation { return tm.dir.Location() }

// Dir returns the directory in which the block is stored.
func (tm *TempBlockMeta) Dir() *StorageDir { return tm.dir }

func (tm *TempBlockMeta) subdirectoryName() string {
	return strconv.FormatUint(uint64(tm.sessionID)%tempSubdirectoryCount, 10)
}

func (tm *TempBlockMeta) filename() string {
	return fmt.Sprintf("%d-%d", tm.sessionID, tm.blockID)
}

// StorageDir is a directory on local media in which blocks are
// stored. Committed blocks are stored in files named after the block
// ID. Temporary blocks are stored in a separate subdirectory, so that
// they can be discarded in bulk on startup.
type StorageDir struct {
	tier          *StorageTier
	index         int
	path          string
	capacityBytes int64

	// Capacity minus the size of committed blocks and the space
	// reserved for temporary blocks.
	availableBytes int64
	committedBytes int64

	blocks      map[BlockID]*BlockMeta
	tempBlocks  map[BlockID]*TempBlockMeta
	evictionSet eviction.Set[BlockID]

	directory      filesystem.DirectoryCloser
	tempBlocksRoot filesystem.DirectoryCloser
}

func newStorageDir(tier *StorageTier, index int, path string, capacityBytes int64, evictionSet eviction.Set[BlockID]) (*StorageDir, error) {
	directory, err := filesystem.NewLocalDirectory(path)
	if err != nil {
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to open storage directory %#v", path)
	}
	if err := directory.Mkdir(tempBlocksDirectoryName, 0o777); err != nil && !os.IsExist(err) {
		directory.Close()
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to create temporary blocks directory in %#v", path)
	}
	tempBlocksRoot, err := directory.EnterDirectory(tempBlocksDirectoryName)
	if err != nil {
		directory.Close()
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to open temporary blocks directory in %#v", path)
	}
	// Temporary blocks are owned by sessions that did not survive
	// a restart.
	if err := tempBlocksRoot.RemoveAllChildren(); err != nil {
		tempBlocksRoot.Close()
		directory.Close()
		return nil, util.StatusWrapfWithCode(err, codes.Internal, "Failed to clean temporary blocks directory in %#v", path)
	}

	d := &StorageDir{
		tier:           tier,
		index:          index,
		path:           path,
		capacityBytes:  capacityBytes,
		availableBytes: capacityBytes,
		blocks:         map[BlockID]*BlockMeta{},
		tempBlocks:     map[BlockID]*TempBlockMeta{},
		evictionSet:    evictionSet,
		directory:      directory,
		tempBlocksRoot: tempBlocksRoot,
	}
	if err := d.scan(); err != nil {
		d.close()
		return nil, err
	}
	return d, nil
}

// scan populates the directory's block index from the files present
// on disk.
func (d *StorageDir) scan() error {
	entries, err := d.directory.ReadDir()
	if err != nil {
		return util.StatusWrapfWithCode(err, codes.Internal, "Failed to read storage directory %#v", d.path)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == tempBlocksDirectoryName {
			continue
		}
		id, err := strconv.ParseInt(name, 10, 64)
		if err != nil || entry.Type() != filesystem.FileTypeRegularFile || BlockID(id).String() != name {
			log.Printf("Ignoring unexpected file %#v in storage directory %#v", name, d.path)
			continue
		}
		blockID := BlockID(id)
		if size := entry.Size(); size > d.availableBytes {
			log.Printf("Removing block %d in storage directory %#v, as it exceeds the directory's capacity", blockID, d.path)
			if err := d.directory.Remove(name); err != nil {
				return util.StatusWrapfWithCode(err, codes.Internal, "Failed to remove block %d from storage directory %#v", blockID, d.path)
			}
		} else {
			d.addBlockMeta(&BlockMeta{
				blockID:   blockID,
				blockSize: size,
				dir:       d,
			})
		}
	}
	return nil
}

func (d *StorageDir) close() {
	d.tempBlocksRoot.Close()
	d.directory.Close()
}

// Tier returns the tier to which the directory belongs.
func (d *StorageDir) Tier() *StorageTier { return d.tier }

// Index returns the index of the directory within its tier.
func (d *StorageDir) Index() int { return d.index }

// Path returns the path of the directory on the local file system.
func (d *StorageDir) Path() string { return d.path }

// CapacityBytes returns the total capacity of the directory.
func (d *StorageDir) CapacityBytes() int64 { return d.capacityBytes }

// AvailableBytes returns the number of bytes that are neither used
// by committed blocks nor reserved by temporary blocks.
func (d *StorageDir) AvailableBytes() int64 { return d.availableBytes }

// CommittedBytes returns the total size of committed blocks.
func (d *StorageDir) CommittedBytes() int64 { return d.committedBytes }

// Location returns the location that uniquely identifies the
// directory.
func (d *StorageDir) Location() BlockStoreLocation {
	return BlockStoreLocation{
		TierAlias:  d.tier.alias,
		DirIndex:   d.index,
		MediumType: d.tier.mediumType,
	}
}

func (d *StorageDir) addBlockMeta(bm *BlockMeta) {
	d.blocks[bm.blockID] = bm
	d.availableBytes -= bm.blockSize
	d.committedBytes += bm.blockSize
	d.evictionSet.Insert(bm.blockID)
}

func (d *StorageDir) removeBlockMeta(bm *BlockMeta) {
	delete(d.blocks, bm.blockID)
	d.availableBytes += bm.blockSize
	d.committedBytes -= bm.blockSize
	d.evictionSet.Delete(bm.blockID)
}

func (d *StorageDir) addTempBlockMeta(tm *TempBlockMeta) {
	d.tempBlocks[tm.blockID] = tm
	d.availableBytes -= tm.blockSize
}

func (d *StorageDir) removeTempBlockMeta(tm *TempBlockMeta) {
	delete(d.tempBlocks, tm.blockID)
	d.availableBytes += tm.blockSize
}

// openTempBlockSubdirectory opens the subdirectory in which the files
// of a session's temporary blocks are stored, creating it if needed.
func (d *StorageDir) openTempBlockSubdirectory(tm *TempBlockMeta) (filesystem.DirectoryCloser, error) {
	name := tm.subdirectoryName()
	if err := d.tempBlocksRoot.Mkdir(name, 0o777); err != nil && !os.IsExist(err) {
		return nil, err
	}
	return d.tempBlocksRoot.EnterDirectory(name)
}

// StorageTier is an ordered group of directories that are backed by
// the same kind of medium.
type StorageTier struct {
	alias      string
	ordinal    int
	mediumType string
	dirs       []*StorageDir
	// Paths of directories that were removed, because they
	// became inaccessible.
	lostStorage []string
}

// NewStorageTier creates an empty storage tier. Directories can be
// added to it using AddDir().
func NewStorageTier(alias, mediumType string) *StorageTier {
	if mediumType == "" {
		mediumType = alias
	}
	return &StorageTier{
		alias:      alias,
		mediumType: mediumType,
	}
}

// AddDir opens a directory on the local file system and adds it to
// the tier. Blocks already present in the directory are added to the
// directory's index, while temporary blocks are discarded.
func (t *StorageTier) AddDir(path string, capacityBytes int64, evictionSet eviction.Set[BlockID]) (*StorageDir, error) {
	d, err := newStorageDir(t, len(t.dirs), path, capacityBytes, evictionSet)
	if err != nil {
		return nil, err
	}
	t.dirs = append(t.dirs, d)
	return d, nil
}

// Alias returns the name of the tier.
func (t *StorageTier) Alias() string { return t.alias }

// Ordinal returns the position of the tier, zero being the fastest.
func (t *StorageTier) Ordinal() int { return t.ordinal }

// MediumType returns the medium type of the tier.
func (t *StorageTier) MediumType() string { return t.mediumType }

// Dirs returns the directories of the tier that are accessible.
func (t *StorageTier) Dirs() []*StorageDir { return t.dirs }

// LostStorage returns the paths of directories that were removed from
// the tier.
func (t *StorageTier) LostStorage() []string { return t.lostStorage }

func (t *StorageTier) removeDir(d *StorageDir) {
	for i, other := range t.dirs {
		if other == d {
			t.dirs = append(t.dirs[:i:i], t.dirs[i+1:]...)
			t.lostStorage = append(t.lostStorage, d.path)
			return
		}
	}
}
