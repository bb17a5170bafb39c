package blockstore

import (
	"log"
	"sort"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// BlockMetadataManager is the in-memory catalog of the tiers,
// directories and blocks of the block store. Every block is stored in
// exactly one directory. This type does not permit concurrent access.
// Only the physical files of blocks are left untouched; moving and
// removing them is the responsibility of the caller.
type BlockMetadataManager struct {
	tiers       []*StorageTier
	tiersByName map[string]*StorageTier

	blocks            map[BlockID]*BlockMeta
	tempBlocks        map[BlockID]*TempBlockMeta
	sessionTempBlocks map[SessionID]map[BlockID]*TempBlockMeta
}

// NewBlockMetadataManager creates a BlockMetadataManager for a list of
// tiers, ordered from fastest to slowest. Blocks that were found in
// more than one directory are only retained in the first.
func NewBlockMetadataManager(tiers []*StorageTier) (*BlockMetadataManager, error) {
	mm := &BlockMetadataManager{
		tiers:             tiers,
		tiersByName:       map[string]*StorageTier{},
		blocks:            map[BlockID]*BlockMeta{},
		tempBlocks:        map[BlockID]*TempBlockMeta{},
		sessionTempBlocks: map[SessionID]map[BlockID]*TempBlockMeta{},
	}
	for ordinal, tier := range tiers {
		if tier.alias == AnyTier {
			return nil, status.Error(codes.InvalidArgument, "Storage tiers must have a non-empty alias")
		}
		if _, ok := mm.tiersByName[tier.alias]; ok {
			return nil, status.Errorf(codes.InvalidArgument, "Storage tier %#v is declared multiple times", tier.alias)
		}
		tier.ordinal = ordinal
		mm.tiersByName[tier.alias] = tier
		for _, dir := range tier.dirs {
			for _, blockID := range sortedBlockIDs(dir.blocks) {
				bm := dir.blocks[blockID]
				if existing, ok := mm.blocks[blockID]; ok {
					log.Printf("Block %d is stored in both %#v and %#v, removing the latter", blockID, existing.dir.path, dir.path)
					dir.removeBlockMeta(bm)
					if err := dir.directory.Remove(blockID.String()); err != nil {
						log.Printf("Failed to remove duplicate block %d from %#v: %s", blockID, dir.path, err)
					}
				} else {
					mm.blocks[blockID] = bm
				}
			}
		}
	}
	return mm, nil
}

func sortedBlockIDs(blocks map[BlockID]*BlockMeta) []BlockID {
	blockIDs := make([]BlockID, 0, len(blocks))
	for blockID := range blocks {
		blockIDs = append(blockIDs, blockID)
	}
	sort.Slice(blockIDs, func(i, j int) bool { return blockIDs[i] < blockIDs[j] })
	return blockIDs
}

// GetTiers returns all tiers, ordered from fastest to slowest.
func (mm *BlockMetadataManager) GetTiers() []*StorageTier {
	return mm.tiers
}

// GetTier returns the tier with a given alias.
func (mm *BlockMetadataManager) GetTier(alias string) (*StorageTier, error) {
	tier, ok := mm.tiersByName[alias]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "Unknown storage tier %#v", alias)
	}
	return tier, nil
}

// GetNextTier returns the tier below a given tier, or nil if the tier
// is the slowest.
func (mm *BlockMetadataManager) GetNextTier(tier *StorageTier) *StorageTier {
	if next := tier.ordinal + 1; next < len(mm.tiers) {
		return mm.tiers[next]
	}
	return nil
}

// GetDirs returns all directories matching a location, ordered by
// tier.
func (mm *BlockMetadataManager) GetDirs(location BlockStoreLocation) []*StorageDir {
	var dirs []*StorageDir
	for _, tier := range mm.tiers {
		for _, dir := range tier.dirs {
			if dir.Location().BelongsTo(location) {
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}

// GetDir returns the directory corresponding to a non-wildcard
// location.
func (mm *BlockMetadataManager) GetDir(location BlockStoreLocation) (*StorageDir, error) {
	if location.IsAnyTier() || location.IsAnyDir() {
		return nil, status.Errorf(codes.InvalidArgument, "Location %s does not refer to a single directory", location)
	}
	tier, err := mm.GetTier(location.TierAlias)
	if err != nil {
		return nil, err
	}
	for _, dir := range tier.dirs {
		if dir.index == location.DirIndex {
			return dir, nil
		}
	}
	return nil, status.Errorf(codes.NotFound, "Directory %d of storage tier %#v does not exist", location.DirIndex, location.TierAlias)
}

// HasBlockMeta returns whether a committed block exists.
func (mm *BlockMetadataManager) HasBlockMeta(blockID BlockID) bool {
	_, ok := mm.blocks[blockID]
	return ok
}

// GetBlockMeta returns the metadata of a committed block.
func (mm *BlockMetadataManager) GetBlockMeta(blockID BlockID) (*BlockMeta, error) {
	bm, ok := mm.blocks[blockID]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "Block %d does not exist", blockID)
	}
	return bm, nil
}

// HasTempBlockMeta returns whether a temporary block exists.
func (mm *BlockMetadataManager) HasTempBlockMeta(blockID BlockID) bool {
	_, ok := mm.tempBlocks[blockID]
	return ok
}

// GetTempBlockMeta returns the metadata of a temporary block.
func (mm *BlockMetadataManager) GetTempBlockMeta(blockID BlockID) (*TempBlockMeta, error) {
	tm, ok := mm.tempBlocks[blockID]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "Temporary block %d does not exist", blockID)
	}
	return tm, nil
}

// AddTempBlockMeta reserves space for a new temporary block in a
// directory. Committed blocks with the same ID may exist, as moving a
// block creates a temporary copy at the destination.
func (mm *BlockMetadataManager) AddTempBlockMeta(dir *StorageDir, sessionID SessionID, blockID BlockID, initialBytes int64) (*TempBlockMeta, error) {
	if mm.HasTempBlockMeta(blockID) {
		return nil, status.Errorf(codes.AlreadyExists, "Temporary block %d already exists", blockID)
	}
	if initialBytes < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Invalid block size %d", initialBytes)
	}
	if initialBytes > dir.availableBytes {
		return nil, status.Errorf(codes.ResourceExhausted, "Directory %#v has %d bytes available, while %d bytes are requested", dir.path, dir.availableBytes, initialBytes)
	}
	tm := &TempBlockMeta{
		blockID:   blockID,
		sessionID: sessionID,
		blockSize: initialBytes,
		dir:       dir,
	}
	dir.addTempBlockMeta(tm)
	mm.tempBlocks[blockID] = tm
	sessionTempBlocks, ok := mm.sessionTempBlocks[sessionID]
	if !ok {
		sessionTempBlocks = map[BlockID]*TempBlockMeta{}
		mm.sessionTempBlocks[sessionID] = sessionTempBlocks
	}
	sessionTempBlocks[blockID] = tm
	return tm, nil
}

// ResizeTempBlockMeta changes the amount of space reserved for a
// temporary block.
func (mm *BlockMetadataManager) ResizeTempBlockMeta(tm *TempBlockMeta, newSize int64) error {
	if newSize < tm.blockSize {
		return status.Errorf(codes.InvalidArgument, "Cannot shrink temporary block %d from %d to %d bytes", tm.blockID, tm.blockSize, newSize)
	}
	dir := tm.dir
	if delta := newSize - tm.blockSize; delta > dir.availableBytes {
		return status.Errorf(codes.ResourceExhausted, "Directory %#v has %d bytes available, while %d additional bytes are requested", dir.path, dir.availableBytes, delta)
	}
	dir.availableBytes -= newSize - tm.blockSize
	tm.blockSize = newSize
	return nil
}

func (mm *BlockMetadataManager) removeTempBlockMeta(tm *TempBlockMeta) {
	tm.dir.removeTempBlockMeta(tm)
	delete(mm.tempBlocks, tm.blockID)
	if sessionTempBlocks := mm.sessionTempBlocks[tm.sessionID]; sessionTempBlocks != nil {
		delete(sessionTempBlocks, tm.blockID)
		if len(sessionTempBlocks) == 0 {
			delete(mm.sessionTempBlocks, tm.sessionID)
		}
	}
}

// AbortTempBlockMeta discards a temporary block, releasing the space
// reserved for it.
func (mm *BlockMetadataManager) AbortTempBlockMeta(tm *TempBlockMeta) {
	mm.removeTempBlockMeta(tm)
}

// CommitTempBlockMeta converts a temporary block to a committed block
// of a given size. The reservation of the temporary block must be at
// least as large as the block.
func (mm *BlockMetadataManager) CommitTempBlockMeta(tm *TempBlockMeta, blockSize int64) (*BlockMeta, error) {
	if mm.HasBlockMeta(tm.blockID) {
		return nil, status.Errorf(codes.AlreadyExists, "Block %d already exists", tm.blockID)
	}
	if blockSize > tm.blockSize {
		return nil, status.Errorf(codes.FailedPrecondition, "Block %d has size %d, which exceeds the %d bytes reserved for it", tm.blockID, blockSize, tm.blockSize)
	}
	mm.removeTempBlockMeta(tm)
	bm := &BlockMeta{
		blockID:   tm.blockID,
		blockSize: blockSize,
		dir:       tm.dir,
	}
	tm.dir.addBlockMeta(bm)
	mm.blocks[bm.blockID] = bm
	return bm, nil
}

// RemoveBlockMeta removes a committed block.
func (mm *BlockMetadataManager) RemoveBlockMeta(bm *BlockMeta) {
	bm.dir.removeBlockMeta(bm)
	delete(mm.blocks, bm.blockID)
}

// MoveBlockMeta moves a committed block to the directory of a
// temporary block that was created to hold its copy. The space
// reserved by the temporary block is used by the committed block.
func (mm *BlockMetadataManager) MoveBlockMeta(bm *BlockMeta, tm *TempBlockMeta) (*BlockMeta, error) {
	if bm.blockID != tm.blockID {
		return nil, status.Errorf(codes.InvalidArgument, "Cannot move block %d to temporary block %d", bm.blockID, tm.blockID)
	}
	if bm.blockSize > tm.blockSize {
		return nil, status.Errorf(codes.FailedPrecondition, "Block %d has size %d, which exceeds the %d bytes reserved at its destination", bm.blockID, bm.blockSize, tm.blockSize)
	}
	mm.removeTempBlockMeta(tm)
	bm.dir.removeBlockMeta(bm)
	newBM := &BlockMeta{
		blockID:   bm.blockID,
		blockSize: bm.blockSize,
		dir:       tm.dir,
	}
	tm.dir.addBlockMeta(newBM)
	mm.blocks[newBM.blockID] = newBM
	return newBM, nil
}

// TouchBlock marks a block as recently used.
func (mm *BlockMetadataManager) TouchBlock(bm *BlockMeta) {
	bm.dir.evictionSet.Touch(bm.blockID)
}

// GetSessionTempBlocks returns the temporary blocks owned by a session.
func (mm *BlockMetadataManager) GetSessionTempBlocks(sessionID SessionID) []*TempBlockMeta {
	sessionTempBlocks := mm.sessionTempBlocks[sessionID]
	tempBlocks := make([]*TempBlockMeta, 0, len(sessionTempBlocks))
	for _, tm := range sessionTempBlocks {
		tempBlocks = append(tempBlocks, tm)
	}
	sort.Slice(tempBlocks, func(i, j int) bool { return tempBlocks[i].blockID < tempBlocks[j].blockID })
	return tempBlocks
}

// RemoveDir removes a directory from its tier. The IDs of the
// committed blocks that were stored in the directory are returned.
// Temporary blocks stored in the directory are discarded.
func (mm *BlockMetadataManager) RemoveDir(dir *StorageDir) []BlockID {
	lostBlocks := sortedBlockIDs(dir.blocks)
	for _, blockID := range lostBlocks {
		mm.RemoveBlockMeta(dir.blocks[blockID])
	}
	for _, tm := range dir.tempBlocks {
		mm.removeTempBlockMeta(tm)
	}
	dir.tier.removeDir(dir)
	return lostBlocks
}

// GetCapacityBytes returns the total capacity of all directories.
func (mm *BlockMetadataManager) GetCapacityBytes() int64 {
	var total int64
	for _, tier := range mm.tiers {
		for _, dir := range tier.dirs {
			total += dir.capacityBytes
		}
	}
	return total
}

// GetUsedBytes returns the total amount of space used by committed
// blocks and reserved by temporary blocks.
func (mm *BlockMetadataManager) GetUsedBytes() int64 {
	var total int64
	for _, tier := range mm.tiers {
		for _, dir := range tier.dirs {
			total += dir.capacityBytes - dir.availableBytes
		}
	}
	return total
}

// GetCapacityBytesOnTiers returns the capacity of each tier.
func (mm *BlockMetadataManager) GetCapacityBytesOnTiers() map[string]int64 {
	capacities := make(map[string]int64, len(mm.tiers))
	for _, tier := range mm.tiers {
		var capacity int64
		for _, dir := range tier.dirs {
			capacity += dir.capacityBytes
		}
		capacities[tier.alias] = capacity
	}
	return capacities
}

// GetUsedBytesOnTiers returns the amount of space used in each tier.
func (mm *BlockMetadataManager) GetUsedBytesOnTiers() map[string]int64 {
	used := make(map[string]int64, len(mm.tiers))
	for _, tier := range mm.tiers {
		var u int64
		for _, dir := range tier.dirs {
			u += dir.capacityBytes - dir.availableBytes
		}
		used[tier.alias] = u
	}
	return used
}

// GetBlockStoreMeta returns a summary of the contents of the store.
// When full is set, the IDs of the blocks stored in each directory are
// included.
func (mm *BlockMetadataManager) GetBlockStoreMeta(full bool) BlockStoreMeta {
	meta := BlockStoreMeta{
		CapacityBytesOnTiers: mm.GetCapacityBytesOnTiers(),
		UsedBytesOnTiers:     mm.GetUsedBytesOnTiers(),
		LostStorage:          map[string][]string{},
		NumberOfBlocks:       len(mm.blocks),
		NumberOfTempBlocks:   len(mm.tempBlocks),
	}
	for _, tier := range mm.tiers {
		if len(tier.lostStorage) > 0 {
			meta.LostStorage[tier.alias] = append([]string(nil), tier.lostStorage...)
		}
		for _, dir := range tier.dirs {
			dirMeta := StorageDirMeta{
				Location:       dir.Location(),
				Path:           dir.path,
				CapacityBytes:  dir.capacityBytes,
				UsedBytes:      dir.capacityBytes - dir.availableBytes,
				CommittedBytes: dir.committedBytes,
				AvailableBytes: dir.availableBytes,
			}
			if full {
				dirMeta.BlockIDs = sortedBlockIDs(dir.blocks)
			}
			meta.Directories = append(meta.Directories, dirMeta)
		}
	}
	return meta
}
