package ufs

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MountTable maps the mount IDs that are part of block read options to
// the backing store that holds the data.
type MountTable struct {
	backingStores map[string]BackingStore
}

// NewMountTable creates a MountTable that contains a fixed set of
// backing stores.
func NewMountTable(backingStores map[string]BackingStore) *MountTable {
	return &MountTable{
		backingStores: backingStores,
	}
}

// Get the backing store corresponding to a mount ID.
func (mt *MountTable) Get(mountID string) (BackingStore, error) {
	bs, ok := mt.backingStores[mountID]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "Backing store %#v does not exist", mountID)
	}
	return bs, nil
}
