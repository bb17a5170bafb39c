package blockworker

import (
	"context"
	"log"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
)

type storageChecker struct {
	store blockstore.BlockStore
}

// NewStorageChecker creates a HeartbeatExecutor that periodically
// removes storage directories that are no longer accessible from the
// block store. Blocks stored in these directories are reported as
// lost through the block store's event listeners.
func NewStorageChecker(store blockstore.BlockStore) HeartbeatExecutor {
	return &storageChecker{
		store: store,
	}
}

func (sc *storageChecker) Heartbeat(ctx context.Context) error {
	lostPaths, err := sc.store.RemoveInaccessibleStorage()
	for _, path := range lostPaths {
		log.Printf("Storage directory %#v is no longer accessible, and has been removed", path)
	}
	return err
}
