package blockworker

import (
	"context"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/master"
	"github.com/buildbarn/bb-blockworker/pkg/util"
)

type pinListSync struct {
	store        blockstore.BlockStore
	masterClient master.BlockMasterClient
}

// NewPinListSync creates a HeartbeatExecutor that periodically
// obtains the set of pinned files from the master. Blocks belonging to
// these files are not evicted from the local block store.
func NewPinListSync(store blockstore.BlockStore, masterClient master.BlockMasterClient) HeartbeatExecutor {
	return &pinListSync{
		store:        store,
		masterClient: masterClient,
	}
}

func (s *pinListSync) Heartbeat(ctx context.Context) error {
	pinnedInodes, err := s.masterClient.GetPinList(ctx)
	if err != nil {
		return util.StatusWrap(err, "Failed to synchronize pin list")
	}
	s.store.UpdatePinnedInodes(pinnedInodes)
	return nil
}
