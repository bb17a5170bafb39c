package blockworker

import (
	"context"
	"log"
	"slices"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/master"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func blockIDsToInt64s(blockIDs []blockstore.BlockID) []int64 {
	if len(blockIDs) == 0 {
		return nil
	}
	l := make([]int64, 0, len(blockIDs))
	for _, blockID := range blockIDs {
		l = append(l, int64(blockID))
	}
	return l
}

// BlockMasterSync is a HeartbeatExecutor that keeps the master
// informed about the contents of the local block store. It registers
// the worker with the master, after which it periodically sends the
// changes reported by a BlockHeartbeatReporter. Commands returned by
// the master are executed.
//
// Heartbeat() must not be called concurrently.
type BlockMasterSync struct {
	store         blockstore.BlockStore
	reporter      *BlockHeartbeatReporter
	masterClient  master.BlockMasterClient
	address       master.WorkerNetAddress
	uuidGenerator util.UUIDGenerator

	workerID   int64
	registered bool
}

// NewBlockMasterSync creates a BlockMasterSync. The
// BlockHeartbeatReporter must be registered as an event listener of
// the block store.
func NewBlockMasterSync(store blockstore.BlockStore, reporter *BlockHeartbeatReporter, masterClient master.BlockMasterClient, address master.WorkerNetAddress, uuidGenerator util.UUIDGenerator) *BlockMasterSync {
	return &BlockMasterSync{
		store:         store,
		reporter:      reporter,
		masterClient:  masterClient,
		address:       address,
		uuidGenerator: uuidGenerator,
	}
}

// WorkerID returns the ID that the master assigned to this worker, or
// zero if no ID has been obtained yet.
func (s *BlockMasterSync) WorkerID() int64 {
	return s.workerID
}

// register announces the full contents of the block store to the
// master. Changes that were recorded prior to registering are
// discarded, as they are part of the full block list.
func (s *BlockMasterSync) register(ctx context.Context) error {
	if s.workerID == 0 {
		workerID, err := s.masterClient.GetWorkerID(ctx, s.address)
		if err != nil {
			return err
		}
		s.workerID = workerID
	}
	registrationID, err := s.uuidGenerator()
	if err != nil {
		return util.StatusWrapWithCode(err, codes.Internal, "Failed to generate registration ID")
	}

	pending := s.reporter.GenerateReport()
	meta := s.store.GetBlockStoreMetaFull()
	request := &master.RegisterWorkerRequest{
		WorkerID:             s.workerID,
		RegistrationID:       registrationID.String(),
		CapacityBytesOnTiers: meta.CapacityBytesOnTiers,
		UsedBytesOnTiers:     meta.UsedBytesOnTiers,
		CurrentBlocksOnTiers: map[string][]int64{},
		LostStorage:          meta.LostStorage,
	}
	for _, dir := range meta.Directories {
		tierAlias := dir.Location.TierAlias
		if !slices.Contains(request.StorageTiers, tierAlias) {
			request.StorageTiers = append(request.StorageTiers, tierAlias)
		}
		request.CurrentBlocksOnTiers[tierAlias] = append(request.CurrentBlocksOnTiers[tierAlias], blockIDsToInt64s(dir.BlockIDs)...)
	}
	for _, blockIDs := range request.CurrentBlocksOnTiers {
		slices.Sort(blockIDs)
	}

	if err := s.masterClient.RegisterWorker(ctx, request); err != nil {
		s.reporter.MergeBack(pending)
		return err
	}
	log.Printf("Registered as worker %d with %d blocks", s.workerID, meta.NumberOfBlocks)
	s.registered = true
	return nil
}

// Heartbeat registers the worker if needed, and reports the changes to
// the block store since the last successful heartbeat. Changes are
// retained if the heartbeat could not be delivered.
func (s *BlockMasterSync) Heartbeat(ctx context.Context) error {
	if !s.registered {
		if err := s.register(ctx); err != nil {
			return util.StatusWrap(err, "Failed to register with master")
		}
	}

	report := s.reporter.GenerateReport()
	meta := s.store.GetBlockStoreMeta()
	request := &master.HeartbeatRequest{
		WorkerID:         s.workerID,
		UsedBytesOnTiers: meta.UsedBytesOnTiers,
		RemovedBlocks:    blockIDsToInt64s(report.RemovedBlocks),
	}
	if len(report.LostStorage) > 0 {
		request.LostStorage = report.LostStorage
	}
	if len(report.AddedBlocks) > 0 {
		request.AddedBlocks = make(map[string][]int64, len(report.AddedBlocks))
		for tierAlias, blockIDs := range report.AddedBlocks {
			request.AddedBlocks[tierAlias] = blockIDsToInt64s(blockIDs)
		}
	}
	command, err := s.masterClient.Heartbeat(ctx, request)
	if err != nil {
		s.reporter.MergeBack(report)
		return err
	}
	return s.handleCommand(ctx, command)
}

func (s *BlockMasterSync) handleCommand(ctx context.Context, command *master.Command) error {
	switch command.Type {
	case master.CommandNothing:
		return nil
	case master.CommandRegister:
		log.Printf("Master requested worker %d to register again", s.workerID)
		// The master may have lost track of the worker entirely,
		// so a new worker ID is obtained.
		s.registered = false
		s.workerID = 0
		if err := s.register(ctx); err != nil {
			return util.StatusWrap(err, "Failed to register with master")
		}
		return nil
	case master.CommandFree:
		for _, blockID := range command.BlockIDs {
			if err := s.store.RemoveBlock(ctx, blockstore.MaintenanceSessionID, blockstore.BlockID(blockID)); err != nil && status.Code(err) != codes.NotFound {
				log.Printf("Failed to free block %d: %s", blockID, err)
			}
		}
		return nil
	default:
		return status.Errorf(codes.InvalidArgument, "Master sent command of unknown type %#v", command.Type)
	}
}
