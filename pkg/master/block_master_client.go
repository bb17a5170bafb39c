package master

import (
	"context"

	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc"
)

// ServiceName is the name of the gRPC service that block workers use
// to communicate with the master.
const ServiceName = "buildbarn.blockmaster.BlockMasterWorkerService"

// WorkerNetAddress contains the network addresses at which a block
// worker can be reached, and where it is located.
type WorkerNetAddress struct {
	Host    string `json:"host"`
	RPCPort int    `json:"rpcPort"`
	WebPort int    `json:"webPort,omitempty"`
	// Locality of the worker, such as {"rack": "rack1"}.
	Locality map[string]string `json:"locality,omitempty"`
}

// RegisterWorkerRequest announces the full contents of a block worker
// to the master.
type RegisterWorkerRequest struct {
	WorkerID int64 `json:"workerId"`
	// Random token that changes every time the worker registers.
	RegistrationID       string              `json:"registrationId"`
	StorageTiers         []string            `json:"storageTiers"`
	CapacityBytesOnTiers map[string]int64    `json:"capacityBytesOnTiers"`
	UsedBytesOnTiers     map[string]int64    `json:"usedBytesOnTiers"`
	CurrentBlocksOnTiers map[string][]int64  `json:"currentBlocksOnTiers"`
	LostStorage          map[string][]string `json:"lostStorage,omitempty"`
}

// HeartbeatRequest reports the changes to the contents of a block
// worker since the previous heartbeat.
type HeartbeatRequest struct {
	WorkerID         int64               `json:"workerId"`
	UsedBytesOnTiers map[string]int64    `json:"usedBytesOnTiers"`
	AddedBlocks      map[string][]int64  `json:"addedBlocks,omitempty"`
	RemovedBlocks    []int64             `json:"removedBlocks,omitempty"`
	LostStorage      map[string][]string `json:"lostStorage,omitempty"`
}

// CommandType is the kind of action the master requests a block
// worker to perform in response to a heartbeat.
type CommandType string

const (
	// CommandNothing requires no action.
	CommandNothing CommandType = "Nothing"
	// CommandRegister requests the worker to register again, as
	// the master has lost track of it.
	CommandRegister CommandType = "Register"
	// CommandFree requests the worker to remove the blocks listed
	// in the command.
	CommandFree CommandType = "Free"
)

// Command that is returned by the master in response to a heartbeat.
type Command struct {
	Type     CommandType `json:"type"`
	BlockIDs []int64     `json:"blockIds,omitempty"`
}

type getWorkerIDRequest struct {
	Address WorkerNetAddress `json:"address"`
}

type getWorkerIDResponse struct {
	WorkerID int64 `json:"workerId"`
}

type commitBlockInUFSRequest struct {
	BlockID int64 `json:"blockId"`
	Length  int64 `json:"length"`
}

type getPinListRequest struct{}

type getPinListResponse struct {
	PinnedInodes []int64 `json:"pinnedInodes"`
}

type emptyResponse struct{}

// BlockMasterClient is used by block workers to report their state to
// the master.
type BlockMasterClient interface {
	// GetWorkerID obtains the ID of the worker at a given address.
	GetWorkerID(ctx context.Context, address WorkerNetAddress) (int64, error)
	RegisterWorker(ctx context.Context, request *RegisterWorkerRequest) error
	Heartbeat(ctx context.Context, request *HeartbeatRequest) (*Command, error)
	// CommitBlockInUFS informs the master that a block has been
	// written to the backing store without being cached locally.
	CommitBlockInUFS(ctx context.Context, blockID, length int64) error
	// GetPinList returns the IDs of the files whose blocks may not
	// be evicted.
	GetPinList(ctx context.Context) ([]int64, error)
}

type grpcBlockMasterClient struct {
	client grpc.ClientConnInterface
}

// NewGRPCBlockMasterClient creates a BlockMasterClient that sends
// requests over a gRPC client connection. Messages are encoded as
// JSON.
func NewGRPCBlockMasterClient(client grpc.ClientConnInterface) BlockMasterClient {
	return &grpcBlockMasterClient{
		client: client,
	}
}

func (c *grpcBlockMasterClient) invoke(ctx context.Context, method string, request, response any) error {
	return c.client.Invoke(ctx, "/"+ServiceName+"/"+method, request, response, grpc.ForceCodec(cborCodec{}))
}

func (c *grpcBlockMasterClient) GetWorkerID(ctx context.Context, address WorkerNetAddress) (int64, error) {
	var response getWorkerIDResponse
	if err := c.invoke(ctx, "GetWorkerId", &getWorkerIDRequest{Address: address}, &response); err != nil {
		return 0, util.StatusWrap(err, "Failed to obtain worker ID")
	}
	return response.WorkerID, nil
}

func (c *grpcBlockMasterClient) RegisterWorker(ctx context.Context, request *RegisterWorkerRequest) error {
	if err := c.invoke(ctx, "RegisterWorker", request, &emptyResponse{}); err != nil {
		return util.StatusWrapf(err, "Failed to register worker %d", request.WorkerID)
	}
	return nil
}

func (c *grpcBlockMasterClient) Heartbeat(ctx context.Context, request *HeartbeatRequest) (*Command, error) {
	var command Command
	if err := c.invoke(ctx, "Heartbeat", request, &command); err != nil {
		return nil, util.StatusWrapf(err, "Failed to send heartbeat of worker %d", request.WorkerID)
	}
	if command.Type == "" {
		command.Type = CommandNothing
	}
	return &command, nil
}

func (c *grpcBlockMasterClient) CommitBlockInUFS(ctx context.Context, blockID, length int64) error {
	if err := c.invoke(ctx, "CommitBlockInUfs", &commitBlockInUFSRequest{BlockID: blockID, Length: length}, &emptyResponse{}); err != nil {
		return util.StatusWrapf(err, "Failed to commit block %d in the backing store", blockID)
	}
	return nil
}

func (c *grpcBlockMasterClient) GetPinList(ctx context.Context) ([]int64, error) {
	var response getPinListResponse
	if err := c.invoke(ctx, "GetPinList", &getPinListRequest{}, &response); err != nil {
		return nil, util.StatusWrap(err, "Failed to obtain pin list")
	}
	return response.PinnedInodes, nil
}
