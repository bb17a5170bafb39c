package master

import (
	"context"
	"sync"

	configuration "github.com/buildbarn/bb-blockworker/pkg/configuration/grpc"
	bb_grpc "github.com/buildbarn/bb-blockworker/pkg/grpc"
	"github.com/buildbarn/bb-blockworker/pkg/util"
)

type failoverBlockMasterClient struct {
	inquireClient MasterInquireClient
	clientFactory bb_grpc.ClientFactory
	template      configuration.ClientConfiguration

	lock    sync.Mutex
	current BlockMasterClient
}

// NewFailoverBlockMasterClient creates a BlockMasterClient that sends
// requests to the primary master, as determined by a
// MasterInquireClient. The primary master is determined once, and
// again after a request fails with an infrastructure error.
func NewFailoverBlockMasterClient(inquireClient MasterInquireClient, clientFactory bb_grpc.ClientFactory, template *configuration.ClientConfiguration) BlockMasterClient {
	c := &failoverBlockMasterClient{
		inquireClient: inquireClient,
		clientFactory: clientFactory,
	}
	if template != nil {
		c.template = *template
	}
	return c
}

func (c *failoverBlockMasterClient) getClient(ctx context.Context) (BlockMasterClient, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.current != nil {
		return c.current, nil
	}
	address, err := c.inquireClient.GetPrimaryRPCAddress(ctx)
	if err != nil {
		return nil, err
	}
	clientConfiguration := c.template
	clientConfiguration.Address = address
	conn, err := c.clientFactory.NewClientFromConfiguration(&clientConfiguration)
	if err != nil {
		return nil, util.StatusWrapf(err, "Failed to create client for master %#v", address)
	}
	c.current = NewGRPCBlockMasterClient(conn)
	return c.current, nil
}

func (c *failoverBlockMasterClient) handleError(client BlockMasterClient, err error) error {
	if util.IsInfrastructureError(err) {
		c.lock.Lock()
		if c.current == client {
			c.current = nil
		}
		c.lock.Unlock()
	}
	return err
}

func (c *failoverBlockMasterClient) GetWorkerID(ctx context.Context, address WorkerNetAddress) (int64, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return 0, err
	}
	workerID, err := client.GetWorkerID(ctx, address)
	return workerID, c.handleError(client, err)
}

func (c *failoverBlockMasterClient) RegisterWorker(ctx context.Context, request *RegisterWorkerRequest) error {
	client, err := c.getClient(ctx)
	if err != nil {
		return err
	}
	return c.handleError(client, client.RegisterWorker(ctx, request))
}

func (c *failoverBlockMasterClient) Heartbeat(ctx context.Context, request *HeartbeatRequest) (*Command, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}
	command, err := client.Heartbeat(ctx, request)
	return command, c.handleError(client, err)
}

func (c *failoverBlockMasterClient) CommitBlockInUFS(ctx context.Context, blockID, length int64) error {
	client, err := c.getClient(ctx)
	if err != nil {
		return err
	}
	return c.handleError(client, client.CommitBlockInUFS(ctx, blockID, length))
}

func (c *failoverBlockMasterClient) GetPinList(ctx context.Context) ([]int64, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}
	pinnedInodes, err := client.GetPinList(ctx)
	return pinnedInodes, c.handleError(client, err)
}
