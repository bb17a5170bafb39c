package master

import (
	"context"
	"log"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/clock"
	"github.com/buildbarn/bb-blockworker/pkg/random"
	"github.com/buildbarn/bb-blockworker/pkg/retry"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MasterInquireClient determines which of the configured masters is
// the primary.
type MasterInquireClient interface {
	GetPrimaryRPCAddress(ctx context.Context) (string, error)
	GetMasterRPCAddresses() []string
}

type pollingMasterInquireClient struct {
	addresses          []string
	prober             ServiceProber
	pollingTimeout     time.Duration
	retryPolicyFactory retry.PolicyFactory
	clock              clock.Clock
	randomGenerator    random.ThreadSafeGenerator
}

// NewPollingMasterInquireClient creates a MasterInquireClient that
// probes every master in turn, returning the first one that responds.
// If no master responds, the list is polled again as permitted by the
// retry policy.
//
// Probes failing with Unavailable, DeadlineExceeded or Canceled cause
// the next master to be probed. Any other error ends the current pass
// over the list, as it likely affects all masters equally.
//
// If randomGenerator is not nil, masters are probed in random order.
func NewPollingMasterInquireClient(addresses []string, prober ServiceProber, pollingTimeout time.Duration, retryPolicyFactory retry.PolicyFactory, clock clock.Clock, randomGenerator random.ThreadSafeGenerator) MasterInquireClient {
	return &pollingMasterInquireClient{
		addresses:          addresses,
		prober:             prober,
		pollingTimeout:     pollingTimeout,
		retryPolicyFactory: retryPolicyFactory,
		clock:              clock,
		randomGenerator:    randomGenerator,
	}
}

func (c *pollingMasterInquireClient) GetPrimaryRPCAddress(ctx context.Context) (string, error) {
	policy := c.retryPolicyFactory()
	for policy.Attempt(ctx) {
		if address, ok := c.pollAddresses(ctx); ok {
			return address, nil
		}
	}
	if err := util.StatusFromContext(ctx); err != nil {
		return "", util.StatusWrap(err, "Failed to determine primary master rpc address")
	}
	return "", status.Errorf(codes.Unavailable, "Failed to determine primary master rpc address after polling each of %v %d times", c.addresses, policy.AttemptCount())
}

func (c *pollingMasterInquireClient) pollAddresses(ctx context.Context) (string, bool) {
	addresses := c.addresses
	if c.randomGenerator != nil {
		addresses = append([]string(nil), c.addresses...)
		c.randomGenerator.Shuffle(len(addresses), func(i, j int) {
			addresses[i], addresses[j] = addresses[j], addresses[i]
		})
	}

	for _, address := range addresses {
		probeCtx, cancel := c.clock.NewContextWithTimeout(ctx, c.pollingTimeout)
		err := c.prober.Probe(probeCtx, address)
		cancel()
		if err == nil {
			return address, true
		}
		if !util.IsInfrastructureError(err) {
			log.Printf("Error while connecting to master %#v: %s", address, err)
			break
		}
	}
	return "", false
}

func (c *pollingMasterInquireClient) GetMasterRPCAddresses() []string {
	return c.addresses
}
