// Package retry provides policies that decide whether an operation is
// attempted (again) after it failed.
package retry

import (
	"context"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/clock"
	pb "github.com/buildbarn/bb-blockworker/pkg/configuration/master"
)

// Policy decides whether an operation should be attempted. A Policy
// tracks the number of attempts made, meaning a new instance needs to
// be created for every operation. Policies are not safe for
// concurrent use.
type Policy interface {
	// Attempt returns true if the operation should be attempted.
	// It may block to back off. It returns false once the
	// maximum number of attempts has been reached, or if the
	// context is cancelled while backing off.
	Attempt(ctx context.Context) bool
	// AttemptCount returns the number of attempts granted so far.
	AttemptCount() int
}

// PolicyFactory creates a fresh Policy for every operation.
type PolicyFactory func() Policy

type countingPolicy struct {
	maximumAttempts int
	attempts        int
}

// NewCountingPolicy creates a Policy that permits a fixed number of
// attempts without any delay in between.
func NewCountingPolicy(maximumAttempts int) Policy {
	return &countingPolicy{
		maximumAttempts: maximumAttempts,
	}
}

func (p *countingPolicy) Attempt(ctx context.Context) bool {
	if p.attempts >= p.maximumAttempts || ctx.Err() != nil {
		return false
	}
	p.attempts++
	return true
}

func (p *countingPolicy) AttemptCount() int {
	return p.attempts
}

type exponentialBackoffPolicy struct {
	clock           clock.Clock
	maximumAttempts int
	maximumBackoff  time.Duration

	attempts    int
	nextBackoff time.Duration
}

// NewExponentialBackoffPolicy creates a Policy that permits a fixed
// number of attempts. The first attempt is granted immediately.
// Subsequent attempts are delayed, starting at initialBackoff and
// doubling up to maximumBackoff.
func NewExponentialBackoffPolicy(clock clock.Clock, maximumAttempts int, initialBackoff, maximumBackoff time.Duration) Policy {
	return &exponentialBackoffPolicy{
		clock:           clock,
		maximumAttempts: maximumAttempts,
		maximumBackoff:  maximumBackoff,
		nextBackoff:     initialBackoff,
	}
}

func (p *exponentialBackoffPolicy) Attempt(ctx context.Context) bool {
	if p.attempts >= p.maximumAttempts || ctx.Err() != nil {
		return false
	}
	if p.attempts > 0 {
		timer, t := p.clock.NewTimer(p.nextBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-t:
		}
		p.nextBackoff = min(2*p.nextBackoff, p.maximumBackoff)
	}
	p.attempts++
	return true
}

func (p *exponentialBackoffPolicy) AttemptCount() int {
	return p.attempts
}

// NewPolicyFactoryFromConfiguration creates a PolicyFactory based on
// options provided in a configuration file. Backoff is only applied
// if an initial backoff is configured.
func NewPolicyFactoryFromConfiguration(configuration *pb.RetryConfiguration, clock clock.Clock) PolicyFactory {
	maximumAttempts := 5
	if configuration == nil {
		return func() Policy {
			return NewExponentialBackoffPolicy(clock, maximumAttempts, 50*time.Millisecond, 3*time.Second)
		}
	}
	if configuration.MaximumAttempts > 0 {
		maximumAttempts = configuration.MaximumAttempts
	}
	if configuration.InitialBackoff == nil {
		return func() Policy {
			return NewCountingPolicy(maximumAttempts)
		}
	}
	initialBackoff := configuration.InitialBackoff.AsDuration(0)
	maximumBackoff := configuration.MaximumBackoff.AsDuration(3 * time.Second)
	return func() Policy {
		return NewExponentialBackoffPolicy(clock, maximumAttempts, initialBackoff, maximumBackoff)
	}
}
