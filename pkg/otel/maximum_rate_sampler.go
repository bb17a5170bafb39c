package otel

import (
	"sync"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/clock"

	sdk_trace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type maximumRateSampler struct {
	clock           clock.Clock
	samplesPerEpoch int
	epochDuration   time.Duration

	lock    sync.Mutex
	epoch   time.Time
	sampled int
}

// NewMaximumRateSampler creates an OpenTelemetry Sampler that samples
// at most a fixed number of traces within every epoch. Epochs are
// aligned to multiples of the epoch duration. Samples that were not
// taken in one epoch are not carried over to the next.
func NewMaximumRateSampler(clock clock.Clock, samplesPerEpoch int, epochDuration time.Duration) sdk_trace.Sampler {
	return &maximumRateSampler{
		clock:           clock,
		samplesPerEpoch: samplesPerEpoch,
		epochDuration:   epochDuration,
	}
}

func (s *maximumRateSampler) ShouldSample(p sdk_trace.SamplingParameters) sdk_trace.SamplingResult {
	epoch := s.clock.Now().Truncate(s.epochDuration)

	s.lock.Lock()
	if !epoch.Equal(s.epoch) {
		s.epoch = epoch
		s.sampled = 0
	}
	decision := sdk_trace.Drop
	if s.sampled < s.samplesPerEpoch {
		s.sampled++
		decision = sdk_trace.RecordAndSample
	}
	s.lock.Unlock()

	return sdk_trace.SamplingResult{
		Decision:   decision,
		Tracestate: trace.SpanContextFromContext(p.ParentContext).TraceState(),
	}
}

func (s *maximumRateSampler) Description() string {
	return "MaximumRateSampler"
}
