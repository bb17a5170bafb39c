package otel_test

import (
	"testing"
	"time"

	"github.com/buildbarn/bb-blockworker/internal/mock"
	"github.com/buildbarn/bb-blockworker/pkg/otel"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/sdk/trace"

	"go.uber.org/mock/gomock"
)

func TestMaximumRateSampler(t *testing.T) {
	ctrl := gomock.NewController(t)

	clock := mock.NewMockClock(ctrl)
	sampler := otel.NewMaximumRateSampler(clock, 2, time.Second)
	shouldSample := func(now time.Time) trace.SamplingDecision {
		clock.EXPECT().Now().Return(now)
		return sampler.ShouldSample(trace.SamplingParameters{}).Decision
	}

	t.Run("FirstEpoch", func(t *testing.T) {
		require.Equal(t, trace.RecordAndSample, shouldSample(time.Unix(1000, 100000000)))
		require.Equal(t, trace.RecordAndSample, shouldSample(time.Unix(1000, 200000000)))
		require.Equal(t, trace.Drop, shouldSample(time.Unix(1000, 500000000)))
		require.Equal(t, trace.Drop, shouldSample(time.Unix(1000, 999999999)))
	})

	t.Run("NextEpoch", func(t *testing.T) {
		require.Equal(t, trace.RecordAndSample, shouldSample(time.Unix(1001, 0)))
		require.Equal(t, trace.RecordAndSample, shouldSample(time.Unix(1001, 0)))
		require.Equal(t, trace.Drop, shouldSample(time.Unix(1001, 100000000)))
	})

	t.Run("NoCompensationForIdleEpochs", func(t *testing.T) {
		require.Equal(t, trace.RecordAndSample, shouldSample(time.Unix(1007, 0)))
		require.Equal(t, trace.RecordAndSample, shouldSample(time.Unix(1007, 200000000)))
		require.Equal(t, trace.Drop, shouldSample(time.Unix(1007, 300000000)))
	})
}
