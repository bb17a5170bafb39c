package global

import (
	"testing"

	pb "github.com/buildbarn/bb-blockworker/pkg/configuration/global"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"github.com/buildbarn/bb-blockworker/pkg/util"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewSamplerFromConfiguration(t *testing.T) {
	t.Run("NoConfiguration", func(t *testing.T) {
		_, err := newSamplerFromConfiguration(nil)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "No configuration provided"), err)
	})

	t.Run("Always", func(t *testing.T) {
		sampler, err := newSamplerFromConfiguration(&pb.SamplerConfiguration{Always: true})
		require.NoError(t, err)
		require.Equal(t, sdktrace.RecordAndSample, sampler.ShouldSample(sdktrace.SamplingParameters{}).Decision)
	})

	t.Run("Never", func(t *testing.T) {
		sampler, err := newSamplerFromConfiguration(&pb.SamplerConfiguration{Never: true})
		require.NoError(t, err)
		require.Equal(t, sdktrace.Drop, sampler.ShouldSample(sdktrace.SamplingParameters{}).Decision)
	})

	t.Run("ParentBasedMissingPolicy", func(t *testing.T) {
		_, err := newSamplerFromConfiguration(&pb.SamplerConfiguration{
			ParentBased: &pb.ParentBasedSamplerConfiguration{
				NoParent:              &pb.SamplerConfiguration{Always: true},
				LocalParentNotSampled: &pb.SamplerConfiguration{Never: true},
			},
		})
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Local parent sampled: No configuration provided"), err)
	})

	t.Run("MaximumRateWithoutEpoch", func(t *testing.T) {
		_, err := newSamplerFromConfiguration(&pb.SamplerConfiguration{
			MaximumRate: &pb.MaximumRateSamplerConfiguration{SamplesPerEpoch: 10},
		})
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Maximum rate sampler epoch duration must be positive"), err)
	})

	t.Run("MaximumRate", func(t *testing.T) {
		epochDuration := util.Duration(1e9)
		sampler, err := newSamplerFromConfiguration(&pb.SamplerConfiguration{
			MaximumRate: &pb.MaximumRateSamplerConfiguration{
				SamplesPerEpoch: 1,
				EpochDuration:   &epochDuration,
			},
		})
		require.NoError(t, err)
		require.Equal(t, "MaximumRateSampler", sampler.Description())
	})
}
