package program_test

import (
	"context"
	"testing"

	"github.com/buildbarn/bb-blockworker/pkg/program"
	"github.com/buildbarn/bb-blockworker/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRunLocal(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		require.NoError(t, program.RunLocal(context.Background(), func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
			return nil
		}))
	})

	t.Run("FirstErrorIsReturned", func(t *testing.T) {
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.Internal, "Heartbeat failed"),
			program.RunLocal(context.Background(), func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
				siblingsGroup.Go(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
					// Siblings are canceled when one of
					// them fails.
					<-ctx.Done()
					return status.Error(codes.Canceled, "Sibling canceled")
				})
				return status.Error(codes.Internal, "Heartbeat failed")
			}))
	})

	t.Run("DependenciesTerminateLast", func(t *testing.T) {
		var events []string
		dependencyStarted := make(chan struct{})
		siblingDone := make(chan struct{})
		require.NoError(t, program.RunLocal(context.Background(), func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
			dependenciesGroup.Go(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
				close(dependencyStarted)
				<-ctx.Done()
				<-siblingDone
				events = append(events, "dependency")
				return nil
			})
			<-dependencyStarted
			events = append(events, "sibling")
			close(siblingDone)
			return nil
		}))
		require.Equal(t, []string{"sibling", "dependency"}, events)
	})
}
