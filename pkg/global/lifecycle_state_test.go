package global

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pb "github.com/buildbarn/bb-blockworker/pkg/configuration/global"
	"github.com/buildbarn/bb-blockworker/pkg/program"
	"github.com/stretchr/testify/require"
)

func getStatusCode(ls *LifecycleState, path string) int {
	recorder := httptest.NewRecorder()
	ls.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder.Code
}

func TestLifecycleState(t *testing.T) {
	ls := newLifecycleState(&pb.DiagnosticsHTTPServerConfiguration{
		ListenAddress:    ":9980",
		EnablePrometheus: true,
	})

	t.Run("NotReady", func(t *testing.T) {
		require.Equal(t, http.StatusOK, getStatusCode(ls, "/-/healthy"))
		require.Equal(t, http.StatusServiceUnavailable, getStatusCode(ls, "/-/ready"))
		require.Equal(t, http.StatusOK, getStatusCode(ls, "/metrics"))
		require.Equal(t, http.StatusNotFound, getStatusCode(ls, "/debug/pprof/"))
	})

	t.Run("AdditionalHandler", func(t *testing.T) {
		require.Equal(t, http.StatusNotFound, getStatusCode(ls, "/store"))
		ls.Handle("/store", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		require.Equal(t, http.StatusTeapot, getStatusCode(ls, "/store"))
	})

	t.Run("ReadyUntilShutdown", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, program.RunLocal(ctx, func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
			ls.MarkReadyAndWait(siblingsGroup)
			require.Equal(t, http.StatusOK, getStatusCode(ls, "/-/ready"))
			cancel()
			return nil
		}))
		require.Equal(t, http.StatusServiceUnavailable, getStatusCode(ls, "/-/ready"))
	})
}
