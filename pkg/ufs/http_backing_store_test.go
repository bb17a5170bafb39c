package ufs_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/ufs"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHTTPBackingStore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/data", func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "data", time.Unix(0, 0), strings.NewReader("0123456789"))
	})
	mux.HandleFunc("/files/norange", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	})
	mux.HandleFunc("/files/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Oops", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	baseURL, err := url.Parse(server.URL + "/files/")
	require.NoError(t, err)
	backingStore := ufs.NewHTTPBackingStore(server.Client(), baseURL)

	t.Run("PartialContent", func(t *testing.T) {
		r, err := backingStore.OpenRange(context.Background(), "data", 3, 4)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, []byte("3456"), data)
		require.NoError(t, r.Close())
	})

	t.Run("RangeIgnored", func(t *testing.T) {
		r, err := backingStore.OpenRange(context.Background(), "norange", 3, 4)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, []byte("3456"), data)
		require.NoError(t, r.Close())
	})

	t.Run("PastEnd", func(t *testing.T) {
		r, err := backingStore.OpenRange(context.Background(), "data", 20, 4)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Empty(t, data)
		require.NoError(t, r.Close())
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := backingStore.OpenRange(context.Background(), "nonexistent", 0, 4)
		require.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("ServerError", func(t *testing.T) {
		_, err := backingStore.OpenRange(context.Background(), "broken", 0, 4)
		require.Equal(t, codes.Unavailable, status.Code(err))
	})
}
