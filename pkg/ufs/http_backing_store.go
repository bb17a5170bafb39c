package ufs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	bb_http "github.com/buildbarn/bb-blockworker/pkg/http"
	"github.com/buildbarn/bb-blockworker/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type httpBackingStore struct {
	client  bb_http.Client
	baseURL *url.URL
}

// NewHTTPBackingStore creates a BackingStore that fetches files from a
// web server, using HTTP range requests.
func NewHTTPBackingStore(client bb_http.Client, baseURL *url.URL) BackingStore {
	return &httpBackingStore{
		client:  client,
		baseURL: baseURL,
	}
}

func (bs *httpBackingStore) OpenRange(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	if offset < 0 || length < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "Invalid range [%d, %d)", offset, offset+length)
	}
	if length == 0 {
		return io.NopCloser(eofReader{}), nil
	}
	u := bs.baseURL.JoinPath(strings.TrimPrefix(path, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, util.StatusWrapWithCode(err, codes.Internal, "Failed to create HTTP request")
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
	resp, err := bs.client.Do(req)
	if err != nil {
		if ctxErr := util.StatusFromContext(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, util.StatusWrapfWithCode(err, codes.Unavailable, "Failed to fetch %#v", u.String())
	}
	switch resp.StatusCode {
	case http.StatusPartialContent:
		return resp.Body, nil
	case http.StatusOK:
		// The server ignored the Range header. Skip the leading
		// part of the response body.
		if _, err := io.CopyN(io.Discard, resp.Body, offset); err != nil {
			resp.Body.Close()
			if err == io.EOF {
				return io.NopCloser(eofReader{}), nil
			}
			return nil, util.StatusWrapfWithCode(err, codes.Unavailable, "Failed to skip to offset %d of %#v", offset, u.String())
		}
		return struct {
			io.Reader
			io.Closer
		}{
			Reader: io.LimitReader(resp.Body, length),
			Closer: resp.Body,
		}, nil
	case http.StatusRequestedRangeNotSatisfiable:
		resp.Body.Close()
		return io.NopCloser(eofReader{}), nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, status.Errorf(codes.NotFound, "File %#v does not exist", path)
	default:
		resp.Body.Close()
		return nil, status.Errorf(codes.Unavailable, "Fetching %#v failed with HTTP status %#v", u.String(), resp.Status)
	}
}
