package http

import (
	"net"
	"net/http"
	"net/url"
	"time"

	pb "github.com/buildbarn/bb-blockworker/pkg/configuration/http"
	"github.com/buildbarn/bb-blockworker/pkg/util"
)

// Client is an interface around Go's standard HTTP client type.
// It has been added to aid unit testing.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Client = &http.Client{}

// NewRoundTripperFromConfiguration makes a new HTTP RoundTripper on
// parameters provided in a configuration file.
func NewRoundTripperFromConfiguration(configuration *pb.ClientConfiguration) (http.RoundTripper, error) {
	if configuration == nil {
		configuration = &pb.ClientConfiguration{}
	}
	defaultTransport := http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: !configuration.DisableHTTP2,
	}
	if proxyURL := configuration.ProxyURL; proxyURL != "" {
		parsedProxyURL, err := url.Parse(proxyURL)
		if err != nil {
			return nil, util.StatusWrap(err, "Failed to parse proxy URL")
		}
		defaultTransport.Proxy = http.ProxyURL(parsedProxyURL)
	}
	var roundTripper http.RoundTripper = &defaultTransport

	if headerValues := configuration.AddHeaders; len(headerValues) > 0 {
		roundTripper = NewHeaderAddingRoundTripper(roundTripper, headerValues)
	}
	return roundTripper, nil
}
