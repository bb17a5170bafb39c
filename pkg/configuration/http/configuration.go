// Package http contains the configuration of outgoing HTTP clients.
package http

// ClientConfiguration specifies how outgoing HTTP requests are made.
type ClientConfiguration struct {
	// URL of an HTTP proxy to route requests through.
	ProxyURL string `json:"proxyUrl,omitempty"`

	// Disable the use of HTTP/2.
	DisableHTTP2 bool `json:"disableHttp2,omitempty"`

	// Headers to add to every outgoing request.
	AddHeaders map[string][]string `json:"addHeaders,omitempty"`
}
