// Package global contains configuration options that apply to the
// process as a whole, such as logging, tracing and the diagnostics web
// server.
package global

import (
	"github.com/buildbarn/bb-blockworker/pkg/configuration/grpc"
	"github.com/buildbarn/bb-blockworker/pkg/util"
)

// DiagnosticsHTTPServerConfiguration describes the web server that
// exposes health checks, metrics and profiling endpoints.
type DiagnosticsHTTPServerConfiguration struct {
	ListenAddress string `json:"listenAddress"`

	// Expose Prometheus metrics on /metrics.
	EnablePrometheus bool `json:"enablePrometheus,omitempty"`

	// Expose Go profiling data on /debug/pprof/.
	EnablePprof bool `json:"enablePprof,omitempty"`
}

// MaximumRateSamplerConfiguration limits the number of traces that
// are sampled per epoch.
type MaximumRateSamplerConfiguration struct {
	SamplesPerEpoch int            `json:"samplesPerEpoch"`
	EpochDuration   *util.Duration `json:"epochDuration"`
}

// ParentBasedSamplerConfiguration uses the sampling decision of the
// parent span if one is present.
type ParentBasedSamplerConfiguration struct {
	NoParent               *SamplerConfiguration `json:"noParent"`
	LocalParentNotSampled  *SamplerConfiguration `json:"localParentNotSampled"`
	LocalParentSampled     *SamplerConfiguration `json:"localParentSampled"`
	RemoteParentNotSampled *SamplerConfiguration `json:"remoteParentNotSampled"`
	RemoteParentSampled    *SamplerConfiguration `json:"remoteParentSampled"`
}

// SamplerConfiguration is the policy for deciding which traces are
// sampled. Exactly one of the fields needs to be set.
type SamplerConfiguration struct {
	Always            bool                             `json:"always,omitempty"`
	Never             bool                             `json:"never,omitempty"`
	ParentBased       *ParentBasedSamplerConfiguration `json:"parentBased,omitempty"`
	TraceIDRatioBased *float64                         `json:"traceIdRatioBased,omitempty"`
	MaximumRate       *MaximumRateSamplerConfiguration `json:"maximumRate,omitempty"`
}

// BatchSpanProcessorConfiguration contains the options of the
// OpenTelemetry batch span processor.
type BatchSpanProcessorConfiguration struct {
	BatchTimeout       *util.Duration `json:"batchTimeout,omitempty"`
	ExportTimeout      *util.Duration `json:"exportTimeout,omitempty"`
	MaxExportBatchSize int            `json:"maxExportBatchSize,omitempty"`
	MaxQueueSize       int            `json:"maxQueueSize,omitempty"`
	Blocking           bool           `json:"blocking,omitempty"`
}

// TracingBackendConfiguration describes where spans are sent. Exactly
// one span exporter needs to be set. Spans are batched, unless
// simpleSpanProcessor is set.
type TracingBackendConfiguration struct {
	// Send spans to an OpenTelemetry collector using OTLP over
	// gRPC.
	OTLPSpanExporter *grpc.ClientConfiguration `json:"otlpSpanExporter,omitempty"`

	// Write spans to the log. This is only intended for debugging.
	StderrSpanExporter bool `json:"stderrSpanExporter,omitempty"`

	SimpleSpanProcessor bool                             `json:"simpleSpanProcessor,omitempty"`
	BatchSpanProcessor  *BatchSpanProcessorConfiguration `json:"batchSpanProcessor,omitempty"`
}

// TracingConfiguration enables OpenTelemetry tracing.
type TracingConfiguration struct {
	Backends []TracingBackendConfiguration `json:"backends"`

	// Attributes that identify this process, such as
	// "service.name".
	ResourceAttributes map[string]string `json:"resourceAttributes,omitempty"`

	Sampler *SamplerConfiguration `json:"sampler"`
}

// ResourceLimitConfiguration is a pair of limits that is applied
// using setrlimit(2). Limits that are not set are infinite.
type ResourceLimitConfiguration struct {
	SoftLimit *uint64 `json:"softLimit,omitempty"`
	HardLimit *uint64 `json:"hardLimit,omitempty"`
}

// Configuration contains the options that are shared by all
// Buildbarn binaries.
type Configuration struct {
	// Files to which log messages are written, in addition to
	// standard error.
	LogPaths []string `json:"logPaths,omitempty"`

	DiagnosticsHTTPServer *DiagnosticsHTTPServerConfiguration `json:"diagnosticsHttpServer,omitempty"`

	Tracing *TracingConfiguration `json:"tracing,omitempty"`

	// Umask to set at startup, such as 0o022.
	SetUmask *uint32 `json:"setUmask,omitempty"`

	// Resource limits to apply, keyed by name without the
	// "RLIMIT_" prefix (e.g., "NOFILE").
	SetResourceLimits map[string]ResourceLimitConfiguration `json:"setResourceLimits,omitempty"`

	// Passed to runtime.SetMutexProfileFraction().
	MutexProfileFraction int `json:"mutexProfileFraction,omitempty"`
}
