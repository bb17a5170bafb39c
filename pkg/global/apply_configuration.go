package global

import (
	"context"
	"io"
	"log"
	"net/http"

	// The pprof package does not provide a function for registering
	// its endpoints against an arbitrary mux. Load it to force
	// registration against the default mux, so we can forward
	// traffic to that mux instead.
	_ "net/http/pprof"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/buildbarn/bb-blockworker/pkg/clock"
	pb "github.com/buildbarn/bb-blockworker/pkg/configuration/global"
	bb_grpc "github.com/buildbarn/bb-blockworker/pkg/grpc"
	bb_otel "github.com/buildbarn/bb-blockworker/pkg/otel"
	"github.com/buildbarn/bb-blockworker/pkg/program"
	"github.com/buildbarn/bb-blockworker/pkg/util"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LifecycleState is returned by ApplyConfiguration. It can be used by
// the caller to report whether the application has started up
// successfully.
type LifecycleState struct {
	ready atomic.Bool

	lock   sync.RWMutex
	router *mux.Router
}

func (ls *LifecycleState) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ls.lock.RLock()
	defer ls.lock.RUnlock()
	ls.router.ServeHTTP(w, r)
}

// Handle registers an additional endpoint on the diagnostics web
// server. Registration is permitted while the server is running.
func (ls *LifecycleState) Handle(path string, handler http.Handler) {
	ls.lock.Lock()
	defer ls.lock.Unlock()
	ls.router.Handle(path, handler)
}

func (ls *LifecycleState) handleReady(w http.ResponseWriter, r *http.Request) {
	if !ls.ready.Load() {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	}
}

// MarkReadyAndWait can be called to report that the program has
// started successfully. The application is reported as being ready
// until the routines in the group are requested to terminate.
func (ls *LifecycleState) MarkReadyAndWait(group program.Group) {
	ls.ready.Store(true)
	group.Go(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
		<-ctx.Done()
		ls.ready.Store(false)
		return nil
	})
}

func newLifecycleState(configuration *pb.DiagnosticsHTTPServerConfiguration) *LifecycleState {
	ls := &LifecycleState{
		router: mux.NewRouter(),
	}
	ls.router.HandleFunc("/-/healthy", func(http.ResponseWriter, *http.Request) {})
	ls.router.HandleFunc("/-/ready", ls.handleReady)
	if configuration != nil {
		if configuration.EnablePrometheus {
			ls.router.Handle("/metrics", promhttp.Handler())
		}
		if configuration.EnablePprof {
			ls.router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
		}
	}
	return ls
}

// ApplyConfiguration applies configuration options to the running
// process. These configuration options are global, in that they apply
// to all Buildbarn binaries, regardless of their purpose.
//
// The diagnostics web server is launched as part of the provided
// group, so that it keeps running until all other routines have
// terminated.
func ApplyConfiguration(configuration *pb.Configuration, dependenciesGroup program.Group) (*LifecycleState, bb_grpc.ClientFactory, error) {
	if configuration == nil {
		configuration = &pb.Configuration{}
	}

	// Set the umask, if requested.
	if umask := configuration.SetUmask; umask != nil {
		if err := setUmask(*umask); err != nil {
			return nil, nil, util.StatusWrap(err, "Failed to set umask")
		}
	}

	// Set resource limits, if provided.
	for name, resourceLimit := range configuration.SetResourceLimits {
		if err := setResourceLimit(name, resourceLimit); err != nil {
			return nil, nil, util.StatusWrapf(err, "Failed to set resource limit %#v", name)
		}
	}

	// Logging.
	logPaths := configuration.LogPaths
	logWriters := append(make([]io.Writer, 0, len(logPaths)+1), os.Stderr)
	for _, logPath := range logPaths {
		w, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			return nil, nil, util.StatusWrapf(err, "Failed to open log path %#v", logPath)
		}
		logWriters = append(logWriters, w)
	}
	log.SetOutput(io.MultiWriter(logWriters...))

	// Perform tracing using OpenTelemetry.
	if tracingConfiguration := configuration.Tracing; tracingConfiguration != nil {
		tracerProvider, err := newTracerProviderFromConfiguration(tracingConfiguration)
		if err != nil {
			return nil, nil, util.StatusWrap(err, "Failed to create tracer provider")
		}
		otel.SetTracerProvider(tracerProvider)

		// Construct a propagator which supports both the context
		// and Zipkin B3 propagation standards.
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader))))
	}

	// Enable mutex profiling.
	runtime.SetMutexProfileFraction(configuration.MutexProfileFraction)

	lifecycleState := newLifecycleState(configuration.DiagnosticsHTTPServer)
	if diagnosticsConfiguration := configuration.DiagnosticsHTTPServer; diagnosticsConfiguration != nil {
		server := &http.Server{
			Addr:    diagnosticsConfiguration.ListenAddress,
			Handler: lifecycleState,
		}
		dependenciesGroup.Go(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
			go func() {
				<-ctx.Done()
				server.Close()
			}()
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return util.StatusWrap(err, "Diagnostics web server failed")
			}
			return nil
		})
	}

	return lifecycleState, bb_grpc.NewDeduplicatingClientFactory(bb_grpc.BaseClientFactory), nil
}

func newTracerProviderFromConfiguration(configuration *pb.TracingConfiguration) (*sdktrace.TracerProvider, error) {
	// Special gRPC client factory that doesn't have tracing
	// enabled. This must be used by the OTLP span exporter to
	// prevent infinitely recursive traces.
	nonTracingGRPCClientFactory := bb_grpc.NewDeduplicatingClientFactory(bb_grpc.NonTracingBaseClientFactory)

	var tracerProviderOptions []sdktrace.TracerProviderOption
	for i, backend := range configuration.Backends {
		// Construct a SpanExporter.
		var spanExporter sdktrace.SpanExporter
		switch {
		case backend.OTLPSpanExporter != nil:
			client, err := nonTracingGRPCClientFactory.NewClientFromConfiguration(backend.OTLPSpanExporter)
			if err != nil {
				return nil, util.StatusWrapf(err, "Failed to create OTLP gRPC client for backend %d", i)
			}
			spanExporter, err = otlptrace.New(context.Background(), bb_otel.NewGRPCOTLPTraceClient(client))
			if err != nil {
				return nil, util.StatusWrapf(err, "Failed to create OTLP span exporter for backend %d", i)
			}
		case backend.StderrSpanExporter:
			spanExporter = NewStderrExporter()
		default:
			return nil, status.Errorf(codes.InvalidArgument, "Tracing backend %d does not contain a valid span exporter", i)
		}

		// Wrap it in a SpanProcessor.
		var spanProcessor sdktrace.SpanProcessor
		if backend.SimpleSpanProcessor {
			spanProcessor = sdktrace.NewSimpleSpanProcessor(spanExporter)
		} else {
			var batchSpanProcessorOptions []sdktrace.BatchSpanProcessorOption
			if batchConfiguration := backend.BatchSpanProcessor; batchConfiguration != nil {
				if d := batchConfiguration.BatchTimeout; d != nil {
					batchSpanProcessorOptions = append(batchSpanProcessorOptions, sdktrace.WithBatchTimeout(d.AsDuration(0)))
				}
				if d := batchConfiguration.ExportTimeout; d != nil {
					batchSpanProcessorOptions = append(batchSpanProcessorOptions, sdktrace.WithExportTimeout(d.AsDuration(0)))
				}
				if size := batchConfiguration.MaxExportBatchSize; size != 0 {
					batchSpanProcessorOptions = append(batchSpanProcessorOptions, sdktrace.WithMaxExportBatchSize(size))
				}
				if size := batchConfiguration.MaxQueueSize; size != 0 {
					batchSpanProcessorOptions = append(batchSpanProcessorOptions, sdktrace.WithMaxQueueSize(size))
				}
				if batchConfiguration.Blocking {
					batchSpanProcessorOptions = append(batchSpanProcessorOptions, sdktrace.WithBlocking())
				}
			}
			spanProcessor = sdktrace.NewBatchSpanProcessor(spanExporter, batchSpanProcessorOptions...)
		}
		tracerProviderOptions = append(tracerProviderOptions, sdktrace.WithSpanProcessor(spanProcessor))
	}

	// Set resource attributes, so that this process can be
	// identified uniquely.
	resourceAttributes := make([]attribute.KeyValue, 0, len(configuration.ResourceAttributes))
	for key, value := range configuration.ResourceAttributes {
		resourceAttributes = append(resourceAttributes, attribute.String(key, value))
	}
	tracerProviderOptions = append(
		tracerProviderOptions,
		sdktrace.WithResource(resource.NewSchemaless(resourceAttributes...)))

	// Create a Sampler, acting as a policy for when to sample.
	sampler, err := newSamplerFromConfiguration(configuration.Sampler)
	if err != nil {
		return nil, util.StatusWrap(err, "Failed to create sampler")
	}
	tracerProviderOptions = append(tracerProviderOptions, sdktrace.WithSampler(sampler))
	return sdktrace.NewTracerProvider(tracerProviderOptions...), nil
}

// newSamplerFromConfiguration creates a OpenTelemetry Sampler based on
// a configuration file.
func newSamplerFromConfiguration(configuration *pb.SamplerConfiguration) (sdktrace.Sampler, error) {
	if configuration == nil {
		return nil, status.Error(codes.InvalidArgument, "No configuration provided")
	}
	switch {
	case configuration.Always:
		return sdktrace.AlwaysSample(), nil
	case configuration.Never:
		return sdktrace.NeverSample(), nil
	case configuration.ParentBased != nil:
		policy := configuration.ParentBased
		noParent, err := newSamplerFromConfiguration(policy.NoParent)
		if err != nil {
			return nil, util.StatusWrap(err, "No parent")
		}
		localParentNotSampled, err := newSamplerFromConfiguration(policy.LocalParentNotSampled)
		if err != nil {
			return nil, util.StatusWrap(err, "Local parent not sampled")
		}
		localParentSampled, err := newSamplerFromConfiguration(policy.LocalParentSampled)
		if err != nil {
			return nil, util.StatusWrap(err, "Local parent sampled")
		}
		remoteParentNotSampled, err := newSamplerFromConfiguration(policy.RemoteParentNotSampled)
		if err != nil {
			return nil, util.StatusWrap(err, "Remote parent not sampled")
		}
		remoteParentSampled, err := newSamplerFromConfiguration(policy.RemoteParentSampled)
		if err != nil {
			return nil, util.StatusWrap(err, "Remote parent sampled")
		}
		return sdktrace.ParentBased(
			noParent,
			sdktrace.WithLocalParentNotSampled(localParentNotSampled),
			sdktrace.WithLocalParentSampled(localParentSampled),
			sdktrace.WithRemoteParentNotSampled(remoteParentNotSampled),
			sdktrace.WithRemoteParentSampled(remoteParentSampled)), nil
	case configuration.TraceIDRatioBased != nil:
		return sdktrace.TraceIDRatioBased(*configuration.TraceIDRatioBased), nil
	case configuration.MaximumRate != nil:
		epochDuration := configuration.MaximumRate.EpochDuration.AsDuration(0)
		if epochDuration <= 0 {
			return nil, status.Error(codes.InvalidArgument, "Maximum rate sampler epoch duration must be positive")
		}
		return bb_otel.NewMaximumRateSampler(
			clock.SystemClock,
			configuration.MaximumRate.SamplesPerEpoch,
			epochDuration), nil
	default:
		return nil, status.Error(codes.InvalidArgument, "Unknown sampling policy")
	}
}
