package main

import (
	"context"
	"os"
	"time"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/blockworker"
	"github.com/buildbarn/bb-blockworker/pkg/clock"
	"github.com/buildbarn/bb-blockworker/pkg/configuration/bb_blockworker"
	"github.com/buildbarn/bb-blockworker/pkg/global"
	bb_grpc "github.com/buildbarn/bb-blockworker/pkg/grpc"
	"github.com/buildbarn/bb-blockworker/pkg/master"
	"github.com/buildbarn/bb-blockworker/pkg/program"
	"github.com/buildbarn/bb-blockworker/pkg/retry"
	"github.com/buildbarn/bb-blockworker/pkg/ufs"
	"github.com/buildbarn/bb-blockworker/pkg/util"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func main() {
	program.RunMain(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
		if len(os.Args) != 2 {
			return status.Error(codes.InvalidArgument, "Usage: bb_blockworker bb_blockworker.jsonnet")
		}
		var configuration bb_blockworker.ApplicationConfiguration
		if err := util.UnmarshalConfigurationFromFile(os.Args[1], &configuration); err != nil {
			return util.StatusWrapf(err, "Failed to read configuration from %s", os.Args[1])
		}
		lifecycleState, grpcClientFactory, err := global.ApplyConfiguration(configuration.Global, dependenciesGroup)
		if err != nil {
			return util.StatusWrap(err, "Failed to apply global configuration options")
		}

		// Local block store. Both the metrics and the heartbeat
		// reporter observe all changes made to it.
		store, err := blockstore.NewTieredBlockStoreFromConfiguration(&configuration.TieredBlockStoreConfiguration, clock.SystemClock)
		if err != nil {
			return util.StatusWrap(err, "Failed to create block store")
		}
		metricsReporter, err := blockworker.NewBlockMetricsReporter(store, prometheus.DefaultRegisterer)
		if err != nil {
			return util.StatusWrap(err, "Failed to register block store metrics")
		}
		store.RegisterBlockStoreEventListener(metricsReporter)
		heartbeatReporter := blockworker.NewBlockHeartbeatReporter()
		store.RegisterBlockStoreEventListener(heartbeatReporter)
		lifecycleState.Handle("/store", blockworker.NewStoreMetaHTTPHandler(store))

		// Backing stores.
		mountTable, err := ufs.NewMountTableFromConfiguration(ctx, configuration.BackingStores)
		if err != nil {
			return util.StatusWrap(err, "Failed to create backing stores")
		}
		ufsStore := blockstore.NewUnderFileSystemBlockStore(
			store,
			mountTable,
			clock.SystemClock,
			configuration.UFSBlockOpenTimeout.AsDuration(5*time.Minute))

		masterClient, err := master.NewBlockMasterClientFromConfiguration(configuration.Master, grpcClientFactory)
		if err != nil {
			return util.StatusWrap(err, "Failed to create master client")
		}

		workerAddress := master.WorkerNetAddress{
			Host:     configuration.WorkerAddress.Host,
			RPCPort:  configuration.WorkerAddress.RPCPort,
			WebPort:  configuration.WorkerAddress.WebPort,
			Locality: configuration.WorkerAddress.Locality,
		}
		if workerAddress.Host == "" {
			hostname, err := os.Hostname()
			if err != nil {
				return util.StatusWrap(err, "Failed to obtain host name")
			}
			workerAddress.Host = hostname
		}

		cacheManagerConcurrency := int64(16)
		if c := configuration.CacheManager; c != nil && c.MaximumConcurrency > 0 {
			cacheManagerConcurrency = c.MaximumConcurrency
		}
		loadConfiguration := configuration.Load
		if loadConfiguration == nil {
			loadConfiguration = &bb_blockworker.LoadConfiguration{}
		}
		loadConcurrency := 8
		if loadConfiguration.Concurrency > 0 {
			loadConcurrency = loadConfiguration.Concurrency
		}

		sessions := blockworker.NewSessions(clock.SystemClock, configuration.SessionTimeout.AsDuration(time.Minute))
		worker := blockworker.NewDefaultBlockWorker(
			store,
			ufsStore,
			mountTable,
			masterClient,
			sessions,
			blockworker.NewCacheRequestManager(
				store,
				ufsStore,
				workerAddress.Host,
				cacheManagerConcurrency,
				clock.SystemClock,
				util.NewLogErrorLogger("Asynchronous caching failed")),
			metricsReporter.ActiveClients(),
			retry.NewPolicyFactoryFromConfiguration(loadConfiguration.Retry, clock.SystemClock),
			loadConcurrency,
			otel.GetTracerProvider())

		// Periodic work. Failures of individual iterations are
		// logged, and retried during the next iteration.
		heartbeatExecutors := []blockworker.HeartbeatExecutor{
			blockworker.NewBlockMasterSync(store, heartbeatReporter, masterClient, workerAddress, uuid.NewRandom),
			blockworker.NewPinListSync(store, masterClient),
			blockworker.NewSessionCleaner(sessions, worker),
		}
		if configuration.StorageCheckerEnabled {
			heartbeatExecutors = append(heartbeatExecutors, blockworker.NewStorageChecker(store))
		}
		heartbeatInterval := configuration.HeartbeatInterval.AsDuration(time.Second)
		for _, heartbeatExecutor := range heartbeatExecutors {
			siblingsGroup.Go(func(ctx context.Context, siblingsGroup, dependenciesGroup program.Group) error {
				blockworker.RunHeartbeat(ctx, heartbeatExecutor, clock.SystemClock, heartbeatInterval, util.NewLogErrorLogger("Heartbeat failed"))
				return nil
			})
		}

		if err := bb_grpc.NewServersFromConfigurationAndServe(
			configuration.GRPCServers,
			func(s grpc.ServiceRegistrar) {},
			siblingsGroup,
		); err != nil {
			return util.StatusWrap(err, "gRPC server failure")
		}

		lifecycleState.MarkReadyAndWait(siblingsGroup)
		return nil
	})
}
