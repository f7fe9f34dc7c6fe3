package bootstrap

import (
	"QuorumKV/internal/application/service"
	"QuorumKV/internal/domain"
	"QuorumKV/internal/domain/strategy"
	"QuorumKV/internal/platform/api/zmq"
	"QuorumKV/internal/platform/client"
	"QuorumKV/internal/platform/config"
	"QuorumKV/internal/platform/logging"
	"QuorumKV/internal/platform/metrics"
	"QuorumKV/internal/platform/repository/lsm_tree"
	"QuorumKV/internal/platform/server"
	"QuorumKV/internal/platform/server/handler/admin"
	"QuorumKV/internal/platform/server/handler/entities"
	"QuorumKV/internal/platform/server/handler/entity"
	"QuorumKV/internal/platform/tracing"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// BuildContainer wires every component of a node for the given config.
func BuildContainer(cfg config.Config) (*dig.Container, error) {
	container := dig.New()
	constructors := []interface{}{
		func() config.Config { return cfg },
		logging.NewLogger,
		metrics.NewMetrics,
		tracing.NewTracerProvider,
		engine,
		storage,
		topology,
		replicaClient,
		coordinator,
		service.NewGetEntryService,
		service.NewSaveEntryService,
		service.NewDeleteEntryService,
		service.NewRangeEntriesService,
		service.NewCompactService,
		service.NewLocalReplicaService,
		func(s *service.LocalReplicaService) strategy.LocalReplica { return s },
		func(m *metrics.Metrics) strategy.OperationObserver { return m },
		func(c *strategy.QuorumReplicationManager) entity.Coordinator { return c },
		func(c *strategy.QuorumReplicationManager) zmq.Coordinator { return c },
		entity.NewEntityHandler,
		entities.NewEntitiesHandler,
		admin.NewAdminHandler,
		server.NewServer,
		zmq.NewZmqApi,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}
	return container, nil
}

// Run starts a node and blocks until it receives SIGINT or SIGTERM.
func Run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	container, err := BuildContainer(cfg)
	if err != nil {
		return err
	}
	return container.Invoke(func(s *server.Server, api *zmq.ZmqApi, e *lsm_tree.Engine,
		tp *sdktrace.TracerProvider, logger *zap.Logger) error {
		defer logger.Sync()
		return serve(cfg, s, api, e, tp, logger)
	})
}

func serve(cfg config.Config, s *server.Server, api *zmq.ZmqApi, e *lsm_tree.Engine,
	tp *sdktrace.TracerProvider, logger *zap.Logger) error {
	if cfg.ZmqApiEnabled {
		if err := api.Listen(); err != nil {
			api.Close()
			e.Close()
			return err
		}
	}

	errs := make(chan error, 1)
	go func() {
		errs <- s.Run()
	}()
	logger.Info("node started",
		zap.String("self", cfg.SelfUrl),
		zap.Strings("cluster", cfg.ClusterNodes),
		zap.String("transport", cfg.ReplicaTransport))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	var runErr error
	select {
	case sig := <-signals:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case runErr = <-errs:
		logger.Error("server stopped", zap.Error(runErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := api.Close(); err != nil {
		logger.Warn("zmq shutdown", zap.Error(err))
	}
	if err := e.Close(); err != nil {
		logger.Error("closing storage", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	if err := tracing.Shutdown(ctx, tp); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
	return runErr
}

func engine(cfg config.Config, logger *zap.Logger, m *metrics.Metrics) (*lsm_tree.Engine, error) {
	return lsm_tree.Open(lsm_tree.Options{
		Directory:           cfg.DataDirectory,
		FlushThresholdBytes: cfg.FlushThresholdBytes,
		FlushRetries:        cfg.FlushRetries,
		FlushRetryBackoff:   100 * time.Millisecond,
	}, logger, m)
}

func storage(e *lsm_tree.Engine) domain.Storage {
	return e
}

func topology(cfg config.Config) (domain.Topology, error) {
	return domain.NewStaticTopology(cfg.ClusterNodes, cfg.SelfUrl)
}

func replicaClient(cfg config.Config) strategy.ReplicaClient {
	if cfg.ReplicaTransport == config.TransportZmq {
		return client.NewZmqReplicaClient(cfg.ZmqPortOffset)
	}
	return client.NewHttpReplicaClient(cfg.ReplicaTimeout)
}

func coordinator(cfg config.Config, t domain.Topology, local strategy.LocalReplica, c strategy.ReplicaClient,
	observer strategy.OperationObserver, logger *zap.Logger) *strategy.QuorumReplicationManager {
	return strategy.NewQuorumReplicationManager(t, local, c, cfg.ReplicaTimeout, observer, logger)
}
