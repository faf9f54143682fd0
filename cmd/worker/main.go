package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/appserver.net/internal/adapter/http/toolclient"
	"gitlab.com/appserver.net/internal/adapter/storefactory"
	"gitlab.com/appserver.net/internal/config"
	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/ports/secondary"
	"gitlab.com/appserver.net/internal/core/services/satellite"
	"gitlab.com/appserver.net/internal/core/services/toolcache"
	logger2 "gitlab.com/appserver.net/internal/global/logger"
	http2 "gitlab.com/appserver.net/internal/http"
	"gitlab.com/appserver.net/internal/schedulerengine"
	"gitlab.com/appserver.net/internal/tcp"
	"gitlab.com/appserver.net/internal/tcp/client"
	"gitlab.com/appserver.net/internal/tcp/defs"
	tcphandlers "gitlab.com/appserver.net/internal/tcp/handlers"
	"gitlab.com/appserver.net/internal/tools"
	"gitlab.com/appserver.net/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

// usage: worker [worker.properties [toolprovider.properties [server.properties]]]
func main() {
	paths := []string{
		config.DefaultWorkerConfigPath,
		config.DefaultToolProviderConfigPath,
		config.DefaultDispatcherConfigPath,
	}
	copy(paths, os.Args[1:])

	if err := run(paths[0], paths[1], paths[2]); err != nil {
		logger2.Error("Worker failed", "error", err)
		os.Exit(1)
	}
}

func run(workerPath, toolProviderPath, dispatcherPath string) error {
	cfg, err := config.LoadWorkerConfig(workerPath, toolProviderPath, dispatcherPath)
	if err != nil {
		return err
	}

	logger := logger2.SetLevel(cfg.LogLevel)
	defer logger.Sync()
	logger.Info("Starting worker", "worker", cfg.Name, "address", cfg.ConnectivityInfo().Addr(), "toolProvider", cfg.ToolProvider.Backend)

	var shutdownTracing tracing.ShutdownFunc = tracing.Noop
	if cfg.Tracing {
		if shutdownTracing, err = tracing.InitTracer("appserver-worker-"+cfg.Name, os.Stderr); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// SECONDARY PORTS
	provider, closeProvider, err := setupToolProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	registrar := client.NewClient(logger, client.WithDialTimeout(cfg.DialTimeout))

	//services
	cache := toolcache.NewCache(provider, tools.NewDefaultFactory(), logger)
	sat := satellite.NewSatellite(cfg.ConnectivityInfo(), cfg.Dispatcher.Addr(), cache, registrar, satellite.Options{
		ExecuteTimeout:   cfg.ExecuteTimeout,
		RegisterAttempts: cfg.RegisterAttempts,
		RegisterBackoff:  cfg.RegisterBackoff,
	}, logger)

	//server
	tcpServer := tcp.NewTCPServer(logger,
		tcp.WithName("worker"),
		tcp.WithAddress(cfg.ListenAddr()),
		tcp.WithReadTimeout(cfg.ReadTimeout),
		tcp.WithWriteTimeout(cfg.WriteTimeout),
		tcp.WithHandler(defs.MsgJobRequest, tcphandlers.NewJobExecutionHandler(sat, logger)),
	)
	// Bind before registering so the dispatcher never sees an unbound port.
	if err := tcpServer.Start(); err != nil {
		return err
	}

	if err := sat.Register(ctx); err != nil {
		_ = tcpServer.Stop(context.Background())
		return err
	}

	var engine *schedulerengine.SchedulerEngine
	if cfg.ReregisterSchedule != "" {
		engine = schedulerengine.NewSchedulerEngine(logger, cfg.DialTimeout+cfg.WriteTimeout)
		err := engine.Schedule("reregister", cfg.ReregisterSchedule, func(ctx context.Context) error {
			return registrar.Register(ctx, cfg.Dispatcher.Addr(), sat.Info())
		})
		if err != nil {
			_ = tcpServer.Stop(context.Background())
			return err
		}
		engine.Start()
	}

	var metricsServer *http2.Server
	if cfg.MetricsPort > 0 {
		metricsServer = http2.NewServer("", cfg.MetricsPort, "worker-metrics", logger)
		if err := metricsServer.Start(); err != nil {
			_ = tcpServer.Stop(context.Background())
			return err
		}
	}

	<-ctx.Done()
	logger.Info("Shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if engine != nil {
		engine.Stop()
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			logger.Error("Metrics server forced to shutdown", "error", err)
		}
	}
	if err := tcpServer.Stop(shutdownCtx); err != nil {
		logger.Error("TCP server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Failed to flush traces", "error", err)
	}

	logger.Info("successfully shutdown worker")
	return nil
}

func setupToolProvider(ctx context.Context, cfg *config.WorkerConfig, logger primary.Logger) (secondary.ToolProvider, storefactory.CloseFunc, error) {
	if cfg.ToolProvider.Backend == config.BackendHTTP {
		baseURL := fmt.Sprintf("http://%s", cfg.ToolServer.Addr())
		return toolclient.NewProvider(baseURL, cfg.ToolServerTimeout, logger), func() error { return nil }, nil
	}
	return storefactory.NewRepository(ctx, cfg.ToolProvider, logger)
}
