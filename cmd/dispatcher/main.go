package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/appserver.net/internal/config"
	"gitlab.com/appserver.net/internal/core/services/balancer"
	"gitlab.com/appserver.net/internal/core/services/dispatch"
	"gitlab.com/appserver.net/internal/core/services/registry"
	logger2 "gitlab.com/appserver.net/internal/global/logger"
	"gitlab.com/appserver.net/internal/handlers/jobs"
	"gitlab.com/appserver.net/internal/handlers/workers"
	http2 "gitlab.com/appserver.net/internal/http"
	"gitlab.com/appserver.net/internal/tcp"
	"gitlab.com/appserver.net/internal/tcp/client"
	"gitlab.com/appserver.net/internal/tcp/defs"
	tcphandlers "gitlab.com/appserver.net/internal/tcp/handlers"
	"gitlab.com/appserver.net/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := config.DefaultDispatcherConfigPath
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	if err := run(configPath); err != nil {
		logger2.Error("Dispatcher failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadDispatcherConfig(configPath)
	if err != nil {
		return err
	}

	logger := logger2.SetLevel(cfg.LogLevel)
	defer logger.Sync()
	logger.Info("Starting dispatcher", "config", configPath, "address", cfg.ListenAddr())

	var shutdownTracing tracing.ShutdownFunc = tracing.Noop
	if cfg.Tracing {
		if shutdownTracing, err = tracing.InitTracer("appserver-dispatcher", os.Stderr); err != nil {
			return err
		}
	}

	// SECONDARY PORTS
	forwarder := client.NewClient(logger,
		client.WithDialTimeout(cfg.DialTimeout),
		client.WithRequestTimeout(cfg.ForwardTimeout),
	)

	//services
	dispatcher := dispatch.NewDispatcher(registry.NewWorkerRegistry(), balancer.NewRoundRobin(), forwarder, logger)

	//server
	tcpServer := tcp.NewTCPServer(logger,
		tcp.WithName("dispatcher"),
		tcp.WithAddress(cfg.ListenAddr()),
		tcp.WithReadTimeout(cfg.ReadTimeout),
		tcp.WithWriteTimeout(cfg.WriteTimeout),
		tcp.WithHandler(defs.MsgRegisterWorker, tcphandlers.NewWorkerRegistrationHandler(dispatcher, logger)),
		tcp.WithHandler(defs.MsgJobRequest, tcphandlers.NewTCPJobRequestHandler(dispatcher, logger)),
	)
	if err := tcpServer.Start(); err != nil {
		return err
	}

	var adminServer *http2.Server
	if cfg.AdminPort > 0 {
		adminServer = http2.NewServer(cfg.BindHost, cfg.AdminPort, "dispatcher-admin", logger)
		// jobs block for up to ForwardTimeout, so the write deadline leaves room for the error reply
		adminServer.WriteTimeout = cfg.ForwardTimeout + http2.DefaultWriteTimeout
		if err := adminServer.Init(workers.NewHandler(dispatcher), jobs.NewJobHandler(dispatcher, cfg.ForwardTimeout, logger)); err != nil {
			return err
		}
		if err := adminServer.Start(); err != nil {
			_ = tcpServer.Stop(context.Background())
			return err
		}
	}

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down dispatcher...", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if adminServer != nil {
		if err := adminServer.Stop(ctx); err != nil {
			logger.Error("Admin server forced to shutdown", "error", err)
		}
	}
	if err := tcpServer.Stop(ctx); err != nil {
		logger.Error("TCP server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Failed to flush traces", "error", err)
	}

	logger.Info("successfully shutdown dispatcher")
	return nil
}
