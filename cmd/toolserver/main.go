package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/appserver.net/internal/adapter/static/toolcatalog"
	"gitlab.com/appserver.net/internal/adapter/storefactory"
	"gitlab.com/appserver.net/internal/config"
	logger2 "gitlab.com/appserver.net/internal/global/logger"
	toolhandlers "gitlab.com/appserver.net/internal/handlers/tools"
	http2 "gitlab.com/appserver.net/internal/http"
	"gitlab.com/appserver.net/internal/tools"
	"gitlab.com/appserver.net/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := config.DefaultToolProviderConfigPath
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	if err := run(configPath); err != nil {
		logger2.Error("Tool server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadToolServerConfig(configPath)
	if err != nil {
		return err
	}

	logger := logger2.SetLevel(cfg.LogLevel)
	defer logger.Sync()
	logger.Info("Starting tool server", "config", configPath, "backend", cfg.Store.Backend)

	var shutdownTracing tracing.ShutdownFunc = tracing.Noop
	if cfg.Tracing {
		if shutdownTracing, err = tracing.InitTracer("appserver-toolserver", os.Stderr); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := storefactory.NewRepository(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	if cfg.Seed && cfg.Store.Backend != config.BackendStatic {
		seeded, err := storefactory.Seed(ctx, repo, toolcatalog.Builtin())
		if err != nil {
			return err
		}
		logger.Info("Seeded built-in tools", "count", seeded)
	}

	server := http2.NewServer(cfg.BindHost, cfg.Endpoint.Port, "toolserver", logger)
	if err := server.Init(toolhandlers.NewToolHandler(repo, tools.NewDefaultFactory().Kinds(), logger)); err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("Shutting down tool server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Failed to flush traces", "error", err)
	}

	logger.Info("Server exited")
	return nil
}
