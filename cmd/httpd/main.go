// The httpd binary serves the risk engine HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gaado/risk-engine/internal/api"
	"github.com/gaado/risk-engine/internal/bootstrap"
	"github.com/gaado/risk-engine/internal/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	core, err := bootstrap.NewCore()
	if err != nil {
		logger.Must(logger.Config{}).Fatal("failed to initialize", logger.Error(err))
	}
	defer func() { _ = core.Log.Sync() }()

	core.Log.Info("starting risk engine http server",
		logger.String("service", core.Config.Service.Name),
		logger.String("version", core.Config.Service.Version),
		logger.Int("port", core.Config.Service.Port),
	)

	engine, err := bootstrap.SetupEngine(core)
	if err != nil {
		core.Log.Fatal("failed to assemble engine", logger.Error(err))
	}
	defer engine.Close()

	handler := api.NewHandler(api.HandlerConfig{
		Classifier: engine.Classifier,
		Analyzer:   engine.Analyzer,
		Batch:      engine.Batch,
		Store:      engine.Repo,
		Cache:      engine.Cache,
		Telemetry:  core.Telemetry,
		Logger:     core.KV,
		Service:    core.Config.Service.Name,
		Version:    core.Config.Service.Version,
	})
	for name, check := range engine.ReadyChecks() {
		handler.AddReadyCheck(name, check)
	}

	server := api.NewServer(handler, api.ServerConfig{
		Port:  core.Config.Service.Port,
		Debug: core.Config.Service.Debug,
	}, core.Telemetry, core.KV)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		core.Log.Fatal("server error", logger.Error(err))
	case sig := <-shutdown:
		core.Log.Info("shutdown signal received", logger.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			core.Log.Fatal("graceful shutdown failed", logger.Error(err))
		}

		core.Log.Info("server stopped gracefully")
	}
}
