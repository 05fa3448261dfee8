// The processor binary runs the background assessment pipeline: it
// polls storage for unprocessed comments and classifies them with the
// worker pool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gaado/risk-engine/internal/bootstrap"
	"github.com/gaado/risk-engine/internal/logger"
	"github.com/gaado/risk-engine/internal/processor"
)

func main() {
	core, err := bootstrap.NewCore()
	if err != nil {
		logger.Must(logger.Config{}).Fatal("failed to initialize", logger.Error(err))
	}
	defer func() { _ = core.Log.Sync() }()

	core.Log.Info("starting risk engine processor",
		logger.String("service", core.Config.Service.Name),
		logger.Int("concurrency", core.Config.Processor.Concurrency),
		logger.Int("batch_size", core.Config.Processor.BatchSize),
		logger.Duration("poll_interval", core.Config.Processor.PollInterval),
	)

	engine, err := bootstrap.SetupEngine(core)
	if err != nil {
		core.Log.Fatal("failed to assemble engine", logger.Error(err))
	}
	defer engine.Close()

	poller := processor.NewPoller(engine.Repo, engine.Batch, core.Telemetry, core.KV, processor.PollerConfig{
		BatchSize:    core.Config.Processor.BatchSize,
		PollInterval: core.Config.Processor.PollInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := poller.Start(ctx); err != nil {
		core.Log.Fatal("failed to start poller", logger.Error(err))
	}

	core.Log.Info("processor started, polling for unprocessed comments")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown

	core.Log.Info("shutdown signal received", logger.String("signal", sig.String()))
	poller.Stop()
	core.Log.Info("processor stopped")
}
