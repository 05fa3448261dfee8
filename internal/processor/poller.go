package processor

import (
	"context"
	"errors"
	"time"

	"github.com/gaado/risk-engine/internal/telemetry"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultBatchSize    = 50
)

// Poller polls storage for unprocessed comments and feeds them to the
// batch processor.
type Poller struct {
	store     Store
	batch     *BatchProcessor
	telemetry *telemetry.Provider
	logger    Logger

	batchSize    int
	pollInterval time.Duration
	running      bool
	stopChan     chan struct{}
}

// PollerConfig holds poller configuration.
type PollerConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// NewPoller creates a new poller.
func NewPoller(store Store, batch *BatchProcessor, tp *telemetry.Provider, logger Logger, cfg PollerConfig) *Poller {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	return &Poller{
		store:        store,
		batch:        batch,
		telemetry:    tp,
		logger:       logger,
		batchSize:    cfg.BatchSize,
		pollInterval: cfg.PollInterval,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the polling loop in a goroutine.
func (p *Poller) Start(ctx context.Context) error {
	if p.running {
		return errors.New("poller is already running")
	}

	p.running = true
	p.logger.Info("poller starting",
		"batch_size", p.batchSize,
		"poll_interval", p.pollInterval,
	)

	go p.run(ctx)

	return nil
}

// Stop stops the poller. Safe to call once after Start.
func (p *Poller) Stop() {
	if !p.running {
		return
	}

	p.logger.Info("poller stopping")
	close(p.stopChan)
	p.running = false
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	// Process immediately on start rather than waiting a full interval.
	if err := p.processPending(ctx); err != nil {
		p.logger.Error("failed to process pending comments on startup", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped due to context cancellation")
			return
		case <-p.stopChan:
			p.logger.Info("poller stopped")
			return
		case <-ticker.C:
			if err := p.processPending(ctx); err != nil {
				p.logger.Error("failed to process pending comments", "error", err)
			}
		}
	}
}

// processPending drains unprocessed comments one batch at a time until
// storage reports none left.
func (p *Poller) processPending(ctx context.Context) error {
	for {
		comments, err := p.store.ListUnprocessed(ctx, p.batchSize)
		if err != nil {
			return err
		}
		if p.telemetry != nil {
			p.telemetry.SetQueueDepth(len(comments))
		}
		if len(comments) == 0 {
			return nil
		}

		if p.telemetry != nil {
			for _, c := range comments {
				p.telemetry.RecordPollerLag(ctx, c.CollectedAt)
			}
		}

		results, err := p.batch.Process(ctx, comments)
		if err != nil {
			return err
		}

		// If nothing in the batch stored successfully, stop rather than
		// refetch the same comments in a tight loop.
		stored := 0
		for _, r := range results {
			if r.Error == nil {
				stored++
			}
		}
		if stored == 0 {
			return errors.New("batch made no progress")
		}

		// A short batch means storage is drained.
		if len(comments) < p.batchSize {
			return nil
		}
	}
}
