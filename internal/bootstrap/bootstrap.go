// Package bootstrap wires the engine components from configuration.
// Both binaries (httpd and processor) share this assembly so they
// always agree on how the classifier, model client, storage, and cache
// are built.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/gaado/risk-engine/internal/analyzer"
	"github.com/gaado/risk-engine/internal/cache"
	"github.com/gaado/risk-engine/internal/classifier"
	"github.com/gaado/risk-engine/internal/config"
	"github.com/gaado/risk-engine/internal/database"
	"github.com/gaado/risk-engine/internal/geminiclient"
	"github.com/gaado/risk-engine/internal/logger"
	"github.com/gaado/risk-engine/internal/normalizer"
	"github.com/gaado/risk-engine/internal/processor"
	"github.com/gaado/risk-engine/internal/telemetry"
)

const defaultConfigPath = "config.yml"

// Core holds the pieces every binary needs before any domain wiring.
type Core struct {
	Config    *config.Config
	Log       logger.Logger
	KV        *logger.KV
	Telemetry *telemetry.Provider
}

// NewCore loads configuration and builds the logger and telemetry
// provider. The config path comes from CONFIG_PATH, falling back to
// config.yml in the working directory.
func NewCore() (*Core, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.Must(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development || cfg.Service.Debug,
	})

	return &Core{
		Config:    cfg,
		Log:       log,
		KV:        logger.NewKV(log),
		Telemetry: telemetry.NewProvider(),
	}, nil
}

// Engine holds the assembled assessment pipeline.
type Engine struct {
	DB         *sqlx.DB
	Repo       *database.CommentsRepository
	Redis      *redis.Client
	Cache      *cache.AssessmentCache
	Classifier *classifier.Classifier
	Analyzer   *analyzer.Analyzer
	Limiter    *processor.RateLimiter
	Batch      *processor.BatchProcessor
}

// SetupEngine builds the full pipeline: database, optional cache,
// optional model client, classifier, and batch processor.
func SetupEngine(core *Core) (*Engine, error) {
	cfg := core.Config

	core.Log.Info("connecting to database",
		logger.String("host", cfg.Database.Host),
		logger.Int("port", cfg.Database.Port),
		logger.String("database", cfg.Database.Database),
	)
	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	engine := &Engine{
		DB:   db,
		Repo: database.NewCommentsRepository(db),
	}

	if cfg.Redis.Enabled {
		redisClient, redisErr := cache.NewClient(cfg.Redis)
		if redisErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect redis: %w", redisErr)
		}
		engine.Redis = redisClient
		engine.Cache = cache.NewAssessmentCache(redisClient, cfg.Redis.CacheTTL)
		core.Log.Info("assessment cache enabled", logger.Duration("ttl", cfg.Redis.CacheTTL))
	}

	engine.Classifier = classifier.New(core.KV)
	core.Log.Info("keyword classifier initialized",
		logger.Int("keywords", engine.Classifier.KeywordCount()))

	var gen analyzer.Generator
	if cfg.Gemini.UseModel {
		client := geminiclient.New(geminiclient.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
			Timeout: cfg.Gemini.Timeout,
		})
		gen = client
		engine.Limiter = processor.NewRateLimiter(cfg.Processor.RequestsPerMin, core.KV)
		core.Log.Info("generation model enabled", logger.String("model", client.Model()))
	}

	engine.Analyzer = analyzer.New(engine.Classifier, gen, normalizer.New(core.KV), core.Telemetry, core.KV)
	engine.Batch = processor.NewBatchProcessor(
		engine.Analyzer,
		engine.Repo,
		engine.Limiter,
		core.Telemetry,
		cfg.Processor.Concurrency,
		cfg.Gemini.UseModel,
		core.KV,
	)

	return engine, nil
}

// Close releases the engine's connections.
func (e *Engine) Close() {
	if e.Redis != nil {
		_ = e.Redis.Close()
	}
	if e.DB != nil {
		_ = e.DB.Close()
	}
}

// ReadyChecks returns the dependency checks for the readiness endpoint.
func (e *Engine) ReadyChecks() map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{
		"postgres": func(ctx context.Context) error {
			return e.DB.PingContext(ctx)
		},
	}
	if e.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return e.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
