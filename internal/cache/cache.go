// Package cache provides a Redis-backed assessment cache. Identical
// comment text always classifies identically, so cached assessments can
// be replayed without rescoring or another model call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gaado/risk-engine/internal/config"
	"github.com/gaado/risk-engine/internal/domain"
)

// ErrEmptyAddress is returned when the Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

// connectionTimeout is the timeout for verifying the Redis connection.
const connectionTimeout = 5 * time.Second

const keyPrefix = "risk-engine:assessment:"

// NewClient creates a Redis client from cfg and verifies connectivity.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// AssessmentCache caches RiskAssessments keyed by a digest of the
// comment text and the assessment method.
type AssessmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAssessmentCache wraps a Redis client as an assessment cache.
func NewAssessmentCache(client *redis.Client, ttl time.Duration) *AssessmentCache {
	return &AssessmentCache{client: client, ttl: ttl}
}

// Key derives the cache key for a comment. The digest covers both
// language variants and the method, since the keyword and model paths
// can disagree.
func Key(somaliText, englishText, method string) string {
	sum := sha256.Sum256([]byte(method + "\x00" + somaliText + "\x00" + englishText))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached assessment for key, or ok false on a miss.
// Redis errors other than a plain miss are returned to the caller; a
// corrupt entry is treated as a miss.
func (c *AssessmentCache) Get(ctx context.Context, key string) (domain.RiskAssessment, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.RiskAssessment{}, false, nil
		}
		return domain.RiskAssessment{}, false, fmt.Errorf("cache get: %w", err)
	}

	var assessment domain.RiskAssessment
	if err := json.Unmarshal(payload, &assessment); err != nil {
		return domain.RiskAssessment{}, false, nil
	}

	return assessment, true, nil
}

// Set stores an assessment under key for the configured TTL.
func (c *AssessmentCache) Set(ctx context.Context, key string, assessment domain.RiskAssessment) error {
	payload, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	return nil
}
