// Package processor runs the background assessment pipeline: a poller
// pulls unprocessed comments from storage and a worker pool translates
// and classifies them.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaado/risk-engine/internal/domain"
	"github.com/gaado/risk-engine/internal/normalizer"
	"github.com/gaado/risk-engine/internal/telemetry"
)

// Logger defines the logging interface used by the processor.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Assessor is the slice of the analyzer the processor needs.
type Assessor interface {
	Assess(ctx context.Context, somaliText, englishText string, useModel bool) (domain.RiskAssessment, string, error)
	Translate(ctx context.Context, comment domain.RawComment) (domain.ProcessedComment, error)
	ModelAvailable() bool
}

// Store is the slice of the comments repository the processor needs.
type Store interface {
	ListUnprocessed(ctx context.Context, limit int) ([]domain.RawComment, error)
	InsertProcessed(ctx context.Context, pc *domain.ProcessedComment) error
}

// ProcessResult holds the outcome of processing a single comment.
type ProcessResult struct {
	Comment   domain.RawComment
	Processed *domain.ProcessedComment
	Error     error
}

const defaultConcurrency = 4

// BatchProcessor assesses batches of raw comments in parallel using a
// worker pool.
type BatchProcessor struct {
	assessor    Assessor
	store       Store
	limiter     *RateLimiter
	telemetry   *telemetry.Provider
	concurrency int
	useModel    bool
	logger      Logger
}

// NewBatchProcessor creates a batch processor. limiter and tp may be
// nil; useModel selects the model path when the assessor has one.
func NewBatchProcessor(
	assessor Assessor,
	store Store,
	limiter *RateLimiter,
	tp *telemetry.Provider,
	concurrency int,
	useModel bool,
	logger Logger,
) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &BatchProcessor{
		assessor:    assessor,
		store:       store,
		limiter:     limiter,
		telemetry:   tp,
		concurrency: concurrency,
		useModel:    useModel,
		logger:      logger,
	}
}

// Process assesses a batch of comments using the worker pool and stores
// the results. Per-comment failures are reported in the results, not
// returned; the returned error covers batch-level problems only.
func (b *BatchProcessor) Process(ctx context.Context, comments []domain.RawComment) ([]ProcessResult, error) {
	if len(comments) == 0 {
		return []ProcessResult{}, nil
	}

	b.logger.Info("starting batch processing",
		"batch_size", len(comments),
		"concurrency", b.concurrency,
	)
	if b.telemetry != nil {
		b.telemetry.RecordBatchSize(len(comments))
		b.telemetry.SetActiveWorkers(b.concurrency)
		defer b.telemetry.SetActiveWorkers(0)
	}

	startTime := time.Now()

	jobs := make(chan job, len(comments))

	// Results land in their input slot so callers can zip them back to
	// the submitted batch regardless of worker scheduling.
	processResults := make([]ProcessResult, len(comments))

	var wg sync.WaitGroup
	for i := 0; i < b.concurrency; i++ {
		wg.Add(1)
		go b.worker(ctx, i, jobs, processResults, &wg)
	}

	for idx, comment := range comments {
		jobs <- job{idx: idx, comment: comment}
	}
	close(jobs)

	wg.Wait()

	successCount := 0
	for _, result := range processResults {
		if result.Error == nil {
			successCount++
		}
	}

	duration := time.Since(startTime)
	b.logger.Info("batch processing complete",
		"total", len(comments),
		"success", successCount,
		"errors", len(processResults)-successCount,
		"duration_ms", duration.Milliseconds(),
	)

	return processResults, nil
}

// job pairs a comment with its position in the submitted batch.
type job struct {
	idx     int
	comment domain.RawComment
}

func (b *BatchProcessor) worker(
	ctx context.Context,
	id int,
	jobs <-chan job,
	results []ProcessResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	b.logger.Debug("worker started", "worker_id", id)

	for j := range jobs {
		select {
		case <-ctx.Done():
			b.logger.Warn("worker stopping due to context cancellation", "worker_id", id)
			results[j.idx] = ProcessResult{
				Comment: j.comment,
				Error:   ctx.Err(),
			}
			continue
		default:
		}

		results[j.idx] = b.processComment(ctx, j.comment)
	}

	b.logger.Debug("worker finished", "worker_id", id)
}

// processComment runs one comment through translation (model path
// only), risk assessment, and storage.
func (b *BatchProcessor) processComment(ctx context.Context, comment domain.RawComment) ProcessResult {
	if b.telemetry != nil {
		var span trace.Span
		ctx, span = b.telemetry.StartSpan(ctx, "processor.process_comment",
			attribute.Int64("comment.id", comment.ID),
			attribute.Bool("model", b.useModel))
		defer span.End()
	}

	result := ProcessResult{Comment: comment}
	start := time.Now()

	useModel := b.useModel && b.assessor.ModelAvailable()

	processed := domain.ProcessedComment{RawCommentID: comment.ID}
	if useModel {
		if err := b.waitForModelSlot(ctx); err != nil {
			result.Error = err
			return result
		}
		translated, err := b.assessor.Translate(ctx, comment)
		if err != nil {
			// Translation failures are soft: the comment still gets a
			// keyword assessment from the original text.
			b.logger.Warn("translation failed, assessing original text only",
				"comment_id", comment.ID, "error", err)
			b.recordFailure(ctx, domain.MethodModel, err)
		} else {
			processed = translated
		}
	}

	englishText := ""
	if processed.TranslationEN != nil {
		englishText = *processed.TranslationEN
	}

	if useModel {
		if err := b.waitForModelSlot(ctx); err != nil {
			result.Error = err
			return result
		}
	}
	assessment, method, err := b.assessor.Assess(ctx, comment.Content, englishText, useModel)
	if err != nil {
		b.logger.Warn("assessment incomplete",
			"comment_id", comment.ID, "method", method, "error", err)
		b.recordFailure(ctx, method, err)
	}

	processed.Category = assessment.Category
	processed.Subcategory = assessment.Subcategory
	if processed.ThreatLevel == nil && assessment.Level != "" {
		slug := strings.ToLower(assessment.Level)
		processed.ThreatLevel = &slug
	}

	if insertErr := b.store.InsertProcessed(ctx, &processed); insertErr != nil {
		result.Error = fmt.Errorf("store processed comment: %w", insertErr)
		b.logger.Error("failed to store processed comment",
			"comment_id", comment.ID, "error", insertErr)
		return result
	}

	if b.telemetry != nil && err == nil {
		b.telemetry.RecordAssessment(ctx, method, assessment.Category, assessment.Level, time.Since(start))
	}

	result.Processed = &processed
	return result
}

func (b *BatchProcessor) waitForModelSlot(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

func (b *BatchProcessor) recordFailure(ctx context.Context, method string, err error) {
	if b.telemetry == nil {
		return
	}
	kind := "transport"
	var clsErr *normalizer.Error
	if errors.As(err, &clsErr) {
		kind = clsErr.Kind
		if clsErr.Kind == normalizer.KindParseError {
			b.telemetry.RecordParseFailure(ctx)
		}
	}
	b.telemetry.RecordAssessmentFailure(ctx, method, kind)
}
