// Package api exposes the risk engine over HTTP: local classification,
// model-backed analysis, comment ingest, the review feed, and the
// taxonomy.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gaado/risk-engine/internal/analyzer"
	"github.com/gaado/risk-engine/internal/cache"
	"github.com/gaado/risk-engine/internal/classifier"
	"github.com/gaado/risk-engine/internal/database"
	"github.com/gaado/risk-engine/internal/domain"
	"github.com/gaado/risk-engine/internal/normalizer"
	"github.com/gaado/risk-engine/internal/processor"
	"github.com/gaado/risk-engine/internal/telemetry"
)

// Logger defines the logging interface used by the API layer.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// CommentStore is the slice of the comments repository the handlers
// need.
type CommentStore interface {
	InsertRaw(ctx context.Context, comment *domain.RawComment) error
	GetRawByID(ctx context.Context, id int64) (*domain.RawComment, error)
	InsertProcessed(ctx context.Context, pc *domain.ProcessedComment) error
	GetProcessedByRawID(ctx context.Context, rawCommentID int64) (*domain.ProcessedComment, error)
	ListFeed(ctx context.Context, filter database.FeedFilter) ([]domain.CommentFeedItem, error)
	MarkReviewed(ctx context.Context, processedID int64) error
	Stats(ctx context.Context) ([]database.CategoryCount, error)
}

// Handler handles HTTP requests for the risk engine API.
type Handler struct {
	classifier *classifier.Classifier
	analyzer   *analyzer.Analyzer
	batch      *processor.BatchProcessor
	store      CommentStore
	cache      *cache.AssessmentCache
	telemetry  *telemetry.Provider
	logger     Logger

	service string
	version string

	readyChecks map[string]func(ctx context.Context) error
}

// HandlerConfig bundles the handler dependencies. Cache, batch, and
// telemetry may be nil.
type HandlerConfig struct {
	Classifier *classifier.Classifier
	Analyzer   *analyzer.Analyzer
	Batch      *processor.BatchProcessor
	Store      CommentStore
	Cache      *cache.AssessmentCache
	Telemetry  *telemetry.Provider
	Logger     Logger
	Service    string
	Version    string
}

// NewHandler creates a new API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		classifier:  cfg.Classifier,
		analyzer:    cfg.Analyzer,
		batch:       cfg.Batch,
		store:       cfg.Store,
		cache:       cfg.Cache,
		telemetry:   cfg.Telemetry,
		logger:      cfg.Logger,
		service:     cfg.Service,
		version:     cfg.Version,
		readyChecks: make(map[string]func(ctx context.Context) error),
	}
}

// AddReadyCheck registers a dependency check run by the readiness
// endpoint.
func (h *Handler) AddReadyCheck(name string, check func(ctx context.Context) error) {
	h.readyChecks[name] = check
}

// Classify handles POST /api/v1/classify.
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid classification request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SomaliText == "" && req.EnglishText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "somali_text or english_text is required"})
		return
	}

	ctx := c.Request.Context()
	if assessment, ok := h.cachedAssessment(ctx, req.SomaliText, req.EnglishText); ok {
		c.JSON(http.StatusOK, ClassifyResponse{
			Assessment: assessment,
			Method:     domain.MethodKeyword,
			Cached:     true,
		})
		return
	}

	start := time.Now()
	assessment := h.classifier.Classify(req.SomaliText, req.EnglishText)

	if h.telemetry != nil {
		h.telemetry.RecordAssessment(ctx, domain.MethodKeyword, assessment.Category, assessment.Level, time.Since(start))
	}
	h.storeAssessment(ctx, req.SomaliText, req.EnglishText, assessment)

	c.JSON(http.StatusOK, ClassifyResponse{
		Assessment: assessment,
		Method:     domain.MethodKeyword,
	})
}

// ClassifyBatch handles POST /api/v1/classify/batch. Comments are
// stored raw, then assessed and stored by the worker pool.
func (h *Handler) ClassifyBatch(c *gin.Context) {
	var req BatchClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid batch classification request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.batch == nil || h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "batch processing is not available"})
		return
	}

	ctx := c.Request.Context()

	// Ingest failures are reported per item, like assessment failures:
	// earlier comments may already be stored by the time one insert
	// fails, so aborting would misreport what persisted.
	entries := make([]BatchResult, len(req.Comments))
	stored := make([]domain.RawComment, 0, len(req.Comments))
	storedPos := make([]int, 0, len(req.Comments))
	for i, item := range req.Comments {
		platformID := item.PlatformID
		if platformID == "" {
			platformID = uuid.NewString()
		}
		comment := domain.RawComment{
			PlatformID: platformID,
			PostID:     item.PostID,
			Content:    item.Content,
			Author:     item.Author,
		}
		if err := h.store.InsertRaw(ctx, &comment); err != nil {
			h.logger.Error("failed to store raw comment", "platform_id", platformID, "error", err)
			entries[i] = BatchResult{Error: "failed to store comment"}
			continue
		}
		stored = append(stored, comment)
		storedPos = append(storedPos, i)
	}

	h.logger.Info("batch classifying comments",
		"batch_size", len(req.Comments), "stored", len(stored))

	results, err := h.batch.Process(ctx, stored)
	if err != nil {
		h.logger.Error("batch classification failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	for j, result := range results {
		br := BatchResult{
			RawCommentID: result.Comment.ID,
			Processed:    result.Processed,
		}
		if result.Error != nil {
			br.Error = result.Error.Error()
		}
		entries[storedPos[j]] = br
	}

	response := BatchClassifyResponse{
		Results: entries,
		Total:   len(entries),
	}
	for _, entry := range entries {
		if entry.Error != "" {
			response.Failed++
		} else {
			response.Success++
		}
	}

	h.logger.Info("batch classification completed",
		"total", response.Total,
		"success", response.Success,
		"failed", response.Failed,
	)

	c.JSON(http.StatusOK, response)
}

// Analyze handles POST /api/v1/analyze. Malformed model output is
// reported in the response body rather than as a 5xx; only transport
// failures surface as errors.
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid analyze request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.analyzer == nil || !h.analyzer.ModelAvailable() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model analysis is not available"})
		return
	}

	ctx := c.Request.Context()
	response := AnalyzeResponse{}

	translated, err := h.analyzer.Translate(ctx, domain.RawComment{Content: req.Content})
	if err != nil {
		var clsErr *normalizer.Error
		if !errors.As(err, &clsErr) {
			h.logger.Error("translation failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "model request failed"})
			return
		}
		response.ErrorKind = clsErr.Kind
		response.Error = clsErr.Msg
	} else {
		response.Translation = &translated
	}

	englishText := ""
	if response.Translation != nil && response.Translation.TranslationEN != nil {
		englishText = *response.Translation.TranslationEN
	}

	assessment, method, err := h.analyzer.Assess(ctx, req.Content, englishText, true)
	response.Assessment = assessment
	response.Method = method
	if err != nil {
		var clsErr *normalizer.Error
		if !errors.As(err, &clsErr) {
			h.logger.Error("model assessment failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "model request failed"})
			return
		}
		response.ErrorKind = clsErr.Kind
		response.Error = clsErr.Msg
	}

	c.JSON(http.StatusOK, response)
}

// CreateComment handles POST /api/v1/comments: ingest one comment,
// assess it locally, and store both rows.
func (h *Handler) CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create comment request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is not available"})
		return
	}

	platformID := req.PlatformID
	if platformID == "" {
		platformID = uuid.NewString()
	}

	ctx := c.Request.Context()
	comment := domain.RawComment{
		PlatformID: platformID,
		PostID:     req.PostID,
		Content:    req.Content,
		Author:     req.Author,
	}
	if err := h.store.InsertRaw(ctx, &comment); err != nil {
		h.logger.Error("failed to store raw comment", "platform_id", platformID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store comment"})
		return
	}

	start := time.Now()
	assessment := h.classifier.Classify(comment.Content, "")

	processed := domain.ProcessedComment{
		RawCommentID: comment.ID,
		Category:     assessment.Category,
		Subcategory:  assessment.Subcategory,
	}
	if assessment.Level != "" {
		slug := strings.ToLower(assessment.Level)
		processed.ThreatLevel = &slug
	}
	if err := h.store.InsertProcessed(ctx, &processed); err != nil {
		h.logger.Error("failed to store processed comment", "raw_comment_id", comment.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store assessment"})
		return
	}

	if h.telemetry != nil {
		h.telemetry.RecordAssessment(ctx, domain.MethodKeyword, assessment.Category, assessment.Level, time.Since(start))
	}

	h.logger.Info("comment ingested",
		"raw_comment_id", comment.ID,
		"category", assessment.Category,
		"level", assessment.Level,
	)

	c.JSON(http.StatusCreated, CreateCommentResponse{
		RawCommentID:       comment.ID,
		ProcessedCommentID: processed.ID,
		Assessment:         assessment,
		Method:             domain.MethodKeyword,
	})
}

// ListComments handles GET /api/v1/comments.
func (h *Handler) ListComments(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is not available"})
		return
	}

	filter := database.FeedFilter{
		Category:   c.Query("category"),
		Level:      c.Query("level"),
		Unreviewed: c.Query("unreviewed") == "true",
		Limit:      intQuery(c, "limit", 0),
		Offset:     intQuery(c, "offset", 0),
	}
	if filter.Category != "" && !domain.ValidCategory(filter.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown category: %s", filter.Category)})
		return
	}

	items, err := h.store.ListFeed(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list comments", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comments"})
		return
	}
	if items == nil {
		items = []domain.CommentFeedItem{}
	}

	c.JSON(http.StatusOK, FeedResponse{
		Items:  items,
		Count:  len(items),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetComment handles GET /api/v1/comments/:id.
func (h *Handler) GetComment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is not available"})
		return
	}

	ctx := c.Request.Context()
	raw, err := h.store.GetRawByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		h.logger.Error("failed to get comment", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comment"})
		return
	}

	response := CommentResponse{Raw: *raw}
	processed, err := h.store.GetProcessedByRawID(ctx, id)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.logger.Error("failed to get processed comment", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comment"})
		return
	}
	if err == nil {
		response.Processed = processed
	}

	c.JSON(http.StatusOK, response)
}

// ReviewComment handles POST /api/v1/comments/:id/review, where :id is
// the processed comment ID.
func (h *Handler) ReviewComment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is not available"})
		return
	}

	if err := h.store.MarkReviewed(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		h.logger.Error("failed to mark comment reviewed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update comment"})
		return
	}

	h.logger.Info("comment marked reviewed", "id", id)

	c.JSON(http.StatusOK, gin.H{"message": "comment marked reviewed"})
}

// GetTaxonomy handles GET /api/v1/taxonomy.
func (h *Handler) GetTaxonomy(c *gin.Context) {
	c.JSON(http.StatusOK, toTaxonomyResponse())
}

// GetStats handles GET /api/v1/stats.
func (h *Handler) GetStats(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is not available"})
		return
	}

	counts, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to get stats", "error", err)
		// Return empty stats instead of error to avoid breaking dashboards.
		c.JSON(http.StatusOK, gin.H{"counts": []database.CategoryCount{}, "total": 0})
		return
	}

	total := int64(0)
	for _, count := range counts {
		total += count.Count
	}
	if counts == nil {
		counts = []database.CategoryCount{}
	}

	c.JSON(http.StatusOK, gin.H{"counts": counts, "total": total})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   h.service,
		Version:   h.version,
		Timestamp: time.Now().UTC(),
	})
}

// ReadyCheck handles GET /ready. It runs the registered dependency
// checks and reports 503 when any fails.
func (h *Handler) ReadyCheck(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	ready := true

	for name, check := range h.readyChecks {
		if err := check(ctx); err != nil {
			h.logger.Warn("readiness check failed", "check", name, "error", err)
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}

	c.JSON(status, gin.H{"status": state, "checks": checks})
}

func (h *Handler) cachedAssessment(ctx context.Context, somaliText, englishText string) (domain.RiskAssessment, bool) {
	if h.cache == nil {
		return domain.RiskAssessment{}, false
	}

	key := cache.Key(somaliText, englishText, domain.MethodKeyword)
	assessment, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		h.logger.Warn("assessment cache lookup failed", "error", err)
		return domain.RiskAssessment{}, false
	}
	if h.telemetry != nil {
		if ok {
			h.telemetry.RecordCacheHit(ctx)
		} else {
			h.telemetry.RecordCacheMiss(ctx)
		}
	}

	return assessment, ok
}

func (h *Handler) storeAssessment(ctx context.Context, somaliText, englishText string, assessment domain.RiskAssessment) {
	if h.cache == nil {
		return
	}

	key := cache.Key(somaliText, englishText, domain.MethodKeyword)
	if err := h.cache.Set(ctx, key, assessment); err != nil {
		h.logger.Warn("assessment cache store failed", "error", err)
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
