package api

import (
	"time"

	"github.com/gaado/risk-engine/internal/domain"
)

// ClassifyRequest represents a single local classification request.
// At least one of the two text fields must be non-empty.
type ClassifyRequest struct {
	SomaliText  string `json:"somali_text"`
	EnglishText string `json:"english_text"`
}

// ClassifyResponse represents a classification response.
type ClassifyResponse struct {
	Assessment domain.RiskAssessment `json:"assessment"`
	Method     string                `json:"method"`
	Cached     bool                  `json:"cached,omitempty"`
}

// BatchComment is one comment in a batch classification request.
type BatchComment struct {
	PlatformID string `json:"platform_id"`
	PostID     int64  `json:"post_id"`
	Content    string `json:"content" binding:"required"`
	Author     string `json:"author"`
}

// BatchClassifyRequest represents a batch classification request.
type BatchClassifyRequest struct {
	Comments []BatchComment `json:"comments" binding:"required,min=1,max=100,dive"`
}

// BatchResult is the outcome for one comment of a batch.
type BatchResult struct {
	RawCommentID int64                    `json:"raw_comment_id"`
	Processed    *domain.ProcessedComment `json:"processed,omitempty"`
	Error        string                   `json:"error,omitempty"`
}

// BatchClassifyResponse represents a batch classification response.
type BatchClassifyResponse struct {
	Results []BatchResult `json:"results"`
	Total   int           `json:"total"`
	Success int           `json:"success"`
	Failed  int           `json:"failed"`
}

// AnalyzeRequest represents a model-backed analysis request.
type AnalyzeRequest struct {
	Content string `json:"content" binding:"required"`
}

// AnalyzeResponse represents a model-backed analysis response. A
// malformed model reply is reported through ErrorKind, not a 5xx.
type AnalyzeResponse struct {
	Assessment  domain.RiskAssessment    `json:"assessment"`
	Method      string                   `json:"method"`
	Translation *domain.ProcessedComment `json:"translation,omitempty"`
	ErrorKind   string                   `json:"error_kind,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

// CreateCommentRequest represents a comment ingest request.
type CreateCommentRequest struct {
	PlatformID string `json:"platform_id"`
	PostID     int64  `json:"post_id"`
	Content    string `json:"content" binding:"required"`
	Author     string `json:"author"`
}

// CreateCommentResponse returns the generated identifiers alongside the
// stored assessment.
type CreateCommentResponse struct {
	RawCommentID       int64                 `json:"raw_comment_id"`
	ProcessedCommentID int64                 `json:"processed_comment_id"`
	Assessment         domain.RiskAssessment `json:"assessment"`
	Method             string                `json:"method"`
}

// FeedResponse represents a page of the review feed.
type FeedResponse struct {
	Items  []domain.CommentFeedItem `json:"items"`
	Count  int                      `json:"count"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

// CommentResponse represents a single comment with its assessment.
type CommentResponse struct {
	Raw       domain.RawComment        `json:"raw"`
	Processed *domain.ProcessedComment `json:"processed,omitempty"`
}

// TaxonomyCategory is one category of the taxonomy response.
type TaxonomyCategory struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// TaxonomyResponse lists the closed category and level sets.
type TaxonomyResponse struct {
	Categories []TaxonomyCategory `json:"categories"`
	Levels     []string           `json:"levels"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func toTaxonomyResponse() TaxonomyResponse {
	entries := domain.Taxonomy()
	categories := make([]TaxonomyCategory, len(entries))
	for i, entry := range entries {
		categories[i] = TaxonomyCategory{Name: entry.Name, Subcategories: entry.Subcategories}
	}

	return TaxonomyResponse{
		Categories: categories,
		Levels:     domain.Levels(),
	}
}
