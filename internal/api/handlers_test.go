//nolint:testpackage // Testing internal handlers requires same package access
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaado/risk-engine/internal/analyzer"
	"github.com/gaado/risk-engine/internal/classifier"
	"github.com/gaado/risk-engine/internal/database"
	"github.com/gaado/risk-engine/internal/domain"
	"github.com/gaado/risk-engine/internal/geminiclient"
	"github.com/gaado/risk-engine/internal/normalizer"
	"github.com/gaado/risk-engine/internal/processor"
	"github.com/gaado/risk-engine/internal/testhelpers"
)

// scriptedGenerator returns canned model replies in order.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []string
}

func (g *scriptedGenerator) GenerateContent(_ context.Context, _, _ string) (*geminiclient.GenerateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return &geminiclient.GenerateResult{Text: reply, FinishReason: "STOP"}, nil
}

func (g *scriptedGenerator) Model() string { return "test-model" }

func newTestHandler(store *testhelpers.MemStore, gen analyzer.Generator) *Handler {
	logger := testhelpers.NopLogger{}
	cls := classifier.New(logger)
	anl := analyzer.New(cls, gen, normalizer.New(logger), nil, logger)
	batch := processor.NewBatchProcessor(anl, store, nil, nil, 2, false, logger)

	return NewHandler(HandlerConfig{
		Classifier: cls,
		Analyzer:   anl,
		Batch:      batch,
		Store:      store,
		Logger:     logger,
		Service:    "risk-engine",
		Version:    "1.0.0",
	})
}

func newTestRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, handler, nil)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	w := doJSON(router, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "risk-engine", response.Service)
}

func TestReadyCheck(t *testing.T) {
	handler := newTestHandler(testhelpers.NewMemStore(), nil)
	handler.AddReadyCheck("database", func(context.Context) error { return nil })
	router := newTestRouter(handler)

	w := doJSON(router, http.MethodGet, "/ready", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
}

func TestReadyCheck_FailingDependency(t *testing.T) {
	handler := newTestHandler(testhelpers.NewMemStore(), nil)
	handler.AddReadyCheck("database", func(context.Context) error { return errors.New("connection refused") })
	router := newTestRouter(handler)

	w := doJSON(router, http.MethodGet, "/ready", nil)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not ready")
}

func TestClassify(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	w := doJSON(router, http.MethodPost, "/api/v1/classify", ClassifyRequest{
		EnglishText: "my account was hacked and money was stolen",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response ClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, domain.CategorySecurity, response.Assessment.Category)
	assert.Equal(t, "Account Takeover", response.Assessment.Subcategory)
	assert.Equal(t, domain.LevelHigh, response.Assessment.Level)
	assert.Equal(t, domain.MethodKeyword, response.Method)
}

func TestClassify_NeutralWhenNoMatch(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	w := doJSON(router, http.MethodPost, "/api/v1/classify", ClassifyRequest{
		EnglishText: "what a sunny morning",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response ClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, domain.CategoryGeneral, response.Assessment.Category)
	assert.Equal(t, domain.LevelLow, response.Assessment.Level)
}

func TestClassify_MissingText(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	w := doJSON(router, http.MethodPost, "/api/v1/classify", ClassifyRequest{})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassifyBatch(t *testing.T) {
	store := testhelpers.NewMemStore()
	router := newTestRouter(newTestHandler(store, nil))

	w := doJSON(router, http.MethodPost, "/api/v1/classify/batch", BatchClassifyRequest{
		Comments: []BatchComment{
			{Content: "lacagtii ayaa luntay, my money disappeared after the transfer"},
			{PlatformID: "fb-2", PostID: 17, Content: "mahadsanid, great experience"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response BatchClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Total)
	assert.Equal(t, 2, response.Success)
	assert.Zero(t, response.Failed)

	raws := store.Raws()
	require.Len(t, raws, 2)
	assert.Len(t, store.Processed(), 2)
	// A missing platform ID is generated server-side; numeric post IDs
	// are stored as-is.
	assert.NotEmpty(t, raws[0].PlatformID)
	assert.Equal(t, "fb-2", raws[1].PlatformID)
	assert.Equal(t, int64(17), raws[1].PostID)
}

func TestClassifyBatch_PartialIngestIsPerItem(t *testing.T) {
	store := testhelpers.NewMemStore()
	store.InsertRawErr = errors.New("connection reset")
	store.InsertRawErrPlatform = "fb-bad"
	router := newTestRouter(newTestHandler(store, nil))

	w := doJSON(router, http.MethodPost, "/api/v1/classify/batch", BatchClassifyRequest{
		Comments: []BatchComment{
			{PlatformID: "fb-1", Content: "my account was hacked"},
			{PlatformID: "fb-bad", Content: "unauthorized transfer"},
			{PlatformID: "fb-3", Content: "mahadsanid"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response BatchClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 3, response.Total)
	assert.Equal(t, 2, response.Success)
	assert.Equal(t, 1, response.Failed)

	// Results stay aligned with the request; only the failed item
	// carries an error and the other two were stored and assessed.
	require.Len(t, response.Results, 3)
	assert.NotNil(t, response.Results[0].Processed)
	assert.Empty(t, response.Results[0].Error)
	assert.Nil(t, response.Results[1].Processed)
	assert.NotEmpty(t, response.Results[1].Error)
	assert.NotNil(t, response.Results[2].Processed)

	assert.Len(t, store.Raws(), 2)
	assert.Len(t, store.Processed(), 2)
}

func TestClassifyBatch_EmptyList(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	w := doJSON(router, http.MethodPost, "/api/v1/classify/batch", BatchClassifyRequest{
		Comments: []BatchComment{},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyze_ModelUnavailable(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	w := doJSON(router, http.MethodPost, "/api/v1/analyze", AnalyzeRequest{Content: "hello"})

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAnalyze(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		`{"somali_text": "lacagta", "english_text": "the money is gone", "threat_level": "High", "confidence_score": 0.9}`,
		`{"risk_category": "Liquidity Risk", "risk_subcategory": "Withdrawal Limits", "risk_level": "High"}`,
	}}
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), gen))

	w := doJSON(router, http.MethodPost, "/api/v1/analyze", AnalyzeRequest{Content: "lacagta"})

	require.Equal(t, http.StatusOK, w.Code)

	var response AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Empty(t, response.ErrorKind)
	assert.Equal(t, domain.MethodModel, response.Method)
	assert.Equal(t, "Liquidity Risk", response.Assessment.Category)
	require.NotNil(t, response.Translation)
	require.NotNil(t, response.Translation.TranslationEN)
	assert.Equal(t, "the money is gone", *response.Translation.TranslationEN)
}

func TestAnalyze_MalformedModelOutputIsNot5xx(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		"I cannot answer that in JSON, sorry.",
		"still not JSON",
	}}
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), gen))

	w := doJSON(router, http.MethodPost, "/api/v1/analyze", AnalyzeRequest{Content: "hello"})

	require.Equal(t, http.StatusOK, w.Code)

	var response AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, normalizer.KindParseError, response.ErrorKind)
	assert.True(t, response.Assessment.IsEmpty())
}

func TestCreateComment(t *testing.T) {
	store := testhelpers.NewMemStore()
	router := newTestRouter(newTestHandler(store, nil))

	w := doJSON(router, http.MethodPost, "/api/v1/comments", CreateCommentRequest{
		PlatformID: "fb-99",
		PostID:     42,
		Content:    "this looks like a phishing scam link",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var response CreateCommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(1), response.RawCommentID)
	assert.Equal(t, int64(1), response.ProcessedCommentID)
	assert.Equal(t, domain.CategorySecurity, response.Assessment.Category)
	assert.Equal(t, "Phishing & Scams", response.Assessment.Subcategory)

	raws := store.Raws()
	require.Len(t, raws, 1)
	assert.Equal(t, int64(42), raws[0].PostID)
}

func TestCreateComment_MissingContent(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	w := doJSON(router, http.MethodPost, "/api/v1/comments", CreateCommentRequest{PlatformID: "fb-1"})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListComments(t *testing.T) {
	store := testhelpers.NewMemStore()
	router := newTestRouter(newTestHandler(store, nil))

	doJSON(router, http.MethodPost, "/api/v1/comments", CreateCommentRequest{Content: "account hacked"})
	doJSON(router, http.MethodPost, "/api/v1/comments", CreateCommentRequest{Content: "nice weather"})

	w := doJSON(router, http.MethodGet, "/api/v1/comments?category=Security+%26+Fraud", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var response FeedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, 1, response.Count)
	assert.Equal(t, "account hacked", response.Items[0].Raw.Content)
}

func TestListComments_UnknownCategory(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	w := doJSON(router, http.MethodGet, "/api/v1/comments?category=Weather", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetComment(t *testing.T) {
	store := testhelpers.NewMemStore()
	router := newTestRouter(newTestHandler(store, nil))

	doJSON(router, http.MethodPost, "/api/v1/comments", CreateCommentRequest{Content: "fraud alert"})

	w := doJSON(router, http.MethodGet, "/api/v1/comments/1", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var response CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "fraud alert", response.Raw.Content)
	require.NotNil(t, response.Processed)
	assert.Equal(t, domain.CategorySecurity, response.Processed.Category)
}

func TestGetComment_NotFound(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	w := doJSON(router, http.MethodGet, "/api/v1/comments/42", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewComment(t *testing.T) {
	store := testhelpers.NewMemStore()
	router := newTestRouter(newTestHandler(store, nil))

	doJSON(router, http.MethodPost, "/api/v1/comments", CreateCommentRequest{Content: "scam"})

	w := doJSON(router, http.MethodPost, "/api/v1/comments/1/review", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.Processed()[0].IsReviewed)
}

func TestReviewComment_NotFound(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	w := doJSON(router, http.MethodPost, "/api/v1/comments/7/review", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTaxonomy(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	w := doJSON(router, http.MethodGet, "/api/v1/taxonomy", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var response TaxonomyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Categories, 6)
	assert.Equal(t, []string{"Low", "Medium", "High", "Critical"}, response.Levels)
	assert.Equal(t, domain.CategoryOperational, response.Categories[0].Name)
}

func TestGetStats(t *testing.T) {
	store := testhelpers.NewMemStore()
	router := newTestRouter(newTestHandler(store, nil))

	doJSON(router, http.MethodPost, "/api/v1/comments", CreateCommentRequest{Content: "account hacked"})
	doJSON(router, http.MethodPost, "/api/v1/comments", CreateCommentRequest{Content: "my account was hacked too"})

	w := doJSON(router, http.MethodGet, "/api/v1/stats", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Counts []database.CategoryCount `json:"counts"`
		Total  int64                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(2), response.Total)
	require.Len(t, response.Counts, 1)
	assert.Equal(t, domain.CategorySecurity, response.Counts[0].Category)
}

func TestMalformedBodiesReturn400(t *testing.T) {
	router := newTestRouter(newTestHandler(testhelpers.NewMemStore(), nil))

	paths := []string{
		"/api/v1/classify",
		"/api/v1/classify/batch",
		"/api/v1/analyze",
		"/api/v1/comments",
	}
	for _, path := range paths {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "path %s", path)
	}
}
