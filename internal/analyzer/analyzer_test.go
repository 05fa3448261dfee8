//nolint:testpackage // Testing internal routing requires same package access
package analyzer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaado/risk-engine/internal/classifier"
	"github.com/gaado/risk-engine/internal/domain"
	"github.com/gaado/risk-engine/internal/geminiclient"
	"github.com/gaado/risk-engine/internal/normalizer"
	"github.com/gaado/risk-engine/internal/telemetry"
)

// promauto registers against the global registry, so a single Provider
// is shared across the package's tests.
var (
	testTelemetry *telemetry.Provider
	telemetryOnce sync.Once
)

func getTelemetry() *telemetry.Provider {
	telemetryOnce.Do(func() {
		testTelemetry = telemetry.NewProvider()
	})
	return testTelemetry
}

// stubGenerator returns canned responses without network I/O.
type stubGenerator struct {
	result *geminiclient.GenerateResult
	err    error
	prompt string
	system string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, prompt string) (*geminiclient.GenerateResult, error) {
	s.system = system
	s.prompt = prompt
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

func newAnalyzer(gen Generator) *Analyzer {
	return New(classifier.New(nil), gen, normalizer.New(nil), nil, nil)
}

func TestAssessWithModel_Normal(t *testing.T) {
	gen := &stubGenerator{result: &geminiclient.GenerateResult{
		Text:         `{"risk_category": "Liquidity Risk", "risk_subcategory": "Market Panic", "risk_level": "Critical"}`,
		FinishReason: "STOP",
	}}
	a := newAnalyzer(gen)

	got, err := a.AssessWithModel(context.Background(), "qaad lacagtaada", "take your money out")

	require.NoError(t, err)
	assert.Equal(t, domain.CategoryLiquidity, got.Category)
	assert.Equal(t, "Market Panic", got.Subcategory)
	assert.Equal(t, domain.LevelCritical, got.Level)

	assert.Contains(t, gen.prompt, "qaad lacagtaada")
	assert.Contains(t, gen.prompt, "take your money out")
	assert.Contains(t, gen.system, "RISK CATEGORIES AND SUBCATEGORIES")
}

func TestAssessWithModel_SafetyBlockedIsReviewSentinel(t *testing.T) {
	gen := &stubGenerator{result: &geminiclient.GenerateResult{FinishReason: "SAFETY"}}
	a := newAnalyzer(gen)

	got, err := a.AssessWithModel(context.Background(), "", "threatening comment")

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewAssessment(), got)
	assert.Equal(t, domain.LevelHigh, got.Level)
}

func TestAssessWithModel_AbnormalFinishIsEmpty(t *testing.T) {
	gen := &stubGenerator{result: &geminiclient.GenerateResult{FinishReason: "MAX_TOKENS"}}
	a := newAnalyzer(gen)

	got, err := a.AssessWithModel(context.Background(), "", "some comment")

	require.Error(t, err)
	var clsErr *normalizer.Error
	require.ErrorAs(t, err, &clsErr)
	assert.Equal(t, normalizer.KindAbnormalFinish, clsErr.Kind)
	assert.True(t, got.IsEmpty())
}

func TestAssessWithModel_NoCandidates(t *testing.T) {
	gen := &stubGenerator{err: geminiclient.ErrNoCandidates}
	a := newAnalyzer(gen)

	got, err := a.AssessWithModel(context.Background(), "", "comment")

	var clsErr *normalizer.Error
	require.ErrorAs(t, err, &clsErr)
	assert.Equal(t, normalizer.KindEmptyResponse, clsErr.Kind)
	assert.True(t, got.IsEmpty())
}

func TestAssessWithModel_EmptyText(t *testing.T) {
	gen := &stubGenerator{result: &geminiclient.GenerateResult{FinishReason: "STOP"}}
	a := newAnalyzer(gen)

	got, err := a.AssessWithModel(context.Background(), "", "comment")

	var clsErr *normalizer.Error
	require.ErrorAs(t, err, &clsErr)
	assert.Equal(t, normalizer.KindEmptyResponse, clsErr.Kind)
	assert.True(t, got.IsEmpty())
}

func TestAssessWithModel_ParseFailure(t *testing.T) {
	gen := &stubGenerator{result: &geminiclient.GenerateResult{
		Text:         "I cannot classify this comment.",
		FinishReason: "STOP",
	}}
	a := newAnalyzer(gen)

	got, err := a.AssessWithModel(context.Background(), "", "comment")

	var clsErr *normalizer.Error
	require.ErrorAs(t, err, &clsErr)
	assert.Equal(t, normalizer.KindParseError, clsErr.Kind)
	assert.True(t, got.IsEmpty())
}

func TestAssess_LocalPath(t *testing.T) {
	a := newAnalyzer(nil)

	got, method, err := a.Assess(context.Background(), "", "my account was hacked, unauthorized transfer", true)

	require.NoError(t, err)
	assert.Equal(t, domain.MethodKeyword, method)
	assert.Equal(t, domain.CategorySecurity, got.Category)
}

func TestAssess_TransportFailureFallsBackToLocal(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection refused")}
	a := newAnalyzer(gen)

	got, method, err := a.Assess(context.Background(), "", "there is a bank run, withdraw now", true)

	require.NoError(t, err)
	assert.Equal(t, domain.MethodKeyword, method)
	assert.Equal(t, domain.LevelCritical, got.Level)
}

func TestAssess_ModelErrorsAreNotMasked(t *testing.T) {
	gen := &stubGenerator{result: &geminiclient.GenerateResult{
		Text:         "not json",
		FinishReason: "STOP",
	}}
	a := newAnalyzer(gen)

	got, method, err := a.Assess(context.Background(), "", "comment", true)

	require.Error(t, err)
	assert.Equal(t, domain.MethodModel, method)
	assert.True(t, got.IsEmpty())
}

func TestTranslate(t *testing.T) {
	gen := &stubGenerator{result: &geminiclient.GenerateResult{
		Text:         `{"somali_text": "waan ku mahadsan", "english_text": "thank you", "threat_level": "Low", "confidence_score": 0.99}`,
		FinishReason: "STOP",
	}}
	a := newAnalyzer(gen)

	got, err := a.Translate(context.Background(), domain.RawComment{ID: 5, Content: "waan ku mahadsan"})

	require.NoError(t, err)
	assert.Equal(t, int64(5), got.RawCommentID)
	require.NotNil(t, got.TranslationEN)
	assert.Equal(t, "thank you", *got.TranslationEN)
	require.NotNil(t, got.ThreatLevel)
	assert.Equal(t, "low", *got.ThreatLevel)
	assert.Equal(t, "stub-model", got.ModelName)
	assert.Equal(t, "waan ku mahadsan", gen.prompt)
	assert.Contains(t, gen.system, "finance support specialist")
}

func TestTranslate_SafetyBlocked(t *testing.T) {
	gen := &stubGenerator{result: &geminiclient.GenerateResult{FinishReason: "SAFETY"}}
	a := newAnalyzer(gen)

	_, err := a.Translate(context.Background(), domain.RawComment{ID: 5, Content: "x"})

	var clsErr *normalizer.Error
	require.ErrorAs(t, err, &clsErr)
	assert.Equal(t, normalizer.KindSafetyBlocked, clsErr.Kind)
}

func TestModelPathCountersMove(t *testing.T) {
	tp := getTelemetry()
	callsBefore := testutil.ToFloat64(tp.Metrics.ModelCalls)
	blocksBefore := testutil.ToFloat64(tp.Metrics.ModelSafetyBlocks)

	gen := &stubGenerator{result: &geminiclient.GenerateResult{FinishReason: "SAFETY"}}
	a := New(classifier.New(nil), gen, normalizer.New(nil), tp, nil)

	got, err := a.AssessWithModel(context.Background(), "", "threatening comment")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewAssessment(), got)

	assert.Equal(t, callsBefore+1, testutil.ToFloat64(tp.Metrics.ModelCalls))
	assert.Equal(t, blocksBefore+1, testutil.ToFloat64(tp.Metrics.ModelSafetyBlocks))

	_, err = a.Translate(context.Background(), domain.RawComment{ID: 1, Content: "x"})
	require.Error(t, err)

	assert.Equal(t, callsBefore+2, testutil.ToFloat64(tp.Metrics.ModelCalls))
	assert.Equal(t, blocksBefore+2, testutil.ToFloat64(tp.Metrics.ModelSafetyBlocks))
}

func TestModelAvailability(t *testing.T) {
	withModel := newAnalyzer(&stubGenerator{})
	assert.True(t, withModel.ModelAvailable())
	assert.Equal(t, "stub-model", withModel.ModelName())

	withoutModel := newAnalyzer(nil)
	assert.False(t, withoutModel.ModelAvailable())
	assert.Empty(t, withoutModel.ModelName())

	_, err := withoutModel.AssessWithModel(context.Background(), "", "x")
	require.Error(t, err)
}
