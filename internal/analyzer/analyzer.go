// Package analyzer routes comments through one of two assessment
// paths: the deterministic keyword classifier (offline, no I/O) or a
// generation model whose free-form answer is validated by the
// normalizer. Both paths produce the same closed result shape, so
// callers never see raw model output.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gaado/risk-engine/internal/classifier"
	"github.com/gaado/risk-engine/internal/domain"
	"github.com/gaado/risk-engine/internal/geminiclient"
	"github.com/gaado/risk-engine/internal/normalizer"
	"github.com/gaado/risk-engine/internal/telemetry"
)

// Generator is the slice of the Gemini client the analyzer needs.
type Generator interface {
	GenerateContent(ctx context.Context, systemInstruction, prompt string) (*geminiclient.GenerateResult, error)
	Model() string
}

// Logger defines the logging interface used by the analyzer.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Analyzer owns the local classifier and the model path. It is built
// once with its collaborators injected and is safe for concurrent use.
type Analyzer struct {
	local     *classifier.Classifier
	gen       Generator
	norm      *normalizer.Normalizer
	telemetry *telemetry.Provider
	logger    Logger
}

// New constructs an Analyzer. gen may be nil, in which case model-based
// assessment is unavailable and AssessWithModel returns an error. tp
// may be nil to disable metrics.
func New(local *classifier.Classifier, gen Generator, norm *normalizer.Normalizer, tp *telemetry.Provider, logger Logger) *Analyzer {
	return &Analyzer{local: local, gen: gen, norm: norm, telemetry: tp, logger: logger}
}

// ModelAvailable reports whether the model path is configured.
func (a *Analyzer) ModelAvailable() bool {
	return a.gen != nil
}

// ModelName returns the configured generation model, or empty when the
// model path is not configured.
func (a *Analyzer) ModelName() string {
	if a.gen == nil {
		return ""
	}
	return a.gen.Model()
}

// AssessLocal classifies a comment with the keyword classifier. Never
// fails; empty inputs fall through to the neutral result.
func (a *Analyzer) AssessLocal(somaliText, englishText string) domain.RiskAssessment {
	return a.local.Classify(somaliText, englishText)
}

// AssessWithModel classifies a comment via the generation model.
//
// Outcomes:
//   - normal finish with parseable JSON: the validated assessment.
//   - safety block: the General/Neutral/High review sentinel with a nil
//     error. A refusal is a positive signal that the comment needs
//     human attention, not a failure.
//   - any other abnormal finish, empty response, or unparseable output:
//     an all-empty assessment plus a typed *normalizer.Error so the
//     caller can retry or escalate.
//
// Transport failures are returned wrapped and unclassified; retry
// policy belongs to the caller.
func (a *Analyzer) AssessWithModel(ctx context.Context, somaliText, englishText string) (domain.RiskAssessment, error) {
	if a.gen == nil {
		return domain.EmptyAssessment(), fmt.Errorf("model assessment requested but no generation client configured")
	}

	a.recordModelCall(ctx)
	result, err := a.gen.GenerateContent(ctx, riskSystemInstruction, riskPrompt(somaliText, englishText))
	if err != nil {
		if errors.Is(err, geminiclient.ErrNoCandidates) {
			a.logWarn("model returned no candidates")
			return domain.EmptyAssessment(), normalizer.NewEmptyResponseError()
		}
		return domain.EmptyAssessment(), fmt.Errorf("generate risk assessment: %w", err)
	}

	switch {
	case result.Blocked():
		a.logWarn("model refused comment for safety reasons, flagging for review",
			"finish_reason", result.FinishReason)
		a.recordSafetyBlock(ctx)
		return domain.ReviewAssessment(), nil
	case !result.Normal():
		a.logWarn("model finished abnormally", "finish_reason", result.FinishReason)
		return domain.EmptyAssessment(), normalizer.NewAbnormalFinishError(result.FinishReason)
	case result.Text == "":
		a.logWarn("model finished normally but returned no text")
		return domain.EmptyAssessment(), normalizer.NewEmptyResponseError()
	}

	return a.norm.ParseAssessment(result.Text)
}

// Assess picks the model path when requested and available, falling
// back to the local classifier otherwise. The local path also serves
// as the fallback when the model path fails entirely at transport
// level, so a flaky upstream degrades to deterministic behavior
// instead of an outage.
func (a *Analyzer) Assess(ctx context.Context, somaliText, englishText string, useModel bool) (domain.RiskAssessment, string, error) {
	if !useModel || a.gen == nil {
		return a.AssessLocal(somaliText, englishText), domain.MethodKeyword, nil
	}

	assessment, err := a.AssessWithModel(ctx, somaliText, englishText)
	if err != nil {
		var clsErr *normalizer.Error
		if !errors.As(err, &clsErr) {
			a.logWarn("model path unavailable, falling back to keyword classifier", "error", err)
			return a.AssessLocal(somaliText, englishText), domain.MethodKeyword, nil
		}
		return assessment, domain.MethodModel, err
	}
	return assessment, domain.MethodModel, nil
}

// Translate runs the translation path for a raw comment: the model
// translates Somali to English and estimates a threat level, and the
// answer is parsed into a ProcessedComment keyed to the raw comment.
func (a *Analyzer) Translate(ctx context.Context, comment domain.RawComment) (domain.ProcessedComment, error) {
	if a.gen == nil {
		return domain.ProcessedComment{}, fmt.Errorf("translation requested but no generation client configured")
	}

	a.recordModelCall(ctx)
	result, err := a.gen.GenerateContent(ctx, translationSystemInstruction, comment.Content)
	if err != nil {
		if errors.Is(err, geminiclient.ErrNoCandidates) {
			return domain.ProcessedComment{}, normalizer.NewEmptyResponseError()
		}
		return domain.ProcessedComment{}, fmt.Errorf("generate translation: %w", err)
	}

	switch {
	case result.Blocked():
		a.recordSafetyBlock(ctx)
		return domain.ProcessedComment{}, normalizer.NewSafetyBlockedError(result.FinishReason)
	case !result.Normal():
		return domain.ProcessedComment{}, normalizer.NewAbnormalFinishError(result.FinishReason)
	case result.Text == "":
		return domain.ProcessedComment{}, normalizer.NewEmptyResponseError()
	}

	processed, err := a.norm.ParseProcessedComment(result.Text, comment.ID)
	if err != nil {
		return domain.ProcessedComment{}, err
	}
	processed.ModelName = a.gen.Model()
	return processed, nil
}

func (a *Analyzer) recordModelCall(ctx context.Context) {
	if a.telemetry != nil {
		a.telemetry.RecordModelCall(ctx)
	}
}

func (a *Analyzer) recordSafetyBlock(ctx context.Context) {
	if a.telemetry != nil {
		a.telemetry.RecordSafetyBlock(ctx)
	}
}

func (a *Analyzer) logWarn(msg string, keysAndValues ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, keysAndValues...)
	}
}
