// Package normalizer converts free-form AI model output into validated
// results. Model responses arrive as text blobs that usually, but not
// always, contain JSON; the normalizer extracts the JSON, reconciles
// field values against the closed risk taxonomy with fuzzy matching,
// and never lets a malformed response escape as anything other than a
// typed error plus a well-formed empty result.
package normalizer

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gaado/risk-engine/internal/domain"
)

// Normalizer is a pure, stateless parser. Safe for concurrent use.
type Normalizer struct {
	logger Logger
}

// New returns a Normalizer that logs anomalies to logger. A nil logger
// disables logging.
func New(logger Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// assessmentPayload is the JSON shape the risk-categorization prompt
// asks the model for.
type assessmentPayload struct {
	RiskCategory    string `json:"risk_category"`
	RiskSubcategory string `json:"risk_subcategory"`
	RiskLevel       string `json:"risk_level"`
}

// translationPayload is the JSON shape the translation prompt asks the
// model for. ThreatLevel, ConfidenceScore and Risk are loosely typed:
// models sometimes return numbers as strings and vice versa.
type translationPayload struct {
	SomaliText      string `json:"somali_text"`
	EnglishText     string `json:"english_text"`
	ThreatLevel     any    `json:"threat_level"`
	ConfidenceScore any    `json:"confidence_score"`
	Risk            any    `json:"risk"`
}

// ParseAssessment extracts a RiskAssessment from a raw model response.
//
// Category and subcategory are resolved against the taxonomy with a
// fuzzy containment match; the level by exact case-insensitive match.
// A field that stays unresolved is passed through as provided, with a
// warning, so downstream consumers can surface it for manual
// classification instead of losing the model's answer.
//
// On undecodable input the returned assessment is all-empty and the
// error is an *Error with kind parse_error. The error never carries a
// partial result; callers may store the empty assessment as
// "unclassified".
func (n *Normalizer) ParseAssessment(raw string) (domain.RiskAssessment, error) {
	text := ExtractJSON(raw)

	var payload assessmentPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		n.warn("model response is not valid JSON", "error", err)
		return domain.EmptyAssessment(), NewParseError(err)
	}

	out := domain.RiskAssessment{
		Category:    strings.TrimSpace(payload.RiskCategory),
		Subcategory: strings.TrimSpace(payload.RiskSubcategory),
		Level:       strings.TrimSpace(payload.RiskLevel),
	}

	categoryResolved := false
	if out.Category != "" {
		if match, ok := domain.MatchCategory(out.Category); ok {
			out.Category = match
			categoryResolved = true
		} else {
			n.warn("unresolved risk category from model", "category", out.Category)
		}
	}

	// Subcategories are only meaningful relative to a known category.
	if out.Subcategory != "" && categoryResolved {
		if match, ok := domain.MatchSubcategory(out.Category, out.Subcategory); ok {
			out.Subcategory = match
		} else {
			n.warn("unresolved risk subcategory from model",
				"category", out.Category, "subcategory", out.Subcategory)
		}
	}

	if out.Level != "" {
		if match, ok := domain.MatchLevel(out.Level); ok {
			out.Level = match
		} else {
			n.warn("unresolved risk level from model", "level", out.Level)
		}
	}

	return out, nil
}

// ParseProcessedComment extracts a translation-path result from a raw
// model response. rawCommentID is attached as-is; it plays no role in
// parsing. Returns a zero-valued comment plus a parse_error *Error
// when the response contains no decodable JSON.
func (n *Normalizer) ParseProcessedComment(raw string, rawCommentID int64) (domain.ProcessedComment, error) {
	text := ExtractJSON(raw)

	var payload translationPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		n.warn("model translation response is not valid JSON", "error", err)
		return domain.ProcessedComment{}, NewParseError(err)
	}

	out := domain.ProcessedComment{
		RawCommentID: rawCommentID,
		IsReviewed:   false,
	}

	if translation := strings.TrimSpace(payload.EnglishText); translation != "" {
		out.TranslationEN = &translation
	}

	// Threat level becomes a slug: lowercased, trimmed.
	if s, ok := coerceString(payload.ThreatLevel); ok {
		slug := strings.ToLower(strings.TrimSpace(s))
		if slug != "" {
			out.ThreatLevel = &slug
		}
	}

	out.Confidence = n.coerceConfidence(payload.ConfidenceScore)

	if s, ok := coerceString(payload.Risk); ok {
		risk := strings.TrimSpace(s)
		if risk != "" {
			out.Risk = &risk
		}
	}

	return out, nil
}

// coerceConfidence converts a loosely typed confidence value into a
// float in [0, 1]. Out-of-range numbers are clamped with a warning;
// values that cannot be coerced become nil with a warning.
func (n *Normalizer) coerceConfidence(v any) *float64 {
	if v == nil {
		return nil
	}

	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			n.warn("invalid confidence score from model", "value", val)
			return nil
		}
		f = parsed
	default:
		n.warn("invalid confidence score from model", "value", v)
		return nil
	}

	if f < 0.0 || f > 1.0 {
		clamped := min(max(f, 0.0), 1.0)
		n.warn("confidence score out of range, clamping", "value", f, "clamped", clamped)
		f = clamped
	}
	return &f
}

// coerceString renders a loosely typed JSON value as a string. Numbers
// are formatted, everything else non-string is rejected.
func coerceString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

func (n *Normalizer) warn(msg string, keysAndValues ...any) {
	if n.logger != nil {
		n.logger.Warn(msg, keysAndValues...)
	}
}
