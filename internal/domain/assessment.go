package domain

// ClassificationMethod constants.
const (
	MethodKeyword = "keyword"
	MethodModel   = "model"
)

// RiskAssessment is the output of classifying a single comment.
// Category is one of the taxonomy categories or empty, Subcategory one
// of that category's subcategories or empty, Level one of the four
// levels or empty. Never mutated after creation.
type RiskAssessment struct {
	Category    string `json:"risk_category"`
	Subcategory string `json:"risk_subcategory"`
	Level       string `json:"risk_level"`
}

// IsEmpty reports whether no field was resolved.
func (a RiskAssessment) IsEmpty() bool {
	return a.Category == "" && a.Subcategory == "" && a.Level == ""
}

// NeutralAssessment is the no-signal fallback: returned when keyword
// scoring finds nothing to classify.
func NeutralAssessment() RiskAssessment {
	return RiskAssessment{
		Category:    CategoryGeneral,
		Subcategory: "Neutral",
		Level:       LevelLow,
	}
}

// ReviewAssessment is the sentinel returned when the model refused to
// answer for safety reasons. The level is High rather than Low because
// a safety-triggering comment deserves human attention even though
// automated categorization failed.
func ReviewAssessment() RiskAssessment {
	return RiskAssessment{
		Category:    CategoryGeneral,
		Subcategory: "Neutral",
		Level:       LevelHigh,
	}
}

// EmptyAssessment signals "classification unavailable": the caller
// should retry or escalate. Distinct from ReviewAssessment, which is a
// positive flag for manual review.
func EmptyAssessment() RiskAssessment {
	return RiskAssessment{}
}
