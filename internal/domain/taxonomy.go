// Package domain holds the core types shared across the risk engine:
// the risk taxonomy, comments, and assessment results.
package domain

import "strings"

// Risk level constants, ordered by severity.
const (
	LevelLow      = "Low"
	LevelMedium   = "Medium"
	LevelHigh     = "High"
	LevelCritical = "Critical"
)

// Category constants.
const (
	CategoryOperational  = "Operational Risk"
	CategoryReputational = "Reputational Risk"
	CategoryLiquidity    = "Liquidity Risk"
	CategorySecurity     = "Security & Fraud"
	CategoryCompliance   = "Compliance & Legal"
	CategoryGeneral      = "General"
)

// CategoryEntry pairs a category name with its valid subcategories.
// The taxonomy is kept as an ordered slice rather than a map: fuzzy
// matching and score tie-breaks depend on a fixed, documented iteration
// order (the order of this table).
type CategoryEntry struct {
	Name          string
	Subcategories []string
}

// taxonomy is the closed set of risk categories and subcategories.
// Read-only after initialization; collaborators may list it but never
// mutate it.
var taxonomy = []CategoryEntry{
	{CategoryOperational, []string{
		"Technical Failure", "Transaction Issue", "Access & Identity",
		"System Downtime", "Technical Support",
	}},
	{CategoryReputational, []string{
		"Customer Service", "Ethical & Trust", "Fee Transparency",
	}},
	{CategoryLiquidity, []string{
		"Withdrawal Limits", "Market Panic", "Currency Availability",
	}},
	{CategorySecurity, []string{
		"Phishing & Scams", "Account Takeover", "Data Privacy", "Safety",
	}},
	{CategoryCompliance, []string{
		"Account Freezing", "Regulatory/Sharia",
	}},
	{CategoryGeneral, []string{
		"Neutral", "Spam/Neutral", "Feedback", "Neutral (Competitor)",
	}},
}

// levels is the closed ordered set of risk levels.
var levels = []string{LevelLow, LevelMedium, LevelHigh, LevelCritical}

// Taxonomy returns the ordered category table. Callers must treat the
// returned slices as read-only.
func Taxonomy() []CategoryEntry {
	return taxonomy
}

// Levels returns the ordered risk levels, least severe first.
func Levels() []string {
	return levels
}

// ValidCategory reports whether name is exactly one of the taxonomy
// categories (case-sensitive).
func ValidCategory(name string) bool {
	for _, entry := range taxonomy {
		if entry.Name == name {
			return true
		}
	}
	return false
}

// SubcategoriesFor returns the valid subcategories for a category, or
// nil if the category is unknown.
func SubcategoriesFor(category string) []string {
	for _, entry := range taxonomy {
		if entry.Name == category {
			return entry.Subcategories
		}
	}
	return nil
}

// ValidSubcategory reports whether sub is a valid subcategory of category.
func ValidSubcategory(category, sub string) bool {
	for _, s := range SubcategoriesFor(category) {
		if s == sub {
			return true
		}
	}
	return false
}

// ValidLevel reports whether name is exactly one of the four levels.
func ValidLevel(name string) bool {
	for _, l := range levels {
		if l == name {
			return true
		}
	}
	return false
}

// MatchCategory resolves a candidate string to a canonical category
// name. Exact matches win; otherwise a case-insensitive bidirectional
// substring match is tried against each category in table order, and
// the first hit wins. Returns ("", false) when nothing matches.
//
// The substring heuristic is deliberately loose: "Reputational"
// resolves to "Reputational Risk", but "security risk" does not
// resolve to "Security & Fraud" because neither string contains the
// other. Callers keep the unresolved value rather than discarding it.
func MatchCategory(candidate string) (string, bool) {
	if ValidCategory(candidate) {
		return candidate, true
	}
	lower := strings.ToLower(strings.TrimSpace(candidate))
	if lower == "" {
		return "", false
	}
	for _, entry := range taxonomy {
		valid := strings.ToLower(entry.Name)
		if strings.Contains(lower, valid) || strings.Contains(valid, lower) {
			return entry.Name, true
		}
	}
	return "", false
}

// MatchSubcategory resolves a candidate subcategory within a resolved
// category using the same bidirectional substring strategy as
// MatchCategory, restricted to that category's subcategories.
func MatchSubcategory(category, candidate string) (string, bool) {
	subs := SubcategoriesFor(category)
	for _, s := range subs {
		if s == candidate {
			return s, true
		}
	}
	lower := strings.ToLower(strings.TrimSpace(candidate))
	if lower == "" {
		return "", false
	}
	for _, s := range subs {
		valid := strings.ToLower(s)
		if strings.Contains(lower, valid) || strings.Contains(valid, lower) {
			return s, true
		}
	}
	return "", false
}

// MatchLevel resolves a candidate risk level by exact case-insensitive
// comparison only. Fuzzy substring matching is intentionally not
// applied to levels ("high rates" must not resolve to "High").
func MatchLevel(candidate string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(candidate))
	for _, l := range levels {
		if strings.ToLower(l) == lower {
			return l, true
		}
	}
	return "", false
}
