// Package classifier implements deterministic keyword-based risk
// classification of bank social-media comments. It uses an Aho-Corasick
// automaton for a single O(n+m) pass over the combined comment text.
package classifier

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/unicode/norm"

	"github.com/gaado/risk-engine/internal/domain"
)

// pairRef identifies one (category, subcategory) cell of the rule table.
type pairRef struct {
	catIdx int
	subIdx int
}

// Classifier scores comment text against the static keyword rule table
// and an independent severity keyword scan. It is built once and is
// safe for concurrent use: all state is read-only after construction.
type Classifier struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	// kwToPairs maps a keyword string to every rule cell that lists it.
	// Keying by string rather than pattern index handles keywords that
	// appear under more than one subcategory ("scam", "fraud", "steal"):
	// a single automaton hit credits each owning cell exactly once.
	kwToPairs map[string][]pairRef

	criticalMatcher *ahocorasick.Matcher
	highMatcher     *ahocorasick.Matcher
	mediumMatcher   *ahocorasick.Matcher

	logger Logger
}

// New builds the classification automatons from the rule table.
func New(logger Logger) *Classifier {
	c := &Classifier{
		kwToPairs: make(map[string][]pairRef),
		logger:    logger,
	}

	for ci, cat := range riskRules {
		for si, sub := range cat.Subcategories {
			for _, kw := range sub.Keywords {
				if len(c.kwToPairs[kw]) == 0 {
					c.keywords = append(c.keywords, kw)
				}
				c.kwToPairs[kw] = append(c.kwToPairs[kw], pairRef{catIdx: ci, subIdx: si})
			}
		}
	}

	c.matcher = ahocorasick.NewStringMatcher(c.keywords)
	c.criticalMatcher = ahocorasick.NewStringMatcher(criticalKeywords)
	c.highMatcher = ahocorasick.NewStringMatcher(highRiskKeywords)
	c.mediumMatcher = ahocorasick.NewStringMatcher(mediumRiskKeywords)

	if logger != nil {
		logger.Info("keyword classifier initialized",
			"categories", len(riskRules),
			"keywords", len(c.keywords))
	}

	return c
}

// Classify assesses a comment given its original Somali text and its
// English translation. Either argument may be empty; both are combined
// into a single lowercased haystack so keywords match in whichever
// language they appear. The same inputs always produce the same output.
func (c *Classifier) Classify(somaliText, englishText string) domain.RiskAssessment {
	text := normalizeText(somaliText + " " + englishText)

	catScores := make([]int, len(riskRules))
	subScores := make([][]int, len(riskRules))
	for i := range riskRules {
		subScores[i] = make([]int, len(riskRules[i].Subcategories))
	}

	matched := false
	for _, hit := range c.matcher.Match([]byte(text)) {
		if hit >= len(c.keywords) {
			continue
		}
		for _, p := range c.kwToPairs[c.keywords[hit]] {
			subScores[p.catIdx][p.subIdx]++
			catScores[p.catIdx]++
			matched = true
		}
	}

	if !matched {
		return domain.NeutralAssessment()
	}

	// Highest category score wins; ties go to the category listed
	// first in the rule table. Zero-score categories never win.
	bestCat := -1
	bestCatScore := 0
	for ci, score := range catScores {
		if score > bestCatScore {
			bestCatScore = score
			bestCat = ci
		}
	}

	// Same rule within the winning category's subcategories.
	bestSub := 0
	bestSubScore := 0
	for si, score := range subScores[bestCat] {
		if score > bestSubScore {
			bestSubScore = score
			bestSub = si
		}
	}

	assessment := domain.RiskAssessment{
		Category:    riskRules[bestCat].Category,
		Subcategory: riskRules[bestCat].Subcategories[bestSub].Subcategory,
		Level:       c.severityLevel(text),
	}

	if c.logger != nil {
		c.logger.Debug("comment classified",
			"category", assessment.Category,
			"subcategory", assessment.Subcategory,
			"level", assessment.Level,
			"score", bestCatScore)
	}

	return assessment
}

// severityLevel scans the text against the severity keyword tiers in
// strict priority order. Runs independently of category scoring, so a
// Liquidity comment can still come out Critical.
func (c *Classifier) severityLevel(text string) string {
	haystack := []byte(text)
	switch {
	case len(c.criticalMatcher.Match(haystack)) > 0:
		return domain.LevelCritical
	case len(c.highMatcher.Match(haystack)) > 0:
		return domain.LevelHigh
	case len(c.mediumMatcher.Match(haystack)) > 0:
		return domain.LevelMedium
	default:
		return domain.LevelLow
	}
}

// KeywordCount returns the number of distinct keywords in the rule table.
func (c *Classifier) KeywordCount() int {
	return len(c.keywords)
}

// normalizeText NFC-normalizes and lowercases the haystack. Social
// platforms deliver the occasional decomposed code point; composing
// first keeps matching byte-stable. Punctuation is kept as-is: several
// keywords contain apostrophes ("doesn't work", "can't withdraw") and
// stripping would break them.
func normalizeText(text string) string {
	return strings.ToLower(norm.NFC.String(text))
}
