//nolint:testpackage // Testing internal scoring requires same package access
package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaado/risk-engine/internal/domain"
)

func TestClassifier_Categories(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name            string
		somali          string
		english         string
		wantCategory    string
		wantSubcategory string
		wantLevel       string
	}{
		{
			name:            "technical failure",
			english:         "the app keeps crashing with an error, it's broken",
			wantCategory:    domain.CategoryOperational,
			wantSubcategory: "Technical Failure",
			wantLevel:       domain.LevelMedium,
		},
		{
			name:            "transaction issue",
			english:         "my transfer failed, money not received and payment failed",
			wantCategory:    domain.CategoryOperational,
			wantSubcategory: "Transaction Issue",
			wantLevel:       domain.LevelLow,
		},
		{
			name:            "account takeover",
			english:         "my account was hacked and there is an unauthorized transfer",
			wantCategory:    domain.CategorySecurity,
			wantSubcategory: "Account Takeover",
			wantLevel:       domain.LevelHigh,
		},
		{
			name:            "market panic is critical",
			english:         "there is a bank run, withdraw now before they close",
			wantCategory:    domain.CategoryLiquidity,
			wantSubcategory: "Market Panic",
			wantLevel:       domain.LevelCritical,
		},
		{
			name:            "account freezing",
			english:         "my account is frozen because of kyc and they won't release it",
			wantCategory:    domain.CategoryCompliance,
			wantSubcategory: "Account Freezing",
			wantLevel:       domain.LevelLow,
		},
		{
			name:            "sharia concern",
			english:         "is this bank halal and compliant with sharia law",
			wantCategory:    domain.CategoryCompliance,
			wantSubcategory: "Regulatory/Sharia",
			wantLevel:       domain.LevelLow,
		},
		{
			name:            "customer service complaint",
			english:         "rude staff ignored me, such bad service and poor service",
			wantCategory:    domain.CategoryReputational,
			wantSubcategory: "Customer Service",
			wantLevel:       domain.LevelMedium,
		},
		{
			name:            "competitor mention",
			english:         "dahabshiil has a nicer app than this one",
			wantCategory:    domain.CategoryGeneral,
			wantSubcategory: "Neutral (Competitor)",
			wantLevel:       domain.LevelLow,
		},
		{
			name:            "somali text matches too",
			somali:          "waafi ayaan isticmaalaa",
			wantCategory:    domain.CategoryGeneral,
			wantSubcategory: "Neutral (Competitor)",
			wantLevel:       domain.LevelLow,
		},
		{
			name:            "apostrophe keywords survive normalization",
			english:         "the app doesn't work and i can't withdraw my cash",
			wantCategory:    domain.CategoryLiquidity,
			wantSubcategory: "Withdrawal Limits",
			wantLevel:       domain.LevelLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.somali, tt.english)

			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantSubcategory, got.Subcategory)
			assert.Equal(t, tt.wantLevel, got.Level)
		})
	}
}

func TestClassifier_EmptyInputIsNeutral(t *testing.T) {
	c := New(nil)

	got := c.Classify("", "")

	assert.Equal(t, domain.CategoryGeneral, got.Category)
	assert.Equal(t, "Neutral", got.Subcategory)
	assert.Equal(t, domain.LevelLow, got.Level)
}

func TestClassifier_NoMatchIsNeutral(t *testing.T) {
	c := New(nil)

	got := c.Classify("", "xyzzy qwerty plugh")

	assert.Equal(t, domain.NeutralAssessment(), got)
}

func TestClassifier_Deterministic(t *testing.T) {
	c := New(nil)

	first := c.Classify("lacagtaydii", "my money disappeared and the transfer failed")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.Classify("lacagtaydii", "my money disappeared and the transfer failed"))
	}
}

func TestClassifier_ClosedOutput(t *testing.T) {
	c := New(nil)

	inputs := []string{
		"hacked stolen fraud scam",
		"fee charge commission cost hidden",
		"withdraw cash atm limit",
		"system down outage offline server",
		"thank you great service",
		"send me money please send dollar",
		"password login otp blocked",
		"",
		"random unrelated words entirely",
	}

	for _, in := range inputs {
		got := c.Classify("", in)

		require.True(t, domain.ValidCategory(got.Category), "category %q", got.Category)
		require.True(t, domain.ValidSubcategory(got.Category, got.Subcategory),
			"subcategory %q of %q", got.Subcategory, got.Category)
		require.True(t, domain.ValidLevel(got.Level), "level %q", got.Level)
	}
}

func TestClassifier_TieBreakFirstInTableOrder(t *testing.T) {
	c := New(nil)

	// "support" scores 1 for Operational > Technical Support and 1 for
	// Reputational > Customer Service. Operational is listed first.
	got := c.Classify("", "support")

	assert.Equal(t, domain.CategoryOperational, got.Category)
	assert.Equal(t, "Technical Support", got.Subcategory)
}

func TestClassifier_SharedKeywordCreditsAllOwners(t *testing.T) {
	c := New(nil)

	// "scam" belongs to both Reputational > Ethical & Trust and
	// Security & Fraud > Phishing & Scams. Adding "phishing" and "fake"
	// must tip the category to Security & Fraud.
	got := c.Classify("", "this is a phishing scam with a fake website")

	assert.Equal(t, domain.CategorySecurity, got.Category)
	assert.Equal(t, "Phishing & Scams", got.Subcategory)
	assert.Equal(t, domain.LevelHigh, got.Level)
}

func TestClassifier_SeverityIndependentOfCategory(t *testing.T) {
	c := New(nil)

	// "everyone" is only a severity keyword. With no category keyword
	// present the result is the neutral fallback, Low included.
	got := c.Classify("", "everyone everywhere")
	assert.Equal(t, domain.NeutralAssessment(), got)

	// With a category keyword alongside, severity escalates to Critical.
	got = c.Classify("", "everyone should check the fee")
	assert.Equal(t, domain.CategoryReputational, got.Category)
	assert.Equal(t, "Fee Transparency", got.Subcategory)
	assert.Equal(t, domain.LevelCritical, got.Level)
}

func TestClassifier_KeywordCountDeduplicates(t *testing.T) {
	c := New(nil)

	total := 0
	seen := make(map[string]struct{})
	for _, cat := range riskRules {
		for _, sub := range cat.Subcategories {
			total += len(sub.Keywords)
			for _, kw := range sub.Keywords {
				seen[kw] = struct{}{}
			}
		}
	}

	assert.Less(t, c.KeywordCount(), total)
	assert.Equal(t, len(seen), c.KeywordCount())
}
