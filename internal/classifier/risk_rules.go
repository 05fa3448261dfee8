package classifier

import "github.com/gaado/risk-engine/internal/domain"

// subcategoryRule maps one subcategory to the lowercase keywords and
// phrases that signal it. Matching is plain substring containment over
// the combined comment text, so multi-word phrases ("bank run",
// "money not received") match across word boundaries.
type subcategoryRule struct {
	Subcategory string
	Keywords    []string
}

// categoryRule groups the subcategory rules of one taxonomy category.
type categoryRule struct {
	Category      string
	Subcategories []subcategoryRule
}

// riskRules is the static keyword pattern table. Order matters: when
// two categories (or two subcategories) score equally, the one listed
// first wins. That tie-break is inherited from the original rule set
// and must not be replaced with an alphabetical or score-weighted one,
// since doing so would silently change classification outputs.
var riskRules = []categoryRule{
	{domain.CategoryOperational, []subcategoryRule{
		{"Technical Failure", []string{
			"crash", "bug", "error", "not working", "broken", "fail",
			"doesn't work", "not functioning",
		}},
		{"Transaction Issue", []string{
			"transaction", "debit", "credit", "transfer", "remittance",
			"money not received", "payment failed", "deducted", "withdrawal",
		}},
		{"Access & Identity", []string{
			"password", "login", "otp", "sms", "authentication", "blocked",
			"access", "account locked",
		}},
		{"System Downtime", []string{
			"system down", "offline", "server", "outage", "not available", "down",
		}},
		{"Technical Support", []string{
			"how to", "how can", "help", "support", "question", "setup",
			"create account", "open account",
		}},
	}},
	{domain.CategoryReputational, []subcategoryRule{
		{"Customer Service", []string{
			"rude", "ignored", "wait", "slow", "bad service", "poor service",
			"help me", "customer care", "support",
		}},
		{"Ethical & Trust", []string{
			"corruption", "scam", "fraud", "thief", "steal", "unfair",
			"dishonest", "trust", "not trustworthy",
		}},
		{"Fee Transparency", []string{
			"fee", "charge", "commission", "cost", "hidden", "unexplained",
			"expensive", "high rate", "deduct",
		}},
	}},
	{domain.CategoryLiquidity, []subcategoryRule{
		{"Withdrawal Limits", []string{
			"withdraw", "withdrawal", "limit", "cash", "atm", "can't withdraw",
		}},
		{"Market Panic", []string{
			"take your money", "withdraw now", "close", "bank run", "panic",
			"get out",
		}},
		{"Currency Availability", []string{
			"currency", "usd", "dollar", "shortage", "not available",
		}},
	}},
	{domain.CategorySecurity, []subcategoryRule{
		{"Phishing & Scams", []string{
			"phishing", "fake", "scam", "fraudulent", "fraud",
		}},
		{"Account Takeover", []string{
			"hacked", "hack", "stolen", "disappeared", "missing money",
			"unauthorized",
		}},
		{"Data Privacy", []string{
			"privacy", "leaked", "data", "personal info", "information",
			"statement",
		}},
		{"Safety", []string{
			"safety", "safe", "secure", "security", "theft", "steal", "rob",
			"afraid", "fear", "danger",
		}},
	}},
	{domain.CategoryCompliance, []subcategoryRule{
		{"Account Freezing", []string{
			"frozen", "blocked", "freeze", "can't access", "won't release",
			"aml", "kyc",
		}},
		{"Regulatory/Sharia", []string{
			"sharia", "islamic", "halal", "haram", "regulatory", "law",
			"compliance", "shirk",
		}},
	}},
	{domain.CategoryGeneral, []subcategoryRule{
		{"Neutral", []string{
			"good", "great", "excellent", "thank", "thanks", "pray", "prayer",
			"compliment",
		}},
		{"Spam/Neutral", []string{
			"send me", "money", "dollar", "please send", "help me with money",
		}},
		{"Feedback", []string{
			"idea", "suggestion", "feature", "improve", "better", "recommend",
		}},
		{"Neutral (Competitor)", []string{
			"waafi", "dahabshiil", "salaam bank", "competitor", "other bank",
		}},
	}},
}

// Severity keyword sets, checked in strict priority order (critical
// before high before medium) independently of the category result.
// One hit in a tier is sufficient; there is no scoring within levels.
var (
	criticalKeywords = []string{
		"bank run", "withdraw everything", "close", "panic", "system down",
		"outage", "everyone",
	}
	highRiskKeywords = []string{
		"hacked", "stolen", "fraud", "scam", "corruption", "thief", "steal",
		"missing money", "failed transaction", "money disappeared",
	}
	mediumRiskKeywords = []string{
		"problem", "issue", "bad", "poor", "slow", "error", "not working",
		"complaint",
	}
)
