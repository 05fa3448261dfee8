package domain

import "time"

// RawComment is a social-media comment as collected, before any
// translation or risk analysis.
type RawComment struct {
	ID          int64     `db:"id"            json:"id"`
	PlatformID  string    `db:"platform_id"   json:"platform_id"` // upstream comment id (e.g. Facebook)
	PostID      int64     `db:"post_id"       json:"post_id"`
	Content     string    `db:"content"       json:"content"` // original Somali text
	Author      string    `db:"author"        json:"author,omitempty"`
	CollectedAt time.Time `db:"collected_at"  json:"collected_at"`
}

// ProcessedComment holds the results of translating and assessing a raw
// comment. Optional fields are pointers: a nil value means the model
// did not provide the field or it failed validation, which downstream
// consumers render as "needs manual classification".
type ProcessedComment struct {
	ID            int64      `db:"id"               json:"id"`
	RawCommentID  int64      `db:"raw_comment_id"   json:"raw_comment_id"`
	Category      string     `db:"category"         json:"category,omitempty"`
	Subcategory   string     `db:"subcategory"      json:"subcategory,omitempty"`
	TranslationEN *string    `db:"translation_en"   json:"translation_en,omitempty"`
	ThreatLevel   *string    `db:"threat_level"     json:"threat_level,omitempty"` // slug: lowercased, trimmed
	Confidence    *float64   `db:"confidence_score" json:"confidence_score,omitempty"`
	Dialect       *string    `db:"dialect"          json:"dialect,omitempty"` // "Maxa-tiri" or "Maay"; not yet populated by the model
	Keywords      []string   `db:"keywords"         json:"keywords,omitempty"`
	Risk          *string    `db:"risk"             json:"risk,omitempty"` // free-text risk description from the model
	ModelName     string     `db:"model_name"       json:"model_name,omitempty"`
	IsReviewed    bool       `db:"is_reviewed"      json:"is_reviewed"`
	ProcessedAt   time.Time  `db:"processed_at"     json:"processed_at"`
	ReviewedAt    *time.Time `db:"reviewed_at"      json:"reviewed_at,omitempty"`
}

// CommentFeedItem joins a raw comment with its processed result for the
// review feed.
type CommentFeedItem struct {
	Raw       RawComment        `json:"raw"`
	Processed *ProcessedComment `json:"processed,omitempty"`
}
