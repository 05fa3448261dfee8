package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gaado/risk-engine/internal/domain"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// CommentsRepository handles database operations for raw and processed
// comments.
type CommentsRepository struct {
	db *sqlx.DB
}

// NewCommentsRepository creates a new comments repository.
func NewCommentsRepository(db *sqlx.DB) *CommentsRepository {
	return &CommentsRepository{db: db}
}

// InsertRaw stores a collected comment and fills in its generated ID
// and collection timestamp.
func (r *CommentsRepository) InsertRaw(ctx context.Context, comment *domain.RawComment) error {
	query := `
		INSERT INTO raw_comments (platform_id, post_id, content, author)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (platform_id) DO UPDATE SET content = EXCLUDED.content
		RETURNING id, collected_at
	`

	err := r.db.QueryRowContext(ctx, query,
		comment.PlatformID,
		comment.PostID,
		comment.Content,
		comment.Author,
	).Scan(&comment.ID, &comment.CollectedAt)
	if err != nil {
		return fmt.Errorf("failed to insert raw comment: %w", err)
	}

	return nil
}

// GetRawByID retrieves a raw comment by its ID.
func (r *CommentsRepository) GetRawByID(ctx context.Context, id int64) (*domain.RawComment, error) {
	var comment domain.RawComment
	query := `
		SELECT id, platform_id, post_id, content, author, collected_at
		FROM raw_comments
		WHERE id = $1
	`

	if err := r.db.GetContext(ctx, &comment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("raw comment %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get raw comment: %w", err)
	}

	return &comment, nil
}

// ListUnprocessed returns raw comments that have no processed result
// yet, oldest first, up to limit.
func (r *CommentsRepository) ListUnprocessed(ctx context.Context, limit int) ([]domain.RawComment, error) {
	var comments []domain.RawComment
	query := `
		SELECT rc.id, rc.platform_id, rc.post_id, rc.content, rc.author, rc.collected_at
		FROM raw_comments rc
		LEFT JOIN processed_comments pc ON pc.raw_comment_id = rc.id
		WHERE pc.id IS NULL
		ORDER BY rc.collected_at
		LIMIT $1
	`

	if err := r.db.SelectContext(ctx, &comments, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list unprocessed comments: %w", err)
	}

	return comments, nil
}

// InsertProcessed stores an assessment result and fills in its
// generated ID and processing timestamp.
func (r *CommentsRepository) InsertProcessed(ctx context.Context, pc *domain.ProcessedComment) error {
	query := `
		INSERT INTO processed_comments
			(raw_comment_id, category, subcategory, translation_en, threat_level,
			 confidence_score, dialect, keywords, risk, model_name, is_reviewed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, processed_at
	`

	err := r.db.QueryRowContext(ctx, query,
		pc.RawCommentID,
		pc.Category,
		pc.Subcategory,
		pc.TranslationEN,
		pc.ThreatLevel,
		pc.Confidence,
		pc.Dialect,
		pq.Array(pc.Keywords),
		pc.Risk,
		pc.ModelName,
		pc.IsReviewed,
	).Scan(&pc.ID, &pc.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to insert processed comment: %w", err)
	}

	return nil
}

// GetProcessedByRawID retrieves the processed result for a raw comment.
func (r *CommentsRepository) GetProcessedByRawID(ctx context.Context, rawCommentID int64) (*domain.ProcessedComment, error) {
	var pc domain.ProcessedComment
	query := `
		SELECT id, raw_comment_id, category, subcategory, translation_en, threat_level,
		       confidence_score, dialect, keywords, risk, model_name, is_reviewed,
		       processed_at, reviewed_at
		FROM processed_comments
		WHERE raw_comment_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, rawCommentID).Scan(
		&pc.ID,
		&pc.RawCommentID,
		&pc.Category,
		&pc.Subcategory,
		&pc.TranslationEN,
		&pc.ThreatLevel,
		&pc.Confidence,
		&pc.Dialect,
		pq.Array(&pc.Keywords),
		&pc.Risk,
		&pc.ModelName,
		&pc.IsReviewed,
		&pc.ProcessedAt,
		&pc.ReviewedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("processed comment for raw %d: %w", rawCommentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get processed comment: %w", err)
	}

	return &pc, nil
}

// FeedFilter narrows the review feed. Zero values mean no filtering.
type FeedFilter struct {
	Category   string
	Level      string
	Unreviewed bool
	Limit      int
	Offset     int
}

const defaultFeedLimit = 50

// ListFeed returns raw comments joined with their processed results for
// the review feed, newest first.
func (r *CommentsRepository) ListFeed(ctx context.Context, filter FeedFilter) ([]domain.CommentFeedItem, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	query := `
		SELECT rc.id, rc.platform_id, rc.post_id, rc.content, rc.author, rc.collected_at,
		       pc.id, pc.raw_comment_id, pc.category, pc.subcategory, pc.translation_en,
		       pc.threat_level, pc.confidence_score, pc.dialect, pc.keywords, pc.risk,
		       pc.model_name, pc.is_reviewed, pc.processed_at, pc.reviewed_at
		FROM raw_comments rc
		JOIN processed_comments pc ON pc.raw_comment_id = rc.id
		WHERE ($1 = '' OR pc.category = $1)
		  AND ($2 = '' OR pc.threat_level = $2)
		  AND ($3 = false OR pc.is_reviewed = false)
		ORDER BY rc.collected_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.QueryContext(ctx, query,
		filter.Category, filter.Level, filter.Unreviewed, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}
	defer rows.Close()

	var items []domain.CommentFeedItem
	for rows.Next() {
		var item domain.CommentFeedItem
		var pc domain.ProcessedComment
		scanErr := rows.Scan(
			&item.Raw.ID,
			&item.Raw.PlatformID,
			&item.Raw.PostID,
			&item.Raw.Content,
			&item.Raw.Author,
			&item.Raw.CollectedAt,
			&pc.ID,
			&pc.RawCommentID,
			&pc.Category,
			&pc.Subcategory,
			&pc.TranslationEN,
			&pc.ThreatLevel,
			&pc.Confidence,
			&pc.Dialect,
			pq.Array(&pc.Keywords),
			&pc.Risk,
			&pc.ModelName,
			&pc.IsReviewed,
			&pc.ProcessedAt,
			&pc.ReviewedAt,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", scanErr)
		}
		item.Processed = &pc
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feed rows: %w", err)
	}

	return items, nil
}

// MarkReviewed flags a processed comment as human-reviewed.
func (r *CommentsRepository) MarkReviewed(ctx context.Context, processedID int64) error {
	query := `
		UPDATE processed_comments
		SET is_reviewed = true, reviewed_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, processedID)
	if err != nil {
		return fmt.Errorf("failed to mark comment reviewed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("processed comment %d: %w", processedID, ErrNotFound)
	}

	return nil
}

// CategoryCount is one row of the assessment statistics.
type CategoryCount struct {
	Category string `db:"category" json:"category"`
	Level    string `db:"level"    json:"level"`
	Count    int64  `db:"count"    json:"count"`
}

// Stats returns assessment counts grouped by category and threat level.
func (r *CommentsRepository) Stats(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	query := `
		SELECT COALESCE(category, '') AS category,
		       COALESCE(threat_level, '') AS level,
		       COUNT(*) AS count
		FROM processed_comments
		GROUP BY category, threat_level
		ORDER BY count DESC
	`

	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	return counts, nil
}
