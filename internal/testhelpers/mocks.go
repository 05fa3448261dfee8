// Package testhelpers provides shared test utilities for the risk
// engine.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gaado/risk-engine/internal/database"
	"github.com/gaado/risk-engine/internal/domain"
)

// NopLogger discards all log output.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// MemStore is an in-memory comments store implementing the repository
// surface the processor and the API handlers depend on.
type MemStore struct {
	mu        sync.Mutex
	raws      []domain.RawComment
	processed []domain.ProcessedComment

	// InsertProcessedErr, when set, fails every InsertProcessed call.
	InsertProcessedErr error

	// InsertRawErr, when set, fails InsertRaw calls. When
	// InsertRawErrPlatform is also set, only the comment with that
	// platform ID fails.
	InsertRawErr         error
	InsertRawErrPlatform string
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// SeedRaw adds raw comments directly, bypassing ID assignment.
func (s *MemStore) SeedRaw(comments ...domain.RawComment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raws = append(s.raws, comments...)
}

// Raws returns a copy of the stored raw comments.
func (s *MemStore) Raws() []domain.RawComment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RawComment, len(s.raws))
	copy(out, s.raws)
	return out
}

// Processed returns a copy of the stored processed comments.
func (s *MemStore) Processed() []domain.ProcessedComment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ProcessedComment, len(s.processed))
	copy(out, s.processed)
	return out
}

// InsertRaw stores a raw comment and assigns its ID and timestamp.
func (s *MemStore) InsertRaw(_ context.Context, comment *domain.RawComment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertRawErr != nil && (s.InsertRawErrPlatform == "" || s.InsertRawErrPlatform == comment.PlatformID) {
		return s.InsertRawErr
	}
	comment.ID = int64(len(s.raws) + 1)
	comment.CollectedAt = time.Now()
	s.raws = append(s.raws, *comment)
	return nil
}

// GetRawByID returns the raw comment with the given ID.
func (s *MemStore) GetRawByID(_ context.Context, id int64) (*domain.RawComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, raw := range s.raws {
		if raw.ID == id {
			return &raw, nil
		}
	}
	return nil, fmt.Errorf("raw comment %d: %w", id, database.ErrNotFound)
}

// ListUnprocessed returns stored raw comments without a processed row,
// up to limit.
func (s *MemStore) ListUnprocessed(_ context.Context, limit int) ([]domain.RawComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	done := make(map[int64]bool, len(s.processed))
	for _, pc := range s.processed {
		done[pc.RawCommentID] = true
	}

	var out []domain.RawComment
	for _, raw := range s.raws {
		if done[raw.ID] {
			continue
		}
		out = append(out, raw)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// InsertProcessed stores an assessment result and assigns its ID.
func (s *MemStore) InsertProcessed(_ context.Context, pc *domain.ProcessedComment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertProcessedErr != nil {
		return s.InsertProcessedErr
	}
	pc.ID = int64(len(s.processed) + 1)
	pc.ProcessedAt = time.Now()
	s.processed = append(s.processed, *pc)
	return nil
}

// GetProcessedByRawID returns the processed row for a raw comment.
func (s *MemStore) GetProcessedByRawID(_ context.Context, rawCommentID int64) (*domain.ProcessedComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pc := range s.processed {
		if pc.RawCommentID == rawCommentID {
			return &pc, nil
		}
	}
	return nil, fmt.Errorf("processed comment for raw %d: %w", rawCommentID, database.ErrNotFound)
}

// ListFeed returns raw comments joined with their processed rows,
// honoring the category and unreviewed filters.
func (s *MemStore) ListFeed(_ context.Context, filter database.FeedFilter) ([]domain.CommentFeedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []domain.CommentFeedItem
	for _, pc := range s.processed {
		if filter.Category != "" && pc.Category != filter.Category {
			continue
		}
		if filter.Level != "" && (pc.ThreatLevel == nil || *pc.ThreatLevel != filter.Level) {
			continue
		}
		if filter.Unreviewed && pc.IsReviewed {
			continue
		}
		for _, raw := range s.raws {
			if raw.ID == pc.RawCommentID {
				processed := pc
				items = append(items, domain.CommentFeedItem{Raw: raw, Processed: &processed})
			}
		}
	}
	return items, nil
}

// MarkReviewed flags a processed comment as reviewed.
func (s *MemStore) MarkReviewed(_ context.Context, processedID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.processed {
		if s.processed[i].ID == processedID {
			s.processed[i].IsReviewed = true
			return nil
		}
	}
	return fmt.Errorf("processed comment %d: %w", processedID, database.ErrNotFound)
}

// Stats returns counts grouped by category and threat level.
func (s *MemStore) Stats(_ context.Context) ([]database.CategoryCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := map[string]int{}
	var counts []database.CategoryCount
	for _, pc := range s.processed {
		level := ""
		if pc.ThreatLevel != nil {
			level = *pc.ThreatLevel
		}
		key := pc.Category + "/" + level
		if i, ok := index[key]; ok {
			counts[i].Count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, database.CategoryCount{Category: pc.Category, Level: level, Count: 1})
	}
	return counts, nil
}
