package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ProcessedStorage implements the ProcessedStorage interface for Badger.
// It is the durable replacement for a JSON progress file: marks are
// written as soon as an upload succeeds, so an interrupted run loses
// nothing.
type ProcessedStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProcessedStorage creates a new ProcessedStorage instance
func NewProcessedStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProcessedStorage {
	return &ProcessedStorage{
		db:     db,
		logger: logger,
	}
}

// IsProcessed reports whether a URL hash has already been uploaded
func (s *ProcessedStorage) IsProcessed(ctx context.Context, urlHash string) (bool, error) {
	var mark models.ProcessedMark
	err := s.db.Store().Get(urlHash, &mark)
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check processed mark: %w", err)
	}
	return true, nil
}

// MarkProcessed records a successful upload
func (s *ProcessedStorage) MarkProcessed(ctx context.Context, mark *models.ProcessedMark) error {
	if mark.URLHash == "" {
		return fmt.Errorf("url hash is required")
	}
	if mark.ProcessedAt.IsZero() {
		mark.ProcessedAt = time.Now()
	}

	if err := s.db.Store().Upsert(mark.URLHash, mark); err != nil {
		return fmt.Errorf("failed to save processed mark: %w", err)
	}
	return nil
}

// GetMark retrieves a processed mark by URL hash
func (s *ProcessedStorage) GetMark(ctx context.Context, urlHash string) (*models.ProcessedMark, error) {
	var mark models.ProcessedMark
	err := s.db.Store().Get(urlHash, &mark)
	if err == badgerhold.ErrNotFound {
		return nil, fmt.Errorf("processed mark not found: %s", urlHash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processed mark: %w", err)
	}
	return &mark, nil
}

// ListMarks returns processed marks ordered by processed_at DESC
func (s *ProcessedStorage) ListMarks(ctx context.Context, limit int) ([]*models.ProcessedMark, error) {
	query := badgerhold.Where("URLHash").Ne("").SortBy("ProcessedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var marks []models.ProcessedMark
	if err := s.db.Store().Find(&marks, query); err != nil {
		return nil, fmt.Errorf("failed to list processed marks: %w", err)
	}

	result := make([]*models.ProcessedMark, len(marks))
	for i := range marks {
		result[i] = &marks[i]
	}
	return result, nil
}

// CountProcessed returns the number of processed marks
func (s *ProcessedStorage) CountProcessed(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ProcessedMark{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count processed marks: %w", err)
	}
	return int(count), nil
}

// ClearAll removes all processed marks
func (s *ProcessedStorage) ClearAll(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&models.ProcessedMark{}, nil); err != nil {
		return fmt.Errorf("failed to clear processed marks: %w", err)
	}
	s.logger.Info().Msg("Cleared all processed marks")
	return nil
}
