package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RunStorage implements the RunStorage interface for Badger
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRun inserts or updates a collection run record
func (s *RunStorage) SaveRun(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *RunStorage) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	err := s.db.Store().Get(id, &run)
	if err == badgerhold.ErrNotFound {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns runs ordered by started_at DESC
func (s *RunStorage) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.Run
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]*models.Run, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

// GetLatestRun returns the most recently started run
func (s *RunStorage) GetLatestRun(ctx context.Context) (*models.Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs recorded")
	}
	return runs[0], nil
}
