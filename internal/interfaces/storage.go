package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// ListOptions controls document listing
type ListOptions struct {
	SourceType string
	Limit      int
	Offset     int
}

// DocumentStorage - interface for normalized document persistence
type DocumentStorage interface {
	// CRUD operations
	SaveDocument(doc *models.Document) error
	SaveDocuments(docs []*models.Document) error
	GetDocument(id string) (*models.Document, error)
	GetDocumentBySource(sourceType, sourceID string) (*models.Document, error)
	UpdateDocument(doc *models.Document) error
	DeleteDocument(id string) error

	// Search operations
	FullTextSearch(query string, limit int) ([]*models.Document, error)

	// List operations
	ListDocuments(opts *ListOptions) ([]*models.Document, error)
	GetDocumentsBySource(sourceType string) ([]*models.Document, error)

	// Stats operations
	CountDocuments() (int, error)
	CountDocumentsBySource(sourceType string) (int, error)

	// Bulk operations
	ClearAll() error
}

// ProcessedStorage - interface for the download dedupe ledger.
// A mark is keyed by the md5 hash of the source URL and survives restarts,
// so an interrupted collection run never re-uploads the same PDF.
type ProcessedStorage interface {
	IsProcessed(ctx context.Context, urlHash string) (bool, error)
	MarkProcessed(ctx context.Context, mark *models.ProcessedMark) error
	GetMark(ctx context.Context, urlHash string) (*models.ProcessedMark, error)
	ListMarks(ctx context.Context, limit int) ([]*models.ProcessedMark, error)
	CountProcessed(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error
}

// RunStorage - interface for collection run history
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	GetLatestRun(ctx context.Context) (*models.Run, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	DocumentStorage() DocumentStorage
	ProcessedStorage() ProcessedStorage
	RunStorage() RunStorage
	KeyValueStorage() KeyValueStorage
	DB() interface{}
	Close() error
}
