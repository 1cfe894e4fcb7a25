package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// KnowledgeBaseService retrieves passages from the hosted knowledge base
// built over the archived certificate PDFs.
type KnowledgeBaseService interface {
	// Retrieve runs a hybrid vector search and returns up to limit passages.
	// Limit is clamped to the 1..10 range.
	Retrieve(ctx context.Context, query string, limit int) ([]*models.RetrievalResult, error)

	// Info reports the knowledge base identity and connection status
	Info(ctx context.Context) (*models.KnowledgeBaseInfo, error)
}

// PDFExtractor extracts text and metadata from PDF bytes
type PDFExtractor interface {
	ExtractTextFromBytes(ctx context.Context, pdfContent []byte) (string, error)
	GetMetadataFromBytes(ctx context.Context, pdfContent []byte) (*models.PDFMetadata, error)
}
