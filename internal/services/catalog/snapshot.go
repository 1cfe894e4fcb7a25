package catalog

import (
	"fmt"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// Snapshotter converts a scraped listing page into a markdown document
// so each run leaves a searchable record of what the listing looked like
type Snapshotter struct {
	converter *md.Converter
	logger    arbor.ILogger
}

// NewSnapshotter creates a listing page snapshotter
func NewSnapshotter(logger arbor.ILogger) *Snapshotter {
	return &Snapshotter{
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// Snapshot converts the scrape result into a markdown-first document
func (s *Snapshotter) Snapshot(result *models.ScrapeResult, certificatesFound int) (*models.Document, error) {
	markdown, err := s.converter.ConvertString(result.HTML)
	if err != nil {
		return nil, fmt.Errorf("failed to convert listing to markdown: %w", err)
	}

	title := result.Title
	if title == "" {
		title = "Certificate listing"
	}

	doc := &models.Document{
		ID:              common.NewDocumentID(),
		SourceType:      models.SourceTypeListing,
		SourceID:        common.URLHash(result.URL),
		Title:           title,
		ContentMarkdown: markdown,
		URL:             result.URL,
		Metadata: map[string]interface{}{
			"backend":            result.Backend,
			"certificates_found": certificatesFound,
			"scraped_at":         result.ScrapedAt.Format(time.RFC3339),
		},
	}

	s.logger.Debug().
		Str("doc_id", doc.ID).
		Int("markdown_size", len(markdown)).
		Msg("Listing snapshot created")

	return doc, nil
}
