package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// PageScraper fetches a fully rendered listing page. Implementations cover
// the headless browser backend and the Bright Data / Tavily request APIs.
type PageScraper interface {
	// ScrapeURL fetches the page at the given URL and returns its HTML
	ScrapeURL(ctx context.Context, url string) (*models.ScrapeResult, error)

	// Name returns the backend identifier ("selenium", "brightdata", "tavily")
	Name() string

	// Close releases backend resources (browser contexts, HTTP clients)
	Close() error
}
