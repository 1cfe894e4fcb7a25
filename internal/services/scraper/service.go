package scraper

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// NewPageScraper builds the scraping backend selected by SCRAPING_SERVICE.
// "selenium" maps to the embedded headless browser; brightdata and tavily
// are hosted request APIs and need their respective API keys.
func NewPageScraper(config *common.Config, logger arbor.ILogger) (interfaces.PageScraper, error) {
	switch config.Scraper.Service {
	case common.ScrapingServiceSelenium:
		return NewBrowserScraper(&config.Scraper, logger)
	case common.ScrapingServiceBrightdata:
		if config.Brightdata.APIKey == "" {
			return nil, fmt.Errorf("brightdata backend requires BRIGHTDATA_API_KEY")
		}
		return NewBrightdataScraper(&config.Brightdata, &config.Scraper, logger), nil
	case common.ScrapingServiceTavily:
		if config.Tavily.APIKey == "" {
			return nil, fmt.Errorf("tavily backend requires TAVILY_API_KEY")
		}
		return NewTavilyScraper(&config.Tavily, &config.Scraper, logger), nil
	default:
		return nil, fmt.Errorf("unknown scraping service: %s", config.Scraper.Service)
	}
}
