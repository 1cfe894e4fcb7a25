package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// tavilyRequest is the Tavily search API payload. The page fetch is
// expressed as a site-scoped search returning raw page content.
type tavilyRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	IncludeRawContent bool   `json:"include_raw_content"`
	MaxResults        int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		URL        string `json:"url"`
		Title      string `json:"title"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
}

// TavilyScraper fetches page content through the Tavily search API
type TavilyScraper struct {
	config      *common.TavilyConfig
	logger      arbor.ILogger
	client      *resty.Client
	rateLimiter *RateLimiter
	retryPolicy *RetryPolicy
}

var _ interfaces.PageScraper = (*TavilyScraper)(nil)

// NewTavilyScraper creates a Tavily backed scraper
func NewTavilyScraper(config *common.TavilyConfig, scraperConfig *common.ScraperConfig, logger arbor.ILogger) *TavilyScraper {
	client := resty.New().
		SetTimeout(scraperConfig.RequestTimeout.Std()).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", scraperConfig.UserAgent)

	return &TavilyScraper{
		config:      config,
		logger:      logger,
		client:      client,
		rateLimiter: NewRateLimiter(scraperConfig.RequestDelay.Std()),
		retryPolicy: NewRetryPolicy(),
	}
}

// Name returns the backend identifier
func (s *TavilyScraper) Name() string {
	return string(common.ScrapingServiceTavily)
}

// ScrapeURL fetches the page content as a site-scoped search with raw content
func (s *TavilyScraper) ScrapeURL(ctx context.Context, targetURL string) (*models.ScrapeResult, error) {
	if err := s.rateLimiter.Wait(ctx, targetURL); err != nil {
		return nil, err
	}

	payload := tavilyRequest{
		APIKey:            s.config.APIKey,
		Query:             "site:" + targetURL,
		IncludeRawContent: true,
		MaxResults:        1,
	}

	start := time.Now()
	var result tavilyResponse
	var resp *resty.Response
	statusCode, err := s.retryPolicy.ExecuteWithRetry(ctx, s.logger, func() (int, error) {
		var reqErr error
		resp, reqErr = s.client.R().
			SetContext(ctx).
			SetBody(payload).
			SetResult(&result).
			Post(s.config.Endpoint)
		if reqErr != nil {
			return 0, reqErr
		}
		if resp.StatusCode() != 200 {
			return resp.StatusCode(), fmt.Errorf("tavily API returned status %d", resp.StatusCode())
		}
		return resp.StatusCode(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("tavily request failed for %s: %w", targetURL, err)
	}

	if len(result.Results) == 0 || result.Results[0].RawContent == "" {
		return nil, fmt.Errorf("tavily returned no content for %s", targetURL)
	}

	first := result.Results[0]
	duration := time.Since(start)
	s.logger.Debug().
		Str("url", targetURL).
		Int("status_code", statusCode).
		Int("content_size", len(first.RawContent)).
		Dur("duration", duration).
		Msg("Page scraped with Tavily")

	return &models.ScrapeResult{
		URL:        targetURL,
		HTML:       first.RawContent,
		Title:      first.Title,
		StatusCode: statusCode,
		Backend:    s.Name(),
		Duration:   duration,
		ScrapedAt:  time.Now(),
	}, nil
}

// Close releases the HTTP client
func (s *TavilyScraper) Close() error {
	return nil
}
