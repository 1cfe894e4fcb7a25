package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// brightdataRequest is the Bright Data request API payload
type brightdataRequest struct {
	URL      string `json:"url"`
	Format   string `json:"format"`
	RenderJS bool   `json:"render_js"`
	WaitFor  int    `json:"wait_for"`
}

// brightdataResponse is the JSON envelope the request API wraps the
// rendered page in
type brightdataResponse struct {
	Content string `json:"content"`
}

// BrightdataScraper fetches JS-rendered pages through the Bright Data
// request API with Bearer authentication
type BrightdataScraper struct {
	config      *common.BrightdataConfig
	logger      arbor.ILogger
	client      *resty.Client
	rateLimiter *RateLimiter
	retryPolicy *RetryPolicy
}

var _ interfaces.PageScraper = (*BrightdataScraper)(nil)

// NewBrightdataScraper creates a Bright Data backed scraper
func NewBrightdataScraper(config *common.BrightdataConfig, scraperConfig *common.ScraperConfig, logger arbor.ILogger) *BrightdataScraper {
	client := resty.New().
		SetTimeout(scraperConfig.RequestTimeout.Std()).
		SetHeader("Authorization", "Bearer "+config.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", scraperConfig.UserAgent)

	return &BrightdataScraper{
		config:      config,
		logger:      logger,
		client:      client,
		rateLimiter: NewRateLimiter(scraperConfig.RequestDelay.Std()),
		retryPolicy: NewRetryPolicy(),
	}
}

// Name returns the backend identifier
func (s *BrightdataScraper) Name() string {
	return string(common.ScrapingServiceBrightdata)
}

// ScrapeURL requests the rendered HTML of the target URL
func (s *BrightdataScraper) ScrapeURL(ctx context.Context, targetURL string) (*models.ScrapeResult, error) {
	if err := s.rateLimiter.Wait(ctx, targetURL); err != nil {
		return nil, err
	}

	payload := brightdataRequest{
		URL:      targetURL,
		Format:   "html",
		RenderJS: true,
		WaitFor:  s.config.WaitFor,
	}

	start := time.Now()
	var resp *resty.Response
	statusCode, err := s.retryPolicy.ExecuteWithRetry(ctx, s.logger, func() (int, error) {
		var reqErr error
		resp, reqErr = s.client.R().
			SetContext(ctx).
			SetBody(payload).
			Post(s.config.Endpoint)
		if reqErr != nil {
			return 0, reqErr
		}
		if resp.StatusCode() != 200 {
			return resp.StatusCode(), fmt.Errorf("brightdata API returned status %d", resp.StatusCode())
		}
		return resp.StatusCode(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("brightdata request failed for %s: %w", targetURL, err)
	}

	var envelope brightdataResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("brightdata returned unparseable response for %s: %w", targetURL, err)
	}

	html := envelope.Content
	if html == "" {
		return nil, fmt.Errorf("brightdata returned no content for %s", targetURL)
	}

	duration := time.Since(start)
	s.logger.Debug().
		Str("url", targetURL).
		Int("status_code", statusCode).
		Int("html_size", len(html)).
		Dur("duration", duration).
		Msg("Page scraped with Bright Data")

	return &models.ScrapeResult{
		URL:        targetURL,
		HTML:       html,
		StatusCode: statusCode,
		Backend:    s.Name(),
		Duration:   duration,
		ScrapedAt:  time.Now(),
	}, nil
}

// Close releases the HTTP client
func (s *BrightdataScraper) Close() error {
	return nil
}
