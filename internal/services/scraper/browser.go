package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// BrowserScraper fetches pages with a headless Chrome instance. The
// certificate listing renders its table with JavaScript, so a plain HTTP
// GET returns an empty shell; the browser waits for the DOM to settle
// before capturing the HTML.
type BrowserScraper struct {
	config          *common.ScraperConfig
	logger          arbor.ILogger
	rateLimiter     *RateLimiter
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	mu              sync.Mutex
	closed          bool
}

// Compile-time interface assertion
var _ interfaces.PageScraper = (*BrowserScraper)(nil)

// NewBrowserScraper creates a browser scraper and verifies Chrome starts
func NewBrowserScraper(config *common.ScraperConfig, logger arbor.ILogger) (*BrowserScraper, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(config.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// Verify the browser actually starts before accepting work
	testCtx, testCancel := context.WithTimeout(browserCtx, 15*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("failed to start headless browser: %w", err)
	}

	logger.Debug().
		Bool("headless", config.Headless).
		Str("user_agent", config.UserAgent).
		Msg("Headless browser started")

	return &BrowserScraper{
		config:          config,
		logger:          logger,
		rateLimiter:     NewRateLimiter(config.RequestDelay.Std()),
		allocatorCtx:    allocatorCtx,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
	}, nil
}

// Name returns the backend identifier
func (s *BrowserScraper) Name() string {
	return string(common.ScrapingServiceSelenium)
}

// ScrapeURL navigates to the URL in a fresh tab, waits for JS rendering,
// and returns the fully rendered HTML
func (s *BrowserScraper) ScrapeURL(ctx context.Context, targetURL string) (*models.ScrapeResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("browser scraper is closed")
	}
	s.mu.Unlock()

	if err := s.rateLimiter.Wait(ctx, targetURL); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	defer tabCancel()

	timeout := s.config.RequestTimeout.Std() + s.config.JavaScriptWaitTime.Std()
	pageCtx, pageCancel := context.WithTimeout(tabCtx, timeout)
	defer pageCancel()

	// Honor caller cancellation alongside the page timeout
	go func() {
		select {
		case <-ctx.Done():
			pageCancel()
		case <-pageCtx.Done():
		}
	}()

	headers := network.Headers{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}

	start := time.Now()
	var html, title string
	err := chromedp.Run(pageCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(targetURL),
		// The certificate table is rendered client-side; wait for it to
		// appear before the settle delay so slow renders are not cut off
		chromedp.WaitReady("table", chromedp.ByQuery),
		chromedp.Sleep(s.config.JavaScriptWaitTime.Std()),
		chromedp.OuterHTML("html", &html),
		chromedp.Title(&title),
	)
	if err != nil {
		return nil, fmt.Errorf("browser navigation failed for %s: %w", targetURL, err)
	}

	duration := time.Since(start)
	s.logger.Debug().
		Str("url", targetURL).
		Str("title", title).
		Int("html_size", len(html)).
		Dur("duration", duration).
		Msg("Page scraped with browser")

	return &models.ScrapeResult{
		URL:       targetURL,
		HTML:      html,
		Title:     title,
		Backend:   s.Name(),
		Duration:  duration,
		ScrapedAt: time.Now(),
	}, nil
}

// Close shuts down the browser
func (s *BrowserScraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.browserCancel()
	s.allocatorCancel()
	s.logger.Debug().Msg("Headless browser closed")
	return nil
}
