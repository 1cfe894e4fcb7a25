package models

import "time"

// ScrapeResult is the outcome of fetching one listing page
type ScrapeResult struct {
	URL        string        `json:"url"`
	HTML       string        `json:"html"`
	Title      string        `json:"title,omitempty"`
	StatusCode int           `json:"status_code,omitempty"` // 0 for browser backend
	Backend    string        `json:"backend"`
	Duration   time.Duration `json:"duration"`
	ScrapedAt  time.Time     `json:"scraped_at"`
}
