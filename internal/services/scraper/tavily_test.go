package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/colligo/internal/common"
)

func TestTavilyScrapeURL(t *testing.T) {
	var gotPayload tavilyRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{
					"url":         "https://www.iscc-system.org/certificates/",
					"title":       "Valid Certificates",
					"raw_content": "<html><table><tr><td>EU-ISCC-12345</td></tr></table></html>",
				},
			},
		})
	}))
	defer server.Close()

	config := &common.TavilyConfig{APIKey: "tv-key", Endpoint: server.URL}
	s := NewTavilyScraper(config, testScraperConfig(), common.GetLogger())

	result, err := s.ScrapeURL(context.Background(), "https://www.iscc-system.org/certificates/")
	if err != nil {
		t.Fatalf("ScrapeURL failed: %v", err)
	}

	if gotPayload.APIKey != "tv-key" {
		t.Errorf("api_key not sent in payload")
	}
	if gotPayload.Query != "site:https://www.iscc-system.org/certificates/" {
		t.Errorf("unexpected query: %s", gotPayload.Query)
	}
	if !gotPayload.IncludeRawContent || gotPayload.MaxResults != 1 {
		t.Errorf("unexpected payload: %+v", gotPayload)
	}
	if result.Title != "Valid Certificates" {
		t.Errorf("unexpected title: %s", result.Title)
	}
	if result.Backend != "tavily" {
		t.Errorf("unexpected backend: %s", result.Backend)
	}
}

func TestTavilyNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	}))
	defer server.Close()

	config := &common.TavilyConfig{APIKey: "tv-key", Endpoint: server.URL}
	s := NewTavilyScraper(config, testScraperConfig(), common.GetLogger())

	if _, err := s.ScrapeURL(context.Background(), "https://example.com/"); err == nil {
		t.Error("expected error when tavily returns no results")
	}
}

func TestNewPageScraperSelection(t *testing.T) {
	logger := common.GetLogger()

	config := common.NewDefaultConfig()
	config.Scraper.Service = common.ScrapingServiceBrightdata
	if _, err := NewPageScraper(config, logger); err == nil {
		t.Error("brightdata without API key should fail")
	}

	config.Brightdata.APIKey = "bd-key"
	s, err := NewPageScraper(config, logger)
	if err != nil {
		t.Fatalf("NewPageScraper failed: %v", err)
	}
	if s.Name() != "brightdata" {
		t.Errorf("expected brightdata backend, got %s", s.Name())
	}

	config.Scraper.Service = common.ScrapingServiceTavily
	config.Tavily.APIKey = "tv-key"
	s, err = NewPageScraper(config, logger)
	if err != nil {
		t.Fatalf("NewPageScraper failed: %v", err)
	}
	if s.Name() != "tavily" {
		t.Errorf("expected tavily backend, got %s", s.Name())
	}

	config.Scraper.Service = "playwright"
	if _, err := NewPageScraper(config, logger); err == nil {
		t.Error("unknown backend should fail")
	}
}
