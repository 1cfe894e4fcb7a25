package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/colligo/internal/interfaces"
)

// ScrapingService identifies the backend used to fetch listing pages.
type ScrapingService string

const (
	// ScrapingServiceSelenium selects the embedded headless-browser backend.
	// The name is kept for compatibility with existing deployments.
	ScrapingServiceSelenium ScrapingService = "selenium"
	// ScrapingServiceBrightdata selects the Bright Data request API
	ScrapingServiceBrightdata ScrapingService = "brightdata"
	// ScrapingServiceTavily selects the Tavily search API
	ScrapingServiceTavily ScrapingService = "tavily"
)

// Duration is a time.Duration that decodes from duration strings such as
// "30s" or "2m" in TOML files. go-toml only maps native TOML types, so
// the text unmarshaler does the conversion.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a standard time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	AWS         AWSConfig        `toml:"aws"`
	S3          S3Config         `toml:"s3"`
	Bedrock     BedrockConfig    `toml:"bedrock"`
	Scraper     ScraperConfig    `toml:"scraper"`
	Brightdata  BrightdataConfig `toml:"brightdata"`
	Tavily      TavilyConfig     `toml:"tavily"`
	Catalog     CatalogConfig    `toml:"catalog"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	LLM         LLMConfig        `toml:"llm"`
}

// AWSConfig holds static AWS credentials and the default region.
// All three values come from the standard AWS_* environment variables.
type AWSConfig struct {
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Region          string `toml:"region"`
}

// S3Config describes the target bucket for archived PDFs
type S3Config struct {
	Bucket string `toml:"bucket"` // Target bucket (S3_BUCKET_NAME)
	Prefix string `toml:"prefix"` // Key prefix for uploaded objects
}

// BedrockConfig holds the hosted-model parsing and knowledge base settings
type BedrockConfig struct {
	Region          string `toml:"region"`            // Bedrock region (BEDROCK_REGION, falls back to aws.region)
	ModelID         string `toml:"model_id"`          // Model identifier for document parsing (BEDROCK_MODEL_ID)
	KnowledgeBaseID string `toml:"knowledge_base_id"` // Knowledge base for retrieval (BEDROCK_KNOWLEDGE_BASE_ID)
	MaxTokens       int    `toml:"max_tokens"`        // Max response tokens for parse calls
	Timeout         string `toml:"timeout"`           // Per-call timeout as duration string
}

// ScraperConfig contains settings shared by all scraping backends
type ScraperConfig struct {
	Service            ScrapingService `toml:"service" validate:"oneof=selenium brightdata tavily"`
	UserAgent          string          `toml:"user_agent"`
	RequestTimeout     Duration        `toml:"request_timeout"`
	RequestDelay       Duration        `toml:"request_delay"`        // Minimum delay between requests to same domain
	MaxBodySize        int             `toml:"max_body_size"`        // Maximum response body size in bytes
	JavaScriptWaitTime Duration        `toml:"javascript_wait_time"` // Wait for JS-rendered content (browser backend)
	Headless           bool            `toml:"headless"`             // Run the browser backend headless
}

// BrightdataConfig contains Bright Data request API settings
type BrightdataConfig struct {
	APIKey   string `toml:"api_key"`  // BRIGHTDATA_API_KEY
	Endpoint string `toml:"endpoint"` // API endpoint (default: https://api.brightdata.com/request)
	WaitFor  int    `toml:"wait_for"` // Milliseconds to wait for JS to load
}

// TavilyConfig contains Tavily search API settings
type TavilyConfig struct {
	APIKey   string `toml:"api_key"`  // TAVILY_API_KEY
	Endpoint string `toml:"endpoint"` // API endpoint (default: https://api.tavily.com/search)
}

// CatalogConfig describes the certificate database being collected
type CatalogConfig struct {
	BaseURL         string `toml:"base_url"`         // Site root for resolving relative links
	CertificatesURL string `toml:"certificates_url"` // Listing page with the certificate table
}

// PipelineConfig controls collection run behavior
type PipelineConfig struct {
	MaxDocuments  int           `toml:"max_documents"`  // Max PDFs per run (0 = unlimited)
	DownloadDelay Duration `toml:"download_delay"` // Delay between PDF downloads
	Schedule      string        `toml:"schedule"`       // Cron schedule for periodic runs
	ParseEnabled  bool          `toml:"parse_enabled"`  // Parse uploaded PDFs with the hosted model
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// ClaudeConfig contains Anthropic Claude API configuration for the ask agent
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// GeminiConfig contains Google Gemini API configuration for the ask agent
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig contains unified configuration for the ask agent providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "claude" or "gemini" (default: "claude")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings should be exposed in colligo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		S3: S3Config{
			Prefix: "iscc_certificates",
		},
		Bedrock: BedrockConfig{
			MaxTokens: 4096,
			Timeout:   "2m",
		},
		Scraper: ScraperConfig{
			Service:            ScrapingServiceSelenium,
			UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout:     Duration(30 * time.Second),
			RequestDelay:       Duration(1 * time.Second),
			MaxBodySize:        10 * 1024 * 1024, // 10MB
			JavaScriptWaitTime: Duration(3 * time.Second),
			Headless:           true,
		},
		Brightdata: BrightdataConfig{
			Endpoint: "https://api.brightdata.com/request",
			WaitFor:  3000,
		},
		Tavily: TavilyConfig{
			Endpoint: "https://api.tavily.com/search",
		},
		Catalog: CatalogConfig{
			BaseURL:         "https://www.iscc-system.org",
			CertificatesURL: "https://www.iscc-system.org/certification/certificate-database/valid-certificates/",
		},
		Pipeline: PipelineConfig{
			MaxDocuments:  50,
			DownloadDelay: Duration(1 * time.Second),
			Schedule:      "0 */6 * * *",
			ParseEnabled:  true,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0.7,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Timeout:     "5m",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// The AWS_*, S3_BUCKET_NAME, BEDROCK_*, SCRAPING_SERVICE, BRIGHTDATA_API_KEY
// and TAVILY_API_KEY names are the established deployment surface and are
// honored verbatim. COLLIGO_* variables cover ambient settings.
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: COLLIGO_ENV, fallback: GO_ENV)
	if env := os.Getenv("COLLIGO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// AWS credentials and region
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		config.AWS.AccessKeyID = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		config.AWS.SecretAccessKey = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		config.AWS.Region = v
	}

	// S3 configuration
	if v := os.Getenv("S3_BUCKET_NAME"); v != "" {
		config.S3.Bucket = v
	}
	if v := os.Getenv("COLLIGO_S3_PREFIX"); v != "" {
		config.S3.Prefix = v
	}

	// Bedrock configuration
	if v := os.Getenv("BEDROCK_REGION"); v != "" {
		config.Bedrock.Region = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		config.Bedrock.ModelID = v
	}
	if v := os.Getenv("BEDROCK_KNOWLEDGE_BASE_ID"); v != "" {
		config.Bedrock.KnowledgeBaseID = v
	}

	// Scraping backend selection
	if v := os.Getenv("SCRAPING_SERVICE"); v != "" {
		config.Scraper.Service = ScrapingService(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("BRIGHTDATA_API_KEY"); v != "" {
		config.Brightdata.APIKey = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		config.Tavily.APIKey = v
	}

	// Scraper tuning
	if v := os.Getenv("COLLIGO_SCRAPER_USER_AGENT"); v != "" {
		config.Scraper.UserAgent = v
	}
	if v := os.Getenv("COLLIGO_SCRAPER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Scraper.RequestTimeout = Duration(d)
		}
	}
	if v := os.Getenv("COLLIGO_SCRAPER_REQUEST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Scraper.RequestDelay = Duration(d)
		}
	}
	if v := os.Getenv("COLLIGO_SCRAPER_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Scraper.Headless = b
		}
	}

	// Catalog configuration
	if v := os.Getenv("COLLIGO_CATALOG_BASE_URL"); v != "" {
		config.Catalog.BaseURL = v
	}
	if v := os.Getenv("COLLIGO_CATALOG_CERTIFICATES_URL"); v != "" {
		config.Catalog.CertificatesURL = v
	}

	// Pipeline configuration
	if v := os.Getenv("COLLIGO_PIPELINE_MAX_DOCUMENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Pipeline.MaxDocuments = n
		}
	}
	if v := os.Getenv("COLLIGO_PIPELINE_DOWNLOAD_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Pipeline.DownloadDelay = Duration(d)
		}
	}
	if v := os.Getenv("COLLIGO_PIPELINE_SCHEDULE"); v != "" {
		config.Pipeline.Schedule = v
	}
	if v := os.Getenv("COLLIGO_PIPELINE_PARSE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Pipeline.ParseEnabled = b
		}
	}

	// Storage configuration
	if v := os.Getenv("COLLIGO_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}

	// Logging configuration
	if v := os.Getenv("COLLIGO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("COLLIGO_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
	if v := os.Getenv("COLLIGO_LOG_OUTPUT"); v != "" {
		outputs := []string{}
		for _, o := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Claude configuration (COLLIGO_ prefix takes priority over vendor var)
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("COLLIGO_CLAUDE_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("COLLIGO_CLAUDE_MODEL"); v != "" {
		config.Claude.Model = v
	}

	// Gemini configuration
	if v := os.Getenv("COLLIGO_GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("COLLIGO_GEMINI_MODEL"); v != "" {
		config.Gemini.Model = v
	}

	// LLM provider configuration
	if v := os.Getenv("COLLIGO_LLM_DEFAULT_PROVIDER"); v != "" {
		config.LLM.DefaultProvider = LLMProvider(v)
	}
}

// Validate checks the configuration for consistency. Struct tags cover
// enumerated fields; cross-field rules depend on which backend and
// pipeline stages are active and are checked explicitly.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config value for %s: %v (rule: %s)", fe.Namespace(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch c.Scraper.Service {
	case ScrapingServiceBrightdata:
		if c.Brightdata.APIKey == "" {
			return fmt.Errorf("brightdata scraping service selected but BRIGHTDATA_API_KEY is not set")
		}
	case ScrapingServiceTavily:
		if c.Tavily.APIKey == "" {
			return fmt.Errorf("tavily scraping service selected but TAVILY_API_KEY is not set")
		}
	}

	if c.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET_NAME is required")
	}

	if c.Pipeline.ParseEnabled && c.Bedrock.ModelID == "" {
		return fmt.Errorf("pipeline parsing is enabled but BEDROCK_MODEL_ID is not set")
	}

	if c.Pipeline.Schedule != "" {
		if err := ValidateSchedule(c.Pipeline.Schedule); err != nil {
			return fmt.Errorf("invalid pipeline schedule: %w", err)
		}
	}

	return nil
}

// BedrockRegion returns the Bedrock region, falling back to the AWS region
func (c *Config) BedrockRegion() string {
	if c.Bedrock.Region != "" {
		return c.Bedrock.Region
	}
	return c.AWS.Region
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables -> KV store -> config fallback -> error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"anthropic_api_key":  {"COLLIGO_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"claude_api_key":     {"COLLIGO_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"gemini_api_key":     {"COLLIGO_GEMINI_API_KEY"},
		"brightdata_api_key": {"BRIGHTDATA_API_KEY"},
		"tavily_api_key":     {"TAVILY_API_KEY"},
	}

	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// ValidateSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
