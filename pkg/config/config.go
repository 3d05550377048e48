package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Store struct {
		Spreadsheet string        `yaml:"spreadsheet" json:"spreadsheet" jsonschema:"required,description=Google spreadsheet ID holding Keywords and Prompts and run outputs"`
		Credentials string        `yaml:"credentials" json:"credentials" jsonschema:"description=Service account credentials JSON (normally ${GOOGLE_CREDENTIALS_JSON})"`
		Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Sheets API request timeout"`
	} `yaml:"store" json:"store" jsonschema:"description=Structured store configuration"`

	Provider struct {
		BaseURL    string        `yaml:"base_url" json:"base_url" jsonschema:"default=https://web-api-cdn.ground.news,description=Search API base URL"`
		ArticleURL string        `yaml:"article_url" json:"article_url" jsonschema:"default=https://ground.news,description=Article page base URL"`
		Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=HTTP timeout per provider request"`
		CutoffDays int           `yaml:"cutoff_days" json:"cutoff_days" jsonschema:"default=2,description=Ignore events older than this many days"`
	} `yaml:"provider" json:"provider" jsonschema:"description=Content provider configuration"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for filtering and briefing generation"`

	RateLimit struct {
		ProviderPerMinute int           `yaml:"provider_per_minute" json:"provider_per_minute" jsonschema:"default=30,description=Max content provider calls per minute"`
		LLMPerMinute      int           `yaml:"llm_per_minute" json:"llm_per_minute" jsonschema:"default=60,description=Max LLM calls per minute"`
		MaxBackoff        time.Duration `yaml:"max_backoff" json:"max_backoff" jsonschema:"default=1m,description=Cap for the failure backoff interval"`
	} `yaml:"rate_limit" json:"rate_limit" jsonschema:"description=Per-channel outbound call pacing"`

	Retry struct {
		Attempts int           `yaml:"attempts" json:"attempts" jsonschema:"default=3,description=Attempts per external call before giving up on the unit"`
		Delay    time.Duration `yaml:"delay" json:"delay" jsonschema:"default=3s,description=Initial retry delay"`
	} `yaml:"retry" json:"retry" jsonschema:"description=Retry policy for provider and LLM calls"`

	Cache struct {
		TTL time.Duration `yaml:"ttl" json:"ttl" jsonschema:"default=5m,description=Keyword/prompt snapshot time-to-live"`
	} `yaml:"cache" json:"cache" jsonschema:"description=Configuration snapshot caching"`

	Dedup struct {
		MinSummaryLength int  `yaml:"min_summary_length" json:"min_summary_length" jsonschema:"default=20,description=Reject articles with summaries shorter than this"`
		Historical       bool `yaml:"historical" json:"historical" jsonschema:"default=false,description=Seed dedup keys from prior runs recorded in the archive"`
	} `yaml:"dedup" json:"dedup" jsonschema:"description=Deduplication settings"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:mayanews.db?cache=shared&mode=rwc,description=Local archive database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=4,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=2,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Local archive configuration"`

	Export struct {
		Dir string `yaml:"dir" json:"dir" jsonschema:"default=./exports,description=Directory for CSV and document exports and the run log"`
	} `yaml:"export" json:"export" jsonschema:"description=Local flat-file fallback outputs"`
}

// LLMConfig holds LLM settings shared by the article filter and briefing generator
type LLMConfig struct {
	Endpoint          string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint (empty for api.openai.com)"`
	APIKey            string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (normally ${OPENAI_API_KEY})"`
	Model             string        `yaml:"model" json:"model" jsonschema:"default=gpt-4o-mini,description=Model name"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	FilterMaxTokens   int           `yaml:"filter_max_tokens" json:"filter_max_tokens" jsonschema:"default=10,description=Max tokens for the YES/NO filter response"`
	FilterTemperature float64       `yaml:"filter_temperature" json:"filter_temperature" jsonschema:"default=0.1,description=Temperature for the filter"`
	ScriptMaxTokens   int           `yaml:"script_max_tokens" json:"script_max_tokens" jsonschema:"default=300,description=Max tokens for the explainer script"`
	OneSheetMaxTokens int           `yaml:"one_sheet_max_tokens" json:"one_sheet_max_tokens" jsonschema:"default=1000,description=Max tokens for the one-sheet briefing"`
	Temperature       float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.5,description=Temperature for briefing generation"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Store.Timeout == 0 {
		cfg.Store.Timeout = 30 * time.Second
	}

	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "https://web-api-cdn.ground.news"
	}
	if cfg.Provider.ArticleURL == "" {
		cfg.Provider.ArticleURL = "https://ground.news"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 10 * time.Second
	}
	if cfg.Provider.CutoffDays == 0 {
		cfg.Provider.CutoffDays = 2
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.LLM.FilterMaxTokens == 0 {
		cfg.LLM.FilterMaxTokens = 10
	}
	if cfg.LLM.FilterTemperature == 0 {
		cfg.LLM.FilterTemperature = 0.1
	}
	if cfg.LLM.ScriptMaxTokens == 0 {
		cfg.LLM.ScriptMaxTokens = 300
	}
	if cfg.LLM.OneSheetMaxTokens == 0 {
		cfg.LLM.OneSheetMaxTokens = 1000
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.5
	}

	if cfg.RateLimit.ProviderPerMinute == 0 {
		cfg.RateLimit.ProviderPerMinute = 30
	}
	if cfg.RateLimit.LLMPerMinute == 0 {
		cfg.RateLimit.LLMPerMinute = 60
	}
	if cfg.RateLimit.MaxBackoff == 0 {
		cfg.RateLimit.MaxBackoff = time.Minute
	}

	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = 3
	}
	if cfg.Retry.Delay == 0 {
		cfg.Retry.Delay = 3 * time.Second
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}

	if cfg.Dedup.MinSummaryLength == 0 {
		cfg.Dedup.MinSummaryLength = 20
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:mayanews.db?cache=shared&mode=rwc"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 4
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "./exports"
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Store.Spreadsheet == "" {
		return fmt.Errorf("store.spreadsheet is required")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.FilterTemperature < 0 || cfg.LLM.FilterTemperature > 2 {
		return fmt.Errorf("llm.filter_temperature must be between 0 and 2")
	}
	if cfg.Provider.CutoffDays < 1 {
		return fmt.Errorf("provider.cutoff_days must be at least 1")
	}
	if cfg.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1")
	}
	if cfg.RateLimit.ProviderPerMinute < 1 || cfg.RateLimit.LLMPerMinute < 1 {
		return fmt.Errorf("rate limits must be at least 1 call per minute")
	}
	return nil
}
