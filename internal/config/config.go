package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the jobloader server and worker.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig
	AI       AIConfig
	Fetch    FetchConfig
	Ingest   IngestConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port               int
	Env                string
	RateLimitPerMinute int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type RedisConfig struct {
	URL string
}

type QueueConfig struct {
	Name        string
	Concurrency int
	PollWait    time.Duration
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Ollama           OllamaConfig
	VLLM             VLLMConfig
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type FetchConfig struct {
	UserAgent    string
	HTTPTimeout  time.Duration
	MaxBodyBytes int64
	BrowserBin   string
	Stealth      bool
	Settle       time.Duration
	PatternsFile string
	HTMLBudget   int
	TextBudget   int
}

type IngestConfig struct {
	SoftTimeout       time.Duration
	HardTimeout       time.Duration
	ReconcileInterval time.Duration
	StalePendingAfter time.Duration
	StatusTTL         time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

var validProviders = map[string]bool{
	"ollama":    true,
	"vllm":      true,
	"openai":    true,
	"anthropic": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               envInt("JOBLOADER_PORT", 8080),
			Env:                envString("JOBLOADER_ENV", "development"),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsDir:   envString("DATABASE_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Queue: QueueConfig{
			Name:        envString("QUEUE_NAME", "jobloader:ingest"),
			Concurrency: envInt("WORKER_CONCURRENCY", 4),
			PollWait:    envDuration("QUEUE_POLL_WAIT", 5*time.Second),
		},
		AI: AIConfig{
			Provider:         os.Getenv("AI_PROVIDER"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 300*time.Second),
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000"),
				Model:   envString("VLLM_MODEL", ""),
				APIKey:  os.Getenv("VLLM_API_KEY"),
			},
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-3.5-turbo-16k"),
				BaseURL: os.Getenv("OPENAI_BASE_URL"),
			},
			Anthropic: AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
		},
		Fetch: loadFetch(),
		Ingest: IngestConfig{
			SoftTimeout:       envDurationSecs("INGEST_SOFT_TIMEOUT_SECS", 600*time.Second),
			HardTimeout:       envDurationSecs("INGEST_HARD_TIMEOUT_SECS", 630*time.Second),
			ReconcileInterval: envDuration("RECONCILE_INTERVAL", 5*time.Minute),
			StalePendingAfter: envDuration("STALE_PENDING_AFTER", time.Hour),
			StatusTTL:         envDuration("JOB_STATUS_TTL", 30*time.Minute),
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", "INFO"),
			File:  os.Getenv("LOG_FILE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.AI.Provider == "" {
		return fmt.Errorf("AI_PROVIDER is required")
	}
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of ollama, vllm, openai, anthropic; got %q", c.AI.Provider)
	}

	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}
	if c.AI.Provider == "anthropic" && c.AI.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
	}
	if c.AI.Provider == "vllm" && c.AI.VLLM.Model == "" {
		return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
	}

	if c.Ingest.SoftTimeout <= 0 {
		return fmt.Errorf("INGEST_SOFT_TIMEOUT_SECS must be positive")
	}
	if c.Ingest.HardTimeout <= c.Ingest.SoftTimeout {
		return fmt.Errorf("INGEST_HARD_TIMEOUT_SECS (%s) must exceed INGEST_SOFT_TIMEOUT_SECS (%s)",
			c.Ingest.HardTimeout, c.Ingest.SoftTimeout)
	}

	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", c.Queue.Concurrency)
	}

	if err := c.Fetch.Validate(); err != nil {
		return err
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

// LoadFetch reads only the fetch and compression settings. Tools that fetch a
// page without touching the database or queue use it.
func LoadFetch() (FetchConfig, error) {
	fc := loadFetch()
	if err := fc.Validate(); err != nil {
		return FetchConfig{}, err
	}
	return fc, nil
}

func loadFetch() FetchConfig {
	return FetchConfig{
		UserAgent:    os.Getenv("FETCH_USER_AGENT"),
		HTTPTimeout:  envDuration("FETCH_HTTP_TIMEOUT", 60*time.Second),
		MaxBodyBytes: int64(envInt("FETCH_MAX_BODY_BYTES", 10<<20)),
		BrowserBin:   os.Getenv("BROWSER_BIN"),
		Stealth:      envBool("BROWSER_STEALTH", false),
		Settle:       envDuration("BROWSER_SETTLE", time.Second),
		PatternsFile: os.Getenv("FETCH_PATTERNS_FILE"),
		HTMLBudget:   envInt("COMPRESS_HTML_BUDGET", 14000),
		TextBudget:   envInt("COMPRESS_TEXT_BUDGET", 10000),
	}
}

// Validate checks the compression budgets.
func (f FetchConfig) Validate() error {
	if f.TextBudget <= 0 || f.HTMLBudget < f.TextBudget {
		return fmt.Errorf("COMPRESS_HTML_BUDGET (%d) must be at least COMPRESS_TEXT_BUDGET (%d) and both positive",
			f.HTMLBudget, f.TextBudget)
	}
	return nil
}
