package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type ArxivConfig struct {
	Categories []string `toml:"categories"`
	MaxResults int      `toml:"max_results"`
}

type FilterConfig struct {
	Provider              string   `toml:"provider"`
	APIKey                string   `toml:"api_key"`
	Model                 string   `toml:"model"`
	BaseURL               string   `toml:"base_url"`
	RelevanceThreshold    float64  `toml:"relevance_threshold"`
	CoarseFilterThreshold float64  `toml:"coarse_filter_threshold"`
	EnableCoarseFilter    bool     `toml:"enable_coarse_filter"`
	Keywords              []string `toml:"keywords"`
	MaxConcurrent         int      `toml:"max_concurrent"`
	RequestTimeoutSecs    int      `toml:"request_timeout_secs"`
}

func (f FilterConfig) RequestTimeout() time.Duration {
	return time.Duration(f.RequestTimeoutSecs) * time.Second
}

type StorageConfig struct {
	DatabasePath   string `toml:"database_path"`
	MaxStorageSize int    `toml:"max_storage_size"`
}

type EmailConfig struct {
	Enabled        bool   `toml:"enabled"`
	SMTPServer     string `toml:"smtp_server"`
	SMTPPort       int    `toml:"smtp_port"`
	SenderEmail    string `toml:"sender_email"`
	SenderPassword string `toml:"sender_password"`
	ReceiverEmail  string `toml:"receiver_email"`
}

type WebhookConfig struct {
	Enabled       bool   `toml:"enabled"`
	Type          string `toml:"type"` // "serverchan" or "wecom"
	ServerChanKey string `toml:"serverchan_key"`
	WecomWebhook  string `toml:"wecom_webhook"`
}

type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Time    string `toml:"time"` // "HH:MM", local time
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type Config struct {
	Arxiv    ArxivConfig    `toml:"arxiv"`
	Filter   FilterConfig   `toml:"filter"`
	Storage  StorageConfig  `toml:"storage"`
	Email    EmailConfig    `toml:"email"`
	Webhook  WebhookConfig  `toml:"webhook"`
	Schedule ScheduleConfig `toml:"schedule"`
	Server   ServerConfig   `toml:"server"`
}

// Default returns the configuration used when a field is absent from
// the config file.
func Default() Config {
	return Config{
		Arxiv: ArxivConfig{
			Categories: []string{"cs.DC", "cs.PF", "cs.AR"},
			MaxResults: 50,
		},
		Filter: FilterConfig{
			Provider:              "deepseek",
			RelevanceThreshold:    0.7,
			CoarseFilterThreshold: 0.3,
			EnableCoarseFilter:    true,
			MaxConcurrent:         4,
			RequestTimeoutSecs:    60,
		},
		Storage: StorageConfig{
			DatabasePath:   "papers.db",
			MaxStorageSize: 0,
		},
		Schedule: ScheduleConfig{
			Enabled: true,
			Time:    "09:00",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the TOML file at path over the defaults and applies
// environment overrides. LLM_API_KEY takes precedence over
// filter.api_key so credentials can stay out of the config file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if key := os.Getenv("LLM_API_KEY"); key != "" {
		cfg.Filter.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var providers = map[string]bool{
	"deepseek": true,
	"qwen":     true,
	"gemini":   true,
	"claude":   true,
}

// Validate rejects configurations the pipeline cannot be built from.
// Surfaced at startup, before any component is constructed.
func (c *Config) Validate() error {
	if !providers[c.Filter.Provider] {
		return fmt.Errorf("config: unsupported filter provider %q", c.Filter.Provider)
	}
	if c.Filter.APIKey == "" {
		return fmt.Errorf("config: filter.api_key is required (or set LLM_API_KEY)")
	}
	if c.Filter.RelevanceThreshold < 0 || c.Filter.RelevanceThreshold > 1 {
		return fmt.Errorf("config: filter.relevance_threshold must be in [0,1], got %v",
			c.Filter.RelevanceThreshold)
	}
	if c.Filter.CoarseFilterThreshold < 0 || c.Filter.CoarseFilterThreshold > 1 {
		return fmt.Errorf("config: filter.coarse_filter_threshold must be in [0,1], got %v",
			c.Filter.CoarseFilterThreshold)
	}
	if c.Storage.MaxStorageSize < 0 {
		return fmt.Errorf("config: storage.max_storage_size must be >= 0, got %d",
			c.Storage.MaxStorageSize)
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("config: storage.database_path is required")
	}
	return nil
}
