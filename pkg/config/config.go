package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const maxConfigSize = 1 << 20 // 1MB

// Config represents the application configuration.
type Config struct {
	// API Keys
	OpenAIKey string `yaml:"openai_key"`

	// Model Configuration
	ChatModel      string  `yaml:"chat_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`

	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Sessions  SessionConfig   `yaml:"sessions"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Safety    SafetyConfig    `yaml:"safety"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimit       float64       `yaml:"rate_limit"`
	RateBurst       int           `yaml:"rate_burst"`
	FeedbackFile    string        `yaml:"feedback_file"`
}

// CatalogConfig holds the product catalog source configuration.
type CatalogConfig struct {
	Paths        []string      `yaml:"paths"`
	WatchEnabled bool          `yaml:"watch_enabled"`
	WatchCron    string        `yaml:"watch_cron"`
	ReloadDelay  time.Duration `yaml:"reload_delay"`
}

// SessionConfig holds conversation session limits and backend selection.
type SessionConfig struct {
	Backend       string        `yaml:"backend"` // memory, redis
	MaxMessages   int           `yaml:"max_messages"`
	ContextWindow int           `yaml:"context_window"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Redis         RedisConfig   `yaml:"redis"`
}

// RedisConfig holds redis connection settings for the session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RetrievalConfig holds vector store configuration.
type RetrievalConfig struct {
	Provider   string `yaml:"provider"` // memory, qdrant
	TopK       int    `yaml:"top_k"`
	Collection string `yaml:"collection"`
	QdrantHost string `yaml:"qdrant_host"`
	QdrantPort int    `yaml:"qdrant_port"`
}

// SafetyConfig holds input scanning configuration. Scanning is on by
// default; set disabled to opt out.
type SafetyConfig struct {
	Disabled      bool `yaml:"disabled"`
	MaxInputChars int  `yaml:"max_input_chars"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console, json
}

// TracingConfig holds the tracing exporter settings.
type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ExporterType string `yaml:"exporter_type"` // otlp, stdout, none
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// LoadConfig loads configuration from a YAML file, filling gaps from the
// environment and defaults. An empty path returns a default configuration.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigSize {
			return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ChatModel == "" {
		c.ChatModel = "gpt-4o-mini"
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "text-embedding-3-small"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 512
	}
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// Streaming responses can run well past a normal request.
		c.Server.WriteTimeout = 5 * time.Minute
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 10
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = 20
	}
	if c.Server.FeedbackFile == "" {
		c.Server.FeedbackFile = "feedback.csv"
	}
	if c.Catalog.WatchCron == "" {
		c.Catalog.WatchCron = "@every 5m"
	}
	if c.Sessions.Backend == "" {
		c.Sessions.Backend = "memory"
	}
	if c.Sessions.MaxMessages == 0 {
		c.Sessions.MaxMessages = 20
	}
	if c.Sessions.ContextWindow == 0 {
		c.Sessions.ContextWindow = 8
	}
	if c.Sessions.IdleTimeout == 0 {
		c.Sessions.IdleTimeout = 24 * time.Hour
	}
	if c.Sessions.SweepInterval == 0 {
		c.Sessions.SweepInterval = time.Hour
	}
	if c.Sessions.Redis.Addr == "" {
		c.Sessions.Redis.Addr = "localhost:6379"
	}
	if c.Retrieval.Provider == "" {
		c.Retrieval.Provider = "memory"
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 3
	}
	if c.Retrieval.Collection == "" {
		c.Retrieval.Collection = "catalog"
	}
	if c.Retrieval.QdrantHost == "" {
		c.Retrieval.QdrantHost = "localhost"
	}
	if c.Retrieval.QdrantPort == 0 {
		c.Retrieval.QdrantPort = 6334
	}
	if c.Safety.MaxInputChars == 0 {
		c.Safety.MaxInputChars = 1000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Tracing.ExporterType == "" {
		c.Tracing.ExporterType = "none"
	}
}

func (c *Config) applyEnv() {
	if c.OpenAIKey == "" {
		c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Sessions.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Sessions.Redis.Password = v
	}
	if v := os.Getenv("QDRANT_HOST"); v != "" {
		c.Retrieval.QdrantHost = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		c.Tracing.OTLPEndpoint = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	switch c.Sessions.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend: %q", c.Sessions.Backend)
	}
	switch c.Retrieval.Provider {
	case "memory", "qdrant":
	default:
		return fmt.Errorf("unknown retrieval provider: %q", c.Retrieval.Provider)
	}
	if c.Sessions.ContextWindow > c.Sessions.MaxMessages {
		return fmt.Errorf("context_window (%d) exceeds max_messages (%d)",
			c.Sessions.ContextWindow, c.Sessions.MaxMessages)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval top_k must be positive")
	}
	return nil
}

// SaveConfig writes configuration to a YAML file.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
