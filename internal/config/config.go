package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Reasoning filter modes.
const (
	FilterModeStream = "stream"
	FilterModeDelta  = "delta"
)

// Config holds all configuration for the multichat service.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"multichat-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"MULTICHAT_API_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Logged queries are sanitized at this level: none, hashed or full.
	LogPIILevel string `env:"LOG_PII_LEVEL" envDefault:"hashed"`

	// Model catalogue; empty means the embedded default.
	CatalogFile string `env:"MODEL_CATALOG_FILE" envDefault:""`

	// Upstream requests
	UpstreamTimeout     time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"120s"`
	UpstreamTemperature float32       `env:"UPSTREAM_TEMPERATURE" envDefault:"0.7"`
	UpstreamMaxTokens   int           `env:"UPSTREAM_MAX_TOKENS" envDefault:"1000"`

	// Reasoning markup
	ReasoningTags       []string `env:"REASONING_TAGS" envSeparator:"," envDefault:"thinking"`
	ReasoningFilterMode string   `env:"REASONING_FILTER_MODE" envDefault:"stream"`

	// Events buffered between the model streams and the response writer.
	MuxBufferSize int `env:"MUX_BUFFER_SIZE" envDefault:"100"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.ReasoningFilterMode)) {
	case FilterModeStream, FilterModeDelta:
		c.ReasoningFilterMode = strings.ToLower(strings.TrimSpace(c.ReasoningFilterMode))
	default:
		return fmt.Errorf("REASONING_FILTER_MODE must be %q or %q, got %q", FilterModeStream, FilterModeDelta, c.ReasoningFilterMode)
	}

	tags := make([]string, 0, len(c.ReasoningTags))
	for _, tag := range c.ReasoningTags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if strings.ContainsAny(tag, "<>/ ") {
			return fmt.Errorf("REASONING_TAGS entry %q must be a bare tag name", tag)
		}
		tags = append(tags, tag)
	}
	c.ReasoningTags = tags

	if c.MuxBufferSize < 0 {
		return fmt.Errorf("MUX_BUFFER_SIZE must not be negative")
	}
	if c.UpstreamMaxTokens <= 0 {
		return fmt.Errorf("UPSTREAM_MAX_TOKENS must be positive")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	return nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
