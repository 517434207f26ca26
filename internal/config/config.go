package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	BackendOllama    = "ollama"
	BackendAnthropic = "anthropic"
	BackendGrok      = "grok"
	BackendOpenAI    = "openai"
	BackendEcho      = "echo"
)

// Backends lists every backend name the client accepts, in help-text order
var Backends = []string{BackendOpenAI, BackendAnthropic, BackendGrok, BackendOllama, BackendEcho}

var defaultModels = map[string]string{
	BackendOpenAI:    "gpt-3.5-turbo",
	BackendAnthropic: "claude-sonnet-4-20250514",
	BackendGrok:      "grok-3",
	BackendOllama:    "llama3:latest",
	BackendEcho:      "echo",
}

var defaultBaseURLs = map[string]string{
	BackendGrok:   "https://api.x.ai/v1",
	BackendOllama: "http://localhost:11434/v1",
}

// Config holds application configuration
type Config struct {
	Backend    string        `mapstructure:"backend"`
	Model      string        `mapstructure:"model"`
	BaseURL    string        `mapstructure:"base_url"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxTokens  int64         `mapstructure:"max_tokens"`

	LogDir    string `mapstructure:"log_dir"`
	Debug     bool   `mapstructure:"debug"`
	Telemetry bool   `mapstructure:"telemetry"`
	Cache     bool   `mapstructure:"cache"`
	NoColor   bool   `mapstructure:"no_color"`

	// Provider credentials, read from the environment
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	GrokAPIKey      string `mapstructure:"grok_api_key"`
}

// Default returns the baseline configuration
func Default() Config {
	return Config{
		Backend:    BackendOpenAI,
		MaxRetries: 2,
		MaxTokens:  1024,
		LogDir:     "logs",
	}
}

// DefaultModel returns the model used when none is configured for backend
func DefaultModel(backend string) string {
	return defaultModels[backend]
}

// DefaultBaseURL returns the endpoint override a backend needs, or "" for the SDK default
func DefaultBaseURL(backend string) string {
	return defaultBaseURLs[backend]
}

// IsBackend reports whether name is a supported backend
func IsBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// Normalize trims values and fills per-backend defaults
func (c Config) Normalize() Config {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.Model = strings.TrimSpace(c.Model)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.LogDir = strings.TrimSpace(c.LogDir)
	c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)
	c.AnthropicAPIKey = strings.TrimSpace(c.AnthropicAPIKey)
	c.GrokAPIKey = strings.TrimSpace(c.GrokAPIKey)

	if c.Model == "" {
		c.Model = DefaultModel(c.Backend)
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL(c.Backend)
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
	return c
}

// APIKey returns the credential the configured backend uses
func (c Config) APIKey() string {
	switch c.Backend {
	case BackendOpenAI:
		return c.OpenAIAPIKey
	case BackendAnthropic:
		return c.AnthropicAPIKey
	case BackendGrok:
		return c.GrokAPIKey
	default:
		return ""
	}
}

// RequiresAPIKey reports whether backend refuses to run without a credential
func RequiresAPIKey(backend string) bool {
	switch backend {
	case BackendOpenAI, BackendAnthropic, BackendGrok:
		return true
	default:
		return false
	}
}

// Validate checks that the configuration can build a provider
func (c Config) Validate() error {
	if !IsBackend(c.Backend) {
		return fmt.Errorf("unknown backend %q (want one of %s)", c.Backend, strings.Join(Backends, "|"))
	}
	if c.Model == "" {
		return fmt.Errorf("model is not set for backend %s", c.Backend)
	}
	if RequiresAPIKey(c.Backend) && c.APIKey() == "" {
		return fmt.Errorf("%s not set", APIKeyEnv(c.Backend))
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// APIKeyEnv names the environment variable holding the backend's credential
func APIKeyEnv(backend string) string {
	switch backend {
	case BackendOpenAI:
		return "OPENAI_API_KEY"
	case BackendAnthropic:
		return "ANTHROPIC_API_KEY"
	case BackendGrok:
		return "GROK_API_KEY"
	default:
		return ""
	}
}
