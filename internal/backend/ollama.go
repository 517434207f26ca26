package backend

import (
	"MiniChat/internal/config"

	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/trace"
)

// ollamaPlaceholderKey satisfies the SDK; a local Ollama server ignores it.
const ollamaPlaceholderKey = "ollama"

// NewOllama builds a provider for a local Ollama server through its
// OpenAI-compatible /v1 API. The model uses Ollama's "model:version" form.
func NewOllama(cfg config.Config, tracer trace.Tracer, extra ...option.RequestOption) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultBaseURL(config.BackendOllama)
	}
	opts := append([]option.RequestOption{option.WithAPIKey(ollamaPlaceholderKey)}, extra...)
	return NewOpenAI(cfg, tracer, opts...)
}
