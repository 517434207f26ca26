// Package backend adapts hosted LLM completion APIs to a single Provider contract.
package backend

import (
	"context"
	"fmt"

	"MiniChat/internal/config"
	"MiniChat/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Usage is the token accounting reported by a backend, zero when unknown
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Completion is one reply from a provider
type Completion struct {
	Message session.Message
	Model   string
	Usage   Usage
}

// Provider produces the next assistant message for an ordered history
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []session.Message) (Completion, error)
}

// ModelLister is implemented by providers that can enumerate their models
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// New builds the provider selected by cfg.Backend. cfg must already be normalized.
func New(cfg config.Config, tracer trace.Tracer) (Provider, error) {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("backend")
	}

	switch cfg.Backend {
	case config.BackendOpenAI, config.BackendGrok:
		return NewOpenAI(cfg, tracer), nil
	case config.BackendOllama:
		return NewOllama(cfg, tracer), nil
	case config.BackendAnthropic:
		return NewAnthropic(cfg, tracer), nil
	case config.BackendEcho:
		return Echo{}, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}

func startSpan(ctx context.Context, tracer trace.Tracer, backend, model string, n int) (context.Context, trace.Span) {
	return tracer.Start(ctx, backend+".complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.backend", backend),
			attribute.String("llm.model", model),
			attribute.Int("llm.messages", n),
		),
	)
}

func endSpan(span trace.Span, c Completion, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.Int64("llm.usage.prompt_tokens", c.Usage.PromptTokens),
		attribute.Int64("llm.usage.completion_tokens", c.Usage.CompletionTokens),
	)
}
