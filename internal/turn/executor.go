// Package turn runs one conversation step: the full history goes to the
// provider and its reply is appended as the assistant's message.
package turn

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MiniChat/internal/backend"
	"MiniChat/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Executor calls a provider with the whole conversation.
// It holds no conversation state of its own.
type Executor struct {
	provider backend.Provider
	logger   *slog.Logger
	tracer   trace.Tracer
	meter    metric.Meter

	turns    metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
	tokens   metric.Int64Counter
}

// Option configures optional Executor dependencies
type Option func(*Executor)

// WithLogger injects a logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracer injects a tracer
func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithMeter injects the meter the executor's instruments are created on
func WithMeter(m metric.Meter) Option {
	return func(e *Executor) {
		if m != nil {
			e.meter = m
		}
	}
}

// New builds an Executor around provider
func New(provider backend.Provider, opts ...Option) (*Executor, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	e := &Executor{
		provider: provider,
		logger:   slog.Default(),
		tracer:   tracenoop.NewTracerProvider().Tracer("turn"),
		meter:    metricnoop.NewMeterProvider().Meter("turn"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if err := e.instrument(e.meter); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Executor) instrument(m metric.Meter) error {
	turns, err := m.Int64Counter("minichat.turns",
		metric.WithDescription("Completed conversation turns"))
	if err != nil {
		return fmt.Errorf("create turns counter: %w", err)
	}
	failures, err := m.Int64Counter("minichat.turn.errors",
		metric.WithDescription("Turns that failed, by error kind"))
	if err != nil {
		return fmt.Errorf("create errors counter: %w", err)
	}
	duration, err := m.Float64Histogram("minichat.provider.duration",
		metric.WithDescription("Provider call duration in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return fmt.Errorf("create duration histogram: %w", err)
	}
	tokens, err := m.Int64Counter("minichat.tokens",
		metric.WithDescription("Tokens reported by the provider"))
	if err != nil {
		return fmt.Errorf("create tokens counter: %w", err)
	}
	e.turns, e.failures, e.duration, e.tokens = turns, failures, duration, tokens
	return nil
}

// Provider returns the provider the executor calls
func (e *Executor) Provider() backend.Provider {
	return e.provider
}

// Execute sends every message of conv, in order, to the provider and returns
// conv with the reply appended. conv itself is left untouched, so on error the
// caller still holds the state it had before the turn.
func (e *Executor) Execute(ctx context.Context, conv session.Conversation) (session.Conversation, error) {
	name := e.provider.Name()
	ctx, span := e.tracer.Start(ctx, "turn", trace.WithAttributes(
		attribute.String("llm.backend", name),
		attribute.Int("conversation.length", conv.Len()),
	))
	defer span.End()

	messages := conv.Messages()
	e.logger.Debug("turn start", "backend", name, "messages", len(messages))

	start := time.Now()
	completion, err := e.provider.Complete(ctx, messages)
	elapsed := time.Since(start)
	backendAttr := metric.WithAttributes(attribute.String("llm.backend", name))
	e.duration.Record(ctx, float64(elapsed.Milliseconds()), backendAttr)

	if err == nil && completion.Message.Role != session.RoleAssistant {
		err = fmt.Errorf("%s: %w: reply role %q", name, backend.ErrInvalidResponse, completion.Message.Role)
	}
	if err != nil {
		kind := backend.Kind(err)
		e.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("llm.backend", name),
			attribute.String("error.kind", kind),
		))
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		e.logger.Error("turn failed", "backend", name, "kind", kind, "duration_ms", elapsed.Milliseconds(), "error", err)
		return conv, err
	}

	e.turns.Add(ctx, 1, backendAttr)
	if u := completion.Usage; u.PromptTokens > 0 || u.CompletionTokens > 0 {
		e.tokens.Add(ctx, u.PromptTokens, metric.WithAttributes(
			attribute.String("llm.backend", name), attribute.String("direction", "prompt")))
		e.tokens.Add(ctx, u.CompletionTokens, metric.WithAttributes(
			attribute.String("llm.backend", name), attribute.String("direction", "completion")))
	}

	updated := conv.Append(completion.Message)
	e.logger.Info("turn finished",
		"backend", name,
		"model", completion.Model,
		"messages", updated.Len(),
		"duration_ms", elapsed.Milliseconds(),
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
	)
	return updated, nil
}
