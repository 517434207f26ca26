package backend

import (
	"context"
	"fmt"
	"strings"

	"MiniChat/internal/config"
	"MiniChat/internal/session"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel/trace"
)

// Anthropic talks to the Anthropic Messages API
type Anthropic struct {
	model     string
	maxTokens int64
	client    anthropic.Client
	tracer    trace.Tracer
}

// NewAnthropic builds a provider for the anthropic backend
func NewAnthropic(cfg config.Config, tracer trace.Tracer, extra ...option.RequestOption) *Anthropic {
	opts := []option.RequestOption{option.WithMaxRetries(cfg.MaxRetries)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.AnthropicAPIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.AnthropicAPIKey))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	opts = append(opts, extra...)

	return &Anthropic{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    anthropic.NewClient(opts...),
		tracer:    tracer,
	}
}

// Name returns the backend name
func (p *Anthropic) Name() string { return config.BackendAnthropic }

// Complete sends the full history and joins the text blocks of the reply
func (p *Anthropic) Complete(ctx context.Context, messages []session.Message) (c Completion, err error) {
	ctx, span := startSpan(ctx, p.tracer, p.Name(), p.model, len(messages))
	defer func() {
		endSpan(span, c, err)
		span.End()
	}()

	params, err := p.newParams(messages)
	if err != nil {
		return Completion{}, err
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return Completion{}, classify(p.Name(), err)
	}

	var parts []string
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	if len(parts) == 0 {
		return Completion{}, invalidResponse(p.Name(), "no text content (stop_reason=%s)", resp.StopReason)
	}

	return Completion{
		Message: session.AssistantMessage(strings.Join(parts, "\n")),
		Model:   string(resp.Model),
		Usage: Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

// ListModels returns the model ids available to the API key
func (p *Anthropic) ListModels(ctx context.Context) ([]string, error) {
	page, err := p.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, classify(p.Name(), err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (p *Anthropic) newParams(messages []session.Message) (anthropic.MessageNewParams, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for i, msg := range messages {
		if !msg.Role.Valid() {
			return anthropic.MessageNewParams{}, fmt.Errorf("invalid message role at index %d: %q", i, msg.Role)
		}
		if msg.Role == session.RoleUser {
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			continue
		}
		out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
	}
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages:  out,
	}, nil
}
