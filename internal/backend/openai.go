package backend

import (
	"context"
	"fmt"

	"MiniChat/internal/config"
	"MiniChat/internal/session"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/trace"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint
type OpenAI struct {
	name   string
	model  string
	client openai.Client
	tracer trace.Tracer
}

// NewOpenAI builds a provider for the openai and grok backends.
// extra options are applied last and may override the configured transport.
func NewOpenAI(cfg config.Config, tracer trace.Tracer, extra ...option.RequestOption) *OpenAI {
	opts := []option.RequestOption{option.WithMaxRetries(cfg.MaxRetries)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if key := cfg.APIKey(); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	opts = append(opts, extra...)

	return &OpenAI{
		name:   cfg.Backend,
		model:  cfg.Model,
		client: openai.NewClient(opts...),
		tracer: tracer,
	}
}

// Name returns the backend name
func (p *OpenAI) Name() string { return p.name }

// Complete sends the full history and returns the first choice
func (p *OpenAI) Complete(ctx context.Context, messages []session.Message) (c Completion, err error) {
	ctx, span := startSpan(ctx, p.tracer, p.name, p.model, len(messages))
	defer func() {
		endSpan(span, c, err)
		span.End()
	}()

	params, err := p.newParams(messages)
	if err != nil {
		return Completion{}, err
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Completion{}, classify(p.name, err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, invalidResponse(p.name, "empty completion choices")
	}

	msg := resp.Choices[0].Message
	content := msg.Content
	if content == "" {
		content = msg.Refusal
	}
	if content == "" {
		return Completion{}, invalidResponse(p.name, "empty assistant content (finish_reason=%s)", resp.Choices[0].FinishReason)
	}

	return Completion{
		Message: session.AssistantMessage(content),
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// ListModels returns the model ids the endpoint advertises
func (p *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, classify(p.name, err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (p *OpenAI) newParams(messages []session.Message) (openai.ChatCompletionNewParams, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, msg := range messages {
		if !msg.Role.Valid() {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("invalid message role at index %d: %q", i, msg.Role)
		}
		if msg.Role == session.RoleUser {
			out = append(out, openai.UserMessage(msg.Content))
			continue
		}
		out = append(out, openai.AssistantMessage(msg.Content))
	}
	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: out,
	}, nil
}
