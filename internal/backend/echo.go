package backend

import (
	"context"

	"MiniChat/internal/config"
	"MiniChat/internal/session"
)

// Echo replies with the content of the last message it receives.
// It needs no network and is useful for trying the client offline.
type Echo struct{}

// Name returns the backend name
func (Echo) Name() string { return config.BackendEcho }

// Complete echoes the last message back as the assistant
func (Echo) Complete(ctx context.Context, messages []session.Message) (Completion, error) {
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}
	if len(messages) == 0 {
		return Completion{}, invalidResponse(config.BackendEcho, "nothing to echo")
	}
	last := messages[len(messages)-1]
	return Completion{
		Message: session.AssistantMessage(last.Content),
		Model:   config.BackendEcho,
	}, nil
}

// ListModels reports the single pseudo-model
func (Echo) ListModels(context.Context) ([]string, error) {
	return []string{config.BackendEcho}, nil
}
