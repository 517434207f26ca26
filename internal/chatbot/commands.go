package chatbot

import (
	"context"
	"fmt"
	"strings"

	"MiniChat/internal/backend"
	"MiniChat/internal/config"
)

// handleCommand handles special commands. It reports whether the loop should stop.
func (cb *ChatBot) handleCommand(ctx context.Context, cmd string, r *Renderer) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	cb.logger.Debug("command", "name", parts[0], "args", len(parts)-1)

	switch strings.ToLower(parts[0]) {
	case "/quit", "/exit":
		return true, nil

	case "/clear":
		cb.session = cb.newSession()
		r.Info("Started new session: %s", cb.session.ID)
		return false, nil

	case "/history":
		if cb.session.Conversation.Len() == 0 {
			r.Info("No messages yet.")
			return false, nil
		}
		for _, msg := range cb.session.Conversation.Messages() {
			r.Message(msg)
		}
		return false, nil

	case "/switch":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /switch <backend> (%s)", strings.Join(config.Backends, "|"))
		}
		next := cb.config
		next.Backend = strings.ToLower(parts[1])
		next.Model = ""
		next.BaseURL = ""
		if err := cb.reconfigure(next); err != nil {
			return false, err
		}
		cb.session.Backend = cb.config.Backend
		r.Info("Switched to %s backend (%s)", cb.config.Backend, cb.config.Model)
		return false, nil

	case "/model":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /model <name>")
		}
		next := cb.config
		next.Model = parts[1]
		if err := cb.reconfigure(next); err != nil {
			return false, err
		}
		r.Info("Model set to: %s", cb.config.Model)
		return false, nil

	case "/models":
		lister, ok := cb.executor.Provider().(backend.ModelLister)
		if !ok {
			return false, fmt.Errorf("%s backend cannot list models", cb.config.Backend)
		}
		models, err := lister.ListModels(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to list models: %w", err)
		}
		r.Info("Available %s models:", cb.config.Backend)
		for i, model := range models {
			current := ""
			if model == cb.config.Model {
				current = " (current)"
			}
			r.Println(fmt.Sprintf("%d. %s%s", i+1, model, current))
		}
		return false, nil

	case "/help":
		r.Println("Available commands:")
		r.Println("  exit, quit, /exit, /quit - Leave the chat")
		r.Println("  /clear                   - Start a new session")
		r.Println("  /history                 - Show the conversation so far")
		r.Println(fmt.Sprintf("  /switch <backend>        - Switch backend (%s)", strings.Join(config.Backends, "|")))
		r.Println("  /model <name>            - Use another model on the current backend")
		r.Println("  /models                  - List models the backend offers")
		r.Println("  /help                    - Show this help message")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s (type /help for commands)", parts[0])
	}
}

// reconfigure swaps the provider for one built from next. The conversation is kept.
func (cb *ChatBot) reconfigure(next config.Config) error {
	next = next.Normalize()
	if err := next.Validate(); err != nil {
		return err
	}
	executor, err := cb.buildExecutor(next)
	if err != nil {
		return err
	}
	cb.logger.Info("provider changed",
		"from_backend", cb.config.Backend, "from_model", cb.config.Model,
		"to_backend", next.Backend, "to_model", next.Model,
	)
	cb.config = next
	cb.executor = executor
	return nil
}
