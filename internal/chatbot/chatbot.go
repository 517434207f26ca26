package chatbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"MiniChat/internal/backend"
	"MiniChat/internal/cache"
	"MiniChat/internal/config"
	"MiniChat/internal/session"
	"MiniChat/internal/telemetry"
	"MiniChat/internal/turn"
)

// State is the interaction loop's position
type State int

const (
	AwaitingInput State = iota
	ExecutingTurn
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting_input"
	case ExecutingTurn:
		return "executing_turn"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsExitKeyword reports whether input asks the loop to stop
func IsExitKeyword(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit":
		return true
	default:
		return false
	}
}

// ProviderFactory builds the provider for a configuration
type ProviderFactory func(cfg config.Config) (backend.Provider, error)

// ChatBot represents the main application
type ChatBot struct {
	config      config.Config
	logger      *slog.Logger
	telemetry   *telemetry.Telemetry
	cache       *cache.Store
	newProvider ProviderFactory
	executor    *turn.Executor
	session     *session.Session
	state       State
}

// Option configures optional ChatBot dependencies
type Option func(*ChatBot)

// WithLogger injects a logger
func WithLogger(l *slog.Logger) Option {
	return func(cb *ChatBot) {
		if l != nil {
			cb.logger = l
		}
	}
}

// WithTelemetry injects the tracer and meter
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(cb *ChatBot) {
		if t != nil {
			cb.telemetry = t
		}
	}
}

// WithProviderFactory replaces how providers are built from configuration
func WithProviderFactory(f ProviderFactory) Option {
	return func(cb *ChatBot) {
		if f != nil {
			cb.newProvider = f
		}
	}
}

// NewChatBot creates a new ChatBot instance. cfg is normalized and validated here.
func NewChatBot(cfg config.Config, opts ...Option) (*ChatBot, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cb := &ChatBot{
		config:    cfg,
		logger:    slog.Default(),
		telemetry: telemetry.Noop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cb)
		}
	}
	if cb.newProvider == nil {
		tracer := cb.telemetry.Tracer
		cb.newProvider = func(cfg config.Config) (backend.Provider, error) {
			return backend.New(cfg, tracer)
		}
	}
	if cfg.Cache {
		cb.cache = cache.NewStore(cb.logger)
	}

	executor, err := cb.buildExecutor(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider: %w", err)
	}
	cb.executor = executor
	cb.session = cb.newSession()

	if cfg.Debug {
		cb.logger.Debug("debug mode enabled")
	}
	return cb, nil
}

func (cb *ChatBot) buildExecutor(cfg config.Config) (*turn.Executor, error) {
	provider, err := cb.newProvider(cfg)
	if err != nil {
		return nil, err
	}
	if cb.cache != nil {
		provider = cb.cache.Wrap(provider, cfg.Backend+"/"+cfg.Model)
	}
	return turn.New(provider,
		turn.WithLogger(cb.logger),
		turn.WithTracer(cb.telemetry.Tracer),
		turn.WithMeter(cb.telemetry.Meter),
	)
}

// newSession creates a new session
func (cb *ChatBot) newSession() *session.Session {
	sess := session.New(cb.config.Backend)
	cb.logger.Info("created new session", "session_id", sess.ID, "backend", sess.Backend, "model", cb.config.Model)
	return sess
}

// Session returns the current session
func (cb *ChatBot) Session() *session.Session {
	return cb.session
}

// State returns where the loop currently is
func (cb *ChatBot) State() State {
	return cb.state
}

// sendMessage runs one turn for userMessage and returns the reply.
// The session only advances when the turn succeeds.
func (cb *ChatBot) sendMessage(ctx context.Context, userMessage string) (string, error) {
	cb.state = ExecutingTurn
	defer func() { cb.state = AwaitingInput }()

	conv := cb.session.Conversation.Append(session.UserMessage(userMessage))
	updated, err := cb.executor.Execute(ctx, conv)
	if err != nil {
		return "", err
	}
	cb.session.Conversation = updated

	reply, _ := updated.Last()
	return reply.Content, nil
}

// Run reads lines from in until an exit keyword or end of input, writing
// replies to out. A failed turn is reported and the loop keeps going.
// Cancelling ctx ends the loop with ctx's error.
func (cb *ChatBot) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if in == nil {
		return fmt.Errorf("input reader is required")
	}
	if out == nil {
		out = io.Discard
	}
	r := NewRenderer(out, cb.config.NoColor)

	r.Println("=== MiniChat ===")
	r.Info("Session: %s", cb.session.ID)
	r.Info("Backend: %s (%s)", cb.config.Backend, cb.config.Model)
	r.Println("Type /help for commands, exit or quit to leave")
	r.Println()

	lines := newLineReader(in, MaxLineBytes)
	cb.state = AwaitingInput

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		r.Prompt()
		line, err := lines.next()
		if errors.Is(err, errLineTooLong) {
			r.Error(err)
			cb.logger.Warn("input rejected", "error", err)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			runErr = fmt.Errorf("read input: %w", err)
			break
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if IsExitKeyword(input) {
			break
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := cb.handleCommand(ctx, input, r)
			if err != nil {
				r.Error(err)
				cb.logger.Error("command error", "command", input, "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		response, err := cb.sendMessage(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			r.Error(err)
			continue
		}

		r.Assistant(response)
	}

	cb.state = Terminated
	cb.logger.Info("session ended",
		"session_id", cb.session.ID,
		"message_count", cb.session.Conversation.Len(),
	)
	if runErr != nil {
		return runErr
	}

	r.Assistant("Bye!")
	return nil
}
