package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"MiniChat/internal/backend"
	"MiniChat/internal/session"
)

// CachedResponse represents a cached provider reply
type CachedResponse struct {
	Content   string
	Model     string
	Timestamp time.Time
}

// GenerateCacheKey generates a cache key from a scope and the messages.
// Timestamps are ignored so an identical history always hashes the same.
func GenerateCacheKey(scope string, messages []session.Message) string {
	h := sha256.New()
	h.Write([]byte(scope))
	for _, msg := range messages {
		h.Write([]byte{0})
		h.Write([]byte(msg.Role))
		h.Write([]byte{0})
		h.Write([]byte(msg.Content))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Store holds replies for the lifetime of the process
type Store struct {
	entries sync.Map
	logger  *slog.Logger
}

// NewStore creates an empty store
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

func (s *Store) load(key string) (CachedResponse, bool) {
	if val, ok := s.entries.Load(key); ok {
		s.logger.Info("cache hit", "key", key[:16])
		return val.(CachedResponse), true
	}
	return CachedResponse{}, false
}

func (s *Store) store(key string, c backend.Completion) {
	s.entries.Store(key, CachedResponse{
		Content:   c.Message.Content,
		Model:     c.Model,
		Timestamp: time.Now(),
	})
	s.logger.Info("cached response", "key", key[:16])
}

// Wrap returns a provider that answers repeated histories from the store.
// scope separates entries of different backends and models.
func (s *Store) Wrap(next backend.Provider, scope string) backend.Provider {
	return &provider{next: next, store: s, scope: scope}
}

type provider struct {
	next  backend.Provider
	store *Store
	scope string
}

func (p *provider) Name() string { return p.next.Name() }

func (p *provider) Complete(ctx context.Context, messages []session.Message) (backend.Completion, error) {
	key := GenerateCacheKey(p.scope, messages)
	if cached, ok := p.store.load(key); ok {
		return backend.Completion{
			Message: session.AssistantMessage(cached.Content),
			Model:   cached.Model,
		}, nil
	}

	c, err := p.next.Complete(ctx, messages)
	if err != nil {
		return backend.Completion{}, err
	}
	if c.Message.Role == session.RoleAssistant {
		p.store.store(key, c)
	}
	return c, nil
}

// ListModels forwards to the wrapped provider when it can list models
func (p *provider) ListModels(ctx context.Context) ([]string, error) {
	if lister, ok := p.next.(backend.ModelLister); ok {
		return lister.ListModels(ctx)
	}
	return nil, fmt.Errorf("%s: listing models is not supported", p.next.Name())
}
