package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"MiniChat/internal/backend"
	"MiniChat/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls int
	err   error
	role  session.Role
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Complete(_ context.Context, messages []session.Message) (backend.Completion, error) {
	p.calls++
	if p.err != nil {
		return backend.Completion{}, p.err
	}
	msg := session.AssistantMessage("reply to " + messages[len(messages)-1].Content)
	if p.role != "" {
		msg.Role = p.role
	}
	return backend.Completion{Message: msg, Model: "m"}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerateCacheKeyIgnoresTimestamps(t *testing.T) {
	a := []session.Message{session.UserMessage("hi")}
	b := []session.Message{{Role: session.RoleUser, Content: "hi"}}

	assert.Equal(t, GenerateCacheKey("s", a), GenerateCacheKey("s", b))
	assert.NotEqual(t, GenerateCacheKey("s", a), GenerateCacheKey("t", a))
}

func TestGenerateCacheKeySeparatesFields(t *testing.T) {
	a := []session.Message{{Role: session.RoleUser, Content: "ab"}}
	b := []session.Message{{Role: session.RoleUser, Content: "a"}, {Role: session.RoleUser, Content: "b"}}
	assert.NotEqual(t, GenerateCacheKey("", a), GenerateCacheKey("", b))
}

func TestWrapServesRepeatedHistoryFromStore(t *testing.T) {
	next := &countingProvider{}
	p := NewStore(discardLogger()).Wrap(next, "echo/echo")
	msgs := []session.Message{session.UserMessage("hello")}

	first, err := p.Complete(context.Background(), msgs)
	require.NoError(t, err)
	second, err := p.Complete(context.Background(), msgs)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.Message.Content, second.Message.Content)
	assert.Equal(t, session.RoleAssistant, second.Message.Role)
	assert.Equal(t, "counting", p.Name())
}

func TestWrapDoesNotCacheErrors(t *testing.T) {
	next := &countingProvider{err: errors.New("down")}
	p := NewStore(discardLogger()).Wrap(next, "x")
	msgs := []session.Message{session.UserMessage("hello")}

	_, err := p.Complete(context.Background(), msgs)
	require.Error(t, err)
	_, err = p.Complete(context.Background(), msgs)
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestWrapListModels(t *testing.T) {
	p := NewStore(discardLogger()).Wrap(backend.Echo{}, "echo")
	lister, ok := p.(backend.ModelLister)
	require.True(t, ok)
	ids, err := lister.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"echo"}, ids)

	p = NewStore(discardLogger()).Wrap(&countingProvider{}, "x")
	_, err = p.(backend.ModelLister).ListModels(context.Background())
	assert.Error(t, err)
}

func TestWrapDoesNotStoreNonAssistantReply(t *testing.T) {
	next := &countingProvider{role: session.RoleUser}
	p := NewStore(discardLogger()).Wrap(next, "echo/echo")
	msgs := []session.Message{session.UserMessage("hello")}

	first, err := p.Complete(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, session.RoleUser, first.Message.Role)

	second, err := p.Complete(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, session.RoleUser, second.Message.Role, "reply must come from the provider, not the store")
	assert.Equal(t, 2, next.calls)
}
