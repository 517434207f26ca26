package turn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"MiniChat/internal/backend"
	"MiniChat/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordingProvider echoes the last message and keeps a copy of every request.
type recordingProvider struct {
	calls [][]session.Message
	err   error
	role  session.Role
	usage backend.Usage
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) Complete(_ context.Context, messages []session.Message) (backend.Completion, error) {
	p.calls = append(p.calls, messages)
	if p.err != nil {
		return backend.Completion{}, p.err
	}
	msg := session.AssistantMessage(messages[len(messages)-1].Content)
	if p.role != "" {
		msg.Role = p.role
	}
	return backend.Completion{Message: msg, Model: "rec-1", Usage: p.usage}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExecutor(t *testing.T, p backend.Provider, opts ...Option) *Executor {
	t.Helper()
	e, err := New(p, append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return e
}

func TestNewRequiresProvider(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestExecuteEchoesHello(t *testing.T) {
	e := newExecutor(t, backend.Echo{})

	conv := session.NewConversation(session.UserMessage("hello"))
	got, err := e.Execute(context.Background(), conv)
	require.NoError(t, err)

	require.Equal(t, 2, got.Len())
	last, _ := got.Last()
	assert.Equal(t, session.RoleAssistant, last.Role)
	assert.Equal(t, "hello", last.Content)
	assert.Equal(t, 1, conv.Len(), "input conversation must not change")
}

func TestExecuteAlternatesAndSendsFullPrefix(t *testing.T) {
	p := &recordingProvider{}
	e := newExecutor(t, p)

	const n = 5
	var conv session.Conversation
	for i := 0; i < n; i++ {
		conv = conv.Append(session.UserMessage(fmt.Sprintf("msg %d", i)))
		var err error
		conv, err = e.Execute(context.Background(), conv)
		require.NoError(t, err)
	}

	msgs := conv.Messages()
	require.Len(t, msgs, 2*n)
	for i, m := range msgs {
		if i%2 == 0 {
			assert.Equal(t, session.RoleUser, m.Role, "index %d", i)
		} else {
			assert.Equal(t, session.RoleAssistant, m.Role, "index %d", i)
		}
	}

	// The Nth call sees exactly the first 2(N-1)+1 messages, in order.
	require.Len(t, p.calls, n)
	for i, call := range p.calls {
		require.Len(t, call, 2*i+1)
		for j := range call {
			assert.Equal(t, msgs[j].Role, call[j].Role)
			assert.Equal(t, msgs[j].Content, call[j].Content)
		}
	}
}

func TestExecuteErrorLeavesConversationUnchanged(t *testing.T) {
	p := &recordingProvider{err: fmt.Errorf("x: %w", backend.ErrProviderUnavailable)}
	e := newExecutor(t, p)

	conv := session.NewConversation(session.UserMessage("hi"))
	got, err := e.Execute(context.Background(), conv)
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.ErrProviderUnavailable)
	assert.Equal(t, 1, got.Len())
}

func TestExecuteRejectsNonAssistantReply(t *testing.T) {
	p := &recordingProvider{role: session.RoleUser}
	e := newExecutor(t, p)

	_, err := e.Execute(context.Background(), session.NewConversation(session.UserMessage("hi")))
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.ErrInvalidResponse)
}

func TestExecuteRecordsSpanAndMetrics(t *testing.T) {
	ctx := context.Background()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	p := &recordingProvider{usage: backend.Usage{PromptTokens: 7, CompletionTokens: 3}}
	e := newExecutor(t, p, WithTracer(tp.Tracer("test")), WithMeter(mp.Meter("test")))

	_, err := e.Execute(ctx, session.NewConversation(session.UserMessage("hi")))
	require.NoError(t, err)

	p.err = errors.New("boom")
	_, err = e.Execute(ctx, session.NewConversation(session.UserMessage("again")))
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "turn", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), sums["minichat.turns"])
	assert.Equal(t, int64(1), sums["minichat.turn.errors"])
	assert.Equal(t, int64(10), sums["minichat.tokens"])
}
