package session

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the speaker of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a role the conversation accepts
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message represents a single chat message
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// UserMessage builds a user message stamped with the current time
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// AssistantMessage builds an assistant message stamped with the current time
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

// Conversation is an append-only, ordered message history.
// The zero value is an empty conversation. Append never mutates the receiver,
// so a Conversation can be handed out freely as a snapshot.
type Conversation struct {
	messages []Message
}

// NewConversation returns a conversation holding a copy of msgs
func NewConversation(msgs ...Message) Conversation {
	return Conversation{messages: append([]Message(nil), msgs...)}
}

// Append returns a new conversation with msgs added at the end
func (c Conversation) Append(msgs ...Message) Conversation {
	out := make([]Message, 0, len(c.messages)+len(msgs))
	out = append(out, c.messages...)
	out = append(out, msgs...)
	return Conversation{messages: out}
}

// Messages returns a copy of the history in insertion order
func (c Conversation) Messages() []Message {
	return append([]Message(nil), c.messages...)
}

// Len returns the number of messages
func (c Conversation) Len() int {
	return len(c.messages)
}

// Last returns the most recent message, if any
func (c Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Session represents a chat session
type Session struct {
	ID           string       `json:"id"`
	StartTime    time.Time    `json:"start_time"`
	Backend      string       `json:"backend"`
	Conversation Conversation `json:"-"`
}

// New creates an empty session for the given backend
func New(backend string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartTime: time.Now(),
		Backend:   backend,
	}
}
