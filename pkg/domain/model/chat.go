package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
)

// DefaultSessionTitle is used when a session is created without a usable first question
const DefaultSessionTitle = "שיחה חדשה"

// SessionID is a UUID-based identifier for ChatSession
type SessionID string

// NewSessionID generates a new UUID v4 SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func (id SessionID) String() string { return string(id) }

// MessageID is a UUID-based identifier for ChatMessage
type MessageID string

// NewMessageID generates a time-ordered UUID v7 MessageID
func NewMessageID() MessageID {
	return MessageID(uuid.Must(uuid.NewV7()).String())
}

// ChatSession is one conversation with the bot. Deleting it deletes its messages.
type ChatSession struct {
	ID        SessionID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionSummary is a session with a preview of its latest message
type SessionSummary struct {
	Session     *ChatSession
	LastMessage string
}

// ChatMessage is one immutable turn of a session. Seq orders messages within a session.
type ChatMessage struct {
	ID        MessageID
	SessionID SessionID
	Role      types.Role
	Content   string
	Metadata  *MessageMetadata // assistant messages only
	Seq       int64
	CreatedAt time.Time
}

// MessageMetadata is the retrieval snapshot an assistant answer was produced from
type MessageMetadata struct {
	Context    []ContextChunk `json:"context"`
	WebResults []WebResult    `json:"webResults"`
	Path       AnswerPath     `json:"path,omitempty"`
}

// CopyMessage returns a deep copy of m
func CopyMessage(m *ChatMessage) *ChatMessage {
	if m == nil {
		return nil
	}
	copied := *m
	if m.Metadata != nil {
		md := *m.Metadata
		md.Context = append([]ContextChunk(nil), m.Metadata.Context...)
		md.WebResults = append([]WebResult(nil), m.Metadata.WebResults...)
		copied.Metadata = &md
	}
	return &copied
}

// TailMessages returns the last n messages of msgs, or all of them when n <= 0
func TailMessages(msgs []*ChatMessage, n int) []*ChatMessage {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
