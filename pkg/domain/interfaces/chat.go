package interfaces

import (
	"context"

	"github.com/taskdesk/taskdesk/pkg/domain/model"
)

// ChatRepository persists chat sessions and their messages
type ChatRepository interface {
	// CreateSession stores a new session. CreatedAt and UpdatedAt are set by the repository.
	CreateSession(ctx context.Context, session *model.ChatSession) (*model.ChatSession, error)

	// GetSession returns ErrNotFound when the session does not exist
	GetSession(ctx context.Context, id model.SessionID) (*model.ChatSession, error)

	// ListSessions returns sessions newest-updated first, each with its latest message content
	ListSessions(ctx context.Context) ([]*model.SessionSummary, error)

	// DeleteSession removes the session and all of its messages.
	// Returns ErrNotFound when the session does not exist.
	DeleteSession(ctx context.Context, id model.SessionID) error

	// AppendMessage stores msg with the next Seq of the session and, in the same atomic step,
	// bumps the session UpdatedAt and fills an empty title with titleHint.
	AppendMessage(ctx context.Context, msg *model.ChatMessage, titleHint string) (*model.ChatMessage, error)

	// ListMessages returns messages in ascending order. With limit > 0 only the latest limit
	// messages are returned, still ascending.
	ListMessages(ctx context.Context, id model.SessionID, limit int) ([]*model.ChatMessage, error)
}
