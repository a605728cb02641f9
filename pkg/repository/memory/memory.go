package memory

import (
	"context"

	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = interfaces.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps everything in process. It is the development backend and the test double of the
// persistent backends.
type Memory struct {
	chat      *chatRepository
	content   *contentRepository
	embedding *embeddingRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		chat:      newChatRepository(),
		content:   newContentRepository(),
		embedding: newEmbeddingRepository(),
	}
}

func (m *Memory) Chat() interfaces.ChatRepository {
	return m.chat
}

func (m *Memory) Content() interfaces.ContentRepository {
	return m.content
}

func (m *Memory) Embedding() interfaces.EmbeddingRepository {
	return m.embedding
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}
