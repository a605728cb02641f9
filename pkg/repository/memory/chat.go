package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
)

type chatRepository struct {
	mu       sync.RWMutex
	sessions map[model.SessionID]*model.ChatSession
	messages map[model.SessionID][]*model.ChatMessage
}

var _ interfaces.ChatRepository = &chatRepository{}

func newChatRepository() *chatRepository {
	return &chatRepository{
		sessions: make(map[model.SessionID]*model.ChatSession),
		messages: make(map[model.SessionID][]*model.ChatMessage),
	}
}

func copySession(s *model.ChatSession) *model.ChatSession {
	copied := *s
	return &copied
}

func (r *chatRepository) CreateSession(_ context.Context, session *model.ChatSession) (*model.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copySession(session)
	if created.ID == "" {
		created.ID = model.NewSessionID()
	}
	if _, exists := r.sessions[created.ID]; exists {
		return nil, goerr.New("session already exists", goerr.V("id", created.ID))
	}

	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.sessions[created.ID] = created
	return copySession(created), nil
}

func (r *chatRepository) GetSession(_ context.Context, id model.SessionID) (*model.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.sessions[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", id))
	}
	return copySession(s), nil
}

func (r *chatRepository) ListSessions(_ context.Context) ([]*model.SessionSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.SessionSummary, 0, len(r.sessions))
	for id, s := range r.sessions {
		summary := &model.SessionSummary{Session: copySession(s)}
		if msgs := r.messages[id]; len(msgs) > 0 {
			summary.LastMessage = msgs[len(msgs)-1].Content
		}
		result = append(result, summary)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Session.UpdatedAt.After(result[j].Session.UpdatedAt)
	})

	return result, nil
}

func (r *chatRepository) DeleteSession(_ context.Context, id model.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; !exists {
		return goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", id))
	}

	delete(r.sessions, id)
	delete(r.messages, id)
	return nil
}

func (r *chatRepository) AppendMessage(_ context.Context, msg *model.ChatMessage, titleHint string) (*model.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[msg.SessionID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", msg.SessionID))
	}

	now := time.Now().UTC()
	created := model.CopyMessage(msg)
	if created.ID == "" {
		created.ID = model.NewMessageID()
	}
	created.CreatedAt = now
	created.Seq = int64(len(r.messages[msg.SessionID]) + 1)

	r.messages[msg.SessionID] = append(r.messages[msg.SessionID], created)
	s.UpdatedAt = now
	if s.Title == "" && titleHint != "" {
		s.Title = titleHint
	}

	return model.CopyMessage(created), nil
}

func (r *chatRepository) ListMessages(_ context.Context, id model.SessionID, limit int) ([]*model.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := model.TailMessages(r.messages[id], limit)
	result := make([]*model.ChatMessage, len(msgs))
	for i, m := range msgs {
		result[i] = model.CopyMessage(m)
	}
	return result, nil
}
