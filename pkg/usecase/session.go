package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
	"github.com/taskdesk/taskdesk/pkg/service/historycache"
	"github.com/taskdesk/taskdesk/pkg/utils/keylock"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/taskdesk/taskdesk/pkg/utils/metrics"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
)

// SessionManager owns chat sessions, their persisted turns and the short-term history cache
type SessionManager struct {
	repo   interfaces.ChatRepository
	cache  historycache.Cache
	caps   *Capabilities
	locks  *keylock.Map
	config ChatConfig
}

func NewSessionManager(repo interfaces.ChatRepository, cache historycache.Cache, caps *Capabilities, cfg ChatConfig) *SessionManager {
	if cache == nil {
		cache = historycache.Noop{}
	}
	return &SessionManager{
		repo:   repo,
		cache:  cache,
		caps:   caps,
		locks:  keylock.New(),
		config: cfg,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, interfaces.ErrNotFound)
}

// Lock serializes turns of one session. The returned function releases the lock.
func (m *SessionManager) Lock(id model.SessionID) func() {
	return m.locks.Lock(string(id))
}

// SessionTitle derives a session title from the first question
func (m *SessionManager) SessionTitle(hint string) string {
	title := text.Truncate(text.NormalizeWhitespace(hint), m.config.TitleLength)
	if title == "" {
		return model.DefaultSessionTitle
	}
	return title
}

// EnsureSession returns the session id when it exists. Otherwise it creates one, keeping id when
// given, titled from titleHint.
func (m *SessionManager) EnsureSession(ctx context.Context, id model.SessionID, titleHint string) (*model.ChatSession, error) {
	if id != "" {
		session, err := m.repo.GetSession(ctx, id)
		if err == nil {
			return session, nil
		}
		if !isNotFound(err) {
			return nil, goerr.Wrap(err, "failed to get session", goerr.V(SessionIDKey, id))
		}
	}

	session, err := m.repo.CreateSession(ctx, &model.ChatSession{
		ID:    id,
		Title: m.SessionTitle(titleHint),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create session", goerr.V(SessionIDKey, id))
	}

	logging.From(ctx).Info("chat session created", "session_id", session.ID)
	return session, nil
}

// AppendTurn persists one message. The repository bumps UpdatedAt and fills an empty title in
// the same atomic write.
func (m *SessionManager) AppendTurn(ctx context.Context, id model.SessionID, role types.Role, content string, metadata *model.MessageMetadata) (*model.ChatMessage, error) {
	if !role.IsValid() {
		return nil, goerr.New("invalid role", goerr.V("role", role))
	}

	msg, err := m.repo.AppendMessage(ctx, &model.ChatMessage{
		SessionID: id,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
	}, m.SessionTitle(content))
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrSessionNotFound, "session disappeared", goerr.V(SessionIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to persist chat turn",
			goerr.V(SessionIDKey, id),
			goerr.V("role", role))
	}
	return msg, nil
}

// History returns the recent window of a session, from the cache when possible
func (m *SessionManager) History(ctx context.Context, id model.SessionID) ([]*model.ChatMessage, error) {
	if m.caps.Cache(ctx) {
		msgs, found, err := m.cache.Get(ctx, id)
		if err != nil {
			m.cacheDegraded(ctx, "read", id, err)
		} else if found {
			return msgs, nil
		}
	}

	msgs, err := m.repo.ListMessages(ctx, id, m.config.HistoryWindow)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read history", goerr.V(SessionIDKey, id))
	}

	m.storeCache(ctx, id, msgs)
	return msgs, nil
}

// Refresh rewrites the cache entry of a session from persisted storage. Best effort.
func (m *SessionManager) Refresh(ctx context.Context, id model.SessionID) {
	if !m.caps.Cache(ctx) {
		return
	}
	msgs, err := m.repo.ListMessages(ctx, id, m.config.HistoryWindow)
	if err != nil {
		m.cacheDegraded(ctx, "refresh", id, err)
		return
	}
	m.storeCache(ctx, id, msgs)
}

func (m *SessionManager) storeCache(ctx context.Context, id model.SessionID, msgs []*model.ChatMessage) {
	if !m.caps.Cache(ctx) {
		return
	}
	if err := m.cache.Set(ctx, id, model.TailMessages(msgs, m.config.HistoryWindow)); err != nil {
		m.cacheDegraded(ctx, "write", id, err)
	}
}

func (m *SessionManager) cacheDegraded(ctx context.Context, op string, id model.SessionID, err error) {
	logging.From(ctx).Warn("history cache unavailable, continuing without it",
		"capability", metrics.CapabilityCache,
		"op", op,
		"session_id", id,
		"error", err.Error())
	metrics.Degraded.WithLabelValues(metrics.CapabilityCache).Inc()
}

// Messages returns the full persisted conversation, ascending
func (m *SessionManager) Messages(ctx context.Context, id model.SessionID) ([]*model.ChatMessage, error) {
	if _, err := m.repo.GetSession(ctx, id); err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrSessionNotFound, "session not found", goerr.V(SessionIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V(SessionIDKey, id))
	}

	msgs, err := m.repo.ListMessages(ctx, id, 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list messages", goerr.V(SessionIDKey, id))
	}
	return msgs, nil
}

func (m *SessionManager) ListSessions(ctx context.Context) ([]*model.SessionSummary, error) {
	sessions, err := m.repo.ListSessions(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sessions")
	}
	return sessions, nil
}

// DeleteSession removes the session, its messages and its cache entry
func (m *SessionManager) DeleteSession(ctx context.Context, id model.SessionID) error {
	unlock := m.Lock(id)
	defer unlock()

	if err := m.repo.DeleteSession(ctx, id); err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrSessionNotFound, "session not found", goerr.V(SessionIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete session", goerr.V(SessionIDKey, id))
	}

	if m.caps.Cache(ctx) {
		if err := m.cache.Delete(ctx, id); err != nil {
			m.cacheDegraded(ctx, "evict", id, err)
		}
	}
	return nil
}
