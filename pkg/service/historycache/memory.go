package historycache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
)

// Memory is an in-process cache backed by go-cache
type Memory struct {
	store *cache.Cache
}

var _ Cache = &Memory{}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		store: cache.New(ttl, ttl/4),
	}
}

func copyMessages(msgs []*model.ChatMessage) []*model.ChatMessage {
	copied := make([]*model.ChatMessage, len(msgs))
	for i, m := range msgs {
		copied[i] = model.CopyMessage(m)
	}
	return copied
}

func (m *Memory) Get(_ context.Context, id model.SessionID) ([]*model.ChatMessage, bool, error) {
	v, found := m.store.Get(Key(id))
	if !found {
		return nil, false, nil
	}
	msgs, ok := v.([]*model.ChatMessage)
	if !ok {
		return nil, false, nil
	}
	return copyMessages(msgs), true, nil
}

func (m *Memory) Set(_ context.Context, id model.SessionID, msgs []*model.ChatMessage) error {
	m.store.Set(Key(id), copyMessages(msgs), cache.DefaultExpiration)
	return nil
}

func (m *Memory) Delete(_ context.Context, id model.SessionID) error {
	m.store.Delete(Key(id))
	return nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}
