package historycache

import (
	"context"
	"time"

	"github.com/taskdesk/taskdesk/pkg/domain/model"
)

// DefaultTTL is how long a session history entry lives regardless of activity
const DefaultTTL = time.Hour

// Cache holds the recent messages of a session. It is never authoritative: a miss or an error
// only means the caller reads persisted storage.
type Cache interface {
	// Get returns the cached messages and whether the entry was present
	Get(ctx context.Context, id model.SessionID) ([]*model.ChatMessage, bool, error)
	Set(ctx context.Context, id model.SessionID, msgs []*model.ChatMessage) error
	Delete(ctx context.Context, id model.SessionID) error
	Ping(ctx context.Context) error
}

// Key returns the cache key of a session
func Key(id model.SessionID) string {
	return "chat:session:" + string(id)
}

// Noop never caches anything. Used when no cache is configured.
type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(context.Context, model.SessionID) ([]*model.ChatMessage, bool, error) {
	return nil, false, nil
}

func (Noop) Set(context.Context, model.SessionID, []*model.ChatMessage) error { return nil }
func (Noop) Delete(context.Context, model.SessionID) error                    { return nil }
func (Noop) Ping(context.Context) error                                       { return nil }
