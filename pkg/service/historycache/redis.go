package historycache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
)

// Redis stores each session history as one JSON value with a TTL
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = &Redis{}

// NewRedis parses url (redis://...) and configures the connection pool. It does not connect;
// reachability is checked through Ping.
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse redis URL")
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return &Redis{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

type cachedMessage struct {
	ID        string                 `json:"id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  *model.MessageMetadata `json:"metadata,omitempty"`
	Seq       int64                  `json:"seq"`
	CreatedAt time.Time              `json:"createdAt"`
}

func (r *Redis) Get(ctx context.Context, id model.SessionID) ([]*model.ChatMessage, bool, error) {
	raw, err := r.client.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, goerr.Wrap(err, "failed to read history cache", goerr.V("session_id", id))
	}

	var entries []cachedMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, goerr.Wrap(err, "failed to decode history cache", goerr.V("session_id", id))
	}

	msgs := make([]*model.ChatMessage, len(entries))
	for i, e := range entries {
		msgs[i] = &model.ChatMessage{
			ID:        model.MessageID(e.ID),
			SessionID: id,
			Role:      types.Role(e.Role),
			Content:   e.Content,
			Metadata:  e.Metadata,
			Seq:       e.Seq,
			CreatedAt: e.CreatedAt,
		}
	}
	return msgs, true, nil
}

func (r *Redis) Set(ctx context.Context, id model.SessionID, msgs []*model.ChatMessage) error {
	entries := make([]cachedMessage, len(msgs))
	for i, m := range msgs {
		entries[i] = cachedMessage{
			ID:        string(m.ID),
			Role:      string(m.Role),
			Content:   m.Content,
			Metadata:  m.Metadata,
			Seq:       m.Seq,
			CreatedAt: m.CreatedAt,
		}
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return goerr.Wrap(err, "failed to encode history cache", goerr.V("session_id", id))
	}
	if err := r.client.Set(ctx, Key(id), raw, r.ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to write history cache", goerr.V("session_id", id))
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id model.SessionID) error {
	if err := r.client.Del(ctx, Key(id)).Err(); err != nil {
		return goerr.Wrap(err, "failed to evict history cache", goerr.V("session_id", id))
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return goerr.Wrap(err, "failed to reach redis")
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
