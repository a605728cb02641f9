package interfaces

import (
	"context"
	"errors"
)

// ErrNotFound is returned by every backend when a requested session or record does not exist
var ErrNotFound = errors.New("not found")

// Repository defines the interface for data persistence
type Repository interface {
	Chat() ChatRepository
	Content() ContentRepository
	Embedding() EmbeddingRepository

	// Ping checks that the backing store is reachable
	Ping(ctx context.Context) error

	Close() error
}
