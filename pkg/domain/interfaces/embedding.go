package interfaces

import (
	"context"

	"github.com/taskdesk/taskdesk/pkg/domain/model"
)

// EmbeddingRepository stores embedded chunks and answers nearest-neighbour queries
type EmbeddingRepository interface {
	// Ensure prepares the vector store. It is idempotent and fails when vectors are unsupported.
	Ensure(ctx context.Context) error

	// Replace swaps the whole record set. Readers see either the old set or the new one.
	Replace(ctx context.Context, records []*model.EmbeddingRecord) error

	// Add appends records to the current set
	Add(ctx context.Context, records []*model.EmbeddingRecord) error

	// Search returns up to limit records closest to vector by cosine distance
	Search(ctx context.Context, vector []float32, limit int) ([]*model.EmbeddingHit, error)

	Count(ctx context.Context) (int, error)
}
