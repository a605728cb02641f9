package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
)

// DefaultEmbeddingDimension matches nomic-embed-text and Gemini text-embedding-004
const DefaultEmbeddingDimension = 768

// Chunking defaults for embedded content
const (
	DefaultChunkSize    = 700
	DefaultChunkOverlap = 80
)

// EmbeddingID is a UUID-based identifier for EmbeddingRecord
type EmbeddingID string

// NewEmbeddingID generates a new UUID v4 EmbeddingID
func NewEmbeddingID() EmbeddingID {
	return EmbeddingID(uuid.New().String())
}

// EmbeddingRecord is one embedded chunk of collaborator content. EntityID is opaque and not
// checked against the source collection.
type EmbeddingRecord struct {
	ID         EmbeddingID
	EntityType types.EntityType
	EntityID   string
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}

// EmbeddingHit is a nearest-neighbour result. Score is a similarity in [0,1], higher is closer.
type EmbeddingHit struct {
	EntityType types.EntityType
	EntityID   string
	Content    string
	Score      float64
}

// CosineScore maps a cosine distance in [0,2] to a similarity in [0,1]
func CosineScore(distance float64) float64 {
	s := 1 - distance/2
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
