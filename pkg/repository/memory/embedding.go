package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/taskdesk/taskdesk/pkg/domain/model"
)

type embeddingRepository struct {
	mu      sync.RWMutex
	records []*model.EmbeddingRecord
}

func newEmbeddingRepository() *embeddingRepository {
	return &embeddingRepository{}
}

func copyEmbeddingRecord(r *model.EmbeddingRecord) *model.EmbeddingRecord {
	copied := *r
	if r.Embedding != nil {
		copied.Embedding = make([]float32, len(r.Embedding))
		copy(copied.Embedding, r.Embedding)
	}
	return &copied
}

func prepareRecords(records []*model.EmbeddingRecord) []*model.EmbeddingRecord {
	now := time.Now().UTC()
	prepared := make([]*model.EmbeddingRecord, 0, len(records))
	for _, rec := range records {
		c := copyEmbeddingRecord(rec)
		if c.ID == "" {
			c.ID = model.NewEmbeddingID()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		prepared = append(prepared, c)
	}
	return prepared
}

func (r *embeddingRepository) Ensure(ctx context.Context) error {
	return nil
}

func (r *embeddingRepository) Replace(ctx context.Context, records []*model.EmbeddingRecord) error {
	prepared := prepareRecords(records)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = prepared
	return nil
}

func (r *embeddingRepository) Add(ctx context.Context, records []*model.EmbeddingRecord) error {
	prepared := prepareRecords(records)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, prepared...)
	return nil
}

func (r *embeddingRepository) Search(ctx context.Context, vector []float32, limit int) ([]*model.EmbeddingHit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || len(vector) == 0 {
		return []*model.EmbeddingHit{}, nil
	}

	hits := make([]*model.EmbeddingHit, 0, len(r.records))
	for _, rec := range r.records {
		if len(rec.Embedding) != len(vector) {
			continue
		}
		hits = append(hits, &model.EmbeddingHit{
			EntityType: rec.EntityType,
			EntityID:   rec.EntityID,
			Content:    rec.Content,
			Score:      model.CosineScore(1 - cosineSimilarity(vector, rec.Embedding)),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit > len(hits) {
		limit = len(hits)
	}
	return hits[:limit], nil
}

func (r *embeddingRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
