package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
	"gorm.io/gorm"
)

const embeddingInsertBatch = 200

type embeddingRepository struct {
	db        *gorm.DB
	dimension int
}

var _ interfaces.EmbeddingRepository = &embeddingRepository{}

func newEmbeddingRepository(db *gorm.DB, dimension int) *embeddingRepository {
	return &embeddingRepository{db: db, dimension: dimension}
}

type embeddingHitRow struct {
	EntityType string
	EntityID   string
	Content    string
	Distance   float64
}

// vectorLiteral renders v in the pgvector text format, e.g. [0.1,0.2]
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func (r *embeddingRepository) Ensure(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error; err != nil {
		return goerr.Wrap(err, "pgvector extension is not available")
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS embeddings (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	content TEXT NOT NULL,
	embedding vector(%d) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, r.dimension)
	if err := db.Exec(ddl).Error; err != nil {
		return goerr.Wrap(err, "failed to create embeddings table", goerr.V("dimension", r.dimension))
	}
	return nil
}

func (r *embeddingRepository) insert(tx *gorm.DB, records []*model.EmbeddingRecord) error {
	now := time.Now().UTC()

	for start := 0; start < len(records); start += embeddingInsertBatch {
		end := min(start+embeddingInsertBatch, len(records))

		placeholders := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*6)
		for _, rec := range records[start:end] {
			if len(rec.Embedding) != r.dimension {
				return goerr.New("embedding dimension mismatch",
					goerr.V("entity_id", rec.EntityID),
					goerr.V("expected", r.dimension),
					goerr.V("actual", len(rec.Embedding)))
			}

			id := rec.ID
			if id == "" {
				id = model.NewEmbeddingID()
			}
			createdAt := rec.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}

			placeholders = append(placeholders, "(?, ?, ?, ?, ?::vector, ?)")
			args = append(args, string(id), string(rec.EntityType), rec.EntityID, rec.Content, vectorLiteral(rec.Embedding), createdAt)
		}

		stmt := "INSERT INTO embeddings (id, entity_type, entity_id, content, embedding, created_at) VALUES " +
			strings.Join(placeholders, ", ")
		if err := tx.Exec(stmt, args...).Error; err != nil {
			return goerr.Wrap(err, "failed to insert embeddings", goerr.V("count", end-start))
		}
	}
	return nil
}

func (r *embeddingRepository) Replace(ctx context.Context, records []*model.EmbeddingRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM embeddings`).Error; err != nil {
			return goerr.Wrap(err, "failed to clear embeddings")
		}
		return r.insert(tx, records)
	})
}

func (r *embeddingRepository) Add(ctx context.Context, records []*model.EmbeddingRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.insert(tx, records)
	})
}

func (r *embeddingRepository) Search(ctx context.Context, vector []float32, limit int) ([]*model.EmbeddingHit, error) {
	if limit <= 0 || len(vector) != r.dimension {
		return []*model.EmbeddingHit{}, nil
	}

	var rows []embeddingHitRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT entity_type, entity_id, content, embedding <=> ?::vector AS distance
		FROM embeddings ORDER BY distance ASC LIMIT ?`,
		vectorLiteral(vector), limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search embeddings")
	}

	hits := make([]*model.EmbeddingHit, len(rows))
	for i, row := range rows {
		hits[i] = &model.EmbeddingHit{
			EntityType: types.EntityType(row.EntityType),
			EntityID:   row.EntityID,
			Content:    row.Content,
			Score:      model.CosineScore(row.Distance),
		}
	}
	return hits, nil
}

func (r *embeddingRepository) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Raw(`SELECT count(*) FROM embeddings`).Scan(&n).Error; err != nil {
		return 0, goerr.Wrap(err, "failed to count embeddings")
	}
	return int(n), nil
}
