package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
)

func runEmbeddingRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Search returns nearest records with scores in range", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Embedding().Ensure(ctx)).Required()
		gt.NoError(t, repo.Embedding().Replace(ctx, []*model.EmbeddingRecord{
			{EntityType: types.EntityNote, EntityID: "near", Content: "near", Embedding: unitVector(0, 1, 0.1)},
			{EntityType: types.EntityGuide, EntityID: "mid", Content: "mid", Embedding: unitVector(0, 1, 1)},
			{EntityType: types.EntityTask, EntityID: "far", Content: "far", Embedding: unitVector(2, -1, 0)},
		})).Required()

		hits, err := repo.Embedding().Search(ctx, unitVector(0, -1, 0), 2)
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(2).Required()
		gt.Value(t, hits[0].EntityID).Equal("near")
		gt.Value(t, hits[0].EntityType).Equal(types.EntityNote)
		gt.Value(t, hits[1].EntityID).Equal("mid")
		for _, h := range hits {
			gt.Bool(t, h.Score >= 0 && h.Score <= 1).True()
		}
		gt.Bool(t, hits[0].Score >= hits[1].Score).True()
	})

	t.Run("Replace swaps the whole set", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Embedding().Replace(ctx, []*model.EmbeddingRecord{
			{EntityType: types.EntityNote, EntityID: "old-1", Content: "a", Embedding: unitVector(0, -1, 0)},
			{EntityType: types.EntityNote, EntityID: "old-2", Content: "b", Embedding: unitVector(1, -1, 0)},
		})).Required()
		gt.NoError(t, repo.Embedding().Replace(ctx, []*model.EmbeddingRecord{
			{EntityType: types.EntityTable, EntityID: "new-1", Content: "c", Embedding: unitVector(0, -1, 0)},
		})).Required()

		count, err := repo.Embedding().Count(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(1)

		hits, err := repo.Embedding().Search(ctx, unitVector(0, -1, 0), 5)
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(1).Required()
		gt.Value(t, hits[0].EntityID).Equal("new-1")
	})

	t.Run("Add appends to the current set", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Embedding().Replace(ctx, []*model.EmbeddingRecord{
			{EntityType: types.EntityNote, EntityID: "base", Content: "a", Embedding: unitVector(0, -1, 0)},
		})).Required()
		gt.NoError(t, repo.Embedding().Add(ctx, []*model.EmbeddingRecord{
			{EntityType: types.EntityAdHoc, EntityID: "extra", Content: "b", Embedding: unitVector(1, -1, 0)},
		})).Required()

		count, err := repo.Embedding().Count(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(2)
	})

	t.Run("Replace with nothing empties the store", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Embedding().Replace(ctx, []*model.EmbeddingRecord{
			{EntityType: types.EntityNote, EntityID: "x", Content: "x", Embedding: unitVector(3, -1, 0)},
		})).Required()
		gt.NoError(t, repo.Embedding().Replace(ctx, nil)).Required()

		hits, err := repo.Embedding().Search(ctx, unitVector(3, -1, 0), 3)
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(0)
	})
}

func TestEmbeddingRepository_Memory(t *testing.T) {
	runEmbeddingRepositoryTest(t, newMemoryRepository)
}

func TestEmbeddingRepository_Firestore(t *testing.T) {
	runEmbeddingRepositoryTest(t, newFirestoreRepository)
}

func TestEmbeddingRepository_Postgres(t *testing.T) {
	runEmbeddingRepositoryTest(t, newPostgresRepository)
}
