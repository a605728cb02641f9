package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	embeddingsCollection   = "embeddings"
	embeddingMetaDoc       = "embedding_meta/current"
	vectorDistanceField    = "VectorDistance"
	embeddingWriteBatchMax = 500
)

// embeddingDoc is the Firestore document representation of model.EmbeddingRecord.
// Generation ties the record to one rebuild; only the generation named by the meta document is
// visible to Search, which makes Replace atomic for readers.
type embeddingDoc struct {
	ID         string             `firestore:"ID"`
	Generation string             `firestore:"Generation"`
	EntityType string             `firestore:"EntityType"`
	EntityID   string             `firestore:"EntityID"`
	Content    string             `firestore:"Content"`
	Embedding  firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt  time.Time          `firestore:"CreatedAt"`
}

type embeddingMeta struct {
	Generation string    `firestore:"Generation"`
	UpdatedAt  time.Time `firestore:"UpdatedAt"`
}

type embeddingRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.EmbeddingRepository = &embeddingRepository{}

func newEmbeddingRepository(client *firestore.Client) *embeddingRepository {
	return &embeddingRepository{
		client: client,
	}
}

func (r *embeddingRepository) records() *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, embeddingsCollection))
}

func (r *embeddingRepository) meta() *firestore.DocumentRef {
	return r.client.Doc(prefixed(r.collectionPrefix, embeddingMetaDoc))
}

// currentGeneration returns the visible generation, or "" when nothing was written yet
func (r *embeddingRepository) currentGeneration(ctx context.Context) (string, error) {
	snap, err := r.meta().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		return "", goerr.Wrap(err, "failed to get embedding generation")
	}

	var m embeddingMeta
	if err := snap.DataTo(&m); err != nil {
		return "", goerr.Wrap(err, "failed to unmarshal embedding generation")
	}
	return m.Generation, nil
}

func (r *embeddingRepository) Ensure(ctx context.Context) error {
	if _, err := r.currentGeneration(ctx); err != nil {
		return goerr.Wrap(err, "embedding store is not reachable")
	}
	return nil
}

func (r *embeddingRepository) write(ctx context.Context, generation string, records []*model.EmbeddingRecord) error {
	now := time.Now().UTC()

	for start := 0; start < len(records); start += embeddingWriteBatchMax {
		end := min(start+embeddingWriteBatchMax, len(records))

		bulkWriter := r.client.BulkWriter(ctx)
		jobs := make([]*firestore.BulkWriterJob, 0, end-start)
		for _, rec := range records[start:end] {
			id := rec.ID
			if id == "" {
				id = model.NewEmbeddingID()
			}
			createdAt := rec.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}

			job, err := bulkWriter.Set(r.records().Doc(string(id)), &embeddingDoc{
				ID:         string(id),
				Generation: generation,
				EntityType: string(rec.EntityType),
				EntityID:   rec.EntityID,
				Content:    rec.Content,
				Embedding:  firestore.Vector32(rec.Embedding),
				CreatedAt:  createdAt,
			})
			if err != nil {
				bulkWriter.End()
				return goerr.Wrap(err, "failed to enqueue embedding record", goerr.V("id", id))
			}
			jobs = append(jobs, job)
		}
		bulkWriter.End()

		for _, job := range jobs {
			if _, err := job.Results(); err != nil {
				return goerr.Wrap(err, "failed to write embedding record", goerr.V("generation", generation))
			}
		}
	}
	return nil
}

// deleteExcept removes every record outside generation
func (r *embeddingRepository) deleteExcept(ctx context.Context, generation string) error {
	iter := r.records().Where("Generation", "!=", generation).Documents(ctx)
	defer iter.Stop()

	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate stale embedding records")
		}
		if _, err := bulkWriter.Delete(snap.Ref); err != nil {
			return goerr.Wrap(err, "failed to delete stale embedding record", goerr.V("id", snap.Ref.ID))
		}
	}
	return nil
}

func (r *embeddingRepository) Replace(ctx context.Context, records []*model.EmbeddingRecord) error {
	generation := uuid.New().String()

	if err := r.write(ctx, generation, records); err != nil {
		return goerr.Wrap(err, "failed to write new embedding generation")
	}

	if _, err := r.meta().Set(ctx, &embeddingMeta{Generation: generation, UpdatedAt: time.Now().UTC()}); err != nil {
		return goerr.Wrap(err, "failed to switch embedding generation", goerr.V("generation", generation))
	}

	if err := r.deleteExcept(ctx, generation); err != nil {
		return goerr.Wrap(err, "failed to clean up previous embedding generation")
	}
	return nil
}

func (r *embeddingRepository) Add(ctx context.Context, records []*model.EmbeddingRecord) error {
	generation, err := r.currentGeneration(ctx)
	if err != nil {
		return err
	}

	if generation == "" {
		generation = uuid.New().String()
		if _, err := r.meta().Set(ctx, &embeddingMeta{Generation: generation, UpdatedAt: time.Now().UTC()}); err != nil {
			return goerr.Wrap(err, "failed to initialize embedding generation")
		}
	}

	return r.write(ctx, generation, records)
}

func (r *embeddingRepository) Search(ctx context.Context, vector []float32, limit int) ([]*model.EmbeddingHit, error) {
	if limit <= 0 || len(vector) == 0 {
		return []*model.EmbeddingHit{}, nil
	}

	generation, err := r.currentGeneration(ctx)
	if err != nil {
		return nil, err
	}
	if generation == "" {
		return []*model.EmbeddingHit{}, nil
	}

	vq := r.records().
		Where("Generation", "==", generation).
		FindNearest("Embedding", firestore.Vector32(vector), limit, firestore.DistanceMeasureCosine,
			&firestore.FindNearestOptions{DistanceResultField: vectorDistanceField})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	hits := make([]*model.EmbeddingHit, 0, limit)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		var d embeddingDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal embedding record", goerr.V("id", snap.Ref.ID))
		}

		distance, _ := snap.Data()[vectorDistanceField].(float64)
		hits = append(hits, &model.EmbeddingHit{
			EntityType: types.EntityType(d.EntityType),
			EntityID:   d.EntityID,
			Content:    d.Content,
			Score:      model.CosineScore(distance),
		})
	}

	return hits, nil
}

func (r *embeddingRepository) Count(ctx context.Context) (int, error) {
	generation, err := r.currentGeneration(ctx)
	if err != nil {
		return 0, err
	}
	if generation == "" {
		return 0, nil
	}

	snaps, err := r.records().Where("Generation", "==", generation).Select().Documents(ctx).GetAll()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count embedding records")
	}
	return len(snaps), nil
}
