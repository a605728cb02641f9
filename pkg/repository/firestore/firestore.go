package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
)

// ErrNotFound is returned when a session or document does not exist
var ErrNotFound = interfaces.ErrNotFound

type Firestore struct {
	client    *firestore.Client
	chat      *chatRepository
	content   *contentRepository
	embedding *embeddingRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces every collection, so several environments can share one database
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.chat.collectionPrefix = prefix
		f.content.collectionPrefix = prefix
		f.embedding.collectionPrefix = prefix
	}
}

func prefixed(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

// EmbeddingsCollection returns the name of the embeddings collection under prefix
func EmbeddingsCollection(prefix string) string {
	return prefixed(prefix, embeddingsCollection)
}

// New connects to Firestore. An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var (
		client *firestore.Client
		err    error
	)
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:    client,
		chat:      newChatRepository(client),
		content:   newContentRepository(client),
		embedding: newEmbeddingRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Chat() interfaces.ChatRepository {
	return f.chat
}

func (f *Firestore) Content() interfaces.ContentRepository {
	return f.content
}

func (f *Firestore) Embedding() interfaces.EmbeddingRepository {
	return f.embedding
}

func (f *Firestore) Ping(ctx context.Context) error {
	iter := f.client.Collection(prefixed(f.chat.collectionPrefix, "chat_sessions")).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.GetAll(); err != nil {
		return goerr.Wrap(err, "failed to reach firestore")
	}
	return nil
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
