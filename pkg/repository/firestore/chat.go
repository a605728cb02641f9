package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// sessionDoc keeps the message counter and the latest message next to the session so that
// AppendMessage and ListSessions need no extra queries.
type sessionDoc struct {
	ID           string    `firestore:"ID"`
	Title        string    `firestore:"Title"`
	MessageCount int64     `firestore:"MessageCount"`
	LastMessage  string    `firestore:"LastMessage"`
	CreatedAt    time.Time `firestore:"CreatedAt"`
	UpdatedAt    time.Time `firestore:"UpdatedAt"`
}

type chunkDoc struct {
	Title   string `firestore:"Title"`
	Source  string `firestore:"Source"`
	Content string `firestore:"Content"`
}

type webResultDoc struct {
	Title   string `firestore:"Title"`
	URL     string `firestore:"URL"`
	Snippet string `firestore:"Snippet"`
}

type metadataDoc struct {
	Context    []chunkDoc     `firestore:"Context"`
	WebResults []webResultDoc `firestore:"WebResults"`
	Path       string         `firestore:"Path"`
}

type messageDoc struct {
	ID        string       `firestore:"ID"`
	SessionID string       `firestore:"SessionID"`
	Role      string       `firestore:"Role"`
	Content   string       `firestore:"Content"`
	Metadata  *metadataDoc `firestore:"Metadata,omitempty"`
	Seq       int64        `firestore:"Seq"`
	CreatedAt time.Time    `firestore:"CreatedAt"`
}

func fromSessionDoc(d *sessionDoc) *model.ChatSession {
	return &model.ChatSession{
		ID:        model.SessionID(d.ID),
		Title:     d.Title,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toMessageDoc(m *model.ChatMessage) *messageDoc {
	doc := &messageDoc{
		ID:        string(m.ID),
		SessionID: string(m.SessionID),
		Role:      string(m.Role),
		Content:   m.Content,
		Seq:       m.Seq,
		CreatedAt: m.CreatedAt,
	}
	if m.Metadata != nil {
		md := &metadataDoc{Path: string(m.Metadata.Path)}
		for _, c := range m.Metadata.Context {
			md.Context = append(md.Context, chunkDoc(c))
		}
		for _, w := range m.Metadata.WebResults {
			md.WebResults = append(md.WebResults, webResultDoc(w))
		}
		doc.Metadata = md
	}
	return doc
}

func fromMessageDoc(d *messageDoc) *model.ChatMessage {
	m := &model.ChatMessage{
		ID:        model.MessageID(d.ID),
		SessionID: model.SessionID(d.SessionID),
		Role:      types.Role(d.Role),
		Content:   d.Content,
		Seq:       d.Seq,
		CreatedAt: d.CreatedAt,
	}
	if d.Metadata != nil {
		md := &model.MessageMetadata{Path: model.AnswerPath(d.Metadata.Path)}
		for _, c := range d.Metadata.Context {
			md.Context = append(md.Context, model.ContextChunk(c))
		}
		for _, w := range d.Metadata.WebResults {
			md.WebResults = append(md.WebResults, model.WebResult(w))
		}
		m.Metadata = md
	}
	return m
}

type chatRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.ChatRepository = &chatRepository{}

func newChatRepository(client *firestore.Client) *chatRepository {
	return &chatRepository{
		client: client,
	}
}

func (r *chatRepository) sessionsCollection() *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, "chat_sessions"))
}

func (r *chatRepository) messagesCollection(id model.SessionID) *firestore.CollectionRef {
	return r.sessionsCollection().Doc(string(id)).Collection("messages")
}

func (r *chatRepository) CreateSession(ctx context.Context, session *model.ChatSession) (*model.ChatSession, error) {
	now := time.Now().UTC()
	created := &model.ChatSession{
		ID:        session.ID,
		Title:     session.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if created.ID == "" {
		created.ID = model.NewSessionID()
	}

	doc := &sessionDoc{
		ID:        string(created.ID),
		Title:     created.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.sessionsCollection().Doc(string(created.ID)).Create(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create session", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *chatRepository) GetSession(ctx context.Context, id model.SessionID) (*model.ChatSession, error) {
	snap, err := r.sessionsCollection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V("id", id))
	}

	var d sessionDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal session", goerr.V("id", id))
	}
	return fromSessionDoc(&d), nil
}

func (r *chatRepository) ListSessions(ctx context.Context) ([]*model.SessionSummary, error) {
	iter := r.sessionsCollection().OrderBy("UpdatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	result := make([]*model.SessionSummary, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate sessions")
		}

		var d sessionDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal session", goerr.V("id", snap.Ref.ID))
		}
		result = append(result, &model.SessionSummary{
			Session:     fromSessionDoc(&d),
			LastMessage: d.LastMessage,
		})
	}

	return result, nil
}

func (r *chatRepository) DeleteSession(ctx context.Context, id model.SessionID) error {
	sessionRef := r.sessionsCollection().Doc(string(id))
	if _, err := sessionRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get session", goerr.V("id", id))
	}

	const batchSize = 500
	for {
		iter := r.messagesCollection(id).Limit(batchSize).Documents(ctx)
		bulkWriter := r.client.BulkWriter(ctx)
		count := 0

		for {
			snap, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				bulkWriter.End()
				return goerr.Wrap(err, "failed to iterate messages for deletion", goerr.V("id", id))
			}
			if _, err := bulkWriter.Delete(snap.Ref); err != nil {
				iter.Stop()
				bulkWriter.End()
				return goerr.Wrap(err, "failed to delete message", goerr.V("id", id))
			}
			count++
		}
		iter.Stop()
		bulkWriter.End()

		if count < batchSize {
			break
		}
	}

	if _, err := sessionRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete session", goerr.V("id", id))
	}
	return nil
}

func (r *chatRepository) AppendMessage(ctx context.Context, msg *model.ChatMessage, titleHint string) (*model.ChatMessage, error) {
	sessionRef := r.sessionsCollection().Doc(string(msg.SessionID))
	created := model.CopyMessage(msg)
	if created.ID == "" {
		created.ID = model.NewMessageID()
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(sessionRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", msg.SessionID))
			}
			return goerr.Wrap(err, "failed to get session")
		}

		var d sessionDoc
		if err := snap.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to unmarshal session")
		}

		now := time.Now().UTC()
		created.CreatedAt = now
		created.Seq = d.MessageCount + 1

		updates := []firestore.Update{
			{Path: "MessageCount", Value: created.Seq},
			{Path: "LastMessage", Value: created.Content},
			{Path: "UpdatedAt", Value: now},
		}
		if d.Title == "" && titleHint != "" {
			updates = append(updates, firestore.Update{Path: "Title", Value: titleHint})
		}

		if err := tx.Create(r.messagesCollection(msg.SessionID).Doc(string(created.ID)), toMessageDoc(created)); err != nil {
			return goerr.Wrap(err, "failed to create message")
		}
		return tx.Update(sessionRef, updates)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to append message", goerr.V("session_id", msg.SessionID))
	}

	return created, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, id model.SessionID, limit int) ([]*model.ChatMessage, error) {
	query := r.messagesCollection(id).OrderBy("Seq", firestore.Asc)
	if limit > 0 {
		query = r.messagesCollection(id).OrderBy("Seq", firestore.Desc).Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	messages := make([]*model.ChatMessage, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages", goerr.V("id", id))
		}

		var d messageDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal message", goerr.V("id", snap.Ref.ID))
		}
		messages = append(messages, fromMessageDoc(&d))
	}

	if limit > 0 {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	return messages, nil
}
