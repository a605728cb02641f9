package postgres

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type chatRepository struct {
	db *gorm.DB
}

var _ interfaces.ChatRepository = &chatRepository{}

func newChatRepository(db *gorm.DB) *chatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateSession(ctx context.Context, session *model.ChatSession) (*model.ChatSession, error) {
	now := time.Now().UTC()
	row := &chatSessionRow{
		ID:        string(session.ID),
		Title:     session.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if row.ID == "" {
		row.ID = string(model.NewSessionID())
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create session", goerr.V("id", row.ID))
	}
	return fromSessionRow(row), nil
}

func (r *chatRepository) getSession(db *gorm.DB, id model.SessionID) (*chatSessionRow, error) {
	var row chatSessionRow
	if err := db.Take(&row, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V("id", id))
	}
	return &row, nil
}

func (r *chatRepository) GetSession(ctx context.Context, id model.SessionID) (*model.ChatSession, error) {
	row, err := r.getSession(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return fromSessionRow(row), nil
}

func (r *chatRepository) ListSessions(ctx context.Context) ([]*model.SessionSummary, error) {
	var rows []*chatSessionRow
	if err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list sessions")
	}

	result := make([]*model.SessionSummary, 0, len(rows))
	for _, row := range rows {
		result = append(result, &model.SessionSummary{
			Session:     fromSessionRow(row),
			LastMessage: row.LastMessage,
		})
	}
	return result, nil
}

func (r *chatRepository) DeleteSession(ctx context.Context, id model.SessionID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&chatSessionRow{}, "id = ?", string(id))
		if res.Error != nil {
			return goerr.Wrap(res.Error, "failed to delete session", goerr.V("id", id))
		}
		if res.RowsAffected == 0 {
			return goerr.Wrap(ErrNotFound, "session not found", goerr.V("id", id))
		}

		if err := tx.Delete(&chatMessageRow{}, "session_id = ?", string(id)).Error; err != nil {
			return goerr.Wrap(err, "failed to delete session messages", goerr.V("id", id))
		}
		return nil
	})
}

func (r *chatRepository) AppendMessage(ctx context.Context, msg *model.ChatMessage, titleHint string) (*model.ChatMessage, error) {
	var created *model.ChatMessage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// row lock serializes Seq allocation per session
		session, err := r.getSession(tx.Clauses(clause.Locking{Strength: "UPDATE"}), msg.SessionID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		created = model.CopyMessage(msg)
		if created.ID == "" {
			created.ID = model.NewMessageID()
		}
		created.CreatedAt = now
		created.Seq = session.MessageCount + 1

		row, err := toMessageRow(created)
		if err != nil {
			return err
		}
		if err := tx.Create(row).Error; err != nil {
			return goerr.Wrap(err, "failed to create message", goerr.V("session_id", msg.SessionID))
		}

		updates := map[string]any{
			"message_count": created.Seq,
			"last_message":  created.Content,
			"updated_at":    now,
		}
		if session.Title == "" && titleHint != "" {
			updates["title"] = titleHint
		}
		if err := tx.Model(&chatSessionRow{}).Where("id = ?", session.ID).Updates(updates).Error; err != nil {
			return goerr.Wrap(err, "failed to update session", goerr.V("id", session.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, id model.SessionID, limit int) ([]*model.ChatMessage, error) {
	q := r.db.WithContext(ctx).Where("session_id = ?", string(id))
	if limit > 0 {
		q = q.Order("seq DESC").Limit(limit)
	} else {
		q = q.Order("seq ASC")
	}

	var rows []*chatMessageRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list messages", goerr.V("session_id", id))
	}
	if limit > 0 {
		slices.Reverse(rows)
	}

	result := make([]*model.ChatMessage, 0, len(rows))
	for _, row := range rows {
		msg, err := fromMessageRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, nil
}
