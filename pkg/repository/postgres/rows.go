package postgres

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
	"gorm.io/datatypes"
)

// chatSessionRow keeps the message counter and the latest message next to the session so that
// AppendMessage and ListSessions need no extra queries.
type chatSessionRow struct {
	ID           string    `gorm:"primaryKey"`
	Title        string    `gorm:"not null"`
	MessageCount int64     `gorm:"not null;default:0"`
	LastMessage  string    `gorm:"not null;default:''"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null;index;autoUpdateTime:false"`
}

func (chatSessionRow) TableName() string { return "chat_sessions" }

type chatMessageRow struct {
	ID        string         `gorm:"primaryKey"`
	SessionID string         `gorm:"not null;uniqueIndex:idx_chat_messages_session_seq,priority:1"`
	Seq       int64          `gorm:"not null;uniqueIndex:idx_chat_messages_session_seq,priority:2"`
	Role      string         `gorm:"not null"`
	Content   string         `gorm:"not null"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null"`
}

func (chatMessageRow) TableName() string { return "chat_messages" }

type noteRow struct {
	ID        string    `gorm:"primaryKey"`
	Title     string    `gorm:"not null"`
	Content   string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index;autoUpdateTime:false"`
}

func (noteRow) TableName() string { return "notes" }

type guideRow struct {
	ID           string    `gorm:"primaryKey"`
	Title        string    `gorm:"not null"`
	Content      string    `gorm:"not null"`
	CategoryName string    `gorm:"not null;default:''"`
	UpdatedAt    time.Time `gorm:"not null;index;autoUpdateTime:false"`
}

func (guideRow) TableName() string { return "guides" }

type taskRow struct {
	ID        string         `gorm:"primaryKey"`
	Title     string         `gorm:"not null"`
	Content   string         `gorm:"not null"`
	Steps     datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time      `gorm:"not null;index;autoUpdateTime:false"`
}

func (taskRow) TableName() string { return "tasks" }

type templateRow struct {
	ID        string         `gorm:"primaryKey"`
	Name      string         `gorm:"not null"`
	Steps     datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time      `gorm:"not null;index;autoUpdateTime:false"`
}

func (templateRow) TableName() string { return "templates" }

type favoriteRow struct {
	ID        string    `gorm:"primaryKey"`
	Title     string    `gorm:"not null"`
	Link      string    `gorm:"not null;default:''"`
	Content   string    `gorm:"not null;default:''"`
	UpdatedAt time.Time `gorm:"not null;index;autoUpdateTime:false"`
}

func (favoriteRow) TableName() string { return "favorites" }

// dataTableRow stores the grid as jsonb. Rows is an array of arrays of scalars.
type dataTableRow struct {
	ID        string         `gorm:"primaryKey"`
	Name      string         `gorm:"not null"`
	Columns   datatypes.JSON `gorm:"type:jsonb;not null"`
	Rows      datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"not null;index;autoUpdateTime:false"`
}

func (dataTableRow) TableName() string { return "data_tables" }

func toJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal jsonb value")
	}
	return datatypes.JSON(raw), nil
}

func fromJSON[T any](raw datatypes.JSON) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, goerr.Wrap(err, "failed to unmarshal jsonb value")
	}
	return v, nil
}

func fromSessionRow(r *chatSessionRow) *model.ChatSession {
	return &model.ChatSession{
		ID:        model.SessionID(r.ID),
		Title:     r.Title,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toMessageRow(m *model.ChatMessage) (*chatMessageRow, error) {
	row := &chatMessageRow{
		ID:        string(m.ID),
		SessionID: string(m.SessionID),
		Seq:       m.Seq,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	if m.Metadata != nil {
		md, err := toJSON(m.Metadata)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode message metadata", goerr.V("id", m.ID))
		}
		row.Metadata = md
	}
	return row, nil
}

func fromMessageRow(r *chatMessageRow) (*model.ChatMessage, error) {
	md, err := fromJSON[*model.MessageMetadata](r.Metadata)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode message metadata", goerr.V("id", r.ID))
	}
	return &model.ChatMessage{
		ID:        model.MessageID(r.ID),
		SessionID: model.SessionID(r.SessionID),
		Role:      types.Role(r.Role),
		Content:   r.Content,
		Metadata:  md,
		Seq:       r.Seq,
		CreatedAt: r.CreatedAt,
	}, nil
}

func fromTableRow(r *dataTableRow) (*model.Table, error) {
	columns, err := fromJSON[[]string](r.Columns)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode table columns", goerr.V("id", r.ID))
	}
	rows, err := fromJSON[[][]model.CellValue](r.Rows)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode table rows", goerr.V("id", r.ID))
	}
	return &model.Table{
		ID:        r.ID,
		Name:      r.Name,
		Columns:   columns,
		Rows:      rows,
		UpdatedAt: r.UpdatedAt,
	}, nil
}
