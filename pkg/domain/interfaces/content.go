package interfaces

import (
	"context"

	"github.com/taskdesk/taskdesk/pkg/domain/model"
)

// ContentRepository is the read side of the task-management records the bot draws on, plus the
// Put methods used by seed import. Search methods match term as a case-insensitive substring of
// title or content and return newest-updated first.
type ContentRepository interface {
	PutNote(ctx context.Context, note *model.Note) error
	SearchNotes(ctx context.Context, term string, limit int) ([]*model.Note, error)
	ListNotes(ctx context.Context) ([]*model.Note, error)

	PutGuide(ctx context.Context, guide *model.Guide) error
	SearchGuides(ctx context.Context, term string, limit int) ([]*model.Guide, error)
	ListGuides(ctx context.Context) ([]*model.Guide, error)

	PutTask(ctx context.Context, task *model.Task) error
	SearchTasks(ctx context.Context, term string, limit int) ([]*model.Task, error)
	ListTasks(ctx context.Context) ([]*model.Task, error)

	PutTemplate(ctx context.Context, tmpl *model.Template) error
	ListTemplates(ctx context.Context) ([]*model.Template, error)

	PutFavorite(ctx context.Context, fav *model.Favorite) error
	ListFavorites(ctx context.Context) ([]*model.Favorite, error)

	// PutTable validates the row/column invariant before writing
	PutTable(ctx context.Context, table *model.Table) error
	// ListRecentTables returns up to limit tables, newest-updated first. limit <= 0 means all.
	ListRecentTables(ctx context.Context, limit int) ([]*model.Table, error)
}
