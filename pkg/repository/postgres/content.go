package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type contentRepository struct {
	db *gorm.DB
}

var _ interfaces.ContentRepository = &contentRepository{}

func newContentRepository(db *gorm.DB) *contentRepository {
	return &contentRepository{db: db}
}

func stamp(id *string, updatedAt *time.Time) {
	if *id == "" {
		*id = model.NewContentID()
	}
	if updatedAt.IsZero() {
		*updatedAt = time.Now().UTC()
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns term into an ILIKE substring pattern
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func (r *contentRepository) upsert(ctx context.Context, row any) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
		return goerr.Wrap(err, "failed to upsert record")
	}
	return nil
}

// recent returns rows newest-updated first, filtered by an ILIKE match on the given columns when
// term is set
func recent[R any](ctx context.Context, db *gorm.DB, term string, limit int, columns ...string) ([]*R, error) {
	q := db.WithContext(ctx).Order("updated_at DESC")
	if term != "" && len(columns) > 0 {
		pattern := likePattern(term)
		conds := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			conds[i] = c + " ILIKE ?"
			args[i] = pattern
		}
		q = q.Where(strings.Join(conds, " OR "), args...)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []*R
	if err := q.Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to query records", goerr.V("term", term))
	}
	return rows, nil
}

func (r *contentRepository) PutNote(ctx context.Context, note *model.Note) error {
	row := noteRow(*note)
	stamp(&row.ID, &row.UpdatedAt)
	return r.upsert(ctx, &row)
}

func (r *contentRepository) listNotes(ctx context.Context, term string, limit int) ([]*model.Note, error) {
	rows, err := recent[noteRow](ctx, r.db, term, limit, "title", "content")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list notes")
	}
	result := make([]*model.Note, len(rows))
	for i, row := range rows {
		n := model.Note(*row)
		result[i] = &n
	}
	return result, nil
}

func (r *contentRepository) SearchNotes(ctx context.Context, term string, limit int) ([]*model.Note, error) {
	return r.listNotes(ctx, term, limit)
}

func (r *contentRepository) ListNotes(ctx context.Context) ([]*model.Note, error) {
	return r.listNotes(ctx, "", 0)
}

func (r *contentRepository) PutGuide(ctx context.Context, guide *model.Guide) error {
	row := guideRow(*guide)
	stamp(&row.ID, &row.UpdatedAt)
	return r.upsert(ctx, &row)
}

func (r *contentRepository) listGuides(ctx context.Context, term string, limit int) ([]*model.Guide, error) {
	rows, err := recent[guideRow](ctx, r.db, term, limit, "title", "content")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list guides")
	}
	result := make([]*model.Guide, len(rows))
	for i, row := range rows {
		g := model.Guide(*row)
		result[i] = &g
	}
	return result, nil
}

func (r *contentRepository) SearchGuides(ctx context.Context, term string, limit int) ([]*model.Guide, error) {
	return r.listGuides(ctx, term, limit)
}

func (r *contentRepository) ListGuides(ctx context.Context) ([]*model.Guide, error) {
	return r.listGuides(ctx, "", 0)
}

func (r *contentRepository) PutTask(ctx context.Context, task *model.Task) error {
	steps, err := toJSON(task.Steps)
	if err != nil {
		return goerr.Wrap(err, "failed to encode task steps", goerr.V("id", task.ID))
	}
	row := &taskRow{
		ID:        task.ID,
		Title:     task.Title,
		Content:   task.Content,
		Steps:     steps,
		UpdatedAt: task.UpdatedAt,
	}
	stamp(&row.ID, &row.UpdatedAt)
	return r.upsert(ctx, row)
}

func (r *contentRepository) listTasks(ctx context.Context, term string, limit int) ([]*model.Task, error) {
	rows, err := recent[taskRow](ctx, r.db, term, limit, "title", "content")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tasks")
	}
	result := make([]*model.Task, len(rows))
	for i, row := range rows {
		steps, err := fromJSON[[]model.Step](row.Steps)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to decode task steps", goerr.V("id", row.ID))
		}
		result[i] = &model.Task{
			ID:        row.ID,
			Title:     row.Title,
			Content:   row.Content,
			Steps:     steps,
			UpdatedAt: row.UpdatedAt,
		}
	}
	return result, nil
}

func (r *contentRepository) SearchTasks(ctx context.Context, term string, limit int) ([]*model.Task, error) {
	return r.listTasks(ctx, term, limit)
}

func (r *contentRepository) ListTasks(ctx context.Context) ([]*model.Task, error) {
	return r.listTasks(ctx, "", 0)
}

func (r *contentRepository) PutTemplate(ctx context.Context, tmpl *model.Template) error {
	steps, err := toJSON(tmpl.Steps)
	if err != nil {
		return goerr.Wrap(err, "failed to encode template steps", goerr.V("id", tmpl.ID))
	}
	row := &templateRow{
		ID:        tmpl.ID,
		Name:      tmpl.Name,
		Steps:     steps,
		UpdatedAt: tmpl.UpdatedAt,
	}
	stamp(&row.ID, &row.UpdatedAt)
	return r.upsert(ctx, row)
}

func (r *contentRepository) ListTemplates(ctx context.Context) ([]*model.Template, error) {
	rows, err := recent[templateRow](ctx, r.db, "", 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list templates")
	}
	result := make([]*model.Template, len(rows))
	for i, row := range rows {
		steps, err := fromJSON[[]model.Step](row.Steps)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to decode template steps", goerr.V("id", row.ID))
		}
		result[i] = &model.Template{
			ID:        row.ID,
			Name:      row.Name,
			Steps:     steps,
			UpdatedAt: row.UpdatedAt,
		}
	}
	return result, nil
}

func (r *contentRepository) PutFavorite(ctx context.Context, fav *model.Favorite) error {
	row := favoriteRow(*fav)
	stamp(&row.ID, &row.UpdatedAt)
	return r.upsert(ctx, &row)
}

func (r *contentRepository) ListFavorites(ctx context.Context) ([]*model.Favorite, error) {
	rows, err := recent[favoriteRow](ctx, r.db, "", 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list favorites")
	}
	result := make([]*model.Favorite, len(rows))
	for i, row := range rows {
		f := model.Favorite(*row)
		result[i] = &f
	}
	return result, nil
}

func (r *contentRepository) PutTable(ctx context.Context, table *model.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}

	columns, err := toJSON(table.Columns)
	if err != nil {
		return goerr.Wrap(err, "failed to encode table columns", goerr.V("id", table.ID))
	}
	rows, err := toJSON(table.Rows)
	if err != nil {
		return goerr.Wrap(err, "failed to encode table rows", goerr.V("id", table.ID))
	}

	row := &dataTableRow{
		ID:        table.ID,
		Name:      table.Name,
		Columns:   columns,
		Rows:      rows,
		UpdatedAt: table.UpdatedAt,
	}
	stamp(&row.ID, &row.UpdatedAt)
	return r.upsert(ctx, row)
}

func (r *contentRepository) ListRecentTables(ctx context.Context, limit int) ([]*model.Table, error) {
	rows, err := recent[dataTableRow](ctx, r.db, "", limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tables")
	}
	result := make([]*model.Table, len(rows))
	for i, row := range rows {
		t, err := fromTableRow(row)
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}
