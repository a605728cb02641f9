package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
)

type contentRepository struct {
	mu        sync.RWMutex
	notes     map[string]*model.Note
	guides    map[string]*model.Guide
	tasks     map[string]*model.Task
	templates map[string]*model.Template
	favorites map[string]*model.Favorite
	tables    map[string]*model.Table
}

var _ interfaces.ContentRepository = &contentRepository{}

func newContentRepository() *contentRepository {
	return &contentRepository{
		notes:     make(map[string]*model.Note),
		guides:    make(map[string]*model.Guide),
		tasks:     make(map[string]*model.Task),
		templates: make(map[string]*model.Template),
		favorites: make(map[string]*model.Favorite),
		tables:    make(map[string]*model.Table),
	}
}

// stamp fills a missing ID and UpdatedAt
func stamp(id *string, updatedAt *time.Time) {
	if *id == "" {
		*id = model.NewContentID()
	}
	if updatedAt.IsZero() {
		*updatedAt = time.Now().UTC()
	}
}

func containsFold(term string, fields ...string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// newestFirst collects values of m matching keep, sorts them by updated desc and caps at limit
func newestFirst[T any](m map[string]*T, keep func(*T) bool, updated func(*T) time.Time, clone func(*T) *T, limit int) []*T {
	result := make([]*T, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			result = append(result, clone(v))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return updated(result[i]).After(updated(result[j]))
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func cloneNote(n *model.Note) *model.Note {
	c := *n
	return &c
}

func cloneGuide(g *model.Guide) *model.Guide {
	c := *g
	return &c
}

func cloneFavorite(f *model.Favorite) *model.Favorite {
	c := *f
	return &c
}

func cloneTask(t *model.Task) *model.Task {
	c := *t
	c.Steps = append([]model.Step(nil), t.Steps...)
	return &c
}

func cloneTemplate(t *model.Template) *model.Template {
	c := *t
	c.Steps = append([]model.Step(nil), t.Steps...)
	return &c
}

func (r *contentRepository) PutNote(_ context.Context, note *model.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneNote(note)
	stamp(&stored.ID, &stored.UpdatedAt)
	r.notes[stored.ID] = stored
	return nil
}

func (r *contentRepository) SearchNotes(_ context.Context, term string, limit int) ([]*model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newestFirst(r.notes,
		func(n *model.Note) bool { return containsFold(term, n.Title, n.Content) },
		func(n *model.Note) time.Time { return n.UpdatedAt },
		cloneNote, limit), nil
}

func (r *contentRepository) ListNotes(_ context.Context) ([]*model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newestFirst(r.notes, nil, func(n *model.Note) time.Time { return n.UpdatedAt }, cloneNote, 0), nil
}

func (r *contentRepository) PutGuide(_ context.Context, guide *model.Guide) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneGuide(guide)
	stamp(&stored.ID, &stored.UpdatedAt)
	r.guides[stored.ID] = stored
	return nil
}

func (r *contentRepository) SearchGuides(_ context.Context, term string, limit int) ([]*model.Guide, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newestFirst(r.guides,
		func(g *model.Guide) bool { return containsFold(term, g.Title, g.Content) },
		func(g *model.Guide) time.Time { return g.UpdatedAt },
		cloneGuide, limit), nil
}

func (r *contentRepository) ListGuides(_ context.Context) ([]*model.Guide, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newestFirst(r.guides, nil, func(g *model.Guide) time.Time { return g.UpdatedAt }, cloneGuide, 0), nil
}

func (r *contentRepository) PutTask(_ context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneTask(task)
	stamp(&stored.ID, &stored.UpdatedAt)
	r.tasks[stored.ID] = stored
	return nil
}

func (r *contentRepository) SearchTasks(_ context.Context, term string, limit int) ([]*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newestFirst(r.tasks,
		func(t *model.Task) bool { return containsFold(term, t.Title, t.Content) },
		func(t *model.Task) time.Time { return t.UpdatedAt },
		cloneTask, limit), nil
}

func (r *contentRepository) ListTasks(_ context.Context) ([]*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newestFirst(r.tasks, nil, func(t *model.Task) time.Time { return t.UpdatedAt }, cloneTask, 0), nil
}

func (r *contentRepository) PutTemplate(_ context.Context, tmpl *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneTemplate(tmpl)
	stamp(&stored.ID, &stored.UpdatedAt)
	r.templates[stored.ID] = stored
	return nil
}

func (r *contentRepository) ListTemplates(_ context.Context) ([]*model.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newestFirst(r.templates, nil, func(t *model.Template) time.Time { return t.UpdatedAt }, cloneTemplate, 0), nil
}

func (r *contentRepository) PutFavorite(_ context.Context, fav *model.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneFavorite(fav)
	stamp(&stored.ID, &stored.UpdatedAt)
	r.favorites[stored.ID] = stored
	return nil
}

func (r *contentRepository) ListFavorites(_ context.Context) ([]*model.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newestFirst(r.favorites, nil, func(f *model.Favorite) time.Time { return f.UpdatedAt }, cloneFavorite, 0), nil
}

func (r *contentRepository) PutTable(_ context.Context, table *model.Table) error {
	if err := table.Validate(); err != nil {
		return goerr.Wrap(err, "refusing to store table")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := table.Copy()
	stamp(&stored.ID, &stored.UpdatedAt)
	r.tables[stored.ID] = stored
	return nil
}

func (r *contentRepository) ListRecentTables(_ context.Context, limit int) ([]*model.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newestFirst(r.tables, nil,
		func(t *model.Table) time.Time { return t.UpdatedAt },
		func(t *model.Table) *model.Table { return t.Copy() },
		limit), nil
}
