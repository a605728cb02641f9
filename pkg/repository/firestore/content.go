package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"google.golang.org/api/iterator"
)

// searchScanLimit bounds how many recent documents a substring search inspects. Firestore has no
// substring operator, so matching happens client-side over the newest documents.
const searchScanLimit = 500

type noteDoc struct {
	ID        string    `firestore:"ID"`
	Title     string    `firestore:"Title"`
	Content   string    `firestore:"Content"`
	UpdatedAt time.Time `firestore:"UpdatedAt"`
}

type guideDoc struct {
	ID           string    `firestore:"ID"`
	Title        string    `firestore:"Title"`
	Content      string    `firestore:"Content"`
	CategoryName string    `firestore:"CategoryName"`
	UpdatedAt    time.Time `firestore:"UpdatedAt"`
}

type stepDoc struct {
	Title string `firestore:"Title"`
	Link  string `firestore:"Link"`
}

type taskDoc struct {
	ID        string    `firestore:"ID"`
	Title     string    `firestore:"Title"`
	Content   string    `firestore:"Content"`
	Steps     []stepDoc `firestore:"Steps"`
	UpdatedAt time.Time `firestore:"UpdatedAt"`
}

type templateDoc struct {
	ID        string    `firestore:"ID"`
	Name      string    `firestore:"Name"`
	Steps     []stepDoc `firestore:"Steps"`
	UpdatedAt time.Time `firestore:"UpdatedAt"`
}

type favoriteDoc struct {
	ID        string    `firestore:"ID"`
	Title     string    `firestore:"Title"`
	Link      string    `firestore:"Link"`
	Content   string    `firestore:"Content"`
	UpdatedAt time.Time `firestore:"UpdatedAt"`
}

// rowDoc wraps a row because Firestore does not allow arrays directly inside arrays
type rowDoc struct {
	Cells []any `firestore:"Cells"`
}

type tableDoc struct {
	ID        string    `firestore:"ID"`
	Name      string    `firestore:"Name"`
	Columns   []string  `firestore:"Columns"`
	Rows      []rowDoc  `firestore:"Rows"`
	UpdatedAt time.Time `firestore:"UpdatedAt"`
}

func toStepDocs(steps []model.Step) []stepDoc {
	docs := make([]stepDoc, len(steps))
	for i, s := range steps {
		docs[i] = stepDoc(s)
	}
	return docs
}

func fromStepDocs(docs []stepDoc) []model.Step {
	steps := make([]model.Step, len(docs))
	for i, d := range docs {
		steps[i] = model.Step(d)
	}
	return steps
}

func toTableDoc(t *model.Table) *tableDoc {
	doc := &tableDoc{
		ID:        t.ID,
		Name:      t.Name,
		Columns:   t.Columns,
		UpdatedAt: t.UpdatedAt,
	}
	for _, row := range t.AnyRows() {
		doc.Rows = append(doc.Rows, rowDoc{Cells: row})
	}
	return doc
}

func fromTableDoc(d *tableDoc) *model.Table {
	rows := make([][]any, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = r.Cells
	}
	t := model.NewTable(d.ID, d.Name, d.Columns, rows)
	t.UpdatedAt = d.UpdatedAt
	return t
}

func matchesTerm(term string, fields ...string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

type contentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.ContentRepository = &contentRepository{}

func newContentRepository(client *firestore.Client) *contentRepository {
	return &contentRepository{
		client: client,
	}
}

func (r *contentRepository) collection(name string) *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, name))
}

func stampContent(id *string, updatedAt *time.Time) {
	if *id == "" {
		*id = model.NewContentID()
	}
	if updatedAt.IsZero() {
		*updatedAt = time.Now().UTC()
	}
}

// scan iterates documents newest-updated first and stops after limit accepted documents.
// limit <= 0 means no limit.
func scan[D any, T any](ctx context.Context, q firestore.Query, limit int, convert func(*D) T, keep func(T) bool) ([]T, error) {
	iter := q.OrderBy("UpdatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	result := make([]T, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate documents")
		}

		var d D
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal document", goerr.V("id", snap.Ref.ID))
		}

		v := convert(&d)
		if keep != nil && !keep(v) {
			continue
		}
		result = append(result, v)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *contentRepository) put(ctx context.Context, name, id string, doc any) error {
	if _, err := r.collection(name).Doc(id).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put document", goerr.V("collection", name), goerr.V("id", id))
	}
	return nil
}

func (r *contentRepository) PutNote(ctx context.Context, note *model.Note) error {
	stampContent(&note.ID, &note.UpdatedAt)
	return r.put(ctx, "notes", note.ID, &noteDoc{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		UpdatedAt: note.UpdatedAt,
	})
}

func noteFromDoc(d *noteDoc) *model.Note {
	n := model.Note(*d)
	return &n
}

func (r *contentRepository) SearchNotes(ctx context.Context, term string, limit int) ([]*model.Note, error) {
	q := r.collection("notes").Limit(searchScanLimit)
	return scan(ctx, q, limit, noteFromDoc, func(n *model.Note) bool {
		return matchesTerm(term, n.Title, n.Content)
	})
}

func (r *contentRepository) ListNotes(ctx context.Context) ([]*model.Note, error) {
	return scan(ctx, r.collection("notes").Query, 0, noteFromDoc, nil)
}

func (r *contentRepository) PutGuide(ctx context.Context, guide *model.Guide) error {
	stampContent(&guide.ID, &guide.UpdatedAt)
	return r.put(ctx, "guides", guide.ID, &guideDoc{
		ID:           guide.ID,
		Title:        guide.Title,
		Content:      guide.Content,
		CategoryName: guide.CategoryName,
		UpdatedAt:    guide.UpdatedAt,
	})
}

func guideFromDoc(d *guideDoc) *model.Guide {
	g := model.Guide(*d)
	return &g
}

func (r *contentRepository) SearchGuides(ctx context.Context, term string, limit int) ([]*model.Guide, error) {
	q := r.collection("guides").Limit(searchScanLimit)
	return scan(ctx, q, limit, guideFromDoc, func(g *model.Guide) bool {
		return matchesTerm(term, g.Title, g.Content)
	})
}

func (r *contentRepository) ListGuides(ctx context.Context) ([]*model.Guide, error) {
	return scan(ctx, r.collection("guides").Query, 0, guideFromDoc, nil)
}

func (r *contentRepository) PutTask(ctx context.Context, task *model.Task) error {
	stampContent(&task.ID, &task.UpdatedAt)
	return r.put(ctx, "tasks", task.ID, &taskDoc{
		ID:        task.ID,
		Title:     task.Title,
		Content:   task.Content,
		Steps:     toStepDocs(task.Steps),
		UpdatedAt: task.UpdatedAt,
	})
}

func taskFromDoc(d *taskDoc) *model.Task {
	return &model.Task{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Steps:     fromStepDocs(d.Steps),
		UpdatedAt: d.UpdatedAt,
	}
}

func (r *contentRepository) SearchTasks(ctx context.Context, term string, limit int) ([]*model.Task, error) {
	q := r.collection("tasks").Limit(searchScanLimit)
	return scan(ctx, q, limit, taskFromDoc, func(t *model.Task) bool {
		return matchesTerm(term, t.Title, t.Content)
	})
}

func (r *contentRepository) ListTasks(ctx context.Context) ([]*model.Task, error) {
	return scan(ctx, r.collection("tasks").Query, 0, taskFromDoc, nil)
}

func (r *contentRepository) PutTemplate(ctx context.Context, tmpl *model.Template) error {
	stampContent(&tmpl.ID, &tmpl.UpdatedAt)
	return r.put(ctx, "templates", tmpl.ID, &templateDoc{
		ID:        tmpl.ID,
		Name:      tmpl.Name,
		Steps:     toStepDocs(tmpl.Steps),
		UpdatedAt: tmpl.UpdatedAt,
	})
}

func (r *contentRepository) ListTemplates(ctx context.Context) ([]*model.Template, error) {
	return scan(ctx, r.collection("templates").Query, 0, func(d *templateDoc) *model.Template {
		return &model.Template{
			ID:        d.ID,
			Name:      d.Name,
			Steps:     fromStepDocs(d.Steps),
			UpdatedAt: d.UpdatedAt,
		}
	}, nil)
}

func (r *contentRepository) PutFavorite(ctx context.Context, fav *model.Favorite) error {
	stampContent(&fav.ID, &fav.UpdatedAt)
	return r.put(ctx, "favorites", fav.ID, &favoriteDoc{
		ID:        fav.ID,
		Title:     fav.Title,
		Link:      fav.Link,
		Content:   fav.Content,
		UpdatedAt: fav.UpdatedAt,
	})
}

func (r *contentRepository) ListFavorites(ctx context.Context) ([]*model.Favorite, error) {
	return scan(ctx, r.collection("favorites").Query, 0, func(d *favoriteDoc) *model.Favorite {
		f := model.Favorite(*d)
		return &f
	}, nil)
}

func (r *contentRepository) PutTable(ctx context.Context, table *model.Table) error {
	if err := table.Validate(); err != nil {
		return goerr.Wrap(err, "refusing to store table")
	}
	stampContent(&table.ID, &table.UpdatedAt)
	return r.put(ctx, "tables", table.ID, toTableDoc(table))
}

func (r *contentRepository) ListRecentTables(ctx context.Context, limit int) ([]*model.Table, error) {
	q := r.collection("tables").Query
	if limit > 0 {
		q = q.Limit(limit)
	}
	return scan(ctx, q, limit, fromTableDoc, nil)
}
