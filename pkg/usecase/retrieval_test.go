package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
	"github.com/taskdesk/taskdesk/pkg/repository/memory"
	"github.com/taskdesk/taskdesk/pkg/service/websearch"
	"github.com/taskdesk/taskdesk/pkg/usecase"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
)

type mockSearcher struct {
	results []model.WebResult
	err     error
	calls   int
}

func (m *mockSearcher) Search(ctx context.Context, query string) ([]model.WebResult, error) {
	m.calls++
	return m.results, m.err
}

// brokenNotes fails note searches and delegates everything else
type brokenNotes struct {
	interfaces.ContentRepository
}

func (brokenNotes) SearchNotes(context.Context, string, int) ([]*model.Note, error) {
	return nil, errors.New("connection reset")
}

func newRetrieval(content interfaces.ContentRepository, embeddings interfaces.EmbeddingRepository, invoker *mockInvoker, web websearch.Searcher, mode websearch.Mode) *usecase.RetrievalUseCase {
	cfg := usecase.DefaultChatConfig()
	caps := usecase.NewCapabilities(embeddings.Ensure, nil, web != nil)
	emb := usecase.NewEmbeddingUseCase(content, embeddings, invoker, caps, cfg)
	return usecase.NewRetrievalUseCase(content, emb, web, mode, caps, text.Hebrew, cfg)
}

func TestRetrievalUseCase_BuildContext(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("empty store yields empty context", func(t *testing.T) {
		repo := memory.New()
		r := newRetrieval(repo.Content(), repo.Embedding(), &mockInvoker{}, nil, websearch.ModeOff)

		got := r.BuildContext(ctx, "מה קורה?")
		gt.A(t, got.Context).Length(0)
		gt.A(t, got.WebResults).Length(0)
	})

	t.Run("merge order and limit", func(t *testing.T) {
		repo := memory.New()
		content := repo.Content()
		question := "פגישה"

		for i, age := range []time.Duration{0, time.Minute, 2 * time.Minute, 3 * time.Minute} {
			gt.NoError(t, content.PutNote(ctx, &model.Note{
				ID:        "n" + string(rune('0'+i)),
				Title:     "פגישה " + string(rune('א'+i)),
				Content:   "<p>סיכום</p>",
				UpdatedAt: now.Add(-age),
			})).Required()
		}
		gt.NoError(t, content.PutGuide(ctx, &model.Guide{
			ID: "g1", Title: "מדריך פגישה", Content: "צעדים", CategoryName: "נהלים", UpdatedAt: now,
		})).Required()
		gt.NoError(t, content.PutTask(ctx, &model.Task{
			ID: "k1", Title: "להכין פגישה", Content: "לתאם", UpdatedAt: now,
			Steps: []model.Step{{Title: "חדר"}, {Title: "הזמנה"}},
		})).Required()
		table := model.NewTable("t1", "פגישה שבועית", []string{"יום"}, [][]any{{"שני"}})
		gt.NoError(t, content.PutTable(ctx, table)).Required()

		r := newRetrieval(content, repo.Embedding(), &mockInvoker{}, nil, websearch.ModeOff)
		got := r.BuildContext(ctx, question)

		gt.A(t, got.Context).Length(6)
		gt.Value(t, got.Context[0].Source).Equal(model.SourceTable)
		gt.Value(t, got.Context[0].Title).Equal("פגישה שבועית")
		gt.Value(t, got.Context[1]).Equal(model.ContextChunk{Title: "פגישה א", Source: model.SourceNote, Content: "סיכום"})
		gt.Value(t, got.Context[3].Title).Equal("פגישה ג")
		gt.Value(t, got.Context[4]).Equal(model.ContextChunk{Title: "מדריך פגישה", Source: "guide · נהלים", Content: "צעדים"})
		gt.Value(t, got.Context[5]).Equal(model.ContextChunk{Title: "להכין פגישה", Source: model.SourceTask, Content: "לתאם שלבים: 1. חדר 2. הזמנה"})
	})

	t.Run("vector hits follow structured matches", func(t *testing.T) {
		repo := memory.New()
		content := repo.Content()
		gt.NoError(t, content.PutNote(ctx, &model.Note{ID: "n1", Title: "חופשה", Content: "נוהל"})).Required()
		gt.NoError(t, repo.Embedding().Replace(ctx, []*model.EmbeddingRecord{
			{EntityType: types.EntityGuide, EntityID: "g9", Content: "Vacation policy נוהל", Embedding: hashVector("חופשה")},
		})).Required()

		r := newRetrieval(content, repo.Embedding(), &mockInvoker{}, nil, websearch.ModeOff)
		got := r.BuildContext(ctx, "חופשה")

		gt.A(t, got.Context).Length(2)
		gt.Value(t, got.Context[0].Source).Equal(model.SourceNote)
		gt.Value(t, got.Context[1]).Equal(model.ContextChunk{Title: "guide#g9", Source: "vector · guide", Content: "נוהל"})
	})

	t.Run("failing source is skipped", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.Content().PutTask(ctx, &model.Task{ID: "k1", Title: "דוח", Content: "שבועי"})).Required()
		gt.NoError(t, repo.Content().PutNote(ctx, &model.Note{ID: "n1", Title: "דוח", Content: "x"})).Required()

		r := newRetrieval(brokenNotes{repo.Content()}, repo.Embedding(), &mockInvoker{}, nil, websearch.ModeOff)
		got := r.BuildContext(ctx, "דוח")
		gt.A(t, got.Context).Length(1)
		gt.Value(t, got.Context[0].Source).Equal(model.SourceTask)
	})

	t.Run("web stage follows the mode", func(t *testing.T) {
		repo := memory.New()
		searcher := &mockSearcher{results: []model.WebResult{
			{Title: "1"}, {Title: "2"}, {Title: "3"}, {Title: "4"},
		}}

		auto := newRetrieval(repo.Content(), repo.Embedding(), &mockInvoker{}, searcher, websearch.ModeAuto)
		gt.A(t, auto.BuildContext(ctx, "כמה משימות פתוחות").WebResults).Length(0)
		gt.Number(t, searcher.calls).Equal(0)

		got := auto.BuildContext(ctx, "מה דעתך על הכלי?")
		gt.A(t, got.WebResults).Length(3)
		gt.Number(t, searcher.calls).Equal(1)
	})

	t.Run("web failure degrades", func(t *testing.T) {
		repo := memory.New()
		searcher := &mockSearcher{err: errors.New("quota exceeded")}
		r := newRetrieval(repo.Content(), repo.Embedding(), &mockInvoker{}, searcher, websearch.ModeAlways)
		gt.A(t, r.BuildContext(ctx, "שאלה").WebResults).Length(0)
	})
}

func TestMergeChunks(t *testing.T) {
	a := model.ContextChunk{Title: "a", Source: "note"}
	b := model.ContextChunk{Title: "b", Source: "note"}
	c := model.ContextChunk{Title: "a", Source: "guide"}

	got := usecase.MergeChunks(3, []model.ContextChunk{a, b}, []model.ContextChunk{a, c, {Title: "d"}})
	gt.Value(t, got).Equal([]model.ContextChunk{a, b, c})
}
