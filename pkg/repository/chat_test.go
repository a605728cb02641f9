package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/domain/types"
)

func runChatRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("CreateSession assigns ID and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Chat().CreateSession(ctx, &model.ChatSession{Title: "first"})
		gt.NoError(t, err).Required()
		gt.String(t, string(created.ID)).NotEqual("")
		gt.Value(t, created.Title).Equal("first")
		gt.Bool(t, created.CreatedAt.IsZero()).False()
		gt.Bool(t, created.UpdatedAt.IsZero()).False()

		got, err := repo.Chat().GetSession(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(created.ID)
		gt.Value(t, got.Title).Equal("first")
	})

	t.Run("GetSession returns not found for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Chat().GetSession(context.Background(), model.NewSessionID())
		gt.Value(t, err).NotNil()
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("AppendMessage assigns contiguous Seq and bumps UpdatedAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		session, err := repo.Chat().CreateSession(ctx, &model.ChatSession{})
		gt.NoError(t, err).Required()

		time.Sleep(10 * time.Millisecond)

		user, err := repo.Chat().AppendMessage(ctx, &model.ChatMessage{
			SessionID: session.ID,
			Role:      types.RoleUser,
			Content:   "מה המצב?",
		}, "מה המצב?")
		gt.NoError(t, err).Required()
		gt.Value(t, user.Seq).Equal(int64(1))
		gt.String(t, string(user.ID)).NotEqual("")

		assistant, err := repo.Chat().AppendMessage(ctx, &model.ChatMessage{
			SessionID: session.ID,
			Role:      types.RoleAssistant,
			Content:   "הכל טוב",
			Metadata: &model.MessageMetadata{
				Context:    []model.ContextChunk{{Title: "n1", Source: model.SourceNote, Content: "body"}},
				WebResults: []model.WebResult{{Title: "w", URL: "https://example.com", Snippet: "s"}},
				Path:       model.AnswerPathModel,
			},
		}, "ignored")
		gt.NoError(t, err).Required()
		gt.Value(t, assistant.Seq).Equal(int64(2))

		got, err := repo.Chat().GetSession(ctx, session.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("מה המצב?")
		gt.Bool(t, got.UpdatedAt.After(session.UpdatedAt)).True()

		msgs, err := repo.Chat().ListMessages(ctx, session.ID, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(2).Required()
		gt.Value(t, msgs[0].Role).Equal(types.RoleUser)
		gt.Value(t, msgs[1].Role).Equal(types.RoleAssistant)
		gt.Value(t, msgs[0].Metadata).Nil()
		gt.Value(t, msgs[1].Metadata).NotNil().Required()
		gt.Array(t, msgs[1].Metadata.Context).Length(1)
		gt.Value(t, msgs[1].Metadata.Context[0].Source).Equal(model.SourceNote)
		gt.Value(t, msgs[1].Metadata.WebResults[0].URL).Equal("https://example.com")
		gt.Value(t, msgs[1].Metadata.Path).Equal(model.AnswerPathModel)
	})

	t.Run("AppendMessage keeps an existing title", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		session, err := repo.Chat().CreateSession(ctx, &model.ChatSession{Title: "kept"})
		gt.NoError(t, err).Required()

		_, err = repo.Chat().AppendMessage(ctx, &model.ChatMessage{
			SessionID: session.ID, Role: types.RoleUser, Content: "q",
		}, "other")
		gt.NoError(t, err).Required()

		got, err := repo.Chat().GetSession(ctx, session.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("kept")
	})

	t.Run("AppendMessage to unknown session fails", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Chat().AppendMessage(context.Background(), &model.ChatMessage{
			SessionID: model.NewSessionID(), Role: types.RoleUser, Content: "q",
		}, "")
		gt.Value(t, err).NotNil()
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("concurrent AppendMessage never duplicates Seq", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		session, err := repo.Chat().CreateSession(ctx, &model.ChatSession{Title: "parallel"})
		gt.NoError(t, err).Required()

		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = repo.Chat().AppendMessage(ctx, &model.ChatMessage{
					SessionID: session.ID, Role: types.RoleUser, Content: "m",
				}, "")
			}()
		}
		wg.Wait()

		appended := 0
		for _, err := range errs {
			if err == nil {
				appended++
			}
		}

		msgs, err := repo.Chat().ListMessages(ctx, session.ID, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(appended)
		for i, m := range msgs {
			gt.Value(t, m.Seq).Equal(int64(i + 1))
		}
	})

	t.Run("ListMessages with limit returns the latest messages ascending", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		session, err := repo.Chat().CreateSession(ctx, &model.ChatSession{Title: "tail"})
		gt.NoError(t, err).Required()

		for _, c := range []string{"a", "b", "c", "d", "e"} {
			_, err := repo.Chat().AppendMessage(ctx, &model.ChatMessage{
				SessionID: session.ID, Role: types.RoleUser, Content: c,
			}, "")
			gt.NoError(t, err).Required()
		}

		msgs, err := repo.Chat().ListMessages(ctx, session.ID, 3)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(3).Required()
		gt.Value(t, msgs[0].Content).Equal("c")
		gt.Value(t, msgs[1].Content).Equal("d")
		gt.Value(t, msgs[2].Content).Equal("e")
	})

	t.Run("ListSessions orders by UpdatedAt and carries the last message", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		older, err := repo.Chat().CreateSession(ctx, &model.ChatSession{Title: uniqueName("older")})
		gt.NoError(t, err).Required()
		newer, err := repo.Chat().CreateSession(ctx, &model.ChatSession{Title: uniqueName("newer")})
		gt.NoError(t, err).Required()

		time.Sleep(10 * time.Millisecond)
		_, err = repo.Chat().AppendMessage(ctx, &model.ChatMessage{
			SessionID: older.ID, Role: types.RoleUser, Content: "latest words",
		}, "")
		gt.NoError(t, err).Required()

		summaries, err := repo.Chat().ListSessions(ctx)
		gt.NoError(t, err).Required()

		olderIdx, newerIdx := -1, -1
		for i, s := range summaries {
			switch s.Session.ID {
			case older.ID:
				olderIdx = i
				gt.Value(t, s.LastMessage).Equal("latest words")
			case newer.ID:
				newerIdx = i
				gt.Value(t, s.LastMessage).Equal("")
			}
		}
		gt.Bool(t, olderIdx >= 0 && newerIdx >= 0).True()
		gt.Bool(t, olderIdx < newerIdx).True()
	})

	t.Run("DeleteSession removes the session and its messages", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		session, err := repo.Chat().CreateSession(ctx, &model.ChatSession{Title: "gone"})
		gt.NoError(t, err).Required()
		_, err = repo.Chat().AppendMessage(ctx, &model.ChatMessage{
			SessionID: session.ID, Role: types.RoleUser, Content: "bye",
		}, "")
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Chat().DeleteSession(ctx, session.ID)).Required()

		_, err = repo.Chat().GetSession(ctx, session.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		msgs, err := repo.Chat().ListMessages(ctx, session.ID, 0)
		gt.NoError(t, err)
		gt.Array(t, msgs).Length(0)

		err = repo.Chat().DeleteSession(ctx, session.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})
}

func TestChatRepository_Memory(t *testing.T) {
	runChatRepositoryTest(t, newMemoryRepository)
}

func TestChatRepository_Firestore(t *testing.T) {
	runChatRepositoryTest(t, newFirestoreRepository)
}

func TestChatRepository_Postgres(t *testing.T) {
	runChatRepositoryTest(t, newPostgresRepository)
}
